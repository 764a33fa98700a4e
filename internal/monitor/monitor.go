package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	"github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/location"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// ThresholdMeters is the inclusive arrival radius.
const ThresholdMeters = 500.0

var (
	// ErrNotIdle is returned by Start on a monitor that was already started or stopped.
	ErrNotIdle = errors.New("monitor is not idle")
	// errPlayerRequired is returned when New gets a nil player.
	errPlayerRequired = errors.New("sound player must be provided")
	// errSourceRequired is returned when Start gets a nil source.
	errSourceRequired = errors.New("location source must be provided")
)

// SoundPlayer is the audio side of the monitor.
type SoundPlayer interface {
	Play(ctx context.Context, ref tone.Reference) error
	Stop(ctx context.Context)
}

// Monitor is one proximity monitoring run. Build it with New, arm it with
// Start and end it with Stop; a stopped monitor cannot be restarted.
type Monitor struct {
	// target is fixed for the monitor's lifetime.
	target geo.Target
	// tone is nil when no alarm sound is configured.
	tone *tone.Reference
	// player plays the tone.
	player SoundPlayer
	// sink receives status updates.
	sink status.Sink
	// threshold is the inclusive arrival radius.
	threshold float64
	// id labels status updates and snapshots.
	id string
	// now is the clock.
	now func() time.Time
	// halted is canceled by Stop before it takes mu, so a tone that is still
	// opening gives up instead of holding Stop back.
	halted context.Context
	halt   context.CancelFunc

	// mu serializes sample handling against Start and Stop.
	mu sync.Mutex
	// phase is the lifecycle phase.
	phase session.Phase
	// lastDistance is nil until the first sample.
	lastDistance *float64
	// samples counts processed samples.
	samples uint64
	// startedAt, updatedAt and triggeredAt feed snapshots.
	startedAt, updatedAt, triggeredAt time.Time
	// sub is the location subscription while armed.
	sub location.Subscription
	// done is closed when the consumer goroutine exits.
	done chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSessionID labels the monitor's status updates and snapshots.
func WithSessionID(id string) Option {
	return func(m *Monitor) {
		m.id = id
	}
}

// WithThreshold overrides ThresholdMeters. Tests only.
func WithThreshold(meters float64) Option {
	return func(m *Monitor) {
		if meters > 0 {
			m.threshold = meters
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New validates target and builds an idle monitor. A nil ref disables the
// sound; a nil sink discards status updates.
func New(target geo.Target, ref *tone.Reference, player SoundPlayer, sink status.Sink, opts ...Option) (*Monitor, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	if player == nil {
		return nil, errPlayerRequired
	}

	if sink == nil {
		sink = status.Discard{}
	}

	m := &Monitor{
		target:    target,
		tone:      ref.Clone(),
		player:    player,
		sink:      sink,
		threshold: ThresholdMeters,
		now:       time.Now,
		phase:     session.PhaseIdle,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.halted, m.halt = context.WithCancel(context.Background())

	return m, nil
}

// Start arms the monitor, subscribes to source and begins consuming samples
// in arrival order on a single goroutine. On error the monitor stays idle.
func (m *Monitor) Start(ctx context.Context, source location.Source) error {
	if source == nil {
		return errSourceRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.phase.CanTransition(session.PhaseArmed) {
		return fmt.Errorf("%w: %s", ErrNotIdle, m.phase)
	}

	sub, err := source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to location source: %w", err)
	}

	m.sub = sub
	m.phase = session.PhaseArmed
	m.startedAt = m.now()
	m.done = make(chan struct{})

	m.publishLocked(ctx, status.KindStarted, status.StartedText(), nil)

	logger.InfoKV(ctx, "Monitoring started", "target", m.target.String(), "tone", m.tone.DisplayName())

	go m.consume(ctx, sub, m.done)

	return nil
}

// consume feeds samples to HandleSample until the subscription closes.
func (m *Monitor) consume(ctx context.Context, sub location.Subscription, done chan<- struct{}) {
	defer close(done)

	for sample := range sub.C() {
		m.HandleSample(ctx, sample)
	}
}

// HandleSample processes one sample. It is a no-op unless the monitor is
// armed or alerting.
func (m *Monitor) HandleSample(ctx context.Context, sample geo.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.phase.Active() {
		return
	}

	if err := sample.Validate(); err != nil {
		logger.WarnKV(ctx, "Location sample ignored", "sequence", sample.Sequence, "error", err)

		return
	}

	distance := m.target.DistanceTo(sample)

	m.lastDistance = &distance
	m.samples++
	m.updatedAt = m.now()

	logger.DebugKV(ctx, "Location sample processed",
		"sequence", sample.Sequence,
		"distance_meters", distance,
		"phase", m.phase.String(),
	)

	m.publishLocked(ctx, status.KindDistance, status.DistanceText(distance), &distance)

	// Written as !(d <= threshold) so that a NaN distance never triggers.
	if !(distance <= m.threshold) || m.phase != session.PhaseArmed {
		return
	}

	m.triggerLocked(ctx, distance)
}

// triggerLocked performs the one-shot Armed -> Alerting transition.
func (m *Monitor) triggerLocked(ctx context.Context, distance float64) {
	m.phase = session.PhaseAlerting
	m.triggeredAt = m.now()

	logger.InfoKV(ctx, "Alarm triggered", "distance_meters", distance, "threshold_meters", m.threshold)

	m.publishLocked(ctx, status.KindArrived, status.ArrivedText(m.threshold), &distance)

	if m.tone.IsZero() {
		return
	}

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	unhook := context.AfterFunc(m.halted, cancel)
	defer unhook()

	// Single attempt; monitoring continues whatever the outcome.
	if err := m.player.Play(playCtx, *m.tone); err != nil {
		logger.ErrorKV(ctx, "Failed to play alarm tone", "error", err)
	}
}

// Stop moves the monitor to Stopped from any phase. It cancels the
// subscription, releases the sound unconditionally, clears the notification
// and waits for the consumer goroutine. A tone that is still being opened is
// abandoned first. Calling it again is a no-op.
func (m *Monitor) Stop(ctx context.Context) {
	m.halt()

	m.mu.Lock()

	if m.phase == session.PhaseStopped {
		m.mu.Unlock()

		return
	}

	previous := m.phase
	m.phase = session.PhaseStopped

	sub, done := m.sub, m.done
	m.sub = nil

	if sub != nil {
		sub.Cancel()
	}

	m.player.Stop(ctx)

	if previous != session.PhaseIdle {
		m.sink.Publish(ctx, m.statusLocked(status.KindCleared, "", nil))
	}

	m.mu.Unlock()

	// The consumer exits once the cancelled subscription closes its channel;
	// samples it still drains are ignored because the phase is Stopped.
	if done != nil {
		<-done
	}

	logger.InfoKV(ctx, "Monitoring stopped", "previous_phase", previous.String(), "samples", m.samplesProcessed())
}

// Phase returns the current phase.
func (m *Monitor) Phase() session.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.phase
}

// Snapshot returns a copy of the monitor state.
func (m *Monitor) Snapshot() *session.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := &session.Snapshot{
		ID:                 m.id,
		Target:             m.target,
		Tone:               m.tone,
		Phase:              m.phase,
		LastDistanceMeters: m.lastDistance,
		SamplesProcessed:   m.samples,
		StartedAt:          m.startedAt,
		UpdatedAt:          m.updatedAt,
		TriggeredAt:        m.triggeredAt,
	}

	return snapshot.Clone()
}

func (m *Monitor) samplesProcessed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.samples
}

func (m *Monitor) publishLocked(ctx context.Context, kind status.Kind, text string, distance *float64) {
	m.sink.Publish(ctx, m.statusLocked(kind, text, distance))
}

func (m *Monitor) statusLocked(kind status.Kind, text string, distance *float64) status.Status {
	var copied *float64
	if distance != nil {
		value := *distance
		copied = &value
	}

	return status.Status{
		Kind:           kind,
		Text:           text,
		DistanceMeters: copied,
		SessionID:      m.id,
		Timestamp:      m.now(),
	}
}
