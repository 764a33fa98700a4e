package location

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	"github.com/oshokin/proximity-alarm/internal/logger"
)

// Replay is a Source that plays a Track back at the policy interval. The
// first point is emitted right away. When the track ends the subscription
// stays open and silent, like a provider that lost its fix.
type Replay struct {
	// track is the recording to play.
	track *Track
	// policy sets the pace and filters points.
	policy Policy

	// mu guards active.
	mu sync.Mutex
	// active is true while a subscription exists.
	active bool
}

// NewReplay creates a replay source.
func NewReplay(track *Track, policy Policy) *Replay {
	return &Replay{
		track:  track,
		policy: policy,
	}
}

// Subscribe starts the playback goroutine. It ends on Cancel or when ctx is done.
//
//nolint:ireturn // Sources return the Subscription interface.
func (r *Replay) Subscribe(ctx context.Context) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return nil, ErrAlreadySubscribed
	}

	r.active = true

	sub := &replaySubscription{
		replay: r,
		ch:     make(chan geo.Sample),
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go sub.run(ctx)

	return sub, nil
}

func (r *Replay) release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = false
}

// replaySubscription is the Subscription handed out by Replay.
type replaySubscription struct {
	replay *Replay
	ch     chan geo.Sample
	cancel chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *replaySubscription) C() <-chan geo.Sample {
	return s.ch
}

// Cancel stops playback and waits for the goroutine to exit.
func (s *replaySubscription) Cancel() {
	s.once.Do(func() {
		close(s.cancel)
		<-s.done
		s.replay.release()
	})
}

func (s *replaySubscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.ch)

	interval := s.replay.policy.Interval
	if interval <= 0 {
		interval = DefaultPolicy().Interval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		last     *geo.Sample
		sequence uint64
	)

	for i, point := range s.replay.track.Samples {
		if i > 0 {
			select {
			case <-ticker.C:
			case <-s.cancel:
				return
			case <-ctx.Done():
				return
			}
		}

		sample := point.Sample()
		if sample.Timestamp.IsZero() {
			sample.Timestamp = time.Now()
		}

		if !s.replay.policy.Accept(last, sample) {
			logger.DebugKV(ctx, "Replay point filtered by cadence policy", "index", i)

			continue
		}

		sequence++
		sample.Sequence = sequence

		select {
		case s.ch <- sample:
			delivered := sample
			last = &delivered
		case <-s.cancel:
			return
		case <-ctx.Done():
			return
		}
	}

	logger.InfoKV(ctx, "Track replay finished", "track", s.replay.track.Name, "delivered", sequence)

	select {
	case <-s.cancel:
	case <-ctx.Done():
	}
}
