package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/host"
	"github.com/oshokin/proximity-alarm/internal/location"
	"github.com/oshokin/proximity-alarm/internal/logger"
	"github.com/oshokin/proximity-alarm/internal/monitor"
	"github.com/oshokin/proximity-alarm/internal/status"
)

// keepAliveReason is shown by the OS for the held inhibitor.
const keepAliveReason = "proximity alarm session is running"

var (
	// ErrInvalidTarget is returned by Start for the (0, 0) target.
	ErrInvalidTarget = geo.ErrInvalidTarget
	// ErrAlreadyRunning is returned when session exclusivity cannot be established.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrClosed is returned by Start after Close. It wraps ErrAlreadyRunning.
	ErrClosed = fmt.Errorf("%w: controller closed", ErrAlreadyRunning)

	// errSourceRequired is returned when NewController gets a nil source.
	errSourceRequired = errors.New("location source must be provided")
	// errPlayerRequired is returned when NewController gets a nil player.
	errPlayerRequired = errors.New("sound player must be provided")
)

// Handle describes a started session.
type Handle struct {
	// ID identifies the session.
	ID uuid.UUID
	// StartedAt is when Start succeeded.
	StartedAt time.Time
	// Target is the monitored destination.
	Target geo.Target
	// Tone is nil when no alarm sound is configured.
	Tone *tone.Reference
}

// active bundles the resources of the running session.
type active struct {
	handle  *Handle
	monitor *monitor.Monitor
	token   host.Token
}

// Controller starts and stops monitoring sessions, one at a time.
type Controller struct {
	source location.Source
	player monitor.SoundPlayer
	sink   status.Sink
	keeper host.Keeper

	now          func() time.Time
	newID        func() uuid.UUID
	monitorOpts  []monitor.Option
	mu           sync.Mutex
	current      *active
	closed       bool
	lastSnapshot *domain.Snapshot
}

// Option configures a Controller.
type Option func(*Controller)

// WithSink sets the status sink shared by all sessions.
func WithSink(sink status.Sink) Option {
	return func(c *Controller) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithKeeper sets the keep-alive keeper. Defaults to host.NoopKeeper.
func WithKeeper(keeper host.Keeper) Option {
	return func(c *Controller) {
		if keeper != nil {
			c.keeper = keeper
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMonitorOptions appends options passed to every monitor.
func WithMonitorOptions(opts ...monitor.Option) Option {
	return func(c *Controller) {
		c.monitorOpts = append(c.monitorOpts, opts...)
	}
}

// NewController creates a controller reading samples from source and
// playing alarms through player.
func NewController(source location.Source, player monitor.SoundPlayer, opts ...Option) (*Controller, error) {
	if source == nil {
		return nil, errSourceRequired
	}

	if player == nil {
		return nil, errPlayerRequired
	}

	c := &Controller{
		source: source,
		player: player,
		sink:   status.Discard{},
		keeper: host.NewNoopKeeper(),
		now:    time.Now,
		newID:  uuid.New,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Start validates target, stops any previous session and starts a new one.
// The session outlives ctx; it ends with Stop or Close.
func (c *Controller) Start(ctx context.Context, target geo.Target, ref *tone.Reference) (*Handle, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	c.stopLocked(ctx)

	token, err := c.keeper.Acquire(ctx, keepAliveReason)
	if err != nil {
		if errors.Is(err, host.ErrBusy) {
			return nil, fmt.Errorf("%w: %w", ErrAlreadyRunning, err)
		}

		return nil, fmt.Errorf("acquire keep-alive: %w", err)
	}

	handle := &Handle{
		ID:        c.newID(),
		StartedAt: c.now(),
		Target:    target,
		Tone:      ref.Clone(),
	}

	opts := append([]monitor.Option{
		monitor.WithSessionID(handle.ID.String()),
		monitor.WithClock(c.now),
	}, c.monitorOpts...)

	m, err := monitor.New(target, handle.Tone, c.player, c.sink, opts...)
	if err != nil {
		c.releaseToken(ctx, token)

		return nil, fmt.Errorf("create monitor: %w", err)
	}

	// Monitoring must not end with the request that started it.
	runCtx := logger.WithKV(context.WithoutCancel(ctx), "session_id", handle.ID.String())

	if err = m.Start(runCtx, c.source); err != nil {
		c.releaseToken(ctx, token)

		if errors.Is(err, location.ErrAlreadySubscribed) {
			return nil, fmt.Errorf("%w: %w", ErrAlreadyRunning, err)
		}

		return nil, fmt.Errorf("start monitor: %w", err)
	}

	c.current = &active{
		handle:  handle,
		monitor: m,
		token:   token,
	}

	logger.InfoKV(ctx, "Session started",
		"session_id", handle.ID.String(),
		"target", target.String(),
		"tone", handle.Tone.DisplayName(),
	)

	return cloneHandle(handle), nil
}

// Stop ends the running session, if any. Calling it without a session is a no-op.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(ctx)
}

// Close stops the running session and rejects further starts.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(ctx)
	c.closed = true
}

// Status returns the snapshot of the running session. The second result is
// false when no session is running.
func (c *Controller) Status() (*domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, false
	}

	return c.current.monitor.Snapshot(), true
}

// Last returns the final snapshot of the most recently stopped session.
func (c *Controller) Last() (*domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastSnapshot == nil {
		return nil, false
	}

	return c.lastSnapshot.Clone(), true
}

// Current returns the handle of the running session.
func (c *Controller) Current() (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, false
	}

	return cloneHandle(c.current.handle), true
}

func (c *Controller) stopLocked(ctx context.Context) {
	if c.current == nil {
		return
	}

	current := c.current
	c.current = nil

	current.monitor.Stop(ctx)
	c.lastSnapshot = current.monitor.Snapshot()
	c.releaseToken(ctx, current.token)

	logger.InfoKV(ctx, "Session stopped", "session_id", current.handle.ID.String())
}

func (c *Controller) releaseToken(ctx context.Context, token host.Token) {
	if err := token.Release(); err != nil {
		logger.ErrorKV(ctx, "Failed to release keep-alive", "error", err)
	}
}

func cloneHandle(h *Handle) *Handle {
	cloned := *h
	cloned.Tone = h.Tone.Clone()

	return &cloned
}
