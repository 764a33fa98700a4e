package audio

import (
	"context"
	"sync"

	"github.com/oshokin/proximity-alarm/internal/domain/tone"
	"github.com/oshokin/proximity-alarm/internal/logger"
)

// Backend opens looped playback of a clip on an audio output.
type Backend interface {
	Open(ctx context.Context, clip *Clip) (Playback, error)
}

// Playback is an open, looping output stream.
type Playback interface {
	// Stop halts output.
	Stop()
	// Close releases the stream and its connection.
	Close() error
}

// Player plays at most one tone at a time and guarantees release on Stop.
type Player struct {
	// backend opens output streams.
	backend Backend
	// load resolves tone URIs to clips.
	load ClipLoader

	// mu serializes Play and Stop.
	mu sync.Mutex
	// current is the open playback, nil when idle.
	current Playback
	// playing is the tone behind current.
	playing *tone.Reference
}

// Option configures a Player.
type Option func(*Player)

// WithClipLoader replaces LoadClip.
func WithClipLoader(loader ClipLoader) Option {
	return func(p *Player) {
		if loader != nil {
			p.load = loader
		}
	}
}

// NewPlayer creates a player on top of backend.
func NewPlayer(backend Backend, opts ...Option) *Player {
	p := &Player{
		backend: backend,
		load:    LoadClip,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Play starts looped playback of ref, stopping and releasing any playback in
// progress first. Errors are returned as *PlaybackError.
func (p *Player) Play(ctx context.Context, ref tone.Reference) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked(ctx)

	clip, err := p.load(ctx, ref.URI)
	if err != nil {
		return &PlaybackError{URI: ref.URI, Err: err}
	}

	playback, err := p.backend.Open(ctx, clip)
	if err != nil {
		return &PlaybackError{URI: ref.URI, Err: err}
	}

	p.current = playback
	p.playing = ref.Clone()

	logger.InfoKV(ctx, "Alarm sound started", "tone", ref.DisplayName())

	return nil
}

// Stop halts playback and releases the stream. It is a no-op when idle.
func (p *Player) Stop(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked(ctx)
}

// Playing reports whether a tone is currently playing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current != nil
}

func (p *Player) stopLocked(ctx context.Context) {
	if p.current == nil {
		return
	}

	p.current.Stop()

	if err := p.current.Close(); err != nil {
		logger.WarnKV(ctx, "Failed to release audio stream", "error", err)
	}

	logger.InfoKV(ctx, "Alarm sound stopped", "tone", p.playing.DisplayName())

	p.current = nil
	p.playing = nil
}
