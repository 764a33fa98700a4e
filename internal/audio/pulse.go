package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// playbackLatency is the requested buffer size in seconds.
const playbackLatency = 0.1

// PulseBackend plays clips on the default PulseAudio sink. Every Open gets its
// own client connection so that Close fully releases the server resources.
type PulseBackend struct {
	// applicationName is reported to the sound server.
	applicationName string
}

// NewPulseBackend returns a backend identifying itself as applicationName.
func NewPulseBackend(applicationName string) *PulseBackend {
	return &PulseBackend{
		applicationName: applicationName,
	}
}

// Open connects to the sound server and starts looping clip. It gives up
// when ctx ends before the connection is established.
//
//nolint:ireturn // Backends return the Playback interface.
func (b *PulseBackend) Open(ctx context.Context, clip *Clip) (Playback, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to sound server: %w", ErrBackendBusy, err)
	}

	channels := pulse.PlaybackMono
	if clip.Channels == 2 {
		channels = pulse.PlaybackStereo
	}

	loop := newLoopReader(clip.Samples)

	stream, err := client.NewPlayback(
		pulse.Int16Reader(loop.Read),
		channels,
		pulse.PlaybackSampleRate(clip.SampleRate),
		pulse.PlaybackLatency(playbackLatency),
	)
	if err != nil {
		client.Close()

		return nil, fmt.Errorf("%w: create playback stream: %w", ErrBackendBusy, err)
	}

	stream.Start()

	return &pulsePlayback{
		client: client,
		stream: stream,
	}, nil
}

type dialResult struct {
	client *pulse.Client
	err    error
}

// connect dials the sound server without blocking past ctx. A connection
// that completes after ctx ended is closed right away.
func (b *PulseBackend) connect(ctx context.Context) (*pulse.Client, error) {
	results := make(chan dialResult, 1)

	go func() {
		client, err := pulse.NewClient(pulse.ClientApplicationName(b.applicationName))
		results <- dialResult{client: client, err: err}
	}()

	select {
	case result := <-results:
		return result.client, result.err
	case <-ctx.Done():
		go func() {
			if result := <-results; result.err == nil {
				result.client.Close()
			}
		}()

		return nil, ctx.Err()
	}
}

// pulsePlayback owns one client connection and its stream.
type pulsePlayback struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
}

func (p *pulsePlayback) Stop() {
	p.stream.Stop()
}

func (p *pulsePlayback) Close() error {
	err := p.stream.Error()

	p.stream.Close()
	p.client.Close()

	return err
}

// loopReader yields the clip forever.
type loopReader struct {
	samples []int16
	pos     int
}

func newLoopReader(samples []int16) *loopReader {
	return &loopReader{
		samples: samples,
	}
}

// Read fills buf, wrapping around at the end of the clip.
func (r *loopReader) Read(buf []int16) (int, error) {
	if len(r.samples) == 0 {
		return 0, pulse.EndOfData
	}

	n := 0
	for n < len(buf) {
		copied := copy(buf[n:], r.samples[r.pos:])
		n += copied
		r.pos = (r.pos + copied) % len(r.samples)
	}

	return n, nil
}

// NoopBackend accepts every clip and produces no sound.
type NoopBackend struct{}

// Open returns a playback that does nothing.
//
//nolint:ireturn // Backends return the Playback interface.
func (NoopBackend) Open(context.Context, *Clip) (Playback, error) {
	return noopPlayback{}, nil
}

type noopPlayback struct{}

func (noopPlayback) Stop() {}

func (noopPlayback) Close() error { return nil }
