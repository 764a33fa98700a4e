package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

const (
	// BuiltinPrefix marks tones synthesized in process.
	BuiltinPrefix = "builtin:"
	// BuiltinAlarm is a two-tone siren.
	BuiltinAlarm = BuiltinPrefix + "alarm"
	// BuiltinBeep is a short beep followed by silence.
	BuiltinBeep = BuiltinPrefix + "beep"

	builtinSampleRate = 44100
	builtinVolume     = 0.6

	// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
	wavFormatPCM = 1
)

// Clip is interleaved 16-bit PCM audio.
type Clip struct {
	// Samples holds interleaved frames.
	Samples []int16
	// Channels is 1 (mono) or 2 (stereo).
	Channels int
	// SampleRate is in Hz.
	SampleRate int
}

// ClipLoader resolves a tone URI into a clip.
type ClipLoader func(ctx context.Context, uri string) (*Clip, error)

// LoadClip resolves builtin tones, file:// URIs and bare paths to WAV files.
func LoadClip(_ context.Context, uri string) (*Clip, error) {
	switch {
	case uri == "":
		return nil, ErrToneNotFound
	case strings.HasPrefix(uri, BuiltinPrefix):
		return builtinClip(uri)
	}

	path, err := tonePath(uri)
	if err != nil {
		return nil, err
	}

	return loadWAV(path)
}

// tonePath turns a file URI or a bare path into a filesystem path.
func tonePath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return filepath.Clean(uri), nil
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q: %w", ErrToneNotFound, uri, err)
	}

	if parsed.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedFormat, parsed.Scheme)
	}

	return filepath.Clean(parsed.Path), nil
}

func loadWAV(path string) (*Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrToneNotFound, path)
		}

		return nil, fmt.Errorf("open tone: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a WAV file", ErrUnsupportedFormat, path)
	}

	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV format tag %d", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	channels := int(decoder.NumChans)
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnsupportedFormat, path, err)
	}

	if len(buffer.Data) == 0 {
		return nil, fmt.Errorf("%w: %s has no samples", ErrUnsupportedFormat, path)
	}

	samples := make([]int16, len(buffer.Data))

	for i, value := range buffer.Data {
		sample, err := toInt16(value, int(decoder.BitDepth))
		if err != nil {
			return nil, err
		}

		samples[i] = sample
	}

	return &Clip{
		Samples:    samples,
		Channels:   channels,
		SampleRate: int(decoder.SampleRate),
	}, nil
}

// toInt16 scales a decoded PCM value of the given bit depth to 16 bits.
func toInt16(value, bitDepth int) (int16, error) {
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		return int16((value - 128) << 8), nil
	case 16:
		return int16(value), nil
	case 24:
		return int16(value >> 8), nil
	case 32:
		return int16(value >> 16), nil
	default:
		return 0, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bitDepth)
	}
}

func builtinClip(uri string) (*Clip, error) {
	switch uri {
	case BuiltinAlarm:
		// 880 Hz and 660 Hz alternating every quarter second.
		siren := append(sine(880, 0.25), sine(660, 0.25)...)

		return &Clip{Samples: siren, Channels: 1, SampleRate: builtinSampleRate}, nil
	case BuiltinBeep:
		beep := append(sine(1000, 0.2), make([]int16, int(0.3*builtinSampleRate))...)

		return &Clip{Samples: beep, Channels: 1, SampleRate: builtinSampleRate}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrToneNotFound, uri)
	}
}

// sine renders a mono sine wave with a short fade at both ends to avoid clicks.
func sine(freq, seconds float64) []int16 {
	n := int(seconds * builtinSampleRate)
	fade := n / 20
	samples := make([]int16, n)

	for i := range n {
		envelope := 1.0
		if i < fade {
			envelope = float64(i) / float64(fade)
		} else if i >= n-fade {
			envelope = float64(n-1-i) / float64(fade)
		}

		t := float64(i) / builtinSampleRate
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * math.MaxInt16 * builtinVolume * envelope)
	}

	return samples
}
