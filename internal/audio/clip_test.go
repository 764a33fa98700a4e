package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// writeWAV encodes a 16-bit PCM file for tests.
func writeWAV(t *testing.T, path string, channels int, data []int) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(file, 8000, 16, channels, 1)
	require.NoError(t, encoder.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  8000,
		},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, file.Close())
}

// TestLoadClip_WAV decodes files given as bare paths and as file URIs.
func TestLoadClip_WAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, 2, []int{100, -100, 2000, -2000})

	for _, uri := range []string{path, "file://" + path} {
		clip, err := LoadClip(context.Background(), uri)
		require.NoError(t, err, uri)
		require.Equal(t, 2, clip.Channels)
		require.Equal(t, 8000, clip.SampleRate)
		require.Equal(t, []int16{100, -100, 2000, -2000}, clip.Samples)
	}
}

// TestLoadClip_Errors maps failures to the sentinel errors.
func TestLoadClip_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := LoadClip(context.Background(), "")
	require.ErrorIs(t, err, ErrToneNotFound)

	_, err = LoadClip(context.Background(), filepath.Join(dir, "missing.wav"))
	require.ErrorIs(t, err, ErrToneNotFound)

	notWAV := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notWAV, []byte("definitely not RIFF"), 0o600))

	_, err = LoadClip(context.Background(), notWAV)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadClip(context.Background(), "https://example.com/tone.wav")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadClip(context.Background(), "builtin:unknown")
	require.ErrorIs(t, err, ErrToneNotFound)
}

// TestLoadClip_Builtin checks the synthesized tones.
func TestLoadClip_Builtin(t *testing.T) {
	t.Parallel()

	for _, uri := range []string{BuiltinAlarm, BuiltinBeep} {
		clip, err := LoadClip(context.Background(), uri)
		require.NoError(t, err)
		require.Equal(t, 1, clip.Channels)
		require.Equal(t, builtinSampleRate, clip.SampleRate)
		require.NotEmpty(t, clip.Samples)
		require.Zero(t, clip.Samples[0], "fade-in starts from silence")
	}
}

// TestToInt16 scales each supported bit depth.
func TestToInt16(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value, depth int
		want         int16
	}{
		{value: 255, depth: 8, want: 127 << 8},
		{value: 0, depth: 8, want: -128 << 8},
		{value: -1234, depth: 16, want: -1234},
		{value: 0x7fff00, depth: 24, want: 0x7fff},
		{value: -0x10000, depth: 32, want: -1},
	}

	for _, tc := range cases {
		got, err := toInt16(tc.value, tc.depth)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := toInt16(0, 12)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

// TestLoopReader_Wraps ensures the clip repeats without gaps.
func TestLoopReader_Wraps(t *testing.T) {
	t.Parallel()

	r := newLoopReader([]int16{1, 2, 3})
	buf := make([]int16, 7)

	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, []int16{1, 2, 3, 1, 2, 3, 1}, buf)

	n, err = r.Read(buf[:2])
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []int16{2, 3}, buf[:2])

	_, err = newLoopReader(nil).Read(buf)
	require.Error(t, err)
}
