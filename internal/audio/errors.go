package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrToneNotFound means the tone reference does not resolve to a sound.
	ErrToneNotFound = errors.New("tone not found")
	// ErrUnsupportedFormat means the sound exists but cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported tone format")
	// ErrBackendBusy means the audio output refused the stream.
	ErrBackendBusy = errors.New("audio backend unavailable")
)

// PlaybackError reports a failed Play call.
type PlaybackError struct {
	// URI is the tone that could not be played.
	URI string
	// Err is the underlying cause, usually wrapping one of the sentinels above.
	Err error
}

// Error implements error.
func (e *PlaybackError) Error() string {
	return fmt.Sprintf("play tone %q: %v", e.URI, e.Err)
}

// Unwrap returns the cause.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}
