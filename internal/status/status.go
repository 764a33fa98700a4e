package status

import (
	"context"
	"fmt"
	"time"
)

// Title is the notification title shown while a session runs.
const Title = "Location Alarm Active"

// Kind classifies a status update.
type Kind string

const (
	// KindStarted is published when monitoring begins.
	KindStarted Kind = "started"
	// KindDistance is published once per processed sample.
	KindDistance Kind = "distance"
	// KindArrived is published once, when the alarm fires.
	KindArrived Kind = "arrived"
	// KindCleared is published when the session stops and the notification goes away.
	KindCleared Kind = "cleared"
)

// Status is one notification update.
type Status struct {
	// Kind classifies the update.
	Kind Kind
	// Text is the notification body.
	Text string
	// DistanceMeters is set for distance and arrived updates.
	DistanceMeters *float64
	// SessionID identifies the session, may be empty.
	SessionID string
	// Timestamp is when the update was produced.
	Timestamp time.Time
}

// Sink receives status updates. Publish must not block the caller for long
// and must not fail it: delivery is fire-and-forget.
type Sink interface {
	Publish(ctx context.Context, update Status)
}

// StartedText is the body shown while waiting for the first sample.
func StartedText() string {
	return "Starting location monitoring..."
}

// DistanceText renders the per-sample body.
func DistanceText(meters float64) string {
	return fmt.Sprintf("distance = %.0f meters", meters)
}

// ArrivedText renders the body shown once the threshold is crossed.
func ArrivedText(thresholdMeters float64) string {
	return fmt.Sprintf("DESTINATION REACHED! You are within %.0fm", thresholdMeters)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, update Status)

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, update Status) {
	f(ctx, update)
}

// Multi fans an update out to several sinks in order.
type Multi []Sink

// Publish forwards update to every non-nil sink.
func (m Multi) Publish(ctx context.Context, update Status) {
	for _, sink := range m {
		if sink != nil {
			sink.Publish(ctx, update)
		}
	}
}

// Discard drops every update.
type Discard struct{}

// Publish does nothing.
func (Discard) Publish(context.Context, Status) {}
