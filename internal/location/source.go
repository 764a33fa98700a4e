package location

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
)

var (
	// ErrAlreadySubscribed is returned when a second consumer subscribes.
	ErrAlreadySubscribed = errors.New("location source already has a subscriber")
	// ErrNoSubscriber is returned when a sample is pushed with nobody listening.
	ErrNoSubscriber = errors.New("location source has no subscriber")
)

// Source yields position samples to one subscriber at a time.
type Source interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription is a cancellable, ordered stream of samples.
type Subscription interface {
	// C returns the sample channel. It is closed after Cancel.
	C() <-chan geo.Sample
	// Cancel ends the subscription. It is safe to call more than once.
	Cancel()
}

// Policy is the cadence requested from the location provider.
type Policy struct {
	// Interval is the desired time between samples.
	Interval time.Duration
	// MinInterval is the shortest time between two delivered samples.
	MinInterval time.Duration
	// MinDistanceMeters is the movement required between two delivered samples.
	MinDistanceMeters float64
}

// DefaultPolicy mirrors a high-accuracy provider request: every 5 s, no more
// often than every 2 s and only after 10 m of movement.
func DefaultPolicy() Policy {
	return Policy{
		Interval:          5 * time.Second,
		MinInterval:       2 * time.Second,
		MinDistanceMeters: 10,
	}
}

// Accept reports whether next should be delivered after last.
// The first sample (last == nil) is always delivered.
func (p Policy) Accept(last *geo.Sample, next geo.Sample) bool {
	if last == nil {
		return true
	}

	if p.MinInterval > 0 && next.Timestamp.Sub(last.Timestamp) < p.MinInterval {
		return false
	}

	if p.MinDistanceMeters > 0 &&
		geo.Distance(last.Latitude, last.Longitude, next.Latitude, next.Longitude) < p.MinDistanceMeters {
		return false
	}

	return true
}
