package geo

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidTarget is returned for the (0, 0) "unset" destination and for
	// targets with invalid coordinates.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrInvalidCoordinates is returned for non-finite or out of range degrees.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// ValidateCoordinates accepts finite latitudes in [-90, 90] and longitudes in
// [-180, 180].
func ValidateCoordinates(latitude, longitude float64) error {
	switch {
	case math.IsNaN(latitude) || math.IsInf(latitude, 0) || math.Abs(latitude) > 90:
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, latitude)
	case math.IsNaN(longitude) || math.IsInf(longitude, 0) || math.Abs(longitude) > 180:
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, longitude)
	}

	return nil
}

// Target is the destination being monitored. It is a value and never changes
// once a session is armed.
type Target struct {
	// Latitude in decimal degrees.
	Latitude float64
	// Longitude in decimal degrees.
	Longitude float64
}

// IsZero reports whether both components are exactly zero.
func (t Target) IsZero() bool {
	return t.Latitude == 0 && t.Longitude == 0
}

// Validate rejects the zero sentinel and invalid coordinates.
func (t Target) Validate() error {
	if t.IsZero() {
		return fmt.Errorf("%w: latitude and longitude are both zero", ErrInvalidTarget)
	}

	if err := ValidateCoordinates(t.Latitude, t.Longitude); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}

	return nil
}

// String renders the target as "lat,lon".
func (t Target) String() string {
	return fmt.Sprintf("%.6f,%.6f", t.Latitude, t.Longitude)
}

// DistanceTo returns the distance in meters from the target to s.
func (t Target) DistanceTo(s Sample) float64 {
	return Distance(s.Latitude, s.Longitude, t.Latitude, t.Longitude)
}

// Sample is a single position reported by a location source.
type Sample struct {
	// Latitude in decimal degrees.
	Latitude float64
	// Longitude in decimal degrees.
	Longitude float64
	// AccuracyMeters is the reported horizontal accuracy, zero when unknown.
	AccuracyMeters float64
	// Timestamp is when the position was measured.
	Timestamp time.Time
	// Sequence is assigned by the source in delivery order.
	Sequence uint64
}

// Validate rejects samples with invalid coordinates.
func (s Sample) Validate() error {
	return ValidateCoordinates(s.Latitude, s.Longitude)
}
