package location

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
)

// ErrEmptyTrack is returned for tracks without samples.
var ErrEmptyTrack = errors.New("track has no samples")

// Track is a recorded sequence of positions.
type Track struct {
	// Name is a free-form label.
	Name string `yaml:"name"`
	// Samples are replayed in file order.
	Samples []TrackPoint `yaml:"samples"`
}

// TrackPoint is one recorded position.
type TrackPoint struct {
	// Latitude in decimal degrees.
	Latitude float64 `yaml:"lat"`
	// Longitude in decimal degrees.
	Longitude float64 `yaml:"lon"`
	// AccuracyMeters is optional.
	AccuracyMeters float64 `yaml:"accuracy,omitempty"`
	// At is optional; replay stamps points without it at emission time.
	At time.Time `yaml:"at,omitempty"`
}

// Sample converts the point to a geo.Sample.
func (p TrackPoint) Sample() geo.Sample {
	return geo.Sample{
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		AccuracyMeters: p.AccuracyMeters,
		Timestamp:      p.At,
	}
}

// LoadTrack reads a YAML track file.
func LoadTrack(path string) (*Track, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read track: %w", err)
	}

	var track Track
	if err = yaml.Unmarshal(contents, &track); err != nil {
		return nil, fmt.Errorf("unmarshal track: %w", err)
	}

	if len(track.Samples) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTrack)
	}

	return &track, nil
}
