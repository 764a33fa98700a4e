package feeder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	"github.com/oshokin/proximity-alarm/internal/location"
)

var errDown = errors.New("daemon down")

type recordingReporter struct {
	mu      sync.Mutex
	samples []geo.Sample
	times   []time.Time
	err     error
}

func (r *recordingReporter) ReportLocation(_ context.Context, sample geo.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, sample)
	r.times = append(r.times, time.Now())

	return r.err
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.samples)
}

func track() *location.Track {
	return &location.Track{
		Name: "walk",
		Samples: []location.TrackPoint{
			{Latitude: 37.80, Longitude: -122.45},
			{Latitude: 37.7795, Longitude: -122.4194},
			{Latitude: 37.7751, Longitude: -122.4195},
		},
	}
}

// TestFeed_SendsAtInterval replays every point one interval apart.
func TestFeed_SendsAtInterval(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		reporter := new(recordingReporter)
		start := time.Now()

		require.NoError(t, Feed(context.Background(), reporter, track(), 5*time.Second, false))

		require.Len(t, reporter.samples, 3)
		require.InDelta(t, 37.7751, reporter.samples[2].Latitude, 1e-9)

		for i, at := range reporter.times {
			require.Equal(t, time.Duration(i)*5*time.Second, at.Sub(start))
			require.False(t, reporter.samples[i].Timestamp.IsZero())
		}
	})
}

// TestFeed_ContinuesAfterErrors logs failed reports and keeps going.
func TestFeed_ContinuesAfterErrors(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		reporter := &recordingReporter{err: errDown}

		require.NoError(t, Feed(context.Background(), reporter, track(), time.Second, false))
		require.Equal(t, 3, reporter.count())
	})
}

// TestFeed_LoopUntilCanceled wraps around until the context ends.
func TestFeed_LoopUntilCanceled(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		reporter := new(recordingReporter)

		ctx, cancel := context.WithTimeout(context.Background(), 7*time.Second+time.Millisecond)
		defer cancel()

		require.NoError(t, Feed(ctx, reporter, track(), time.Second, true))

		// Sends at 0s..7s: eight reports, the track wrapped twice.
		require.Equal(t, 8, reporter.count())
		require.InDelta(t, 37.80, reporter.samples[3].Latitude, 1e-9)
	})
}

// TestFeed_RejectsEmptyTrack returns an error instead of indexing nothing.
func TestFeed_RejectsEmptyTrack(t *testing.T) {
	t.Parallel()

	reporter := new(recordingReporter)

	require.ErrorIs(t, Feed(context.Background(), reporter, &location.Track{Name: "empty"}, time.Second, true), location.ErrEmptyTrack)
	require.ErrorIs(t, Feed(context.Background(), reporter, nil, time.Second, false), location.ErrEmptyTrack)
	require.Zero(t, reporter.count())
}

// TestFeed_LoopRestampsRecordedPoints keeps timestamps moving forward after the
// track wraps, so the cadence policy accepts the looped points.
func TestFeed_LoopRestampsRecordedPoints(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		// The bubble clock starts at 2000-01-01 UTC, after the recording.
		recorded := time.Date(1999, 12, 31, 23, 0, 0, 0, time.UTC)
		recordedTrack := &location.Track{
			Name: "recorded",
			Samples: []location.TrackPoint{
				{Latitude: 37.80, Longitude: -122.45, At: recorded},
				{Latitude: 37.7795, Longitude: -122.4194, At: recorded.Add(5 * time.Second)},
			},
		}

		reporter := new(recordingReporter)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second+time.Millisecond)
		defer cancel()

		require.NoError(t, Feed(ctx, reporter, recordedTrack, time.Second, true))
		require.Equal(t, 6, reporter.count())

		// The first pass keeps the recording.
		require.Equal(t, recorded, reporter.samples[0].Timestamp)
		require.Equal(t, recorded.Add(5*time.Second), reporter.samples[1].Timestamp)

		policy := location.Policy{MinInterval: time.Second}
		last := reporter.samples[0]

		for i, sample := range reporter.samples[1:] {
			require.Truef(t, sample.Timestamp.After(last.Timestamp), "sample %d went back in time", i+1)
			require.True(t, policy.Accept(&last, sample))

			last = sample
		}
	})
}
