package client

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
	domain "github.com/oshokin/proximity-alarm/internal/domain/session"
	"github.com/oshokin/proximity-alarm/internal/domain/tone"
)

var errPermanent = errors.New("permanent")

func TestParseTarget(t *testing.T) {
	t.Parallel()

	target, err := ParseTarget("37.7749", "-122.4194")
	require.NoError(t, err)
	require.Equal(t, geo.Target{Latitude: 37.7749, Longitude: -122.4194}, target)

	_, err = ParseTarget("0", "0")
	require.ErrorIs(t, err, geo.ErrInvalidTarget)

	_, err = ParseTarget("north", "1")
	require.Error(t, err)

	_, err = ParseTarget("1", "east")
	require.Error(t, err)

	for _, args := range [][2]string{{"NaN", "0"}, {"37.7749", "NaN"}, {"+Inf", "1"}, {"91", "10"}, {"10", "-181"}} {
		_, err = ParseTarget(args[0], args[1])
		require.ErrorIs(t, err, geo.ErrInvalidTarget, args)
		require.ErrorIs(t, err, geo.ErrInvalidCoordinates, args)
	}
}

// TestRetry_TransientThenSuccess retries only Unavailable errors.
func TestRetry_TransientThenSuccess(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		calls := 0
		start := time.Now()

		err := retry(context.Background(), 3, time.Second, func() error {
			calls++
			if calls < 3 {
				return grpcstatus.Error(codes.Unavailable, "down")
			}

			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 3, calls)
		require.Equal(t, 2*time.Second, time.Since(start))
	})
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0

	err := retry(context.Background(), 5, time.Hour, func() error {
		calls++

		return errPermanent
	})

	require.ErrorIs(t, err, errPermanent)
	require.Equal(t, 1, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		calls := 0

		err := retry(context.Background(), 2, time.Second, func() error {
			calls++

			return grpcstatus.Error(codes.Unavailable, "down")
		})

		require.Equal(t, codes.Unavailable, grpcstatus.Code(err))
		require.Equal(t, 2, calls)
	})
}

func TestRunStart_RejectsInvalidTarget(t *testing.T) {
	t.Parallel()

	err := RunStart(context.Background(), &StartOptions{})
	require.ErrorIs(t, err, geo.ErrInvalidTarget)
}

func TestFormatSnapshot(t *testing.T) {
	t.Parallel()

	distance := 742.4
	text := FormatSnapshot(&domain.Snapshot{
		ID:                 "abc",
		Target:             geo.Target{Latitude: 1, Longitude: 2},
		Tone:               &tone.Reference{URI: "builtin:alarm", Name: "Alarm"},
		Phase:              domain.PhaseArmed,
		LastDistanceMeters: &distance,
		SamplesProcessed:   3,
	})

	require.Contains(t, text, "abc armed")
	require.Contains(t, text, "target=1.000000,2.000000")
	require.Contains(t, text, `tone="Alarm"`)
	require.Contains(t, text, "distance=742 m")
	require.Contains(t, text, "samples=3")
	require.Equal(t, "<nil session>", FormatSnapshot(nil))
}
