package location

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
)

// TestPolicy_Accept covers the first sample, the interval gate and the distance gate.
func TestPolicy_Accept(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	start := time.Unix(1_700_000_000, 0)
	last := &geo.Sample{Latitude: 37.7749, Longitude: -122.4194, Timestamp: start}

	require.True(t, policy.Accept(nil, *last))

	// Too soon.
	require.False(t, policy.Accept(last, geo.Sample{Latitude: 37.78, Longitude: -122.4194, Timestamp: start.Add(time.Second)}))

	// Not far enough (about 1 m).
	require.False(t, policy.Accept(last, geo.Sample{Latitude: 37.77491, Longitude: -122.4194, Timestamp: start.Add(3 * time.Second)}))

	// Both gates pass.
	require.True(t, policy.Accept(last, geo.Sample{Latitude: 37.78, Longitude: -122.4194, Timestamp: start.Add(3 * time.Second)}))

	// Zero policy accepts everything.
	require.True(t, Policy{}.Accept(last, *last))
}

// TestFeed_DeliversInOrder pushes samples and reads them back in order with sequence numbers.
func TestFeed_DeliversInOrder(t *testing.T) {
	t.Parallel()

	feed := NewFeed(Policy{}, WithBuffer(8))

	sub, err := feed.Subscribe(context.Background())
	require.NoError(t, err)

	defer sub.Cancel()

	for i := range 5 {
		accepted, err := feed.Push(context.Background(), geo.Sample{Latitude: float64(i + 1), Longitude: 1})
		require.NoError(t, err)
		require.True(t, accepted)
	}

	for i := range 5 {
		sample := <-sub.C()
		require.InDelta(t, float64(i+1), sample.Latitude, 0)
		require.Equal(t, uint64(i+1), sample.Sequence)
		require.False(t, sample.Timestamp.IsZero())
	}
}

// TestFeed_SingleSubscriber rejects a second subscriber until the first cancels.
func TestFeed_SingleSubscriber(t *testing.T) {
	t.Parallel()

	feed := NewFeed(Policy{})

	first, err := feed.Subscribe(context.Background())
	require.NoError(t, err)
	require.True(t, feed.Subscribed())

	_, err = feed.Subscribe(context.Background())
	require.ErrorIs(t, err, ErrAlreadySubscribed)

	first.Cancel()
	first.Cancel()

	_, open := <-first.C()
	require.False(t, open)
	require.False(t, feed.Subscribed())

	second, err := feed.Subscribe(context.Background())
	require.NoError(t, err)
	second.Cancel()
}

// TestFeed_PushWithoutSubscriber reports ErrNoSubscriber.
func TestFeed_PushWithoutSubscriber(t *testing.T) {
	t.Parallel()

	feed := NewFeed(Policy{})

	accepted, err := feed.Push(context.Background(), geo.Sample{Latitude: 1, Longitude: 1})
	require.ErrorIs(t, err, ErrNoSubscriber)
	require.False(t, accepted)
}

// TestFeed_AppliesPolicy drops samples that arrive too fast.
func TestFeed_AppliesPolicy(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	feed := NewFeed(Policy{MinInterval: 2 * time.Second}, WithClock(func() time.Time { return now }))

	sub, err := feed.Subscribe(context.Background())
	require.NoError(t, err)

	defer sub.Cancel()

	accepted, err := feed.Push(context.Background(), geo.Sample{Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	require.True(t, accepted)

	accepted, err = feed.Push(context.Background(), geo.Sample{Latitude: 2, Longitude: 1})
	require.NoError(t, err)
	require.False(t, accepted)

	accepted, err = feed.Push(context.Background(), geo.Sample{Latitude: 3, Longitude: 1, Timestamp: now.Add(5 * time.Second)})
	require.NoError(t, err)
	require.True(t, accepted)

	require.InDelta(t, 1.0, (<-sub.C()).Latitude, 0)
	require.InDelta(t, 3.0, (<-sub.C()).Latitude, 0)
}

// TestFeed_CancelUnblocksPush ensures a push stuck on a full queue returns when the consumer leaves.
func TestFeed_CancelUnblocksPush(t *testing.T) {
	t.Parallel()

	feed := NewFeed(Policy{}, WithBuffer(1))

	sub, err := feed.Subscribe(context.Background())
	require.NoError(t, err)

	_, err = feed.Push(context.Background(), geo.Sample{Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		pushErr error
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		_, pushErr = feed.Push(context.Background(), geo.Sample{Latitude: 2, Longitude: 1})
	}()

	time.Sleep(20 * time.Millisecond)
	sub.Cancel()
	wg.Wait()

	require.ErrorIs(t, pushErr, ErrNoSubscriber)
}
