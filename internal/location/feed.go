package location

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/proximity-alarm/internal/domain/geo"
)

// defaultFeedBuffer is how many samples may queue before Push blocks.
const defaultFeedBuffer = 16

// Feed is a Source fed by Push. It keeps a single subscriber and delivers
// pushed samples to it in order, filtered by the cadence policy.
type Feed struct {
	// policy filters pushed samples.
	policy Policy
	// buffer is the capacity of subscriber channels.
	buffer int
	// now stamps samples that arrive without a timestamp.
	now func() time.Time

	// mu guards the fields below and orders concurrent pushes.
	mu sync.Mutex
	// sub is the active subscription, nil when nobody listens.
	sub *feedSubscription
	// last is the last delivered sample of the active subscription.
	last *geo.Sample
	// sequence numbers delivered samples.
	sequence uint64
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithBuffer sets the subscriber channel capacity.
func WithBuffer(size int) FeedOption {
	return func(f *Feed) {
		if size > 0 {
			f.buffer = size
		}
	}
}

// WithClock replaces time.Now for samples without timestamps.
func WithClock(now func() time.Time) FeedOption {
	return func(f *Feed) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFeed creates a push-fed source.
func NewFeed(policy Policy, opts ...FeedOption) *Feed {
	f := &Feed{
		policy: policy,
		buffer: defaultFeedBuffer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Subscribe registers the single consumer.
//
//nolint:ireturn // Sources return the Subscription interface.
func (f *Feed) Subscribe(_ context.Context) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub != nil {
		return nil, ErrAlreadySubscribed
	}

	sub := &feedSubscription{
		feed:   f,
		ch:     make(chan geo.Sample, f.buffer),
		cancel: make(chan struct{}),
	}

	f.sub = sub
	f.last = nil

	return sub, nil
}

// Push delivers sample to the subscriber. It returns ErrNoSubscriber when
// nobody listens, and blocks while the subscriber's queue is full until ctx
// ends or the subscription is cancelled. Samples rejected by the policy are
// dropped silently and reported as accepted=false.
func (f *Feed) Push(ctx context.Context, sample geo.Sample) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := f.sub
	if sub == nil {
		return false, ErrNoSubscriber
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = f.now()
	}

	if !f.policy.Accept(f.last, sample) {
		return false, nil
	}

	f.sequence++
	sample.Sequence = f.sequence

	// Holding mu while blocked keeps concurrent pushes in order; Cancel does
	// not take mu before closing sub.cancel, so it can always unblock us.
	select {
	case sub.ch <- sample:
		delivered := sample
		f.last = &delivered

		return true, nil
	case <-sub.cancel:
		return false, ErrNoSubscriber
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Subscribed reports whether a consumer is attached.
func (f *Feed) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sub != nil
}

// detach clears sub if it is still the active subscription.
func (f *Feed) detach(sub *feedSubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sub == sub {
		f.sub = nil
		f.last = nil
	}

	close(sub.ch)
}

// feedSubscription is the Subscription handed out by Feed.
type feedSubscription struct {
	feed   *Feed
	ch     chan geo.Sample
	cancel chan struct{}
	once   sync.Once
}

func (s *feedSubscription) C() <-chan geo.Sample {
	return s.ch
}

func (s *feedSubscription) Cancel() {
	s.once.Do(func() {
		close(s.cancel)
		s.feed.detach(s)
	})
}
