package status

import (
	"context"
	"sync"
)

// defaultWatcherBuffer is the queue length of each watcher.
const defaultWatcherBuffer = 32

// Hub fans status updates out to any number of watchers. Publish never
// blocks: a watcher whose queue is full misses the update. The latest update
// is replayed to new watchers so that they see the current notification.
type Hub struct {
	// buffer is the capacity of each watcher channel.
	buffer int

	// mu guards the fields below.
	mu sync.Mutex
	// watchers are the active watcher channels.
	watchers map[*Watcher]struct{}
	// latest is the last published update, nil when none or cleared.
	latest *Status
	// dropped counts updates lost to slow watchers.
	dropped uint64
	// closed is set by Close.
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		buffer:   defaultWatcherBuffer,
		watchers: make(map[*Watcher]struct{}),
	}
}

// Watcher is one subscription to a Hub.
type Watcher struct {
	hub  *Hub
	ch   chan Status
	once sync.Once
}

// C returns the update channel. It is closed by Close or when the hub closes.
func (w *Watcher) C() <-chan Status {
	return w.ch
}

// Close detaches the watcher.
func (w *Watcher) Close() {
	w.hub.remove(w)
}

// Watch attaches a new watcher.
func (h *Hub) Watch() *Watcher {
	h.mu.Lock()
	defer h.mu.Unlock()

	w := &Watcher{
		hub: h,
		ch:  make(chan Status, h.buffer),
	}

	if h.closed {
		w.once.Do(func() { close(w.ch) })

		return w
	}

	if h.latest != nil {
		w.ch <- *h.latest
	}

	h.watchers[w] = struct{}{}

	return w
}

// Publish implements Sink.
func (h *Hub) Publish(_ context.Context, update Status) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	if update.Kind == KindCleared {
		h.latest = nil
	} else {
		latest := update
		h.latest = &latest
	}

	for w := range h.watchers {
		select {
		case w.ch <- update:
		default:
			h.dropped++
		}
	}
}

// Latest returns the current notification, if any.
func (h *Hub) Latest() (Status, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.latest == nil {
		return Status{}, false
	}

	return *h.latest, true
}

// Dropped returns how many updates slow watchers missed.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.dropped
}

// Close detaches and closes every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true

	for w := range h.watchers {
		delete(h.watchers, w)
		w.once.Do(func() { close(w.ch) })
	}
}

func (h *Hub) remove(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.watchers, w)
	w.once.Do(func() { close(w.ch) })
}
