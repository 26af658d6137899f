package core

import (
	"context"
	"sync"

	"smartcare/pkg"

	"go.uber.org/zap"
)

const feedBuffer = 16

type feedFilter struct {
	kind     pkg.ReadingKind
	deviceID string
}

func (f feedFilter) match(ev pkg.ReadingEvent) bool {
	return ev.Kind == f.kind && (f.deviceID == "" || f.deviceID == ev.DeviceID)
}

// ReadingFeed fans reading events out to live subscribers. Sends never
// block: a subscriber whose buffer is full misses the event.
type ReadingFeed struct {
	Logger *zap.Logger

	mu      sync.Mutex
	clients map[chan pkg.ReadingEvent]feedFilter
	closed  bool
}

// NewReadingFeed constructs an empty feed.
func NewReadingFeed(logger *zap.Logger) *ReadingFeed {
	return &ReadingFeed{Logger: logger, clients: make(map[chan pkg.ReadingEvent]feedFilter)}
}

// Subscribe registers interest in one kind of reading, optionally from one
// device. The returned function unregisters; it is safe to call more than
// once. The channel is closed when the subscriber is removed or the feed
// stops.
func (f *ReadingFeed) Subscribe(kind pkg.ReadingKind, deviceID string) (<-chan pkg.ReadingEvent, func()) {
	ch := make(chan pkg.ReadingEvent, feedBuffer)
	f.mu.Lock()
	if f.closed {
		close(ch)
	} else {
		f.clients[ch] = feedFilter{kind: kind, deviceID: deviceID}
	}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.clients[ch]; ok {
			delete(f.clients, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (f *ReadingFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Broadcast delivers ev to every matching subscriber with room for it.
func (f *ReadingFeed) Broadcast(ev pkg.ReadingEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch, filter := range f.clients {
		if !filter.match(ev) {
			continue
		}
		select {
		case ch <- ev:
		default:
			f.Logger.Debug("feed subscriber lagging", zap.String("kind", string(ev.Kind)), zap.String("device_id", ev.DeviceID))
		}
	}
}

// Run broadcasts events until the source closes or ctx is done, then closes
// every subscriber.
func (f *ReadingFeed) Run(ctx context.Context, events <-chan pkg.ReadingEvent) {
	defer f.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.Broadcast(ev)
		}
	}
}

func (f *ReadingFeed) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for ch := range f.clients {
		delete(f.clients, ch)
		close(ch)
	}
}
