package bus

import (
	"sync"

	"github.com/gamevault/admin-connector/pkg/logger"
	"github.com/gamevault/admin-connector/pkg/schema"
)

// Kind enumerates the process-wide events the core exposes to its consumers.
type Kind string

const (
	ConnectionStateChanged Kind = "connection-state-changed"
	DataReceived           Kind = "data-received"
	SocketError            Kind = "socket-error"
)

// Event is one published occurrence. Only the fields relevant to its Kind are
// set.
type Event struct {
	Kind      Kind
	Connected bool            // ConnectionStateChanged
	Feed      schema.FeedName // DataReceived
	Payload   any             // DataReceived
	Message   string          // SocketError
}

const (
	queueDepth      = 256
	subscriberDepth = 16
)

// Bus is a typed pub/sub surface. Publishes are delivered by a single
// dispatch goroutine, never on the publisher's stack, so a subscriber
// reacting to an event can never reenter the state that produced it.
// Delivery preserves publish order.
type Bus struct {
	mu     sync.Mutex
	subs   map[Kind]map[int]chan Event
	nextID int
	queue  chan Event
	done   chan struct{}
	once   sync.Once
}

// New creates a bus and starts its dispatch goroutine.
func New() *Bus {
	b := &Bus{
		subs:  make(map[Kind]map[int]chan Event),
		queue: make(chan Event, queueDepth),
		done:  make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case ev := <-b.queue:
			b.deliver(ev)
		}
	}
}

// deliver holds the lock across the sends; cancel closes subscriber
// channels under the same lock, so a send can never hit a closed channel.
func (b *Bus) deliver(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.Kind] {
		select {
		case ch <- ev:
		default:
			logger.Warn("bus: dropping %s event for slow subscriber", ev.Kind)
		}
	}
}

// Subscribe returns a channel of events of the given kind and a cancel
// function. Slow subscribers drop events rather than stalling dispatch.
func (b *Bus) Subscribe(kind Kind) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberDepth)
	b.subs[kind][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[kind][id]; ok {
			delete(b.subs[kind], id)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *Bus) publish(ev Event) {
	select {
	case <-b.done:
	case b.queue <- ev:
	default:
		logger.Warn("bus: queue full, dropping %s event", ev.Kind)
	}
}

// PublishConnectionState announces a transport up/down transition.
func (b *Bus) PublishConnectionState(connected bool) {
	b.publish(Event{Kind: ConnectionStateChanged, Connected: connected})
}

// PublishData announces a data payload received for a feed.
func (b *Bus) PublishData(feed schema.FeedName, payload any) {
	b.publish(Event{Kind: DataReceived, Feed: feed, Payload: payload})
}

// PublishError announces a socket-layer error.
func (b *Bus) PublishError(message string) {
	b.publish(Event{Kind: SocketError, Message: message})
}

// Close stops the dispatch goroutine. Pending queued events are dropped.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}
