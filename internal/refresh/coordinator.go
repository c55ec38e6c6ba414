package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/admin-connector/pkg/logger"
	"github.com/gamevault/admin-connector/pkg/schema"
)

// Transport is the push path the coordinator prefers when it is usable.
type Transport interface {
	IsLive() bool
	Emit(event string, payload any) bool
}

// FallbackFunc performs the pull-path fetch for one feed. It is invoked off
// the coordinator's lock and may take as long as the REST layer allows.
type FallbackFunc func(ctx context.Context, feed schema.FeedName) error

// Reason tells a waiter how its refresh cycle ended.
type Reason string

const (
	// ReasonReply means the push path answered within the bounded wait.
	ReasonReply Reason = "reply"
	// ReasonTimeout means the push path never answered. The UI treats this
	// as the end of its loading state, not as an error.
	ReasonTimeout Reason = "timeout"
	// ReasonFallback means the pull path ran and returned, success or not.
	ReasonFallback Reason = "fallback"
)

type phase int

const (
	phaseIdle phase = iota
	phaseDebouncing
	phaseAwaitingReply
	phaseFetching
)

// requestEvents maps each feed to the outbound requests one refresh issues.
var requestEvents = map[schema.FeedName][]string{
	schema.FeedGameManagement:       {schema.EventGetGameProfiles, schema.EventGetGameStatistics},
	schema.FeedWithdrawalManagement: {schema.EventGetPendingWithdrawals},
}

type feedState struct {
	phase   phase
	timer   *time.Timer
	cycleID string
	waiters []func(Reason)
}

// Coordinator debounces refresh triggers per feed and routes each settled
// cycle over the socket when it is live, or through the REST fallback when it
// is not. Triggers landing inside one debounce window replace the pending
// timer rather than queueing, so a burst costs one network operation.
type Coordinator struct {
	transport Transport
	fallback  FallbackFunc

	debounce     time.Duration
	replyTimeout time.Duration

	mu     sync.Mutex
	feeds  map[schema.FeedName]*feedState
	closed bool
}

// NewCoordinator builds a coordinator with the given windows.
func NewCoordinator(transport Transport, fallback FallbackFunc, debounce, replyTimeout time.Duration) *Coordinator {
	return &Coordinator{
		transport:    transport,
		fallback:     fallback,
		debounce:     debounce,
		replyTimeout: replyTimeout,
		feeds:        make(map[schema.FeedName]*feedState),
	}
}

func (c *Coordinator) state(feed schema.FeedName) *feedState {
	st, ok := c.feeds[feed]
	if !ok {
		st = &feedState{}
		c.feeds[feed] = st
	}
	return st
}

// Request schedules a refresh for the feed. onSettled may be nil; when set it
// fires exactly once, when the cycle ends. A call landing while a cycle is
// already debouncing resets the timer; a call landing while a cycle is in
// flight joins that cycle instead of starting another.
func (c *Coordinator) Request(feed schema.FeedName, onSettled func(Reason)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	st := c.state(feed)
	if onSettled != nil {
		st.waiters = append(st.waiters, onSettled)
	}

	switch st.phase {
	case phaseIdle:
		st.phase = phaseDebouncing
		st.cycleID = uuid.NewString()
		id := st.cycleID
		st.timer = time.AfterFunc(c.debounce, func() { c.fire(feed, id) })
		logger.Debug("refresh: %s cycle %s armed", feed, id)
	case phaseDebouncing:
		st.timer.Stop()
		id := st.cycleID
		st.timer = time.AfterFunc(c.debounce, func() { c.fire(feed, id) })
	default:
		// in flight: the registered waiter settles with the current cycle
	}
}

// fire runs when a feed's debounce window elapses.
func (c *Coordinator) fire(feed schema.FeedName, id string) {
	c.mu.Lock()
	st := c.state(feed)
	if c.closed || st.cycleID != id || st.phase != phaseDebouncing {
		c.mu.Unlock()
		return
	}

	if c.transport.IsLive() {
		st.phase = phaseAwaitingReply
		st.timer = time.AfterFunc(c.replyTimeout, func() { c.settle(feed, id, ReasonTimeout) })
		c.mu.Unlock()

		for _, ev := range requestEvents[feed] {
			c.transport.Emit(ev, nil)
		}
		return
	}

	st.phase = phaseFetching
	c.mu.Unlock()

	go func() {
		if err := c.fallback(context.Background(), feed); err != nil {
			logger.Warn("refresh: %s cycle %s fallback failed: %v", feed, id, err)
		}
		c.settle(feed, id, ReasonFallback)
	}()
}

// NoteReply records that the push path answered for the feed, settling the
// awaiting cycle if one exists. Replies outside a cycle are ignored.
func (c *Coordinator) NoteReply(feed schema.FeedName) {
	c.mu.Lock()
	st := c.state(feed)
	if st.phase != phaseAwaitingReply {
		c.mu.Unlock()
		return
	}
	id := st.cycleID
	c.mu.Unlock()
	c.settle(feed, id, ReasonReply)
}

// settle closes out one cycle. It is idempotent per cycle id, so a late
// timeout racing an on-time reply is harmless.
func (c *Coordinator) settle(feed schema.FeedName, id string, reason Reason) {
	c.mu.Lock()
	st := c.state(feed)
	if st.cycleID != id || st.phase == phaseIdle || st.phase == phaseDebouncing {
		c.mu.Unlock()
		return
	}
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	waiters := st.waiters
	st.waiters = nil
	st.phase = phaseIdle
	c.mu.Unlock()

	logger.Debug("refresh: %s cycle %s settled (%s)", feed, id, reason)
	for _, w := range waiters {
		w(reason)
	}
}

// Close stops all pending timers. Armed but unsettled cycles never fire their
// waiters after Close.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, st := range c.feeds {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		st.phase = phaseIdle
		st.waiters = nil
	}
}
