package cache

import (
	"sync"

	"github.com/gamevault/admin-connector/pkg/schema"
)

// FeedHandlers is the set of callback slots a consumer can register for one
// feed. A nil slot is simply not invoked; registering a partial set merges
// into whatever is already there.
type FeedHandlers struct {
	OnConnect        func()
	OnDisconnect     func()
	OnAuthenticated  func(schema.AuthResponse)
	OnGameProfiles   func(schema.ProfilesPayload)
	OnGameStatistics func(schema.StatisticsPayload)
	OnWithdrawals    func(schema.WithdrawalsPayload)
	OnError          func(message string)
}

// merge overlays non-nil slots of h onto dst.
func (dst *FeedHandlers) merge(h FeedHandlers) {
	if h.OnConnect != nil {
		dst.OnConnect = h.OnConnect
	}
	if h.OnDisconnect != nil {
		dst.OnDisconnect = h.OnDisconnect
	}
	if h.OnAuthenticated != nil {
		dst.OnAuthenticated = h.OnAuthenticated
	}
	if h.OnGameProfiles != nil {
		dst.OnGameProfiles = h.OnGameProfiles
	}
	if h.OnGameStatistics != nil {
		dst.OnGameStatistics = h.OnGameStatistics
	}
	if h.OnWithdrawals != nil {
		dst.OnWithdrawals = h.OnWithdrawals
	}
	if h.OnError != nil {
		dst.OnError = h.OnError
	}
}

// feedOrder fixes the fan-out order so dispatch is deterministic.
var feedOrder = []schema.FeedName{
	schema.FeedGameManagement,
	schema.FeedWithdrawalManagement,
}

// FeedRegistry holds per-feed handler slots and fans incoming events out to
// them. Dispatch is synchronous and preserves the transport's event order; the
// registry never reorders, only fans out.
type FeedRegistry struct {
	mu    sync.RWMutex
	feeds map[schema.FeedName]*FeedHandlers
}

// NewFeedRegistry creates an empty registry.
func NewFeedRegistry() *FeedRegistry {
	return &FeedRegistry{feeds: make(map[schema.FeedName]*FeedHandlers)}
}

// Register merges the supplied handler slots into the feed's existing ones.
// Other feeds are untouched.
func (r *FeedRegistry) Register(feed schema.FeedName, h FeedHandlers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.feeds[feed]
	if !ok {
		existing = &FeedHandlers{}
		r.feeds[feed] = existing
	}
	existing.merge(h)
}

// ResetAll clears every feed's handlers. Called on disconnect and teardown so
// stale closures never survive a logout/login cycle.
func (r *FeedRegistry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds = make(map[schema.FeedName]*FeedHandlers)
}

// Empty reports whether no handlers are registered for the feed.
func (r *FeedRegistry) Empty(feed schema.FeedName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.feeds[feed]
	return !ok
}

// snapshot copies the current handler sets in fixed feed order, so slots can
// be invoked without holding the lock.
func (r *FeedRegistry) snapshot() []FeedHandlers {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FeedHandlers, 0, len(feedOrder))
	for _, feed := range feedOrder {
		if h, ok := r.feeds[feed]; ok {
			out = append(out, *h)
		}
	}
	return out
}

// handlersFor returns a copy of one feed's slots, if registered.
func (r *FeedRegistry) handlersFor(feed schema.FeedName) (FeedHandlers, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.feeds[feed]
	if !ok {
		return FeedHandlers{}, false
	}
	return *h, true
}

// DispatchConnect notifies every feed the transport is up.
func (r *FeedRegistry) DispatchConnect() {
	for _, h := range r.snapshot() {
		if h.OnConnect != nil {
			h.OnConnect()
		}
	}
}

// DispatchDisconnect notifies every feed the transport dropped.
func (r *FeedRegistry) DispatchDisconnect() {
	for _, h := range r.snapshot() {
		if h.OnDisconnect != nil {
			h.OnDisconnect()
		}
	}
}

// DispatchAuthenticated notifies every feed of a successful authentication.
func (r *FeedRegistry) DispatchAuthenticated(resp schema.AuthResponse) {
	for _, h := range r.snapshot() {
		if h.OnAuthenticated != nil {
			h.OnAuthenticated(resp)
		}
	}
}

// DispatchError fans an error message out to every feed's error slot.
func (r *FeedRegistry) DispatchError(message string) {
	for _, h := range r.snapshot() {
		if h.OnError != nil {
			h.OnError(message)
		}
	}
}

// DispatchGameProfiles delivers a profiles snapshot to the game feed.
func (r *FeedRegistry) DispatchGameProfiles(p schema.ProfilesPayload) {
	if h, ok := r.handlersFor(schema.FeedGameManagement); ok && h.OnGameProfiles != nil {
		h.OnGameProfiles(p)
	}
}

// DispatchGameStatistics delivers statistics to the game feed.
func (r *FeedRegistry) DispatchGameStatistics(p schema.StatisticsPayload) {
	if h, ok := r.handlersFor(schema.FeedGameManagement); ok && h.OnGameStatistics != nil {
		h.OnGameStatistics(p)
	}
}

// DispatchWithdrawals delivers a withdrawals snapshot to the withdrawal feed.
func (r *FeedRegistry) DispatchWithdrawals(p schema.WithdrawalsPayload) {
	if h, ok := r.handlersFor(schema.FeedWithdrawalManagement); ok && h.OnWithdrawals != nil {
		h.OnWithdrawals(p)
	}
}
