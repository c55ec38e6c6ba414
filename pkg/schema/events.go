package schema

import "encoding/json"

// Inbound event names (server -> client).
const (
	EventAuthenticated      = "authenticated"
	EventGameProfiles       = "gameProfiles"
	EventGameStatistics     = "gameStatistics"
	EventPendingWithdrawals = "pendingWithdrawals"
	EventError              = "error"
)

// Outbound event names (client -> server).
const (
	EventAuthenticate          = "authenticate"
	EventGetGameProfiles       = "get:gameProfiles"
	EventGetGameStatistics     = "get:gameStatistics"
	EventGetPendingWithdrawals = "get:pendingWithdrawals"
)

// Envelope is the websocket framing: a named event with an optional JSON
// payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AuthResponse is the reply to an outbound authenticate event.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ProfilesPayload carries a full replacement snapshot of game profiles.
type ProfilesPayload struct {
	Success  bool          `json:"success"`
	Profiles []GameProfile `json:"profiles,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// ProfileList returns the snapshot, treating an absent collection as empty.
func (p ProfilesPayload) ProfileList() []GameProfile {
	if p.Profiles == nil {
		return []GameProfile{}
	}
	return p.Profiles
}

// StatisticsPayload carries the aggregate counters for the game feed.
type StatisticsPayload struct {
	Success    bool        `json:"success"`
	Statistics *Statistics `json:"statistics,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Stats returns the counters, substituting zeroes when absent.
func (p StatisticsPayload) Stats() Statistics {
	if p.Statistics == nil {
		return Statistics{}
	}
	return *p.Statistics
}

// WithdrawalsPayload carries a full replacement snapshot of pending
// withdrawals.
type WithdrawalsPayload struct {
	Success            bool         `json:"success"`
	PendingWithdrawals []Withdrawal `json:"pendingWithdrawals,omitempty"`
	Message            string       `json:"message,omitempty"`
}

// WithdrawalList returns the snapshot, treating an absent collection as empty.
func (p WithdrawalsPayload) WithdrawalList() []Withdrawal {
	if p.PendingWithdrawals == nil {
		return []Withdrawal{}
	}
	return p.PendingWithdrawals
}

// ErrorPayload is the server's error event.
type ErrorPayload struct {
	Message string `json:"message,omitempty"`
}

// Text returns the server message, or a generic description when absent.
func (p ErrorPayload) Text() string {
	if p.Message != "" {
		return p.Message
	}
	return "websocket error occurred"
}
