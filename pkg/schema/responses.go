package schema

// REST request/response types for the admin API fallback path.

// ActionResponse is the envelope returned by all mutating admin calls.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AssignGameIDRequest assigns a game id to a user's game profile.
type AssignGameIDRequest struct {
	UserID   string `json:"userId"`
	GameName string `json:"gameName"`
	GameID   string `json:"gameId"`
}

// CreditActionRequest approves or disapproves a credit or redeem request.
type CreditActionRequest struct {
	UserID   string `json:"userId"`
	GameName string `json:"gameName"`
}

// WithdrawalActionRequest approves or disapproves a withdrawal. TxHash is
// only sent on approval and may be null.
type WithdrawalActionRequest struct {
	UserID       string  `json:"userId"`
	WithdrawalID string  `json:"withdrawalId"`
	TxHash       *string `json:"txHash,omitempty"`
}
