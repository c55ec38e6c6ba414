package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeedName identifies a logical feed sharing the multiplexed connection.
type FeedName string

const (
	FeedGameManagement       FeedName = "game-management"
	FeedWithdrawalManagement FeedName = "withdrawal-management"
)

// ProfileStatus is the lifecycle state of a per-game profile.
type ProfileStatus string

const (
	ProfileStatusPending ProfileStatus = "pending"
	ProfileStatusActive  ProfileStatus = "active"
)

// CreditStatus is the state of a game entry's credit request.
type CreditStatus string

const (
	CreditStatusNone          CreditStatus = "none"
	CreditStatusPending       CreditStatus = "pending"
	CreditStatusPendingRedeem CreditStatus = "pending_redeem"
	CreditStatusSuccess       CreditStatus = "success"
)

// WithdrawalStatus is the state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// UserData carries the user fields embedded in server payloads.
type UserData struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// CreditAmount is the credit sub-record of a game entry.
type CreditAmount struct {
	Status          CreditStatus    `json:"status,omitempty"`
	Amount          decimal.Decimal `json:"amount,omitempty"`
	RequestedAmount decimal.Decimal `json:"requestedAmount,omitempty"`
}

// GameEntry is one game owned by a profile.
type GameEntry struct {
	GameName      string        `json:"gameName"`
	GameID        string        `json:"gameId,omitempty"`
	ProfileStatus ProfileStatus `json:"profileStatus,omitempty"`
	CreditAmount  CreditAmount  `json:"creditAmount,omitempty"`
}

// GameProfile is one user's profile as delivered by the server. A single
// payload carries a list of profiles, each owning a list of game entries.
type GameProfile struct {
	UserID    string      `json:"userId,omitempty"`
	ID        string      `json:"_id,omitempty"`
	UserData  UserData    `json:"userData,omitempty"`
	Games     []GameEntry `json:"games,omitempty"`
	CreatedAt string      `json:"createdAt,omitempty"`
}

// Key returns the profile's user identity, falling back to the raw document
// id when userId is absent.
func (p GameProfile) Key() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.ID
}

// Username returns the embedded username, or "Unknown" when absent.
func (p GameProfile) Username() string {
	if p.UserData.Username != "" {
		return p.UserData.Username
	}
	return "Unknown"
}

// ProfileKey is the composite identity of one flattened comparison unit.
type ProfileKey struct {
	UserID   string
	GameName string
}

// ProfileRow is the flattened (userID, gameName) view of a game entry. Rows
// are the comparison unit for change detection and the display unit for
// consumers.
type ProfileRow struct {
	UserID          string
	Username        string
	Email           string
	GameName        string
	GameID          string
	ProfileStatus   ProfileStatus
	CreditStatus    CreditStatus
	CreditAmount    decimal.Decimal
	RequestedAmount decimal.Decimal
	CreatedAt       string
}

// Key returns the row's composite identity.
func (r ProfileRow) Key() ProfileKey {
	return ProfileKey{UserID: r.UserID, GameName: r.GameName}
}

// FlattenProfiles expands server profiles into per-game rows. Absent
// usernames become "Unknown", absent emails "No email", and an unset credit
// status becomes CreditStatusNone so callers never branch on missing fields.
func FlattenProfiles(profiles []GameProfile) []ProfileRow {
	var rows []ProfileRow
	for _, profile := range profiles {
		userID := profile.Key()
		username := profile.Username()
		email := profile.UserData.Email
		if email == "" {
			email = "No email"
		}
		for _, game := range profile.Games {
			creditStatus := game.CreditAmount.Status
			if creditStatus == "" {
				creditStatus = CreditStatusNone
			}
			rows = append(rows, ProfileRow{
				UserID:          userID,
				Username:        username,
				Email:           email,
				GameName:        game.GameName,
				GameID:          game.GameID,
				ProfileStatus:   game.ProfileStatus,
				CreditStatus:    creditStatus,
				CreditAmount:    game.CreditAmount.Amount,
				RequestedAmount: game.CreditAmount.RequestedAmount,
				CreatedAt:       profile.CreatedAt,
			})
		}
	}
	return rows
}

// CountPending counts game entries that still need admin action: a pending
// profile, a pending credit request, or a pending redeem request.
func CountPending(profiles []GameProfile) int {
	count := 0
	for _, row := range FlattenProfiles(profiles) {
		if row.ProfileStatus == ProfileStatusPending ||
			row.CreditStatus == CreditStatusPending ||
			row.CreditStatus == CreditStatusPendingRedeem {
			count++
		}
	}
	return count
}

// Withdrawal is one withdrawal request as delivered by the server.
type Withdrawal struct {
	WithdrawalID string           `json:"withdrawalId,omitempty"`
	ID           string           `json:"_id,omitempty"`
	UserID       string           `json:"userId,omitempty"`
	UserData     UserData         `json:"userData,omitempty"`
	Status       WithdrawalStatus `json:"status,omitempty"`
	Amount       decimal.Decimal  `json:"amount,omitempty"`
	Address      string           `json:"address,omitempty"`
	Asset        string           `json:"asset,omitempty"`
	Network      string           `json:"network,omitempty"`
	CreatedAt    string           `json:"createdAt,omitempty"`
}

// Key returns the withdrawal identity, falling back to the raw document id
// when withdrawalId is absent. The differ and the mutation calls share this
// rule.
func (w Withdrawal) Key() string {
	if w.WithdrawalID != "" {
		return w.WithdrawalID
	}
	return w.ID
}

// Username returns the embedded username, or "User" when absent.
func (w Withdrawal) Username() string {
	if w.UserData.Username != "" {
		return w.UserData.Username
	}
	return "User"
}

// Statistics is the aggregate counters payload for the game feed. Absent
// fields decode to zero.
type Statistics struct {
	TotalProfiles         int `json:"totalProfiles,omitempty"`
	TotalPendingProfiles  int `json:"totalPendingProfiles,omitempty"`
	PendingCreditRequests int `json:"pendingCreditRequests,omitempty"`
	PendingRedeemRequests int `json:"pendingRedeemRequests,omitempty"`
}

// NetworkLabel formats an asset/network pair for display.
func NetworkLabel(asset, network string) string {
	switch {
	case asset == "btc":
		return "Bitcoin"
	case asset == "usdt" && network == "trc20":
		return "USDT (TRC20)"
	case asset == "usdt" && network == "bep20":
		return "USDT (BEP20)"
	}
	if network == "" {
		return strings.ToUpper(asset)
	}
	return fmt.Sprintf("%s (%s)", strings.ToUpper(asset), strings.ToUpper(network))
}

// ChangeKind classifies a detected transition worth notifying about.
type ChangeKind string

const (
	ChangeGameID     ChangeKind = "gameId"
	ChangeCredit     ChangeKind = "credit"
	ChangeRedeem     ChangeKind = "redeem"
	ChangeWithdrawal ChangeKind = "withdrawal"
)

// ChangeRecord describes one transition into an actionable state. Records are
// ephemeral: produced by the differ, consumed by the notification policy, and
// discarded.
type ChangeRecord struct {
	Kind      ChangeKind
	Username  string
	Context   string // game name for profile changes, amount for withdrawals
	Timestamp time.Time
}
