// Package diff compares successive entity snapshots and reports transitions
// into actionable states. Both differs are pure: they never mutate their
// inputs and depend on nothing but the two snapshots.
package diff

import (
	"time"

	"github.com/gamevault/admin-connector/pkg/schema"
)

type profileState struct {
	profileStatus schema.ProfileStatus
	creditStatus  schema.CreditStatus
}

// Profiles reports game-profile rows that newly entered an actionable state.
//
// An empty old snapshot suppresses all output: the first snapshot after a
// reset is history, not news, and alerting on it would storm the admin on
// every mount or reconnect.
//
// A row seen for the first time emits one record per actionable state it is
// already in (a brand-new row can emit both gameId and credit). A row present
// in both snapshots emits only on the transitions other→pending
// (profileStatus, creditStatus) and other→pending_redeem. Exits from
// actionable states are resolutions and emit nothing.
func Profiles(old, new []schema.ProfileRow) []schema.ChangeRecord {
	if len(old) == 0 {
		return nil
	}

	prev := make(map[schema.ProfileKey]profileState, len(old))
	for _, row := range old {
		prev[row.Key()] = profileState{
			profileStatus: row.ProfileStatus,
			creditStatus:  row.CreditStatus,
		}
	}

	now := time.Now()
	var records []schema.ChangeRecord
	emit := func(kind schema.ChangeKind, row schema.ProfileRow) {
		records = append(records, schema.ChangeRecord{
			Kind:      kind,
			Username:  row.Username,
			Context:   row.GameName,
			Timestamp: now,
		})
	}

	for _, row := range new {
		before, seen := prev[row.Key()]
		if !seen {
			if row.ProfileStatus == schema.ProfileStatusPending {
				emit(schema.ChangeGameID, row)
			}
			if row.CreditStatus == schema.CreditStatusPending {
				emit(schema.ChangeCredit, row)
			}
			if row.CreditStatus == schema.CreditStatusPendingRedeem {
				emit(schema.ChangeRedeem, row)
			}
			continue
		}

		if before.profileStatus != schema.ProfileStatusPending && row.ProfileStatus == schema.ProfileStatusPending {
			emit(schema.ChangeGameID, row)
		}
		if before.creditStatus != schema.CreditStatusPending && row.CreditStatus == schema.CreditStatusPending {
			emit(schema.ChangeCredit, row)
		}
		if before.creditStatus != schema.CreditStatusPendingRedeem && row.CreditStatus == schema.CreditStatusPendingRedeem {
			emit(schema.ChangeRedeem, row)
		}
	}
	return records
}

// Withdrawals reports pending withdrawals not present in the old snapshot.
//
// Unlike Profiles, an empty old snapshot does NOT suppress: the withdrawals
// feed only carries items still awaiting action, so the first non-empty
// snapshot genuinely is a batch of actionable work. The asymmetry is
// deliberate and matches the production behavior this layer replaces.
//
// A withdrawal that disappears (resolved either way) emits nothing.
func Withdrawals(old, new []schema.Withdrawal) []schema.ChangeRecord {
	now := time.Now()
	var records []schema.ChangeRecord
	emit := func(w schema.Withdrawal) {
		records = append(records, schema.ChangeRecord{
			Kind:      schema.ChangeWithdrawal,
			Username:  w.Username(),
			Context:   w.Amount.String(),
			Timestamp: now,
		})
	}

	if len(old) == 0 {
		for _, w := range new {
			if w.Status == schema.WithdrawalStatusPending {
				emit(w)
			}
		}
		return records
	}

	known := make(map[string]struct{}, len(old))
	for _, w := range old {
		known[w.Key()] = struct{}{}
	}
	for _, w := range new {
		if _, ok := known[w.Key()]; !ok && w.Status == schema.WithdrawalStatusPending {
			emit(w)
		}
	}
	return records
}
