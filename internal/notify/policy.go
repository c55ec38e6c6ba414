// Package notify decides which detected changes surface as system
// notifications and formats them for delivery.
package notify

import (
	"fmt"

	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/logger"
	"github.com/gamevault/admin-connector/pkg/schema"
)

type template struct {
	title string
	body  string // fmt with {username}, {context}
	url   string
}

var templates = map[schema.ChangeKind]template{
	schema.ChangeCredit: {
		title: "New Credit Request",
		body:  "%s requested credits for %s",
		url:   "/admin/manage-game",
	},
	schema.ChangeRedeem: {
		title: "New Redemption Request",
		body:  "%s requested to redeem from %s",
		url:   "/admin/manage-game",
	},
	schema.ChangeGameID: {
		title: "New Game ID Request",
		body:  "%s needs a game ID assigned for %s",
		url:   "/admin/manage-game",
	},
	schema.ChangeWithdrawal: {
		title: "New Withdrawal Request",
		body:  "%s requested withdrawal of %s",
		url:   "/admin/fund-management",
	},
}

// Evaluate maps change records to notifications, gated by visibility. While
// the document is visible nothing is returned: the admin is already looking
// at the page, and in-app badges are the caller's concern.
//
// Tags are `<kind>-<millis>`; same-kind records landing on the same
// millisecond get a disambiguation suffix so no dispatch replaces another
// within one tick.
func Evaluate(records []schema.ChangeRecord, visibility interfaces.Visibility) []schema.Notification {
	if visibility == interfaces.VisibilityVisible {
		return nil
	}

	seen := make(map[string]int, len(records))
	out := make([]schema.Notification, 0, len(records))
	for _, record := range records {
		tpl, ok := templates[record.Kind]
		if !ok {
			logger.Warn("notify: no template for change kind %q, skipping", record.Kind)
			continue
		}

		millis := schema.NotificationTimestamp(record.Timestamp)
		tag := fmt.Sprintf("%s-%d", record.Kind, millis)
		if n := seen[tag]; n > 0 {
			seen[tag] = n + 1
			tag = fmt.Sprintf("%s-%d", tag, n)
		} else {
			seen[tag] = 1
		}

		out = append(out, schema.Notification{
			Tag:   tag,
			Title: tpl.title,
			Body:  fmt.Sprintf(tpl.body, record.Username, record.Context),
			Data: schema.NotificationData{
				URL:       tpl.url,
				Kind:      record.Kind,
				Username:  record.Username,
				Context:   record.Context,
				Timestamp: millis,
			},
		})
	}
	return out
}

// Dispatcher delivers notifications through the capability interface.
type Dispatcher struct {
	notifier interfaces.Notifier
}

// NewDispatcher wraps a notification capability.
func NewDispatcher(n interfaces.Notifier) *Dispatcher {
	return &Dispatcher{notifier: n}
}

// Send delivers one notification. Returns false, without error, when the
// capability is missing, unsupported, or permission was not granted.
func (d *Dispatcher) Send(n schema.Notification) bool {
	if d == nil || d.notifier == nil || !d.notifier.Supported() {
		return false
	}
	if d.notifier.Permission() != interfaces.PermissionGranted {
		logger.Debug("notify: permission %s, suppressing %q", d.notifier.Permission(), n.Tag)
		return false
	}
	return d.notifier.Show(n)
}

// SendAll delivers a batch in order and reports how many were shown.
func (d *Dispatcher) SendAll(ns []schema.Notification) int {
	shown := 0
	for _, n := range ns {
		if d.Send(n) {
			shown++
		}
	}
	return shown
}

// EnsurePermission prompts for notification permission when still undecided
// and returns the resulting state.
func (d *Dispatcher) EnsurePermission() interfaces.Permission {
	if d == nil || d.notifier == nil || !d.notifier.Supported() {
		return interfaces.PermissionUnsupported
	}
	if p := d.notifier.Permission(); p != interfaces.PermissionDefault {
		return p
	}
	return d.notifier.RequestPermission()
}
