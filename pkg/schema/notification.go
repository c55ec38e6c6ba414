package schema

import "time"

// NotificationData is the payload embedded in a system notification. It is
// the routing contract: on click the consumer focuses an existing admin
// window (matched by URL prefix) and posts a ClickMessage built from this
// data, or opens a new window at the default route.
type NotificationData struct {
	URL       string     `json:"url"`
	Kind      ChangeKind `json:"type"`
	Username  string     `json:"username"`
	Context   string     `json:"context"`
	Timestamp int64      `json:"timestamp"`
}

// Notification is one system notification ready for delivery. Tag is the
// uniqueness key; delivering two notifications with the same tag replaces the
// first.
type Notification struct {
	Tag   string           `json:"tag"`
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Data  NotificationData `json:"data"`
}

// ClickMessageType tags messages posted to an admin window after a
// notification click.
const ClickMessageType = "NOTIFICATION_CLICK"

// DefaultClickRoute is opened when no admin window exists to focus.
const DefaultClickRoute = "/admin/manage-game"

// AdminURLPrefix matches windows eligible to receive a ClickMessage.
const AdminURLPrefix = "/admin"

// ClickMessage is posted to the focused admin window when a delivered
// notification is clicked.
type ClickMessage struct {
	Type string     `json:"type"`
	URL  string     `json:"url"`
	Kind ChangeKind `json:"notificationType"`
}

// NewClickMessage builds the routing message for a clicked notification.
func NewClickMessage(n Notification) ClickMessage {
	return ClickMessage{Type: ClickMessageType, URL: n.Data.URL, Kind: n.Data.Kind}
}

// NotificationTimestamp is the millisecond timestamp used in tags and payloads.
func NotificationTimestamp(t time.Time) int64 {
	return t.UnixMilli()
}
