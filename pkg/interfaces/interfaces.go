package interfaces

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gamevault/admin-connector/pkg/schema"
)

// TokenProvider exposes the current bearer credential. The connection layer
// authenticates with whatever token is current at connect time; storage of
// the credential is out of scope.
type TokenProvider interface {
	// Token returns the bearer token and whether one is available.
	Token() (string, bool)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func() (string, bool)

func (f TokenFunc) Token() (string, bool) { return f() }

// StaticToken is a fixed-credential TokenProvider, mostly for tests and the
// quick start.
type StaticToken string

func (s StaticToken) Token() (string, bool) { return string(s), s != "" }

// Permission is the notification capability's permission state.
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// Notifier is the system notification capability. Implementations wrap
// whatever the host environment provides; the policy layer only asks for
// support, permission, and delivery.
type Notifier interface {
	Supported() bool
	Permission() Permission
	// RequestPermission prompts the user and returns the resulting state.
	RequestPermission() Permission
	// Show delivers a notification. Returns whether it was shown; never
	// returns an error (an unsupported or denied capability is a normal
	// outcome, not a failure).
	Show(n schema.Notification) bool
}

// Visibility mirrors the document visibility state that gates system
// notifications.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// VisibilitySource reports the current visibility at evaluation time.
type VisibilitySource interface {
	Visibility() Visibility
}

// VisibilityFunc adapts a function to VisibilitySource.
type VisibilityFunc func() Visibility

func (f VisibilityFunc) Visibility() Visibility { return f() }

// RESTClient defines the HTTP fallback and the admin mutation calls. All
// methods require a live bearer token and propagate server-side failures as
// errors carrying the server's message when present.
type RESTClient interface {
	GetProfiles(ctx context.Context) ([]schema.GameProfile, error)
	GetStatistics(ctx context.Context) (schema.Statistics, error)
	GetPendingWithdrawals(ctx context.Context) ([]schema.Withdrawal, error)

	AssignGameID(ctx context.Context, userID, gameName, gameID string) (schema.ActionResponse, error)
	ApproveCredit(ctx context.Context, userID, gameName string) (schema.ActionResponse, error)
	DisapproveCredit(ctx context.Context, userID, gameName string) (schema.ActionResponse, error)
	ApproveRedeem(ctx context.Context, userID, gameName string) (schema.ActionResponse, error)
	DisapproveRedeem(ctx context.Context, userID, gameName string) (schema.ActionResponse, error)
	ApproveWithdrawal(ctx context.Context, w schema.Withdrawal, txHash string) (schema.ActionResponse, error)
	DisapproveWithdrawal(ctx context.Context, w schema.Withdrawal) (schema.ActionResponse, error)
}

// WSConn abstracts websocket Conn for testability.
type WSConn interface {
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// WSShim adapts a real *websocket.Conn to WSConn.
type WSShim struct{ *websocket.Conn }

func (w WSShim) WriteJSON(v any) error                       { return w.Conn.WriteJSON(v) }
func (w WSShim) ReadMessage() (int, []byte, error)           { return w.Conn.ReadMessage() }
func (w WSShim) SetReadDeadline(t time.Time) error           { return w.Conn.SetReadDeadline(t) }
func (w WSShim) SetWriteDeadline(t time.Time) error          { return w.Conn.SetWriteDeadline(t) }
func (w WSShim) SetPongHandler(h func(appData string) error) { w.Conn.SetPongHandler(h) }
func (w WSShim) WriteMessage(messageType int, data []byte) error {
	return w.Conn.WriteMessage(messageType, data)
}
func (w WSShim) Close() error { return w.Conn.Close() }
