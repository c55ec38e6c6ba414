package sdk

import (
	"context"

	"github.com/gamevault/admin-connector/internal/bus"
	"github.com/gamevault/admin-connector/internal/cache"
	"github.com/gamevault/admin-connector/internal/config"
	"github.com/gamevault/admin-connector/internal/manager"
	"github.com/gamevault/admin-connector/internal/refresh"
	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/schema"
)

// Options configures an SDK instance.
type Options struct {
	// Config holds endpoints and timing. Zero value means config.Default().
	Config config.Config
	// Tokens supplies the bearer credential. Required.
	Tokens interfaces.TokenProvider
	// Notifier is the system notification capability. Optional.
	Notifier interfaces.Notifier
	// Visibility reports whether the admin is looking at the page. Optional;
	// absent means always visible, which suppresses system notifications.
	Visibility interfaces.VisibilitySource
	// REST overrides the default REST client, mostly for tests.
	REST interfaces.RESTClient
}

// SDK provides a high-level interface for the admin synchronization layer:
// one authenticated connection multiplexing the game-management and
// withdrawal-management feeds, change notifications, and debounced refresh
// with REST fallback. One SDK instance covers one login session.
type SDK struct {
	sync *manager.Sync
}

// NewSDK creates a new SDK instance. Nothing connects until Connect.
func NewSDK(opts Options) *SDK {
	if opts.Config.BaseURL == "" {
		opts.Config = config.Default()
	}
	return &SDK{sync: manager.NewSync(manager.Options{
		Config:     opts.Config,
		Tokens:     opts.Tokens,
		Notifier:   opts.Notifier,
		Visibility: opts.Visibility,
		REST:       opts.REST,
	})}
}

// Connect opens and authenticates the connection. Safe to call repeatedly.
func (sdk *SDK) Connect(ctx context.Context) error {
	return sdk.sync.Connect(ctx)
}

// Teardown disconnects and clears all handlers and cached snapshots. The
// instance cannot be reused afterwards; build a new one on the next login.
func (sdk *SDK) Teardown() {
	sdk.sync.Teardown()
}

// IsConnected reports whether the connection is up.
func (sdk *SDK) IsConnected() bool {
	return sdk.sync.IsConnected()
}

// RegisterGameManagementHandlers merges handler slots into the game feed.
// Slots left nil keep whatever was registered before.
func (sdk *SDK) RegisterGameManagementHandlers(h cache.FeedHandlers) {
	sdk.sync.Registry().Register(schema.FeedGameManagement, h)
}

// RegisterWithdrawalManagementHandlers merges handler slots into the
// withdrawal feed.
func (sdk *SDK) RegisterWithdrawalManagementHandlers(h cache.FeedHandlers) {
	sdk.sync.Registry().Register(schema.FeedWithdrawalManagement, h)
}

// RequestRefresh schedules a debounced refresh of the feed, using the socket
// when live and the REST fallback otherwise. onSettled may be nil; it fires
// once when the cycle ends.
func (sdk *SDK) RequestRefresh(feed schema.FeedName, onSettled func(refresh.Reason)) {
	sdk.sync.RequestRefresh(feed, onSettled)
}

// Subscribe returns a channel of bus events of the given kind and a cancel
// function.
func (sdk *SDK) Subscribe(kind bus.Kind) (<-chan bus.Event, func()) {
	return sdk.sync.Events().Subscribe(kind)
}

// REST exposes the fallback reads and the admin mutation calls directly.
func (sdk *SDK) REST() interfaces.RESTClient {
	return sdk.sync.REST()
}

// AssignGameID assigns a game id to a user's profile and refreshes the game
// feed on success.
func (sdk *SDK) AssignGameID(ctx context.Context, userID, gameName, gameID string) (schema.ActionResponse, error) {
	resp, err := sdk.sync.REST().AssignGameID(ctx, userID, gameName, gameID)
	sdk.sync.RefreshAfterMutation(resp, schema.FeedGameManagement)
	return resp, err
}

// ApproveCredit approves a pending credit request.
func (sdk *SDK) ApproveCredit(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	resp, err := sdk.sync.REST().ApproveCredit(ctx, userID, gameName)
	sdk.sync.RefreshAfterMutation(resp, schema.FeedGameManagement)
	return resp, err
}

// DisapproveCredit rejects a pending credit request.
func (sdk *SDK) DisapproveCredit(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	resp, err := sdk.sync.REST().DisapproveCredit(ctx, userID, gameName)
	sdk.sync.RefreshAfterMutation(resp, schema.FeedGameManagement)
	return resp, err
}

// ApproveRedeem approves a pending redeem request.
func (sdk *SDK) ApproveRedeem(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	resp, err := sdk.sync.REST().ApproveRedeem(ctx, userID, gameName)
	sdk.sync.RefreshAfterMutation(resp, schema.FeedGameManagement)
	return resp, err
}

// DisapproveRedeem rejects a pending redeem request.
func (sdk *SDK) DisapproveRedeem(ctx context.Context, userID, gameName string) (schema.ActionResponse, error) {
	resp, err := sdk.sync.REST().DisapproveRedeem(ctx, userID, gameName)
	sdk.sync.RefreshAfterMutation(resp, schema.FeedGameManagement)
	return resp, err
}

// ApproveWithdrawal approves a pending withdrawal, optionally recording the
// transaction hash, and refreshes the withdrawal feed on success.
func (sdk *SDK) ApproveWithdrawal(ctx context.Context, w schema.Withdrawal, txHash string) (schema.ActionResponse, error) {
	resp, err := sdk.sync.REST().ApproveWithdrawal(ctx, w, txHash)
	sdk.sync.RefreshAfterMutation(resp, schema.FeedWithdrawalManagement)
	return resp, err
}

// DisapproveWithdrawal rejects a pending withdrawal.
func (sdk *SDK) DisapproveWithdrawal(ctx context.Context, w schema.Withdrawal) (schema.ActionResponse, error) {
	resp, err := sdk.sync.REST().DisapproveWithdrawal(ctx, w)
	sdk.sync.RefreshAfterMutation(resp, schema.FeedWithdrawalManagement)
	return resp, err
}
