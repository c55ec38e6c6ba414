package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/schema"
)

func record(kind schema.ChangeKind, username, context string) schema.ChangeRecord {
	return schema.ChangeRecord{
		Kind:      kind,
		Username:  username,
		Context:   context,
		Timestamp: time.UnixMilli(1700000000000),
	}
}

func TestEvaluateVisibleAlwaysEmpty(t *testing.T) {
	records := []schema.ChangeRecord{
		record(schema.ChangeCredit, "alice", "fire-kirin"),
		record(schema.ChangeWithdrawal, "bob", "250"),
	}
	assert.Empty(t, Evaluate(records, interfaces.VisibilityVisible))
	assert.Empty(t, Evaluate(nil, interfaces.VisibilityVisible))
}

func TestEvaluateHiddenOneDispatchPerRecord(t *testing.T) {
	records := []schema.ChangeRecord{
		record(schema.ChangeCredit, "alice", "fire-kirin"),
		record(schema.ChangeRedeem, "bob", "golden-dragon"),
		record(schema.ChangeGameID, "carol", "dragon-slots"),
		record(schema.ChangeWithdrawal, "dave", "250"),
	}

	out := Evaluate(records, interfaces.VisibilityHidden)
	require.Len(t, out, 4)

	assert.Equal(t, "New Credit Request", out[0].Title)
	assert.Equal(t, "alice requested credits for fire-kirin", out[0].Body)
	assert.Equal(t, "/admin/manage-game", out[0].Data.URL)

	assert.Equal(t, "New Redemption Request", out[1].Title)
	assert.Equal(t, "bob requested to redeem from golden-dragon", out[1].Body)

	assert.Equal(t, "New Game ID Request", out[2].Title)
	assert.Equal(t, "carol needs a game ID assigned for dragon-slots", out[2].Body)

	assert.Equal(t, "New Withdrawal Request", out[3].Title)
	assert.Equal(t, "dave requested withdrawal of 250", out[3].Body)
	assert.Equal(t, "/admin/fund-management", out[3].Data.URL)
}

func TestEvaluateTagsUniqueWithinTick(t *testing.T) {
	records := []schema.ChangeRecord{
		record(schema.ChangeCredit, "alice", "a"),
		record(schema.ChangeCredit, "bob", "b"),
		record(schema.ChangeCredit, "carol", "c"),
	}

	out := Evaluate(records, interfaces.VisibilityHidden)
	require.Len(t, out, 3)

	tags := map[string]bool{}
	for _, n := range out {
		assert.False(t, tags[n.Tag], "duplicate tag %q", n.Tag)
		tags[n.Tag] = true
		assert.Contains(t, n.Tag, "credit-1700000000000")
	}
}

type fakeNotifier struct {
	supported  bool
	permission interfaces.Permission
	requested  bool
	shown      []schema.Notification
}

func (f *fakeNotifier) Supported() bool                  { return f.supported }
func (f *fakeNotifier) Permission() interfaces.Permission { return f.permission }
func (f *fakeNotifier) RequestPermission() interfaces.Permission {
	f.requested = true
	f.permission = interfaces.PermissionGranted
	return f.permission
}
func (f *fakeNotifier) Show(n schema.Notification) bool {
	f.shown = append(f.shown, n)
	return true
}

func TestDispatcherSuppressesWithoutPermission(t *testing.T) {
	n := &fakeNotifier{supported: true, permission: interfaces.PermissionDenied}
	d := NewDispatcher(n)

	assert.False(t, d.Send(schema.Notification{Tag: "credit-1"}))
	assert.Empty(t, n.shown)
}

func TestDispatcherUnsupportedReturnsFalse(t *testing.T) {
	d := NewDispatcher(&fakeNotifier{supported: false})
	assert.False(t, d.Send(schema.Notification{Tag: "credit-1"}))
	assert.False(t, NewDispatcher(nil).Send(schema.Notification{}))
}

func TestDispatcherDeliversWhenGranted(t *testing.T) {
	n := &fakeNotifier{supported: true, permission: interfaces.PermissionGranted}
	d := NewDispatcher(n)

	sent := d.SendAll([]schema.Notification{{Tag: "a"}, {Tag: "b"}})
	assert.Equal(t, 2, sent)
	require.Len(t, n.shown, 2)
}

func TestEnsurePermissionPromptsOnlyWhenUndecided(t *testing.T) {
	n := &fakeNotifier{supported: true, permission: interfaces.PermissionDefault}
	d := NewDispatcher(n)

	assert.Equal(t, interfaces.PermissionGranted, d.EnsurePermission())
	assert.True(t, n.requested)

	denied := &fakeNotifier{supported: true, permission: interfaces.PermissionDenied}
	assert.Equal(t, interfaces.PermissionDenied, NewDispatcher(denied).EnsurePermission())
	assert.False(t, denied.requested)
}

func TestClickMessageContract(t *testing.T) {
	n := schema.Notification{
		Data: schema.NotificationData{URL: "/admin/fund-management", Kind: schema.ChangeWithdrawal},
	}
	msg := schema.NewClickMessage(n)
	assert.Equal(t, schema.ClickMessageType, msg.Type)
	assert.Equal(t, "/admin/fund-management", msg.URL)
	assert.Equal(t, schema.ChangeWithdrawal, msg.Kind)
}
