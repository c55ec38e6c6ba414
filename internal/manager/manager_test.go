package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/admin-connector/internal/config"
	"github.com/gamevault/admin-connector/internal/refresh"
	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/schema"
)

type fakeNotifier struct {
	mu    sync.Mutex
	shown []schema.Notification
}

func (f *fakeNotifier) Supported() bool                         { return true }
func (f *fakeNotifier) Permission() interfaces.Permission       { return interfaces.PermissionGranted }
func (f *fakeNotifier) RequestPermission() interfaces.Permission { return interfaces.PermissionGranted }
func (f *fakeNotifier) Show(n schema.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shown = append(f.shown, n)
	return true
}

func (f *fakeNotifier) notifications() []schema.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]schema.Notification, len(f.shown))
	copy(out, f.shown)
	return out
}

type fakeREST struct {
	interfaces.RESTClient

	mu          sync.Mutex
	withdrawals []schema.Withdrawal
	profiles    []schema.GameProfile
	calls       int
}

func (f *fakeREST) GetProfiles(context.Context) ([]schema.GameProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.profiles, nil
}

func (f *fakeREST) GetStatistics(context.Context) (schema.Statistics, error) {
	return schema.Statistics{}, nil
}

func (f *fakeREST) GetPendingWithdrawals(context.Context) ([]schema.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.withdrawals, nil
}

func (f *fakeREST) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func hidden() interfaces.VisibilitySource {
	return interfaces.VisibilityFunc(func() interfaces.Visibility { return interfaces.VisibilityHidden })
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.DebounceWindowMs = 20
	cfg.ReplyTimeoutMs = 200
	return cfg
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestProfilesColdStartProducesNoNotifications(t *testing.T) {
	notifier := &fakeNotifier{}
	s := NewSync(Options{
		Config:     testConfig(),
		Tokens:     interfaces.StaticToken("tok"),
		Notifier:   notifier,
		Visibility: hidden(),
		REST:       &fakeREST{},
	})
	defer s.Teardown()

	first := schema.ProfilesPayload{Success: true, Profiles: []schema.GameProfile{{
		UserID:   "u1",
		UserData: schema.UserData{Username: "alice"},
		Games:    []schema.GameEntry{{GameName: "fire-kirin", ProfileStatus: schema.ProfileStatusPending}},
	}}}
	s.Events().PublishData(schema.FeedGameManagement, first)

	// the payload is consumed asynchronously; give the pipeline a beat
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, notifier.notifications(), "first snapshot after reset must stay silent")
}

func TestCreditTransitionNotifiesOnce(t *testing.T) {
	notifier := &fakeNotifier{}
	s := NewSync(Options{
		Config:     testConfig(),
		Tokens:     interfaces.StaticToken("tok"),
		Notifier:   notifier,
		Visibility: hidden(),
		REST:       &fakeREST{},
	})
	defer s.Teardown()

	base := schema.GameProfile{
		UserID:   "u1",
		UserData: schema.UserData{Username: "alice"},
		Games: []schema.GameEntry{{
			GameName:      "fire-kirin",
			ProfileStatus: schema.ProfileStatusActive,
			CreditAmount:  schema.CreditAmount{Status: schema.CreditStatusNone},
		}},
	}
	s.Events().PublishData(schema.FeedGameManagement, schema.ProfilesPayload{
		Success: true, Profiles: []schema.GameProfile{base},
	})

	transitioned := base
	transitioned.Games = []schema.GameEntry{{
		GameName:      "fire-kirin",
		ProfileStatus: schema.ProfileStatusActive,
		CreditAmount:  schema.CreditAmount{Status: schema.CreditStatusPending, Amount: decimal.NewFromInt(50)},
	}}
	s.Events().PublishData(schema.FeedGameManagement, schema.ProfilesPayload{
		Success: true, Profiles: []schema.GameProfile{transitioned},
	})

	waitUntil(t, func() bool { return len(notifier.notifications()) == 1 }, "expected one credit notification")
	n := notifier.notifications()[0]
	assert.Equal(t, "New Credit Request", n.Title)
	assert.Contains(t, n.Body, "alice")
	assert.Contains(t, n.Body, "fire-kirin")

	// the same snapshot again is not a transition
	s.Events().PublishData(schema.FeedGameManagement, schema.ProfilesPayload{
		Success: true, Profiles: []schema.GameProfile{transitioned},
	})
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, notifier.notifications(), 1)
}

func TestWithdrawalColdStartNotifiesPending(t *testing.T) {
	notifier := &fakeNotifier{}
	s := NewSync(Options{
		Config:     testConfig(),
		Tokens:     interfaces.StaticToken("tok"),
		Notifier:   notifier,
		Visibility: hidden(),
		REST:       &fakeREST{},
	})
	defer s.Teardown()

	s.Events().PublishData(schema.FeedWithdrawalManagement, schema.WithdrawalsPayload{
		Success: true,
		PendingWithdrawals: []schema.Withdrawal{{
			WithdrawalID: "w1",
			UserData:     schema.UserData{Username: "bob"},
			Amount:       decimal.NewFromInt(120),
			Status:       schema.WithdrawalStatusPending,
		}},
	})

	waitUntil(t, func() bool { return len(notifier.notifications()) == 1 }, "expected a withdrawal notification")
	n := notifier.notifications()[0]
	assert.Equal(t, "New Withdrawal Request", n.Title)
	assert.Contains(t, n.Body, "bob")
}

func TestOfflineRefreshFallsBackToREST(t *testing.T) {
	notifier := &fakeNotifier{}
	restClient := &fakeREST{withdrawals: []schema.Withdrawal{{
		WithdrawalID: "w9",
		UserData:     schema.UserData{Username: "carol"},
		Amount:       decimal.NewFromInt(75),
		Status:       schema.WithdrawalStatusPending,
	}}}
	s := NewSync(Options{
		Config:     testConfig(),
		Tokens:     interfaces.StaticToken("tok"),
		Notifier:   notifier,
		Visibility: hidden(),
		REST:       restClient,
	})
	defer s.Teardown()

	settled := make(chan refresh.Reason, 1)
	s.RequestRefresh(schema.FeedWithdrawalManagement, func(r refresh.Reason) { settled <- r })

	select {
	case r := <-settled:
		assert.Equal(t, refresh.ReasonFallback, r)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never settled")
	}
	assert.Equal(t, 1, restClient.callCount())

	// pulled data flows through the same change-detection path
	waitUntil(t, func() bool { return len(notifier.notifications()) == 1 }, "pulled withdrawal should notify")
	assert.Contains(t, notifier.notifications()[0].Body, "carol")
}

func TestRefreshAfterMutationOnlyOnSuccess(t *testing.T) {
	restClient := &fakeREST{}
	s := NewSync(Options{
		Config: testConfig(),
		Tokens: interfaces.StaticToken("tok"),
		REST:   restClient,
	})
	defer s.Teardown()

	s.RefreshAfterMutation(schema.ActionResponse{Success: false}, schema.FeedWithdrawalManagement)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, restClient.callCount())

	s.RefreshAfterMutation(schema.ActionResponse{Success: true}, schema.FeedWithdrawalManagement)
	waitUntil(t, func() bool { return restClient.callCount() == 1 }, "successful mutation should refresh its feed")
}

func TestTeardownIsTerminal(t *testing.T) {
	s := NewSync(Options{
		Config: testConfig(),
		Tokens: interfaces.StaticToken("tok"),
		REST:   &fakeREST{},
	})

	s.Teardown()
	assert.NotPanics(t, s.Teardown)

	err := s.Connect(context.Background())
	require.ErrorIs(t, err, ErrTornDown)
	assert.False(t, s.IsConnected())
}
