package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevault/admin-connector/internal/bus"
	"github.com/gamevault/admin-connector/internal/cache"
	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/schema"
)

// wsServer is a scripted admin socket endpoint.
type wsServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	received chan schema.Envelope
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{t: t, received: make(chan schema.Envelope, 32)}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		for {
			var env schema.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			s.received <- env
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) send(event string, payload any) {
	s.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(s.t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotNil(s.t, s.conn, "no client connected yet")
	require.NoError(s.t, s.conn.WriteJSON(schema.Envelope{Event: event, Data: data}))
}

func (s *wsServer) expect(event string) schema.Envelope {
	s.t.Helper()
	for {
		select {
		case env := <-s.received:
			if env.Event == event {
				return env
			}
			s.t.Fatalf("expected event %q, got %q", event, env.Event)
		case <-time.After(2 * time.Second):
			s.t.Fatalf("timed out waiting for event %q", event)
		}
	}
}

func (s *wsServer) dropClient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
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

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *counter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newClientUnderTest(t *testing.T, srv *wsServer, token interfaces.TokenProvider) (*Client, *cache.FeedRegistry, *bus.Bus) {
	t.Helper()
	registry := cache.NewFeedRegistry()
	events := bus.New()
	t.Cleanup(events.Close)
	c := NewClient(srv.url(), token, registry, events)
	t.Cleanup(c.Close)
	return c, registry, events
}

func TestConnectAuthenticatesAndBursts(t *testing.T) {
	srv := newWSServer(t)
	c, registry, _ := newClientUnderTest(t, srv, interfaces.StaticToken("tok-123"))

	var connects, auths counter
	registry.Register(schema.FeedGameManagement, cache.FeedHandlers{
		OnConnect:       func() { connects.inc() },
		OnAuthenticated: func(schema.AuthResponse) { auths.inc() },
	})

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, 1, connects.get())

	// the client authenticates with the current token immediately
	env := srv.expect(schema.EventAuthenticate)
	var token string
	require.NoError(t, json.Unmarshal(env.Data, &token))
	assert.Equal(t, "tok-123", token)

	srv.send(schema.EventAuthenticated, schema.AuthResponse{Success: true})

	// one coordinated burst, each feed requested exactly once
	burst := map[string]int{}
	for i := 0; i < 3; i++ {
		select {
		case env := <-srv.received:
			burst[env.Event]++
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for initial burst")
		}
	}
	assert.Equal(t, map[string]int{
		schema.EventGetGameProfiles:       1,
		schema.EventGetGameStatistics:     1,
		schema.EventGetPendingWithdrawals: 1,
	}, burst)

	waitFor(t, func() bool { return auths.get() == 1 }, "OnAuthenticated not invoked")
	assert.True(t, c.IsLive())
}

func TestMissingTokenFailsLocally(t *testing.T) {
	srv := newWSServer(t)
	noToken := interfaces.TokenFunc(func() (string, bool) { return "", false })
	c, registry, events := newClientUnderTest(t, srv, noToken)

	errCh, cancel := events.Subscribe(bus.SocketError)
	defer cancel()

	var gotMsg string
	var mu sync.Mutex
	registry.Register(schema.FeedGameManagement, cache.FeedHandlers{
		OnError: func(msg string) { mu.Lock(); gotMsg = msg; mu.Unlock() },
	})

	require.NoError(t, c.Connect(context.Background()))

	select {
	case ev := <-errCh:
		assert.Equal(t, "authentication token not found", ev.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no socket-error published")
	}
	mu.Lock()
	assert.Equal(t, "authentication token not found", gotMsg)
	mu.Unlock()

	// no authenticate frame ever reaches the server
	select {
	case env := <-srv.received:
		t.Fatalf("unexpected frame %q", env.Event)
	case <-time.After(150 * time.Millisecond):
	}
	assert.False(t, c.IsLive())
}

func TestAuthFailureEmbedsServerReason(t *testing.T) {
	srv := newWSServer(t)
	c, registry, _ := newClientUnderTest(t, srv, interfaces.StaticToken("expired"))

	var mu sync.Mutex
	var gotMsg string
	registry.Register(schema.FeedWithdrawalManagement, cache.FeedHandlers{
		OnError: func(msg string) { mu.Lock(); gotMsg = msg; mu.Unlock() },
	})

	require.NoError(t, c.Connect(context.Background()))
	srv.expect(schema.EventAuthenticate)
	srv.send(schema.EventAuthenticated, schema.AuthResponse{Success: false, Message: "token expired"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotMsg != ""
	}, "error handler not invoked")

	mu.Lock()
	assert.Equal(t, "websocket authentication failed: token expired", gotMsg)
	mu.Unlock()
	assert.False(t, c.IsLive(), "failed auth must not mark the session live")
}

func TestDataEventsRouteToFeeds(t *testing.T) {
	srv := newWSServer(t)
	c, registry, events := newClientUnderTest(t, srv, interfaces.StaticToken("tok"))

	dataCh, cancel := events.Subscribe(bus.DataReceived)
	defer cancel()

	var mu sync.Mutex
	var profiles []schema.GameProfile
	registry.Register(schema.FeedGameManagement, cache.FeedHandlers{
		OnGameProfiles: func(p schema.ProfilesPayload) {
			mu.Lock()
			profiles = p.ProfileList()
			mu.Unlock()
		},
	})

	require.NoError(t, c.Connect(context.Background()))
	srv.expect(schema.EventAuthenticate)

	srv.send(schema.EventGameProfiles, schema.ProfilesPayload{
		Success:  true,
		Profiles: []schema.GameProfile{{UserID: "u1", Games: []schema.GameEntry{{GameName: "fire-kirin"}}}},
	})

	select {
	case ev := <-dataCh:
		assert.Equal(t, schema.FeedGameManagement, ev.Feed)
	case <-time.After(2 * time.Second):
		t.Fatal("no data-received event")
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(profiles) == 1
	}, "profiles handler not invoked")
}

func TestUnsuccessfulPayloadReportsError(t *testing.T) {
	srv := newWSServer(t)
	c, _, events := newClientUnderTest(t, srv, interfaces.StaticToken("tok"))

	errCh, cancel := events.Subscribe(bus.SocketError)
	defer cancel()

	require.NoError(t, c.Connect(context.Background()))
	srv.expect(schema.EventAuthenticate)

	srv.send(schema.EventPendingWithdrawals, schema.WithdrawalsPayload{Success: false, Message: "query failed"})

	select {
	case ev := <-errCh:
		assert.Equal(t, "query failed", ev.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no socket-error published")
	}
}

func TestServerDropMarksDisconnected(t *testing.T) {
	srv := newWSServer(t)
	c, registry, events := newClientUnderTest(t, srv, interfaces.StaticToken("tok"))

	stateCh, cancel := events.Subscribe(bus.ConnectionStateChanged)
	defer cancel()

	var disconnects counter
	registry.Register(schema.FeedGameManagement, cache.FeedHandlers{
		OnDisconnect: func() { disconnects.inc() },
	})

	require.NoError(t, c.Connect(context.Background()))
	select {
	case ev := <-stateCh:
		assert.True(t, ev.Connected)
	case <-time.After(2 * time.Second):
		t.Fatal("no connected event")
	}

	srv.dropClient()

	select {
	case ev := <-stateCh:
		assert.False(t, ev.Connected)
	case <-time.After(2 * time.Second):
		t.Fatal("no disconnected event")
	}
	waitFor(t, func() bool { return disconnects.get() == 1 }, "OnDisconnect not invoked")
	assert.False(t, c.IsConnected())
	assert.False(t, c.Emit(schema.EventGetGameProfiles, nil))
}

func TestConnectIsIdempotent(t *testing.T) {
	srv := newWSServer(t)
	c, registry, _ := newClientUnderTest(t, srv, interfaces.StaticToken("tok"))

	var connects counter
	registry.Register(schema.FeedGameManagement, cache.FeedHandlers{
		OnConnect: func() { connects.inc() },
	})

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Connect(context.Background()))

	assert.Equal(t, 1, connects.get(), "repeat Connect must not open another transport")
}

func TestCloseIsSafeWhenAlreadyClosed(t *testing.T) {
	srv := newWSServer(t)
	c, registry, _ := newClientUnderTest(t, srv, interfaces.StaticToken("tok"))

	registry.Register(schema.FeedGameManagement, cache.FeedHandlers{OnConnect: func() {}})
	require.NoError(t, c.Connect(context.Background()))

	c.Close()
	assert.NotPanics(t, c.Close)
	assert.False(t, c.IsConnected())

	// teardown wipes registered handlers
	assert.True(t, registry.Empty(schema.FeedGameManagement))
}
