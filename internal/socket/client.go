// Package socket owns the one multiplexed connection to the admin server:
// lifecycle, authentication, and fan-out of named events to the feed
// registry.
package socket

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gamevault/admin-connector/internal/bus"
	"github.com/gamevault/admin-connector/internal/cache"
	"github.com/gamevault/admin-connector/pkg/interfaces"
	"github.com/gamevault/admin-connector/pkg/logger"
	"github.com/gamevault/admin-connector/pkg/schema"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

// errMissingToken is the fixed local authentication failure message.
const errMissingToken = "authentication token not found"

// Client is the connection manager. One Client owns at most one live
// transport; Connect is idempotent and Close is safe to repeat. It is
// explicitly constructed and injected, never a package-level singleton.
type Client struct {
	url      string
	tokens   interfaces.TokenProvider
	registry *cache.FeedRegistry
	events   *bus.Bus
	dialer   *websocket.Dialer

	mu            sync.Mutex
	conn          interfaces.WSConn
	connected     bool
	authenticated bool
	closing       bool

	writeMu sync.Mutex
}

// NewClient builds a connection manager for the given endpoint.
func NewClient(url string, tokens interfaces.TokenProvider, registry *cache.FeedRegistry, events *bus.Bus) *Client {
	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: false},
	}
	return &Client{
		url:      url,
		tokens:   tokens,
		registry: registry,
		events:   events,
		dialer:   d,
	}
}

// Connect opens the transport if none is live. Safe under concurrent calls:
// the second caller observes the first one's connection instead of opening a
// second transport. Transport errors after the dial are surfaced on the error
// path, never returned here.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		logger.Debug("socket: already connected, reusing transport")
		return nil
	}
	c.mu.Unlock()

	logger.Info("socket: connecting to %s", c.url)
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		logger.Error("socket: connect failed: %v", err)
		return err
	}
	shim := interfaces.WSShim{Conn: conn}

	c.mu.Lock()
	if c.conn != nil {
		// lost the race to a concurrent Connect; theirs wins
		c.mu.Unlock()
		_ = shim.Close()
		return nil
	}
	c.conn = shim
	c.connected = true
	c.closing = false
	c.mu.Unlock()

	c.events.PublishConnectionState(true)
	c.registry.DispatchConnect()

	// authenticate immediately with whatever token is current
	c.authenticate(shim)

	go c.readLoop(shim)
	return nil
}

// authenticate sends the authenticate event, or fails locally when no token
// is available. Never contacts the server in the failure case.
func (c *Client) authenticate(conn interfaces.WSConn) {
	token, ok := c.tokens.Token()
	if !ok {
		logger.Error("socket: %s", errMissingToken)
		c.registry.DispatchError(errMissingToken)
		c.events.PublishError(errMissingToken)
		return
	}
	logger.Debug("socket: authenticating")
	if err := c.writeTo(conn, schema.EventAuthenticate, token); err != nil {
		logger.Error("socket: authenticate write failed: %v", err)
	}
}

// write sends one enveloped event over the current transport.
func (c *Client) write(event string, payload any) error {
	return c.writeTo(c.currentConn(), event, payload)
}

// writeTo sends one enveloped event. Serialized so the read loop and emitters
// never interleave frames.
func (c *Client) writeTo(conn interfaces.WSConn, event string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if conn == nil {
		return websocket.ErrCloseSent
	}
	env := schema.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Data = data
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(env)
}

func (c *Client) currentConn() interfaces.WSConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Emit sends a named event if the transport is connected and returns whether
// the send was attempted. Per-event authorization is the server's concern.
func (c *Client) Emit(event string, payload any) bool {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return false
	}
	if err := c.write(event, payload); err != nil {
		logger.Warn("socket: emit %s failed: %v", event, err)
	}
	return true
}

// IsConnected reports whether the transport is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// IsLive reports whether the push path is usable: connected and
// authenticated.
func (c *Client) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.authenticated
}

// Close tears the connection down and clears every feed registration. Safe to
// call when already closed.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	wasConnected := c.connected
	c.conn = nil
	c.connected = false
	c.authenticated = false
	c.closing = true
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.registry.ResetAll()
	if wasConnected {
		c.events.PublishConnectionState(false)
	}
}

// readLoop consumes transport frames until the connection drops. Handler
// panics are contained: no error ever propagates across the event-callback
// boundary.
func (c *Client) readLoop(conn interfaces.WSConn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDrop(err)
			return
		}

		var env schema.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Warn("socket: discarding malformed frame: %v", err)
			continue
		}
		c.handleEvent(env)
	}
}

// handleDrop marks the transport down after a read failure. A drop caused by
// an explicit Close stays silent; the teardown already announced it.
func (c *Client) handleDrop(err error) {
	c.mu.Lock()
	if c.closing || c.conn == nil {
		c.mu.Unlock()
		return
	}
	logger.Warn("socket: disconnected: %v", err)
	c.conn = nil
	c.connected = false
	c.authenticated = false
	c.mu.Unlock()

	c.events.PublishConnectionState(false)
	c.registry.DispatchDisconnect()
}

func (c *Client) handleEvent(env schema.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("socket: handler panic on %s: %v", env.Event, r)
			c.events.PublishError("internal handler failure")
		}
	}()

	switch env.Event {
	case schema.EventAuthenticated:
		var resp schema.AuthResponse
		c.decode(env.Data, &resp)
		c.handleAuthenticated(resp)

	case schema.EventGameProfiles:
		var payload schema.ProfilesPayload
		c.decode(env.Data, &payload)
		if payload.Success {
			c.events.PublishData(schema.FeedGameManagement, payload)
		} else {
			c.reportError(payload.Message, "failed to fetch game profiles")
		}
		c.registry.DispatchGameProfiles(payload)

	case schema.EventGameStatistics:
		var payload schema.StatisticsPayload
		c.decode(env.Data, &payload)
		c.events.PublishData(schema.FeedGameManagement, payload)
		c.registry.DispatchGameStatistics(payload)

	case schema.EventPendingWithdrawals:
		var payload schema.WithdrawalsPayload
		c.decode(env.Data, &payload)
		if payload.Success {
			c.events.PublishData(schema.FeedWithdrawalManagement, payload)
		} else {
			c.reportError(payload.Message, "failed to fetch pending withdrawals")
		}
		c.registry.DispatchWithdrawals(payload)

	case schema.EventError:
		var payload schema.ErrorPayload
		c.decode(env.Data, &payload)
		logger.Warn("socket: server error: %s", payload.Text())
		c.registry.DispatchError(payload.Text())
		c.events.PublishError(payload.Text())

	default:
		logger.Debug("socket: ignoring unknown event %q", env.Event)
	}
}

// decode tolerates absent or malformed payloads; missing fields fall back to
// their zero values and the accessors substitute empty collections.
func (c *Client) decode(data json.RawMessage, v any) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("socket: malformed payload: %v", err)
	}
}

func (c *Client) handleAuthenticated(resp schema.AuthResponse) {
	if !resp.Success {
		msg := "websocket authentication failed: " + resp.Message
		logger.Error("socket: %s", msg)
		c.registry.DispatchError(msg)
		c.events.PublishError(msg)
		return
	}

	c.mu.Lock()
	c.authenticated = true
	c.mu.Unlock()

	logger.Info("socket: authenticated")
	c.registry.DispatchAuthenticated(resp)
	c.requestInitialData()
}

// requestInitialData issues one coordinated burst so every feed starts from a
// fresh snapshot after (re)authentication.
func (c *Client) requestInitialData() {
	c.Emit(schema.EventGetGameProfiles, nil)
	c.Emit(schema.EventGetGameStatistics, nil)
	c.Emit(schema.EventGetPendingWithdrawals, nil)
}

func (c *Client) reportError(message, fallback string) {
	if message == "" {
		message = fallback
	}
	c.registry.DispatchError(message)
	c.events.PublishError(message)
}
