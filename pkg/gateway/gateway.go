package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// ErrNotConnected is returned when an emit is attempted while the link is down.
var ErrNotConnected = errors.New("not connected to server")

// ErrClosed is returned when the gateway has been torn down.
var ErrClosed = errors.New("gateway closed")

// Gateway owns the single long-lived websocket to the café backend. It dials
// with a bounded retry policy, runs one read loop per connection, routes
// correlated response envelopes to one-shot waiters and everything else to
// persistent push subscriptions, and fans out liveness transitions.
type Gateway struct {
	url      string
	attempts int
	delay    time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	closed     bool
	handlers   map[wire.EventType][]Handler
	pending    map[string]chan wire.Envelope
	statusSubs []func(bool)

	// writeMu serializes writes; gorilla allows one concurrent writer.
	writeMu sync.Mutex
}

// NewGateway creates a Gateway. attempts and delay bound the automatic dial
// retry; the gateway never retries beyond them on its own.
func NewGateway(url string, attempts int, delay time.Duration, logger *slog.Logger) *Gateway {
	if attempts < 1 {
		attempts = 1
	}
	return &Gateway{
		url:      url,
		attempts: attempts,
		delay:    delay,
		logger:   logger,
		handlers: make(map[wire.EventType][]Handler),
		pending:  make(map[string]chan wire.Envelope),
	}
}

// Make sure we conform to the interface
var _ Conn = (*Gateway)(nil)

// Connect dials the backend, retrying up to the configured attempt count
// with a fixed delay between attempts. Exhausting the attempts is non-fatal
// to the process: the gateway stays usable and reports disconnected.
func (g *Gateway) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return ErrClosed
		}
		g.mu.Unlock()

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
		if err == nil {
			g.adopt(conn)
			g.logger.Info("connected to server", "url", g.url, "attempt", attempt)
			return nil
		}
		lastErr = err
		g.logger.Warn("connection attempt failed", "url", g.url, "attempt", attempt, "error", err)

		if attempt < g.attempts {
			select {
			case <-time.After(g.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", g.attempts, lastErr)
}

// adopt installs a freshly dialed socket and starts its read loop.
func (g *Gateway) adopt(conn *websocket.Conn) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		conn.Close()
		return
	}
	g.conn = conn
	g.mu.Unlock()

	g.setStatus(true)
	go g.readLoop(conn)
}

// IsConnected reports the last-observed liveness of the link.
func (g *Gateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// Emit sends one fire-and-forget envelope.
func (g *Gateway) Emit(event wire.EventType, payload any) error {
	env, err := wire.NewEnvelope(event, "", payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return g.EmitEnvelope(env)
}

// EmitEnvelope sends a pre-built envelope.
func (g *Gateway) EmitEnvelope(env wire.Envelope) error {
	g.mu.Lock()
	conn := g.conn
	connected := g.connected
	g.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to send %s: %w", env.Type, err)
	}
	return nil
}

// Expect registers a one-shot waiter for the given correlation id.
func (g *Gateway) Expect(id string) (<-chan wire.Envelope, func()) {
	ch := make(chan wire.Envelope, 1)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	g.pending[id] = ch
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		delete(g.pending, id)
		g.mu.Unlock()
	}
	return ch, cancel
}

// Subscribe registers a persistent handler for a push event.
func (g *Gateway) Subscribe(event wire.EventType, h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[event] = append(g.handlers[event], h)
}

// OnStatus subscribes to liveness transitions.
func (g *Gateway) OnStatus(fn func(bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusSubs = append(g.statusSubs, fn)
}

// Close tears down the socket and cancels every outstanding waiter. Safe to
// call more than once.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	conn := g.conn
	g.conn = nil
	g.cancelPendingLocked()
	g.mu.Unlock()

	g.setStatus(false)
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// readLoop decodes envelopes from one socket until it dies. Envelopes with a
// correlation id resolve their waiter; everything else dispatches to push
// handlers in arrival order.
func (g *Gateway) readLoop(conn *websocket.Conn) {
	for {
		var env wire.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			g.mu.Lock()
			closed := g.closed
			if g.conn == conn {
				g.conn = nil
			}
			g.mu.Unlock()

			if !closed {
				g.logger.Error("connection lost", "error", err)
			}
			g.setStatus(false)
			g.maybeReconnect(closed)
			return
		}
		g.route(env)
	}
}

func (g *Gateway) route(env wire.Envelope) {
	if env.ID != "" {
		g.mu.Lock()
		ch, ok := g.pending[env.ID]
		delete(g.pending, env.ID)
		g.mu.Unlock()

		if ok {
			ch <- env
		} else {
			// Late response: its call already resolved by timeout.
			g.logger.Warn("dropping unmatched response", "event", env.Type, "id", env.ID)
		}
		return
	}

	g.mu.Lock()
	handlers := append([]Handler(nil), g.handlers[env.Type]...)
	g.mu.Unlock()

	if len(handlers) == 0 {
		g.logger.Warn("no handler for push event", "event", env.Type)
		return
	}
	for _, h := range handlers {
		h(env.Payload)
	}
}

// maybeReconnect re-runs the bounded dial policy once after a transport
// failure. Exhaustion leaves the gateway disconnected until manual retry.
func (g *Gateway) maybeReconnect(closed bool) {
	if closed {
		return
	}
	go func() {
		if err := g.Connect(context.Background()); err != nil && !errors.Is(err, ErrClosed) {
			g.logger.Error("automatic reconnect failed, manual retry required", "error", err)
		}
	}()
}

// setStatus records liveness and notifies subscribers on transitions only.
func (g *Gateway) setStatus(connected bool) {
	g.mu.Lock()
	if g.connected == connected {
		g.mu.Unlock()
		return
	}
	g.connected = connected
	if !connected {
		g.cancelPendingLocked()
	}
	subs := append(([]func(bool))(nil), g.statusSubs...)
	g.mu.Unlock()

	for _, fn := range subs {
		fn(connected)
	}
}

// cancelPendingLocked closes every waiter channel. Callers hold g.mu.
// Delivery and cancellation both remove the entry under the lock first, so
// each channel is either delivered to once or closed once, never both.
func (g *Gateway) cancelPendingLocked() {
	for id, ch := range g.pending {
		delete(g.pending, id)
		close(ch)
	}
}
