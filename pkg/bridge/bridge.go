package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/gateway"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/models"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// Per-operation deadlines. These are distinct on purpose: logout is expected
// to be cheap, login and validation may hit the accounts backend.
const (
	DefaultLoginTimeout    = 5 * time.Second
	DefaultLogoutTimeout   = 3 * time.Second
	DefaultValidateTimeout = 5 * time.Second
)

// Error strings surfaced to the renderer as resolved values.
const (
	errNotConnected  = "not connected to server"
	errTimeout       = "timeout"
	errMissingFields = "username and password are required"
	errBadUserRef    = "unrecognized user reference"
	errBadResponse   = "invalid server response"
)

// LoginResult is the resolved value of a login call.
type LoginResult struct {
	Success  bool             `json:"success"`
	Customer *models.Customer `json:"customer,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// LogoutResult is the resolved value of a logout call.
//
// A timed-out logout resolves Success=false. The system this replaces
// reported success on logout timeout; that misreports a slow logout as
// completed, so it is deliberately not preserved.
type LogoutResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ValidationResult is the resolved value of a session-validation call.
type ValidationResult struct {
	IsValid  bool             `json:"isValid"`
	Customer *models.Customer `json:"customer,omitempty"`
}

// Bridge answers the renderer's request/response intents over the backend
// connection. Every call resolves exactly once: with the server's response,
// with the operation's timeout fallback, or with a failure on teardown.
// Protocol failures are resolved values, never errors.
type Bridge struct {
	conn   gateway.Conn
	logger *slog.Logger

	// Overridable per-operation deadlines, mainly for tests.
	LoginTimeout    time.Duration
	LogoutTimeout   time.Duration
	ValidateTimeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// NewBridge creates a Bridge over an established gateway connection handle.
func NewBridge(conn gateway.Conn, logger *slog.Logger) *Bridge {
	return &Bridge{
		conn:            conn,
		logger:          logger,
		LoginTimeout:    DefaultLoginTimeout,
		LogoutTimeout:   DefaultLogoutTimeout,
		ValidateTimeout: DefaultValidateTimeout,
		done:            make(chan struct{}),
	}
}

// Close resolves every in-flight call with its fallback and releases their
// timers. Safe to call more than once.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Login authenticates a customer. Empty credentials short-circuit before any
// network attempt.
func (b *Bridge) Login(ctx context.Context, username, password string) LoginResult {
	if username == "" || password == "" {
		return LoginResult{Success: false, Error: errMissingFields}
	}
	if !b.conn.IsConnected() {
		return LoginResult{Success: false, Error: errNotConnected}
	}

	resp, status := b.call(ctx, wire.EventLogin, wire.LoginRequest{Username: username, Password: password}, b.LoginTimeout)
	switch status {
	case callOK:
		var out wire.LoginResponse
		if err := json.Unmarshal(resp.Payload, &out); err != nil {
			b.logger.Error("failed to decode login response", "error", err)
			return LoginResult{Success: false, Error: errBadResponse}
		}
		return LoginResult{Success: out.Success, Customer: out.Customer, Error: out.Error}
	case callNotConnected:
		return LoginResult{Success: false, Error: errNotConnected}
	default:
		return LoginResult{Success: false, Error: errTimeout}
	}
}

// Logout ends a customer's session. ref may be an integer, a numeric string,
// or a wire.LogoutRequest; anything else is a validation failure with no
// network attempt.
func (b *Bridge) Logout(ctx context.Context, ref any) LogoutResult {
	userID, ok := NormalizeUserRef(ref)
	if !ok {
		return LogoutResult{Success: false, Error: errBadUserRef}
	}
	if !b.conn.IsConnected() {
		return LogoutResult{Success: false, Error: errNotConnected}
	}

	resp, status := b.call(ctx, wire.EventLogout, wire.LogoutRequest{UserID: userID}, b.LogoutTimeout)
	switch status {
	case callOK:
		var out wire.LogoutResponse
		if err := json.Unmarshal(resp.Payload, &out); err != nil {
			b.logger.Error("failed to decode logout response", "error", err)
			return LogoutResult{Success: false, Error: errBadResponse}
		}
		return LogoutResult{Success: out.Success, Error: out.Error}
	case callNotConnected:
		return LogoutResult{Success: false, Error: errNotConnected}
	default:
		return LogoutResult{Success: false, Error: errTimeout}
	}
}

// ValidateSession asks the server whether the user's session is still valid.
// The response may echo the customer record for the UI to adopt.
func (b *Bridge) ValidateSession(ctx context.Context, userID int64) ValidationResult {
	if !b.conn.IsConnected() {
		return ValidationResult{IsValid: false}
	}

	resp, status := b.call(ctx, wire.EventSessionValidate, wire.SessionValidateRequest{UserID: userID}, b.ValidateTimeout)
	if status != callOK {
		return ValidationResult{IsValid: false}
	}
	var out wire.SessionValidateResponse
	if err := json.Unmarshal(resp.Payload, &out); err != nil {
		b.logger.Error("failed to decode session validation response", "error", err)
		return ValidationResult{IsValid: false}
	}
	return ValidationResult{IsValid: out.IsValid, Customer: out.Customer}
}

// RegisterForNotifications subscribes the user to server pushes. It is
// fire-and-forget: the return value reports only whether the emit was
// attempted, false when skipped because disconnected.
func (b *Bridge) RegisterForNotifications(userID int64) bool {
	if !b.conn.IsConnected() {
		b.logger.Warn("skipping push registration, not connected", "userId", userID)
		return false
	}
	if err := b.conn.Emit(wire.EventRegisterForPush, wire.RegisterForPushRequest{UserID: userID}); err != nil {
		b.logger.Error("failed to register for push notifications", "userId", userID, "error", err)
		return false
	}
	return true
}

type callStatus int

const (
	callOK callStatus = iota
	callNotConnected
	callTimeout
)

// call emits one correlated request and waits for the first of: the matching
// response, the deadline, caller cancellation, or bridge teardown. The waiter
// is deregistered on every exit path, so a late response is dropped by the
// gateway instead of resolving anything twice.
func (b *Bridge) call(ctx context.Context, event wire.EventType, payload any, timeout time.Duration) (wire.Envelope, callStatus) {
	id := uuid.New().String()
	env, err := wire.NewEnvelope(event, id, payload)
	if err != nil {
		b.logger.Error("failed to build request envelope", "event", event, "error", err)
		return wire.Envelope{}, callNotConnected
	}

	ch, cancel := b.conn.Expect(id)
	defer cancel()

	if err := b.conn.EmitEnvelope(env); err != nil {
		b.logger.Warn("emit failed", "event", event, "error", err)
		return wire.Envelope{}, callNotConnected
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			// Gateway torn down mid-call.
			return wire.Envelope{}, callTimeout
		}
		return resp, callOK
	case <-timer.C:
		b.logger.Warn("request timed out", "event", event, "timeout", timeout)
		return wire.Envelope{}, callTimeout
	case <-ctx.Done():
		return wire.Envelope{}, callTimeout
	case <-b.done:
		return wire.Envelope{}, callTimeout
	}
}

// NormalizeUserRef reduces the accepted logout reference shapes to a single
// integer identifier.
func NormalizeUserRef(ref any) (int64, bool) {
	switch v := ref.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case wire.LogoutRequest:
		return v.UserID, true
	case *wire.LogoutRequest:
		if v == nil {
			return 0, false
		}
		return v.UserID, true
	case map[string]any:
		inner, ok := v["userId"]
		if !ok {
			return 0, false
		}
		switch inner.(type) {
		case map[string]any, *wire.LogoutRequest, wire.LogoutRequest:
			// No nested references.
			return 0, false
		}
		return NormalizeUserRef(inner)
	default:
		return 0, false
	}
}
