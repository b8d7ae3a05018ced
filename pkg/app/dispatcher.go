// Package app is the renderer side of the isolation boundary: it applies
// inbound boundary messages to the state the pages read.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/ipc"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/notify"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/session"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// ViewLogin is the unauthenticated view a forced logout navigates to.
const ViewLogin = "login"

// Navigator routes the renderer to a named view.
type Navigator func(view string)

// Dispatcher consumes boundary messages and mutates the session store and
// notification queue accordingly. It is the only boundary consumer that
// applies state; the hub merely mirrors the same stream to the windows.
type Dispatcher struct {
	store    *session.Store
	center   *notify.Center
	navigate Navigator
	logger   *slog.Logger

	mu        sync.RWMutex
	connected bool
}

// NewDispatcher creates a Dispatcher. navigate may be nil when no window
// routing exists (tests, headless runs).
func NewDispatcher(store *session.Store, center *notify.Center, navigate Navigator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, center: center, navigate: navigate, logger: logger}
}

// Make sure we conform to the interface
var _ ipc.Sink = (*Dispatcher)(nil)

// Connected reports the last boundary-delivered liveness flag; the pages use
// it to disable actions that need the server.
func (d *Dispatcher) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Send applies one boundary message.
func (d *Dispatcher) Send(msg ipc.Message) error {
	switch msg.Channel {
	case ipc.ChannelTopUp:
		return d.applyTopUp(msg.Payload)
	case ipc.ChannelSessionUpdate:
		return d.applySessionUpdate(msg.Payload)
	case ipc.ChannelForceLogout:
		d.store.ClearUser()
		d.logger.Info("forced logout, returning to login view")
		if d.navigate != nil {
			d.navigate(ViewLogin)
		}
		return nil
	case ipc.ChannelConnectionStatus:
		var connected bool
		if err := decodePayload(msg.Payload, &connected); err != nil {
			return err
		}
		d.mu.Lock()
		d.connected = connected
		d.mu.Unlock()
		return nil
	default:
		d.logger.Warn("unknown boundary channel", "channel", msg.Channel)
		return nil
	}
}

// applyTopUp increments the balance and enqueues exactly one toast. A top-up
// arriving with nobody logged in is discarded, logged only.
func (d *Dispatcher) applyTopUp(payload any) error {
	var event wire.TopUpCompletedPayload
	if err := decodePayload(payload, &event); err != nil {
		return err
	}

	newBalance, active := d.store.AddBalance(event.Transaction.Amount)
	if !active {
		d.logger.Info("discarding top-up, no active session", "transactionId", event.Transaction.ID)
		return nil
	}

	d.center.Push(event)
	d.logger.Info("top-up applied", "amount", event.Transaction.Amount, "balance", newBalance)
	return nil
}

// applySessionUpdate adopts the server-authoritative time and balance
// verbatim.
func (d *Dispatcher) applySessionUpdate(payload any) error {
	var update wire.SessionDataUpdatedPayload
	if err := decodePayload(payload, &update); err != nil {
		return err
	}
	if !d.store.SetSessionData(update.TimeRemaining, update.Balance) {
		d.logger.Info("discarding session update, no active session")
	}
	return nil
}

// decodePayload accepts either the relay's raw JSON or an already-typed
// payload from in-process senders.
func decodePayload(payload any, dst any) error {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to re-encode boundary payload: %w", err)
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode boundary payload: %w", err)
	}
	return nil
}
