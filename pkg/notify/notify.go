// Package notify keeps the transient queue of top-up toasts the renderer
// shows. Entries expire on their own timers and are never persisted.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// DefaultAutoClose is how long a toast stays up without interaction.
const DefaultAutoClose = 5 * time.Second

// Notification is one visible top-up entry. ID is display-local, generated
// here, and unrelated to the server transaction id.
type Notification struct {
	ID            string    `json:"id"`
	TransactionID int64     `json:"transaction_id"`
	Username      string    `json:"username"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description,omitempty"`
	Message       string    `json:"message,omitempty"`
	IsAdmin       bool      `json:"is_admin,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Center is the append-only toast queue. Each entry is removed by explicit
// dismissal or by its own expiry timer, whichever fires first; one entry's
// expiry never affects the others.
type Center struct {
	autoClose time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	closed  bool
	entries []Notification
	timers  map[string]*time.Timer
	subs    []func([]Notification)
}

// NewCenter creates a Center. A non-positive autoClose falls back to the
// default.
func NewCenter(autoClose time.Duration, logger *slog.Logger) *Center {
	if autoClose <= 0 {
		autoClose = DefaultAutoClose
	}
	return &Center{
		autoClose: autoClose,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
	}
}

// Push enqueues a toast for a top-up push event and arms its expiry timer.
// Returns the display id.
func (c *Center) Push(event wire.TopUpCompletedPayload) string {
	entry := Notification{
		ID:            uuid.New().String(),
		TransactionID: event.Transaction.ID,
		Username:      event.Transaction.Username,
		Amount:        event.Transaction.Amount,
		Description:   event.Transaction.Description,
		Message:       event.Notification,
		IsAdmin:       event.IsAdminNotification,
		CreatedAt:     time.Now(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ""
	}
	c.entries = append(c.entries, entry)
	c.timers[entry.ID] = time.AfterFunc(c.autoClose, func() {
		c.Dismiss(entry.ID)
	})
	subs, snapshot := c.observersLocked()
	c.mu.Unlock()

	c.logger.Info("top-up notification enqueued", "id", entry.ID, "amount", entry.Amount)
	for _, fn := range subs {
		fn(snapshot)
	}
	return entry.ID
}

// Dismiss removes one entry and stops its timer. Unknown ids are ignored, so
// an expiry racing a manual dismissal is harmless.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	found := false
	for i, entry := range c.entries {
		if entry.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return
	}
	subs, snapshot := c.observersLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// List returns a copy of the visible entries, oldest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.entries...)
}

// OnChange subscribes to queue changes. The callback receives a snapshot of
// the queue after each push or removal.
func (c *Center) OnChange(fn func([]Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Close stops every pending expiry timer.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
}

func (c *Center) observersLocked() ([]func([]Notification), []Notification) {
	subs := append(([]func([]Notification))(nil), c.subs...)
	snapshot := append([]Notification(nil), c.entries...)
	return subs, snapshot
}
