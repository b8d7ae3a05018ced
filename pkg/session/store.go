package session

import (
	"log/slog"
	"sync"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/models"
)

// Patch is a shallow merge into the active customer record. Nil fields are
// left untouched.
type Patch struct {
	Username      *string `json:"username,omitempty"`
	Email         *string `json:"email,omitempty"`
	Balance       *int64  `json:"balance,omitempty"`
	TimeRemaining *int64  `json:"time_remaining,omitempty"`
	Rank          *string `json:"rank,omitempty"`
	Streak        *int    `json:"streak,omitempty"`
}

// Store holds the single active customer the whole UI reads. All mutations
// go through it, every mutation persists the snapshot through the injected
// repository, and at most one customer is active at a time.
type Store struct {
	repo   Repository
	logger *slog.Logger

	mu   sync.RWMutex
	user *models.Customer
}

// NewStore creates a Store and restores the previous snapshot. A corrupt or
// unreadable snapshot is logged and discarded; the store starts logged out.
func NewStore(repo Repository, logger *slog.Logger) *Store {
	s := &Store{repo: repo, logger: logger}
	snap, err := repo.Load()
	if err != nil {
		logger.Warn("could not restore session snapshot", "error", err)
		return s
	}
	s.user = snap.User
	return s
}

// User returns a copy of the active customer, or false when logged out.
func (s *Store) User() (models.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.Customer{}, false
	}
	return *s.user, true
}

// SetUser replaces the active customer wholesale, filling defaults for
// optional fields the login response omitted. Used right after a successful
// login or an adopted session validation.
func (s *Store) SetUser(c models.Customer) {
	if c.TimeRemaining <= 0 {
		c.TimeRemaining = models.DefaultSessionSeconds
	}
	if c.Rank == "" {
		c.Rank = models.DefaultRank
	}
	if c.Streak < 0 {
		c.Streak = models.DefaultStreak
	}
	if c.Balance < 0 {
		c.Balance = 0
	}

	s.mu.Lock()
	s.user = &c
	s.persistLocked()
	s.mu.Unlock()
}

// UpdateUser shallow-merges the patch into the active customer. A patch with
// no active customer is a no-op, not an error.
func (s *Store) UpdateUser(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	if p.Username != nil {
		s.user.Username = *p.Username
	}
	if p.Email != nil {
		s.user.Email = *p.Email
	}
	if p.Balance != nil {
		s.user.Balance = max(*p.Balance, 0)
	}
	if p.TimeRemaining != nil {
		s.user.TimeRemaining = max(*p.TimeRemaining, 0)
	}
	if p.Rank != nil {
		s.user.Rank = *p.Rank
	}
	if p.Streak != nil {
		s.user.Streak = *p.Streak
	}
	s.persistLocked()
}

// AddBalance applies a top-up increment. Returns the new balance and whether
// a customer was active to receive it.
func (s *Store) AddBalance(amount int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return 0, false
	}
	s.user.Balance += amount
	if s.user.Balance < 0 {
		s.user.Balance = 0
	}
	s.persistLocked()
	return s.user.Balance, true
}

// SetSessionData replaces remaining time and balance verbatim. The server is
// authoritative for both fields, so this is a replacement, never arithmetic.
func (s *Store) SetSessionData(timeRemaining, balance int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	s.user.TimeRemaining = max(timeRemaining, 0)
	s.user.Balance = max(balance, 0)
	s.persistLocked()
	return true
}

// ClearUser logs the customer out. Idempotent.
func (s *Store) ClearUser() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.persistLocked()
}

// persistLocked saves the snapshot. Persistence failures keep the in-memory
// state authoritative; the worst case is a fresh login after a reload.
func (s *Store) persistLocked() {
	if err := s.repo.Save(Snapshot{User: s.user}); err != nil {
		s.logger.Error("failed to persist session snapshot", "error", err)
	}
}
