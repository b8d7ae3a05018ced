package session_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/models"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	repo := session.NewFileRepository(filepath.Join(t.TempDir(), "session.json"))
	return session.NewStore(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSetUserAppliesDefaults(t *testing.T) {
	store := newTestStore(t)

	store.SetUser(models.Customer{ID: 7, Username: "alice", Balance: 10000})

	user, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, models.DefaultSessionSeconds, user.TimeRemaining)
	assert.Equal(t, models.DefaultRank, user.Rank)
	assert.Equal(t, models.DefaultStreak, user.Streak)
	assert.Equal(t, int64(10000), user.Balance)
}

func TestSetUserKeepsProvidedFields(t *testing.T) {
	store := newTestStore(t)

	store.SetUser(models.Customer{ID: 7, Username: "alice", TimeRemaining: 1200, Rank: "Gold", Streak: 4})

	user, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, int64(1200), user.TimeRemaining)
	assert.Equal(t, "Gold", user.Rank)
	assert.Equal(t, 4, user.Streak)
}

func TestUpdateUser(t *testing.T) {
	t.Run("ShallowMerge", func(t *testing.T) {
		store := newTestStore(t)
		store.SetUser(models.Customer{ID: 7, Username: "alice", Balance: 100, Rank: "Gold"})

		newBalance := int64(250)
		store.UpdateUser(session.Patch{Balance: &newBalance})

		user, ok := store.User()
		require.True(t, ok)
		assert.Equal(t, int64(250), user.Balance)
		assert.Equal(t, "Gold", user.Rank, "untouched fields must survive the merge")
	})

	t.Run("NoActiveUserIsNoOp", func(t *testing.T) {
		store := newTestStore(t)

		newBalance := int64(250)
		store.UpdateUser(session.Patch{Balance: &newBalance})

		_, ok := store.User()
		assert.False(t, ok)
	})
}

func TestAddBalance(t *testing.T) {
	t.Run("ActiveUser", func(t *testing.T) {
		store := newTestStore(t)
		store.SetUser(models.Customer{ID: 7, Balance: 10000})

		balance, ok := store.AddBalance(5000)

		assert.True(t, ok)
		assert.Equal(t, int64(15000), balance)
	})

	t.Run("NoUser", func(t *testing.T) {
		store := newTestStore(t)

		_, ok := store.AddBalance(5000)

		assert.False(t, ok)
	})
}

func TestSetSessionDataReplacesVerbatim(t *testing.T) {
	store := newTestStore(t)
	store.SetUser(models.Customer{ID: 7, Balance: 99999, TimeRemaining: 50})

	ok := store.SetSessionData(3600, 20000)

	require.True(t, ok)
	user, _ := store.User()
	assert.Equal(t, int64(3600), user.TimeRemaining, "replaced, not added")
	assert.Equal(t, int64(20000), user.Balance, "replaced, not added")
}

func TestClearUserIdempotent(t *testing.T) {
	store := newTestStore(t)
	store.SetUser(models.Customer{ID: 7})

	store.ClearUser()
	store.ClearUser()

	_, ok := store.User()
	assert.False(t, ok)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	repo := session.NewFileRepository(path)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := session.NewStore(repo, logger)
	store.SetUser(models.Customer{
		ID: 7, Username: "alice", Email: "alice@example.com",
		Balance: 15000, TimeRemaining: 3600, Rank: "Gold", Streak: 3,
	})
	before, ok := store.User()
	require.True(t, ok)

	// A renderer reload constructs a fresh store over the same slot.
	reloaded := session.NewStore(repo, logger)
	after, ok := reloaded.User()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestMissingSnapshotStartsLoggedOut(t *testing.T) {
	store := newTestStore(t)
	_, ok := store.User()
	assert.False(t, ok)
}
