package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/bridge"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/handlers"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/models"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/notify"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/session"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// mockAuth is a testify mock of the Authenticator interface.
type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, username, password string) bridge.LoginResult {
	args := m.Called(ctx, username, password)
	return args.Get(0).(bridge.LoginResult)
}

func (m *mockAuth) Logout(ctx context.Context, ref any) bridge.LogoutResult {
	args := m.Called(ctx, ref)
	return args.Get(0).(bridge.LogoutResult)
}

func (m *mockAuth) ValidateSession(ctx context.Context, userID int64) bridge.ValidationResult {
	args := m.Called(ctx, userID)
	return args.Get(0).(bridge.ValidationResult)
}

func (m *mockAuth) RegisterForNotifications(userID int64) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

type stubStatus struct {
	connected bool
}

func (s *stubStatus) Connected() bool { return s.connected }

func newTestHandler(t *testing.T, auth handlers.Authenticator, connected bool) (*handlers.ApiHandler, *session.Store, *notify.Center) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(session.NewFileRepository(filepath.Join(t.TempDir(), "session.json")), logger)
	center := notify.NewCenter(time.Minute, logger)
	t.Cleanup(center.Close)
	return handlers.NewApiHandler(auth, store, center, &stubStatus{connected: connected}), store, center
}

func TestLogin(t *testing.T) {
	t.Run("SuccessAdoptsUserAndRegistersForPush", func(t *testing.T) {
		auth := new(mockAuth)
		customer := &models.Customer{ID: 7, Username: "alice", Balance: 10000}
		auth.On("Login", mock.Anything, "alice", "secret").
			Return(bridge.LoginResult{Success: true, Customer: customer})
		auth.On("RegisterForNotifications", int64(7)).Return(true)

		h, store, _ := newTestHandler(t, auth, true)

		body, _ := json.Marshal(map[string]string{"username": "alice", "password": "secret"})
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var result bridge.LoginResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.True(t, result.Success)

		user, ok := store.User()
		require.True(t, ok)
		assert.Equal(t, "alice", user.Username)
		auth.AssertExpectations(t)
	})

	t.Run("FailureLeavesStoreUntouched", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Login", mock.Anything, "alice", "wrong").
			Return(bridge.LoginResult{Success: false, Error: "invalid credentials"})

		h, store, _ := newTestHandler(t, auth, true)

		body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		_, ok := store.User()
		assert.False(t, ok)
		auth.AssertNotCalled(t, "RegisterForNotifications", mock.Anything)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		auth := new(mockAuth)
		h, _, _ := newTestHandler(t, auth, true)

		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader([]byte("{not json")))
		rr := httptest.NewRecorder()

		h.Login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLogout(t *testing.T) {
	t.Run("SuccessClearsStore", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Logout", mock.Anything, mock.Anything).Return(bridge.LogoutResult{Success: true})

		h, store, _ := newTestHandler(t, auth, true)
		store.SetUser(models.Customer{ID: 7, Username: "alice"})

		body, _ := json.Marshal(map[string]any{"userId": 7})
		req := httptest.NewRequest(http.MethodPost, "/api/logout", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Logout(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		_, ok := store.User()
		assert.False(t, ok)
	})

	t.Run("FailureKeepsSession", func(t *testing.T) {
		auth := new(mockAuth)
		auth.On("Logout", mock.Anything, mock.Anything).Return(bridge.LogoutResult{Success: false, Error: "timeout"})

		h, store, _ := newTestHandler(t, auth, true)
		store.SetUser(models.Customer{ID: 7})

		body, _ := json.Marshal(map[string]any{"userId": 7})
		req := httptest.NewRequest(http.MethodPost, "/api/logout", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Logout(rr, req)

		_, ok := store.User()
		assert.True(t, ok, "an unconfirmed logout must not clear the session")
	})
}

func TestValidateSession(t *testing.T) {
	auth := new(mockAuth)
	customer := &models.Customer{ID: 7, Username: "alice"}
	auth.On("ValidateSession", mock.Anything, int64(7)).
		Return(bridge.ValidationResult{IsValid: true, Customer: customer})
	auth.On("RegisterForNotifications", int64(7)).Return(true)

	h, store, _ := newTestHandler(t, auth, true)

	body, _ := json.Marshal(map[string]any{"userId": 7})
	req := httptest.NewRequest(http.MethodPost, "/api/session/validate", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.ValidateSession(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	user, ok := store.User()
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username, "echoed customer data is adopted")
}

func TestGetState(t *testing.T) {
	auth := new(mockAuth)
	h, store, _ := newTestHandler(t, auth, true)
	store.SetUser(models.Customer{ID: 7, Username: "alice", Balance: 10000})

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rr := httptest.NewRecorder()

	h.GetState(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var state struct {
		User      *models.Customer `json:"user"`
		Connected bool             `json:"connected"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	require.NotNil(t, state.User)
	assert.Equal(t, int64(10000), state.User.Balance)
	assert.True(t, state.Connected)
}

func TestNotificationEndpoints(t *testing.T) {
	auth := new(mockAuth)
	h, _, center := newTestHandler(t, auth, true)

	id := center.Push(wire.TopUpCompletedPayload{
		Transaction: models.TopUpTransaction{ID: 101, Username: "alice", Amount: 5000},
	})

	router := handlers.NewRouter(h, http.NotFoundHandler(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	var entries []notify.Notification
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	req = httptest.NewRequest(http.MethodDelete, "/api/notifications/"+id, nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, center.List())
}
