package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/bridge"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/middleware"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/models"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/notify"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/session"
)

// Authenticator is the slice of the bridge the control API depends on.
type Authenticator interface {
	Login(ctx context.Context, username, password string) bridge.LoginResult
	Logout(ctx context.Context, ref any) bridge.LogoutResult
	ValidateSession(ctx context.Context, userID int64) bridge.ValidationResult
	RegisterForNotifications(userID int64) bool
}

// ConnectionStatus reports boundary-delivered liveness for the state endpoint.
type ConnectionStatus interface {
	Connected() bool
}

// ApiHandler serves the renderer's local control API. Every protocol
// failure comes back as a resolved result body; only a malformed request
// body is an HTTP-level error.
type ApiHandler struct {
	Auth   Authenticator
	Store  *session.Store
	Center *notify.Center
	Status ConnectionStatus
}

// NewApiHandler creates a new ApiHandler with its dependencies.
func NewApiHandler(auth Authenticator, store *session.Store, center *notify.Center, status ConnectionStatus) *ApiHandler {
	return &ApiHandler{Auth: auth, Store: store, Center: center, Status: status}
}

// NewRouter mounts the control API and the renderer event socket on a fresh
// chi router.
func NewRouter(h *ApiHandler, hub http.Handler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.NewStructuredLogger(logger))
	r.Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)
	r.Post("/api/session/validate", h.ValidateSession)
	r.Get("/api/state", h.GetState)
	r.Get("/api/notifications", h.ListNotifications)
	r.Delete("/api/notifications/{notificationId}", h.DismissNotification)
	r.Get("/ws", hub.ServeHTTP)
	return r
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates against the backend. On success the customer becomes
// the store's active user and is registered for push notifications.
func (h *ApiHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result := h.Auth.Login(r.Context(), body.Username, body.Password)
	if result.Success && result.Customer != nil {
		h.Store.SetUser(*result.Customer)
		h.Auth.RegisterForNotifications(result.Customer.ID)
	}

	writeJSON(w, http.StatusOK, result)
}

type logoutBody struct {
	UserID any `json:"userId"`
}

// Logout ends the session. The user reference shape is validated by the
// bridge; success clears the store.
func (h *ApiHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body logoutBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result := h.Auth.Logout(r.Context(), body.UserID)
	if result.Success {
		h.Store.ClearUser()
	}

	writeJSON(w, http.StatusOK, result)
}

type validateBody struct {
	UserID int64 `json:"userId"`
}

// ValidateSession checks the session with the backend; a valid response that
// echoes customer data is adopted into the store.
func (h *ApiHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	var body validateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result := h.Auth.ValidateSession(r.Context(), body.UserID)
	if result.IsValid && result.Customer != nil {
		h.Store.SetUser(*result.Customer)
		h.Auth.RegisterForNotifications(result.Customer.ID)
	}

	writeJSON(w, http.StatusOK, result)
}

type stateResponse struct {
	User      *models.Customer `json:"user"`
	Connected bool             `json:"connected"`
}

// GetState returns the snapshot every page hydrates from.
func (h *ApiHandler) GetState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{Connected: h.Status.Connected()}
	if user, ok := h.Store.User(); ok {
		resp.User = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListNotifications returns the currently visible toasts.
func (h *ApiHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Center.List())
}

// DismissNotification removes one toast ahead of its expiry timer.
func (h *ApiHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.Center.Dismiss(chi.URLParam(r, "notificationId"))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
