package wire

import (
	"encoding/json"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/models"
)

// EventType names an event on the backend socket.
type EventType string

// Request/response events. The server answers each with an envelope that
// echoes the request's correlation id.
const (
	EventLogin           EventType = "login"
	EventLogout          EventType = "logout"
	EventSessionValidate EventType = "session-validate"
	EventRegisterForPush EventType = "register-user-for-push"
)

// Push events. Server-initiated, no correlation id, no acknowledgment.
const (
	EventTopUpCompleted     EventType = "top-up-completed"
	EventSessionDataUpdated EventType = "session-data-updated"
	EventForceLogout        EventType = "force-logout"
)

// Envelope is the framing for every message on the backend socket. ID is set
// on request/response traffic only; push envelopes carry just a type and a
// payload.
type Envelope struct {
	Type    EventType       `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an envelope, marshalling the payload. A nil payload
// produces an envelope with no payload field.
func NewEnvelope(eventType EventType, id string, payload any) (Envelope, error) {
	env := Envelope{Type: eventType, ID: id}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = raw
	return env, nil
}

// LoginRequest carries the credentials for a login call.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the server's answer to a login call.
type LoginResponse struct {
	Success  bool             `json:"success"`
	Customer *models.Customer `json:"customer,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// LogoutRequest carries the normalized user identifier for a logout call.
type LogoutRequest struct {
	UserID int64 `json:"userId"`
}

// LogoutResponse is the server's answer to a logout call.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SessionValidateRequest asks whether a user's session is still valid.
type SessionValidateRequest struct {
	UserID int64 `json:"userId"`
}

// SessionValidateResponse optionally echoes the customer record so the UI
// can adopt it.
type SessionValidateResponse struct {
	IsValid  bool             `json:"isValid"`
	Customer *models.Customer `json:"customer,omitempty"`
}

// RegisterForPushRequest subscribes a user to server pushes. Fire-and-forget.
type RegisterForPushRequest struct {
	UserID int64 `json:"userId"`
}

// TopUpCompletedPayload is the payload of a top-up-completed push.
type TopUpCompletedPayload struct {
	Transaction         models.TopUpTransaction `json:"transaction"`
	Notification        string                  `json:"notification"`
	IsAdminNotification bool                    `json:"isAdminNotification,omitempty"`
}

// SessionDataUpdatedPayload carries the server-authoritative session fields.
// Both values replace the store's copy verbatim.
type SessionDataUpdatedPayload struct {
	TimeRemaining int64 `json:"time_remaining"`
	Balance       int64 `json:"balance"`
}
