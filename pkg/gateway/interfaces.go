package gateway

import (
	"encoding/json"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// Handler consumes the payload of a push envelope.
type Handler func(payload json.RawMessage)

// Conn is the view of the backend connection consumed by the bridge and the
// relay. Only the Gateway creates or replaces the underlying socket.
type Conn interface {
	// IsConnected reports the last-observed liveness of the link.
	IsConnected() bool

	// Emit sends one fire-and-forget envelope. It fails synchronously with
	// ErrNotConnected when the link is down.
	Emit(event wire.EventType, payload any) error

	// EmitEnvelope sends a pre-built envelope, correlation id included.
	EmitEnvelope(env wire.Envelope) error

	// Expect registers a one-shot waiter for the response envelope carrying
	// the given correlation id. The channel receives at most one envelope
	// and is closed on gateway teardown; the returned cancel func
	// deregisters the waiter and is safe to call after delivery.
	Expect(id string) (<-chan wire.Envelope, func())

	// Subscribe registers a persistent handler for a push event. Handlers
	// survive reconnects.
	Subscribe(event wire.EventType, h Handler)

	// OnStatus subscribes to connection liveness transitions.
	OnStatus(fn func(connected bool))
}
