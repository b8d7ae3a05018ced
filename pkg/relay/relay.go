// Package relay forwards server-initiated pushes across the isolation
// boundary. Pushes are fire-and-forget and at-most-once: no retry, no
// acknowledgment, duplicate suppression is the server's problem.
package relay

import (
	"encoding/json"
	"log/slog"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/gateway"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/ipc"
	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// Relay binds the gateway's push subscriptions to a boundary sink.
type Relay struct {
	conn   gateway.Conn
	sink   ipc.Sink
	logger *slog.Logger
}

// NewRelay creates a Relay over an established connection handle.
func NewRelay(conn gateway.Conn, sink ipc.Sink, logger *slog.Logger) *Relay {
	return &Relay{conn: conn, sink: sink, logger: logger}
}

// Start registers the persistent subscriptions. Top-up and session-update
// payloads cross the boundary unchanged under their server event names;
// forced logout crosses under a distinct channel; gateway liveness
// transitions cross as a boolean.
func (r *Relay) Start() {
	r.conn.Subscribe(wire.EventTopUpCompleted, func(payload json.RawMessage) {
		r.forward(ipc.Message{Channel: ipc.ChannelTopUp, Payload: payload})
	})

	r.conn.Subscribe(wire.EventSessionDataUpdated, func(payload json.RawMessage) {
		r.forward(ipc.Message{Channel: ipc.ChannelSessionUpdate, Payload: payload})
	})

	r.conn.Subscribe(wire.EventForceLogout, func(json.RawMessage) {
		r.forward(ipc.Message{Channel: ipc.ChannelForceLogout})
	})

	r.conn.OnStatus(func(connected bool) {
		r.forward(ipc.Message{Channel: ipc.ChannelConnectionStatus, Payload: connected})
	})
}

func (r *Relay) forward(msg ipc.Message) {
	if err := r.sink.Send(msg); err != nil {
		r.logger.Error("failed to forward push event", "channel", msg.Channel, "error", err)
	}
}
