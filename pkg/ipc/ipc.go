// Package ipc is the isolation boundary between the process that holds the
// backend connection and the renderer context. Everything the renderer
// learns about asynchronously crosses this boundary as a Message on a named
// channel.
package ipc

// Boundary channel names. Push events keep their server event names; forced
// logout crosses under a distinct name so the renderer can tell the
// involuntary path from a voluntary logout.
const (
	ChannelTopUp            = "top-up-completed"
	ChannelSessionUpdate    = "session-data-updated"
	ChannelForceLogout      = "app:force-logout"
	ChannelConnectionStatus = "connection-status"
)

// Message is one unit crossing the boundary.
type Message struct {
	Channel string `json:"channel"`
	Payload any    `json:"payload,omitempty"`
}

// Sink consumes boundary messages.
type Sink interface {
	Send(msg Message) error
}

// Fanout delivers each message to every sink. A failing sink does not stop
// delivery to the others.
type Fanout []Sink

// Make sure we conform to the interface
var _ Sink = (Fanout)(nil)

// Send delivers msg to all sinks and returns the last error, if any.
func (f Fanout) Send(msg Message) error {
	var lastErr error
	for _, s := range f {
		if err := s.Send(msg); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
