package gateway

import (
	"github.com/stretchr/testify/mock"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/wire"
)

// MockConn is a testify mock of the Conn interface for bridge and relay tests.
type MockConn struct {
	mock.Mock
}

// Make sure we conform to the interface
var _ Conn = (*MockConn)(nil)

func (m *MockConn) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockConn) Emit(event wire.EventType, payload any) error {
	args := m.Called(event, payload)
	return args.Error(0)
}

func (m *MockConn) EmitEnvelope(env wire.Envelope) error {
	args := m.Called(env)
	return args.Error(0)
}

func (m *MockConn) Expect(id string) (<-chan wire.Envelope, func()) {
	args := m.Called(id)
	return args.Get(0).(<-chan wire.Envelope), args.Get(1).(func())
}

func (m *MockConn) Subscribe(event wire.EventType, h Handler) {
	m.Called(event, h)
}

func (m *MockConn) OnStatus(fn func(bool)) {
	m.Called(fn)
}
