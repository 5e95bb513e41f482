package ws

import "sync/atomic"

// ConnState represents the current connection state of a socket.
type ConnState int32

// Connection states of a socket. There is no reconnect, so a socket that reaches
// StateDisconnected or StateClosed stays there.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateClosed
)

// String returns the string representation of the connection state.
func (s ConnState) String() string {
	return [...]string{
		"disconnected",
		"connecting",
		"connected",
		"closed",
	}[s]
}

// State provides thread-safe atomic access to a ConnState value.
type State struct {
	state atomic.Int32
}

func (s *State) Load() ConnState {
	return ConnState(s.state.Load())
}

func (s *State) Store(state ConnState) {
	s.state.Store(int32(state))
}

// CompareAndSwap atomically swaps to new if the current state is old.
func (s *State) CompareAndSwap(old, new ConnState) bool {
	return s.state.CompareAndSwap(int32(old), int32(new))
}
