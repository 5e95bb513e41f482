package ws

import (
	"bytes"
	"time"

	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

// MessageHandler receives the payload of each frame delivered on a socket.
// The slice is owned by the handler.
type MessageHandler func(data []byte)

// Socket is a single stream connection bound to exactly one handler.
// It implements gws.Event; frames are delivered sequentially from its read loop.
type Socket struct {
	path    string
	url     string
	handler MessageHandler
	conn    *gws.Conn
	state   *State
	logger  zerolog.Logger
	opened  chan struct{}
	done    chan struct{}
}

func newSocket(path, url string, handler MessageHandler, logger zerolog.Logger) *Socket {
	s := &Socket{
		path:    path,
		url:     url,
		handler: handler,
		state:   &State{},
		logger:  logger.With().Str("path", path).Logger(),
		opened:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.state.Store(StateConnecting)
	return s
}

func (s *Socket) OnOpen(socket *gws.Conn) {
	s.state.Store(StateConnected)
	close(s.opened)
	s.logger.Info().Str("url", s.url).Msg("websocket connected")
}

func (s *Socket) OnClose(socket *gws.Conn, err error) {
	if !s.state.CompareAndSwap(StateConnected, StateDisconnected) {
		s.state.CompareAndSwap(StateConnecting, StateDisconnected)
	}
	close(s.done)
	s.logger.Warn().Err(err).Str("url", s.url).Msg("websocket disconnected")
}

func (s *Socket) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (s *Socket) OnPong(socket *gws.Conn, payload []byte) {}

func (s *Socket) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	data := message.Bytes()
	if len(data) == 0 {
		return
	}

	s.logger.Debug().Int("size", len(data)).Msg("received websocket message")
	s.handler(bytes.Clone(data))
}

// Path returns the registry key of the socket.
func (s *Socket) Path() string { return s.path }

// URL returns the address the socket was dialed on.
func (s *Socket) URL() string { return s.url }

func (s *Socket) State() ConnState {
	return s.state.Load()
}

func (s *Socket) IsConnected() bool {
	return s.state.Load() == StateConnected
}

// Done is closed once the read loop has stopped.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// WaitOpen blocks until the read loop has started or timeout elapses.
func (s *Socket) WaitOpen(timeout time.Duration) bool {
	select {
	case <-s.opened:
		return true
	case <-s.done:
		return false
	case <-time.After(timeout):
		return false
	}
}

// close shuts the underlying connection down; the read loop then fires OnClose.
func (s *Socket) close() {
	if s.state.Load() == StateClosed {
		return
	}
	if s.conn != nil {
		s.conn.WriteClose(1000, nil)
		_ = s.conn.NetConn().Close()
	}
	s.state.Store(StateClosed)
}
