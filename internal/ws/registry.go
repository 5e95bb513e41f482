package ws

import (
	"fmt"
	"sync"

	"github.com/lxzan/gws"
	"github.com/rs/zerolog"

	"binanceapi/pkg/core"
)

// Registry maps subscription paths to live sockets so that a path is never dialed twice.
// Entries are never evicted; a socket whose connection dropped stays registered.
type Registry struct {
	baseURL string
	logger  zerolog.Logger

	mu      sync.Mutex
	sockets map[string]*Socket
	wg      sync.WaitGroup
}

// NewRegistry creates an empty registry. Paths are appended verbatim to baseURL.
func NewRegistry(baseURL string, logger zerolog.Logger) *Registry {
	return &Registry{
		baseURL: baseURL,
		logger:  logger.With().Str("component", "ws").Logger(),
		sockets: make(map[string]*Socket),
	}
}

// Acquire returns the socket registered under path, dialing baseURL+path and binding onMessage
// when none exists. For an existing path onMessage is ignored and the first handler stays bound.
// The lookup, dial and insert happen under one lock.
func (r *Registry) Acquire(path string, onMessage MessageHandler) (*Socket, error) {
	if path == "" {
		return nil, &core.ValidationError{Param: "path", Reason: "must be a non-empty string"}
	}
	if onMessage == nil {
		return nil, &core.ValidationError{Param: "onMessage", Reason: "must be a function"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sockets[path]; ok {
		r.logger.Debug().Str("path", path).Msg("path already subscribed, keeping first handler")
		return s, nil
	}

	url := r.baseURL + path
	s := newSocket(path, url, onMessage, r.logger)

	conn, _, err := gws.NewClient(s, &gws.ClientOption{
		Addr: url,
	})
	if err != nil {
		return nil, fmt.Errorf("connect websocket %s: %w", path, err)
	}
	s.conn = conn
	r.sockets[path] = s

	r.wg.Go(func() {
		conn.ReadLoop()
	})

	return s, nil
}

// Get returns the socket registered under path.
func (r *Registry) Get(path string) (*Socket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sockets[path]
	return s, ok
}

func (r *Registry) Contains(path string) bool {
	_, ok := r.Get(path)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sockets)
}

// Paths returns the registered paths in no particular order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.sockets))
	for p := range r.sockets {
		paths = append(paths, p)
	}
	return paths
}

// Close shuts every connection down and waits for the read loops to return.
// Entries stay registered, so a closed path is not dialed again.
func (r *Registry) Close() {
	r.mu.Lock()
	for _, s := range r.sockets {
		s.close()
	}
	r.mu.Unlock()

	r.wg.Wait()
}
