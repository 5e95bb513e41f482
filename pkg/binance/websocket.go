package binance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"binanceapi/internal/ws"
	"binanceapi/pkg/core"
)

// UserDataKeepAlive is how often an open user data stream is pinged.
// The exchange drops listen keys that stay idle for longer than this by a wide margin.
const UserDataKeepAlive = 60 * time.Second

// ErrEmptyListenKey is returned by OnUserData when the exchange answered without a listen key.
var ErrEmptyListenKey = errors.New("binance: user data stream returned no listen key")

// Handler receives the raw payload of every message on a subscribed stream.
type Handler func(data []byte)

// Socket is the connection backing a subscription.
type Socket = ws.Socket

// WSClient subscribes to raw streams. Each distinct stream path gets one socket; subscribing
// again to a path returns the existing socket and the new handler is never called.
type WSClient struct {
	registry *ws.Registry
	logger   zerolog.Logger

	keepAliveInterval time.Duration
	pingFailures      *rate.Sometimes

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWSClient creates a stream client rooted at config.StreamURL.
func NewWSClient(config *core.Config, opts ...Option) (*WSClient, error) {
	if config == nil {
		return nil, &core.ConstructionError{Field: "config", Reason: "is required"}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(config, opts)
	logger := options.Logger.With().Str("exchange", "binance").Logger()

	return &WSClient{
		registry:          ws.NewRegistry(config.StreamURL, logger),
		logger:            logger,
		keepAliveInterval: UserDataKeepAlive,
		pingFailures:      &rate.Sometimes{First: 3, Interval: 10 * time.Minute},
		stop:              make(chan struct{}),
	}, nil
}

// OnDepth subscribes to <symbol>@depth.
func (c *WSClient) OnDepth(symbol string, handler Handler) (*Socket, error) {
	if symbol == "" {
		return nil, &core.ValidationError{Param: "symbol", Reason: "is required"}
	}
	return c.subscribe(strings.ToLower(symbol)+"@depth", handler)
}

// OnKline subscribes to <symbol>@kline_<interval>.
func (c *WSClient) OnKline(symbol, interval string, handler Handler) (*Socket, error) {
	if symbol == "" {
		return nil, &core.ValidationError{Param: "symbol", Reason: "is required"}
	}
	if interval == "" {
		return nil, &core.ValidationError{Param: "interval", Reason: "is required"}
	}
	return c.subscribe(strings.ToLower(symbol)+"@kline_"+interval, handler)
}

// OnAggTrade subscribes to <symbol>@aggTrade.
func (c *WSClient) OnAggTrade(symbol string, handler Handler) (*Socket, error) {
	if symbol == "" {
		return nil, &core.ValidationError{Param: "symbol", Reason: "is required"}
	}
	return c.subscribe(strings.ToLower(symbol)+"@aggTrade", handler)
}

// OnUserData opens a user data stream through rest and subscribes to its listen key.
// Once subscribed, the listen key is pinged every UserDataKeepAlive; ping failures are
// logged and the next tick tries again. There is no per-stream cancellation: only Close
// stops the keep-alive, and it stops every one the client started.
func (c *WSClient) OnUserData(ctx context.Context, rest *Client, handler Handler) (*Socket, error) {
	if rest == nil {
		return nil, &core.ValidationError{Param: "rest", Reason: "must be a binance REST client"}
	}
	if !rest.HasAPIKey() {
		return nil, &core.AuthError{Op: "OnUserData", Missing: "API key"}
	}
	if handler == nil {
		return nil, &core.ValidationError{Param: "handler", Reason: "must be a function"}
	}

	lk, err := rest.StartUserDataStream(ctx)
	if err != nil {
		return nil, err
	}
	if lk == nil || lk.ListenKey == "" {
		return nil, ErrEmptyListenKey
	}

	socket, err := c.subscribe(lk.ListenKey, handler)
	if err != nil {
		return nil, err
	}

	c.wg.Go(func() {
		c.keepAlive(rest, lk.ListenKey)
	})

	return socket, nil
}

// Subscribed reports whether a socket exists for path.
func (c *WSClient) Subscribed(path string) bool {
	return c.registry.Contains(path)
}

// Close stops the keep-alive loops and shuts every socket down. Paths stay registered.
func (c *WSClient) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.registry.Close()
	c.wg.Wait()
	return nil
}

func (c *WSClient) subscribe(path string, handler Handler) (*Socket, error) {
	return c.registry.Acquire(path, ws.MessageHandler(handler))
}

func (c *WSClient) keepAlive(rest *Client, listenKey string) {
	ticker := time.NewTicker(c.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		if err := rest.PingUserDataStream(context.Background(), listenKey); err != nil {
			c.pingFailures.Do(func() {
				c.logger.Warn().Err(err).Msg("user data stream keep-alive failed")
			})
			continue
		}
		c.logger.Debug().Msg("user data stream kept alive")
	}
}
