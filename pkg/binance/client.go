package binance

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	httpClient "binanceapi/internal/http"
	"binanceapi/internal/ratelimit"
	"binanceapi/pkg/core"
)

// APIKeyHeader carries the API key on every request of a client that has one.
const APIKeyHeader = "X-MBX-APIKEY"

// Published spot limits, suitable as WithRateLimit arguments. Clients are unmetered unless
// WithRateLimit is given.
const (
	DefaultWeightPerMinute = 1200
	DefaultOrdersPerSecond = 10
)

// Client is the REST client. It is safe for concurrent use.
type Client struct {
	config     *core.Config
	httpClient *httpClient.Client
	logger     zerolog.Logger
	clock      Clock
	limiter    *ratelimit.Limiter
}

// Option is a functional option for configuring the Client and WSClient.
type Option func(*Options)

// Options holds configuration options for the Client and WSClient.
type Options struct {
	Logger zerolog.Logger
	Clock  Clock

	// WeightPerMinute and OrdersPerSecond bound REST usage before requests leave the process.
	// Zero, the default, disables the corresponding budget.
	WeightPerMinute int
	OrdersPerSecond int
}

// WithLogger returns an option that sets the logger.
// The config log level is applied on top of it.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithClock returns an option that sets the timestamp source of signed requests.
func WithClock(c Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// WithRateLimit returns an option that enables the request-weight and order budgets.
// Pass zero to leave either one off. A non-zero weight budget must fit the heaviest
// operation, otherwise New fails.
func WithRateLimit(weightPerMinute, ordersPerSecond int) Option {
	return func(o *Options) {
		o.WeightPerMinute = weightPerMinute
		o.OrdersPerSecond = ordersPerSecond
	}
}

func applyOptions(config *core.Config, opts []Option) *Options {
	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if config.LogLevel != "" {
		if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			options.Logger = options.Logger.Level(level)
		}
	}
	return options
}

func (o *Options) checkRateLimit() error {
	if o.WeightPerMinute < 0 || o.OrdersPerSecond < 0 {
		return &core.ConstructionError{Field: "rate_limit", Reason: "budgets must not be negative"}
	}
	if heaviest := maxOperationWeight(); o.WeightPerMinute > 0 && o.WeightPerMinute < heaviest {
		return &core.ConstructionError{
			Field:  "rate_limit",
			Reason: fmt.Sprintf("weight budget %d is below the heaviest operation weight %d", o.WeightPerMinute, heaviest),
		}
	}
	return nil
}

// New creates a REST client. The config and credential format are validated here and any
// problem is returned as a *core.ConstructionError. When an API key is present it is sent
// as a default header on every request.
func New(config *core.Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, &core.ConstructionError{Field: "config", Reason: "is required"}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(config, opts)
	if err := options.checkRateLimit(); err != nil {
		return nil, err
	}
	logger := options.Logger.With().Str("exchange", "binance").Logger()

	headers := map[string]string{}
	if config.Credentials.HasAPIKey() {
		headers[APIKeyHeader] = config.Credentials.APIKey
	}

	hc, err := httpClient.NewClient(&httpClient.Config{
		BaseURL: strings.TrimSuffix(config.BaseURL, "/"),
		Timeout: config.Timeout,
		Headers: headers,
		Logger:  logger,
	})
	if err != nil {
		return nil, &core.ConstructionError{Field: "transport", Reason: err.Error()}
	}

	limiter := ratelimit.New(
		ratelimit.Limit{Count: options.WeightPerMinute, Period: time.Minute},
		map[string]ratelimit.Limit{bucketOrders: {Count: options.OrdersPerSecond, Period: time.Second}},
	)

	logger.Debug().
		Str("base_url", config.BaseURL).
		Bool("api_key", config.Credentials.HasAPIKey()).
		Bool("secret_key", config.Credentials.HasSecretKey()).
		Msg("binance client created")

	return &Client{
		config:     config,
		httpClient: hc,
		logger:     logger,
		clock:      options.Clock,
		limiter:    limiter,
	}, nil
}

// Close releases the underlying HTTP transport.
func (c *Client) Close() error {
	if c.httpClient != nil {
		return c.httpClient.Close()
	}
	return nil
}

// Usage is a snapshot of client-side rate limiting.
type Usage = ratelimit.MetricsSnapshot

// Usage reports how much request weight the client has spent and how often it had to wait.
func (c *Client) Usage() Usage {
	return c.limiter.Metrics()
}

// HasAPIKey reports whether the client was configured with an API key.
func (c *Client) HasAPIKey() bool {
	return c.config.Credentials.HasAPIKey()
}

func (c *Client) requireAPIKey(op string) error {
	if !c.config.Credentials.HasAPIKey() {
		return &core.AuthError{Op: op, Missing: "API key"}
	}
	return nil
}

func (c *Client) requireSignedAccess(op string) error {
	if err := c.requireAPIKey(op); err != nil {
		return err
	}
	if !c.config.Credentials.HasSecretKey() {
		return &core.AuthError{Op: op, Missing: "secret key"}
	}
	return nil
}

func (c *Client) guard(op operation) error {
	switch op.auth {
	case authAPIKey:
		return c.requireAPIKey(op.name)
	case authSigned:
		return c.requireSignedAccess(op.name)
	default:
		return nil
	}
}

func (c *Client) buildQuery(op operation, params *core.Params) (Query, error) {
	q, err := BuildQuery(op.path, params, c.config.SecretKey(),
		WithRecvWindow(c.config.RecvWindow),
		WithSigningClock(c.clock),
	)
	if err != nil {
		return Query{}, fmt.Errorf("build query: %w", err)
	}
	return q, nil
}
