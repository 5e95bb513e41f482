package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultBaseURL is the versioned REST root; operation paths such as "v3/order" are appended to it.
	DefaultBaseURL = "https://api.binance.com/api"
	// DefaultStreamURL is the raw stream endpoint; topic paths are appended verbatim.
	DefaultStreamURL = "wss://stream.binance.com:9443/ws/"
)

// Config contains all configuration options for the REST and WebSocket clients.
type Config struct {
	Credentials *Credentials `json:"credentials,omitempty"`

	// BaseURL is the REST root without a trailing slash.
	BaseURL string `json:"base_url" validate:"required,url"`
	// StreamURL is the WebSocket root, including the trailing slash.
	StreamURL string `json:"stream_url" validate:"required,url"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`
	// RecvWindow is sent as recvWindow on signed requests when non-zero.
	RecvWindow time.Duration `json:"recv_window" validate:"min=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config pointing at the production endpoints with a 10s timeout,
// no credentials and no recvWindow.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		StreamURL: DefaultStreamURL,
		Timeout:   10 * time.Second,
		LogLevel:  "info",
	}
}

var validate = validator.New()

// Validate checks the struct constraints and the credential format.
// Every failure is reported as a *ConstructionError.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ConstructionError{Field: "config", Reason: err.Error()}
	}
	if c.Credentials != nil {
		if err := c.Credentials.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURL sets the REST root and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithStreamURL sets the WebSocket root and returns the config for chaining.
func (c *Config) WithStreamURL(url string) *Config {
	c.StreamURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRecvWindow sets the recvWindow appended to signed requests and returns the config for chaining.
func (c *Config) WithRecvWindow(window time.Duration) *Config {
	c.RecvWindow = window
	return c
}

// APIKey returns the configured API key or "" when absent.
func (c *Config) APIKey() string {
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials.APIKey
}

// SecretKey returns the configured secret key or "" when absent.
func (c *Config) SecretKey() string {
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials.SecretKey
}
