package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "https://api.binance.com/api", config.BaseURL)
	assert.Equal(t, "wss://stream.binance.com:9443/ws/", config.StreamURL)
	assert.Equal(t, 10*time.Second, config.Timeout)
	assert.Zero(t, config.RecvWindow)
	assert.Nil(t, config.Credentials)
	assert.Equal(t, "info", config.LogLevel)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid_config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "missing_base_url",
			config:  DefaultConfig().WithBaseURL(""),
			wantErr: true,
			errMsg:  "BaseURL",
		},
		{
			name:    "invalid_stream_url",
			config:  DefaultConfig().WithStreamURL("not a url"),
			wantErr: true,
			errMsg:  "StreamURL",
		},
		{
			name:    "invalid_timeout",
			config:  DefaultConfig().WithTimeout(-1 * time.Second),
			wantErr: true,
			errMsg:  "Timeout",
		},
		{
			name:    "negative_recv_window",
			config:  DefaultConfig().WithRecvWindow(-time.Second),
			wantErr: true,
			errMsg:  "RecvWindow",
		},
		{
			name: "invalid_log_level",
			config: func() *Config {
				c := DefaultConfig()
				c.LogLevel = "verbose"
				return c
			}(),
			wantErr: true,
			errMsg:  "LogLevel",
		},
		{
			name:    "short_api_key",
			config:  DefaultConfig().WithCredentials(&Credentials{APIKey: "short"}),
			wantErr: true,
			errMsg:  "api_key",
		},
		{
			name:    "long_secret_key",
			config:  DefaultConfig().WithCredentials(&Credentials{APIKey: strings.Repeat("a", 64), SecretKey: strings.Repeat("b", 65)}),
			wantErr: true,
			errMsg:  "secret_key",
		},
		{
			name:    "api_key_only",
			config:  DefaultConfig().WithCredentials(&Credentials{APIKey: strings.Repeat("a", 64)}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConstruction))
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Chaining(t *testing.T) {
	creds := &Credentials{APIKey: strings.Repeat("k", 64), SecretKey: strings.Repeat("s", 64)}

	config := DefaultConfig().
		WithCredentials(creds).
		WithBaseURL("http://localhost:8080/api").
		WithStreamURL("ws://localhost:8081/ws/").
		WithTimeout(30 * time.Second).
		WithRecvWindow(5 * time.Second)

	assert.Equal(t, creds, config.Credentials)
	assert.Equal(t, "http://localhost:8080/api", config.BaseURL)
	assert.Equal(t, "ws://localhost:8081/ws/", config.StreamURL)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, 5*time.Second, config.RecvWindow)
	assert.Equal(t, creds.APIKey, config.APIKey())
	assert.Equal(t, creds.SecretKey, config.SecretKey())
}

func TestConfig_KeysWithoutCredentials(t *testing.T) {
	config := DefaultConfig()

	assert.Empty(t, config.APIKey())
	assert.Empty(t, config.SecretKey())
}
