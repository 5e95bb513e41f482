package core

import "fmt"

// KeyLength is the exact length of both the API key and the secret key.
const KeyLength = 64

// Credentials holds API authentication credentials.
// An empty field is treated as absent.
type Credentials struct {
	// APIKey is the public API key identifier, sent as the X-MBX-APIKEY header.
	APIKey string `json:"api_key"`
	// SecretKey is the private key used for signing requests.
	SecretKey string `json:"secret_key"`
}

// NewCredentials validates and returns a Credentials value.
func NewCredentials(apiKey, secretKey string) (*Credentials, error) {
	creds := &Credentials{APIKey: apiKey, SecretKey: secretKey}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// Validate reports a *ConstructionError when a present key is not exactly KeyLength characters.
func (c *Credentials) Validate() error {
	if err := checkKey("api_key", c.APIKey); err != nil {
		return err
	}
	return checkKey("secret_key", c.SecretKey)
}

// HasAPIKey reports whether an API key is present.
func (c *Credentials) HasAPIKey() bool {
	return c != nil && c.APIKey != ""
}

// HasSecretKey reports whether a secret key is present.
func (c *Credentials) HasSecretKey() bool {
	return c != nil && c.SecretKey != ""
}

func (c *Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey:%s, SecretKey:%s}", maskKey(c.APIKey), maskKey(c.SecretKey))
}

func checkKey(field, key string) error {
	if key == "" {
		return nil
	}
	if len(key) != KeyLength {
		return &ConstructionError{
			Field:  field,
			Reason: fmt.Sprintf("bad key format %s: want %d characters, got %d", maskKey(key), KeyLength, len(key)),
		}
	}
	return nil
}

func maskKey(key string) string {
	if key == "" {
		return "<none>"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
