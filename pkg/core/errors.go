package core

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the four failure classes. The concrete error types below match them with errors.Is.
// Construction, validation and auth failures are returned before any network I/O; network failures
// mean the request was attempted.
var (
	// ErrConstruction is matched by a *ConstructionError.
	ErrConstruction = errors.New("invalid client configuration")
	// ErrValidation is matched by a *ValidationError.
	ErrValidation = errors.New("invalid parameter")
	// ErrAuth is matched by an *AuthError.
	ErrAuth = errors.New("missing credentials")
	// ErrNetwork is matched by a *NetworkError.
	ErrNetwork = errors.New("request failed")
)

// ConstructionError reports a bad configuration or credential format at client creation.
type ConstructionError struct {
	Field  string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construction: %s: %s", e.Field, e.Reason)
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

// ValidationError reports a missing, mistyped or out-of-domain parameter.
type ValidationError struct {
	// Param is the offending parameter name.
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Param, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AuthError reports an operation that needs an API key and/or secret that was not configured.
type AuthError struct {
	Op      string
	Missing string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s is required for %s", e.Missing, e.Op)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// NetworkError reports a transport failure or a non-2xx response.
// Err is an *APIError when the server answered with a structured body.
type NetworkError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s %s (%d): %v", e.Op, e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize exchange error codes.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid or expired credentials or signature.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the order or listen key does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates account lacks required balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
	}[t]
}

// APIError is the structured {code, msg} body returned by the exchange on failure.
type APIError struct {
	Type       ErrorType `json:"-"`
	StatusCode int       `json:"-"`
	Code       int       `json:"code"`
	Message    string    `json:"msg"`
	Timestamp  time.Time `json:"-"`
}

// Error returns the exchange code and message.
func (e *APIError) Error() string {
	return fmt.Sprintf("binance %s (%d/%d): %s", e.Type, e.StatusCode, e.Code, e.Message)
}

// NewAPIError creates an APIError classified from its exchange code.
// The timestamp is automatically set to the current time.
func NewAPIError(statusCode, code int, message string) *APIError {
	return &APIError{
		Type:       ClassifyCode(code),
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// ClassifyCode maps an exchange error code to an ErrorType.
func ClassifyCode(code int) ErrorType {
	switch code {
	case -1003, -1015:
		return ErrorTypeRateLimit
	case -1002, -1021, -1022, -2014, -2015:
		return ErrorTypeAuthentication
	case -2010:
		return ErrorTypeInsufficientFunds
	case -2011, -2013:
		return ErrorTypeNotFound
	case -1000, -1001, -1006, -1007:
		return ErrorTypeServerError
	default:
		if code <= -1100 && code > -1200 {
			return ErrorTypeBadRequest
		}
		if code <= -2000 && code > -3000 {
			return ErrorTypeInvalidOrder
		}
		return ErrorTypeUnknown
	}
}

// AsAPIError extracts the structured exchange error from err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRateLimitError returns true if the error carries a rate limit exchange code.
func IsRateLimitError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Type == ErrorTypeRateLimit
}

// IsAuthenticationError returns true if the error carries an authentication exchange code.
func IsAuthenticationError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Type == ErrorTypeAuthentication
}

// IsNotFoundError returns true if the exchange reported an unknown order or listen key.
func IsNotFoundError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Type == ErrorTypeNotFound
}

// IsTerminalError returns true if the error indicates a condition that will not succeed on resubmission.
func IsTerminalError(err error) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	return apiErr.Type == ErrorTypeInsufficientFunds ||
		apiErr.Type == ErrorTypeInvalidOrder ||
		apiErr.Type == ErrorTypeNotFound
}

// Attempted reports whether err came back from a request that reached the network layer.
// Construction, validation and auth errors return false.
func Attempted(err error) bool {
	return errors.Is(err, ErrNetwork)
}
