package client

import "errors"

// Common client errors.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client: closed")

	// ErrPoolExhausted is returned when the connection pool has no idle
	// connection to hand out. Per spec §4.3, acquire fails fast rather than
	// blocking beyond the transport's own connect time.
	ErrPoolExhausted = errors.New("client: connection pool exhausted")

	// ErrNoAddress is returned by Config.Validate when no server host is set.
	ErrNoAddress = errors.New("client: no server address configured")

	// ErrEmptyKey is returned locally, without a round trip, for an empty key.
	ErrEmptyKey = errors.New("client: key must not be empty")
)

// ConfigError reports an invalid client configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "client config error: " + e.Field + ": " + e.Message
}

// NewConfigError constructs a ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}
