// Package logger provides the structured, context-chaining logging
// abstraction used across the lock server, client, and CLI tools.
package logger

// Logger defines an interface for structured, context-aware logging.
//
// All logging methods support structured output by accepting a message and
// a variadic list of key-value pairs. Keys must be strings and must
// alternate with values in the form: key1, val1, key2, val2, ...
type Logger interface {
	// Debugw logs a debug-level message with optional structured context.
	Debugw(msg string, keysAndValues ...any)

	// Infow logs an info-level message with optional structured context.
	Infow(msg string, keysAndValues ...any)

	// Warnw logs a warning-level message with optional structured context.
	Warnw(msg string, keysAndValues ...any)

	// Errorw logs an error-level message with optional structured context.
	Errorw(msg string, keysAndValues ...any)

	// Fatalw logs a fatal-level message with optional structured context and
	// then terminates the application.
	Fatalw(msg string, keysAndValues ...any)

	// With adds arbitrary key-value pairs to the logger's context.
	With(keysAndValues ...any) Logger

	// WithComponent adds a component label (e.g. "dispatcher", "reaper") to
	// categorize log output.
	WithComponent(name string) Logger

	// WithKey adds the lock key under contention to the logger's context.
	WithKey(key string) Logger

	// WithConn adds a connection identifier to the logger's context.
	WithConn(connID string) Logger
}
