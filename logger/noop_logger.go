package logger

// NoOpLogger is a Logger implementation that silently discards all log
// messages. It is useful for testing, benchmarking, or disabling logging
// entirely. Each method can be optionally overridden for testing purposes.
type NoOpLogger struct {
	DebugwFunc func(string, ...any)
	InfowFunc  func(string, ...any)
	WarnwFunc  func(string, ...any)
	ErrorwFunc func(string, ...any)
	FatalwFunc func(string, ...any)
}

func (l *NoOpLogger) Debugw(msg string, kvs ...any) {
	if l.DebugwFunc != nil {
		l.DebugwFunc(msg, kvs...)
	}
}

func (l *NoOpLogger) Infow(msg string, kvs ...any) {
	if l.InfowFunc != nil {
		l.InfowFunc(msg, kvs...)
	}
}

func (l *NoOpLogger) Warnw(msg string, kvs ...any) {
	if l.WarnwFunc != nil {
		l.WarnwFunc(msg, kvs...)
	}
}

func (l *NoOpLogger) Errorw(msg string, kvs ...any) {
	if l.ErrorwFunc != nil {
		l.ErrorwFunc(msg, kvs...)
	}
}

func (l *NoOpLogger) Fatalw(msg string, kvs ...any) {
	if l.FatalwFunc != nil {
		l.FatalwFunc(msg, kvs...)
	}
}

func (l *NoOpLogger) With(kvs ...any) Logger             { return l }
func (l *NoOpLogger) WithComponent(name string) Logger   { return l }
func (l *NoOpLogger) WithKey(key string) Logger          { return l }
func (l *NoOpLogger) WithConn(connID string) Logger      { return l }

// NewNoOpLogger returns a Logger that discards all log messages. Can be
// type-asserted to *NoOpLogger for injecting test behavior.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}
