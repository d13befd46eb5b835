package logger

import corelogger "github.com/brg2/OpenEVT/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. The output format is
// detected via the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// NewWithLevel returns a Logger for the component filtered at the given
// level name. Unknown names fall back to info.
func NewWithLevel(component, level string) Logger {
	return NewZerologLoggerWithLevel(component, level)
}
