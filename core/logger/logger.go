// Package logger declares the logging contract the rest of the module
// depends on. Core packages log through this interface only; the zerolog
// adapter in infra/logger provides the real implementation.
package logger

// Logger exposes leveled logging for the runner and its adapters.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StructuredLogger is the optional structured-field capability, implemented
// by the zerolog adapter.
type StructuredLogger interface {
	Debugw(msg string, fields map[string]any)
}
