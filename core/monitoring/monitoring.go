// Package monitoring holds the error-reporting hooks. A process installs a
// concrete monitor (Sentry in infra/monitoring) once at startup; everything
// else reports through the package-level functions and stays decoupled from
// the vendor SDK.
package monitoring

import "time"

// Monitor defines the error reporting methods.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init installs the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// Recover captures panics in goroutines. Use as `defer monitoring.Recover()`.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush drains buffered events before shutdown.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
