package telemetry

import "io"

// MultiSink fans snapshots out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink over the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSnapshot forwards the snapshot to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSnapshot(sn Snapshot) error {
	for _, s := range m.Sinks {
		if err := s.RecordSnapshot(sn); err != nil {
			return err
		}
	}
	return nil
}

// RecordSummary forwards the summary to the sinks that support it.
func (m *MultiSink) RecordSummary(sum Summary) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SummaryRecorder); ok {
			if err := rec.RecordSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every closable sink, keeping the first error but closing the
// rest regardless.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
