// Package telemetry defines the snapshot stream a simulation run emits and
// the sink interfaces observability adapters implement. The runner publishes
// one Snapshot per simulated tick; sinks forward them to Prometheus, Influx,
// MQTT or files. Sinks must tolerate being called at tick rate.
package telemetry

import (
	"time"

	"github.com/brg2/OpenEVT/core/model"
)

// Snapshot is one published tick of a run.
type Snapshot struct {
	RunID string      `json:"run_id"`
	Seq   uint64      `json:"seq"`
	Wall  time.Time   `json:"wall"`
	State model.State `json:"state"`
}

// Sink records snapshots for observability purposes.
type Sink interface {
	RecordSnapshot(sn Snapshot) error
}

// SummaryRecorder is implemented by sinks able to record end-of-run
// summaries in addition to the tick stream.
type SummaryRecorder interface {
	RecordSummary(sum Summary) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordSnapshot(Snapshot) error { return nil }
func (NopSink) RecordSummary(Summary) error   { return nil }
