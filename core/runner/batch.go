package runner

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/brg2/OpenEVT/core/drivecycle"
	"github.com/brg2/OpenEVT/core/logger"
	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/sim"
	"github.com/brg2/OpenEVT/core/telemetry"
)

// maxTraceAlloc caps the upfront trace allocation; longer runs grow it.
const maxTraceAlloc = 1 << 20

// BatchOptions configure a scripted batch run.
type BatchOptions struct {
	DtS  float64
	Sink telemetry.Sink // optional, receives every snapshot
	Log  logger.Logger
}

// BatchResult bundles what a scripted run produced.
type BatchResult struct {
	Final   model.State
	Trace   []telemetry.Snapshot
	Summary telemetry.Summary
}

// RunCycle steps an entire drive cycle synchronously, as fast as the host
// allows, and returns the trace and its summary. The trace includes the
// seeded state as sequence zero. Sink errors are logged and never fatal.
func RunCycle(cfg model.Config, cycle drivecycle.Cycle, opts BatchOptions) (BatchResult, error) {
	if err := cycle.Validate(); err != nil {
		return BatchResult{}, fmt.Errorf("invalid drive cycle: %w", err)
	}
	cfg = cfg.Normalized()
	dt := sim.ClampDt(opts.DtS)
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}

	runID := uuid.NewString()
	steps := int(math.Ceil(cycle.Duration() / dt))
	capHint := steps + 1
	if capHint > maxTraceAlloc {
		capHint = maxTraceAlloc
	}
	trace := make([]telemetry.Snapshot, 0, capHint)

	st := sim.NewState(cfg)
	record := func(seq uint64, st model.State) {
		sn := telemetry.Snapshot{RunID: runID, Seq: seq, Wall: time.Now(), State: st}
		trace = append(trace, sn)
		if opts.Sink != nil {
			if err := opts.Sink.RecordSnapshot(sn); err != nil {
				log.Errorf("record snapshot: %v", err)
			}
		}
	}
	record(0, st)

	// The +2 margin absorbs float drift in the accumulated simulation
	// clock near the cycle boundary.
	var seq uint64
	for i := 0; i < steps+2 && !cycle.Done(st.TimeS); i++ {
		in := cycle.At(st.TimeS)
		st = sim.Step(st, in, cfg, dt)
		seq++
		record(seq, st)
	}

	sum := telemetry.Summarize(trace)
	if rec, ok := opts.Sink.(telemetry.SummaryRecorder); ok {
		if err := rec.RecordSummary(sum); err != nil {
			log.Errorf("record summary: %v", err)
		}
	}
	log.Infof("run %s: %d ticks, %.2f km in %.1fs simulated", runID, sum.Ticks, sum.DistanceKm, sum.DurationS)
	return BatchResult{Final: st, Trace: trace, Summary: sum}, nil
}
