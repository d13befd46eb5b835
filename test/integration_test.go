package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brg2/OpenEVT/core/drivecycle"
	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/runner"
	"github.com/brg2/OpenEVT/core/telemetry"
	"github.com/brg2/OpenEVT/infra/metrics"
	"github.com/brg2/OpenEVT/internal/eventbus"
)

// memSink records everything it receives, safe for concurrent use.
type memSink struct {
	mu    sync.Mutex
	snaps []telemetry.Snapshot
	sums  []telemetry.Summary
}

func (m *memSink) RecordSnapshot(sn telemetry.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, sn)
	return nil
}

func (m *memSink) RecordSummary(sum telemetry.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sums = append(m.sums, sum)
	return nil
}

func (m *memSink) all() []telemetry.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]telemetry.Snapshot, len(m.snaps))
	copy(out, m.snaps)
	return out
}

func (m *memSink) last() (telemetry.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snaps) == 0 {
		return telemetry.Snapshot{}, false
	}
	return m.snaps[len(m.snaps)-1], true
}

func (m *memSink) summaries() []telemetry.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]telemetry.Summary, len(m.sums))
	copy(out, m.sums)
	return out
}

// TestRunnerStreamsToSinkThroughBus drives a live runner at full pedal and
// checks that snapshots flow runner -> bus -> collector -> sink in order.
func TestRunnerStreamsToSinkThroughBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := eventbus.New[telemetry.Snapshot]()
	defer bus.Close()
	sink := &memSink{}
	metrics.StartCollector(ctx, bus, sink)

	r := runner.New(model.DefaultConfig(), runner.Options{DtS: 0.02, Speed: 16, Bus: bus})
	go r.Run(ctx)

	r.SetInputs(model.Inputs{Accelerator: 1})
	r.Play()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if sn, ok := sink.last(); ok && sn.State.SpeedMps > 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	r.Pause()

	snaps := sink.all()
	if len(snaps) == 0 {
		t.Fatal("no snapshots reached the sink")
	}
	last := snaps[len(snaps)-1]
	if last.State.SpeedMps <= 1 {
		t.Fatalf("vehicle never moved, last speed %.3f m/s after %d snapshots", last.State.SpeedMps, len(snaps))
	}
	wantID := r.RunID()
	for i, sn := range snaps {
		if sn.RunID != wantID {
			t.Fatalf("snapshot %d has run ID %q, want %q", i, sn.RunID, wantID)
		}
		if i > 0 && sn.Seq <= snaps[i-1].Seq {
			t.Fatalf("sequence not increasing at %d: %d after %d", i, sn.Seq, snaps[i-1].Seq)
		}
	}
}

// TestBatchRunExportsPromGauges runs a scripted pulse into a Prometheus sink
// and checks the gauges on a private registry afterwards.
func TestBatchRunExportsPromGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new prom sink: %v", err)
	}

	cycle := drivecycle.Cycle{Name: "gauge-pulse", Samples: []drivecycle.Sample{
		{TimeS: 0, Accelerator: 0.6},
		{TimeS: 20, Accelerator: 0.6},
		{TimeS: 25, Accelerator: 0},
	}}
	res, err := runner.RunCycle(model.DefaultConfig(), cycle, runner.BatchOptions{DtS: 0.1, Sink: sink})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if res.Final.TimeS < 24 {
		t.Fatalf("cycle stopped early at t=%.1fs", res.Final.TimeS)
	}

	fams, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	foundSpeed := false
	for _, mf := range fams {
		switch mf.GetName() {
		case "evt_speed_mps":
			foundSpeed = true
			ms := mf.GetMetric()
			if len(ms) != 1 {
				t.Fatalf("evt_speed_mps has %d series, want 1", len(ms))
			}
			gotID := ""
			for _, lp := range ms[0].GetLabel() {
				if lp.GetName() == "run_id" {
					gotID = lp.GetValue()
				}
			}
			if gotID != res.Summary.RunID {
				t.Errorf("run_id label = %q, want %q", gotID, res.Summary.RunID)
			}
		case "evt_fuel_total_gal":
			ms := mf.GetMetric()
			if len(ms) != 1 {
				t.Fatalf("evt_fuel_total_gal has %d series, want 1", len(ms))
			}
			if v := ms[0].GetGauge().GetValue(); v <= 0 {
				t.Errorf("fuel gauge = %v, want > 0 after a 25s pulse", v)
			}
		}
	}
	if !foundSpeed {
		t.Error("evt_speed_mps not exported")
	}
}

// TestBatchRunDeliversSummaryToSink checks the optional summary hook fires
// exactly once per scripted run.
func TestBatchRunDeliversSummaryToSink(t *testing.T) {
	sink := &memSink{}
	cycle := drivecycle.Cycle{Name: "short", Samples: []drivecycle.Sample{
		{TimeS: 0, Accelerator: 0.4},
		{TimeS: 5, Accelerator: 0.4},
	}}
	res, err := runner.RunCycle(model.DefaultConfig(), cycle, runner.BatchOptions{DtS: 0.1, Sink: sink})
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if got := len(sink.all()); got != len(res.Trace) {
		t.Errorf("sink saw %d snapshots, trace has %d", got, len(res.Trace))
	}
	sums := sink.summaries()
	if len(sums) != 1 {
		t.Fatalf("sink saw %d summaries, want 1", len(sums))
	}
	if sums[0].RunID != res.Summary.RunID {
		t.Errorf("summary run ID %q, want %q", sums[0].RunID, res.Summary.RunID)
	}
	if sums[0].Ticks != res.Summary.Ticks {
		t.Errorf("summary ticks %d, want %d", sums[0].Ticks, res.Summary.Ticks)
	}
}
