package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/telemetry"
)

func TestPromSinkRecordSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	st := model.State{
		SpeedMps:    12.5,
		EngineRPM:   2400,
		Mode:        model.ModeIsland,
		SoC:         0.55,
		BusVolts:    352,
		GenKw:       40,
		BattKw:      -5,
		TracElecKw:  35,
		FuelRateGph: 1.25,
	}
	st.Energy = model.EnergyTotals{TracOutKwh: 2, GenKwh: 1.5, BattOutKwh: 0.5, BattInKwh: 1, FuelGal: 0.25}
	st.LimitTimes = model.LimitTimes{TracPowerS: 3}
	if err := sink.RecordSnapshot(telemetry.Snapshot{RunID: "r1", Seq: 1, State: st}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP evt_speed_mps Vehicle speed in meters per second
# TYPE evt_speed_mps gauge
evt_speed_mps{run_id="r1"} 12.5
`
	if err := testutil.CollectAndCompare(sink.speed, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected speed metric: %v", err)
	}

	expectedRunning := `
# HELP evt_engine_running 1 while the engine runs under generator load
# TYPE evt_engine_running gauge
evt_engine_running{run_id="r1"} 1
`
	if err := testutil.CollectAndCompare(sink.engineOn, strings.NewReader(expectedRunning)); err != nil {
		t.Errorf("unexpected engine metric: %v", err)
	}

	if c := testutil.CollectAndCount(sink.energy); c != 4 {
		t.Errorf("expected 4 energy series, got %d", c)
	}
	if c := testutil.CollectAndCount(sink.limits); c != 5 {
		t.Errorf("expected 5 limit series, got %d", c)
	}
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if second.speed != first.speed {
		t.Fatalf("expected second sink to reuse registered collectors")
	}
}
