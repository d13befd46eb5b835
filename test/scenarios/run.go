package scenarios

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/runner"
	"github.com/brg2/OpenEVT/infra/metrics"
)

// defaultDtS is the timestep scenarios run at unless they say otherwise.
const defaultDtS = 0.1

// RunScenario executes one scenario as a batch run and checks every bound it
// declares against the run summary.
func RunScenario(t *testing.T, sc Scenario) {
	t.Helper()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("scenario %s: prom sink: %v", sc.Name, err)
	}

	cfg := sc.Powertrain.Apply(model.DefaultConfig())
	dt := sc.DtS
	if dt == 0 {
		dt = defaultDtS
	}
	res, err := runner.RunCycle(cfg, sc.Cycle(), runner.BatchOptions{DtS: dt, Sink: sink})
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	sum := res.Summary
	check := func(name string, b *Bounds, v float64) {
		if b == nil {
			return
		}
		if !b.Contains(v) {
			t.Errorf("scenario %s: %s = %.4f outside [%.4f, %.4f]", sc.Name, name, v, b.Min, b.Max)
		}
	}
	check("distance_km", sc.Expected.DistanceKm, sum.DistanceKm)
	check("max_speed_mps", sc.Expected.MaxSpeedMps, sum.MaxSpeedMps)
	check("soc_end", sc.Expected.SoCEnd, sum.SoCEnd)
	check("fuel_gal", sc.Expected.FuelGal, sum.FuelGal)
	check("engine_on_s", sc.Expected.EngineOnS, sum.EngineOnS)
	check("engine_starts", sc.Expected.EngineStarts, float64(sum.EngineStarts))
}
