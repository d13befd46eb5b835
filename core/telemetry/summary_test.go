package telemetry

import (
	"math"
	"testing"

	"github.com/brg2/OpenEVT/core/model"
)

func snapAt(t, v, d, soc, fuel float64, mode model.EngineMode) Snapshot {
	return Snapshot{
		RunID: "run-1",
		State: model.State{
			TimeS:     t,
			SpeedMps:  v,
			DistanceM: d,
			SoC:       soc,
			Mode:      mode,
			Energy:    model.EnergyTotals{FuelGal: fuel, GenKwh: fuel * 10},
		},
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Fatalf("empty trace summarized to %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	snaps := []Snapshot{
		snapAt(1, 10, 0, 0.60, 0.00, model.ModeIdle),
		snapAt(2, 20, 15, 0.59, 0.01, model.ModeIsland),
		snapAt(3, 15, 30, 0.58, 0.02, model.ModeIsland),
		snapAt(4, 5, 45, 0.60, 0.03, model.ModeIdle),
	}
	sum := Summarize(snaps)

	approx := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}

	if sum.RunID != "run-1" || sum.Ticks != 4 {
		t.Fatalf("identity: %+v", sum)
	}
	approx("DurationS", sum.DurationS, 3)
	approx("DistanceKm", sum.DistanceKm, 0.045)
	approx("AvgSpeedKph", sum.AvgSpeedKph, 0.045/3*3600)
	approx("MaxSpeedMps", sum.MaxSpeedMps, 20)
	approx("SoCStart", sum.SoCStart, 0.60)
	approx("SoCEnd", sum.SoCEnd, 0.60)
	approx("FuelGal", sum.FuelGal, 0.03)
	approx("GenKwh", sum.GenKwh, 0.3)
	approx("MPG", sum.MPG, 0.045*miPerKm/0.03)
	approx("LPer100Km", sum.LPer100Km, 0.03*lPerGal/0.045*100)
	approx("EngineOnS", sum.EngineOnS, 2)
	if sum.EngineStarts != 1 {
		t.Errorf("EngineStarts = %d, want 1", sum.EngineStarts)
	}
}

func TestSummarizeNoFuelNoDistance(t *testing.T) {
	snaps := []Snapshot{
		snapAt(0, 0, 0, 0.5, 0, model.ModeIdle),
		snapAt(1, 0, 0, 0.5, 0, model.ModeIdle),
	}
	sum := Summarize(snaps)
	if sum.MPG != 0 || sum.LPer100Km != 0 || sum.AvgSpeedKph != 0 {
		t.Fatalf("division guards failed: %+v", sum)
	}
}
