package engine

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/brg2/OpenEVT/core/model"
)

func testSpec() Spec {
	return BuildSpec(model.DefaultConfig().Engine)
}

func TestBuildSpecDerivedBounds(t *testing.T) {
	cfg := model.DefaultConfig().Engine // idle 750, redline 5600, no explicit bounds
	s := BuildSpec(cfg)

	span := cfg.RedlineRPM - cfg.IdleRPM
	wantMin := cfg.IdleRPM + islandRPMMinFrac*span
	wantMax := cfg.IdleRPM + islandRPMMaxFrac*span
	if s.RPM.Min != wantMin || s.RPM.Max != wantMax {
		t.Errorf("rpm bounds = %+v, want [%v, %v]", s.RPM, wantMin, wantMax)
	}
	if s.Torque.Min != 0.15*cfg.MaxTorqueNm || s.Torque.Max != 0.95*cfg.MaxTorqueNm {
		t.Errorf("torque bounds = %+v", s.Torque)
	}
	if s.CenterRPM != cfg.EfficiencyRPM {
		t.Errorf("center rpm = %v, want %v", s.CenterRPM, cfg.EfficiencyRPM)
	}
	// 34% thermal efficiency on gasoline lands around 245 g/kWh.
	if s.FloorGPerKwh < 200 || s.FloorGPerKwh > 300 {
		t.Errorf("floor = %v g/kWh, outside plausible gasoline range", s.FloorGPerKwh)
	}
	if s.CeilGPerKwh != ceilRatio*s.FloorGPerKwh {
		t.Errorf("ceiling = %v, want %v", s.CeilGPerKwh, ceilRatio*s.FloorGPerKwh)
	}
}

func TestBuildSpecExplicitBoundsWin(t *testing.T) {
	cfg := model.DefaultConfig().Engine
	cfg.IslandRPMMin = 1500
	cfg.IslandRPMMax = 3500
	cfg.IslandTorqueMinNm = 60
	cfg.IslandTorqueMaxNm = 240
	s := BuildSpec(cfg)
	if s.RPM != (Bounds{1500, 3500}) || s.Torque != (Bounds{60, 240}) {
		t.Errorf("explicit bounds ignored: rpm %+v torque %+v", s.RPM, s.Torque)
	}

	// Inverted explicit bounds fall back to derived ones.
	cfg.IslandRPMMin = 4000
	cfg.IslandRPMMax = 1000
	s = BuildSpec(cfg)
	if s.RPM.Min >= s.RPM.Max {
		t.Errorf("inverted bounds not repaired: %+v", s.RPM)
	}
}

func TestBuildSpecDieselFloorLower(t *testing.T) {
	cfg := model.DefaultConfig().Engine
	cfg.ThermalEff = 0.42
	cfg.Profile = "i4-diesel"
	diesel := BuildSpec(cfg)
	gas := testSpec()
	if diesel.FloorGPerKwh >= gas.FloorGPerKwh {
		t.Errorf("diesel floor %v not below gasoline floor %v", diesel.FloorGPerKwh, gas.FloorGPerKwh)
	}
	if diesel.Profile.EnergyKwhPerGal <= gas.Profile.EnergyKwhPerGal {
		t.Error("diesel energy density should exceed gasoline")
	}
}

func TestValueCenterIsLocalMinimum(t *testing.T) {
	s := testSpec()
	center := s.Value(s.CenterRPM, s.CenterTorqueNm)
	for _, d := range []struct{ drpm, dt float64 }{
		{300, 0}, {-300, 0}, {0, 30}, {0, -30}, {200, 20}, {-200, -20},
	} {
		v := s.Value(s.CenterRPM+d.drpm, s.CenterTorqueNm+d.dt)
		if v < center {
			t.Errorf("Value at offset (%v, %v) = %v below center %v", d.drpm, d.dt, v, center)
		}
	}
}

func TestValueClampedToFloorCeiling(t *testing.T) {
	s := testSpec()
	pts := [][2]float64{
		{s.RPM.Min, s.Torque.Min}, {s.RPM.Max, s.Torque.Max},
		{0, 0}, {20000, 1000}, {s.CenterRPM, 0}, {s.CenterRPM, 5 * s.TorqueCeilNm},
	}
	for _, p := range pts {
		v := s.Value(p[0], p[1])
		if v < s.FloorGPerKwh-1e-9 || v > s.CeilGPerKwh+1e-9 {
			t.Errorf("Value(%v, %v) = %v outside [floor, ceiling]", p[0], p[1], v)
		}
	}
}

func TestValueLowLoadPenalty(t *testing.T) {
	s := testSpec()
	atCenter := s.Value(s.CenterRPM, s.CenterTorqueNm)
	atLowLoad := s.Value(s.CenterRPM, 0.10*s.TorqueCeilNm)
	if atLowLoad <= atCenter {
		t.Errorf("low-load BSFC %v not above center %v", atLowLoad, atCenter)
	}
	atHighLoad := s.Value(s.CenterRPM, 0.99*s.TorqueCeilNm)
	if atHighLoad <= atCenter {
		t.Errorf("high-load BSFC %v not above center %v", atHighLoad, atCenter)
	}
}

func TestBestPointForPowerFindsSampledMinimum(t *testing.T) {
	s := testSpec()
	const samples = 48
	const mechKw = 30.0

	got := s.BestPointForPower(mechKw, s.RPM, s.Torque, samples)
	if !got.Feasible {
		t.Fatal("expected a feasible point for a moderate power request")
	}

	// Re-run the same grid by hand: the returned point must be at least as
	// good as every feasible candidate.
	rpms := make([]float64, samples)
	floats.Span(rpms, s.RPM.Min, s.RPM.Max)
	for _, rpm := range rpms {
		torque := mechKw * KwPerRPMNm / rpm
		if torque < s.Torque.Min || torque > s.Torque.Max {
			continue
		}
		if v := s.Value(rpm, torque); v < got.BSFC-1e-12 {
			t.Errorf("grid point (%v rpm, %v Nm) has BSFC %v below returned %v", rpm, torque, v, got.BSFC)
		}
	}

	// The implied power matches the request.
	if math.Abs(got.PowerKw-mechKw) > 1e-9 {
		t.Errorf("implied power %v, want %v", got.PowerKw, mechKw)
	}
	if got.RPM < s.RPM.Min || got.RPM > s.RPM.Max {
		t.Errorf("returned rpm %v outside bounds", got.RPM)
	}
}

func TestBestPointForPowerInfeasible(t *testing.T) {
	s := testSpec()
	// Far more power than any in-bounds torque can carry.
	if got := s.BestPointForPower(500, s.RPM, s.Torque, 48); got.Feasible {
		t.Errorf("expected infeasible for 500 kW, got %+v", got)
	}
	// Near-zero power implies torque below the lower bound everywhere.
	if got := s.BestPointForPower(0.1, s.RPM, s.Torque, 48); got.Feasible {
		t.Errorf("expected infeasible for 0.1 kW, got %+v", got)
	}
}

func TestBestRPMForTorque(t *testing.T) {
	s := testSpec()
	const samples = 48
	got := s.BestRPMForTorque(s.CenterTorqueNm, s.RPM, samples)
	if !got.Feasible {
		t.Fatal("expected feasible result")
	}

	rpms := make([]float64, samples)
	floats.Span(rpms, s.RPM.Min, s.RPM.Max)
	for _, rpm := range rpms {
		if v := s.Value(rpm, s.CenterTorqueNm); v < got.BSFC-1e-12 {
			t.Errorf("rpm %v has BSFC %v below returned %v", rpm, v, got.BSFC)
		}
	}

	if got := s.BestRPMForTorque(0, s.RPM, samples); got.Feasible {
		t.Error("zero torque should be infeasible")
	}
}

func TestProfileFallback(t *testing.T) {
	if p := ProfileFor("no-such-engine"); p.Name != "gasoline" {
		t.Errorf("unknown profile = %+v, want gasoline default", p)
	}
	if p := ProfileFor(""); p.Fuel != "gasoline" {
		t.Errorf("empty profile = %+v", p)
	}
	if len(ProfileNames()) == 0 {
		t.Error("no registered profiles")
	}
}
