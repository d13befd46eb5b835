package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/internal/mathx"
)

// KwPerRPMNm converts between power and torque: P[kW] = T[Nm] x rpm / 9549.
const KwPerRPMNm = 9549.0

// Shape constants of the synthetic BSFC surface. Weights scale the floor.
const (
	rpmWeight        = 0.55
	torqueWeight     = 0.75
	lowLoadFrac      = 0.22
	lowLoadWeight    = 2.2
	highLoadFrac     = 0.92
	highLoadWeight   = 1.1
	ceilRatio        = 2.6
	centerTorqueFrac = 0.62
	islandRPMMinFrac = 0.25
	islandRPMMaxFrac = 0.75
)

// Bounds is an inclusive search interval.
type Bounds struct {
	Min, Max float64
}

// Spec is the closed-form description of an engine's BSFC surface: search
// bounds, floor/ceiling consumption and the island center. Build one per
// run with BuildSpec; evaluation and search never mutate it.
type Spec struct {
	RPM            Bounds
	Torque         Bounds
	TorqueCeilNm   float64
	FloorGPerKwh   float64
	CeilGPerKwh    float64
	CenterRPM      float64
	CenterTorqueNm float64
	Profile        Profile
}

// BuildSpec derives the BSFC surface from the engine config. Island bounds
// left at zero (or inverted) are derived from the idle-redline span; the
// floor comes from the thermal efficiency and the profile's heating value,
// so a more efficient engine gets a genuinely lower island.
func BuildSpec(cfg model.EngineConfig) Spec {
	span := math.Max(cfg.RedlineRPM-cfg.IdleRPM, 1)
	rpm := Bounds{
		Min: cfg.IdleRPM + islandRPMMinFrac*span,
		Max: cfg.IdleRPM + islandRPMMaxFrac*span,
	}
	if cfg.IslandRPMMin > 0 && cfg.IslandRPMMax > cfg.IslandRPMMin {
		rpm = Bounds{Min: cfg.IslandRPMMin, Max: cfg.IslandRPMMax}
	}

	ceil := math.Max(cfg.MaxTorqueNm, 1)
	torque := Bounds{Min: 0.15 * ceil, Max: 0.95 * ceil}
	if cfg.IslandTorqueMinNm > 0 && cfg.IslandTorqueMaxNm > cfg.IslandTorqueMinNm {
		torque = Bounds{Min: cfg.IslandTorqueMinNm, Max: cfg.IslandTorqueMaxNm}
	}

	prof := ProfileFor(cfg.Profile)
	eff := mathx.Clamp(mathx.Finite(cfg.ThermalEff, 0.3), 0.05, 0.6)
	floor := 1000 / (eff * prof.LHVKwhPerKg) * prof.FloorScale

	return Spec{
		RPM:            rpm,
		Torque:         torque,
		TorqueCeilNm:   ceil,
		FloorGPerKwh:   floor,
		CeilGPerKwh:    ceilRatio * floor,
		CenterRPM:      mathx.Clamp(cfg.EfficiencyRPM, rpm.Min, rpm.Max),
		CenterTorqueNm: mathx.Clamp(centerTorqueFrac*ceil, torque.Min, torque.Max),
		Profile:        prof,
	}
}

// Value returns the BSFC in g/kWh at an operating point: the floor plus
// squared normalized distance from the island center in RPM and torque, a
// signed RPM bias (diesels tolerate high RPM worse than gasoline engines),
// and sharp low-load and high-load penalties, clamped to [floor, ceiling].
// Smooth and unimodal by construction, so grid search over it is cheap.
func (s Spec) Value(rpm, torqueNm float64) float64 {
	rpmSpan := math.Max(s.RPM.Max-s.RPM.Min, 1)
	torqueSpan := math.Max(s.Torque.Max-s.Torque.Min, 1e-3)
	nr := (rpm - s.CenterRPM) / rpmSpan
	nt := (torqueNm - s.CenterTorqueNm) / torqueSpan

	v := s.FloorGPerKwh * (1 + rpmWeight*nr*nr + torqueWeight*nt*nt + s.Profile.RPMBias*nr)

	if low := lowLoadFrac * s.TorqueCeilNm; torqueNm < low {
		d := (low - torqueNm) / math.Max(low, 1e-9)
		v += s.FloorGPerKwh * lowLoadWeight * d * d
	}
	if high := highLoadFrac * s.TorqueCeilNm; torqueNm > high {
		d := (torqueNm - high) / math.Max(s.TorqueCeilNm-high, 1e-9)
		v += s.FloorGPerKwh * highLoadWeight * d * d
	}

	return mathx.Clamp(v, s.FloorGPerKwh, s.CeilGPerKwh)
}

// OperatingPoint is a BSFC search result. Feasible is false when no sampled
// candidate satisfied the torque bounds; callers substitute a fallback
// point rather than treating that as an error.
type OperatingPoint struct {
	RPM      float64
	TorqueNm float64
	PowerKw  float64
	BSFC     float64
	Feasible bool
}

// BestPointForPower finds the lowest-BSFC operating point delivering
// mechKw. Torque at each candidate RPM is fully determined by the power, so
// this is a 1-D scan: sample RPM uniformly across rpmB, reject candidates
// whose implied torque falls outside torqueB, evaluate the survivors and
// keep the minimum. Brute force on purpose; the surface is unimodal and a
// few dozen samples are well inside the control tolerances.
func (s Spec) BestPointForPower(mechKw float64, rpmB, torqueB Bounds, samples int) OperatingPoint {
	if samples < 2 {
		samples = 2
	}
	rpms := make([]float64, samples)
	floats.Span(rpms, rpmB.Min, rpmB.Max)

	best := OperatingPoint{}
	for _, rpm := range rpms {
		torque := mechKw * KwPerRPMNm / math.Max(rpm, 1)
		if torque < torqueB.Min || torque > torqueB.Max {
			continue
		}
		bsfc := s.Value(rpm, torque)
		if !best.Feasible || bsfc < best.BSFC {
			best = OperatingPoint{
				RPM:      rpm,
				TorqueNm: torque,
				PowerKw:  torque * rpm / KwPerRPMNm,
				BSFC:     bsfc,
				Feasible: true,
			}
		}
	}
	return best
}

// BestRPMForTorque scans RPM for a fixed torque and returns the
// minimum-BSFC point. Infeasible only for a nonpositive torque.
func (s Spec) BestRPMForTorque(torqueNm float64, rpmB Bounds, samples int) OperatingPoint {
	if torqueNm <= 0 {
		return OperatingPoint{}
	}
	if samples < 2 {
		samples = 2
	}
	rpms := make([]float64, samples)
	floats.Span(rpms, rpmB.Min, rpmB.Max)

	best := OperatingPoint{}
	for _, rpm := range rpms {
		bsfc := s.Value(rpm, torqueNm)
		if !best.Feasible || bsfc < best.BSFC {
			best = OperatingPoint{
				RPM:      rpm,
				TorqueNm: torqueNm,
				PowerKw:  torqueNm * rpm / KwPerRPMNm,
				BSFC:     bsfc,
				Feasible: true,
			}
		}
	}
	return best
}
