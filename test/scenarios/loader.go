// Package scenarios runs data-driven acceptance checks. Each YAML file in
// this directory scripts a drive as constant pedal/grade phases, overrides a
// few powertrain parameters and bounds the statistics the run's summary must
// land in. The bounds are loose: they catch sign errors, unit slips and
// broken mode logic, not small tuning drift.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brg2/OpenEVT/core/drivecycle"
	"github.com/brg2/OpenEVT/core/model"
)

// PhaseDef holds the pedal and grade steady for a stretch of time.
type PhaseDef struct {
	DurationS   float64 `yaml:"duration_s"`
	Accelerator float64 `yaml:"accelerator"`
	GradePct    float64 `yaml:"grade_pct"`
}

// PowertrainDef overrides selected config fields. Zero values keep the
// defaults.
type PowertrainDef struct {
	ControlMode string  `yaml:"control_mode"`
	MassKg      float64 `yaml:"mass_kg"`
	MotorPeakKw float64 `yaml:"motor_peak_kw"`
	CapacityKwh float64 `yaml:"capacity_kwh"`
	SoCInitial  float64 `yaml:"soc_initial"`
	SoCTarget   float64 `yaml:"soc_target"`
}

// Apply layers the overrides onto cfg.
func (p PowertrainDef) Apply(cfg model.Config) model.Config {
	if p.ControlMode != "" {
		cfg.ControlMode = model.ControlMode(p.ControlMode)
	}
	if p.MassKg > 0 {
		cfg.Vehicle.MassKg = p.MassKg
	}
	if p.MotorPeakKw > 0 {
		cfg.Vehicle.MotorPeakKw = p.MotorPeakKw
	}
	if p.CapacityKwh > 0 {
		cfg.Battery.CapacityKwh = p.CapacityKwh
	}
	if p.SoCInitial > 0 {
		cfg.Battery.SoCInitial = p.SoCInitial
	}
	if p.SoCTarget > 0 {
		cfg.Battery.SoCTarget = p.SoCTarget
	}
	return cfg
}

// Bounds is an inclusive numeric range.
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies within the range.
func (b Bounds) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

// Expected bounds the summary statistics. Nil fields are not checked.
type Expected struct {
	DistanceKm   *Bounds `yaml:"distance_km"`
	MaxSpeedMps  *Bounds `yaml:"max_speed_mps"`
	SoCEnd       *Bounds `yaml:"soc_end"`
	FuelGal      *Bounds `yaml:"fuel_gal"`
	EngineOnS    *Bounds `yaml:"engine_on_s"`
	EngineStarts *Bounds `yaml:"engine_starts"`
}

// Scenario is one YAML-defined acceptance run.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	DtS         float64       `yaml:"dt_s"`
	Powertrain  PowertrainDef `yaml:"powertrain"`
	Phases      []PhaseDef    `yaml:"phases"`
	Expected    Expected      `yaml:"expected"`
}

// Load reads and validates one scenario file.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(sc.Phases) == 0 {
		return Scenario{}, fmt.Errorf("%s: scenario %q has no phases", path, sc.Name)
	}
	return sc, nil
}

// Cycle converts the phases into a step-hold drive cycle. Each phase emits a
// sample at its start and end, so interpolation holds the level flat inside a
// phase and jumps at the boundary.
func (s Scenario) Cycle() drivecycle.Cycle {
	samples := make([]drivecycle.Sample, 0, 2*len(s.Phases))
	t := 0.0
	for _, ph := range s.Phases {
		samples = append(samples,
			drivecycle.Sample{TimeS: t, Accelerator: ph.Accelerator, GradePct: ph.GradePct},
			drivecycle.Sample{TimeS: t + ph.DurationS, Accelerator: ph.Accelerator, GradePct: ph.GradePct},
		)
		t += ph.DurationS
	}
	return drivecycle.Cycle{Name: s.Name, Samples: samples}
}
