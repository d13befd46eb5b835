package model

import "github.com/brg2/OpenEVT/internal/mathx"

// ControlMode selects the powertrain control strategy for a run.
type ControlMode string

const (
	// ControlIsland seeks the engine's efficiency island: the controller
	// picks the lowest-consumption operating point that covers the
	// electrical demand.
	ControlIsland ControlMode = "island"
	// ControlIslandThrottle starts and stops the engine on electrical
	// demand like ControlIsland but maps the pedal directly to the engine
	// command.
	ControlIslandThrottle ControlMode = "island_throttle"
	// ControlDirect gives the driver direct authority: pedal maps to RPM
	// and the engine runs whenever the pedal is pressed.
	ControlDirect ControlMode = "direct"
)

// Valid reports whether m names a known control mode.
func (m ControlMode) Valid() bool {
	switch m {
	case ControlIsland, ControlIslandThrottle, ControlDirect:
		return true
	}
	return false
}

// VehicleConfig describes the chassis, driveline and traction motor.
type VehicleConfig struct {
	MassKg          float64 `json:"mass_kg"`
	DragArea        float64 `json:"drag_area"` // CdA, m^2
	RollingCoeff    float64 `json:"rolling_coeff"`
	DrivetrainEff   float64 `json:"drivetrain_eff"`
	TireDiameterM   float64 `json:"tire_diameter_m"`
	GearRatio       float64 `json:"gear_ratio"`
	DiffRatio       float64 `json:"diff_ratio"`
	MotorPeakKw     float64 `json:"motor_peak_kw"`
	MotorMaxRPM     float64 `json:"motor_max_rpm"`
	RegenMaxKw      float64 `json:"regen_max_kw"`
	RegenMaxSoC     float64 `json:"regen_max_soc"`
	TractionRampKwS float64 `json:"traction_ramp_kw_s"`
}

// BatteryConfig describes the traction battery and its operating window.
type BatteryConfig struct {
	CapacityKwh    float64 `json:"capacity_kwh"`
	NominalVolts   float64 `json:"nominal_volts"`
	InternalOhms   float64 `json:"internal_ohms"`
	MaxChargeKw    float64 `json:"max_charge_kw"`
	MaxDischargeKw float64 `json:"max_discharge_kw"`
	SoCMin         float64 `json:"soc_min"`
	SoCMax         float64 `json:"soc_max"`
	SoCInitial     float64 `json:"soc_initial"`
	SoCTarget      float64 `json:"soc_target"`
	SoCTargetBand  float64 `json:"soc_target_band"`
}

// EngineConfig describes the combustion engine and the mode-switch tuning.
// Island search bounds left at zero are derived from the idle-redline span.
type EngineConfig struct {
	IdleRPM       float64 `json:"idle_rpm"`
	RedlineRPM    float64 `json:"redline_rpm"`
	EfficiencyRPM float64 `json:"efficiency_rpm"`
	MaxPowerKw    float64 `json:"max_power_kw"`
	MaxTorqueNm   float64 `json:"max_torque_nm"`
	RPMTimeConstS float64 `json:"rpm_time_const_s"`
	ThermalEff    float64 `json:"thermal_eff"`
	Profile       string  `json:"profile"`

	IslandRPMMin      float64 `json:"island_rpm_min"`
	IslandRPMMax      float64 `json:"island_rpm_max"`
	IslandTorqueMinNm float64 `json:"island_torque_min_nm"`
	IslandTorqueMaxNm float64 `json:"island_torque_max_nm"`

	PedalOn       float64 `json:"pedal_on"`
	PedalOff      float64 `json:"pedal_off"`
	StartDemandKw float64 `json:"start_demand_kw"`
	MinOffTimeS   float64 `json:"min_off_time_s"`
	MinOnTimeS    float64 `json:"min_on_time_s"`
}

// GeneratorConfig describes the generator coupled to the engine.
type GeneratorConfig struct {
	MaxElecKw     float64 `json:"max_elec_kw"`
	Efficiency    float64 `json:"efficiency"`
	DemandRampKwS float64 `json:"demand_ramp_kw_s"` // controller-side ramp
	ResponseTimeS float64 `json:"response_time_s"`  // plant first-order lag
	RampKwS       float64 `json:"ramp_kw_s"`        // plant physical slew limit
	StepUpRatio   float64 `json:"step_up_ratio"`
}

// BusConfig bounds the DC link voltage.
type BusConfig struct {
	MinVolts float64 `json:"min_volts"`
	MaxVolts float64 `json:"max_volts"`
}

// Config is the full powertrain parameter set. It is immutable for the
// duration of a simulation run; editing it means starting a new run.
type Config struct {
	ControlMode ControlMode     `json:"control_mode"`
	Vehicle     VehicleConfig   `json:"vehicle"`
	Battery     BatteryConfig   `json:"battery"`
	Engine      EngineConfig    `json:"engine"`
	Generator   GeneratorConfig `json:"generator"`
	Bus         BusConfig       `json:"bus"`
}

// Normalized returns a copy of the config with non-finite values replaced,
// fractions clamped to [0,1] and inverted bounds reordered. The simulation
// step assumes a normalized config; loaders call this after validation so
// an out-of-range value degrades instead of corrupting the state.
func (c Config) Normalized() Config {
	if !c.ControlMode.Valid() {
		c.ControlMode = ControlIsland
	}

	v := &c.Vehicle
	v.MassKg = mathx.Clamp(mathx.Finite(v.MassKg, 1), 1, 1e6)
	v.DragArea = mathx.Clamp(mathx.Finite(v.DragArea, 0), 0, 100)
	v.RollingCoeff = mathx.Clamp(mathx.Finite(v.RollingCoeff, 0), 0, 1)
	v.DrivetrainEff = mathx.Clamp(mathx.Finite(v.DrivetrainEff, 0.9), 0.05, 1)
	v.TireDiameterM = mathx.Clamp(mathx.Finite(v.TireDiameterM, 0.6), 0.05, 5)
	v.GearRatio = mathx.Clamp(mathx.Finite(v.GearRatio, 1), 0.01, 1000)
	v.DiffRatio = mathx.Clamp(mathx.Finite(v.DiffRatio, 1), 0.01, 1000)
	v.MotorPeakKw = mathx.Clamp(mathx.Finite(v.MotorPeakKw, 0), 0, 1e4)
	v.MotorMaxRPM = mathx.Clamp(mathx.Finite(v.MotorMaxRPM, 1), 1, 1e6)
	v.RegenMaxKw = mathx.Clamp(mathx.Finite(v.RegenMaxKw, 0), 0, 1e4)
	v.RegenMaxSoC = mathx.Clamp(mathx.Finite(v.RegenMaxSoC, 0), 0, 1)
	v.TractionRampKwS = mathx.Clamp(mathx.Finite(v.TractionRampKwS, 1e6), 1, 1e7)

	b := &c.Battery
	b.CapacityKwh = mathx.Clamp(mathx.Finite(b.CapacityKwh, 1), 1e-3, 1e4)
	b.NominalVolts = mathx.Clamp(mathx.Finite(b.NominalVolts, 1), 1, 1e4)
	b.InternalOhms = mathx.Clamp(mathx.Finite(b.InternalOhms, 0), 0, 1e3)
	b.MaxChargeKw = mathx.Clamp(mathx.Finite(b.MaxChargeKw, 0), 0, 1e5)
	b.MaxDischargeKw = mathx.Clamp(mathx.Finite(b.MaxDischargeKw, 0), 0, 1e5)
	b.SoCMin = mathx.Clamp(mathx.Finite(b.SoCMin, 0), 0, 1)
	b.SoCMax = mathx.Clamp(mathx.Finite(b.SoCMax, 1), 0, 1)
	if b.SoCMin > b.SoCMax {
		b.SoCMin, b.SoCMax = b.SoCMax, b.SoCMin
	}
	b.SoCInitial = mathx.Clamp(mathx.Finite(b.SoCInitial, b.SoCMin), b.SoCMin, b.SoCMax)
	b.SoCTarget = mathx.Clamp(mathx.Finite(b.SoCTarget, b.SoCInitial), b.SoCMin, b.SoCMax)
	b.SoCTargetBand = mathx.Clamp(mathx.Finite(b.SoCTargetBand, 0.05), 1e-3, 1)

	e := &c.Engine
	e.IdleRPM = mathx.Clamp(mathx.Finite(e.IdleRPM, 0), 0, 1e5)
	e.RedlineRPM = mathx.Clamp(mathx.Finite(e.RedlineRPM, e.IdleRPM+1), e.IdleRPM+1, 1e6)
	e.EfficiencyRPM = mathx.Clamp(mathx.Finite(e.EfficiencyRPM, e.IdleRPM), e.IdleRPM, e.RedlineRPM)
	e.MaxPowerKw = mathx.Clamp(mathx.Finite(e.MaxPowerKw, 0), 0, 1e5)
	e.MaxTorqueNm = mathx.Clamp(mathx.Finite(e.MaxTorqueNm, 0), 0, 1e6)
	e.RPMTimeConstS = mathx.Clamp(mathx.Finite(e.RPMTimeConstS, 0.5), 1e-3, 60)
	e.ThermalEff = mathx.Clamp(mathx.Finite(e.ThermalEff, 0.3), 0.05, 0.6)
	e.PedalOn = mathx.Clamp(mathx.Finite(e.PedalOn, 0.04), 0, 1)
	e.PedalOff = mathx.Clamp(mathx.Finite(e.PedalOff, 0.02), 0, e.PedalOn)
	e.StartDemandKw = mathx.Clamp(mathx.Finite(e.StartDemandKw, 5), 0.1, 1e4)
	e.MinOffTimeS = mathx.Clamp(mathx.Finite(e.MinOffTimeS, 0), 0, 3600)
	e.MinOnTimeS = mathx.Clamp(mathx.Finite(e.MinOnTimeS, 0), 0, 3600)
	e.IslandRPMMin = mathx.Finite(e.IslandRPMMin, 0)
	e.IslandRPMMax = mathx.Finite(e.IslandRPMMax, 0)
	e.IslandTorqueMinNm = mathx.Finite(e.IslandTorqueMinNm, 0)
	e.IslandTorqueMaxNm = mathx.Finite(e.IslandTorqueMaxNm, 0)

	g := &c.Generator
	g.MaxElecKw = mathx.Clamp(mathx.Finite(g.MaxElecKw, 0), 0, 1e5)
	g.Efficiency = mathx.Clamp(mathx.Finite(g.Efficiency, 0.9), 0.05, 1)
	g.DemandRampKwS = mathx.Clamp(mathx.Finite(g.DemandRampKwS, 1e6), 0.1, 1e7)
	g.ResponseTimeS = mathx.Clamp(mathx.Finite(g.ResponseTimeS, 0.1), 1e-3, 60)
	g.RampKwS = mathx.Clamp(mathx.Finite(g.RampKwS, 1e6), 0.1, 1e7)
	g.StepUpRatio = mathx.Clamp(mathx.Finite(g.StepUpRatio, 1), 0.01, 100)

	u := &c.Bus
	u.MinVolts = mathx.Clamp(mathx.Finite(u.MinVolts, 1), 1, 1e4)
	u.MaxVolts = mathx.Clamp(mathx.Finite(u.MaxVolts, u.MinVolts), 1, 1e4)
	if u.MinVolts > u.MaxVolts {
		u.MinVolts, u.MaxVolts = u.MaxVolts, u.MinVolts
	}

	return c
}
