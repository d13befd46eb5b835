package model

import "fmt"

// EngineMode is the discrete controller mode, distinct from the engine's
// physical RPM: idle means the engine is governed down regardless of RPM,
// island means it runs under generator load.
type EngineMode int

const (
	ModeIdle EngineMode = iota
	ModeIsland
)

// String returns the mode name used in logs, topics and exports.
func (m EngineMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeIsland:
		return "island"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalJSON encodes the mode as its name.
func (m EngineMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts the mode name.
func (m *EngineMode) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"idle"`:
		*m = ModeIdle
	case `"island"`:
		*m = ModeIsland
	default:
		return fmt.Errorf("unknown engine mode %s", b)
	}
	return nil
}

// LimitFlags marks which physical constraints were binding this tick. They
// are recomputed from scratch every step; a set flag is telemetry, not an
// error.
type LimitFlags struct {
	TracPower     bool `json:"trac_power"`
	BattDischarge bool `json:"batt_discharge"`
	BattCharge    bool `json:"batt_charge"`
	BusUnder      bool `json:"bus_under"`
	BusOver       bool `json:"bus_over"`
}

// LimitTimes accumulates how long each limiter has been active over the
// run, in seconds. Monotonic.
type LimitTimes struct {
	TracPowerS     float64 `json:"trac_power_s"`
	BattDischargeS float64 `json:"batt_discharge_s"`
	BattChargeS    float64 `json:"batt_charge_s"`
	BusUnderS      float64 `json:"bus_under_s"`
	BusOverS       float64 `json:"bus_over_s"`
}

// EnergyTotals are the cumulative energy and fuel counters. Monotonic.
type EnergyTotals struct {
	TracOutKwh float64 `json:"trac_out_kwh"`
	GenKwh     float64 `json:"gen_kwh"`
	BattOutKwh float64 `json:"batt_out_kwh"`
	BattInKwh  float64 `json:"batt_in_kwh"`
	FuelGal    float64 `json:"fuel_gal"`
}

// State is the complete simulation snapshot. It is produced exclusively by
// the step function: each tick constructs a wholly new State from the
// previous one, so snapshots can be retained, compared and replayed freely.
type State struct {
	TimeS     float64 `json:"time_s"`
	SpeedMps  float64 `json:"speed_mps"`
	AccelMps2 float64 `json:"accel_mps2"`
	DistanceM float64 `json:"distance_m"`

	EngineRPM      float64    `json:"engine_rpm"`
	RPMTarget      float64    `json:"rpm_target"`
	TorqueTargetNm float64    `json:"torque_target_nm"`
	Throttle       float64    `json:"throttle"`
	Mode           EngineMode `json:"mode"`
	ModeTimeS      float64    `json:"mode_time_s"`

	SoC        float64 `json:"soc"`
	BusVolts   float64 `json:"bus_volts"`
	GenCmdKw   float64 `json:"gen_cmd_kw"`
	GenKw      float64 `json:"gen_kw"`
	BattKw     float64 `json:"batt_kw"` // positive discharging, negative charging
	TracElecKw float64 `json:"trac_elec_kw"`
	TracCapKw  float64 `json:"trac_cap_kw"`

	WheelRPM     float64 `json:"wheel_rpm"`
	MotorRPM     float64 `json:"motor_rpm"`
	GenRPM       float64 `json:"gen_rpm"`
	WheelsReqKw  float64 `json:"wheels_req_kw"`
	WheelsCmdKw  float64 `json:"wheels_cmd_kw"`
	WheelsKw     float64 `json:"wheels_kw"`
	EngineMechKw float64 `json:"engine_mech_kw"`
	FuelRateGph  float64 `json:"fuel_rate_gph"`
	RegenActive  bool    `json:"regen_active"`

	Limits     LimitFlags   `json:"limits"`
	LimitTimes LimitTimes   `json:"limit_times"`
	Energy     EnergyTotals `json:"energy"`
}
