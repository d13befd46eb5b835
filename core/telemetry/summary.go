package telemetry

import "github.com/brg2/OpenEVT/core/model"

const (
	miPerKm = 0.621371
	lPerGal = 3.78541
)

// Summary condenses a trace into the figures a drive report needs. All
// deltas are measured between the first and last snapshot of the trace.
type Summary struct {
	RunID        string           `json:"run_id"`
	Ticks        int              `json:"ticks"`
	DurationS    float64          `json:"duration_s"`
	DistanceKm   float64          `json:"distance_km"`
	AvgSpeedKph  float64          `json:"avg_speed_kph"`
	MaxSpeedMps  float64          `json:"max_speed_mps"`
	SoCStart     float64          `json:"soc_start"`
	SoCEnd       float64          `json:"soc_end"`
	FuelGal      float64          `json:"fuel_gal"`
	MPG          float64          `json:"mpg"`
	LPer100Km    float64          `json:"l_per_100km"`
	TracOutKwh   float64          `json:"trac_out_kwh"`
	GenKwh       float64          `json:"gen_kwh"`
	BattOutKwh   float64          `json:"batt_out_kwh"`
	BattInKwh    float64          `json:"batt_in_kwh"`
	EngineOnS    float64          `json:"engine_on_s"`
	EngineStarts int              `json:"engine_starts"`
	Limits       model.LimitTimes `json:"limit_times"`
}

// Summarize aggregates a trace. An empty trace yields a zero summary.
func Summarize(snaps []Snapshot) Summary {
	var sum Summary
	if len(snaps) == 0 {
		return sum
	}
	first := snaps[0].State
	last := snaps[len(snaps)-1].State

	sum.RunID = snaps[len(snaps)-1].RunID
	sum.Ticks = len(snaps)
	sum.DurationS = last.TimeS - first.TimeS
	sum.DistanceKm = (last.DistanceM - first.DistanceM) / 1000
	sum.SoCStart = first.SoC
	sum.SoCEnd = last.SoC
	sum.FuelGal = last.Energy.FuelGal - first.Energy.FuelGal
	sum.TracOutKwh = last.Energy.TracOutKwh - first.Energy.TracOutKwh
	sum.GenKwh = last.Energy.GenKwh - first.Energy.GenKwh
	sum.BattOutKwh = last.Energy.BattOutKwh - first.Energy.BattOutKwh
	sum.BattInKwh = last.Energy.BattInKwh - first.Energy.BattInKwh
	sum.Limits = model.LimitTimes{
		TracPowerS:     last.LimitTimes.TracPowerS - first.LimitTimes.TracPowerS,
		BattDischargeS: last.LimitTimes.BattDischargeS - first.LimitTimes.BattDischargeS,
		BattChargeS:    last.LimitTimes.BattChargeS - first.LimitTimes.BattChargeS,
		BusUnderS:      last.LimitTimes.BusUnderS - first.LimitTimes.BusUnderS,
		BusOverS:       last.LimitTimes.BusOverS - first.LimitTimes.BusOverS,
	}

	for i, sn := range snaps {
		if sn.State.SpeedMps > sum.MaxSpeedMps {
			sum.MaxSpeedMps = sn.State.SpeedMps
		}
		if i == 0 {
			continue
		}
		prev := snaps[i-1].State
		if sn.State.Mode == model.ModeIsland {
			if dt := sn.State.TimeS - prev.TimeS; dt > 0 {
				sum.EngineOnS += dt
			}
			if prev.Mode != model.ModeIsland {
				sum.EngineStarts++
			}
		}
	}

	if sum.DurationS > 0 {
		sum.AvgSpeedKph = sum.DistanceKm / sum.DurationS * 3600
	}
	if sum.FuelGal > 1e-9 {
		sum.MPG = sum.DistanceKm * miPerKm / sum.FuelGal
	}
	if sum.DistanceKm > 1e-9 {
		sum.LPer100Km = sum.FuelGal * lPerGal / sum.DistanceKm * 100
	}
	return sum
}
