// Package export writes recorded telemetry traces to open formats for
// offline analysis. The writers are pure: they take a snapshot slice and an
// io.Writer and hold no state.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/brg2/OpenEVT/core/telemetry"
)

// Columns is the stable CSV header. Order is part of the format; new
// columns are appended, never inserted.
var Columns = []string{
	"seq", "time_s", "speed_mps", "accel_mps2", "distance_m",
	"engine_rpm", "mode", "throttle", "soc", "bus_volts",
	"gen_cmd_kw", "gen_kw", "batt_kw", "trac_elec_kw", "wheels_kw",
	"engine_mech_kw", "fuel_rate_gph", "fuel_gal", "regen_active",
	"limit_trac_power_s", "limit_batt_discharge_s", "limit_batt_charge_s",
	"limit_bus_under_s", "limit_bus_over_s",
}

// WriteCSV writes the trace as CSV with a header row. Floats keep full
// precision so traces are replay-comparable.
func WriteCSV(w io.Writer, snaps []telemetry.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	row := make([]string, 0, len(Columns))
	for _, sn := range snaps {
		st := sn.State
		row = append(row[:0],
			strconv.FormatUint(sn.Seq, 10),
			ftoa(st.TimeS), ftoa(st.SpeedMps), ftoa(st.AccelMps2), ftoa(st.DistanceM),
			ftoa(st.EngineRPM), st.Mode.String(), ftoa(st.Throttle), ftoa(st.SoC), ftoa(st.BusVolts),
			ftoa(st.GenCmdKw), ftoa(st.GenKw), ftoa(st.BattKw), ftoa(st.TracElecKw), ftoa(st.WheelsKw),
			ftoa(st.EngineMechKw), ftoa(st.FuelRateGph), ftoa(st.Energy.FuelGal),
			strconv.FormatBool(st.RegenActive),
			ftoa(st.LimitTimes.TracPowerS), ftoa(st.LimitTimes.BattDischargeS), ftoa(st.LimitTimes.BattChargeS),
			ftoa(st.LimitTimes.BusUnderS), ftoa(st.LimitTimes.BusOverS),
		)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the trace as a compact JSON array of snapshots.
func WriteJSON(w io.Writer, snaps []telemetry.Snapshot) error {
	return json.NewEncoder(w).Encode(snaps)
}

// WriteSummary writes an end-of-run summary as indented JSON, meant to be
// read by humans as much as by tools.
func WriteSummary(w io.Writer, sum telemetry.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
