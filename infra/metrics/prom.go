package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/telemetry"
)

// PromSink exposes the most recent snapshot of each run as Prometheus
// metrics, labeled by run ID. Energy, fuel and limiter totals accumulate
// inside the simulation state, so they are exported as gauges set to the
// running counter rather than native Prometheus counters.
type PromSink struct {
	speed    *prometheus.GaugeVec
	soc      *prometheus.GaugeVec
	busVolts *prometheus.GaugeVec
	rpm      *prometheus.GaugeVec
	genKw    *prometheus.GaugeVec
	battKw   *prometheus.GaugeVec
	tracKw   *prometheus.GaugeVec
	fuelRate *prometheus.GaugeVec
	engineOn *prometheus.GaugeVec
	energy   *prometheus.GaugeVec
	fuel     *prometheus.GaugeVec
	limits   *prometheus.GaugeVec
}

// NewPromSink registers the powertrain metrics on the default Prometheus
// registerer. The /metrics server is started separately with StartServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A
// nil registerer defaults to the global one. Collectors already registered
// by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &registrar{reg: reg}
	s := &PromSink{
		speed:    r.gauge("evt_speed_mps", "Vehicle speed in meters per second"),
		soc:      r.gauge("evt_battery_soc", "Battery state of charge, 0 to 1"),
		busVolts: r.gauge("evt_bus_volts", "DC bus voltage"),
		rpm:      r.gauge("evt_engine_rpm", "Engine crankshaft speed"),
		genKw:    r.gauge("evt_generator_kw", "Generator electrical output"),
		battKw:   r.gauge("evt_battery_kw", "Battery power, positive while discharging"),
		tracKw:   r.gauge("evt_traction_kw", "Traction electrical power, negative on regen"),
		fuelRate: r.gauge("evt_fuel_rate_gph", "Instantaneous fuel burn in gallons per hour"),
		engineOn: r.gauge("evt_engine_running", "1 while the engine runs under generator load"),
		energy:   r.gauge("evt_energy_kwh", "Cumulative energy by direction", "direction"),
		fuel:     r.gauge("evt_fuel_total_gal", "Cumulative fuel burned"),
		limits:   r.gauge("evt_limit_seconds", "Cumulative time each protection limit was binding", "limit"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return s, nil
}

// registrar registers collectors and keeps the first registration error,
// reusing existing collectors the way repeated sink construction needs.
type registrar struct {
	reg prometheus.Registerer
	err error
}

func (r *registrar) gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, append([]string{"run_id"}, labels...))
	if r.err != nil {
		return gv
	}
	if err := r.reg.Register(gv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.GaugeVec)
		}
		r.err = err
	}
	return gv
}

// RecordSnapshot sets every gauge to the snapshot's values.
func (s *PromSink) RecordSnapshot(sn telemetry.Snapshot) error {
	st := sn.State
	id := sn.RunID
	s.speed.WithLabelValues(id).Set(st.SpeedMps)
	s.soc.WithLabelValues(id).Set(st.SoC)
	s.busVolts.WithLabelValues(id).Set(st.BusVolts)
	s.rpm.WithLabelValues(id).Set(st.EngineRPM)
	s.genKw.WithLabelValues(id).Set(st.GenKw)
	s.battKw.WithLabelValues(id).Set(st.BattKw)
	s.tracKw.WithLabelValues(id).Set(st.TracElecKw)
	s.fuelRate.WithLabelValues(id).Set(st.FuelRateGph)
	running := 0.0
	if st.Mode == model.ModeIsland {
		running = 1
	}
	s.engineOn.WithLabelValues(id).Set(running)

	s.energy.WithLabelValues(id, "trac_out").Set(st.Energy.TracOutKwh)
	s.energy.WithLabelValues(id, "gen").Set(st.Energy.GenKwh)
	s.energy.WithLabelValues(id, "batt_out").Set(st.Energy.BattOutKwh)
	s.energy.WithLabelValues(id, "batt_in").Set(st.Energy.BattInKwh)
	s.fuel.WithLabelValues(id).Set(st.Energy.FuelGal)

	s.limits.WithLabelValues(id, "trac_power").Set(st.LimitTimes.TracPowerS)
	s.limits.WithLabelValues(id, "batt_discharge").Set(st.LimitTimes.BattDischargeS)
	s.limits.WithLabelValues(id, "batt_charge").Set(st.LimitTimes.BattChargeS)
	s.limits.WithLabelValues(id, "bus_under").Set(st.LimitTimes.BusUnderS)
	s.limits.WithLabelValues(id, "bus_over").Set(st.LimitTimes.BusOverS)
	return nil
}
