package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/brg2/OpenEVT/core/telemetry"
	"github.com/brg2/OpenEVT/infra/logger"
)

// InfluxSink writes snapshots and run summaries to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) telemetry.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return telemetry.NopSink{}
	}
	return sink
}

// RecordSnapshot writes the snapshot as an evt_state point.
func (s *InfluxSink) RecordSnapshot(sn telemetry.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st := sn.State
	p := write.NewPointWithMeasurement("evt_state").
		AddTag("run_id", sn.RunID).
		AddTag("mode", st.Mode.String()).
		AddField("time_s", round3(st.TimeS)).
		AddField("speed_mps", round3(st.SpeedMps)).
		AddField("accel_mps2", round3(st.AccelMps2)).
		AddField("distance_m", round3(st.DistanceM)).
		AddField("engine_rpm", round3(st.EngineRPM)).
		AddField("throttle", round3(st.Throttle)).
		AddField("soc", round3(st.SoC)).
		AddField("bus_volts", round3(st.BusVolts)).
		AddField("gen_kw", round3(st.GenKw)).
		AddField("batt_kw", round3(st.BattKw)).
		AddField("trac_elec_kw", round3(st.TracElecKw)).
		AddField("wheels_kw", round3(st.WheelsKw)).
		AddField("engine_mech_kw", round3(st.EngineMechKw)).
		AddField("fuel_rate_gph", round3(st.FuelRateGph)).
		AddField("fuel_gal", round3(st.Energy.FuelGal)).
		AddField("regen_active", st.RegenActive).
		SetTime(sn.Wall)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSummary writes the end-of-run summary as an evt_summary point.
func (s *InfluxSink) RecordSummary(sum telemetry.Summary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("evt_summary").
		AddTag("run_id", sum.RunID).
		AddField("ticks", sum.Ticks).
		AddField("duration_s", round3(sum.DurationS)).
		AddField("distance_km", round3(sum.DistanceKm)).
		AddField("avg_speed_kph", round3(sum.AvgSpeedKph)).
		AddField("max_speed_mps", round3(sum.MaxSpeedMps)).
		AddField("soc_start", round3(sum.SoCStart)).
		AddField("soc_end", round3(sum.SoCEnd)).
		AddField("fuel_gal", round3(sum.FuelGal)).
		AddField("mpg", round3(sum.MPG)).
		AddField("l_per_100km", round3(sum.LPer100Km)).
		AddField("gen_kwh", round3(sum.GenKwh)).
		AddField("trac_out_kwh", round3(sum.TracOutKwh)).
		AddField("batt_out_kwh", round3(sum.BattOutKwh)).
		AddField("batt_in_kwh", round3(sum.BattInKwh)).
		AddField("engine_on_s", round3(sum.EngineOnS)).
		AddField("engine_starts", sum.EngineStarts).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
