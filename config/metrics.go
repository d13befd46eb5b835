package config

import "fmt"

// MetricsConfig enables the telemetry sinks.
type MetricsConfig struct {
	Prometheus PrometheusConfig `json:"prometheus"`
	Influx     InfluxConfig     `json:"influx"`
}

// PrometheusConfig exposes gauges over a /metrics endpoint.
type PrometheusConfig struct {
	Enabled bool `json:"enabled"`
	// Addr is the listen address of the metrics server.
	Addr string `json:"addr"`
}

// InfluxConfig streams snapshots to an InfluxDB bucket.
type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Prometheus.Addr == "" {
		c.Prometheus.Addr = ":2112"
	}
}

// Validate checks the enabled sinks.
func (c MetricsConfig) Validate() error {
	if c.Prometheus.Enabled && c.Prometheus.Addr == "" {
		return fmt.Errorf("prometheus requires an addr")
	}
	if c.Influx.Enabled && c.Influx.URL == "" {
		return fmt.Errorf("influx requires a url")
	}
	return nil
}
