package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brg2/OpenEVT/core/model"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `version: 2
sim:
  dt_s: 0.02
  speed: 2
  snapshot_every: 4
control:
  mode: "direct"
logging:
  level: "debug"
  pretty: true
metrics:
  prometheus:
    enabled: true
    addr: ":9100"
  influx:
    enabled: false
    url: "http://localhost:8086"
    token: "tok"
    org: "evt"
    bucket: "runs"
mqtt:
  enabled: false
  broker: "tcp://localhost:1883"
  base_topic: "car"
powertrain:
  vehicle:
    mass_kg: 1500
  battery:
    capacity_kwh: 20
sentry:
  environment: "test"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"version", cfg.Version, 2},
		{"sim.dt_s", cfg.Sim.DtS, 0.02},
		{"sim.speed", cfg.Sim.Speed, 2.0},
		{"sim.snapshot_every", cfg.Sim.SnapshotEvery, 4},
		{"sim.history_size default", cfg.Sim.HistorySize, 4096},
		{"control.mode", cfg.Control.Mode, "direct"},
		{"powertrain.control_mode copied", cfg.Powertrain.ControlMode, model.ControlDirect},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.pretty", cfg.Logging.Pretty, true},
		{"prometheus.enabled", cfg.Metrics.Prometheus.Enabled, true},
		{"prometheus.addr", cfg.Metrics.Prometheus.Addr, ":9100"},
		{"influx.url", cfg.Metrics.Influx.URL, "http://localhost:8086"},
		{"mqtt.base_topic", cfg.MQTT.BaseTopic, "car"},
		{"sentry.environment", cfg.Sentry.Environment, "test"},
		{"powertrain.vehicle.mass_kg", cfg.Powertrain.Vehicle.MassKg, 1500.0},
		{"powertrain.battery.capacity_kwh", cfg.Powertrain.Battery.CapacityKwh, 20.0},
		{"powertrain vehicle defaults kept", cfg.Powertrain.Vehicle.MotorPeakKw, 150.0},
		{"powertrain engine defaults kept", cfg.Powertrain.Engine.IdleRPM, 750.0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"version": 2, "sim": {"dt_s": 0.1}, "control": {"mode": "island_throttle"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Sim.DtS != 0.1 {
		t.Errorf("dt_s mismatch: %v", cfg.Sim.DtS)
	}
	if cfg.Powertrain.ControlMode != model.ControlIslandThrottle {
		t.Errorf("control mode not copied: %v", cfg.Powertrain.ControlMode)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `version: 2
sim:
  speed: 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EVT_SIM__SPEED", "4")
	t.Setenv("EVT_CONTROL__MODE", "direct")
	t.Setenv("EVT_METRICS__PROMETHEUS__ADDR", ":9200")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Sim.Speed != 4 {
		t.Errorf("env speed override lost: %v", cfg.Sim.Speed)
	}
	if cfg.Control.Mode != "direct" {
		t.Errorf("env mode override lost: %v", cfg.Control.Mode)
	}
	if cfg.Metrics.Prometheus.Addr != ":9200" {
		t.Errorf("env addr override lost: %v", cfg.Metrics.Prometheus.Addr)
	}
}

func TestLoadDefaultsWhenSectionsOmitted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("version: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	want := Default()
	if cfg.Sim != want.Sim {
		t.Errorf("sim defaults mismatch: %+v", cfg.Sim)
	}
	if cfg.Powertrain != want.Powertrain {
		t.Errorf("powertrain defaults mismatch")
	}
	if cfg.Metrics.Prometheus.Addr != ":2112" {
		t.Errorf("prometheus addr default mismatch: %v", cfg.Metrics.Prometheus.Addr)
	}
	if cfg.MQTT.BaseTopic != "evt" {
		t.Errorf("mqtt base topic default mismatch: %v", cfg.MQTT.BaseTopic)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestLoadValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad dt", "sim:\n  dt_s: 5\n"},
		{"bad speed", "sim:\n  speed: 100\n"},
		{"bad control mode", "control:\n  mode: \"warp\"\n"},
		{"bad log level", "logging:\n  level: \"loud\"\n"},
		{"mqtt enabled without broker", "mqtt:\n  enabled: true\n"},
		{"influx enabled without url", "metrics:\n  influx:\n    enabled: true\n"},
		{"bad powertrain", "powertrain:\n  vehicle:\n    mass_kg: -1\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte("version: 2\n"+c.data), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Powertrain.ControlMode != model.ControlIsland {
		t.Errorf("default control mode: %v", cfg.Powertrain.ControlMode)
	}
}
