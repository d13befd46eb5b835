// Package config loads, migrates and validates the simulator configuration
// from YAML or JSON files, with EVT_ prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/infra/logger"
	"github.com/brg2/OpenEVT/infra/mqtt"
)

// Config is the full simulator configuration.
type Config struct {
	Version    int           `json:"version"`
	Sim        SimConfig     `json:"sim"`
	Control    ControlConfig `json:"control"`
	Powertrain model.Config  `json:"powertrain"`
	Logging    LoggingConfig `json:"logging"`
	Metrics    MetricsConfig `json:"metrics"`
	MQTT       mqtt.Config   `json:"mqtt"`
	Sentry     SentryConfig  `json:"sentry"`
}

// Default returns the configuration used when no file is given: the stock
// powertrain with every section at its defaults.
func Default() *Config {
	cfg := &Config{Version: currentVersion, Powertrain: model.DefaultConfig()}
	cfg.Sim.SetDefaults()
	cfg.Control.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Powertrain.ControlMode = model.ControlMode(cfg.Control.Mode)
	return cfg
}

// Load reads the file at path, applies environment overrides and
// legacy-layout migration, and returns the validated configuration.
// Powertrain parameters absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides. The provider delimiter must match the
	// dotted paths the callback produces or the keys stay flat and never
	// reach the unmarshaled struct.
	if err := k.Load(env.Provider("EVT_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "evt_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	migrate(k, logger.New("config"))

	cfg := Config{Powertrain: model.DefaultConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Sim.SetDefaults()
	cfg.Control.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	// control.mode drives the strategy unless the file pins the
	// powertrain field directly.
	if !k.Exists("powertrain.control_mode") {
		cfg.Powertrain.ControlMode = model.ControlMode(cfg.Control.Mode)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Sim.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if err := c.Control.Validate(); err != nil {
		return fmt.Errorf("control: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := ValidatePowertrain(c.Powertrain); err != nil {
		return fmt.Errorf("powertrain: %w", err)
	}
	return nil
}
