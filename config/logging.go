package config

import "fmt"

// LoggingConfig tunes the zerolog output.
type LoggingConfig struct {
	// Level filters records: trace, debug, info, warn or error.
	Level string `json:"level"`
	// Pretty forces the human-readable console writer regardless of
	// APP_ENV.
	Pretty bool `json:"pretty"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %q", c.Level)
}
