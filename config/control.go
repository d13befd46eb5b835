package config

import (
	"fmt"

	"github.com/brg2/OpenEVT/core/model"
)

// ControlConfig selects the powertrain control strategy. Load copies the
// mode into the assembled powertrain config, so this section is the single
// source of truth for it.
type ControlConfig struct {
	Mode string `json:"mode"`
}

// SetDefaults applies sane defaults.
func (c *ControlConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = string(model.ControlIsland)
	}
}

// Validate checks the mode name.
func (c ControlConfig) Validate() error {
	if !model.ControlMode(c.Mode).Valid() {
		return fmt.Errorf("unknown control mode %q", c.Mode)
	}
	return nil
}
