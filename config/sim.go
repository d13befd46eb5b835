package config

import "fmt"

// SimConfig paces the interactive simulation loop.
type SimConfig struct {
	// DtS is the fixed simulation timestep in seconds.
	DtS float64 `json:"dt_s"`
	// Speed is the initial wall-clock pacing multiplier.
	Speed float64 `json:"speed"`
	// SnapshotEvery publishes every Nth tick to the bus and sinks.
	SnapshotEvery int `json:"snapshot_every"`
	// HistorySize bounds the in-memory snapshot ring.
	HistorySize int `json:"history_size"`
}

// SetDefaults applies sane defaults.
func (c *SimConfig) SetDefaults() {
	if c.DtS == 0 {
		c.DtS = 0.05
	}
	if c.Speed == 0 {
		c.Speed = 1
	}
	if c.SnapshotEvery == 0 {
		c.SnapshotEvery = 1
	}
	if c.HistorySize == 0 {
		c.HistorySize = 4096
	}
}

// Validate checks the pacing parameters.
func (c SimConfig) Validate() error {
	if c.DtS <= 0 || c.DtS > 1 {
		return fmt.Errorf("dt_s must be in (0, 1], got %g", c.DtS)
	}
	if c.Speed < 0 || c.Speed > 64 {
		return fmt.Errorf("speed must be in [0, 64], got %g", c.Speed)
	}
	if c.SnapshotEvery < 1 {
		return fmt.Errorf("snapshot_every must be at least 1, got %d", c.SnapshotEvery)
	}
	if c.HistorySize < 16 {
		return fmt.Errorf("history_size must be at least 16, got %d", c.HistorySize)
	}
	return nil
}
