package config

import (
	"strings"

	"github.com/knadh/koanf/v2"

	"github.com/brg2/OpenEVT/core/logger"
)

// currentVersion is the config layout this build reads and writes natively.
const currentVersion = 2

// legacyRenames maps pre-v2 keys to their current locations. They apply
// after the flat powertrain sections are nested, so both old layouts are
// covered.
var legacyRenames = map[string]string{
	"powertrain.engine.optimal_rpm": "powertrain.engine.efficiency_rpm",
	"powertrain.battery.capacity":   "powertrain.battery.capacity_kwh",
	"powertrain.generator.lag_s":    "powertrain.generator.response_time_s",
}

// powertrainSections are the top-level keys the v1 layout kept flat.
var powertrainSections = []string{"vehicle.", "battery.", "engine.", "generator.", "bus."}

// migrate upgrades legacy key layouts in place. It never errors: unknown
// legacy keys are preserved as-is and newly introduced fields default.
func migrate(k *koanf.Koanf, log logger.Logger) {
	if k.Int("version") >= currentVersion {
		return
	}

	var moves [][2]string
	for key := range k.All() {
		for _, sect := range powertrainSections {
			if strings.HasPrefix(key, sect) {
				moves = append(moves, [2]string{key, "powertrain." + key})
				break
			}
		}
	}
	for _, mv := range moves {
		moveKey(k, log, mv[0], mv[1])
	}
	for from, to := range legacyRenames {
		moveKey(k, log, from, to)
	}

	// min_dwell_s used to gate both engine transitions.
	if k.Exists("powertrain.engine.min_dwell_s") {
		v := k.Get("powertrain.engine.min_dwell_s")
		if !k.Exists("powertrain.engine.min_on_time_s") {
			_ = k.Set("powertrain.engine.min_on_time_s", v)
		}
		if !k.Exists("powertrain.engine.min_off_time_s") {
			_ = k.Set("powertrain.engine.min_off_time_s", v)
		}
		k.Delete("powertrain.engine.min_dwell_s")
		log.Debugf("config: split engine.min_dwell_s into both dwell gates")
	}

	// Strategy names changed with the island controller.
	switch k.String("control.mode") {
	case "eco":
		_ = k.Set("control.mode", "island")
		log.Debugf("config: control.mode eco renamed to island")
	case "throttle":
		_ = k.Set("control.mode", "direct")
		log.Debugf("config: control.mode throttle renamed to direct")
	}

	_ = k.Set("version", currentVersion)
}

func moveKey(k *koanf.Koanf, log logger.Logger, from, to string) {
	if !k.Exists(from) || k.Exists(to) {
		return
	}
	_ = k.Set(to, k.Get(from))
	k.Delete(from)
	log.Debugf("config: migrated %s to %s", from, to)
}
