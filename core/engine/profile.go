package engine

// Profile carries the fuel-dependent constants of the BSFC surface and the
// fuel-rate accounting. Profiles are looked up by the engine config's
// profile name; an unknown or empty name falls back to a generic gasoline
// profile so a config typo degrades instead of failing.
type Profile struct {
	Name            string
	Fuel            string
	LHVKwhPerKg     float64 // lower heating value
	EnergyKwhPerGal float64
	RPMBias         float64 // signed tilt of the BSFC surface against high RPM
	FloorScale      float64
}

var gasolineDefault = Profile{
	Name:            "gasoline",
	Fuel:            "gasoline",
	LHVKwhPerKg:     12.0,
	EnergyKwhPerGal: 33.7,
	RPMBias:         0.12,
	FloorScale:      1.0,
}

var profiles = map[string]Profile{
	"i3-gas":    {Name: "i3-gas", Fuel: "gasoline", LHVKwhPerKg: 12.0, EnergyKwhPerGal: 33.7, RPMBias: 0.15, FloorScale: 1.04},
	"i4-gas":    {Name: "i4-gas", Fuel: "gasoline", LHVKwhPerKg: 12.0, EnergyKwhPerGal: 33.7, RPMBias: 0.12, FloorScale: 1.0},
	"v6-gas":    {Name: "v6-gas", Fuel: "gasoline", LHVKwhPerKg: 12.0, EnergyKwhPerGal: 33.7, RPMBias: 0.10, FloorScale: 0.97},
	"i4-diesel": {Name: "i4-diesel", Fuel: "diesel", LHVKwhPerKg: 11.83, EnergyKwhPerGal: 37.6, RPMBias: 0.30, FloorScale: 0.88},
	"i6-diesel": {Name: "i6-diesel", Fuel: "diesel", LHVKwhPerKg: 11.83, EnergyKwhPerGal: 37.6, RPMBias: 0.26, FloorScale: 0.85},
}

// ProfileFor returns the named profile, or the gasoline default when the
// name is unknown or empty.
func ProfileFor(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return gasolineDefault
}

// ProfileNames lists the known profile names for CLI help and validation
// messages.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	return names
}
