package model

// DefaultConfig returns the reference powertrain: a compact series-hybrid
// sedan with a 1.6L-class gasoline engine. Loaders use it to fill missing
// sections; tests use it as a known-good baseline.
func DefaultConfig() Config {
	return Config{
		ControlMode: ControlIsland,
		Vehicle: VehicleConfig{
			MassKg:          1780,
			DragArea:        0.66,
			RollingCoeff:    0.009,
			DrivetrainEff:   0.92,
			TireDiameterM:   0.68,
			GearRatio:       7.8,
			DiffRatio:       1.0,
			MotorPeakKw:     150,
			MotorMaxRPM:     12000,
			RegenMaxKw:      45,
			RegenMaxSoC:     0.85,
			TractionRampKwS: 400,
		},
		Battery: BatteryConfig{
			CapacityKwh:    16,
			NominalVolts:   355,
			InternalOhms:   0.06,
			MaxChargeKw:    70,
			MaxDischargeKw: 140,
			SoCMin:         0.05,
			SoCMax:         0.95,
			SoCInitial:     0.55,
			SoCTarget:      0.60,
			SoCTargetBand:  0.08,
		},
		Engine: EngineConfig{
			IdleRPM:       750,
			RedlineRPM:    5600,
			EfficiencyRPM: 2700,
			MaxPowerKw:    110,
			MaxTorqueNm:   280,
			RPMTimeConstS: 0.7,
			ThermalEff:    0.34,
			Profile:       "i4-gas",
			PedalOn:       0.05,
			PedalOff:      0.02,
			StartDemandKw: 8,
			MinOffTimeS:   2,
			MinOnTimeS:    5,
		},
		Generator: GeneratorConfig{
			MaxElecKw:     95,
			Efficiency:    0.93,
			DemandRampKwS: 60,
			ResponseTimeS: 0.45,
			RampKwS:       160,
			StepUpRatio:   1.0,
		},
		Bus: BusConfig{
			MinVolts: 300,
			MaxVolts: 410,
		},
	}
}
