package config

import (
	"fmt"

	"github.com/brg2/OpenEVT/core/model"
)

// ValidatePowertrain enforces hard errors on physically meaningless
// parameters at load time. The core still clamps at runtime; a file that
// fails these checks is a mistake the operator should hear about.
func ValidatePowertrain(c model.Config) error {
	if !c.ControlMode.Valid() {
		return fmt.Errorf("unknown control_mode %q", c.ControlMode)
	}
	v := c.Vehicle
	if v.MassKg <= 0 {
		return fmt.Errorf("vehicle.mass_kg must be positive, got %g", v.MassKg)
	}
	if v.DrivetrainEff <= 0 || v.DrivetrainEff > 1 {
		return fmt.Errorf("vehicle.drivetrain_eff must be in (0, 1], got %g", v.DrivetrainEff)
	}
	if v.MotorPeakKw <= 0 {
		return fmt.Errorf("vehicle.motor_peak_kw must be positive, got %g", v.MotorPeakKw)
	}

	b := c.Battery
	if b.CapacityKwh <= 0 {
		return fmt.Errorf("battery.capacity_kwh must be positive, got %g", b.CapacityKwh)
	}
	if b.NominalVolts <= 0 {
		return fmt.Errorf("battery.nominal_volts must be positive, got %g", b.NominalVolts)
	}
	if b.SoCMin < 0 || b.SoCMax > 1 || b.SoCMin >= b.SoCMax {
		return fmt.Errorf("battery soc bounds must satisfy 0 <= soc_min < soc_max <= 1, got [%g, %g]", b.SoCMin, b.SoCMax)
	}

	e := c.Engine
	if e.IdleRPM <= 0 {
		return fmt.Errorf("engine.idle_rpm must be positive, got %g", e.IdleRPM)
	}
	if e.RedlineRPM <= e.IdleRPM {
		return fmt.Errorf("engine.redline_rpm %g must exceed idle_rpm %g", e.RedlineRPM, e.IdleRPM)
	}
	if e.ThermalEff <= 0 || e.ThermalEff > 1 {
		return fmt.Errorf("engine.thermal_eff must be in (0, 1], got %g", e.ThermalEff)
	}

	g := c.Generator
	if g.Efficiency <= 0 || g.Efficiency > 1 {
		return fmt.Errorf("generator.efficiency must be in (0, 1], got %g", g.Efficiency)
	}
	if g.MaxElecKw <= 0 {
		return fmt.Errorf("generator.max_elec_kw must be positive, got %g", g.MaxElecKw)
	}

	if c.Bus.MinVolts >= c.Bus.MaxVolts {
		return fmt.Errorf("bus.min_volts %g must be below max_volts %g", c.Bus.MinVolts, c.Bus.MaxVolts)
	}
	return nil
}
