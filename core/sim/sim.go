// Package sim holds the powertrain state transition: a pure, deterministic
// step function advancing the full vehicle + electrical state by one fixed
// timestep. No I/O, no goroutines, no shared state; callers own pacing,
// telemetry and replay. Step never fails: every input is sanitized or
// clamped, and binding physical constraints surface as limiter flags on the
// returned state instead of errors.
package sim

import (
	"math"

	"github.com/brg2/OpenEVT/core/engine"
	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/strategy"
	"github.com/brg2/OpenEVT/internal/mathx"
)

const (
	gravity    = 9.81
	airDensity = 1.225

	// DefaultDtS is the reference timestep.
	DefaultDtS = 0.05
	minDtS     = 0.001
	maxDtS     = 1.0

	epsKw      = 1e-6
	speedFloor = 0.5 // m/s, guards force = power/speed at standstill

	coastPedal      = 0.02
	regenMinSpeed   = 0.5
	regenTaperSpeed = 5.0

	overspeedTaperStart = 0.95
	socCapTaperBand     = 0.05
	parasiticFrac       = 0.05
	evAssistMaxBoost    = 10.0
	sinkMinKw           = 0.1
)

// NewState seeds a run from the config: engine at idle, mode idle, SoC at
// its configured initial value, bus at nominal voltage, accumulators zero.
// The mode timer starts with the off dwell already served, so a first start
// is not held back; the dwell only spaces out restarts.
func NewState(cfg model.Config) model.State {
	cfg = cfg.Normalized()
	return model.State{
		EngineRPM: cfg.Engine.IdleRPM,
		RPMTarget: cfg.Engine.IdleRPM,
		Mode:      model.ModeIdle,
		ModeTimeS: cfg.Engine.MinOffTimeS,
		SoC:       cfg.Battery.SoCInitial,
		BusVolts:  cfg.Battery.NominalVolts,
	}
}

// ClampDt bounds a requested timestep to the range Step accepts. Zero and
// non-finite values fall back to DefaultDtS.
func ClampDt(dt float64) float64 {
	if dt == 0 {
		return DefaultDtS
	}
	return mathx.Clamp(mathx.Finite(dt, DefaultDtS), minDtS, maxDtS)
}

// Step advances the simulation by dt seconds and returns a wholly new
// state; prev is never modified. The stages run in a fixed order: kinematic
// setup, traction request shaping, overspeed taper, mode and engine
// command, engine availability, generator ceiling, double-rate-limited
// generation, battery arbitration, bus voltage clamping, power conservation
// closure, longitudinal dynamics, SoC/energy integration, limiter time
// accounting.
func Step(prev model.State, in model.Inputs, cfg model.Config, dt float64) model.State {
	cfg = cfg.Normalized()
	in = in.Sanitized()
	dt = ClampDt(dt)
	dtH := dt / 3600

	veh := cfg.Vehicle
	bat := cfg.Battery
	eng := cfg.Engine
	gen := cfg.Generator
	spec := engine.BuildSpec(eng)

	st := prev
	st.TimeS = prev.TimeS + dt
	st.Limits = model.LimitFlags{}

	// Kinematic setup from the speed this tick starts with.
	gradeRad := math.Atan(in.GradePct / 100)
	speed := math.Max(0, mathx.Finite(prev.SpeedMps, 0))
	dragN := 0.5 * airDensity * veh.DragArea * speed * speed
	rollN := veh.RollingCoeff * veh.MassKg * gravity * math.Cos(gradeRad)
	gradeN := veh.MassKg * gravity * math.Sin(gradeRad)
	wheelCircM := math.Max(math.Pi*veh.TireDiameterM, 1e-6)
	st.WheelRPM = speed / wheelCircM * 60
	st.MotorRPM = st.WheelRPM * veh.GearRatio * veh.DiffRatio

	// Traction request shaping: pedal to electrical power, EV-assist boost
	// when the strategy allows it and charge is above target, coast fade
	// near zero pedal, regen as a negative request term.
	strat, err := strategy.For(cfg.ControlMode)
	if err != nil {
		strat, _ = strategy.For(model.ControlIsland)
	}
	pedal := in.Accelerator
	req := pedal * veh.MotorPeakKw
	if strat.TractionBoost() && prev.SoC > bat.SoCTarget {
		head := math.Max(bat.SoCMax-bat.SoCTarget, 1e-3)
		boost := 1 + (evAssistMaxBoost-1)*mathx.Clamp((prev.SoC-bat.SoCTarget)/head, 0, 1)
		req = math.Min(req*boost, veh.MotorPeakKw)
	}
	if pedal < coastPedal && speed > 0 {
		req *= mathx.Smoothstep(0, coastPedal, pedal)
	}
	st.RegenActive = pedal < coastPedal && speed > regenMinSpeed && prev.SoC < veh.RegenMaxSoC
	if st.RegenActive {
		req -= veh.RegenMaxKw * mathx.Clamp(speed/regenTaperSpeed, 0, 1)
	}
	st.WheelsReqKw = elecToWheels(req, veh.DrivetrainEff)

	// Overspeed taper on the positive request. The tapered request decides
	// whether an electrical sink still exists, which gates the engine.
	taper := 1.0
	if st.MotorRPM > overspeedTaperStart*veh.MotorMaxRPM {
		band := math.Max((1-overspeedTaperStart)*veh.MotorMaxRPM, 1e-6)
		taper = mathx.Clamp((veh.MotorMaxRPM-st.MotorRPM)/band, 0, 1)
	}
	if taper < 1 && req > 0 {
		req *= taper
		st.Limits.TracPower = true
	}
	st.TracCapKw = taper * veh.MotorPeakKw
	hasSink := req > sinkMinKw || prev.SoC < bat.SoCMax-1e-3

	// Controller-side rise ramp, after boost and taper. Reductions apply
	// immediately so delivery can never outrun a lifted pedal.
	prevCmd := wheelsToElec(prev.WheelsCmdKw, veh.DrivetrainEff)
	tracCmd := req
	if req > prevCmd {
		tracCmd = math.Min(req, prevCmd+veh.TractionRampKwS*dt)
	}
	st.WheelsCmdKw = elecToWheels(tracCmd, veh.DrivetrainEff)

	// Mode transition and engine command via the active strategy, then the
	// physical RPM lag toward the commanded target.
	sctx := strategy.Context{
		State:     &st,
		In:        in,
		Cfg:       &cfg,
		Spec:      spec,
		Dt:        dt,
		TracReqKw: req,
		HasSink:   hasSink,
	}
	newMode := strat.UpdateMode(sctx)
	if newMode != prev.Mode {
		st.Mode = newMode
		st.ModeTimeS = 0
	} else {
		st.ModeTimeS = prev.ModeTimeS + dt
	}
	cmd := strat.Command(sctx)
	st.RPMTarget = mathx.Clamp(cmd.RPMTarget, eng.IdleRPM, eng.RedlineRPM)
	st.TorqueTargetNm = mathx.Clamp(cmd.TorqueTargetNm, 0, eng.MaxTorqueNm)
	st.Throttle = mathx.Clamp(cmd.Throttle, 0, 1)

	alpha := mathx.Clamp(dt/math.Max(eng.RPMTimeConstS, 1e-3), 0, 1)
	st.EngineRPM = mathx.Clamp(prev.EngineRPM+(st.RPMTarget-prev.EngineRPM)*alpha, eng.IdleRPM, eng.RedlineRPM)
	st.GenRPM = st.EngineRPM * gen.StepUpRatio

	// Available mechanical power at this RPM and throttle, less parasitic
	// losses growing quadratically with RPM.
	rpmFrac := st.EngineRPM / math.Max(eng.RedlineRPM, 1)
	availKw := engine.Availability(st.EngineRPM, eng.IdleRPM, eng.RedlineRPM, eng.EfficiencyRPM) * eng.MaxPowerKw * st.Throttle
	parasiticKw := parasiticFrac * eng.MaxPowerKw * rpmFrac * rpmFrac
	netMechKw := math.Max(0, availKw-parasiticKw)

	genCeilKw := math.Min(gen.MaxElecKw, netMechKw*gen.Efficiency)

	// Double rate limiting: the controller ramps its demand toward the
	// SoC-biased target, then the plant lags and slews toward the demand.
	genTarget := 0.0
	if st.Mode == model.ModeIsland && hasSink {
		genTarget = mathx.Clamp(cmd.GenTargetKw, 0, genCeilKw)
	}
	demandRamp := gen.DemandRampKwS * dt
	st.GenCmdKw = mathx.Clamp(prev.GenCmdKw+mathx.Clamp(genTarget-prev.GenCmdKw, -demandRamp, demandRamp), 0, gen.MaxElecKw)

	genAlpha := mathx.Clamp(dt/math.Max(gen.ResponseTimeS, 1e-3), 0, 1)
	genKw := prev.GenKw + (st.GenCmdKw-prev.GenKw)*genAlpha
	plantRamp := gen.RampKwS * dt
	genKw = prev.GenKw + mathx.Clamp(genKw-prev.GenKw, -plantRamp, plantRamp)
	st.GenKw = mathx.Clamp(genKw, 0, genCeilKw)

	// Battery covers the difference, inside SoC-scaled caps that taper to
	// zero at the SoC bounds.
	battKw := tracCmd - st.GenKw
	dischargeCap := bat.MaxDischargeKw * mathx.Clamp((prev.SoC-bat.SoCMin)/socCapTaperBand, 0, 1)
	chargeCap := bat.MaxChargeKw * mathx.Clamp((bat.SoCMax-prev.SoC)/socCapTaperBand, 0, 1)
	if battKw > dischargeCap {
		battKw = dischargeCap
		st.Limits.BattDischarge = true
	}
	if battKw < -chargeCap {
		battKw = -chargeCap
		st.Limits.BattCharge = true
	}

	// Internal-resistance bus model; battery power is additionally bounded
	// by what keeps the bus inside its voltage window.
	vNom := math.Max(bat.NominalVolts, 1)
	if bat.InternalOhms > 1e-9 {
		uvCapKw := math.Max(0, (vNom-cfg.Bus.MinVolts)*vNom/bat.InternalOhms/1000)
		ovCapKw := math.Max(0, (cfg.Bus.MaxVolts-vNom)*vNom/bat.InternalOhms/1000)
		if battKw > uvCapKw {
			battKw = uvCapKw
			st.Limits.BusUnder = true
		}
		if battKw < -ovCapKw {
			battKw = -ovCapKw
			st.Limits.BusOver = true
		}
	}
	st.BattKw = battKw
	st.BusVolts = mathx.Clamp(vNom-battKw*1000/vNom*bat.InternalOhms, cfg.Bus.MinVolts, cfg.Bus.MaxVolts)

	// Conservation closure: generation plus battery must never exceed the
	// commanded traction power; taper the generator if the clamps above
	// left a surplus. A shortfall against a positive command is the
	// traction limiter.
	tracElec := st.GenKw + st.BattKw
	if tracElec > tracCmd+epsKw {
		st.GenKw = math.Max(0, tracCmd-st.BattKw)
		tracElec = st.GenKw + st.BattKw
	}
	if tracCmd > 0 && tracElec < tracCmd-epsKw {
		st.Limits.TracPower = true
	}
	st.TracElecKw = tracElec

	// Longitudinal dynamics with an explicit regen braking term and an
	// effective-speed floor; velocity clamps at zero, no reverse rolling.
	st.WheelsKw = elecToWheels(st.TracElecKw, veh.DrivetrainEff)
	vEff := math.Max(speed, speedFloor)
	driveN := math.Max(0, st.WheelsKw) * 1000 / vEff
	regenN := math.Max(0, -st.WheelsKw) * 1000 / vEff
	netN := driveN - regenN - dragN - gradeN
	if speed > 1e-6 {
		netN -= rollN
	} else if netN > rollN {
		netN -= rollN
	} else {
		netN = 0
	}
	accel := netN / math.Max(veh.MassKg, 1)
	newSpeed := math.Max(0, speed+accel*dt)
	st.AccelMps2 = (newSpeed - speed) / dt
	st.SpeedMps = newSpeed
	st.DistanceM = prev.DistanceM + newSpeed*dt

	// SoC and the five monotonic accumulators.
	st.SoC = mathx.Clamp(prev.SoC-st.BattKw*dtH/math.Max(bat.CapacityKwh, 1e-3), bat.SoCMin, bat.SoCMax)
	st.Energy.TracOutKwh = prev.Energy.TracOutKwh + math.Max(0, st.TracElecKw)*dtH
	st.Energy.GenKwh = prev.Energy.GenKwh + st.GenKw*dtH
	st.Energy.BattOutKwh = prev.Energy.BattOutKwh + math.Max(0, st.BattKw)*dtH
	st.Energy.BattInKwh = prev.Energy.BattInKwh + math.Max(0, -st.BattKw)*dtH

	st.EngineMechKw = st.GenKw/math.Max(gen.Efficiency, 0.05) + parasiticKw
	st.FuelRateGph = st.EngineMechKw / math.Max(eng.ThermalEff*spec.Profile.EnergyKwhPerGal, 1e-3)
	st.Energy.FuelGal = prev.Energy.FuelGal + st.FuelRateGph*dtH

	// Limiter bookkeeping.
	if st.Limits.TracPower {
		st.LimitTimes.TracPowerS += dt
	}
	if st.Limits.BattDischarge {
		st.LimitTimes.BattDischargeS += dt
	}
	if st.Limits.BattCharge {
		st.LimitTimes.BattChargeS += dt
	}
	if st.Limits.BusUnder {
		st.LimitTimes.BusUnderS += dt
	}
	if st.Limits.BusOver {
		st.LimitTimes.BusOverS += dt
	}

	return st
}

// elecToWheels converts electrical traction power to mechanical wheel
// power: losses reduce drive power and inflate the mechanical cost of
// regen.
func elecToWheels(pKw, eff float64) float64 {
	eff = mathx.Clamp(eff, 0.05, 1)
	if pKw >= 0 {
		return pKw * eff
	}
	return pKw / eff
}

func wheelsToElec(pKw, eff float64) float64 {
	eff = mathx.Clamp(eff, 0.05, 1)
	if pKw >= 0 {
		return pKw / eff
	}
	return pKw * eff
}
