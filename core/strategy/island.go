package strategy

import (
	"math"

	"github.com/brg2/OpenEVT/core/engine"
	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/internal/mathx"
)

// islandStrategy seeks the engine's efficiency island: the engine starts on
// electrical demand and runs at the lowest-BSFC operating point that covers
// it, regardless of pedal position.
type islandStrategy struct{}

func (islandStrategy) TractionBoost() bool { return false }

func (islandStrategy) UpdateMode(ctx Context) model.EngineMode {
	return advanceMode(ctx, islandStart, islandStop)
}

func islandStart(ctx Context) bool {
	return ctx.HasSink && electricalNeedKw(ctx) > ctx.Cfg.Engine.StartDemandKw
}

func islandStop(ctx Context) bool {
	return !ctx.HasSink || electricalNeedKw(ctx) < stopRatio*ctx.Cfg.Engine.StartDemandKw
}

func (islandStrategy) Command(ctx Context) Command {
	if ctx.State.Mode != model.ModeIsland {
		return idleCommand(ctx)
	}
	return islandCommand(ctx)
}

// islandCommand computes the efficiency-seeking command shared by the
// island and island_throttle mode machines.
func islandCommand(ctx Context) Command {
	e := ctx.Cfg.Engine
	need := electricalNeedKw(ctx)
	mech := need / math.Max(ctx.Cfg.Generator.Efficiency, 0.05)

	pt := ctx.Spec.BestPointForPower(mech, ctx.Spec.RPM, ctx.Spec.Torque, searchSamples)
	if !pt.Feasible {
		pt = fallbackPoint(ctx.Spec, mech)
	}

	// Blend from idle toward the island point as demand rises from zero so
	// the mode transition produces no throttle step.
	blendKw := math.Max(5, 0.75*e.StartDemandKw)
	w := mathx.Smoothstep(0, blendKw, need)
	rpmRaw := mathx.Lerp(e.IdleRPM, pt.RPM, w)
	torqueRaw := mathx.Lerp(0, pt.TorqueNm, w)

	avail := engine.Availability(rpmRaw, e.IdleRPM, e.RedlineRPM, e.EfficiencyRPM) * e.MaxPowerKw
	throttle := mathx.Clamp(mech/math.Max(avail, 0.1), 0, 1)

	return filtered(ctx, rpmRaw, torqueRaw, throttle, need)
}

// fallbackPoint is the graceful-degradation point when the search finds no
// feasible candidate: the island center with torque scaled toward the
// requested power, clamped into the torque bounds.
func fallbackPoint(spec engine.Spec, mechKw float64) engine.OperatingPoint {
	torque := mathx.Clamp(mechKw*engine.KwPerRPMNm/math.Max(spec.CenterRPM, 1), spec.Torque.Min, spec.Torque.Max)
	return engine.OperatingPoint{
		RPM:      spec.CenterRPM,
		TorqueNm: torque,
		PowerKw:  torque * spec.CenterRPM / engine.KwPerRPMNm,
		BSFC:     spec.Value(spec.CenterRPM, torque),
		Feasible: false,
	}
}
