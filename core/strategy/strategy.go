// Package strategy implements the interchangeable powertrain controllers.
// Each strategy decides, once per tick, whether the engine should run
// (a two-state hysteresis machine over idle/island) and what RPM, torque
// and throttle to command. Strategies are stateless; everything they need
// arrives in the Context and all persistence lives in the model.State they
// read.
package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/brg2/OpenEVT/core/engine"
	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/internal/mathx"
)

// ErrUnknownMode is returned by For when no strategy is registered for the
// requested control mode.
var ErrUnknownMode = errors.New("unknown control mode")

const (
	// stopRatio scales the start threshold into the stop threshold, the
	// hysteresis gap that prevents start/stop chatter.
	stopRatio = 0.6
	// cmdFilterTauS low-passes RPM/torque targets before they become
	// commanded values, separate from the engine's physical spin-up lag.
	cmdFilterTauS = 0.25
	// searchSamples is the BSFC grid resolution per command.
	searchSamples = 48
	// idleThrottle keeps the idle governor alive when the engine is off
	// load.
	idleThrottle = 0.05
)

// Context is the per-tick view a strategy operates on. TracReqKw is the
// traction electrical request after overspeed tapering; HasSink reports
// whether any electrical consumer (traction or chargeable battery) exists.
type Context struct {
	State     *model.State
	In        model.Inputs
	Cfg       *model.Config
	Spec      engine.Spec
	Dt        float64
	TracReqKw float64
	HasSink   bool
}

// Command is a strategy's engine-side output for one tick.
type Command struct {
	RPMTarget      float64
	TorqueTargetNm float64
	Throttle       float64
	GenTargetKw    float64
}

// Strategy pairs the mode state machine with the command computation.
// TractionBoost reports whether the EV-assist pedal multiplier applies
// under this strategy.
type Strategy interface {
	UpdateMode(ctx Context) model.EngineMode
	Command(ctx Context) Command
	TractionBoost() bool
}

var registry = map[model.ControlMode]Strategy{
	model.ControlIsland:         islandStrategy{},
	model.ControlIslandThrottle: islandThrottleStrategy{},
	model.ControlDirect:         directStrategy{},
}

// For returns the strategy registered for the control mode.
func For(mode model.ControlMode) (Strategy, error) {
	s, ok := registry[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return s, nil
}

// ChargeBiasKw is the continuous SOC-error bias blended into the generator
// target: positive below the SOC target (generate more), negative above
// (generate less), saturating at the battery's max charge power one full
// band away from the target. No deadband; the bias passes smoothly through
// zero at the target.
func ChargeBiasKw(cfg *model.Config, soc float64) float64 {
	b := cfg.Battery
	err := (b.SoCTarget - soc) / math.Max(b.SoCTargetBand, 1e-3)
	return mathx.Clamp(err, -1, 1) * b.MaxChargeKw
}

func electricalNeedKw(ctx Context) float64 {
	need := ctx.TracReqKw + ChargeBiasKw(ctx.Cfg, ctx.State.SoC)
	return mathx.Clamp(need, 0, ctx.Cfg.Generator.MaxElecKw)
}

// advanceMode runs the shared two-state hysteresis machine. A transition
// out of a mode requires both the minimum dwell time in that mode and the
// strategy predicate.
func advanceMode(ctx Context, start, stop func(Context) bool) model.EngineMode {
	e := ctx.Cfg.Engine
	switch ctx.State.Mode {
	case model.ModeIsland:
		if ctx.State.ModeTimeS >= e.MinOnTimeS && stop(ctx) {
			return model.ModeIdle
		}
		return model.ModeIsland
	default:
		if ctx.State.ModeTimeS >= e.MinOffTimeS && start(ctx) {
			return model.ModeIsland
		}
		return model.ModeIdle
	}
}

func lowpass(prev, target, dt, tau float64) float64 {
	a := mathx.Clamp(dt/math.Max(tau, 1e-3), 0, 1)
	return prev + (target-prev)*a
}

// filtered applies the first-order command filter against the previous
// tick's targets and assembles the command.
func filtered(ctx Context, rpmRaw, torqueRaw, throttle, genTarget float64) Command {
	return Command{
		RPMTarget:      lowpass(ctx.State.RPMTarget, rpmRaw, ctx.Dt, cmdFilterTauS),
		TorqueTargetNm: lowpass(ctx.State.TorqueTargetNm, torqueRaw, ctx.Dt, cmdFilterTauS),
		Throttle:       mathx.Clamp(throttle, 0, 1),
		GenTargetKw:    math.Max(0, genTarget),
	}
}

func idleCommand(ctx Context) Command {
	return filtered(ctx, ctx.Cfg.Engine.IdleRPM, 0, idleThrottle, 0)
}
