package strategy

import (
	"math"

	"github.com/brg2/OpenEVT/core/engine"
	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/internal/mathx"
)

// directStrategy gives the driver direct authority: pedal maps linearly to
// RPM, torque follows instantaneous availability, and the engine runs
// whenever the pedal is pressed. The only strategy under which EV-assist
// boosts traction per pedal.
type directStrategy struct{}

func (directStrategy) TractionBoost() bool { return true }

func (directStrategy) UpdateMode(ctx Context) model.EngineMode {
	return advanceMode(ctx, directStart, directStop)
}

func directStart(ctx Context) bool {
	return ctx.In.Accelerator > ctx.Cfg.Engine.PedalOn
}

func directStop(ctx Context) bool {
	return ctx.In.Accelerator < ctx.Cfg.Engine.PedalOff
}

func (directStrategy) Command(ctx Context) Command {
	if ctx.State.Mode != model.ModeIsland {
		return idleCommand(ctx)
	}
	return directCommand(ctx)
}

// directCommand maps the pedal straight onto the engine: RPM interpolates
// idle to redline, torque is the pedal's share of what the availability
// curve offers at that RPM.
func directCommand(ctx Context) Command {
	e := ctx.Cfg.Engine
	pedal := mathx.Clamp(ctx.In.Accelerator, 0, 1)

	rpmRaw := mathx.Lerp(e.IdleRPM, e.RedlineRPM, pedal)
	availKw := engine.Availability(rpmRaw, e.IdleRPM, e.RedlineRPM, e.EfficiencyRPM) * e.MaxPowerKw
	torqueRaw := mathx.Clamp(pedal*availKw*engine.KwPerRPMNm/math.Max(rpmRaw, 1), 0, e.MaxTorqueNm)

	return filtered(ctx, rpmRaw, torqueRaw, pedal, electricalNeedKw(ctx))
}
