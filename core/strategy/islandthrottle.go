package strategy

import "github.com/brg2/OpenEVT/core/model"

// islandThrottleStrategy starts and stops the engine on electrical demand
// like the island strategy, but once running it follows the pedal directly
// instead of seeking the efficiency island.
type islandThrottleStrategy struct{}

func (islandThrottleStrategy) TractionBoost() bool { return false }

func (islandThrottleStrategy) UpdateMode(ctx Context) model.EngineMode {
	return advanceMode(ctx, islandStart, islandStop)
}

func (islandThrottleStrategy) Command(ctx Context) Command {
	if ctx.State.Mode != model.ModeIsland {
		return idleCommand(ctx)
	}
	return directCommand(ctx)
}
