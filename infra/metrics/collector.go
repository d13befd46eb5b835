package metrics

import (
	"context"

	"github.com/brg2/OpenEVT/core/telemetry"
	"github.com/brg2/OpenEVT/internal/eventbus"
)

// collectorBuffer gives slow sink writes headroom before snapshots drop.
const collectorBuffer = 64

// StartCollector subscribes to the snapshot bus and forwards every event to
// the sink. It stops when the context is canceled or the bus closes. Sink
// errors are swallowed: the tick stream must never stall on a slow or
// failing backend.
func StartCollector(ctx context.Context, bus *eventbus.Bus[telemetry.Snapshot], sink telemetry.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.SubscribeBuffered(collectorBuffer)
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case sn, ok := <-sub:
				if !ok {
					return
				}
				_ = sink.RecordSnapshot(sn)
			}
		}
	}()
}
