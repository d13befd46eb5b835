package metrics

import (
	"github.com/brg2/OpenEVT/core/factory"
	"github.com/brg2/OpenEVT/core/telemetry"
)

// init registers the built-in telemetry sinks.
func init() {
	_ = telemetry.RegisterSink("nop", func(map[string]any) (telemetry.Sink, error) {
		return telemetry.NopSink{}, nil
	})

	_ = telemetry.RegisterSink("prometheus", func(map[string]any) (telemetry.Sink, error) {
		// The /metrics server address lives in the metrics config; the
		// sink itself only needs the registerer.
		return NewPromSink()
	})

	_ = telemetry.RegisterSink("influx", func(conf map[string]any) (telemetry.Sink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
