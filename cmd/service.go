package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brg2/OpenEVT/config"
	"github.com/brg2/OpenEVT/core/factory"
	coremon "github.com/brg2/OpenEVT/core/monitoring"
	"github.com/brg2/OpenEVT/core/runner"
	"github.com/brg2/OpenEVT/core/telemetry"
	"github.com/brg2/OpenEVT/infra/logger"
	"github.com/brg2/OpenEVT/infra/metrics"
	"github.com/brg2/OpenEVT/infra/monitoring"
	"github.com/brg2/OpenEVT/infra/mqtt"
	"github.com/brg2/OpenEVT/internal/eventbus"
)

// service wires the live simulation: runner, event bus, telemetry sinks,
// metrics server and MQTT bridge.
type service struct {
	runner   *runner.Runner
	bus      *eventbus.Bus[telemetry.Snapshot]
	bridge   *mqtt.Bridge
	influx   telemetry.Sink
	log      logger.Logger
	promAddr string
}

func newService(cfg *config.Config) (*service, error) {
	if cfg.Logging.Pretty {
		os.Setenv("APP_ENV", "dev")
	}
	logg := logger.NewWithLevel("service", cfg.Logging.Level)

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	bus := eventbus.New[telemetry.Snapshot]()
	svc := &service{bus: bus, log: logg}

	// The runner calls its direct sink inline on every published tick, so
	// it has to be cheap; Prometheus gauge sets are. Influx writes block on
	// I/O and hang off the bus instead.
	direct := telemetry.Sink(telemetry.NopSink{})
	if cfg.Metrics.Prometheus.Enabled {
		s, err := telemetry.NewSink([]factory.ModuleConfig{{Type: "prometheus"}})
		if err != nil {
			return nil, fmt.Errorf("prometheus sink: %w", err)
		}
		direct = s
		svc.promAddr = cfg.Metrics.Prometheus.Addr
	}
	if cfg.Metrics.Influx.Enabled {
		s, err := telemetry.NewSink([]factory.ModuleConfig{influxModule(cfg.Metrics.Influx)})
		if err != nil {
			return nil, fmt.Errorf("influx sink: %w", err)
		}
		svc.influx = s
	}

	svc.runner = runner.New(cfg.Powertrain, runner.Options{
		DtS:           cfg.Sim.DtS,
		Speed:         cfg.Sim.Speed,
		SnapshotEvery: cfg.Sim.SnapshotEvery,
		HistorySize:   cfg.Sim.HistorySize,
		Sink:          direct,
		Bus:           bus,
		Log:           logger.NewWithLevel("runner", cfg.Logging.Level),
	})

	if cfg.MQTT.Enabled {
		b, err := mqtt.NewBridge(cfg.MQTT, svc.runner, cfg.Powertrain, bus)
		if err != nil {
			return nil, fmt.Errorf("mqtt bridge: %w", err)
		}
		svc.bridge = b
	}
	return svc, nil
}

// influxModule converts the typed section into a sink registry module.
func influxModule(cfg config.InfluxConfig) factory.ModuleConfig {
	return factory.ModuleConfig{
		Type: "influx",
		Conf: map[string]any{
			"url":    cfg.URL,
			"token":  cfg.Token,
			"org":    cfg.Org,
			"bucket": cfg.Bucket,
		},
	}
}

// Run starts the adapters and drives the simulation loop until ctx is done.
func (s *service) Run(ctx context.Context) error {
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("metrics server: %v", err)
			}
		}()
	}
	if s.influx != nil {
		metrics.StartCollector(ctx, s.bus, s.influx)
	}
	if s.bridge != nil {
		go func() {
			if err := s.bridge.Run(ctx); err != nil {
				s.log.Errorf("mqtt bridge: %v", err)
			}
		}()
	}
	s.runner.Play()
	return s.runner.Run(ctx)
}

// Close releases the adapters and flushes pending error reports.
func (s *service) Close() error {
	if s.bridge != nil {
		s.bridge.Close()
	}
	err := s.runner.Close()
	if c, ok := s.influx.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	return err
}
