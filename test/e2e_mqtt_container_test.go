//go:build !no_containers

package test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/runner"
	"github.com/brg2/OpenEVT/core/telemetry"
	"github.com/brg2/OpenEVT/infra/metrics"
	"github.com/brg2/OpenEVT/infra/mqtt"
	"github.com/brg2/OpenEVT/internal/eventbus"
	"github.com/brg2/OpenEVT/test/util"
)

// connectObserver connects a raw paho client playing the remote operator:
// it drives the bridge over the control topics and watches what comes back.
func connectObserver(broker string, t *testing.T) paho.Client {
	t.Helper()
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("observer")
	cli := paho.NewClient(opts)
	var connErr error
	for i := 0; i < 5; i++ {
		token := cli.Connect()
		token.Wait()
		connErr = token.Error()
		if connErr == nil {
			return cli
		}
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	t.Logf("observer connect failed to %s: %v", broker, connErr)
	t.Skip("Mosquitto not ready after retries")
	return nil
}

// snapshotLog collects snapshots decoded off the state topic.
type snapshotLog struct {
	mu    sync.Mutex
	snaps []telemetry.Snapshot
}

func (l *snapshotLog) add(sn telemetry.Snapshot) {
	l.mu.Lock()
	l.snaps = append(l.snaps, sn)
	l.mu.Unlock()
}

func (l *snapshotLog) all() []telemetry.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]telemetry.Snapshot(nil), l.snaps...)
}

func publish(t *testing.T, cli paho.Client, topic, payload string) {
	t.Helper()
	if token := cli.Publish(topic, 1, false, []byte(payload)); token.Wait() && token.Error() != nil {
		t.Fatalf("publish %s: %v", topic, token.Error())
	}
}

func TestBridgeEndToEndWithMQTTContainer(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Fatalf("start mosquitto: %v", err)
	}
	defer cleanup()

	obs := connectObserver(broker, t)
	defer obs.Disconnect(100)

	var log snapshotLog
	if token := obs.Subscribe("evt/state", 0, func(_ paho.Client, m paho.Message) {
		var sn telemetry.Snapshot
		if err := json.Unmarshal(m.Payload(), &sn); err == nil {
			log.add(sn)
		}
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe state: %v", token.Error())
	}
	status := make(chan string, 4)
	if token := obs.Subscribe("evt/status", 1, func(_ paho.Client, m paho.Message) {
		status <- string(m.Payload())
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe status: %v", token.Error())
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	cfg := model.DefaultConfig()
	bus := eventbus.New[telemetry.Snapshot]()
	defer bus.Close()
	r := runner.New(cfg, runner.Options{DtS: 0.05, Speed: 8, Sink: sink, Bus: bus})

	bridge, err := mqtt.NewBridge(mqtt.Config{
		Enabled:   true,
		Broker:    broker,
		ClientID:  "evt-e2e",
		BaseTopic: "evt",
	}, r, cfg, bus)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	defer bridge.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = r.Run(runCtx) }()
	go func() { _ = bridge.Run(runCtx) }()

	select {
	case msg := <-status:
		if msg != "online" {
			t.Fatalf("status = %q, want online", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no status announcement")
	}

	// Drive remotely: full pedal, then play.
	publish(t, obs, "evt/input", `{"accelerator":1}`)
	publish(t, obs, "evt/control", `{"action":"play"}`)

	deadline := time.Now().Add(15 * time.Second)
	moving := false
	for time.Now().Before(deadline) {
		snaps := log.all()
		if n := len(snaps); n > 0 && snaps[n-1].State.SpeedMps > 1 {
			moving = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !moving {
		t.Fatal("vehicle never moved after remote input")
	}

	snaps := log.all()
	if snaps[0].RunID == "" {
		t.Error("missing run ID on published snapshots")
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Seq <= snaps[i-1].Seq {
			t.Fatalf("sequence not increasing at %d: %d then %d", i, snaps[i-1].Seq, snaps[i].Seq)
		}
	}

	// The direct Prometheus sink observed the same run.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsTS := httptest.NewServer(mux)
	defer metricsTS.Close()

	waitCtx, waitCancel := context.WithTimeout(ctx, util.MetricTimeout)
	defer waitCancel()
	if err := util.WaitForMetric(waitCtx, metricsTS.URL+"/metrics", "evt_speed_mps"); err != nil {
		t.Errorf("metric wait: %v", err)
	}

	// Pause lands asynchronously; the snapshot stream must then stop.
	publish(t, obs, "evt/control", `{"action":"pause"}`)
	stopped := false
	pauseDeadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(pauseDeadline) {
		before := len(log.all())
		time.Sleep(700 * time.Millisecond)
		if len(log.all()) == before {
			stopped = true
			break
		}
	}
	if !stopped {
		t.Error("snapshots kept flowing after pause")
	}
}
