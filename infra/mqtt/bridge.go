package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/monitoring"
	"github.com/brg2/OpenEVT/core/telemetry"
	"github.com/brg2/OpenEVT/infra/logger"
	"github.com/brg2/OpenEVT/internal/eventbus"
)

// bridgeBuffer bounds the snapshot backlog a slow broker can build up
// before the bus starts dropping for this subscriber.
const bridgeBuffer = 64

// Controller is the part of the runner the bridge drives.
type Controller interface {
	Play()
	Pause()
	SetSpeed(mult float64)
	SetInputs(in model.Inputs)
	Reset(cfg model.Config)
}

// Bridge connects a running simulation to an MQTT broker. Snapshots taken
// from the event bus go out on the state topic; remote input and control
// messages are applied to the controller.
type Bridge struct {
	cli        pahoClient
	cfg        Config
	ctrl       Controller
	bus        *eventbus.Bus[telemetry.Snapshot]
	powertrain model.Config
	log        logger.Logger
}

// NewBridge connects to the broker, subscribes to the input and control
// topics and announces presence on the retained status topic. The powertrain
// config is what a remote reset restores.
func NewBridge(cfg Config, ctrl Controller, powertrain model.Config, bus *eventbus.Bus[telemetry.Snapshot]) (*Bridge, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_bridge")
	b := &Bridge{cfg: cfg, ctrl: ctrl, bus: bus, powertrain: powertrain, log: log}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.InputTopic(), cfg.qosFor("input"), b.onInput); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.InputTopic(), token.Error())
			monitoring.CaptureException(token.Error(), map[string]string{"module": "mqtt", "topic": cfg.InputTopic()})
		}
		if token := c.Subscribe(cfg.ControlTopic(), cfg.qosFor("control"), b.onControl); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.ControlTopic(), token.Error())
			monitoring.CaptureException(token.Error(), map[string]string{"module": "mqtt", "topic": cfg.ControlTopic()})
		}
		if token := c.Publish(cfg.StatusTopic(), cfg.qosFor("status"), true, []byte("online")); token.Wait() && token.Error() != nil {
			log.Errorf("publish status: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	b.cli = c
	return b, nil
}

// Run streams snapshots from the bus to the state topic until ctx is
// cancelled or the bus closes.
func (b *Bridge) Run(ctx context.Context) error {
	ch := b.bus.SubscribeBuffered(bridgeBuffer)
	defer b.bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case sn, ok := <-ch:
			if !ok {
				return nil
			}
			b.publishState(sn)
		}
	}
}

func (b *Bridge) publishState(sn telemetry.Snapshot) {
	payload, err := json.Marshal(sn)
	if err != nil {
		b.log.Errorf("marshal snapshot: %v", err)
		return
	}
	if token := b.cli.Publish(b.cfg.StateTopic(), b.cfg.qosFor("state"), false, payload); token.Wait() && token.Error() != nil {
		b.log.Errorf("publish state: %v", token.Error())
	}
}

func (b *Bridge) onInput(_ paho.Client, msg paho.Message) {
	var in model.Inputs
	if err := json.Unmarshal(msg.Payload(), &in); err != nil {
		b.log.Errorf("invalid input payload: %v", err)
		return
	}
	b.ctrl.SetInputs(in)
}

func (b *Bridge) onControl(_ paho.Client, msg paho.Message) {
	var m struct {
		Action string   `json:"action"`
		Speed  *float64 `json:"speed"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		b.log.Errorf("invalid control payload: %v", err)
		return
	}
	if m.Speed != nil {
		b.ctrl.SetSpeed(*m.Speed)
	}
	switch m.Action {
	case "play":
		b.ctrl.Play()
	case "pause":
		b.ctrl.Pause()
	case "reset":
		b.ctrl.Reset(b.powertrain)
	case "":
	default:
		b.log.Warnf("unknown control action %q", m.Action)
	}
}

// Close flips the status flag to offline and disconnects.
func (b *Bridge) Close() {
	if b.cli != nil && b.cli.IsConnected() {
		if token := b.cli.Publish(b.cfg.StatusTopic(), b.cfg.qosFor("status"), true, []byte("offline")); token.Wait() && token.Error() != nil {
			b.log.Errorf("publish status: %v", token.Error())
		}
		b.cli.Disconnect(250)
	}
}
