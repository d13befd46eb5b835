// Package runner owns all simulation concurrency. The step function is pure
// and synchronous; a Runner wraps it in a single goroutine that owns state,
// inputs and config exclusively, paces ticks against the wall clock and
// applies control commands between steps. Commands are closures executed in
// the loop, so no locking is needed anywhere.
package runner

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/brg2/OpenEVT/core/drivecycle"
	"github.com/brg2/OpenEVT/core/logger"
	"github.com/brg2/OpenEVT/core/model"
	"github.com/brg2/OpenEVT/core/monitoring"
	"github.com/brg2/OpenEVT/core/sim"
	"github.com/brg2/OpenEVT/core/telemetry"
	"github.com/brg2/OpenEVT/internal/eventbus"
	"github.com/brg2/OpenEVT/internal/mathx"
)

const (
	// MaxSpeed bounds the pacing multiplier.
	MaxSpeed = 64.0

	// maxStepsPerWakeup sheds backlog when the host cannot keep up with
	// the requested speed instead of spiraling further behind.
	maxStepsPerWakeup = 256

	defaultHistory = 4096
	cmdBuffer      = 16
)

// Options configure a Runner. Zero values pick sensible defaults.
type Options struct {
	DtS           float64        // simulation timestep, defaults to sim.DefaultDtS
	Speed         float64        // initial pacing multiplier, defaults to 1
	SnapshotEvery int            // sink/bus publish cadence in ticks, min 1
	HistorySize   int            // ring buffer capacity
	Sink          telemetry.Sink // optional, called synchronously each publish
	Bus           *eventbus.Bus[telemetry.Snapshot]
	Log           logger.Logger
}

// Runner advances a simulation in wall-clock time. All exported methods may
// be called from any goroutine; they are applied inside the Run loop.
type Runner struct {
	cfg    model.Config
	state  model.State
	inputs model.Inputs

	dt      float64
	speed   float64
	playing bool

	cycle      *drivecycle.Cycle
	cycleStart float64
	rec        *drivecycle.Recorder
	recStart   float64

	runID   string
	seq     uint64
	every   int
	history *telemetry.History
	sink    telemetry.Sink
	bus     *eventbus.Bus[telemetry.Snapshot]
	log     logger.Logger

	cmdCh chan func(*Runner)
	done  chan struct{}
}

// New creates a paused Runner seeded from cfg.
func New(cfg model.Config, opts Options) *Runner {
	cfg = cfg.Normalized()
	every := opts.SnapshotEvery
	if every < 1 {
		every = 1
	}
	size := opts.HistorySize
	if size < 1 {
		size = defaultHistory
	}
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	speed := 1.0
	if opts.Speed != 0 {
		speed = mathx.Clamp(mathx.Finite(opts.Speed, 1), 0, MaxSpeed)
	}
	return &Runner{
		cfg:     cfg,
		state:   sim.NewState(cfg),
		dt:      sim.ClampDt(opts.DtS),
		speed:   speed,
		runID:   uuid.NewString(),
		every:   every,
		history: telemetry.NewHistory(size),
		sink:    opts.Sink,
		bus:     opts.Bus,
		log:     log,
		cmdCh:   make(chan func(*Runner), cmdBuffer),
		done:    make(chan struct{}),
	}
}

// Run executes the simulation loop until ctx is canceled. It must be called
// exactly once.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	interval := time.Duration(r.dt * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	r.log.Infof("run %s started, dt=%.3fs speed=%.2fx", r.runID, r.dt, r.speed)

	last := time.Now()
	var acc float64
	for {
		select {
		case <-ctx.Done():
			r.log.Infof("run %s stopped at t=%.2fs", r.runID, r.state.TimeS)
			return nil
		case cmd := <-r.cmdCh:
			cmd(r)
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			if !r.playing {
				acc = 0
				continue
			}
			acc += elapsed * r.speed
			steps := 0
			for acc >= r.dt && steps < maxStepsPerWakeup {
				r.tick()
				acc -= r.dt
				steps++
			}
			if steps == maxStepsPerWakeup {
				acc = 0
			}
		}
	}
}

// tick advances one step and publishes the result.
func (r *Runner) tick() {
	if r.cycle != nil && r.cycle.Done(r.state.TimeS-r.cycleStart) {
		r.log.Infof("drive cycle %q complete at t=%.2fs", r.cycle.Name, r.state.TimeS)
		r.cycle = nil
		r.playing = false
		return
	}
	in := r.inputs
	if r.cycle != nil {
		in = r.cycle.At(r.state.TimeS - r.cycleStart)
	}
	if r.rec != nil {
		r.rec.Observe(r.state.TimeS-r.recStart, in)
	}
	r.state = sim.Step(r.state, in, r.cfg, r.dt)
	r.seq++
	sn := telemetry.Snapshot{RunID: r.runID, Seq: r.seq, Wall: time.Now(), State: r.state}
	r.history.Push(sn)
	if r.seq%uint64(r.every) == 0 {
		r.publish(sn)
	}
}

func (r *Runner) publish(sn telemetry.Snapshot) {
	if r.bus != nil {
		r.bus.Publish(sn)
	}
	if r.sink != nil {
		if err := r.sink.RecordSnapshot(sn); err != nil {
			r.log.Errorf("record snapshot: %v", err)
			monitoring.CaptureException(err, map[string]string{"run_id": r.runID})
		}
	}
}

// do queues a command for the loop. Commands queued before Run starts are
// applied as soon as it does; after the loop exits they are dropped.
func (r *Runner) do(f func(*Runner)) {
	select {
	case r.cmdCh <- f:
	case <-r.done:
	}
}

// Play resumes stepping.
func (r *Runner) Play() { r.do(func(r *Runner) { r.playing = true }) }

// Pause stops stepping; state is retained.
func (r *Runner) Pause() { r.do(func(r *Runner) { r.playing = false }) }

// SetSpeed changes the pacing multiplier, clamped to [0, MaxSpeed].
func (r *Runner) SetSpeed(mult float64) {
	r.do(func(r *Runner) {
		r.speed = mathx.Clamp(mathx.Finite(mult, 1), 0, MaxSpeed)
	})
}

// SetInputs replaces the live driver inputs. While a drive cycle is loaded
// the scripted inputs win; the stored ones take effect once it ends.
func (r *Runner) SetInputs(in model.Inputs) {
	r.do(func(r *Runner) { r.inputs = in.Sanitized() })
}

// LoadCycle scripts the inputs from a drive cycle starting at the current
// simulation time. The runner pauses itself when the cycle completes.
func (r *Runner) LoadCycle(c drivecycle.Cycle) {
	r.do(func(r *Runner) {
		r.cycle = &c
		r.cycleStart = r.state.TimeS
		r.log.Infof("drive cycle %q loaded, %.1fs", c.Name, c.Duration())
	})
}

// ClearCycle returns control to live inputs.
func (r *Runner) ClearCycle() {
	r.do(func(r *Runner) { r.cycle = nil })
}

// StartRecording begins capturing inputs as a drive cycle named name. A
// recording already in progress is discarded.
func (r *Runner) StartRecording(name string) {
	r.do(func(r *Runner) {
		r.rec = drivecycle.NewRecorder(name)
		r.recStart = r.state.TimeS
	})
}

// StopRecording ends the capture and returns the recorded cycle, or nil
// when nothing was being recorded.
func (r *Runner) StopRecording() *drivecycle.Cycle {
	reply := make(chan *drivecycle.Cycle, 1)
	r.do(func(r *Runner) {
		if r.rec == nil {
			reply <- nil
			return
		}
		c := r.rec.Cycle()
		r.rec = nil
		reply <- &c
	})
	select {
	case c := <-reply:
		return c
	case <-r.done:
		return nil
	}
}

// Reset starts a fresh run under a new configuration: new run ID, state
// reseeded, history cleared, any cycle or recording dropped. The playing
// flag is retained.
func (r *Runner) Reset(cfg model.Config) {
	r.do(func(r *Runner) {
		r.cfg = cfg.Normalized()
		r.state = sim.NewState(r.cfg)
		r.inputs = model.Inputs{}
		r.cycle = nil
		r.rec = nil
		r.seq = 0
		r.runID = uuid.NewString()
		r.history = telemetry.NewHistory(r.history.Cap())
		r.log.Infof("run %s reset", r.runID)
	})
}

// State returns the current simulation state. After the loop has exited it
// returns the final state. The reply select must also watch done: a command
// queued into the buffer as the loop exits would never produce a reply.
func (r *Runner) State() model.State {
	reply := make(chan model.State, 1)
	r.do(func(r *Runner) { reply <- r.state })
	select {
	case st := <-reply:
		return st
	case <-r.done:
		return r.state
	}
}

// History returns the retained snapshots, oldest first.
func (r *Runner) History() []telemetry.Snapshot {
	reply := make(chan []telemetry.Snapshot, 1)
	r.do(func(r *Runner) { reply <- r.history.Snapshots() })
	select {
	case snaps := <-reply:
		return snaps
	case <-r.done:
		return r.history.Snapshots()
	}
}

// RunID identifies the current run across sinks.
func (r *Runner) RunID() string {
	reply := make(chan string, 1)
	r.do(func(r *Runner) { reply <- r.runID })
	select {
	case id := <-reply:
		return id
	case <-r.done:
		return r.runID
	}
}

// Close releases the configured sink if it holds resources.
func (r *Runner) Close() error {
	if c, ok := r.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
