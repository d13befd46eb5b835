package telemetry

// Recorder captures an unbounded snapshot trace between Start and Stop,
// independent of the rolling History. Like History it is owned by the
// runner's loop and not safe for concurrent use.
type Recorder struct {
	active bool
	snaps  []Snapshot
}

// Start clears any previous trace and begins recording.
func (r *Recorder) Start() {
	r.snaps = nil
	r.active = true
}

// Stop ends recording and returns the captured trace.
func (r *Recorder) Stop() []Snapshot {
	r.active = false
	out := r.snaps
	r.snaps = nil
	return out
}

// Observe appends the snapshot when recording is active.
func (r *Recorder) Observe(sn Snapshot) {
	if r.active {
		r.snaps = append(r.snaps, sn)
	}
}

// Active reports whether a trace is being captured.
func (r *Recorder) Active() bool { return r.active }

// Len reports the number of snapshots captured so far.
func (r *Recorder) Len() int { return len(r.snaps) }
