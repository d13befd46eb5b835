package telemetry

// History is a fixed-capacity ring of the most recent snapshots. It is not
// safe for concurrent use; the runner owns it and serves reads through its
// command loop.
type History struct {
	buf  []Snapshot
	next int
	full bool
}

// NewHistory returns a ring holding at most capacity snapshots.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Snapshot, capacity)}
}

// Push appends a snapshot, evicting the oldest once the ring is full.
func (h *History) Push(sn Snapshot) {
	h.buf[h.next] = sn
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
}

// Cap reports the ring's fixed capacity.
func (h *History) Cap() int { return len(h.buf) }

// Len reports how many snapshots the ring currently holds.
func (h *History) Len() int {
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// Snapshots returns the held snapshots oldest first, as a copy.
func (h *History) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, h.Len())
	if h.full {
		out = append(out, h.buf[h.next:]...)
	}
	out = append(out, h.buf[:h.next]...)
	return out
}

// Last returns the most recent snapshot, if any.
func (h *History) Last() (Snapshot, bool) {
	if h.Len() == 0 {
		return Snapshot{}, false
	}
	i := h.next - 1
	if i < 0 {
		i = len(h.buf) - 1
	}
	return h.buf[i], true
}
