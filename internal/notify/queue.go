package notify

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/scheduler"
)

// DefaultDuration is how long a message stays visible.
const DefaultDuration = 3000 * time.Millisecond

// State is what the user currently sees.
type State struct {
	Message string `json:"message"`
	Visible bool   `json:"visible"`
}

// Queue is a single-slot, self-dismissing message channel.
// A new message always replaces the current one and restarts the timer.
type Queue struct {
	duration time.Duration
	slot     *scheduler.Slot
	onChange func()

	mu    sync.Mutex
	state State
	seq   uint64
}

// Option configures a Queue.
type Option func(*Queue)

// WithDuration overrides DefaultDuration.
func WithDuration(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.duration = d
		}
	}
}

// WithClock drives dismissal from clock instead of wall time.
func WithClock(clock scheduler.Clock) Option {
	return func(q *Queue) { q.slot = scheduler.NewSlot(clock) }
}

// OnChange registers fn to run after every visible change, including
// timer-driven dismissals. fn is called without internal locks held.
func OnChange(fn func()) Option {
	return func(q *Queue) { q.onChange = fn }
}

// New creates an empty, hidden queue.
func New(opts ...Option) *Queue {
	q := &Queue{duration: DefaultDuration}
	for _, opt := range opts {
		opt(q)
	}
	if q.slot == nil {
		q.slot = scheduler.NewSlot(nil)
	}
	return q
}

// Show displays message for the configured duration, superseding any
// message already on screen.
func (q *Queue) Show(message string) {
	q.mu.Lock()
	q.seq++
	seq := q.seq
	q.state = State{Message: message, Visible: true}
	q.slot.Schedule(q.duration, func() { q.expire(seq) })
	q.mu.Unlock()

	q.changed()
}

// Hide dismisses the current message immediately.
func (q *Queue) Hide() {
	q.mu.Lock()
	q.seq++
	q.slot.Cancel()
	wasVisible := q.state.Visible
	q.state.Visible = false
	q.mu.Unlock()

	if wasVisible {
		q.changed()
	}
}

// Snapshot returns the current state.
func (q *Queue) Snapshot() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *Queue) expire(seq uint64) {
	q.mu.Lock()
	if q.seq != seq {
		q.mu.Unlock()
		return
	}
	q.state.Visible = false
	q.mu.Unlock()

	q.changed()
}

func (q *Queue) changed() {
	if q.onChange != nil {
		q.onChange()
	}
}
