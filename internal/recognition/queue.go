package recognition

import "time"

// Rejection reasons reported by Admit.
const (
	RejectStale     = "stale"
	RejectCooldown  = "cooldown"
	RejectDuplicate = "duplicate"
)

// Queue filters inbound events and holds the accepted ones in FIFO order.
// The head is the event currently shown or next to show; it is removed only
// when the presenter reports an explicit dismissal.
//
// Admission applies a global cooldown since the last accepted event regardless
// of identity, so a distinct subject arriving within the window is dropped
// along with duplicates. That matches the deployed behavior and is kept as a
// product decision; see DESIGN.md.
type Queue struct {
	cooldown time.Duration

	pending      []Event
	lastRoll     string
	lastAccepted int64
}

// NewQueue creates a queue with the given burst cooldown window.
func NewQueue(cooldown time.Duration) *Queue {
	if cooldown <= 0 {
		cooldown = 5 * time.Second
	}
	return &Queue{cooldown: cooldown}
}

// Admit decides whether ev enters the queue. Checks run in order and
// short-circuit: timestamp fallback, staleness, cooldown, duplicate
// suppression. The reason names the first failed check.
func (q *Queue) Admit(ev Event, now time.Time) (admitted bool, reason string) {
	if ev.Timestamp == 0 {
		ev.Timestamp = now.UnixMilli()
	}
	if ev.Timestamp <= q.lastAccepted {
		return false, RejectStale
	}
	if q.lastAccepted > 0 && now.UnixMilli()-q.lastAccepted < q.cooldown.Milliseconds() {
		return false, RejectCooldown
	}
	// A subject re-detected while still queued or showing is suppressed; once
	// the queue has drained the same subject may come through again.
	if ev.RollNumber == q.lastRoll && len(q.pending) > 0 {
		return false, RejectDuplicate
	}

	q.pending = append(q.pending, ev)
	q.lastAccepted = ev.Timestamp
	q.lastRoll = ev.RollNumber
	return true, ""
}

// Head returns the front event without removing it.
func (q *Queue) Head() (Event, bool) {
	if len(q.pending) == 0 {
		return Event{}, false
	}
	return q.pending[0], true
}

// Pop removes and returns the front event.
func (q *Queue) Pop() (Event, bool) {
	if len(q.pending) == 0 {
		return Event{}, false
	}
	head := q.pending[0]
	q.pending = q.pending[1:]
	return head, true
}

// Len reports how many accepted events await presentation.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Reset clears pending events and admission state on session start/stop.
func (q *Queue) Reset() {
	q.pending = nil
	q.lastRoll = ""
	q.lastAccepted = 0
}
