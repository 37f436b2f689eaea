package recognition

import (
	"time"

	"kiosk/internal/render"
)

// Phase is the presenter's position in the announce/show cycle.
type Phase int

const (
	// PhaseIdle means nothing is queued or shown.
	PhaseIdle Phase = iota
	// PhaseAnnouncing means the acknowledgment overlay is up for the head event.
	PhaseAnnouncing
	// PhaseShowing means the detail view is visible, awaiting dismissal.
	PhaseShowing
)

// String names the phase for status reporting.
func (p Phase) String() string {
	switch p {
	case PhaseAnnouncing:
		return "announcing"
	case PhaseShowing:
		return "showing"
	default:
		return "idle"
	}
}

// Presenter drains the queue one event at a time. Consumption is two-phase:
// the head is read non-destructively when announced and removed only on
// dismissal, so a crash mid-presentation never loses or repeats an event.
type Presenter struct {
	queue       *Queue
	view        render.View
	announceFor time.Duration

	phase       Phase
	announcedAt time.Time
	attended    []string
	activeUser  string
}

// NewPresenter wires a presenter to its queue and view.
func NewPresenter(queue *Queue, view render.View, announceFor time.Duration) *Presenter {
	if announceFor <= 0 {
		announceFor = time.Second
	}
	return &Presenter{queue: queue, view: view, announceFor: announceFor}
}

// Poke starts a presentation if the presenter is idle and an event is waiting.
// The session calls it when an admission takes the queue from empty to one.
func (p *Presenter) Poke(now time.Time) {
	if p.phase != PhaseIdle {
		return
	}
	p.announce(now)
}

// Tick advances Announcing to Showing once the acknowledgment has run its
// course. The deadline is an armed-at timestamp, so a tick that arrives after
// a reset is a no-op.
func (p *Presenter) Tick(now time.Time) {
	if p.phase != PhaseAnnouncing {
		return
	}
	if now.Sub(p.announcedAt) < p.announceFor {
		return
	}
	p.view.HideAcknowledgment()
	p.view.ShowUserDetail()
	p.phase = PhaseShowing
}

// Dismiss handles the user closing the detail view: the shown event is
// removed, and if more are waiting the next announcement starts immediately
// without passing through Idle.
func (p *Presenter) Dismiss(now time.Time) {
	if p.phase != PhaseShowing {
		return
	}
	p.view.HideUserDetail()
	p.queue.Pop()
	if p.queue.Len() > 0 {
		p.announce(now)
		return
	}
	p.phase = PhaseIdle
	p.activeUser = ""
}

// CurrentPhase reports the presentation phase.
func (p *Presenter) CurrentPhase() Phase {
	return p.phase
}

// ActiveUserID is the opaque id of the subject being presented, if any.
func (p *Presenter) ActiveUserID() string {
	return p.activeUser
}

// AttendedDates returns the attended-date set of the current subject, for the
// calendar breakdown.
func (p *Presenter) AttendedDates() []string {
	return p.attended
}

// Reset drops any presentation in progress on session start/stop.
func (p *Presenter) Reset() {
	switch p.phase {
	case PhaseAnnouncing:
		p.view.HideAcknowledgment()
	case PhaseShowing:
		p.view.HideUserDetail()
	}
	p.phase = PhaseIdle
	p.announcedAt = time.Time{}
	p.attended = nil
	p.activeUser = ""
}

func (p *Presenter) announce(now time.Time) {
	head, ok := p.queue.Head()
	if !ok {
		return
	}
	p.view.SetUserDetail(head.Detail())
	p.attended = head.AttendedDates
	p.activeUser = head.UserID
	p.view.ShowAcknowledgment()
	p.announcedAt = now
	p.phase = PhaseAnnouncing
}
