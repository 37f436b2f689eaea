// Package status maps the backend's transient recognition-status pushes onto
// the kiosk indicator, with timed reversion for non-terminal states.
package status

import (
	"encoding/json"
	"time"

	"kiosk/internal/render"
)

// Known status values pushed by the backend. Anything else (the backend also
// emits "error" on encoding-load failures) is treated as non-sticky.
const (
	StatusNoFace         = "no-face"
	StatusFaceDetected   = "face-detected"
	StatusFaceRecognized = "face-recognized"
)

// Update is the payload of a recognition_status message.
type Update struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DecodeUpdate parses a recognition_status payload.
func DecodeUpdate(data []byte) (Update, error) {
	var u Update
	err := json.Unmarshal(data, &u)
	return u, err
}

// Reconciler applies status updates to the indicator. Each update replaces
// the previous styling entirely. Non-sticky states revert to neutral after a
// timeout; reversion is guard-based — the deadline is an armed-at timestamp
// checked on tick, so a newer update supersedes it without timer cancellation.
type Reconciler struct {
	indicator   render.Indicator
	revertAfter time.Duration

	current string
	armedAt time.Time
}

// NewReconciler creates a reconciler reverting non-sticky states after revertAfter.
func NewReconciler(indicator render.Indicator, revertAfter time.Duration) *Reconciler {
	if revertAfter <= 0 {
		revertAfter = 3 * time.Second
	}
	return &Reconciler{indicator: indicator, revertAfter: revertAfter}
}

// OnStatus overwrites the current state with the incoming one.
func (r *Reconciler) OnStatus(u Update, now time.Time) {
	r.indicator.Set(u.Status, u.Message)
	r.current = u.Status
	if u.Status == StatusFaceRecognized {
		// Sticky until superseded or the session stops.
		r.armedAt = time.Time{}
		return
	}
	r.armedAt = now
}

// Tick reverts a non-sticky state whose window has elapsed.
func (r *Reconciler) Tick(now time.Time) {
	if r.armedAt.IsZero() {
		return
	}
	if now.Sub(r.armedAt) < r.revertAfter {
		return
	}
	r.indicator.Clear()
	r.current = ""
	r.armedAt = time.Time{}
}

// Current reports the status value in effect, or "" when neutral.
func (r *Reconciler) Current() string {
	return r.current
}

// Reset clears the indicator on session start/stop.
func (r *Reconciler) Reset() {
	r.indicator.Clear()
	r.current = ""
	r.armedAt = time.Time{}
}
