package status

import (
	"testing"
	"time"
)

type recordingIndicator struct {
	status  string
	message string
	clears  int
	sets    int
}

func (r *recordingIndicator) Set(status, message string) {
	r.status, r.message = status, message
	r.sets++
}

func (r *recordingIndicator) Clear() {
	r.status, r.message = "", ""
	r.clears++
}

func at(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func TestNonStickyAutoReverts(t *testing.T) {
	ind := &recordingIndicator{}
	r := NewReconciler(ind, 3*time.Second)

	r.OnStatus(Update{Status: StatusNoFace, Message: "no face detected"}, at(0))
	if ind.status != StatusNoFace {
		t.Fatalf("indicator = %q, want %q", ind.status, StatusNoFace)
	}

	r.Tick(at(2999))
	if ind.clears != 0 {
		t.Fatal("reverted early")
	}
	r.Tick(at(3000))
	if ind.clears != 1 {
		t.Fatal("did not revert after the window")
	}
	if r.Current() != "" {
		t.Errorf("current = %q, want neutral", r.Current())
	}
}

func TestStickyStatePersists(t *testing.T) {
	ind := &recordingIndicator{}
	r := NewReconciler(ind, 3*time.Second)

	// face-detected, then face-recognized 1s later: the latter is sticky and
	// survives well past the reversion window.
	r.OnStatus(Update{Status: StatusFaceDetected, Message: "face detected"}, at(0))
	r.OnStatus(Update{Status: StatusFaceRecognized, Message: "welcome"}, at(1000))

	r.Tick(at(10_000))
	if ind.clears != 0 {
		t.Fatal("sticky state auto-reverted")
	}
	if r.Current() != StatusFaceRecognized {
		t.Fatalf("current = %q, want %q", r.Current(), StatusFaceRecognized)
	}

	// A later non-sticky update overwrites it and does revert.
	r.OnStatus(Update{Status: StatusNoFace, Message: "no face detected"}, at(5000+10_000))
	if ind.status != StatusNoFace {
		t.Fatalf("indicator = %q, want %q", ind.status, StatusNoFace)
	}
	r.Tick(at(8000 + 10_000))
	if ind.clears != 1 {
		t.Fatal("did not revert by t+3000")
	}
}

func TestNewerStatusSupersedesPendingReversion(t *testing.T) {
	ind := &recordingIndicator{}
	r := NewReconciler(ind, 3*time.Second)

	r.OnStatus(Update{Status: StatusNoFace, Message: "no face"}, at(0))
	r.OnStatus(Update{Status: StatusFaceDetected, Message: "face"}, at(2500))

	// The first state's window has elapsed, but it was superseded: a tick at
	// t=3100 must not clear the newer state.
	r.Tick(at(3100))
	if ind.clears != 0 {
		t.Fatal("stale reversion fired against a newer state")
	}
	r.Tick(at(5500))
	if ind.clears != 1 {
		t.Fatal("newer state did not revert on its own window")
	}
}

func TestUnknownStatusTreatedAsNonSticky(t *testing.T) {
	ind := &recordingIndicator{}
	r := NewReconciler(ind, 3*time.Second)

	r.OnStatus(Update{Status: "error", Message: "encoding load failed"}, at(0))
	if ind.status != "error" {
		t.Fatalf("indicator = %q, want pass-through", ind.status)
	}
	r.Tick(at(3000))
	if ind.clears != 1 {
		t.Fatal("unknown status did not revert")
	}
}

func TestEachUpdateReplacesStyling(t *testing.T) {
	ind := &recordingIndicator{}
	r := NewReconciler(ind, 3*time.Second)

	r.OnStatus(Update{Status: StatusNoFace, Message: "a"}, at(0))
	r.OnStatus(Update{Status: StatusFaceDetected, Message: "b"}, at(100))
	if ind.sets != 2 || ind.status != StatusFaceDetected || ind.message != "b" {
		t.Fatalf("indicator = %q/%q after %d sets", ind.status, ind.message, ind.sets)
	}
}

func TestResetClearsIndicator(t *testing.T) {
	ind := &recordingIndicator{}
	r := NewReconciler(ind, 3*time.Second)

	r.OnStatus(Update{Status: StatusFaceRecognized, Message: "welcome"}, at(0))
	r.Reset()
	if ind.clears != 1 || r.Current() != "" {
		t.Fatal("reset did not clear the sticky state")
	}
	// No stale reversion after reset.
	r.Tick(at(60_000))
	if ind.clears != 1 {
		t.Fatal("tick after reset cleared again")
	}
}

func TestDecodeUpdate(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"status":"face-detected","message":"hi"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if u.Status != StatusFaceDetected || u.Message != "hi" {
		t.Fatalf("decoded %+v", u)
	}
}
