// Package throttle paces outbound video frames so the backend is never
// flooded: at most one frame per interval, never two captures in flight.
package throttle

import (
	"context"
	"log"
	"time"

	"kiosk/internal/capture"
	"kiosk/internal/metrics"
	"kiosk/internal/push"
)

// Throttle decides on every scheduler tick whether to capture and emit one
// frame. State is owned by the session loop; methods are not safe for
// concurrent use.
type Throttle struct {
	source      capture.Source
	channel     push.Channel
	minInterval time.Duration
	quality     int
	metrics     *metrics.Metrics

	lastEmit time.Time
	inFlight bool
}

// New creates a throttle with the given minimum inter-frame interval.
func New(source capture.Source, channel push.Channel, minInterval time.Duration, quality int, m *metrics.Metrics) *Throttle {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	return &Throttle{
		source:      source,
		channel:     channel,
		minInterval: minInterval,
		quality:     quality,
		metrics:     m,
	}
}

// OnTick runs the O(1) emission decision. A source that is not ready is a
// no-op, not an error; the next tick re-arms. Failures anywhere in the
// capture→encode→publish path are logged and swallowed, and still consume the
// interval slot so a broken camera cannot busy-loop at tick rate.
func (t *Throttle) OnTick(ctx context.Context, now time.Time) {
	if !t.source.Ready() {
		return
	}
	if t.inFlight || now.Sub(t.lastEmit) < t.minInterval {
		return
	}

	t.inFlight = true
	// Released on every exit path; a stuck flag would starve all future frames.
	defer func() { t.inFlight = false }()
	t.lastEmit = now

	frame, err := t.source.Capture()
	if err != nil {
		log.Printf("throttle: capture failed: %v", err)
		t.metrics.FrameFailed()
		return
	}
	dataURL, err := capture.EncodeDataURL(frame, t.quality)
	if err != nil {
		log.Printf("throttle: %v", err)
		t.metrics.FrameFailed()
		return
	}
	msg, err := push.NewMessage(push.TypeVideoFrame, dataURL)
	if err != nil {
		log.Printf("throttle: encode frame message failed: %v", err)
		t.metrics.FrameFailed()
		return
	}
	if err := t.channel.Publish(ctx, msg); err != nil {
		log.Printf("throttle: publish frame failed: %v", err)
		t.metrics.FrameFailed()
		return
	}
	t.metrics.FrameEmitted()
}

// InFlight reports whether a capture is in progress.
func (t *Throttle) InFlight() bool {
	return t.inFlight
}

// Reset clears pacing state on session start/stop.
func (t *Throttle) Reset() {
	t.lastEmit = time.Time{}
	t.inFlight = false
}
