// Package capture abstracts the kiosk video source and encodes frames for
// transport. The backend accepts frames as base64 data URLs, matching the
// format it already consumes from browser clients.
package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
)

// ErrNotReady signals that the source has no frame yet. The throttle treats
// this as a transient precondition, not a failure.
var ErrNotReady = errors.New("capture: source not ready")

// Source provides the most recent camera frame. Ready reports whether a frame
// can be captured at all; Capture returns the current frame.
type Source interface {
	Ready() bool
	Capture() (image.Image, error)
}

// EncodeDataURL encodes a frame as a lossy JPEG data URL. Quality is kept low
// on purpose: the payload crosses the push channel on every emission and the
// recognizer does not need fidelity.
func EncodeDataURL(img image.Image, quality int) (string, error) {
	if img == nil {
		return "", errors.New("capture: nil frame")
	}
	if quality <= 0 || quality > 100 {
		quality = 40
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("capture: jpeg encode failed: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// StaticSource serves a fixed frame once set. It stands in for a camera in
// tests and on hosts without video hardware.
type StaticSource struct {
	mu    sync.Mutex
	frame image.Image
	err   error
}

// SetFrame installs the frame returned by subsequent captures.
func (s *StaticSource) SetFrame(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = img
	s.err = nil
}

// Fail makes subsequent captures return err.
func (s *StaticSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Ready reports whether a frame has been installed.
func (s *StaticSource) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame != nil
}

// Capture returns the installed frame.
func (s *StaticSource) Capture() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.frame == nil {
		return nil, ErrNotReady
	}
	return s.frame, nil
}
