package capture

import (
	"encoding/base64"
	"errors"
	"image"
	"strings"
	"testing"
)

func TestEncodeDataURL(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	got, err := EncodeDataURL(img, 40)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("missing data URL prefix: %.40s", got)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, prefix))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	// JPEG SOI marker.
	if len(raw) < 2 || raw[0] != 0xFF || raw[1] != 0xD8 {
		t.Fatal("payload is not a JPEG")
	}
}

func TestEncodeDataURLNilFrame(t *testing.T) {
	if _, err := EncodeDataURL(nil, 40); err == nil {
		t.Fatal("nil frame should error")
	}
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{}
	if src.Ready() {
		t.Fatal("empty source reports ready")
	}
	if _, err := src.Capture(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}

	src.SetFrame(image.NewGray(image.Rect(0, 0, 2, 2)))
	if !src.Ready() {
		t.Fatal("source with a frame reports not ready")
	}
	if _, err := src.Capture(); err != nil {
		t.Fatalf("capture: %v", err)
	}

	src.Fail(errors.New("wedged"))
	if _, err := src.Capture(); err == nil {
		t.Fatal("failing source should error")
	}
	// SetFrame clears the injected failure.
	src.SetFrame(image.NewGray(image.Rect(0, 0, 2, 2)))
	if _, err := src.Capture(); err != nil {
		t.Fatalf("capture after recovery: %v", err)
	}
}
