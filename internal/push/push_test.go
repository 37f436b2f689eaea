package push

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := NewInMemory(4)
	msgs, err := ch.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	msg, err := NewMessage(TypeRecognitionStatus, map[string]string{"status": "no-face"})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if err := ch.Inject(ctx, msg); err != nil {
		t.Fatalf("inject: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != TypeRecognitionStatus {
			t.Fatalf("type = %q", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("inbound message never delivered")
	}

	out, err := NewMessage(TypeVideoFrame, "data:image/jpeg;base64,xxxx")
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if err := ch.Publish(ctx, out); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case got := <-ch.Sent():
		if got.Type != TypeVideoFrame {
			t.Fatalf("type = %q", got.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("outbound message never delivered")
	}
}

func TestInMemoryPublishHonorsContext(t *testing.T) {
	ch := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg, _ := NewMessage(TypeVideoFrame, "x")
	if err := ch.Publish(ctx, msg); err == nil {
		t.Fatal("publish on a full channel with a dead context should fail")
	}
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	ch := NewInMemory(2)

	for _, payload := range []string{"frame-1", "frame-2", "frame-3"} {
		msg, err := NewMessage(TypeVideoFrame, payload)
		if err != nil {
			t.Fatalf("build message: %v", err)
		}
		if err := ch.Publish(ctx, msg); err != nil {
			t.Fatalf("publish %s: %v", payload, err)
		}
	}

	// The oldest frame was evicted; the two newest survive in order.
	for _, want := range []string{`"frame-2"`, `"frame-3"`} {
		select {
		case got := <-ch.Sent():
			if string(got.Data) != want {
				t.Fatalf("data = %s, want %s", got.Data, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("message %s never delivered", want)
		}
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := NewInMemory(1)
	msgs, err := ch.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	cancel()

	select {
	case _, ok := <-msgs:
		if ok {
			t.Fatal("message after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("stream not closed after cancel")
	}
}
