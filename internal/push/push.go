// Package push carries typed real-time messages between the kiosk and the
// attendance backend, independent of the concrete transport.
package push

import (
	"context"
	"encoding/json"
)

// Message types exchanged with the backend.
const (
	TypeUserRecognized    = "user_recognized"
	TypeRecognitionStatus = "recognition_status"
	TypeVideoFrame        = "video_frame"
)

// Message is one envelope on the push channel.
type Message struct {
	Type string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals payload into a message envelope.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}

// Channel is the abstraction over different push transports.
type Channel interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
	Close() error
}

// InMemory is a channel-backed transport for dev/testing. Inbound messages are
// fed with Inject; outbound messages published by the kiosk are read from Sent.
type InMemory struct {
	in  chan Message
	out chan Message
}

// NewInMemory creates a bounded in-memory channel.
func NewInMemory(size int) *InMemory {
	return &InMemory{
		in:  make(chan Message, size),
		out: make(chan Message, size),
	}
}

// Publish enqueues an outbound message. When the buffer is full the oldest
// message is dropped, so a publisher without a reader never blocks.
func (m *InMemory) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.out <- msg:
		return nil
	default:
	}
	select {
	case <-m.out:
	default:
	}
	select {
	case m.out <- msg:
	default:
	}
	return nil
}

// Consume returns the inbound message stream.
func (m *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-m.in:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Inject delivers an inbound message, as the backend would.
func (m *InMemory) Inject(ctx context.Context, msg Message) error {
	select {
	case m.in <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sent exposes outbound messages for assertions.
func (m *InMemory) Sent() <-chan Message {
	return m.out
}

// Close is a no-op for the in-memory transport.
func (m *InMemory) Close() error {
	return nil
}
