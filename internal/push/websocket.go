package push

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// WebSocketChannel is the default push transport: a long-lived websocket
// client connected to the backend. Reads and writes share one connection;
// writes are serialized with a mutex because gorilla allows one writer.
type WebSocketChannel struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// DialWebSocket connects to the backend push endpoint.
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WebSocketChannel, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("push: dial %s failed (%s): %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("push: dial %s failed: %w", url, err)
	}
	return &WebSocketChannel{conn: conn}, nil
}

// Publish writes one message envelope to the socket.
func (c *WebSocketChannel) Publish(ctx context.Context, msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("push: write failed: %w", err)
	}
	return nil
}

// Consume streams inbound messages until the socket closes or ctx is done.
func (c *WebSocketChannel) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()
	go func() {
		defer close(out)
		for {
			var msg Message
			if err := c.conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("push: read failed: %v", err)
				}
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close closes the underlying connection.
func (c *WebSocketChannel) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return c.conn.Close()
}
