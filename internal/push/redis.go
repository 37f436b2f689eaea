package push

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisChannel implements the push channel over Redis pub/sub, for deployments
// where the kiosk and the backend share a broker instead of a direct socket.
type RedisChannel struct {
	client   *redis.Client
	inbound  string
	outbound string
	sub      *redis.PubSub
}

// NewRedisClient connects to redis with short timeouts.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

// NewRedisChannel builds a channel over two pub/sub topics.
func NewRedisChannel(client *redis.Client, inbound, outbound string) *RedisChannel {
	if inbound == "" {
		inbound = "kiosk:events"
	}
	if outbound == "" {
		outbound = "kiosk:frames"
	}
	return &RedisChannel{client: client, inbound: inbound, outbound: outbound}
}

// Publish sends an outbound message on the frame topic.
func (c *RedisChannel) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, c.outbound, payload).Err()
}

// Consume subscribes to the event topic and streams decoded messages.
func (c *RedisChannel) Consume(ctx context.Context) (<-chan Message, error) {
	c.sub = c.client.Subscribe(ctx, c.inbound)
	if _, err := c.sub.Receive(ctx); err != nil {
		return nil, err
	}
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case raw, ok := <-c.sub.Channel():
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					log.Printf("push: bad message on %s: %v", c.inbound, err)
					continue
				}
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

// Close tears down the subscription and the client.
func (c *RedisChannel) Close() error {
	if c.sub != nil {
		_ = c.sub.Close()
	}
	return c.client.Close()
}
