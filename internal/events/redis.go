package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Feed on Redis pub/sub, one channel per idea.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Feed = (*Redis)(nil)

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("events: parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("events: connect to redis: %w", err)
	}

	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "productIdeas:"}
}

func (r *Redis) channel(ideaID string) string {
	return r.prefix + ideaID
}

// Publish sends e on the idea's channel.
func (r *Redis) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events.Redis.Publish: marshal: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel(e.IdeaID), payload).Err(); err != nil {
		return fmt.Errorf("events.Redis.Publish: %w", err)
	}
	return nil
}

// Subscribe confirms the subscription before returning, so events published
// after Subscribe returns are never missed.
func (r *Redis) Subscribe(ctx context.Context, ideaID string) (<-chan Event, error) {
	ps := r.client.Subscribe(ctx, r.channel(ideaID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("events.Redis.Subscribe: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					slog.Warn("events: dropping malformed message", "channel", msg.Channel, "err", err)
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
