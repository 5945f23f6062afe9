package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is a durable shared tier. Because Redis is visible to every
// process using the same key, the backend doubles as the cross-context
// change channel: each write publishes a tick that other Watch-ers turn into
// a reload. Last writer wins; there is no conflict resolution.
type RedisBackend struct {
	client  *redis.Client
	key     string
	channel string
	ttl     time.Duration
}

// NewRedisBackend creates a Redis-backed tier storing the bundle under key.
// Change notifications are published on key + ":changes".
func NewRedisBackend(client *redis.Client, key string) (*RedisBackend, error) {
	if client == nil {
		return nil, errors.New("redis backend requires a client")
	}
	if key == "" {
		return nil, errors.New("redis backend requires a key")
	}
	return &RedisBackend{
		client:  client,
		key:     key,
		channel: key + ":changes",
	}, nil
}

// WithTTL makes stored bundles expire server-side after ttl. The Store
// enforces session age on load regardless; the TTL only keeps abandoned
// bundles from lingering.
func (b *RedisBackend) WithTTL(ttl time.Duration) *RedisBackend {
	b.ttl = ttl
	return b
}

func (b *RedisBackend) Name() string {
	return "redis"
}

func (b *RedisBackend) Get(ctx context.Context) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, b.ttl).Err(); err != nil {
		return err
	}
	// Notification is best-effort; a lost tick only delays adoption until
	// the next load.
	_ = b.client.Publish(ctx, b.channel, "saved").Err()
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context) error {
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		return err
	}
	_ = b.client.Publish(ctx, b.channel, "cleared").Err()
	return nil
}

// Watch implements [Notifier] over Redis pub/sub. The returned channel
// receives one tick per observed change and closes when ctx is done.
func (b *RedisBackend) Watch(ctx context.Context) (<-chan struct{}, error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}
