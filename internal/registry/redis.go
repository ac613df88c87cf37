package registry

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "socket_session:"

// Redis shares the socket-to-session mapping across server instances.
// Entries expire on their own so a crashed instance cannot leak keys;
// heartbeats re-establish any binding the fallback path recovers.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Bind(ctx context.Context, socketID, sessionID string) error {
	return r.client.Set(ctx, keyPrefix+socketID, sessionID, r.ttl).Err()
}

func (r *Redis) Lookup(ctx context.Context, socketID string) (string, bool, error) {
	sessionID, err := r.client.Get(ctx, keyPrefix+socketID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sessionID, true, nil
}

func (r *Redis) Unbind(ctx context.Context, socketID string) error {
	return r.client.Del(ctx, keyPrefix+socketID).Err()
}
