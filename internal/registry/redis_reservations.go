package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var releaseOwnedScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisReservations struct {
	client *redis.Client
	prefix string
}

// NewRedisReservations stores reservations as Redis keys so that several bot
// replicas share one duplicate check.
func NewRedisReservations(client *redis.Client, prefix string) Reservations {
	if prefix == "" {
		prefix = "ticketbot:reservation:"
	}
	return &redisReservations{client: client, prefix: prefix}
}

func (r *redisReservations) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, "", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve %s: %w", key, err)
	}
	return ok, nil
}

func (r *redisReservations) Held(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check reservation %s: %w", key, err)
	}
	return n > 0, nil
}

// Bind overwrites the value of a held key and keeps its expiry.
func (r *redisReservations) Bind(ctx context.Context, key, owner string) error {
	err := r.client.SetArgs(ctx, r.prefix+key, owner, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("bind reservation %s: %w", key, err)
	}
	return nil
}

func (r *redisReservations) Owner(ctx context.Context, key string) (string, bool, error) {
	owner, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read reservation %s: %w", key, err)
	}
	return owner, true, nil
}

func (r *redisReservations) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

func (r *redisReservations) ReleaseOwned(ctx context.Context, key, owner string) (bool, error) {
	n, err := releaseOwnedScript.Run(ctx, r.client, []string{r.prefix + key}, owner).Int()
	if err != nil {
		return false, fmt.Errorf("release %s: %w", key, err)
	}
	return n > 0, nil
}
