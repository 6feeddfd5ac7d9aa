package blockcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zamorofthat/shieldcore/decision"
)

// Redis is a Cache backed by a shared Redis instance, letting a fleet
// of engine instances agree on recently-denied fingerprints. Grounded
// on the teacher's session RedisStore: a redis.Client, key-prefixed
// keys and a Ping at construction time. The kill-signal pub/sub channel
// and session index set have no analogue here and are dropped.
type Redis struct {
	client    *redis.Client
	keyPrefix string
}

// RedisOptions configures the Redis connection for the block cache.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedis builds a Redis-backed Cache and verifies connectivity with a
// Ping.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "shieldcore:block:"
	}

	return &Redis{client: client, keyPrefix: prefix}, nil
}

func (r *Redis) key(fingerprint string) string {
	return r.keyPrefix + fingerprint
}

// Get returns the Reason stored for fingerprint, relying on Redis's own
// TTL expiry rather than tracking an expiresAt field in the payload.
func (r *Redis) Get(ctx context.Context, fingerprint string) (decision.Reason, bool, error) {
	data, err := r.client.Get(ctx, r.key(fingerprint)).Bytes()
	if err == redis.Nil {
		return decision.Reason{}, false, nil
	}
	if err != nil {
		return decision.Reason{}, false, fmt.Errorf("reading block cache entry: %w", err)
	}

	var reason decision.Reason
	if err := json.Unmarshal(data, &reason); err != nil {
		return decision.Reason{}, false, fmt.Errorf("decoding block cache entry: %w", err)
	}
	return reason, true, nil
}

// Set writes reason, expiring the key at expiresAtUnix via Redis's
// native PX expiry. A past or present expiresAtUnix is clamped to a
// minimum TTL so the key still reaches Redis, consistent with the
// write still being observable for the remainder of the current tick.
func (r *Redis) Set(ctx context.Context, fingerprint string, reason decision.Reason, expiresAtUnix int64) error {
	data, err := json.Marshal(reason)
	if err != nil {
		return fmt.Errorf("encoding block cache entry: %w", err)
	}

	ttl := time.Until(time.Unix(expiresAtUnix, 0))
	if ttl <= 0 {
		ttl = time.Millisecond
	}

	if err := r.client.Set(ctx, r.key(fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("writing block cache entry: %w", err)
	}
	return nil
}

// TTL returns the remaining seconds Redis reports for fingerprint's
// key, or 0 if it is absent or has no expiry set.
func (r *Redis) TTL(ctx context.Context, fingerprint string) (int, error) {
	ttl, err := r.client.PTTL(ctx, r.key(fingerprint)).Result()
	if err != nil {
		return 0, fmt.Errorf("reading block cache ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, nil
	}
	return int(ttl / time.Second), nil
}

// Close releases the underlying Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Cache = (*Redis)(nil)
