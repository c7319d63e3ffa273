package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed session store.
// It's suitable for multi-server deployments with shared session state.
type RedisStore struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	closed bool
}

// RedisStoreOption configures RedisStore behavior.
type RedisStoreOption func(*redisStoreConfig)

type redisStoreConfig struct {
	prefix string
}

// DefaultKeyPrefix is the prefix prepended to session keys in Redis.
const DefaultKeyPrefix = "sess:"

// WithKeyPrefix sets the key prefix for session keys.
// Default: "sess:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(c *redisStoreConfig) {
		c.prefix = prefix
	}
}

// NewRedisStore creates a new Redis-backed session store.
// The client is owned by the store after this call; Close closes it.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	cfg := &redisStoreConfig{
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &RedisStore{
		client: client,
		prefix: cfg.prefix,
	}
}

// NewRedisStoreURL creates a RedisStore from a Redis URL
// (e.g. "redis://localhost:6379/0").
func NewRedisStoreURL(rawURL string, opts ...RedisStoreOption) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return NewRedisStore(redis.NewClient(redisOpts), opts...), nil
}

// key returns the Redis key for a session ID.
func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

// isClosed reports whether Close has been called.
func (r *RedisStore) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Ping verifies connectivity to the Redis server.
func (r *RedisStore) Ping(ctx context.Context) error {
	if r.isClosed() {
		return ErrStoreClosed{}
	}
	return r.client.Ping(ctx).Err()
}

// Save stores session data with an expiration time.
func (r *RedisStore) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if r.isClosed() {
		return ErrStoreClosed{}
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; make sure no stale entry lingers.
		return r.client.Del(ctx, r.key(sessionID)).Err()
	}

	return r.client.Set(ctx, r.key(sessionID), data, ttl).Err()
}

// Load retrieves session data if it exists and hasn't expired.
// Expiry is enforced by Redis TTLs, so a missing key means expired or gone.
func (r *RedisStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if r.isClosed() {
		return nil, ErrStoreClosed{}
	}

	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes a session from the store.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if r.isClosed() {
		return ErrStoreClosed{}
	}

	return r.client.Del(ctx, r.key(sessionID)).Err()
}

// Touch updates the expiration time for a session.
func (r *RedisStore) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if r.isClosed() {
		return ErrStoreClosed{}
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(sessionID)).Err()
	}

	return r.client.Expire(ctx, r.key(sessionID), ttl).Err()
}

// Close shuts down the store and the underlying Redis client.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}
