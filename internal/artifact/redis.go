package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/uxaudit/internal/model"
)

// keyPrefix namespaces artifact keys.
const keyPrefix = "uxaudit:artifact:"

// RedisStore keeps artifacts in Redis. Expiry is delegated to the key TTL,
// so Sweep has nothing to do.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// RedisConfig holds connection settings for NewRedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreFromClient(client, cfg.TTL)
}

// NewRedisStoreFromClient wraps an existing client. A non-positive ttl uses
// DefaultTTL.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(ref model.ArtifactRef) string {
	return keyPrefix + string(ref)
}

// Put stores the artifact as one JSON value with the store TTL.
func (s *RedisStore) Put(ctx context.Context, a *Artifact) (model.ArtifactRef, error) {
	if len(a.Data) == 0 {
		return "", ErrEmpty
	}
	stamp(a, s.now(), s.ttl)

	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := s.client.Set(ctx, key(a.Ref), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}
	return a.Ref, nil
}

// Get returns the artifact or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, ref model.ArtifactRef) (*Artifact, error) {
	if !validRef(ref) {
		return nil, ErrNotFound
	}

	data, err := s.client.Get(ctx, key(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	if Digest(a.Data) != a.Digest {
		return nil, ErrCorrupt
	}
	return &a, nil
}

// Delete removes the key.
func (s *RedisStore) Delete(ctx context.Context, ref model.ArtifactRef) error {
	if !validRef(ref) {
		return nil
	}
	return s.client.Del(ctx, key(ref)).Err()
}

// Sweep is a no-op; Redis expires keys itself.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
