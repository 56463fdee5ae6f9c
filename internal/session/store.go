// internal/session/store.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store records live session ids so that logout can revoke a token before it expires.
type Store interface {
	Put(ctx context.Context, id string, userID int64, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const redisKeyPrefix = "papertrade:session:"

// RedisStore keeps sessions in Redis with a TTL per key.
type RedisStore struct {
	client RedisClient
}

// NewRedisStore creates a Store backed by client.
func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, id string, userID int64, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+id, userID, ttl).Err()
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}

// MemoryStore is an in-process Store for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, id string, _ int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.sessions, id)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
