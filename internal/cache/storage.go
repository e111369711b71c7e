package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStorage adapts the Redis client to fiber.Storage so the session
// middleware can persist sessions in Redis. Keys are namespaced under
// "session:" to keep them apart from cache-aside entries.
type SessionStorage struct {
	rdb *redis.Client
}

// NewSessionStorage returns a SessionStorage backed by the given client.
func NewSessionStorage(rdb *redis.Client) *SessionStorage {
	return &SessionStorage{rdb: rdb}
}

func (s *SessionStorage) Get(key string) ([]byte, error) {
	b, err := s.rdb.Get(context.Background(), SessionKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.rdb.Set(context.Background(), SessionKey(key), val, exp).Err()
}

func (s *SessionStorage) Delete(key string) error {
	return s.rdb.Del(context.Background(), SessionKey(key)).Err()
}

// Reset removes every session key. Scan is used instead of KEYS to avoid
// blocking Redis on large keyspaces.
func (s *SessionStorage) Reset() error {
	ctx := context.Background()
	iter := s.rdb.Scan(ctx, 0, SessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the shared client is closed by the server shutdown path.
func (s *SessionStorage) Close() error {
	return nil
}
