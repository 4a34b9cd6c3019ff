// Package idempotency remembers which task an Idempotency-Key created, so a
// retried POST returns the first created task instead of a duplicate.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tasktrackr:idem:"

// Store maps idempotency keys to task ids.
type Store interface {
	// Lookup returns the task id recorded for key, if any.
	Lookup(ctx context.Context, key string) (taskID string, ok bool, err error)
	// Remember binds key to taskID unless the key is already taken, and returns
	// the task id the key is bound to afterwards.
	Remember(ctx context.Context, key, taskID string) (string, error)
	// Forget drops a binding whose task no longer exists.
	Forget(ctx context.Context, key string) error
}

type entry struct {
	taskID  string
	expires time.Time
}

// MemoryStore держит ключи в памяти процесса; просроченные удаляются при обращении.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (m *MemoryStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if m.expired(e) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.taskID, true, nil
}

func (m *MemoryStore) Remember(ctx context.Context, key, taskID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
		}
	}
	if e, taken := m.entries[key]; taken {
		return e.taskID, nil
	}

	e := entry{taskID: taskID}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[key] = e
	return taskID, nil
}

func (m *MemoryStore) Forget(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) expired(e entry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// RedisStore shares idempotency keys between server instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

const rememberAttempts = 3

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(key string) string {
	return keyPrefix + key
}

func (r *RedisStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	id, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, true, nil
}

func (r *RedisStore) Remember(ctx context.Context, key, taskID string) (string, error) {
	for attempt := 0; attempt < rememberAttempts; attempt++ {
		added, err := r.client.SetNX(ctx, r.key(key), taskID, r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("idempotency remember: %w", err)
		}
		if added {
			return taskID, nil
		}

		id, ok, err := r.Lookup(ctx, key)
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
		// ключ успел истечь между SETNX и GET
	}
	return "", fmt.Errorf("idempotency remember: key %q expired %d times in a row", key, rememberAttempts)
}

func (r *RedisStore) Forget(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
