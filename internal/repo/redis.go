package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

const DefaultRedisKey = "tasktrackr:tasks"

// общий знаменатель *redis.Client и *redis.Tx
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps the collection as one JSON string under key. Update uses
// WATCH/MULTI and reruns the cycle when another writer touched the key first.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]model.Task, error) {
	return s.get(ctx, s.client)
}

func (s *RedisStore) Save(ctx context.Context, tasks []model.Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, fn MutateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		data, err := encodeTasks(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	return retryOnConflict(ctx, func() error {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			return errRetry
		}
		return err
	})
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) get(ctx context.Context, c stringGetter) ([]model.Task, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeTasks(data)
}
