package repo

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

const DefaultEtcdKey = "tasktrackr/tasks"

// EtcdStore keeps the collection under a single key. Update commits through a
// Txn guarded by the key's ModRevision, so a concurrent writer forces a retry.
type EtcdStore struct {
	client *clientv3.Client
	key    string
}

func NewEtcdStore(endpoints []string, dialTimeout time.Duration, key string) (*EtcdStore, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return NewEtcdStoreWithClient(cli, key), nil
}

func NewEtcdStoreWithClient(cli *clientv3.Client, key string) *EtcdStore {
	if key == "" {
		key = DefaultEtcdKey
	}
	return &EtcdStore{client: cli, key: key}
}

func (s *EtcdStore) Load(ctx context.Context) ([]model.Task, error) {
	tasks, _, err := s.get(ctx)
	return tasks, err
}

func (s *EtcdStore) Save(ctx context.Context, tasks []model.Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	if _, err := s.client.Put(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("etcd put %s: %w", s.key, err)
	}
	return nil
}

func (s *EtcdStore) Update(ctx context.Context, fn MutateFunc) error {
	return retryOnConflict(ctx, func() error {
		current, rev, err := s.get(ctx)
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

		// ModRevision == 0 означает, что ключа еще нет
		resp, err := s.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(s.key), "=", rev)).
			Then(clientv3.OpPut(s.key, string(data))).
			Commit()
		if err != nil {
			return fmt.Errorf("etcd txn %s: %w", s.key, err)
		}
		if !resp.Succeeded {
			return errRetry
		}
		return nil
	})
}

func (s *EtcdStore) Close() error {
	return s.client.Close()
}

func (s *EtcdStore) get(ctx context.Context) ([]model.Task, int64, error) {
	resp, err := s.client.Get(ctx, s.key)
	if err != nil {
		return nil, 0, fmt.Errorf("etcd get %s: %w", s.key, err)
	}
	if len(resp.Kvs) == 0 {
		return []model.Task{}, 0, nil
	}
	tasks, err := decodeTasks(resp.Kvs[0].Value)
	if err != nil {
		return nil, 0, err
	}
	return tasks, resp.Kvs[0].ModRevision, nil
}
