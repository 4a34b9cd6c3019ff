package repo

import (
	"context"
	"sync"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

// MemoryStore хранит коллекцию в памяти процесса, под мьютексом.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []model.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: []model.Task{}}
}

func (s *MemoryStore) Load(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks), nil
}

func (s *MemoryStore) Save(ctx context.Context, tasks []model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTasks(tasks); err != nil {
		return err
	}
	s.mu.Lock()
	s.tasks = cloneTasks(tasks)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fn MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(cloneTasks(s.tasks))
	if err != nil {
		return err
	}
	if err := validateTasks(next); err != nil {
		return err
	}
	s.tasks = cloneTasks(next)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
