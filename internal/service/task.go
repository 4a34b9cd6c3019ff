package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasktrackr/internal/idempotency"
	"github.com/BuzzLyutic/tasktrackr/internal/model"
	"github.com/BuzzLyutic/tasktrackr/internal/repo"
)

type Option func(*TaskService)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *TaskService) { s.newID = gen }
}

// WithIdempotency enables Idempotency-Key handling in CreateIdempotent.
func WithIdempotency(store idempotency.Store) Option {
	return func(s *TaskService) { s.idem = store }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *TaskService) { s.logger = logger }
}

type TaskService struct {
	repo   repo.RecordStore
	idem   idempotency.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewTaskService(repo repo.RecordStore, opts ...Option) *TaskService {
	s := &TaskService{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) Create(ctx context.Context, title, description string) (model.Task, error) {
	title, err := requireText("title", title)
	if err != nil {
		return model.Task{}, err
	}
	description, err = requireText("description", description)
	if err != nil {
		return model.Task{}, err
	}

	var created model.Task
	err = s.repo.Update(ctx, func(tasks []model.Task) ([]model.Task, error) {
		now := s.timestamp()
		created = model.Task{
			ID:          s.uniqueID(tasks),
			Title:       title,
			Description: description,
			Status:      model.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return append(tasks, created), nil
	})
	if err != nil {
		return model.Task{}, classify(err)
	}
	return created, nil
}

// CreateIdempotent creates a task once per key. A repeated key returns the task
// created first, as long as it still exists.
func (s *TaskService) CreateIdempotent(ctx context.Context, key, title, description string) (model.Task, error) {
	if key == "" || s.idem == nil {
		return s.Create(ctx, title, description)
	}

	if id, ok, err := s.idem.Lookup(ctx, key); err != nil {
		s.logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		task, err := s.Get(ctx, id)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return model.Task{}, err
		}
		// задачу по ключу уже удалили, ключ можно переиспользовать
		if err := s.idem.Forget(ctx, key); err != nil {
			s.logger.Warn("idempotency forget failed", zap.String("key", key), zap.Error(err))
		}
	}

	task, err := s.Create(ctx, title, description)
	if err != nil {
		return task, err
	}

	// Сохранение нового ключа; задача уже создана, поэтому ошибку только логируем
	bound, err := s.idem.Remember(ctx, key, task.ID)
	if err != nil {
		s.logger.Warn("idempotency remember failed", zap.String("key", key), zap.Error(err))
		return task, nil
	}
	if bound == task.ID {
		return task, nil
	}

	// Параллельный запрос с тем же ключом успел раньше: откатываем свою задачу
	if err := s.Delete(ctx, task.ID); err != nil {
		s.logger.Warn("failed to roll back duplicate task", zap.String("id", task.ID), zap.Error(err))
	}
	winner, err := s.Get(ctx, bound)
	if err != nil {
		return model.Task{}, err
	}
	return winner, nil
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.repo.Load(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (model.Task, error) {
	tasks, err := s.repo.Load(ctx)
	if err != nil {
		return model.Task{}, classify(err)
	}
	if i := indexOf(tasks, id); i >= 0 {
		return tasks[i], nil
	}
	return model.Task{}, notFound(id)
}

func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var updated model.Task
	err := s.repo.Update(ctx, func(tasks []model.Task) ([]model.Task, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, notFound(id)
		}
		// сначала ищем задачу, потом проверяем поля: неизвестный id важнее кривого статуса
		change, err := validatePatch(patch)
		if err != nil {
			return nil, err
		}
		t := tasks[i]
		if change.Title != nil {
			t.Title = *change.Title
		}
		if change.Description != nil {
			t.Description = *change.Description
		}
		if change.Status != nil {
			t.Status = model.Status(*change.Status)
		}

		// updatedAt строго растет, даже если часы не сдвинулись
		now := s.timestamp()
		if !now.After(t.UpdatedAt) {
			now = t.UpdatedAt.Add(time.Nanosecond)
		}
		t.UpdatedAt = now

		tasks[i] = t
		updated = t
		return tasks, nil
	})
	if err != nil {
		return model.Task{}, classify(err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	err := s.repo.Update(ctx, func(tasks []model.Task) ([]model.Task, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, notFound(id)
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
	return classify(err)
}

func (s *TaskService) GetStats(ctx context.Context) (model.StatusCounts, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return model.StatusCounts{}, err
	}
	return model.CountByStatus(tasks), nil
}

func (s *TaskService) timestamp() time.Time {
	return s.now().UTC()
}

// uniqueID перегенерирует id при (практически невозможном) совпадении.
func (s *TaskService) uniqueID(tasks []model.Task) string {
	for {
		id := s.newID()
		if id != "" && indexOf(tasks, id) < 0 {
			return id
		}
	}
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return v, nil
}

func validatePatch(p model.TaskPatch) (model.TaskPatch, error) {
	var out model.TaskPatch
	if p.Title != nil {
		v, err := requireText("title", *p.Title)
		if err != nil {
			return out, err
		}
		out.Title = &v
	}
	if p.Description != nil {
		v, err := requireText("description", *p.Description)
		if err != nil {
			return out, err
		}
		out.Description = &v
	}
	if p.Status != nil {
		st, err := model.ParseStatus(*p.Status)
		if err != nil {
			return out, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		v := string(st)
		out.Status = &v
	}
	return out, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
