package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

var (
	// ErrCorrupt is returned when stored data exists but is not a valid task collection.
	ErrCorrupt = errors.New("corrupt task collection")
	// ErrConflict is returned when an optimistic update lost every retry to concurrent writers.
	ErrConflict = errors.New("conflict")
)

// MutateFunc receives a private copy of the current collection and returns the
// collection to persist. Returning an error aborts the cycle without writing.
type MutateFunc func(tasks []model.Task) ([]model.Task, error)

// RecordStore определяет хранилище полной коллекции задач.
type RecordStore interface {
	// Load returns the current collection; an empty one if nothing was ever written.
	Load(ctx context.Context) ([]model.Task, error)
	// Save replaces the whole collection atomically.
	Save(ctx context.Context, tasks []model.Task) error
	// Update runs load, fn and save as one serialized cycle. Errors from fn are returned unchanged.
	Update(ctx context.Context, fn MutateFunc) error
	Close() error
}
