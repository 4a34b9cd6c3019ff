package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

const lockRetryDelay = 20 * time.Millisecond

// FileStore keeps the collection in a single JSON file.
//
// Writes go to a temp file in the same directory which is synced and renamed over
// the target, so readers see either the old or the new collection. Update cycles
// are serialized inside the process by mu and across processes by an advisory lock
// on <path>.lock, which lets the HTTP server and the CLI share one file.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, tasks []model.Task) error {
	return s.withLock(ctx, func() error {
		return s.write(tasks)
	})
}

func (s *FileStore) Update(ctx context.Context, fn MutateFunc) error {
	return s.withLock(ctx, func() error {
		current, err := s.read()
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return s.write(next)
	})
}

func (s *FileStore) Close() error {
	return s.lock.Close()
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	defer s.lock.Unlock()

	return fn()
}

func (s *FileStore) read() ([]model.Task, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Task{}, nil // первый запуск
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	tasks, err := decodeTasks(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return tasks, nil
}

func (s *FileStore) write(tasks []model.Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
