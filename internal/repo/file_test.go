package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data", "tasks.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileStore(t *testing.T) {
	testRecordStore(t, func(t *testing.T) RecordStore {
		return newFileStore(t)
	})
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestFileStore_AbsentFileIsEmpty(t *testing.T) {
	s := newFileStore(t)

	tasks, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "load must not create the file")
}

func TestFileStore_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "not json at all"},
		{name: "truncated", content: `[{"id":"a","title":"x"`},
		{name: "zero bytes", content: ""},
		{name: "null", content: "null"},
		{name: "object instead of array", content: `{"id":"a"}`},
		{name: "trailing content", content: `[] []`},
		{name: "invalid status", content: `[{"id":"a","title":"t","description":"d","status":"Done","createdAt":"2024-05-01T12:00:00Z","updatedAt":"2024-05-01T12:00:00Z"}]`},
		{name: "duplicate ids", content: `[
			{"id":"a","title":"t","description":"d","status":"Pending","createdAt":"2024-05-01T12:00:00Z","updatedAt":"2024-05-01T12:00:00Z"},
			{"id":"a","title":"t","description":"d","status":"Pending","createdAt":"2024-05-01T12:00:00Z","updatedAt":"2024-05-01T12:00:00Z"}
		]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFileStore(t)
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0o644))

			_, err := s.Load(context.Background())
			assert.ErrorIs(t, err, ErrCorrupt)

			// Испорченный файл не перезаписывается молча
			err = s.Update(context.Background(), appendTask(newTask("b", "second")))
			assert.ErrorIs(t, err, ErrCorrupt)

			data, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestFileStore_LegacyFile(t *testing.T) {
	s := newFileStore(t)
	legacy := `[
  {
    "id": "2f1c6a52-8c8e-4c4e-9a53-0a4b1f0e7d11",
    "title": "Buy milk",
    "description": "2 liters",
    "status": "In Progress",
    "timestamp": "2024-04-30T09:00:00.000Z",
    "createdAt": "2024-04-30T09:00:00.000Z",
    "updatedAt": "2024-04-30T10:15:00.000Z"
  }
]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o644))

	tasks, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, model.StatusInProgress, tasks[0].Status)
	assert.True(t, tasks[0].UpdatedAt.After(tasks[0].CreatedAt))
}

func TestFileStore_FailedWriteKeepsPreviousFile(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, []model.Task{newTask("a", "first")}))

	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	err = s.Update(ctx, appendTask(model.Task{ID: "broken"}))
	require.Error(t, err)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp."), "leftover temp file %s", e.Name())
	}
}

func TestFileStore_FileFormat(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, s.Save(context.Background(), []model.Task{newTask("a", "first")}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"id\": \"a\""))
	assert.Contains(t, text, `"createdAt": "2024-05-01T12:00:00Z"`)
	assert.True(t, strings.HasSuffix(text, "]\n"))
}

// Два экземпляра на одном файле ведут себя как HTTP-сервер и CLI в разных процессах.
func TestFileStore_SharedFileAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	a, err := NewFileStore(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewFileStore(path)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	const perStore = 10

	var g errgroup.Group
	for i := 0; i < perStore; i++ {
		idA := "a-" + string(rune('a'+i))
		idB := "b-" + string(rune('a'+i))
		g.Go(func() error { return a.Update(ctx, appendTask(newTask(idA, idA))) })
		g.Go(func() error { return b.Update(ctx, appendTask(newTask(idB, idB))) })
	}
	require.NoError(t, g.Wait())

	tasks, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2*perStore)
}

func TestFileStore_CanceledContextWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	holder, err := NewFileStore(path)
	require.NoError(t, err)
	defer holder.Close()
	waiter, err := NewFileStore(path)
	require.NoError(t, err)
	defer waiter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- holder.Update(context.Background(), func(tasks []model.Task) ([]model.Task, error) {
			close(entered)
			<-release
			return tasks, nil
		})
	}()
	<-entered

	cancel()
	err = waiter.Update(ctx, appendTask(newTask("a", "first")))
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-done)
}
