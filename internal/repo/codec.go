package repo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

// encodeTasks renders the collection as an indented JSON array. Invalid records are refused
// so that nothing outside the task invariants ever reaches the medium.
func encodeTasks(tasks []model.Task) ([]byte, error) {
	if err := validateTasks(tasks); err != nil {
		return nil, fmt.Errorf("refusing to persist: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// decodeTasks parses a stored collection. Anything but a JSON array of valid,
// uniquely identified tasks is reported as ErrCorrupt.
func decodeTasks(data []byte) ([]model.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrCorrupt)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var tasks []model.Task
	if err := dec.Decode(&tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing content", ErrCorrupt)
	}
	if err := validateTasks(tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func validateTasks(tasks []model.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate id %s", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}
