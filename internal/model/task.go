package model

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

var ErrInvalidStatus = errors.New("invalid status")

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus accepts only the exact, case-sensitive values of Statuses.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w %q: use Pending, In Progress or Completed", ErrInvalidStatus, v)
	}
	return s, nil
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate reports whether t satisfies the record invariants every stored task must hold.
// Whitespace-only text is accepted here so older files stay readable; new input is
// trimmed and checked by the service.
func (t Task) Validate() error {
	switch {
	case t.ID == "":
		return errors.New("empty id")
	case t.Title == "":
		return fmt.Errorf("task %s: empty title", t.ID)
	case t.Description == "":
		return fmt.Errorf("task %s: empty description", t.ID)
	case !t.Status.Valid():
		return fmt.Errorf("task %s: %w %q", t.ID, ErrInvalidStatus, t.Status)
	case t.CreatedAt.IsZero():
		return fmt.Errorf("task %s: missing createdAt", t.ID)
	case t.UpdatedAt.Before(t.CreatedAt):
		return fmt.Errorf("task %s: updatedAt before createdAt", t.ID)
	}
	return nil
}

// TaskPatch carries the fields of an update request. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

type StatusCounts struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
}

// CountByStatus tallies tasks per status; every known status is present in the result.
func CountByStatus(tasks []Task) StatusCounts {
	c := StatusCounts{Total: len(tasks), ByStatus: make(map[Status]int, len(Statuses))}
	for _, s := range Statuses {
		c.ByStatus[s] = 0
	}
	for _, t := range tasks {
		c.ByStatus[t.Status]++
	}
	return c
}

// FilterByStatus returns the tasks with the given status, preserving order.
func FilterByStatus(tasks []Task, s Status) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == s {
			out = append(out, t)
		}
	}
	return out
}
