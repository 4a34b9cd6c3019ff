package cli

import (
	"errors"

	"github.com/BuzzLyutic/tasktrackr/internal/service"
)

const (
	ExitOK       = 0
	ExitFailure  = 1 // хранилище недоступно или внутренняя ошибка
	ExitUsage    = 2 // неверные аргументы или данные
	ExitNotFound = 3
)

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usage(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ue), errors.Is(err, service.ErrValidation):
		return ExitUsage
	case errors.Is(err, service.ErrNotFound):
		return ExitNotFound
	default:
		return ExitFailure
	}
}
