package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("task not found")
	ErrStorage    = errors.New("storage error")
)

// classify оставляет ошибки валидации и отсутствия задачи как есть, остальное считается отказом хранилища.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
