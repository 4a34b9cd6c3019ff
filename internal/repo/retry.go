package repo

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxConflictRetries = 50

// errRetry сигнализирует, что оптимистичная транзакция проиграла гонку и цикл надо повторить.
var errRetry = errors.New("optimistic transaction lost")

func newConflictBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, maxConflictRetries), ctx)
}

// retryOnConflict reruns op while it reports errRetry. Any other error stops the loop
// and is returned unchanged.
func retryOnConflict(ctx context.Context, op func() error) error {
	err := backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, errRetry) {
			return err
		}
		return backoff.Permanent(err)
	}, newConflictBackoff(ctx))

	if errors.Is(err, errRetry) {
		return ErrConflict
	}
	return err
}
