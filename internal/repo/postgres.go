package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/tasktrackr/internal/model"
)

const defaultCollection = "tasks"

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS task_collections (
		name       TEXT PRIMARY KEY,
		tasks      JSONB NOT NULL DEFAULT '[]'::jsonb,
		version    BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresStore хранит всю коллекцию одной строкой JSONB; запись идет в транзакции под FOR UPDATE.
type PostgresStore struct {
	pool *pgxpool.Pool
	name string
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore { // Конструктор
	return &PostgresStore{
		pool: pool,
		name: defaultCollection,
	}
}

// EnsureSchema creates the collections table if it is missing.
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schemaSQL)
	return r.mapError(err)
}

func (r *PostgresStore) Load(ctx context.Context) ([]model.Task, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT tasks FROM task_collections WHERE name = $1
	`, r.name).Scan(&raw)

	if errors.Is(err, pgx.ErrNoRows) {
		return []model.Task{}, nil
	}
	if err != nil {
		return nil, r.mapError(err)
	}
	return decodeTasks(raw)
}

func (r *PostgresStore) Save(ctx context.Context, tasks []model.Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO task_collections (name, tasks, version)
		VALUES ($1, $2::jsonb, 1)
		ON CONFLICT (name) DO UPDATE
		SET tasks = EXCLUDED.tasks, version = task_collections.version + 1, updated_at = now()
	`, r.name, string(data))
	return r.mapError(err)
}

func (r *PostgresStore) Update(ctx context.Context, fn MutateFunc) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Строка должна существовать, иначе FOR UPDATE нечего блокировать
		if _, err := tx.Exec(ctx, `
			INSERT INTO task_collections (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, r.name); err != nil {
			return r.mapError(err)
		}

		var raw []byte
		var version int64
		if err := tx.QueryRow(ctx, `
			SELECT tasks, version FROM task_collections WHERE name = $1 FOR UPDATE
		`, r.name).Scan(&raw, &version); err != nil {
			return r.mapError(err)
		}

		current, err := decodeTasks(raw)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		data, err := encodeTasks(next)
		if err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `
			UPDATE task_collections
			SET tasks = $2::jsonb, version = version + 1, updated_at = now()
			WHERE name = $1 AND version = $3
		`, r.name, string(data), version)
		if err != nil {
			return r.mapError(err)
		}
		if cmd.RowsAffected() == 0 {
			return ErrConflict
		}
		return nil
	})
}

func (r *PostgresStore) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresStore) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure / deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
		return fmt.Errorf("postgres %s: %w", pgErr.Code, err)
	}
	return err
}
