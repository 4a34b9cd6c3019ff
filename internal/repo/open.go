package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasktrackr/internal/config"
)

// Open builds the record store selected by cfg.StoreDriver. Network backends are
// pinged before returning so a bad address fails at startup, not on the first request.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (RecordStore, error) {
	if cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
	}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, tasks will not survive a restart")
		return NewMemoryStore(), nil

	case config.DriverFile:
		s, err := NewFileStore(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using file store", zap.String("path", s.Path()))
		return s, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		s := NewPostgresStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		logger.Info("using postgres store")
		return s, nil

	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		s := NewRedisStore(client, cfg.StoreKey)
		logger.Info("using redis store", zap.String("key", s.key))
		return s, nil

	case config.DriverEtcd:
		s, err := NewEtcdStore(cfg.EtcdEndpoints, cfg.StoreTimeout, cfg.StoreKey)
		if err != nil {
			return nil, err
		}
		if _, err := s.client.Status(ctx, cfg.EtcdEndpoints[0]); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to reach etcd: %w", err)
		}
		logger.Info("using etcd store", zap.Strings("endpoints", cfg.EtcdEndpoints), zap.String("key", s.key))
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
