package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BuzzLyutic/tasktrackr/internal/config"
	"github.com/BuzzLyutic/tasktrackr/internal/handler"
	"github.com/BuzzLyutic/tasktrackr/internal/idempotency"
	"github.com/BuzzLyutic/tasktrackr/internal/repo"
	"github.com/BuzzLyutic/tasktrackr/internal/service"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	// Подключаем логгер
	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("Server stopped successfully!")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := repo.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close() // Запланированное закрытие хранилища

	idem, closeIdem, err := newIdempotencyStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeIdem()

	taskService := service.NewTaskService(store,
		service.WithIdempotency(idem),
		service.WithLogger(logger),
	)
	taskHandler := handler.NewTaskHandler(taskService, logger)

	srv := &http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      handler.NewRouter(taskHandler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	zcfg := zap.NewProductionConfig()
	if err := zcfg.Level.UnmarshalText([]byte(level)); err != nil {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// Ключи идемпотентности живут в Redis, если он настроен, иначе в памяти процесса.
func newIdempotencyStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (idempotency.Store, func(), error) {
	if cfg.RedisURL == "" {
		return idempotency.NewMemoryStore(cfg.IdempotencyTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("idempotency keys stored in redis")
	return idempotency.NewRedisStore(client, cfg.IdempotencyTTL), func() { _ = client.Close() }, nil
}
