package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"payble/internal/adapters"
	"payble/internal/amqp"
	"payble/internal/cache"
	"payble/internal/records/memory"
	"payble/internal/services"
	"payble/internal/settings"
	"payble/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the record store, the settings repository and the
// optional AMQP publisher. On error everything opened so far is closed.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	result := &BackendResult{Caches: cache.NewManager()}
	result.Cleanup = func() error {
		result.Caches.Stop()
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*BackendResult, error) {
		_ = result.Cleanup()
		return nil, err
	}

	var sqliteRepo *storage.SQLiteRepository
	if config.usesSQLite() {
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, storage.WithLocation(config.location()))
		if err != nil {
			return fail(fmt.Errorf("failed to initialize SQLite repository: %w", err))
		}
		sqliteRepo = repo
		closers = append(closers, repo.Close)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without refresh messages", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			closers = append(closers, client.Close)
		}
	}

	switch config.Type {
	case SQLiteBackend:
		var publisher services.RefreshPublisher
		if result.Publisher != nil {
			publisher = result.Publisher
		}
		svc := services.NewObligationService(sqliteRepo, publisher)
		result.Backend = adapters.NewSQLiteAdapter(sqliteRepo, svc)
		f.logger.Info("Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"amqp_enabled", result.Publisher != nil)
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store, err := memory.NewFromFiles(dataDir)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize memory backend: %w", err))
		}
		result.Backend = store
		f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	}

	repo, closeSettings, err := f.createSettings(ctx, config, sqliteRepo)
	if err != nil {
		return fail(err)
	}
	if closeSettings != nil {
		closers = append(closers, closeSettings)
	}
	if config.SettingsCacheTTL > 0 {
		cached := settings.NewCachedRepository(repo, config.SettingsCacheTTL)
		result.Caches.Register("settings", cached.Cache())
		repo = cached
	}
	result.Settings = repo

	return result, nil
}

func (f *DefaultFactory) createSettings(ctx context.Context, config Config, sqliteRepo *storage.SQLiteRepository) (settings.Repository, func() error, error) {
	switch config.SettingsType {
	case SQLiteBackend:
		f.logger.Info("Using SQLite settings backend")
		return sqliteRepo, nil, nil
	case RedisBackend:
		hash := config.RedisHash
		if hash == "" {
			hash = DefaultRedisHash
		}
		repo, err := settings.NewRedisRepository(ctx, config.RedisURL, hash)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis settings: %w", err)
		}
		f.logger.Info("Using redis settings backend", "hash", hash)
		return repo, repo.Close, nil
	default:
		f.logger.Info("Using in-memory settings backend")
		return settings.NewMemoryRepository(), nil, nil
	}
}
