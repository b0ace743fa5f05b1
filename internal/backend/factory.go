package backend

import (
	"context"
	"fmt"
	"log/slog"

	"pennywise/internal/storage"
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

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv  storage.KV
		err error
	)
	switch config.Type {
	case MemoryBackend:
		kv = storage.NewMemoryStore()
	case FileBackend:
		kv, err = storage.NewFileStore(config.DataDirectory)
	case SQLiteBackend:
		kv, err = storage.NewSQLiteStore(config.SQLiteDBPath)
	case PostgresBackend:
		kv, err = storage.NewPostgresStore(ctx, config.PostgresURL)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", config.Type, err)
	}

	f.logger.InfoContext(ctx, "Storage backend ready", "backend", config.Type, "key", config.LedgerKey)

	return &BackendResult{
		Snapshot: storage.NewSnapshot(kv, config.LedgerKey),
		Cleanup: func() error {
			f.logger.Info("Closing storage backend", "backend", config.Type)
			return kv.Close()
		},
	}, nil
}
