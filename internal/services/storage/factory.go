package storage

import (
	"fmt"
	"log/slog"

	"khazana/internal/config"
)

// Open creates the backend selected by cfg.Backend. For the file backend an
// encrypted data directory is unlocked with cfg.Passphrase when one is set.
func Open(cfg *config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		slog.Info("using in-memory storage; data is lost on exit")
		return NewMemoryBackend(), nil

	case config.BackendSQLite:
		b, err := NewSQLiteBackend(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("using sqlite storage", "path", cfg.SQLitePath)
		return b, nil

	case config.BackendFile, "":
		store, err := New(cfg.DataDirectory)
		if err != nil {
			return nil, err
		}
		if store.IsEncrypted() {
			if cfg.Passphrase == "" {
				slog.Warn("data directory is encrypted; reads fail until unlocked", "dir", cfg.DataDirectory)
			} else if err := store.Unlock(cfg.Passphrase); err != nil {
				return nil, fmt.Errorf("unlock data directory: %w", err)
			}
		}
		slog.Info("using file storage", "dir", cfg.DataDirectory, "encrypted", store.IsEncrypted())
		return NewFileBackend(store), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
