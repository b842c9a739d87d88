package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
)

// FileBackend keeps one file per key under <data dir>/users, through Storage
// so that encryption at rest applies.
type FileBackend struct {
	store *Storage
	dir   string
}

// NewFileBackend creates a file backend on top of store
func NewFileBackend(store *Storage) *FileBackend {
	return &FileBackend{
		store: store,
		dir:   filepath.Join(store.BaseDir(), "users"),
	}
}

// Storage returns the underlying file storage
func (b *FileBackend) Storage() *Storage {
	return b.store
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, url.PathEscape(key)+dataExt)
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := b.store.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (b *FileBackend) Put(_ context.Context, key string, value []byte) error {
	return b.store.WriteFile(b.path(key), value, 0o600)
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	return b.store.Remove(b.path(key))
}

func (b *FileBackend) Close() error {
	b.store.Lock()
	return nil
}
