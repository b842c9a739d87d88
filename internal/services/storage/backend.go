package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"khazana/internal/models"
)

// Backend is a flat key/value store. Get reports false for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Names of the per-user entries. The stored key is "<name>_<user>".
const (
	KeyTransactions = "transactions"
	KeyBudgets      = "budgets"
	KeyCategories   = "customCategories"
	KeyBalance      = "balance"
	KeyPIN          = "pin"
	KeyFile         = "file"
)

// Key returns the storage key of entry name for user
func Key(name, user string) string {
	return name + "_" + user
}

// Namespace is a user-scoped handle on a Backend
type Namespace struct {
	backend Backend
	user    string
}

// ForUser returns the namespace of user. The identifier must be non-empty and path-safe.
func ForUser(b Backend, user string) (*Namespace, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, models.Invalid("user", "user is required")
	}
	if strings.ContainsAny(user, "/\\") || strings.Contains(user, "..") {
		return nil, models.Invalid("user", "invalid user identifier %q", user)
	}
	return &Namespace{backend: b, user: user}, nil
}

// User returns the user identifier
func (n *Namespace) User() string {
	return n.user
}

// Get reads the raw entry
func (n *Namespace) Get(ctx context.Context, name string) ([]byte, bool, error) {
	return n.backend.Get(ctx, Key(name, n.user))
}

// Put writes the raw entry
func (n *Namespace) Put(ctx context.Context, name string, value []byte) error {
	return n.backend.Put(ctx, Key(name, n.user), value)
}

// Delete removes the entry
func (n *Namespace) Delete(ctx context.Context, name string) error {
	return n.backend.Delete(ctx, Key(name, n.user))
}

// GetJSON decodes the entry into v. It reports false when the entry is absent
// and a *models.ParseError when it is malformed.
func (n *Namespace) GetJSON(ctx context.Context, name string, v any) (bool, error) {
	data, ok, err := n.Get(ctx, name)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &models.ParseError{Source: Key(name, n.user), Err: err}
	}
	return true, nil
}

// PutJSON encodes v and writes it
func (n *Namespace) PutJSON(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return n.Put(ctx, name, data)
}
