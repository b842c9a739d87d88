package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"khazana/internal/logging"
	"khazana/internal/models"
	"khazana/internal/services/storage"
)

// DefaultPIN is written on first access. It is a known insecure default,
// stored in plain text like every other entry.
const DefaultPIN = "123456"

// PINStore reads and writes the pin_<user> entry
type PINStore struct {
	ns     *storage.Namespace
	logger *slog.Logger
}

// NewPINStore creates a PIN store for a user namespace
func NewPINStore(ns *storage.Namespace) *PINStore {
	return &PINStore{
		ns:     ns,
		logger: logging.For(logging.ComponentGate).With(logging.FieldUser, ns.User()),
	}
}

// Get returns the stored PIN, persisting DefaultPIN when none exists
func (p *PINStore) Get(ctx context.Context) (string, error) {
	raw, ok, err := p.ns.Get(ctx, storage.KeyPIN)
	if err != nil {
		return "", fmt.Errorf("load pin: %w", err)
	}
	if ok {
		if pin := strings.TrimSpace(string(raw)); ValidCode(pin) {
			return pin, nil
		}
		p.logger.Warn("stored PIN is malformed; resetting to default")
	}
	if err := p.ns.Put(ctx, storage.KeyPIN, []byte(DefaultPIN)); err != nil {
		return "", fmt.Errorf("save pin: %w", err)
	}
	return DefaultPIN, nil
}

// Change replaces the PIN after checking the current one
func (p *PINStore) Change(ctx context.Context, current, next string) error {
	if !ValidCode(next) {
		return models.Invalid("new", "PIN must be exactly %d digits", CodeLength)
	}
	stored, err := p.Get(ctx)
	if err != nil {
		return err
	}
	if current != stored {
		return models.Invalid("old", "current PIN is incorrect")
	}
	if err := p.ns.Put(ctx, storage.KeyPIN, []byte(next)); err != nil {
		return fmt.Errorf("save pin: %w", err)
	}
	p.logger.Info("PIN changed")
	return nil
}
