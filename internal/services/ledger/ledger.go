package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"khazana/internal/logging"
	"khazana/internal/models"
	"khazana/internal/services/balance"
	"khazana/internal/services/storage"
)

// Store owns one user's transactions. It serialises its own read-modify-write
// cycles; writers in other processes sharing the backend race with it and the
// last write wins.
type Store struct {
	ns     *storage.Namespace
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for ids and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger overrides the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a ledger store over a user namespace
func New(ns *storage.Namespace, opts ...Option) *Store {
	s := &Store{ns: ns, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.For(logging.ComponentLedger)
	}
	s.logger = s.logger.With(logging.FieldUser, ns.User())
	return s
}

// User returns the owner of the ledger
func (s *Store) User() string {
	return s.ns.User()
}

// Load returns the persisted transactions, most recent first. Missing or
// malformed data yields an empty ledger; only backend failures are returned.
func (s *Store) Load(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]models.Transaction, error) {
	var txns []models.Transaction
	ok, err := s.ns.GetJSON(ctx, storage.KeyTransactions, &txns)
	if err != nil {
		if models.IsParse(err) {
			s.logger.Warn("discarding malformed transactions", logging.FieldError, err)
			return []models.Transaction{}, nil
		}
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !ok || txns == nil {
		return []models.Transaction{}, nil
	}
	return txns, nil
}

// Append creates a transaction of kind k, puts it at the head of the ledger and
// persists the whole ledger sorted by date. No balance check is made.
func (s *Store) Append(ctx context.Context, k models.Kind, f models.Fields) (models.Transaction, error) {
	if err := f.Validate(k); err != nil {
		return models.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.load(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	return s.append(ctx, txns, k, f)
}

// Record is the user-action entry point: withdrawals and transfers must be
// covered by the current balance, otherwise an *models.InsufficientFundsError
// is returned and nothing is written.
func (s *Store) Record(ctx context.Context, k models.Kind, f models.Fields) (models.Transaction, error) {
	if err := f.Validate(k); err != nil {
		return models.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.load(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	if k.IsExpense() && !balance.HasSufficientBalance(txns, f.Amount) {
		return models.Transaction{}, &models.InsufficientFundsError{
			Balance:   balance.Balance(txns),
			Requested: f.Amount,
		}
	}
	return s.append(ctx, txns, k, f)
}

func (s *Store) append(ctx context.Context, txns []models.Transaction, k models.Kind, f models.Fields) (models.Transaction, error) {
	now := s.now()
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	tx := models.Transaction{
		ID:        NewID(now),
		Kind:      k,
		Date:      f.Date,
		Amount:    f.Amount,
		Category:  category,
		Details:   strings.TrimSpace(f.Details),
		Timestamp: now.UTC().Format(models.TimestampLayout),
	}

	updated := make([]models.Transaction, 0, len(txns)+1)
	updated = append(updated, tx)
	updated = append(updated, txns...)

	if err := s.persist(ctx, MergeSortByDateDesc(updated)); err != nil {
		return models.Transaction{}, err
	}
	s.logger.Info("transaction recorded",
		"id", tx.ID, logging.FieldKind, tx.Kind, logging.FieldAmount, tx.Amount.String(), logging.FieldCategory, tx.Category)
	return tx, nil
}

// Remove deletes the transaction with the given id. An unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := txns[:0:0]
	for _, t := range txns {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(txns) {
		s.logger.Debug("remove: no such transaction", "id", id)
		return nil
	}
	return s.persist(ctx, kept)
}

// ReplaceAll overwrites the ledger (restore and import). Nothing is merged.
func (s *Store) ReplaceAll(ctx context.Context, txns []models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if txns == nil {
		txns = []models.Transaction{}
	}
	if err := s.persist(ctx, MergeSortByDateDesc(txns)); err != nil {
		return err
	}
	s.logger.Info("ledger replaced", logging.FieldCount, len(txns))
	return nil
}

// persist writes the ledger with its pipe and balance mirrors
func (s *Store) persist(ctx context.Context, txns []models.Transaction) error {
	if err := s.ns.PutJSON(ctx, storage.KeyTransactions, txns); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	if err := s.ns.Put(ctx, storage.KeyFile, []byte(EncodePipe(txns))); err != nil {
		return fmt.Errorf("save pipe mirror: %w", err)
	}
	if err := s.ns.Put(ctx, storage.KeyBalance, []byte(balance.Balance(txns).String())); err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

// NewID is the creation time in Unix milliseconds plus a random suffix
func NewID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}
