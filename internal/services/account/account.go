package account

import (
	"context"
	"sync"
	"time"

	"khazana/internal/services/budget"
	"khazana/internal/services/categories"
	"khazana/internal/services/gate"
	"khazana/internal/services/ledger"
	"khazana/internal/services/storage"
)

// Account bundles the per-user services over one storage namespace
type Account struct {
	User       string
	Ledger     *ledger.Store
	Budgets    *budget.Tracker
	Categories *categories.Store
	PINs       *gate.PINStore

	gateMu sync.Mutex
	gate   *gate.Gate
}

// Gate returns the user's access gate, reading the stored PIN on first use
func (a *Account) Gate(ctx context.Context) (*gate.Gate, error) {
	a.gateMu.Lock()
	defer a.gateMu.Unlock()

	if a.gate == nil {
		pin, err := a.PINs.Get(ctx)
		if err != nil {
			return nil, err
		}
		a.gate = gate.New(pin)
	}
	return a.gate, nil
}

// ChangePIN updates the stored PIN and the live gate
func (a *Account) ChangePIN(ctx context.Context, current, next string) error {
	if err := a.PINs.Change(ctx, current, next); err != nil {
		return err
	}
	g, err := a.Gate(ctx)
	if err != nil {
		return err
	}
	g.SetCode(next)
	return nil
}

// Registry hands out one Account per user so that every caller in the
// process shares the same locks and gate session
type Registry struct {
	backend storage.Backend
	now     func() time.Time

	mu       sync.Mutex
	accounts map[string]*Account
}

// NewRegistry creates a registry over backend. now may be nil.
func NewRegistry(backend storage.Backend, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		backend:  backend,
		now:      now,
		accounts: make(map[string]*Account),
	}
}

// Backend returns the storage backend
func (r *Registry) Backend() storage.Backend {
	return r.backend
}

// For returns the account of user, creating it on first use
func (r *Registry) For(user string) (*Account, error) {
	ns, err := storage.ForUser(r.backend, user)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.accounts[ns.User()]; ok {
		return a, nil
	}

	cats := categories.New(ns, r.now)
	a := &Account{
		User:       ns.User(),
		Ledger:     ledger.New(ns, ledger.WithClock(r.now)),
		Budgets:    budget.New(ns, r.now, cats.Icon),
		Categories: cats,
		PINs:       gate.NewPINStore(ns),
	}
	r.accounts[a.User] = a
	return a, nil
}

// Close closes the backend
func (r *Registry) Close() error {
	return r.backend.Close()
}
