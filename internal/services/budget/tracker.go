package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"khazana/internal/logging"
	"khazana/internal/models"
	"khazana/internal/services/balance"
	"khazana/internal/services/storage"
)

var hundred = decimal.NewFromInt(100)

// Tracker manages one user's category budgets
type Tracker struct {
	ns     *storage.Namespace
	mu     sync.Mutex
	now    func() time.Time
	icon   func(category string) string
	logger *slog.Logger
}

// New creates a tracker. icon resolves display icons for categories and may be nil.
func New(ns *storage.Namespace, now func() time.Time, icon func(string) string) *Tracker {
	if now == nil {
		now = time.Now
	}
	if icon == nil {
		icon = func(string) string { return models.DefaultIcon }
	}
	return &Tracker{
		ns:     ns,
		now:    now,
		icon:   icon,
		logger: logging.For(logging.ComponentBudget).With(logging.FieldUser, ns.User()),
	}
}

// List returns every budget in creation order
func (t *Tracker) List(ctx context.Context) ([]models.Budget, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(ctx)
}

func (t *Tracker) load(ctx context.Context) ([]models.Budget, error) {
	var budgets []models.Budget
	if _, err := t.ns.GetJSON(ctx, storage.KeyBudgets, &budgets); err != nil {
		if models.IsParse(err) {
			t.logger.Warn("discarding malformed budgets", logging.FieldError, err)
			return []models.Budget{}, nil
		}
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	if budgets == nil {
		budgets = []models.Budget{}
	}
	return budgets, nil
}

// Set creates or updates the budget for category
func (t *Tracker) Set(ctx context.Context, category string, amount decimal.Decimal) (models.Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return models.Budget{}, models.Invalid("category", "category is required")
	}
	if !amount.IsPositive() {
		return models.Budget{}, models.Invalid("amount", "budget amount must be greater than zero")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	budgets, err := t.load(ctx)
	if err != nil {
		return models.Budget{}, err
	}

	now := t.now().UTC()
	var saved models.Budget
	found := false
	for i := range budgets {
		if budgets[i].Category == category {
			budgets[i].Amount = amount
			budgets[i].UpdatedAt = &now
			saved = budgets[i]
			found = true
			break
		}
	}
	if !found {
		saved = models.Budget{
			ID:        uuid.NewString(),
			Category:  category,
			Amount:    amount,
			CreatedAt: now,
		}
		budgets = append(budgets, saved)
	}

	if err := t.ns.PutJSON(ctx, storage.KeyBudgets, budgets); err != nil {
		return models.Budget{}, err
	}
	t.logger.Info("budget set", logging.FieldCategory, category, logging.FieldAmount, amount.String(), "updated", found)
	return saved, nil
}

// Delete removes the budget for category. A missing budget is a no-op.
func (t *Tracker) Delete(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)

	t.mu.Lock()
	defer t.mu.Unlock()

	budgets, err := t.load(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.Budget, 0, len(budgets))
	for _, b := range budgets {
		if b.Category != category {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(budgets) {
		return nil
	}
	return t.ns.PutJSON(ctx, storage.KeyBudgets, kept)
}

// ReplaceAll overwrites every budget (restore)
func (t *Tracker) ReplaceAll(ctx context.Context, budgets []models.Budget) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if budgets == nil {
		budgets = []models.Budget{}
	}
	return t.ns.PutJSON(ctx, storage.KeyBudgets, budgets)
}

// Progress measures b against the current month's spending in its category
func (t *Tracker) Progress(b models.Budget, txns []models.Transaction) models.BudgetProgress {
	now := t.now()
	spent := balance.MonthlySpend(txns, now.Month(), now.Year(), b.Category)
	return ProgressOf(b, spent, t.icon(b.Category))
}

// ProgressOf computes the utilisation of b given what was spent
func ProgressOf(b models.Budget, spent decimal.Decimal, icon string) models.BudgetProgress {
	var pct float64
	if b.Amount.IsPositive() {
		pct = spent.Div(b.Amount).Mul(hundred).InexactFloat64()
	}
	if pct > 100 {
		pct = 100
	}
	return models.BudgetProgress{
		Budget:      b,
		Icon:        icon,
		Spent:       spent,
		Remaining:   b.Amount.Sub(spent),
		PercentUsed: pct,
		Tier:        TierOf(pct),
	}
}

// TierOf buckets a utilisation percentage
func TierOf(percentUsed float64) models.Tier {
	switch {
	case percentUsed >= 100:
		return models.TierExceeded
	case percentUsed >= 90:
		return models.TierNearLimit
	case percentUsed >= 70:
		return models.TierWarning
	}
	return models.TierOnTrack
}

// Overview totals every budget against this month's spending across all categories
func (t *Tracker) Overview(ctx context.Context, txns []models.Transaction) (models.BudgetOverview, error) {
	budgets, err := t.List(ctx)
	if err != nil {
		return models.BudgetOverview{}, err
	}

	now := t.now()
	overview := models.BudgetOverview{
		TotalBudget: decimal.Zero,
		TotalSpent:  balance.MonthlySpend(txns, now.Month(), now.Year(), ""),
		Budgets:     make([]models.BudgetProgress, 0, len(budgets)),
	}
	for _, b := range budgets {
		overview.TotalBudget = overview.TotalBudget.Add(b.Amount)
		overview.Budgets = append(overview.Budgets, t.Progress(b, txns))
	}
	overview.TotalRemaining = overview.TotalBudget.Sub(overview.TotalSpent)
	return overview, nil
}
