package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending limit for one category
type Budget struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// Tier is a budget-utilization bucket
type Tier string

const (
	TierOnTrack   Tier = "on-track"
	TierWarning   Tier = "warning"
	TierNearLimit Tier = "near-limit"
	TierExceeded  Tier = "exceeded"
)

// BudgetProgress is spent-vs-limit for one budget in the current month
type BudgetProgress struct {
	Budget      Budget          `json:"budget"`
	Icon        string          `json:"icon"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed float64         `json:"percent_used"` // clamped to 100
	Tier        Tier            `json:"tier"`
}

// BudgetOverview totals every budget against this month's spending
type BudgetOverview struct {
	TotalBudget    decimal.Decimal  `json:"total_budget"`
	TotalSpent     decimal.Decimal  `json:"total_spent"`
	TotalRemaining decimal.Decimal  `json:"total_remaining"`
	Budgets        []BudgetProgress `json:"budgets"`
}
