package models

import "github.com/shopspring/decimal"

// CategoryTotal aggregates expense transactions for one category
type CategoryTotal struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// CategorySummary is one ranked row of the category breakdown
type CategorySummary struct {
	Category   string          `json:"category"`
	Icon       string          `json:"icon"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// MonthlySeries holds income and expense per month in chronological order
type MonthlySeries struct {
	Labels  []string          `json:"labels"` // "Jan 2024"
	Income  []decimal.Decimal `json:"income"`
	Expense []decimal.Decimal `json:"expense"`
}

// Forecast is the naive next-month projection. Available is false with fewer than two months.
type Forecast struct {
	Available         bool            `json:"available"`
	PredictedExpense  decimal.Decimal `json:"predicted_expense"`
	RecommendedBudget decimal.Decimal `json:"recommended_budget"`
	SavingsGoal       decimal.Decimal `json:"savings_goal"`
}

// Insight is a labelled observation about the ledger
type Insight struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summary contains the headline metrics for the insights page
type Summary struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	NetSavings       decimal.Decimal `json:"net_savings"`
	HighestExpense   decimal.Decimal `json:"highest_expense"`
	AvgDailySpending decimal.Decimal `json:"avg_daily_spending"`
	SavingsRate      float64         `json:"savings_rate"`
	TransactionCount int             `json:"transaction_count"`
	StartDate        Date            `json:"start_date"`
	EndDate          Date            `json:"end_date"`
}
