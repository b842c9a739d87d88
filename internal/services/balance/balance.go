package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
)

// Status describes the sign of a balance
type Status string

const (
	StatusPositive Status = "positive"
	StatusNegative Status = "negative"
	StatusZero     Status = "zero"
)

// Totals is the sum of income and expense kinds
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Balance is income (deposit, received) minus expense (withdrawal, transfer).
// It is not clamped and may be negative.
func Balance(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txns {
		total = total.Add(txns[i].Signed())
	}
	return total
}

// TotalsOf sums income and expense separately
func TotalsOf(txns []models.Transaction) Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txns {
		switch {
		case tx.Kind.IsIncome():
			t.Income = t.Income.Add(tx.Amount)
		case tx.Kind.IsExpense():
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	return t
}

// MonthlySpend sums withdrawal and transfer amounts dated in the given month.
// When category is non-empty only exact matches count.
func MonthlySpend(txns []models.Transaction, month time.Month, year int, category string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txns {
		if !tx.Kind.IsExpense() {
			continue
		}
		if tx.Date.Month() != month || tx.Date.Year() != year {
			continue
		}
		if category != "" && tx.Category != category {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

// HasSufficientBalance reports whether the current balance covers amount
func HasSufficientBalance(txns []models.Transaction, amount decimal.Decimal) bool {
	return Balance(txns).GreaterThanOrEqual(amount)
}

// StatusOf classifies a balance by sign
func StatusOf(b decimal.Decimal) Status {
	switch b.Sign() {
	case 1:
		return StatusPositive
	case -1:
		return StatusNegative
	}
	return StatusZero
}
