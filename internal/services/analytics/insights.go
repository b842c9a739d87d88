package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
	"khazana/internal/services/balance"
)

const (
	excellentSavingsRate = 30
	goodSavingsRate      = 10

	// transactions per day over an assumed 30-day window
	frequencyDays      = 30
	highFrequencyDaily = 3

	trendWindow = 10
)

var (
	trendUp   = decimal.RequireFromString("1.2")
	trendDown = decimal.RequireFromString("0.8")
)

// Insights labels the savings rate, the top spending category and a high
// transaction frequency. An empty ledger has no insights.
func (s *Service) Insights(txns []models.Transaction) []models.Insight {
	if len(txns) == 0 {
		return nil
	}

	totals := balance.TotalsOf(txns)
	rate := savingsRate(totals)

	var insights []models.Insight
	switch {
	case rate > excellentSavingsRate:
		insights = append(insights, models.Insight{
			Icon:        "🎉",
			Title:       "Excellent Savings!",
			Description: fmt.Sprintf("You're saving %.1f%% of your income. Keep up the great work!", rate),
		})
	case rate > goodSavingsRate:
		insights = append(insights, models.Insight{
			Icon:        "👍",
			Title:       "Good Savings Habit",
			Description: fmt.Sprintf("You're saving %.1f%% of your income. Try to increase it to 30%% for better financial health.", rate),
		})
	default:
		insights = append(insights, models.Insight{
			Icon:        "⚠️",
			Title:       "Low Savings",
			Description: fmt.Sprintf("You're only saving %.1f%% of your income. Consider reducing expenses to save more.", rate),
		})
	}

	if ranked := s.RankedCategories(txns, nil); len(ranked) > 0 {
		top := ranked[0]
		insights = append(insights, models.Insight{
			Icon:  "📊",
			Title: "Top Spending Category",
			Description: fmt.Sprintf("%s accounts for %.1f%% of your expenses (%s). Consider if this aligns with your priorities.",
				top.Category, top.Percentage, models.FormatMoney(top.Amount.Round(0), s.currency)),
		})
	}

	perDay := float64(len(txns)) / frequencyDays
	if perDay > highFrequencyDaily {
		insights = append(insights, models.Insight{
			Icon:        "💳",
			Title:       "High Transaction Frequency",
			Description: fmt.Sprintf("You're making %.1f transactions per day on average. Consider consolidating purchases to reduce impulse spending.", perDay),
		})
	}
	return insights
}

// Patterns compares weekend against weekday spending and the latest ten
// transactions against the ten before them. txns must be most recent first.
func (s *Service) Patterns(txns []models.Transaction) []models.Insight {
	var patterns []models.Insight

	weekend, weekday := decimal.Zero, decimal.Zero
	for _, t := range txns {
		if !t.Kind.IsExpense() {
			continue
		}
		if t.Date.IsWeekend() {
			weekend = weekend.Add(t.Amount)
		} else {
			weekday = weekday.Add(t.Amount)
		}
	}
	if weekend.GreaterThan(weekday) {
		share := weekend.Div(weekend.Add(weekday)).Mul(hundred).InexactFloat64()
		patterns = append(patterns, models.Insight{
			Icon:        "🎉",
			Title:       "Weekend Spender",
			Description: fmt.Sprintf("You spend %.1f%% of your money on weekends. Consider planning weekend activities within budget.", share),
		})
	}

	recent, older := window(txns, 0), window(txns, trendWindow)
	if len(older) == 0 {
		return patterns
	}
	avgRecent := averageExpense(recent)
	avgOlder := averageExpense(older)
	switch {
	case avgRecent.GreaterThan(avgOlder.Mul(trendUp)):
		patterns = append(patterns, models.Insight{
			Icon:        "📈",
			Title:       "Spending Increasing",
			Description: "Your recent spending is 20% higher than before. Review your expenses to avoid overspending.",
		})
	case avgRecent.LessThan(avgOlder.Mul(trendDown)):
		patterns = append(patterns, models.Insight{
			Icon:        "📉",
			Title:       "Spending Decreasing",
			Description: "Great! Your spending has decreased by 20% recently. Keep maintaining this discipline.",
		})
	}
	return patterns
}

// window returns up to trendWindow transactions starting at from
func window(txns []models.Transaction, from int) []models.Transaction {
	if from >= len(txns) {
		return nil
	}
	end := from + trendWindow
	if end > len(txns) {
		end = len(txns)
	}
	return txns[from:end]
}

// averageExpense is the expense total divided by the number of transactions
// in the window, income included
func averageExpense(txns []models.Transaction) decimal.Decimal {
	if len(txns) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, t := range txns {
		if t.Kind.IsExpense() {
			total = total.Add(t.Amount)
		}
	}
	return total.Div(decimal.NewFromInt(int64(len(txns))))
}

// Comparison is one month's totals against the month before
type Comparison struct {
	Month         string          `json:"month"`
	Income        decimal.Decimal `json:"income"`
	Expense       decimal.Decimal `json:"expense"`
	PreviousMonth string          `json:"previous_month"`
	PrevIncome    decimal.Decimal `json:"previous_income"`
	PrevExpense   decimal.Decimal `json:"previous_expense"`
	IncomeChange  float64         `json:"income_change"`
	ExpenseChange float64         `json:"expense_change"`
	HasPrevious   bool            `json:"has_previous"`
}

// CompareMonths compares the month containing at with the previous month
func (s *Service) CompareMonths(txns []models.Transaction, at time.Time) Comparison {
	cur := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := cur.AddDate(0, -1, 0)

	ts := models.NewTransactionSet(txns)
	curSet := ts.FilterByMonth(int(cur.Month()), cur.Year()).Transactions
	prevSet := ts.FilterByMonth(int(prev.Month()), prev.Year()).Transactions
	curTotals := balance.TotalsOf(curSet)
	prevTotals := balance.TotalsOf(prevSet)

	return Comparison{
		Month:         cur.Format(seriesLabelLayout),
		Income:        curTotals.Income,
		Expense:       curTotals.Expense,
		PreviousMonth: prev.Format(seriesLabelLayout),
		PrevIncome:    prevTotals.Income,
		PrevExpense:   prevTotals.Expense,
		IncomeChange:  s.PercentChange(curTotals.Income, prevTotals.Income),
		ExpenseChange: s.PercentChange(curTotals.Expense, prevTotals.Expense),
		HasPrevious:   len(prevSet) > 0,
	}
}
