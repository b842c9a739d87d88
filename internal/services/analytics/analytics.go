package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
	"khazana/internal/services/balance"
)

// Forecast tuning. These are behavioural contracts; do not tune.
const (
	forecastWindow    = 3
	recommendedFactor = "1.1"
	savingsGoalFactor = "0.2"
	minForecastMonths = 2
	seriesLabelLayout = "Jan 2006"
	monthKeyLayout    = "2006-01"
)

var hundred = decimal.NewFromInt(100)

// Service computes derived views of a ledger. All methods are pure.
type Service struct {
	currency string
}

// New creates an analytics service formatting amounts in currency
func New(currency string) *Service {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &Service{currency: currency}
}

// CategoryBreakdown totals withdrawals and transfers per category
func (s *Service) CategoryBreakdown(txns []models.Transaction) map[string]models.CategoryTotal {
	out := make(map[string]models.CategoryTotal)
	for i := range txns {
		t := &txns[i]
		if !t.Kind.IsExpense() {
			continue
		}
		cat := t.CategoryOrDefault()
		ct := out[cat]
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
		out[cat] = ct
	}
	return out
}

// RankedCategories orders the breakdown by total, largest first, with each
// category's share of all expenses. Equal totals sort by name.
func (s *Service) RankedCategories(txns []models.Transaction, icon func(string) string) []models.CategorySummary {
	breakdown := s.CategoryBreakdown(txns)
	totalExpense := decimal.Zero
	for _, ct := range breakdown {
		totalExpense = totalExpense.Add(ct.Total)
	}

	out := make([]models.CategorySummary, 0, len(breakdown))
	for cat, ct := range breakdown {
		var pct float64
		if totalExpense.IsPositive() {
			pct = ct.Total.Div(totalExpense).Mul(hundred).InexactFloat64()
		}
		ic := models.DefaultIcon
		if icon != nil {
			ic = icon(cat)
		}
		out = append(out, models.CategorySummary{
			Category:   cat,
			Icon:       ic,
			Amount:     ct.Total,
			Count:      ct.Count,
			Percentage: pct,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlySeries buckets income and expense by calendar month, oldest first
func (s *Service) MonthlySeries(txns []models.Transaction) models.MonthlySeries {
	type bucket struct{ income, expense decimal.Decimal }
	months := make(map[string]*bucket)

	for i := range txns {
		t := &txns[i]
		key := t.Date.MonthKey()
		b, ok := months[key]
		if !ok {
			b = &bucket{income: decimal.Zero, expense: decimal.Zero}
			months[key] = b
		}
		switch {
		case t.Kind.IsIncome():
			b.income = b.income.Add(t.Amount)
		case t.Kind.IsExpense():
			b.expense = b.expense.Add(t.Amount)
		}
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := models.MonthlySeries{
		Labels:  make([]string, 0, len(keys)),
		Income:  make([]decimal.Decimal, 0, len(keys)),
		Expense: make([]decimal.Decimal, 0, len(keys)),
	}
	for _, k := range keys {
		label := k
		if m, err := time.Parse(monthKeyLayout, k); err == nil {
			label = m.Format(seriesLabelLayout)
		}
		series.Labels = append(series.Labels, label)
		series.Income = append(series.Income, months[k].income)
		series.Expense = append(series.Expense, months[k].expense)
	}
	return series
}

// ForecastNextMonth predicts next month's expense as the mean of the last
// three months. Fewer than two months of history gives no forecast.
func (s *Service) ForecastNextMonth(series models.MonthlySeries) models.Forecast {
	expenses := series.Expense
	if len(expenses) < minForecastMonths {
		return models.Forecast{}
	}
	if len(expenses) > forecastWindow {
		expenses = expenses[len(expenses)-forecastWindow:]
	}

	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e)
	}
	predicted := sum.Div(decimal.NewFromInt(int64(len(expenses))))

	return models.Forecast{
		Available:         true,
		PredictedExpense:  predicted,
		RecommendedBudget: predicted.Mul(decimal.RequireFromString(recommendedFactor)),
		SavingsGoal:       predicted.Mul(decimal.RequireFromString(savingsGoalFactor)),
	}
}

// Summary computes the headline metrics of a ledger
func (s *Service) Summary(txns []models.Transaction) models.Summary {
	ts := models.NewTransactionSet(txns)
	totals := balance.TotalsOf(txns)

	highest := decimal.Zero
	for _, t := range txns {
		if t.Kind.IsExpense() && t.Amount.GreaterThan(highest) {
			highest = t.Amount
		}
	}

	sum := models.Summary{
		TotalIncome:      totals.Income,
		TotalExpense:     totals.Expense,
		NetSavings:       totals.Income.Sub(totals.Expense),
		HighestExpense:   highest,
		AvgDailySpending: decimal.Zero,
		SavingsRate:      savingsRate(totals),
		TransactionCount: len(txns),
	}
	if len(txns) == 0 {
		return sum
	}

	sum.StartDate = ts.MinDate()
	sum.EndDate = ts.MaxDate()
	days := int64(math.Ceil(sum.EndDate.Sub(sum.StartDate.Time).Hours() / 24))
	if days < 1 {
		days = 1
	}
	sum.AvgDailySpending = totals.Expense.Div(decimal.NewFromInt(days))
	return sum
}

// PercentChange calculates the percentage change between two values
func (s *Service) PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	return current.Sub(previous).Div(previous.Abs()).Mul(hundred).InexactFloat64()
}

// savingsRate is net savings as a percentage of income, 0 without income
func savingsRate(t balance.Totals) float64 {
	if !t.Income.IsPositive() {
		return 0
	}
	return t.Income.Sub(t.Expense).Div(t.Income).Mul(hundred).InexactFloat64()
}
