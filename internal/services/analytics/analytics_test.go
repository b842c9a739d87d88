package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
)

func tx(kind models.Kind, amount string, date models.Date, category string) models.Transaction {
	return models.Transaction{
		Kind:     kind,
		Date:     date,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestForecastScenario(t *testing.T) {
	s := New("INR")
	series := models.MonthlySeries{
		Labels:  []string{"Jan 2024", "Feb 2024", "Mar 2024"},
		Income:  []decimal.Decimal{dec("0"), dec("0"), dec("0")},
		Expense: []decimal.Decimal{dec("1000"), dec("1200"), dec("1100")},
	}

	f := s.ForecastNextMonth(series)
	if !f.Available {
		t.Fatal("forecast should be available")
	}
	if !f.PredictedExpense.Equal(dec("1100")) {
		t.Errorf("PredictedExpense = %s, want 1100", f.PredictedExpense)
	}
	if !f.RecommendedBudget.Equal(dec("1210")) {
		t.Errorf("RecommendedBudget = %s, want 1210", f.RecommendedBudget)
	}
	if !f.SavingsGoal.Equal(dec("220")) {
		t.Errorf("SavingsGoal = %s, want 220", f.SavingsGoal)
	}
}

func TestForecastWindow(t *testing.T) {
	s := New("INR")
	tests := []struct {
		name      string
		expenses  []string
		available bool
		predicted string
	}{
		{"no history", nil, false, "0"},
		{"one month", []string{"500"}, false, "0"},
		{"two months", []string{"400", "600"}, true, "500"},
		{"only last three count", []string{"9000", "1000", "1200", "1100"}, true, "1100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var series models.MonthlySeries
			for _, e := range tt.expenses {
				series.Expense = append(series.Expense, dec(e))
			}
			f := s.ForecastNextMonth(series)
			if f.Available != tt.available {
				t.Fatalf("Available = %v, want %v", f.Available, tt.available)
			}
			if tt.available && !f.PredictedExpense.Equal(dec(tt.predicted)) {
				t.Errorf("PredictedExpense = %s, want %s", f.PredictedExpense, tt.predicted)
			}
		})
	}
}

func TestCategoryBreakdown(t *testing.T) {
	s := New("INR")
	txns := []models.Transaction{
		tx(models.Withdrawal, "300", models.NewDate(2024, 1, 10), "Food"),
		tx(models.Transfer, "200", models.NewDate(2024, 1, 11), "Food"),
		tx(models.Withdrawal, "50", models.NewDate(2024, 1, 12), ""),
		tx(models.Deposit, "1000", models.NewDate(2024, 1, 5), "Salary"),
		tx(models.Received, "20", models.NewDate(2024, 1, 6), "Food"),
	}

	got := s.CategoryBreakdown(txns)
	if len(got) != 2 {
		t.Fatalf("got %d categories: %v", len(got), got)
	}
	if food := got["Food"]; !food.Total.Equal(dec("500")) || food.Count != 2 {
		t.Errorf("Food = %+v", food)
	}
	if unc := got[models.DefaultCategory]; !unc.Total.Equal(dec("50")) || unc.Count != 1 {
		t.Errorf("Uncategorized = %+v", unc)
	}

	ranked := s.RankedCategories(txns, func(string) string { return "x" })
	if len(ranked) != 2 || ranked[0].Category != "Food" {
		t.Fatalf("ranked = %+v", ranked)
	}
	if ranked[0].Icon != "x" {
		t.Errorf("icon lookup not used")
	}
	if got := ranked[1].Percentage; got < 9.09 || got > 9.10 {
		t.Errorf("Uncategorized share = %v", got)
	}
}

func TestMonthlySeries(t *testing.T) {
	s := New("INR")
	txns := []models.Transaction{
		tx(models.Withdrawal, "100", models.NewDate(2024, time.February, 3), ""),
		tx(models.Deposit, "1000", models.NewDate(2023, time.December, 31), ""),
		tx(models.Withdrawal, "40", models.NewDate(2023, time.December, 1), ""),
		tx(models.Received, "25", models.NewDate(2024, time.February, 20), ""),
	}

	series := s.MonthlySeries(txns)
	wantLabels := []string{"Dec 2023", "Feb 2024"}
	if strings.Join(series.Labels, ",") != strings.Join(wantLabels, ",") {
		t.Fatalf("Labels = %v, want %v", series.Labels, wantLabels)
	}
	if !series.Income[0].Equal(dec("1000")) || !series.Expense[0].Equal(dec("40")) {
		t.Errorf("Dec 2023 = %s / %s", series.Income[0], series.Expense[0])
	}
	if !series.Income[1].Equal(dec("25")) || !series.Expense[1].Equal(dec("100")) {
		t.Errorf("Feb 2024 = %s / %s", series.Income[1], series.Expense[1])
	}
}

func TestSummary(t *testing.T) {
	s := New("INR")
	txns := []models.Transaction{
		tx(models.Deposit, "1000", models.NewDate(2024, 1, 1), ""),
		tx(models.Withdrawal, "300", models.NewDate(2024, 1, 5), ""),
		tx(models.Transfer, "100", models.NewDate(2024, 1, 11), ""),
	}

	sum := s.Summary(txns)
	if !sum.NetSavings.Equal(dec("600")) {
		t.Errorf("NetSavings = %s", sum.NetSavings)
	}
	if !sum.HighestExpense.Equal(dec("300")) {
		t.Errorf("HighestExpense = %s", sum.HighestExpense)
	}
	// 400 over a 10 day span
	if !sum.AvgDailySpending.Equal(dec("40")) {
		t.Errorf("AvgDailySpending = %s", sum.AvgDailySpending)
	}
	if sum.SavingsRate != 60 {
		t.Errorf("SavingsRate = %v", sum.SavingsRate)
	}

	single := s.Summary(txns[1:2])
	if !single.AvgDailySpending.Equal(dec("300")) {
		t.Errorf("single-day span should divide by 1, got %s", single.AvgDailySpending)
	}

	empty := s.Summary(nil)
	if empty.TransactionCount != 0 || !empty.AvgDailySpending.IsZero() {
		t.Errorf("empty summary = %+v", empty)
	}
}

func titles(insights []models.Insight) string {
	var out []string
	for _, i := range insights {
		out = append(out, i.Title)
	}
	return strings.Join(out, "|")
}

func TestInsights(t *testing.T) {
	s := New("INR")
	tests := []struct {
		name string
		txns []models.Transaction
		want string
	}{
		{"empty", nil, ""},
		{
			"excellent",
			[]models.Transaction{
				tx(models.Deposit, "1000", models.NewDate(2024, 1, 1), ""),
				tx(models.Withdrawal, "500", models.NewDate(2024, 1, 2), "Food"),
			},
			"Excellent Savings!|Top Spending Category",
		},
		{
			"good",
			[]models.Transaction{
				tx(models.Deposit, "1000", models.NewDate(2024, 1, 1), ""),
				tx(models.Withdrawal, "800", models.NewDate(2024, 1, 2), "Food"),
			},
			"Good Savings Habit|Top Spending Category",
		},
		{
			"low with exactly ten percent",
			[]models.Transaction{
				tx(models.Deposit, "1000", models.NewDate(2024, 1, 1), ""),
				tx(models.Withdrawal, "900", models.NewDate(2024, 1, 2), "Food"),
			},
			"Low Savings|Top Spending Category",
		},
		{
			"income only",
			[]models.Transaction{tx(models.Deposit, "10", models.NewDate(2024, 1, 1), "")},
			"Excellent Savings!",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titles(s.Insights(tt.txns)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsightsHighFrequency(t *testing.T) {
	s := New("INR")
	var txns []models.Transaction
	for i := 0; i < 91; i++ {
		txns = append(txns, tx(models.Deposit, "1", models.NewDate(2024, 1, 1), ""))
	}
	got := titles(s.Insights(txns))
	if !strings.Contains(got, "High Transaction Frequency") {
		t.Errorf("91 transactions should flag frequency, got %q", got)
	}
	if strings.Contains(titles(s.Insights(txns[:90])), "High Transaction Frequency") {
		t.Error("90 transactions is exactly 3 per day and should not flag")
	}
}

func TestInsightsTopCategoryDescription(t *testing.T) {
	s := New("INR")
	txns := []models.Transaction{
		tx(models.Withdrawal, "750", models.NewDate(2024, 1, 2), "Rent"),
		tx(models.Withdrawal, "250", models.NewDate(2024, 1, 3), "Food"),
	}
	insights := s.Insights(txns)
	if len(insights) < 2 {
		t.Fatalf("got %v", insights)
	}
	desc := insights[1].Description
	if !strings.HasPrefix(desc, "Rent accounts for 75.0% of your expenses (₹750.00)") {
		t.Errorf("description = %q", desc)
	}
}

func TestPatternsWeekend(t *testing.T) {
	s := New("INR")
	// 2024-01-06 is a Saturday
	txns := []models.Transaction{
		tx(models.Withdrawal, "300", models.NewDate(2024, 1, 6), ""),
		tx(models.Withdrawal, "100", models.NewDate(2024, 1, 8), ""),
	}
	got := s.Patterns(txns)
	if len(got) != 1 || got[0].Title != "Weekend Spender" {
		t.Fatalf("got %+v", got)
	}
	if !strings.Contains(got[0].Description, "75.0%") {
		t.Errorf("description = %q", got[0].Description)
	}
}

func TestPatternsTrend(t *testing.T) {
	s := New("INR")
	weekday := models.NewDate(2024, 1, 8)

	build := func(recent, older string, olderCount int) []models.Transaction {
		var txns []models.Transaction
		for i := 0; i < 10; i++ {
			txns = append(txns, tx(models.Withdrawal, recent, weekday, ""))
		}
		for i := 0; i < olderCount; i++ {
			txns = append(txns, tx(models.Withdrawal, older, weekday, ""))
		}
		return txns
	}

	tests := []struct {
		name string
		txns []models.Transaction
		want string
	}{
		{"increasing", build("130", "100", 10), "Spending Increasing"},
		{"decreasing", build("70", "100", 10), "Spending Decreasing"},
		{"flat within band", build("110", "100", 10), ""},
		{"exactly 1.2 is not increasing", build("120", "100", 10), ""},
		{"no older window", build("500", "1", 0), ""},
		{"short older window", build("100", "200", 3), "Spending Decreasing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titles(s.Patterns(tt.txns)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	s := New("INR")
	tests := []struct {
		cur, prev string
		want      float64
	}{
		{"0", "0", 0},
		{"50", "0", 100},
		{"150", "100", 50},
		{"50", "100", -50},
		{"-50", "-100", 50},
	}
	for _, tt := range tests {
		if got := s.PercentChange(dec(tt.cur), dec(tt.prev)); got != tt.want {
			t.Errorf("PercentChange(%s, %s) = %v, want %v", tt.cur, tt.prev, got, tt.want)
		}
	}
}

func TestCompareMonths(t *testing.T) {
	s := New("INR")
	txns := []models.Transaction{
		tx(models.Withdrawal, "150", models.NewDate(2024, time.March, 3), ""),
		tx(models.Withdrawal, "100", models.NewDate(2024, time.February, 3), ""),
		tx(models.Deposit, "500", models.NewDate(2024, time.February, 1), ""),
	}
	c := s.CompareMonths(txns, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	if c.Month != "Mar 2024" || c.PreviousMonth != "Feb 2024" {
		t.Errorf("months = %s / %s", c.Month, c.PreviousMonth)
	}
	if !c.HasPrevious || c.ExpenseChange != 50 || c.IncomeChange != -100 {
		t.Errorf("comparison = %+v", c)
	}
}
