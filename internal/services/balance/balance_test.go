package balance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
)

func tx(kind models.Kind, amount string, date models.Date, category string) models.Transaction {
	return models.Transaction{
		ID:       string(kind) + amount,
		Kind:     kind,
		Date:     date,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
	}
}

func scenario() []models.Transaction {
	return []models.Transaction{
		tx(models.Deposit, "1000", models.NewDate(2024, time.January, 5), ""),
		tx(models.Withdrawal, "300", models.NewDate(2024, time.January, 10), "Food"),
	}
}

func TestBalanceScenario(t *testing.T) {
	txns := scenario()

	if got := Balance(txns); !got.Equal(decimal.NewFromInt(700)) {
		t.Errorf("Balance = %s, want 700", got)
	}
	if got := MonthlySpend(txns, time.January, 2024, "Food"); !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("MonthlySpend(Jan 2024, Food) = %s, want 300", got)
	}
}

func TestBalanceOrderIndependent(t *testing.T) {
	txns := []models.Transaction{
		tx(models.Deposit, "500.25", models.NewDate(2024, 3, 1), ""),
		tx(models.Received, "100", models.NewDate(2024, 3, 2), ""),
		tx(models.Transfer, "50.25", models.NewDate(2024, 3, 3), ""),
		tx(models.Withdrawal, "20", models.NewDate(2024, 3, 4), ""),
	}
	want := decimal.RequireFromString("530")

	reversed := make([]models.Transaction, len(txns))
	for i, x := range txns {
		reversed[len(txns)-1-i] = x
	}

	for name, set := range map[string][]models.Transaction{"forward": txns, "reversed": reversed} {
		if got := Balance(set); !got.Equal(want) {
			t.Errorf("%s: Balance = %s, want %s", name, got, want)
		}
	}
}

func TestBalanceMayGoNegative(t *testing.T) {
	txns := []models.Transaction{
		tx(models.Withdrawal, "80", models.NewDate(2024, 1, 1), ""),
	}
	b := Balance(txns)
	if !b.Equal(decimal.NewFromInt(-80)) {
		t.Errorf("Balance = %s, want -80", b)
	}
	if StatusOf(b) != StatusNegative {
		t.Errorf("StatusOf(%s) = %s", b, StatusOf(b))
	}
}

func TestMonthlySpend(t *testing.T) {
	txns := append(scenario(),
		tx(models.Transfer, "200", models.NewDate(2024, time.January, 20), "Rent"),
		tx(models.Withdrawal, "50", models.NewDate(2024, time.February, 1), "Food"),
		tx(models.Withdrawal, "40", models.NewDate(2023, time.January, 15), "Food"),
		tx(models.Received, "999", models.NewDate(2024, time.January, 12), "Food"),
	)

	tests := []struct {
		name     string
		month    time.Month
		year     int
		category string
		want     string
	}{
		{"all january", time.January, 2024, "", "500"},
		{"food january", time.January, 2024, "Food", "300"},
		{"rent january", time.January, 2024, "Rent", "200"},
		{"case sensitive", time.January, 2024, "food", "0"},
		{"february", time.February, 2024, "", "50"},
		{"other year", time.January, 2023, "Food", "40"},
		{"empty month", time.March, 2024, "", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlySpend(txns, tt.month, tt.year, tt.category)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHasSufficientBalance(t *testing.T) {
	txns := scenario()
	tests := []struct {
		amount string
		want   bool
	}{
		{"699.99", true},
		{"700", true},
		{"700.01", false},
	}
	for _, tt := range tests {
		if got := HasSufficientBalance(txns, decimal.RequireFromString(tt.amount)); got != tt.want {
			t.Errorf("HasSufficientBalance(%s) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func TestTotalsOf(t *testing.T) {
	got := TotalsOf(scenario())
	if !got.Income.Equal(decimal.NewFromInt(1000)) || !got.Expense.Equal(decimal.NewFromInt(300)) {
		t.Errorf("TotalsOf = %+v", got)
	}
	if StatusOf(decimal.Zero) != StatusZero {
		t.Error("zero balance should have zero status")
	}
}
