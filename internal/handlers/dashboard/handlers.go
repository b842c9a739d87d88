package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apphttp "khazana/internal/http"
	"khazana/internal/models"
	"khazana/internal/services/balance"
	"khazana/internal/services/gate"
)

var (
	now      = time.Now
	currency = models.DefaultCurrency
)

// Initialize sets up the dashboard package with required dependencies
func Initialize(clock func() time.Time, cur string) {
	if clock != nil {
		now = clock
	}
	if cur != "" {
		currency = cur
	}
}

// RegisterRoutes registers the balance and quick-stats routes
func RegisterRoutes(r chi.Router) {
	r.Get("/balance", handleBalance)
	r.Get("/stats", handleStats)
}

// BalanceResponse is the gated balance view
type BalanceResponse struct {
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`
	Status    balance.Status  `json:"status"`
	Totals    balance.Totals  `json:"totals"`
}

// StatsResponse is the quick-stats card. It does not reveal the balance.
type StatsResponse struct {
	TransactionCount int             `json:"transaction_count"`
	MonthIncome      decimal.Decimal `json:"month_income"`
	MonthSpend       decimal.Decimal `json:"month_spend"`
	Month            string          `json:"month"`
}

func handleBalance(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	g, err := a.Gate(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}
	if !g.IsUnlocked() {
		apphttp.WriteError(w, gate.ErrNotUnlocked)
		return
	}

	txns, err := a.Ledger.Load(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	b := balance.Balance(txns)
	apphttp.WriteJSON(w, http.StatusOK, BalanceResponse{
		Balance:   b,
		Formatted: models.FormatMoney(b, currency),
		Status:    balance.StatusOf(b),
		Totals:    balance.TotalsOf(txns),
	})
}

func handleStats(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	txns, err := a.Ledger.Load(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	t := now()
	month := models.NewTransactionSet(txns).FilterByMonth(int(t.Month()), t.Year())
	apphttp.WriteJSON(w, http.StatusOK, StatsResponse{
		TransactionCount: len(txns),
		MonthIncome:      balance.TotalsOf(month.Transactions).Income,
		MonthSpend:       balance.MonthlySpend(txns, t.Month(), t.Year(), ""),
		Month:            t.Format("January 2006"),
	})
}
