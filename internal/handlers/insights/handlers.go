package insights

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apphttp "khazana/internal/http"
	"khazana/internal/models"
	"khazana/internal/services/analytics"
)

var (
	svc *analytics.Service
	now = time.Now
)

// Initialize sets up the insights package with required dependencies
func Initialize(s *analytics.Service, clock func() time.Time) {
	svc = s
	if clock != nil {
		now = clock
	}
}

// RegisterRoutes registers all analytics routes
func RegisterRoutes(r chi.Router) {
	r.Get("/analytics/summary", withLedger(handleSummary))
	r.Get("/analytics/series", withLedger(handleSeries))
	r.Get("/analytics/forecast", withLedger(handleForecast))
	r.Get("/analytics/insights", withLedger(handleInsights))
	r.Get("/analytics/patterns", withLedger(handlePatterns))
	r.Get("/analytics/compare", withLedger(handleCompare))
}

type ledgerHandler func(w http.ResponseWriter, r *http.Request, txns []models.Transaction)

// withLedger loads the user's transactions before calling h
func withLedger(h ledgerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txns, err := apphttp.AccountFrom(r).Ledger.Load(r.Context())
		if err != nil {
			apphttp.WriteError(w, err)
			return
		}
		h(w, r, txns)
	}
}

func handleSummary(w http.ResponseWriter, r *http.Request, txns []models.Transaction) {
	apphttp.WriteJSON(w, http.StatusOK, svc.Summary(txns))
}

func handleSeries(w http.ResponseWriter, r *http.Request, txns []models.Transaction) {
	apphttp.WriteJSON(w, http.StatusOK, svc.MonthlySeries(txns))
}

func handleForecast(w http.ResponseWriter, r *http.Request, txns []models.Transaction) {
	apphttp.WriteJSON(w, http.StatusOK, svc.ForecastNextMonth(svc.MonthlySeries(txns)))
}

func handleInsights(w http.ResponseWriter, r *http.Request, txns []models.Transaction) {
	insights := svc.Insights(txns)
	if insights == nil {
		insights = []models.Insight{}
	}
	apphttp.WriteJSON(w, http.StatusOK, insights)
}

func handlePatterns(w http.ResponseWriter, r *http.Request, txns []models.Transaction) {
	patterns := svc.Patterns(txns)
	if patterns == nil {
		patterns = []models.Insight{}
	}
	apphttp.WriteJSON(w, http.StatusOK, patterns)
}

func handleCompare(w http.ResponseWriter, r *http.Request, txns []models.Transaction) {
	at := now()
	if m := r.URL.Query().Get("month"); m != "" {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			apphttp.WriteError(w, models.Invalid("month", "month must be YYYY-MM"))
			return
		}
		at = t
	}
	apphttp.WriteJSON(w, http.StatusOK, svc.CompareMonths(txns, at))
}
