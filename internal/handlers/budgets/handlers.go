package budgets

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apphttp "khazana/internal/http"
	"khazana/internal/models"
	"khazana/internal/services/analytics"
)

var svc *analytics.Service

// Initialize sets up the budgets package with required dependencies
func Initialize(s *analytics.Service) {
	svc = s
}

// RegisterRoutes registers the budget and category routes
func RegisterRoutes(r chi.Router) {
	r.Get("/budgets", handleOverview)
	r.Put("/budgets", handleSet)
	r.Delete("/budgets/{category}", handleDelete)

	r.Get("/categories", handleCategories)
	r.Post("/categories", handleAddCategory)
	r.Get("/categories/breakdown", handleBreakdown)
}

type setRequest struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type categoryRequest struct {
	Name string              `json:"name"`
	Type models.CategoryType `json:"type"`
	Icon string              `json:"icon"`
}

// CategoriesResponse lists the built-in and custom categories
type CategoriesResponse struct {
	Builtin map[string]string `json:"builtin"`
	Custom  []models.Category `json:"custom"`
}

func handleOverview(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	txns, err := a.Ledger.Load(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}
	// loads the custom icons used by the overview
	if _, err := a.Categories.List(r.Context()); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	overview, err := a.Budgets.Overview(r.Context(), txns)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, overview)
}

func handleSet(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	var req setRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	b, err := a.Budgets.Set(r.Context(), req.Category, req.Amount)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, b)
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	if err := a.Budgets.Delete(r.Context(), chi.URLParam(r, "category")); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := apphttp.AccountFrom(r).Categories.List(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, CategoriesResponse{Builtin: models.BuiltinIcons, Custom: cats})
}

func handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	cat, err := apphttp.AccountFrom(r).Categories.Add(r.Context(), req.Name, req.Type, req.Icon)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusCreated, cat)
}

func handleBreakdown(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	txns, err := a.Ledger.Load(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}
	if _, err := a.Categories.List(r.Context()); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, svc.RankedCategories(txns, a.Categories.Icon))
}
