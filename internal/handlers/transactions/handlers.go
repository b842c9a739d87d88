package transactions

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apphttp "khazana/internal/http"
	"khazana/internal/models"
	"khazana/internal/services/balance"
)

// RegisterRoutes registers the ledger routes on a router already scoped to one user
func RegisterRoutes(r chi.Router) {
	r.Get("/transactions", handleList)
	r.Post("/transactions", handleCreate)
	r.Delete("/transactions/{id}", handleDelete)
}

// CreateRequest is the body of POST /transactions. The free text may be sent
// as details or under the kind-specific name (source, reason, transferTo, receivedFrom).
type CreateRequest struct {
	Type         string          `json:"type"`
	Date         models.Date     `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Details      string          `json:"details"`
	Source       string          `json:"source"`
	Reason       string          `json:"reason"`
	TransferTo   string          `json:"transferTo"`
	ReceivedFrom string          `json:"receivedFrom"`
}

// Fields converts the request into validated-later ledger fields
func (c CreateRequest) Fields(k models.Kind) models.Fields {
	details := c.Details
	if details == "" {
		switch k.DetailsField() {
		case "source":
			details = c.Source
		case "reason":
			details = c.Reason
		case "transferTo":
			details = c.TransferTo
		case "receivedFrom":
			details = c.ReceivedFrom
		}
	}
	return models.Fields{
		Date:     c.Date,
		Amount:   c.Amount,
		Category: c.Category,
		Details:  details,
	}
}

// ListResponse is one page of filtered transactions with totals over the whole filter
type ListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Page         int                  `json:"page"`
	PerPage      int                  `json:"perPage"`
	TotalPages   int                  `json:"totalPages"`
	TotalCount   int                  `json:"totalCount"`
	TotalIncome  decimal.Decimal      `json:"totalIncome"`
	TotalExpense decimal.Decimal      `json:"totalExpense"`
	Net          decimal.Decimal      `json:"net"`
}

func handleList(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	txns, err := a.Ledger.Load(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	filtered, err := applyFilters(models.NewTransactionSet(txns), q.Get("type"), q.Get("q"),
		q.Get("category"), q.Get("start"), q.Get("end"), q.Get("min"), q.Get("max"))
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	page, perPage := apphttp.ParsePage(q.Get("page"), q.Get("perPage"))
	totalPages := filtered.TotalPages(perPage)
	if page > totalPages && totalPages > 0 {
		page = totalPages
	}
	paginated := filtered.Paginate(page, perPage)

	totals := balance.TotalsOf(filtered.Transactions)
	resp := ListResponse{
		Transactions: paginated.Transactions,
		Page:         page,
		PerPage:      perPage,
		TotalPages:   totalPages,
		TotalCount:   filtered.Len(),
		TotalIncome:  totals.Income,
		TotalExpense: totals.Expense,
		Net:          totals.Income.Sub(totals.Expense),
	}
	if resp.Transactions == nil {
		resp.Transactions = []models.Transaction{}
	}
	apphttp.WriteJSON(w, http.StatusOK, resp)
}

// applyFilters narrows ts by every non-empty filter. The ledger order is kept.
func applyFilters(ts *models.TransactionSet, kind, search, category, startStr, endStr, minStr, maxStr string) (*models.TransactionSet, error) {
	start, end, err := apphttp.ParseDateRange(startStr, endStr)
	if err != nil {
		return nil, err
	}
	minAmount, err := apphttp.ParseAmountParam("min", minStr)
	if err != nil {
		return nil, err
	}
	maxAmount, err := apphttp.ParseAmountParam("max", maxStr)
	if err != nil {
		return nil, err
	}

	filtered := ts.FilterByDateRange(start, end)
	if kind != "" {
		k, err := models.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		filtered = filtered.FilterByKind(k)
	}
	if category != "" {
		filtered = filtered.FilterByCategory(category)
	}
	if search != "" {
		filtered = filtered.FilterBySearch(search)
	}
	if minAmount != nil || maxAmount != nil {
		filtered = filtered.FilterByAmountRange(minAmount, maxAmount)
	}
	return filtered, nil
}

func handleCreate(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)

	var req CreateRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	k, err := models.ParseKind(req.Type)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	t, err := a.Ledger.Record(r.Context(), k, req.Fields(k))
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteJSON(w, http.StatusCreated, t)
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	id := chi.URLParam(r, "id")

	if err := a.Ledger.Remove(r.Context(), id); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
