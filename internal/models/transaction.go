package models

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are persisted as JSON numbers, matching existing backups.
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind is the transaction type. It determines the sign in balance arithmetic.
type Kind string

const (
	Deposit    Kind = "deposit"
	Withdrawal Kind = "withdrawal"
	Transfer   Kind = "transfer"
	Received   Kind = "received"
)

// Kinds lists every valid kind in display order
var Kinds = []Kind{Deposit, Withdrawal, Transfer, Received}

// DefaultCategory is used when a transaction carries no category
const DefaultCategory = "Uncategorized"

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", Invalid("type", "unknown transaction type %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the four kinds
func (k Kind) Valid() bool {
	switch k {
	case Deposit, Withdrawal, Transfer, Received:
		return true
	}
	return false
}

// IsIncome reports whether the kind adds to the balance
func (k Kind) IsIncome() bool { return k == Deposit || k == Received }

// IsExpense reports whether the kind subtracts from the balance
func (k Kind) IsExpense() bool { return k == Withdrawal || k == Transfer }

// DetailsField names the form field that carries the free-text details for this kind
func (k Kind) DetailsField() string {
	switch k {
	case Deposit:
		return "source"
	case Withdrawal:
		return "reason"
	case Transfer:
		return "transferTo"
	case Received:
		return "receivedFrom"
	}
	return "details"
}

// Transaction is a single ledger record. It is immutable once created.
type Transaction struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"type"`
	Date      Date            `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Details   string          `json:"details"`
	Timestamp string          `json:"timestamp"`
}

// Fields carries the user-supplied part of a new transaction
type Fields struct {
	Date     Date
	Amount   decimal.Decimal
	Category string
	Details  string
}

// Validate checks the fields for a transaction of kind k
func (f Fields) Validate(k Kind) error {
	if !k.Valid() {
		return Invalid("type", "unknown transaction type %q", string(k))
	}
	if f.Date.IsZero() {
		return Invalid("date", "date is required")
	}
	if f.Amount.IsNegative() {
		return Invalid("amount", "amount must not be negative")
	}
	return nil
}

// CategoryOrDefault returns the category, falling back to Uncategorized
func (t *Transaction) CategoryOrDefault() string {
	if strings.TrimSpace(t.Category) == "" {
		return DefaultCategory
	}
	return t.Category
}

// Signed returns the amount with the sign it contributes to the balance
func (t *Transaction) Signed() decimal.Decimal {
	switch {
	case t.Kind.IsIncome():
		return t.Amount
	case t.Kind.IsExpense():
		return t.Amount.Neg()
	}
	return decimal.Zero
}

// TransactionSet wraps a slice with filtering/aggregation methods
type TransactionSet struct {
	Transactions []Transaction
}

// NewTransactionSet creates a new TransactionSet from a slice
func NewTransactionSet(transactions []Transaction) *TransactionSet {
	return &TransactionSet{Transactions: transactions}
}

// Len returns the number of transactions
func (ts *TransactionSet) Len() int {
	return len(ts.Transactions)
}

func (ts *TransactionSet) filter(keep func(t *Transaction) bool) *TransactionSet {
	result := &TransactionSet{}
	for i := range ts.Transactions {
		if keep(&ts.Transactions[i]) {
			result.Transactions = append(result.Transactions, ts.Transactions[i])
		}
	}
	return result
}

// FilterByKind returns transactions of the given kind
func (ts *TransactionSet) FilterByKind(k Kind) *TransactionSet {
	return ts.filter(func(t *Transaction) bool { return t.Kind == k })
}

// Income returns deposits and received transactions
func (ts *TransactionSet) Income() *TransactionSet {
	return ts.filter(func(t *Transaction) bool { return t.Kind.IsIncome() })
}

// Expenses returns withdrawals and transfers
func (ts *TransactionSet) Expenses() *TransactionSet {
	return ts.filter(func(t *Transaction) bool { return t.Kind.IsExpense() })
}

// FilterByDateRange returns transactions within the date range (inclusive).
// A zero bound is open.
func (ts *TransactionSet) FilterByDateRange(start, end Date) *TransactionSet {
	return ts.filter(func(t *Transaction) bool {
		if !start.IsZero() && t.Date.Before(start) {
			return false
		}
		if !end.IsZero() && t.Date.After(end) {
			return false
		}
		return true
	})
}

// FilterByMonth returns transactions dated in the given month and year
func (ts *TransactionSet) FilterByMonth(month, year int) *TransactionSet {
	return ts.filter(func(t *Transaction) bool {
		return int(t.Date.Month()) == month && t.Date.Year() == year
	})
}

// FilterByCategory returns transactions whose category matches exactly
func (ts *TransactionSet) FilterByCategory(category string) *TransactionSet {
	return ts.filter(func(t *Transaction) bool { return t.Category == category })
}

// FilterByAmountRange returns transactions with min <= amount <= max.
// A nil bound is open.
func (ts *TransactionSet) FilterByAmountRange(min, max *decimal.Decimal) *TransactionSet {
	return ts.filter(func(t *Transaction) bool {
		if min != nil && t.Amount.LessThan(*min) {
			return false
		}
		if max != nil && t.Amount.GreaterThan(*max) {
			return false
		}
		return true
	})
}

// FilterBySearch matches the query against amount, details, category, type and date
func (ts *TransactionSet) FilterBySearch(query string) *TransactionSet {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ts.Copy()
	}
	return ts.filter(func(t *Transaction) bool {
		return strings.Contains(t.Amount.String(), q) ||
			strings.Contains(strings.ToLower(t.Details), q) ||
			strings.Contains(strings.ToLower(t.Category), q) ||
			strings.Contains(string(t.Kind), q) ||
			strings.Contains(t.Date.String(), q)
	})
}

// SumAmount returns the sum of all transaction amounts, ignoring kind
func (ts *TransactionSet) SumAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range ts.Transactions {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// GroupByMonth groups transactions by "2006-01"
func (ts *TransactionSet) GroupByMonth() map[string]*TransactionSet {
	result := make(map[string]*TransactionSet)
	for _, t := range ts.Transactions {
		month := t.Date.MonthKey()
		if result[month] == nil {
			result[month] = &TransactionSet{}
		}
		result[month].Transactions = append(result[month].Transactions, t)
	}
	return result
}

// GroupByCategory groups transactions by category
func (ts *TransactionSet) GroupByCategory() map[string]*TransactionSet {
	result := make(map[string]*TransactionSet)
	for _, t := range ts.Transactions {
		cat := t.CategoryOrDefault()
		if result[cat] == nil {
			result[cat] = &TransactionSet{}
		}
		result[cat].Transactions = append(result[cat].Transactions, t)
	}
	return result
}

// MinDate returns the earliest transaction date
func (ts *TransactionSet) MinDate() Date {
	if len(ts.Transactions) == 0 {
		return Date{}
	}
	minDate := ts.Transactions[0].Date
	for _, t := range ts.Transactions[1:] {
		if t.Date.Before(minDate) {
			minDate = t.Date
		}
	}
	return minDate
}

// MaxDate returns the latest transaction date
func (ts *TransactionSet) MaxDate() Date {
	if len(ts.Transactions) == 0 {
		return Date{}
	}
	maxDate := ts.Transactions[0].Date
	for _, t := range ts.Transactions[1:] {
		if t.Date.After(maxDate) {
			maxDate = t.Date
		}
	}
	return maxDate
}

// Categories returns a sorted list of the non-empty categories in use
func (ts *TransactionSet) Categories() []string {
	catMap := make(map[string]bool)
	for _, t := range ts.Transactions {
		if t.Category != "" {
			catMap[t.Category] = true
		}
	}

	cats := make([]string, 0, len(catMap))
	for cat := range catMap {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// Find returns the transaction with the given id
func (ts *TransactionSet) Find(id string) (Transaction, error) {
	for _, t := range ts.Transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return Transaction{}, ErrNotFound
}

// Paginate returns a slice of transactions for the given page
func (ts *TransactionSet) Paginate(page, perPage int) *TransactionSet {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}

	start := (page - 1) * perPage
	if start >= len(ts.Transactions) {
		return &TransactionSet{}
	}

	end := start + perPage
	if end > len(ts.Transactions) {
		end = len(ts.Transactions)
	}

	return &TransactionSet{Transactions: ts.Transactions[start:end]}
}

// TotalPages returns the number of pages for the given page size
func (ts *TransactionSet) TotalPages(perPage int) int {
	if perPage < 1 {
		perPage = 25
	}
	return int(math.Ceil(float64(len(ts.Transactions)) / float64(perPage)))
}

// Copy creates a shallow copy of the TransactionSet
func (ts *TransactionSet) Copy() *TransactionSet {
	copied := make([]Transaction, len(ts.Transactions))
	copy(copied, ts.Transactions)
	return &TransactionSet{Transactions: copied}
}
