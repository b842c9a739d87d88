package exporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"khazana/internal/models"
	"khazana/internal/services/balance"
)

// Report is one month of activity
type Report struct {
	Month        time.Time
	Transactions []models.Transaction
	Income       decimal.Decimal
	Expense      decimal.Decimal
	currency     string
}

// Title is the report heading
func (r *Report) Title() string {
	return "KHAZANA MONTHLY REPORT - " + r.Month.Format("January 2006")
}

// Net is income minus expense
func (r *Report) Net() decimal.Decimal {
	return r.Income.Sub(r.Expense)
}

// MonthlyReport collects the transactions dated in the month of at
func (e *Exporter) MonthlyReport(txns []models.Transaction, at time.Time) *Report {
	month := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	ts := models.NewTransactionSet(txns).FilterByMonth(int(month.Month()), month.Year())
	totals := balance.TotalsOf(ts.Transactions)
	return &Report{
		Month:        month,
		Transactions: ts.Transactions,
		Income:       totals.Income,
		Expense:      totals.Expense,
		currency:     e.currency,
	}
}

// CurrentMonthReport is MonthlyReport for the exporter's clock
func (e *Exporter) CurrentMonthReport(txns []models.Transaction) *Report {
	return e.MonthlyReport(txns, e.now())
}

func (r *Report) money(d decimal.Decimal) string {
	return models.FormatMoney(d, r.currency)
}

// WriteText writes the plain-text report
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString(r.Title() + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Total Transactions: %d\n", len(r.Transactions))
	fmt.Fprintf(&b, "Total Income: %s\n", r.money(r.Income))
	fmt.Fprintf(&b, "Total Expense: %s\n", r.money(r.Expense))
	fmt.Fprintf(&b, "Net Savings: %s\n\n", r.money(r.Net()))
	b.WriteString("TRANSACTIONS:\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")

	for _, t := range r.Transactions {
		sign := "-"
		if t.Kind.IsIncome() {
			sign = "+"
		}
		fmt.Fprintf(&b, "%s | %-12s | %s%10s | %s\n", t.Date, t.Kind, sign, r.money(t.Amount), t.Details)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders the report as a markdown document
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title())
	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total Transactions | %d |\n", len(r.Transactions))
	fmt.Fprintf(&b, "| Total Income | %s |\n", r.money(r.Income))
	fmt.Fprintf(&b, "| Total Expense | %s |\n", r.money(r.Expense))
	fmt.Fprintf(&b, "| Net Savings | %s |\n\n", r.money(r.Net()))

	if len(r.Transactions) == 0 {
		b.WriteString("_No transactions this month._\n")
		return b.String()
	}

	b.WriteString("## Transactions\n\n")
	b.WriteString("| Date | Type | Category | Amount | Details |\n")
	b.WriteString("|---|---|---|---:|---|\n")
	for _, t := range r.Transactions {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			t.Date, t.Kind, t.CategoryOrDefault(), models.FormatSignedMoney(t, r.currency), escapeCell(t.Details))
	}
	return b.String()
}

// Render renders the markdown report for a terminal of the given width
func (r *Report) Render(width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	return renderer.Render(r.Markdown())
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
