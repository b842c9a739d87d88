package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"khazana/internal/models"
	"khazana/internal/services/balance"
	"khazana/internal/services/ledger"
)

// Format names an export format
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatText   Format = "txt"
	FormatML     Format = "ml"
	FormatReport Format = "report"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatText, FormatML, FormatReport:
		return f, nil
	}
	return "", models.Invalid("format", "unknown export format %q", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV, FormatML:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

var csvHeader = []string{"Date", "Type", "Category", "Details", "Amount", "Timestamp"}

var mlHeader = []string{"date", "type", "category", "amount", "day_of_week", "month", "year"}

// Exporter renders a user's data in the export formats
type Exporter struct {
	currency string
	now      func() time.Time
}

// New creates an exporter. now may be nil.
func New(currency string, now func() time.Time) *Exporter {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	if now == nil {
		now = time.Now
	}
	return &Exporter{currency: currency, now: now}
}

// Filename suggests a download name for the format
func (e *Exporter) Filename(f Format, user string, month time.Time) string {
	switch f {
	case FormatCSV:
		return "khazana_transactions.csv"
	case FormatJSON:
		return "khazana_backup_" + e.now().UTC().Format(models.DateLayout) + ".json"
	case FormatText:
		return "transactions_" + user + ".txt"
	case FormatML:
		return "khazana_ml_data.csv"
	}
	return "monthly_report_" + month.Format("January_2006") + ".txt"
}

// WriteCSV writes the transactions table. The details column is always
// quoted with embedded quotes doubled.
func (e *Exporter) WriteCSV(w io.Writer, txns []models.Transaction) error {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteByte('\n')
	for i := range txns {
		t := &txns[i]
		b.WriteString(strings.Join([]string{
			t.Date.String(),
			string(t.Kind),
			csvField(t.CategoryOrDefault()),
			`"` + strings.ReplaceAll(t.Details, `"`, `""`) + `"`,
			t.Amount.StringFixed(2),
			t.Timestamp,
		}, ","))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// csvField quotes a value only when it needs it
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// WriteML writes the feature table used for offline analysis
func (e *Exporter) WriteML(w io.Writer, txns []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(mlHeader); err != nil {
		return err
	}
	for i := range txns {
		t := &txns[i]
		record := []string{
			t.Date.String(),
			string(t.Kind),
			t.CategoryOrDefault(),
			t.Amount.String(),
			strconv.Itoa(int(t.Date.Weekday())),
			strconv.Itoa(int(t.Date.Month())),
			strconv.Itoa(t.Date.Year()),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePipe writes the pipe-delimited interchange text
func (e *Exporter) WritePipe(w io.Writer, txns []models.Transaction) error {
	rows := make([]models.Transaction, len(txns))
	for i, t := range txns {
		t.Category = t.CategoryOrDefault()
		rows[i] = t
	}
	text := ledger.EncodePipe(rows)
	if text != "" {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}

// Backup assembles the full JSON backup of a user
func (e *Exporter) Backup(user string, txns []models.Transaction, budgets []models.Budget, cats []models.Category) models.Backup {
	if txns == nil {
		txns = []models.Transaction{}
	}
	if budgets == nil {
		budgets = []models.Budget{}
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return models.Backup{
		User:             user,
		ExportDate:       e.now().UTC(),
		Transactions:     txns,
		Budgets:          &budgets,
		CustomCategories: &cats,
		Balance:          balance.Balance(txns).String(),
	}
}

// WriteJSON writes an indented backup
func (e *Exporter) WriteJSON(w io.Writer, backup models.Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}
