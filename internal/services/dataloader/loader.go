package dataloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/logging"
	"khazana/internal/models"
	"khazana/internal/services/ledger"
)

const source = "csv file"

// Standard column names a header is normalised to
const (
	colDate        = "Date"
	colType        = "Type"
	colDescription = "Description"
	colAmount      = "Amount"
	colCategory    = "Category"
	colDebit       = "Debit"
	colCredit      = "Credit"
	colTimestamp   = "Timestamp"
)

// columnMappings maps lower-cased header names seen in khazana exports and
// common bank statements to a standard column
var columnMappings = map[string][]string{
	colDate: {
		"date", "transaction date", "posted date", "post date",
		"trans date", "posting date", "value date", "txn date",
	},
	colType: {"type", "kind", "transaction type"},
	colDescription: {
		"description", "memo", "details", "payee", "name",
		"transaction description", "merchant", "narrative", "narration", "remarks",
	},
	colAmount:   {"amount", "value", "transaction amount", "sum"},
	colCategory: {"category", "category name"},
	colDebit: {
		"debit", "withdrawal", "withdrawals", "withdrawal amt.",
		"money out", "expense", "dr",
	},
	colCredit: {
		"credit", "deposit", "deposits", "deposit amt.",
		"money in", "income", "cr",
	},
	colTimestamp: {"timestamp", "created", "created at"},
}

// dateLayouts are tried in order until one parses
var dateLayouts = []string{
	models.DateLayout,
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Loader turns a CSV statement into ledger transactions
type Loader struct {
	now func() time.Time
}

// New creates a Loader. now stamps rows without a timestamp column and may be nil.
func New(now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{now: now}
}

// normalizeColumnName maps a header cell to its standard name
func normalizeColumnName(col string) string {
	col = strings.TrimSpace(col)
	lower := strings.ToLower(col)
	for standard, variants := range columnMappings {
		for _, variant := range variants {
			if lower == variant {
				return standard
			}
		}
	}
	return col
}

// buildColumnIndex maps standard column names to header positions. The first
// matching column wins.
func buildColumnIndex(header []string) map[string]int {
	colIndex := make(map[string]int)
	for i, col := range header {
		normalized := normalizeColumnName(col)
		if _, exists := colIndex[normalized]; !exists {
			colIndex[normalized] = i
		}
	}
	return colIndex
}

// Load reads every row of r. The whole file is rejected with a
// *models.ParseError on the first bad row.
//
// Rows take their type from a Type column when there is one. Otherwise
// credits and positive amounts become deposits, debits and negative amounts
// become withdrawals.
func (l *Loader) Load(r io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, parseErr(fmt.Errorf("empty file"))
	}
	if err != nil {
		return nil, parseErr(fmt.Errorf("read header: %w", err))
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	colIndex := buildColumnIndex(header)
	_, hasAmount := colIndex[colAmount]
	_, hasDebit := colIndex[colDebit]
	_, hasCredit := colIndex[colCredit]
	useDebitCredit := !hasAmount && (hasDebit || hasCredit)

	if _, ok := colIndex[colDate]; !ok {
		return nil, parseErr(fmt.Errorf("missing required column: Date"))
	}
	if _, ok := colIndex[colDescription]; !ok {
		return nil, parseErr(fmt.Errorf("missing required column: Description or Details"))
	}
	if !hasAmount && !useDebitCredit {
		return nil, parseErr(fmt.Errorf("missing required column: Amount or Debit/Credit"))
	}
	if useDebitCredit {
		logging.For(logging.ComponentExporter).Debug("using debit/credit columns")
	}

	now := l.now()
	stamp := now.Format(models.TimestampLayout)
	txns := []models.Transaction{}
	line := 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, parseErr(fmt.Errorf("line %d: %w", line, err))
		}
		if blank(record) {
			continue
		}

		t, err := parseRecord(record, colIndex, useDebitCredit)
		if err != nil {
			return nil, parseErr(fmt.Errorf("line %d: %w", line, err))
		}
		t.ID = ledger.NewID(now)
		if t.Timestamp == "" {
			t.Timestamp = stamp
		}
		txns = append(txns, t)
	}

	return txns, nil
}

func parseRecord(record []string, colIndex map[string]int, useDebitCredit bool) (models.Transaction, error) {
	var t models.Transaction

	d, err := parseDate(field(record, colIndex, colDate))
	if err != nil {
		return t, err
	}
	t.Date = d
	t.Details = field(record, colIndex, colDescription)
	t.Timestamp = field(record, colIndex, colTimestamp)
	t.Category = field(record, colIndex, colCategory)
	if t.Category == "" {
		t.Category = models.DefaultCategory
	}

	var amount decimal.Decimal
	if useDebitCredit {
		amount, err = parseDebitCredit(record, colIndex)
	} else {
		amount, err = parseAmount(field(record, colIndex, colAmount))
	}
	if err != nil {
		return t, err
	}

	if typ := field(record, colIndex, colType); typ != "" {
		k, err := models.ParseKind(typ)
		if err != nil {
			return t, err
		}
		if amount.IsNegative() {
			return t, fmt.Errorf("negative amount %s for %s", amount, k)
		}
		t.Kind, t.Amount = k, amount
		return t, nil
	}

	t.Kind = models.Deposit
	if amount.IsNegative() {
		t.Kind = models.Withdrawal
	}
	t.Amount = amount.Abs()
	return t, nil
}

// field returns the trimmed cell for a standard column, or "" when absent
func field(record []string, colIndex map[string]int, col string) string {
	idx, ok := colIndex[col]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseDebitCredit combines the Debit and Credit columns into a signed
// amount. A debit takes precedence when both are filled.
func parseDebitCredit(record []string, colIndex map[string]int) (decimal.Decimal, error) {
	amount := decimal.Zero

	if s := field(record, colIndex, colCredit); s != "" {
		credit, err := parseAmount(s)
		if err != nil {
			return amount, err
		}
		amount = credit.Abs()
	}
	if s := field(record, colIndex, colDebit); s != "" {
		debit, err := parseAmount(s)
		if err != nil {
			return amount, err
		}
		if !debit.IsZero() {
			amount = debit.Abs().Neg()
		}
	}
	return amount, nil
}

func parseDate(s string) (models.Date, error) {
	if s == "" {
		return models.Date{}, fmt.Errorf("missing date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), nil
		}
	}
	// ISO timestamps
	if d, err := models.ParseDate(s); err == nil {
		return d, nil
	}
	return models.Date{}, fmt.Errorf("unrecognised date %q", s)
}

// parseAmount parses an amount, dropping currency symbols and thousands
// separators. (100.00) is read as -100.00.
func parseAmount(s string) (decimal.Decimal, error) {
	orig := s
	s = strings.NewReplacer("$", "", "₹", "", "€", "", "£", "", ",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", orig)
	}
	return d, nil
}

func parseErr(err error) error {
	return &models.ParseError{Source: source, Err: err}
}
