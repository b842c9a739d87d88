package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
)

const pipeFields = 7

// EncodePipe renders transactions one per line as
// id|type|date|amount|category|details|timestamp with the amount at two decimals.
// A "|" in the category is written as "/" so the fixed fields stay aligned.
func EncodePipe(txns []models.Transaction) string {
	var b strings.Builder
	for i, t := range txns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join([]string{
			t.ID,
			string(t.Kind),
			t.Date.String(),
			t.Amount.StringFixed(2),
			categoryField(t.Category),
			flatten(t.Details),
			t.Timestamp,
		}, "|"))
	}
	return b.String()
}

// DecodePipe parses the output of EncodePipe. A "|" inside details is tolerated:
// the first five fields and the last are fixed and the rest is details.
// Any malformed line fails the whole decode with a *models.ParseError.
func DecodePipe(text string) ([]models.Transaction, error) {
	var txns []models.Transaction
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		t, err := decodeLine(line)
		if err != nil {
			return nil, &models.ParseError{Source: fmt.Sprintf("line %d", n+1), Err: err}
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func decodeLine(line string) (models.Transaction, error) {
	f := strings.Split(line, "|")
	if len(f) < pipeFields {
		return models.Transaction{}, fmt.Errorf("expected %d fields, got %d", pipeFields, len(f))
	}
	if f[0] == "" {
		return models.Transaction{}, errors.New("missing id")
	}
	kind, err := models.ParseKind(f[1])
	if err != nil {
		return models.Transaction{}, err
	}
	date, err := models.ParseDate(f[2])
	if err != nil {
		return models.Transaction{}, err
	}
	amount, err := decimal.NewFromString(f[3])
	if err != nil {
		return models.Transaction{}, fmt.Errorf("amount %q: %w", f[3], err)
	}
	if amount.IsNegative() {
		return models.Transaction{}, fmt.Errorf("negative amount %s", f[3])
	}
	return models.Transaction{
		ID:        f[0],
		Kind:      kind,
		Date:      date,
		Amount:    amount,
		Category:  f[4],
		Details:   strings.Join(f[5:len(f)-1], "|"),
		Timestamp: f[len(f)-1],
	}, nil
}

// flatten keeps details on one line
func flatten(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// categoryField keeps the category inside its own field
func categoryField(s string) string {
	return strings.ReplaceAll(flatten(s), "|", "/")
}
