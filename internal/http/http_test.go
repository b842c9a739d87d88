package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
	"khazana/internal/services/gate"
	"khazana/internal/services/storage"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", models.Invalid("amount", "amount must not be negative"), http.StatusBadRequest, `"field":"amount"`},
		{"parse", &models.ParseError{Source: "line 2", Err: errors.New("bad")}, http.StatusBadRequest, "invalid file"},
		{"parse wrapping validation", &models.ParseError{Source: "line 1", Err: models.Invalid("type", "unknown")}, http.StatusBadRequest, "invalid file"},
		{
			"insufficient funds",
			fmt.Errorf("record: %w", &models.InsufficientFundsError{Balance: decimal.NewFromInt(700), Requested: decimal.NewFromInt(1000)}),
			http.StatusUnprocessableEntity,
			`"balance":"700.00"`,
		},
		{"not unlocked", gate.ErrNotUnlocked, http.StatusForbidden, "locked"},
		{"locked out", gate.ErrLockedOut, http.StatusLocked, "too many"},
		{"storage locked", storage.ErrLocked, http.StatusServiceUnavailable, "encrypted"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2024-01-01", "")
	if err != nil {
		t.Fatal(err)
	}
	if start != models.NewDate(2024, 1, 1) || !end.IsZero() {
		t.Errorf("got %v..%v", start, end)
	}

	if _, _, err := ParseDateRange("", "31/01/2024"); !models.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, perPage         string
		wantPage, wantPerPage int
	}{
		{"", "", 1, 25},
		{"3", "10", 3, 10},
		{"-1", "x", 1, 25},
	}
	for _, tt := range tests {
		page, perPage := ParsePage(tt.page, tt.perPage)
		if page != tt.wantPage || perPage != tt.wantPerPage {
			t.Errorf("ParsePage(%q, %q) = %d, %d", tt.page, tt.perPage, page, perPage)
		}
	}
}

func TestParseAmountParam(t *testing.T) {
	if d, err := ParseAmountParam("min", ""); d != nil || err != nil {
		t.Errorf("empty: %v, %v", d, err)
	}
	d, err := ParseAmountParam("min", "12.50")
	if err != nil || !d.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("12.50: %v, %v", d, err)
	}
	if _, err := ParseAmountParam("max", "abc"); !models.IsValidation(err) {
		t.Errorf("abc: %v", err)
	}
}
