package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
	"khazana/internal/services/gate"
	"khazana/internal/services/storage"
)

// maxBodySize bounds JSON request bodies
const maxBodySize = 1 << 20

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Balance string `json:"balance,omitempty"`
}

// WriteJSON encodes v as the response body
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// ErrorResponse sends a JSON error response
func ErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		slog.Error("request failed", "error", message, "status", statusCode)
	} else {
		slog.Debug("request rejected", "error", message, "status", statusCode)
	}
	WriteJSON(w, statusCode, ErrorBody{Error: message})
}

// WriteError maps a service error to its status code and writes it.
// A parse error is checked first since it may wrap a validation error.
func WriteError(w http.ResponseWriter, err error) {
	var (
		ve *models.ValidationError
		fe *models.InsufficientFundsError
	)

	switch {
	case models.IsParse(err):
		ErrorResponse(w, "invalid file: "+err.Error(), http.StatusBadRequest)
	case errors.As(err, &ve):
		WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &fe):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Error:   fe.Error(),
			Balance: fe.Balance.StringFixed(2),
		})
	case errors.Is(err, gate.ErrNotUnlocked):
		ErrorResponse(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, gate.ErrLockedOut):
		ErrorResponse(w, err.Error(), http.StatusLocked)
	case errors.Is(err, storage.ErrLocked):
		ErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	default:
		ErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

// DecodeJSON reads a JSON request body into v. Malformed bodies are validation errors.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return models.Invalid("", "invalid request body: %v", err)
	}
	return nil
}

// ParseDateRange parses the start and end query parameters. Missing bounds are open.
func ParseDateRange(startStr, endStr string) (start, end models.Date, err error) {
	if startStr != "" {
		if start, err = models.ParseDate(startStr); err != nil {
			return start, end, models.Invalid("start", "%v", err)
		}
	}
	if endStr != "" {
		if end, err = models.ParseDate(endStr); err != nil {
			return start, end, models.Invalid("end", "%v", err)
		}
	}
	return start, end, nil
}

// ParseAmountParam parses an optional decimal query parameter
func ParseAmountParam(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, models.Invalid(name, "invalid amount %q", s)
	}
	return &d, nil
}

// ParsePage returns page and perPage with defaults of 1 and 25
func ParsePage(pageStr, perPageStr string) (page, perPage int) {
	page, _ = strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(perPageStr)
	if perPage < 1 {
		perPage = 25
	}
	return page, perPage
}

// Attachment sets the download headers for an export
func Attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
