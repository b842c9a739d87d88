package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"khazana/internal/logging"
	"khazana/internal/models"
	"khazana/internal/services/account"
	"khazana/internal/services/dataloader"
	"khazana/internal/services/ledger"
)

// MaxImportSize bounds an uploaded backup
const MaxImportSize = 10 << 20

// ImportResult reports what an import replaced
type ImportResult struct {
	Format       Format `json:"format"`
	Transactions int    `json:"transactions"`
	Budgets      bool   `json:"budgets_replaced"`
	Categories   bool   `json:"categories_replaced"`
}

// BackupFile is the subset of a backup an import reads. The user field
// differs between versions and is ignored.
type BackupFile struct {
	Transactions     *[]models.Transaction `json:"transactions"`
	Budgets          *[]models.Budget      `json:"budgets"`
	CustomCategories *[]models.Category    `json:"customCategories"`
}

// DecodeBackup parses a JSON backup. Malformed JSON or a missing
// transactions field is a *models.ParseError.
func DecodeBackup(r io.Reader) (*BackupFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize))
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	var b BackupFile
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &models.ParseError{Source: "backup file", Err: err}
	}
	if b.Transactions == nil {
		return nil, &models.ParseError{Source: "backup file", Err: errors.New("missing transactions")}
	}
	for i, t := range *b.Transactions {
		if !t.Kind.Valid() || t.Amount.IsNegative() {
			return nil, &models.ParseError{
				Source: "backup file",
				Err:    fmt.Errorf("transaction %d: invalid type %q or amount %s", i+1, t.Kind, t.Amount),
			}
		}
	}
	return &b, nil
}

// FormatForFilename picks the import format from a file extension
func FormatForFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".txt":
		return FormatText, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", models.Invalid("file", "unsupported file type %q: use .json, .txt or .csv", filepath.Ext(name))
}

// Import replaces a user's data from r. JSON backups overwrite transactions
// and, when present, budgets and custom categories. Pipe text and CSV
// statements overwrite transactions only. Nothing is merged and nothing is written on a parse error.
func Import(ctx context.Context, a *account.Account, format Format, r io.Reader) (ImportResult, error) {
	logger := logging.For(logging.ComponentExporter).With(logging.FieldUser, a.User)

	switch format {
	case FormatJSON:
		return importJSON(ctx, a, r, logger)
	case FormatText:
		return importPipe(ctx, a, r, logger)
	case FormatCSV:
		return importCSV(ctx, a, r, logger)
	}
	return ImportResult{}, models.Invalid("format", "cannot import %q", format)
}

func importJSON(ctx context.Context, a *account.Account, r io.Reader, logger *slog.Logger) (ImportResult, error) {
	b, err := DecodeBackup(r)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Format: FormatJSON, Transactions: len(*b.Transactions)}
	if err := a.Ledger.ReplaceAll(ctx, *b.Transactions); err != nil {
		return res, err
	}
	if b.Budgets != nil {
		if err := a.Budgets.ReplaceAll(ctx, *b.Budgets); err != nil {
			return res, err
		}
		res.Budgets = true
	}
	if b.CustomCategories != nil {
		if err := a.Categories.ReplaceAll(ctx, *b.CustomCategories); err != nil {
			return res, err
		}
		res.Categories = true
	}

	logger.Info("backup restored", logging.FieldCount, res.Transactions,
		"budgets", res.Budgets, "categories", res.Categories)
	return res, nil
}

func importPipe(ctx context.Context, a *account.Account, r io.Reader, logger *slog.Logger) (ImportResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize))
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import: %w", err)
	}
	txns, err := ledger.DecodePipe(string(data))
	if err != nil {
		return ImportResult{}, err
	}
	if err := a.Ledger.ReplaceAll(ctx, txns); err != nil {
		return ImportResult{}, err
	}
	logger.Info("pipe text imported", logging.FieldCount, len(txns))
	return ImportResult{Format: FormatText, Transactions: len(txns)}, nil
}

func importCSV(ctx context.Context, a *account.Account, r io.Reader, logger *slog.Logger) (ImportResult, error) {
	txns, err := dataloader.New(nil).Load(io.LimitReader(r, MaxImportSize))
	if err != nil {
		return ImportResult{}, err
	}
	if err := a.Ledger.ReplaceAll(ctx, txns); err != nil {
		return ImportResult{}, err
	}
	logger.Info("csv statement imported", logging.FieldCount, len(txns))
	return ImportResult{Format: FormatCSV, Transactions: len(txns)}, nil
}
