package exporter

import (
	"context"
	"io"
	"time"

	"khazana/internal/logging"
	"khazana/internal/services/account"
)

// Export writes the account's data in format f. month selects the report
// month and is ignored by the other formats.
func (e *Exporter) Export(ctx context.Context, a *account.Account, f Format, month time.Time, w io.Writer) error {
	txns, err := a.Ledger.Load(ctx)
	if err != nil {
		return err
	}

	switch f {
	case FormatCSV:
		err = e.WriteCSV(w, txns)
	case FormatML:
		err = e.WriteML(w, txns)
	case FormatText:
		err = e.WritePipe(w, txns)
	case FormatReport:
		err = e.MonthlyReport(txns, month).WriteText(w)
	case FormatJSON:
		budgets, lerr := a.Budgets.List(ctx)
		if lerr != nil {
			return lerr
		}
		cats, lerr := a.Categories.List(ctx)
		if lerr != nil {
			return lerr
		}
		err = e.WriteJSON(w, e.Backup(a.User, txns, budgets, cats))
	default:
		_, err = ParseFormat(string(f))
	}
	if err != nil {
		return err
	}

	logging.For(logging.ComponentExporter).Debug("exported",
		logging.FieldUser, a.User, logging.FieldFormat, string(f), logging.FieldCount, len(txns))
	return nil
}
