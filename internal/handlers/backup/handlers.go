package backup

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"khazana/internal/config"
	apphttp "khazana/internal/http"
	"khazana/internal/logging"
	"khazana/internal/models"
	"khazana/internal/services/exporter"
	"khazana/internal/version"
)

var (
	cfg *config.Config
	exp *exporter.Exporter
	now = time.Now
)

// Initialize sets up the backup package with required dependencies
func Initialize(c *config.Config, e *exporter.Exporter, clock func() time.Time) {
	cfg = c
	exp = e
	if clock != nil {
		now = clock
	}
}

// RegisterRoutes registers the per-user export and import routes
func RegisterRoutes(r chi.Router) {
	r.Get("/export/{format}", handleExport)
	r.Post("/import", handleImport)
}

// HandleHealth reports liveness and the configured backend
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	backend := ""
	if cfg != nil {
		backend = cfg.Backend
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": backend})
}

// HandleVersion reports build information
func HandleVersion(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, version.Get())
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	month := now()
	if m := r.URL.Query().Get("month"); m != "" {
		if month, err = time.Parse("2006-01", m); err != nil {
			apphttp.WriteError(w, models.Invalid("month", "month must be YYYY-MM"))
			return
		}
	}

	// rendered fully before the headers so a storage error still gets a JSON error
	var buf bytes.Buffer
	if err := exp.Export(r.Context(), a, format, month, &buf); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.Attachment(w, format.ContentType(), exp.Filename(format, a.User, month))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func handleImport(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	r.Body = http.MaxBytesReader(w, r.Body, exporter.MaxImportSize)
	if err := r.ParseMultipartForm(exporter.MaxImportSize); err != nil {
		apphttp.WriteError(w, models.Invalid("file", "invalid upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apphttp.WriteError(w, models.Invalid("file", "no file uploaded"))
		return
	}
	defer file.Close()

	format, err := exporter.FormatForFilename(header.Filename)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	res, err := exporter.Import(r.Context(), a, format, file)
	if err != nil {
		logging.For(logging.ComponentHTTP).Warn("import failed",
			slog.String(logging.FieldUser, a.User),
			slog.String("filename", header.Filename),
			slog.Any(logging.FieldError, err))
		apphttp.WriteError(w, err)
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, res)
}
