package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUser      = "user"
	FieldKind      = "type"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldCount     = "count"
	FieldFormat    = "format"
	FieldError     = "error"
	FieldOperation = "operation"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentLedger   = "ledger"
	ComponentBudget   = "budget"
	ComponentGate     = "gate"
	ComponentExporter = "exporter"
	ComponentCLI      = "cli"
)

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New creates a text logger writing to w (stdout when nil)
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Setup creates the logger and installs it as the slog default
func Setup(level string, w io.Writer) *slog.Logger {
	logger := New(level, w)
	slog.SetDefault(logger)
	return logger
}

// For returns the default logger tagged with a component name
func For(component string) *slog.Logger {
	return slog.Default().With(FieldComponent, component)
}

// Discard is a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
