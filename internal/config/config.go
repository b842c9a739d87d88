package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by KHAZANA_BACKEND
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds application configuration
type Config struct {
	// Server settings
	ListenAddr      string        `json:"listen_addr"`
	Debug           bool          `json:"debug"`
	LogLevel        string        `json:"log_level"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Storage
	Backend       string `json:"backend"`
	DataDirectory string `json:"data_directory"`
	SQLitePath    string `json:"sqlite_path"`
	Passphrase    string `json:"-"`

	// Display
	Currency string `json:"currency"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		ListenAddr:      ":8080",
		Debug:           false,
		LogLevel:        "info",
		ShutdownTimeout: 15 * time.Second,
		Backend:         BackendFile,
		DataDirectory:   filepath.Join(wd, "data"),
		SQLitePath:      filepath.Join(wd, "data", "khazana.db"),
		Currency:        "INR",
	}
}

// Load loads configuration from a .env file (if present) and the environment
func Load() *Config {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if addr := os.Getenv("KHAZANA_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if debug := os.Getenv("KHAZANA_DEBUG"); debug == "true" || debug == "1" {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if level := os.Getenv("KHAZANA_LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if timeout := os.Getenv("KHAZANA_SHUTDOWN_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.ShutdownTimeout = d
		} else {
			slog.Warn("ignoring invalid KHAZANA_SHUTDOWN_TIMEOUT", "value", timeout, "error", err)
		}
	}
	if backend := os.Getenv("KHAZANA_BACKEND"); backend != "" {
		cfg.Backend = strings.ToLower(backend)
	}
	if dataDir := os.Getenv("KHAZANA_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
		cfg.SQLitePath = filepath.Join(dataDir, "khazana.db")
	}
	if dbPath := os.Getenv("KHAZANA_SQLITE_PATH"); dbPath != "" {
		cfg.SQLitePath = dbPath
	}
	if pass := os.Getenv("KHAZANA_PASSPHRASE"); pass != "" {
		cfg.Passphrase = pass
	}
	if cur := os.Getenv("KHAZANA_CURRENCY"); cur != "" {
		cfg.Currency = strings.ToUpper(cur)
	}

	cfg.ensureDirectories()

	return cfg
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []string

	switch c.Backend {
	case BackendFile, BackendMemory, BackendSQLite:
	default:
		errs = append(errs, fmt.Sprintf("invalid backend %q: must be one of file, memory, sqlite", c.Backend))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.LogLevel))
	}

	if c.ListenAddr == "" {
		errs = append(errs, "listen address is required")
	}
	if c.Backend == BackendFile && c.DataDirectory == "" {
		errs = append(errs, "data directory is required for the file backend")
	}
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		errs = append(errs, "sqlite path is required for the sqlite backend")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown timeout must be positive")
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Sprintf("invalid currency code %q", c.Currency))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ensureDirectories creates required directories if they don't exist
func (c *Config) ensureDirectories() {
	if c.Backend == BackendMemory {
		return
	}
	if err := os.MkdirAll(c.DataDirectory, 0o755); err != nil {
		slog.Warn("could not create directory", "dir", c.DataDirectory, "error", err)
	}
}
