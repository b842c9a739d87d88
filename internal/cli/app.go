// Package cli implements the khazana command line. Each command opens the
// configured storage, acts on one user's account and exits.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/term"

	"khazana/internal/config"
	"khazana/internal/logging"
	"khazana/internal/services/account"
	"khazana/internal/services/analytics"
	"khazana/internal/services/exporter"
	"khazana/internal/services/storage"
	"khazana/internal/version"
)

// As a short-lived CLI process it is fine to keep the session in globals.
var (
	userName = flag.String("user", defaultUser(), "Account to act on (env KHAZANA_USER)")

	cfg      *config.Config
	registry *account.Registry

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin

	now = time.Now

	// readSecret prompts for a PIN or passphrase without echo
	readSecret = readTerminalSecret
)

func defaultUser() string {
	if u := os.Getenv("KHAZANA_USER"); u != "" {
		return u
	}
	return "default"
}

// Register adds every khazana command to c
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(&versionCmd{}, "")

	c.Register(&addCmd{}, "ledger")
	c.Register(&listCmd{}, "ledger")
	c.Register(&rmCmd{}, "ledger")
	c.Register(&balanceCmd{}, "ledger")

	c.Register(&budgetCmd{}, "planning")
	c.Register(&categoryCmd{}, "planning")

	c.Register(&insightsCmd{}, "analysis")
	c.Register(&forecastCmd{}, "analysis")
	c.Register(&reportCmd{}, "analysis")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&encryptCmd{}, "data")
}

// Setup loads the configuration and the logger. Logs go to stderr so they
// never mix with command output.
func Setup() error {
	cfg = config.Load()
	logging.Setup(cfg.LogLevel, stderr)
	return cfg.Validate()
}

// Close releases the storage opened by a command
func Close() {
	if registry != nil {
		registry.Close()
		registry = nil
	}
}

// openAccount returns the account selected by -user, opening storage on first use
func openAccount() (*account.Account, error) {
	if registry == nil {
		if cfg == nil {
			cfg = config.Load()
		}
		backend, err := storage.Open(cfg)
		if err != nil {
			return nil, err
		}
		registry = account.NewRegistry(backend, now)
	}
	return registry.For(*userName)
}

func currency() string {
	if cfg == nil {
		return ""
	}
	return cfg.Currency
}

func newAnalytics() *analytics.Service {
	return analytics.New(currency())
}

func newExporter() *exporter.Exporter {
	return exporter.New(currency(), now)
}

// fail prints err and returns the failure status
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(stderr, "Error:", err)
	return subcommands.ExitFailure
}

// usage prints msg and returns the usage status
func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(stderr, msg)
	return subcommands.ExitUsageError
}

// readTerminalSecret reads without echo from a terminal and falls back to a
// plain line read when stdin is piped
func readTerminalSecret(prompt string) (string, error) {
	fmt.Fprint(stderr, prompt)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	return readLine(stdin)
}

// readLine reads up to a newline one byte at a time so that nothing past
// the line is consumed from r
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err == io.EOF && sb.Len() > 0 {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

type versionCmd struct{}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print build information" }
func (*versionCmd) Usage() string {
	return `khazana version
`
}
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Fprintln(stdout, version.Get().String())
	return subcommands.ExitSuccess
}
