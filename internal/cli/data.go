package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"khazana/internal/config"
	"khazana/internal/services/exporter"
	"khazana/internal/services/storage"
)

type exportCmd struct {
	format string
	output string
	month  string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export transactions as csv, json, txt, ml or report" }
func (*exportCmd) Usage() string {
	return `khazana [-user <name>] export [-f csv|json|txt|ml|report] [-o <file>|-] [-m YYYY-MM]

  Writes the export to a file named after the format in the current
  directory, or to stdout with -o -.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "f", "csv", "Export format: csv, json, txt, ml or report.")
	f.StringVar(&c.output, "o", "", "Output file, - for stdout (defaults to the suggested file name).")
	f.StringVar(&c.month, "m", "", "Report month as YYYY-MM (report format only).")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format, err := exporter.ParseFormat(c.format)
	if err != nil {
		return fail(err)
	}
	month := now()
	if c.month != "" {
		if month, err = time.Parse("2006-01", c.month); err != nil {
			return usage("Error: -m must be YYYY-MM")
		}
	}

	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	exp := newExporter()

	if c.output == "-" {
		if err := exp.Export(ctx, a, format, month, stdout); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	path := c.output
	if path == "" {
		path = exp.Filename(format, a.User, month)
	}
	f, err := os.Create(path)
	if err != nil {
		return fail(err)
	}
	if err := exp.Export(ctx, a, format, month, f); err != nil {
		f.Close()
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Exported %s to %s\n", format, path)
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the ledger from a .json backup or .txt export" }
func (*importCmd) Usage() string {
	return `khazana [-user <name>] import <file.json|file.txt|file.csv>

  Replaces the user's transactions with the file's. A JSON backup also
  replaces budgets and custom categories when it contains them. A CSV file
  may be a khazana export or a bank statement with Date, Details and either
  Amount or Debit/Credit columns.
`
}
func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage("Usage: khazana import <file>")
	}
	path := f.Arg(0)
	format, err := exporter.FormatForFilename(path)
	if err != nil {
		return fail(err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	res, err := exporter.Import(ctx, a, format, file)
	if err != nil {
		return fail(err)
	}

	fmt.Fprintf(stdout, "Imported %d transaction(s) from %s\n", res.Transactions, filepath.Base(path))
	if res.Budgets {
		fmt.Fprintln(stdout, "Budgets replaced")
	}
	if res.Categories {
		fmt.Fprintln(stdout, "Custom categories replaced")
	}
	return subcommands.ExitSuccess
}

type encryptCmd struct {
	disable bool
}

func (*encryptCmd) Name() string     { return "encrypt" }
func (*encryptCmd) Synopsis() string { return "encrypt the data directory with a passphrase" }
func (*encryptCmd) Usage() string {
	return `khazana encrypt [-disable]

  Encrypts every data file of the file backend at rest. The server and the
  CLI then read KHAZANA_PASSPHRASE to unlock it. -disable decrypts again.
`
}

func (c *encryptCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.disable, "disable", false, "Decrypt the data directory instead.")
}

func (c *encryptCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	if cfg == nil {
		cfg = config.Load()
	}
	if cfg.Backend != config.BackendFile {
		return fail(fmt.Errorf("encryption is only supported by the file backend, not %q", cfg.Backend))
	}

	store, err := storage.New(cfg.DataDirectory)
	if err != nil {
		return fail(err)
	}

	if c.disable {
		if !store.IsEncrypted() {
			fmt.Fprintln(stdout, "Data directory is not encrypted.")
			return subcommands.ExitSuccess
		}
		pass, err := readSecret("Passphrase: ")
		if err != nil {
			return fail(err)
		}
		if err := store.DisableEncryption(pass); err != nil {
			return fail(err)
		}
		fmt.Fprintln(stdout, "Data directory decrypted.")
		return subcommands.ExitSuccess
	}

	if store.IsEncrypted() {
		fmt.Fprintln(stdout, "Data directory is already encrypted.")
		return subcommands.ExitSuccess
	}
	pass, err := readSecret("New passphrase: ")
	if err != nil {
		return fail(err)
	}
	confirm, err := readSecret("Repeat passphrase: ")
	if err != nil {
		return fail(err)
	}
	if pass != confirm {
		return fail(fmt.Errorf("passphrases do not match"))
	}
	if err := store.EnableEncryption(pass); err != nil {
		return fail(err)
	}
	fmt.Fprintf(stdout, "Data directory %s encrypted. Set KHAZANA_PASSPHRASE to use it.\n", cfg.DataDirectory)
	return subcommands.ExitSuccess
}
