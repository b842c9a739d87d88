package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"khazana/internal/models"
	"khazana/internal/services/balance"
	"khazana/internal/services/gate"
)

type addCmd struct {
	kind     string
	date     string
	amount   string
	category string
	details  string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a deposit, withdrawal, transfer or received payment" }
func (*addCmd) Usage() string {
	return `khazana [-user <name>] add -t <type> -a <amount> [-d <date>] [-c <category>] [details...]

  Records a transaction. Withdrawals and transfers are refused when they
  exceed the current balance. The date defaults to today.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "t", "", "Transaction type: deposit, withdrawal, transfer or received.")
	f.StringVar(&c.amount, "a", "", "Amount, e.g. 250.50.")
	f.StringVar(&c.date, "d", "", "Date as YYYY-MM-DD (defaults to today).")
	f.StringVar(&c.category, "c", "", "Category (defaults to Uncategorized).")
	f.StringVar(&c.details, "details", "", "Free-text details (source, reason, recipient or sender).")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.kind == "" || c.amount == "" {
		return usage("Error: -t and -a are required.")
	}
	k, err := models.ParseKind(c.kind)
	if err != nil {
		return fail(err)
	}
	amount, err := models.ParseAmount(c.amount)
	if err != nil {
		return fail(err)
	}
	date := models.DateOf(now())
	if c.date != "" {
		if date, err = models.ParseDate(c.date); err != nil {
			return fail(err)
		}
	}
	details := c.details
	if details == "" && f.NArg() > 0 {
		details = joinArgs(f.Args())
	}

	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	t, err := a.Ledger.Record(ctx, k, models.Fields{
		Date:     date,
		Amount:   amount,
		Category: c.category,
		Details:  details,
	})
	var fe *models.InsufficientFundsError
	if errors.As(err, &fe) {
		fmt.Fprintf(stderr, "Insufficient balance! Current balance: %s\n", models.FormatMoney(fe.Balance, currency()))
		return subcommands.ExitFailure
	}
	if err != nil {
		return fail(err)
	}

	fmt.Fprintf(stdout, "Recorded %s %s on %s (%s) id=%s\n",
		t.Kind, models.FormatMoney(t.Amount, currency()), t.Date, t.Category, t.ID)
	return subcommands.ExitSuccess
}

type listCmd struct {
	kind     string
	category string
	search   string
	start    string
	end      string
	head     int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions, newest first" }
func (*listCmd) Usage() string {
	return `khazana [-user <name>] list [-t <type>] [-c <category>] [-q <text>] [-s <start>] [-e <end>] [-head <n>]

  Lists transactions sorted by date, newest first, with optional filters.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "t", "", "Only this transaction type.")
	f.StringVar(&c.category, "c", "", "Only this category.")
	f.StringVar(&c.search, "q", "", "Search amount, details, category, type and date.")
	f.StringVar(&c.start, "s", "", "Start date (inclusive).")
	f.StringVar(&c.end, "e", "", "End date (inclusive).")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	txns, err := a.Ledger.Load(ctx)
	if err != nil {
		return fail(err)
	}

	ts := models.NewTransactionSet(txns)
	var start, end models.Date
	if c.start != "" {
		if start, err = models.ParseDate(c.start); err != nil {
			return fail(err)
		}
	}
	if c.end != "" {
		if end, err = models.ParseDate(c.end); err != nil {
			return fail(err)
		}
	}
	ts = ts.FilterByDateRange(start, end)
	if c.kind != "" {
		k, err := models.ParseKind(c.kind)
		if err != nil {
			return fail(err)
		}
		ts = ts.FilterByKind(k)
	}
	if c.category != "" {
		ts = ts.FilterByCategory(c.category)
	}
	if c.search != "" {
		ts = ts.FilterBySearch(c.search)
	}
	if c.head > 0 {
		ts = ts.Paginate(1, c.head)
	}

	if ts.Len() == 0 {
		fmt.Fprintln(stdout, "No transactions yet.")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tCATEGORY\tAMOUNT\tDETAILS\tID")
	for _, t := range ts.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Date, t.Kind, t.CategoryOrDefault(), models.FormatSignedMoney(t, currency()), t.Details, t.ID)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete transactions by id" }
func (*rmCmd) Usage() string {
	return `khazana [-user <name>] rm <id>...

  Deletes the transactions with the given ids. Unknown ids are ignored.
`
}
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage("Error: at least one transaction id is required.")
	}
	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	for _, id := range f.Args() {
		if err := a.Ledger.Remove(ctx, id); err != nil {
			return fail(err)
		}
	}
	fmt.Fprintf(stdout, "Deleted %d transaction(s)\n", f.NArg())
	return subcommands.ExitSuccess
}

type balanceCmd struct{}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show the balance after entering the PIN" }
func (*balanceCmd) Usage() string {
	return `khazana [-user <name>] balance

  Prompts for the 6-digit PIN and prints the current balance. Three wrong
  PINs end the session.
`
}
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (*balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	g, err := a.Gate(ctx)
	if err != nil {
		return fail(err)
	}

	for !g.IsUnlocked() {
		pin, err := readSecret("PIN: ")
		if err != nil {
			return fail(err)
		}
		status, err := g.EnterCode(pin)
		if errors.Is(err, gate.ErrLockedOut) {
			return fail(err)
		}
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			continue
		}
		if status.State != gate.Unlocked {
			fmt.Fprintf(stderr, "Incorrect PIN. %d attempt(s) left.\n", status.RemainingAttempts)
		}
	}

	txns, err := a.Ledger.Load(ctx)
	if err != nil {
		return fail(err)
	}
	b := balance.Balance(txns)
	totals := balance.TotalsOf(txns)
	fmt.Fprintf(stdout, "Balance: %s (%s)\n", models.FormatMoney(b, currency()), balance.StatusOf(b))
	fmt.Fprintf(stdout, "Income:  %s\n", models.FormatMoney(totals.Income, currency()))
	fmt.Fprintf(stdout, "Expense: %s\n", models.FormatMoney(totals.Expense, currency()))
	return subcommands.ExitSuccess
}
