package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"khazana/internal/models"
)

type budgetCmd struct{}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "set, remove or review monthly category budgets" }
func (*budgetCmd) Usage() string {
	return `khazana [-user <name>] budget [list]
khazana [-user <name>] budget set <category> <amount>
khazana [-user <name>] budget rm <category>

  Budgets are monthly limits per category. "list" shows this month's
  spending against each limit.
`
}
func (*budgetCmd) SetFlags(*flag.FlagSet) {}

func (*budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	action := "list"
	if f.NArg() > 0 {
		action = f.Arg(0)
	}

	a, err := openAccount()
	if err != nil {
		return fail(err)
	}

	switch action {
	case "set":
		if f.NArg() != 3 {
			return usage("Usage: khazana budget set <category> <amount>")
		}
		amount, err := models.ParseAmount(f.Arg(2))
		if err != nil {
			return fail(err)
		}
		b, err := a.Budgets.Set(ctx, f.Arg(1), amount)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(stdout, "Budget for %s set to %s\n", b.Category, models.FormatMoney(b.Amount, currency()))
		return subcommands.ExitSuccess

	case "rm":
		if f.NArg() != 2 {
			return usage("Usage: khazana budget rm <category>")
		}
		if err := a.Budgets.Delete(ctx, f.Arg(1)); err != nil {
			return fail(err)
		}
		fmt.Fprintf(stdout, "Budget for %s removed\n", f.Arg(1))
		return subcommands.ExitSuccess

	case "list":
		txns, err := a.Ledger.Load(ctx)
		if err != nil {
			return fail(err)
		}
		if _, err := a.Categories.List(ctx); err != nil {
			return fail(err)
		}
		overview, err := a.Budgets.Overview(ctx, txns)
		if err != nil {
			return fail(err)
		}
		if len(overview.Budgets) == 0 {
			fmt.Fprintln(stdout, "No budgets set.")
			return subcommands.ExitSuccess
		}

		w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tBUDGET\tSPENT\tREMAINING\tUSED\tSTATUS")
		for _, p := range overview.Budgets {
			fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%.0f%%\t%s\n",
				p.Icon, p.Budget.Category,
				models.FormatMoney(p.Budget.Amount, currency()),
				models.FormatMoney(p.Spent, currency()),
				models.FormatMoney(p.Remaining, currency()),
				p.PercentUsed, p.Tier)
		}
		fmt.Fprintf(w, "TOTAL\t%s\t%s\t%s\t\t\n",
			models.FormatMoney(overview.TotalBudget, currency()),
			models.FormatMoney(overview.TotalSpent, currency()),
			models.FormatMoney(overview.TotalRemaining, currency()))
		w.Flush()
		return subcommands.ExitSuccess
	}
	return usage(fmt.Sprintf("Unknown budget action %q", action))
}

type categoryCmd struct {
	kind string
	icon string
}

func (*categoryCmd) Name() string     { return "category" }
func (*categoryCmd) Synopsis() string { return "add or list custom categories" }
func (*categoryCmd) Usage() string {
	return `khazana [-user <name>] category [list]
khazana [-user <name>] category add [-type income|expense] [-icon <emoji>] <name>
`
}

func (c *categoryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "type", "expense", "Category type for add: income or expense.")
	f.StringVar(&c.icon, "icon", "", "Icon for add.")
}

func (c *categoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	action := "list"
	if f.NArg() > 0 {
		action = f.Arg(0)
	}

	a, err := openAccount()
	if err != nil {
		return fail(err)
	}

	switch action {
	case "add":
		if f.NArg() < 2 {
			return usage("Usage: khazana category add <name>")
		}
		cat, err := a.Categories.Add(ctx, strings.Join(f.Args()[1:], " "), models.CategoryType(c.kind), c.icon)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(stdout, "Added %s %s (%s)\n", cat.Icon, cat.Name, cat.Type)
		return subcommands.ExitSuccess

	case "list":
		cats, err := a.Categories.List(ctx)
		if err != nil {
			return fail(err)
		}
		if len(cats) == 0 {
			fmt.Fprintln(stdout, "No custom categories.")
			return subcommands.ExitSuccess
		}
		for _, cat := range cats {
			fmt.Fprintf(stdout, "%s %s (%s)\n", cat.Icon, cat.Name, cat.Type)
		}
		return subcommands.ExitSuccess
	}
	return usage(fmt.Sprintf("Unknown category action %q", action))
}
