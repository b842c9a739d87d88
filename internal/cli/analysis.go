package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/term"

	"khazana/internal/models"
)

type insightsCmd struct {
	patterns bool
}

func (*insightsCmd) Name() string { return "insights" }
func (*insightsCmd) Synopsis() string {
	return "summarize savings, top categories and spending patterns"
}
func (*insightsCmd) Usage() string {
	return `khazana [-user <name>] insights [-patterns=false]
`
}

func (c *insightsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.patterns, "patterns", true, "Also show weekend and trend patterns.")
}

func (c *insightsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	txns, err := a.Ledger.Load(ctx)
	if err != nil {
		return fail(err)
	}
	if len(txns) == 0 {
		fmt.Fprintln(stdout, "No transactions yet.")
		return subcommands.ExitSuccess
	}

	svc := newAnalytics()
	sum := svc.Summary(txns)
	fmt.Fprintf(stdout, "Income %s, expense %s, net %s over %d transaction(s)\n",
		models.FormatMoney(sum.TotalIncome, currency()),
		models.FormatMoney(sum.TotalExpense, currency()),
		models.FormatMoney(sum.NetSavings, currency()),
		sum.TransactionCount)
	fmt.Fprintf(stdout, "Average daily spending %s, savings rate %.1f%%\n\n",
		models.FormatMoney(sum.AvgDailySpending, currency()), sum.SavingsRate)

	insights := svc.Insights(txns)
	if c.patterns {
		insights = append(insights, svc.Patterns(txns)...)
	}
	for _, in := range insights {
		fmt.Fprintf(stdout, "%s %s\n   %s\n", in.Icon, in.Title, in.Description)
	}

	if _, err := a.Categories.List(ctx); err != nil {
		return fail(err)
	}
	ranked := svc.RankedCategories(txns, a.Categories.Icon)
	if len(ranked) > 0 {
		fmt.Fprintln(stdout, "\nTop categories:")
		for i, r := range ranked {
			if i == 5 {
				break
			}
			fmt.Fprintf(stdout, "  %s %-14s %12s  %5.1f%%\n",
				r.Icon, r.Category, models.FormatMoney(r.Amount, currency()), r.Percentage)
		}
	}
	return subcommands.ExitSuccess
}

type forecastCmd struct{}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "project next month's spending from recent months" }
func (*forecastCmd) Usage() string {
	return `khazana [-user <name>] forecast

  Averages the expenses of the last three months. At least two months of
  data are needed.
`
}
func (*forecastCmd) SetFlags(*flag.FlagSet) {}

func (*forecastCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	txns, err := a.Ledger.Load(ctx)
	if err != nil {
		return fail(err)
	}

	svc := newAnalytics()
	fc := svc.ForecastNextMonth(svc.MonthlySeries(txns))
	if !fc.Available {
		fmt.Fprintln(stdout, "Not enough data: at least two months of transactions are needed.")
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(stdout, "Predicted expense:  %s\n", models.FormatMoney(fc.PredictedExpense, currency()))
	fmt.Fprintf(stdout, "Recommended budget: %s\n", models.FormatMoney(fc.RecommendedBudget, currency()))
	fmt.Fprintf(stdout, "Savings goal:       %s\n", models.FormatMoney(fc.SavingsGoal, currency()))
	return subcommands.ExitSuccess
}

type reportCmd struct {
	month string
	plain bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "show the monthly report" }
func (*reportCmd) Usage() string {
	return `khazana [-user <name>] report [-m YYYY-MM] [-plain]

  Renders the monthly report in the terminal. -plain prints the same text
  as the report export.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Report month as YYYY-MM (defaults to the current month).")
	f.BoolVar(&c.plain, "plain", false, "Print plain text instead of rendered markdown.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	month := now()
	if c.month != "" {
		var err error
		if month, err = time.Parse("2006-01", c.month); err != nil {
			return usage("Error: -m must be YYYY-MM")
		}
	}

	a, err := openAccount()
	if err != nil {
		return fail(err)
	}
	txns, err := a.Ledger.Load(ctx)
	if err != nil {
		return fail(err)
	}

	report := newExporter().MonthlyReport(txns, month)
	if c.plain {
		if err := report.WriteText(stdout); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	out, err := report.Render(terminalWidth())
	if err != nil {
		return fail(err)
	}
	fmt.Fprint(stdout, out)
	return subcommands.ExitSuccess
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
