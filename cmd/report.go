package cmd

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
	"github.com/lendscope/lendscope/renderer"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	date string
	json bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "compute the portfolio risk report" }
func (*reportCmd) Usage() string {
	return `lsc report [-d <date>] [-json]

  Computes the full risk report of the book: KPIs, delinquency, tenor mix,
  concentration, client lifecycle and exceptions.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", lendscope.Today().String(), "Reference date for the report. See `lsc topic book` for supported date formats.")
	f.BoolVar(&c.json, "json", false, "Write the report as JSON on stdout instead of markdown.")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := BuildReport(c.date)
	if err != nil {
		return fail(err)
	}

	if c.json {
		if err := lendscope.ExportReportJSON(os.Stdout, report); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.ReportMarkdown(report))
	return subcommands.ExitSuccess
}
