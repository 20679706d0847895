package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
	"github.com/lendscope/lendscope/renderer"
)

// concentrationCmd holds the flags for the 'concentration' subcommand.
type concentrationCmd struct {
	date string
}

func (*concentrationCmd) Name() string     { return "concentration" }
func (*concentrationCmd) Synopsis() string { return "display the largest client exposures" }
func (*concentrationCmd) Usage() string {
	return `lsc concentration [-d <date>]

  Ranks clients by their share of the outstanding balance.
`
}

func (c *concentrationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", lendscope.Today().String(), "Reference date for the ranking.")
}

func (c *concentrationCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := BuildReport(c.date)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.ConcentrationMarkdown(report.Kpis.Concentration))
	return subcommands.ExitSuccess
}
