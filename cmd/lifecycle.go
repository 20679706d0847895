package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
	"github.com/lendscope/lendscope/renderer"
)

// lifecycleCmd holds the flags for the 'lifecycle' subcommand.
type lifecycleCmd struct {
	date     string
	detailed bool
}

func (*lifecycleCmd) Name() string     { return "lifecycle" }
func (*lifecycleCmd) Synopsis() string { return "classify clients as new, recurring, recovered or churned" }
func (*lifecycleCmd) Usage() string {
	return `lsc lifecycle [-d <date>] [-detail]

  Classifies every client of the book relative to the reporting window
  containing the reference date. See 'lsc topic lifecycle'.
`
}

func (c *lifecycleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", lendscope.Today().String(), "Reference date for the census.")
	f.BoolVar(&c.detailed, "detail", false, "List every client with its classification.")
}

func (c *lifecycleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := BuildReport(c.date)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.LifecycleMarkdown(report.Clients, c.detailed))
	return subcommands.ExitSuccess
}
