package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
)

// exportCmd holds the flags for the 'export' subcommand.
type exportCmd struct {
	date   string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the risk report to files" }
func (*exportCmd) Usage() string {
	return `lsc export [-d <date>] [-o <folder>]

  Computes the risk report and writes it as a timestamped pair of files,
  one JSON document and one per-loan CSV.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", lendscope.Today().String(), "Reference date for the report.")
	f.StringVar(&c.output, "o", "reports", "Folder receiving the exported files.")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := BuildReport(c.date)
	if err != nil {
		return fail(err)
	}

	jsonPath, csvPath, err := lendscope.ExportReport(c.output, report)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Exported %s and %s\n", jsonPath, csvPath)
	return subcommands.ExitSuccess
}
