package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
	"github.com/lendscope/lendscope/renderer"
)

// agingCmd holds the flags for the 'aging' subcommand.
type agingCmd struct {
	date string
	loan string
}

func (*agingCmd) Name() string     { return "aging" }
func (*agingCmd) Synopsis() string { return "display the delinquency state of the book" }
func (*agingCmd) Usage() string {
	return `lsc aging [-d <date>] [-loan <loan_id>]

  Displays days past due, past due amounts and aging buckets, per loan,
  worst first. With -loan, details a single loan.
`
}

func (c *agingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", lendscope.Today().String(), "Reference date for the aging.")
	f.StringVar(&c.loan, "loan", "", "Detail a single loan instead of the whole book.")
}

func (c *agingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := BuildReport(c.date)
	if err != nil {
		return fail(err)
	}

	if c.loan != "" {
		for _, a := range report.Loans {
			if a.Loan.LoanID == c.loan {
				printMarkdown(renderer.DpdMarkdown(a.Dpd))
				return subcommands.ExitSuccess
			}
		}
		return fail(fmt.Errorf("loan %q is not in the report, see the exclusions in `lsc report`", c.loan))
	}

	assessments := make([]*lendscope.LoanAssessment, len(report.Loans))
	copy(assessments, report.Loans)
	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].Dpd.DaysPastDue > assessments[j].Dpd.DaysPastDue
	})
	printMarkdown(renderer.AgingMarkdown(report.ReferenceDate, assessments))
	return subcommands.ExitSuccess
}
