package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
	"github.com/lendscope/lendscope/renderer"
)

// pricingCmd holds the flags for the 'pricing' subcommand.
type pricingCmd struct {
	product string
	tenor   int
	amount  float64
}

func (*pricingCmd) Name() string     { return "pricing" }
func (*pricingCmd) Synopsis() string { return "display the pricing grid or price a loan" }
func (*pricingCmd) Usage() string {
	return `lsc pricing [-product <type> -tenor <days> -amount <amount>]

  Without flags, displays the whole pricing grid. With a product, tenor and
  amount, looks up the band pricing that loan.
`
}

func (c *pricingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.product, "product", "", "Product type to price.")
	f.IntVar(&c.tenor, "tenor", 0, "Tenor in days to price.")
	f.Float64Var(&c.amount, "amount", 0, "Disbursed amount to price.")
}

func (c *pricingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, policies, err := LoadBook()
	if err != nil {
		return fail(err)
	}

	if c.product == "" {
		printMarkdown(renderer.GridMarkdown(policies.Grid))
		return subcommands.ExitSuccess
	}

	amount := lendscope.M(c.amount, policies.ReportingCurrency)
	band, err := policies.Grid.Match(c.product, c.tenor, amount)
	printMarkdown(renderer.MatchMarkdown(c.product, c.tenor, amount, band, err))
	if err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
