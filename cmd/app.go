// Package cmd implements the CLI application to analyse a lending book.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
)

// Environment variables mirroring the global flags, also passed down to
// extension binaries.
const (
	EnvBook     = "LSC_BOOK"
	EnvCurrency = "LSC_CURRENCY"
	EnvVerbose  = "LSC_VERBOSE"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var bookFolder = flag.String("book", envOr(EnvBook, "."), "Path to the book folder holding the snapshot and policies")
var defaultCurrency = flag.String("currency", envOr(EnvCurrency, "EUR"), "Reporting currency of the book")
var Verbose = flag.Bool("v", envOr(EnvVerbose, "") == "true", "Enable verbose logging")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Commands is the list of subcommands a main package registers.
var Commands = []subcommands.Command{
	subcommands.HelpCommand(),
	subcommands.FlagsCommand(),
	subcommands.CommandsCommand(),
	&reportCmd{},
	&agingCmd{},
	&pricingCmd{},
	&concentrationCmd{},
	&lifecycleCmd{},
	&exportCmd{},
	&importCmd{},
	&topicCmd{},
	&assistCmd{},
}

// LoadBook reads the snapshot and policies from the app book folder.
func LoadBook() (*lendscope.Snapshot, lendscope.Policies, error) {
	snapshot, err := lendscope.LoadSnapshot(*bookFolder)
	if err != nil {
		return nil, lendscope.Policies{}, err
	}
	policies, err := lendscope.LoadPolicies(*bookFolder, *defaultCurrency)
	if err != nil {
		return nil, lendscope.Policies{}, err
	}
	return snapshot, policies, nil
}

// BuildReport loads the book and runs the engine on the given date flag.
func BuildReport(date string) (*lendscope.PortfolioReport, error) {
	on, err := lendscope.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	snapshot, policies, err := LoadBook()
	if err != nil {
		return nil, err
	}
	return lendscope.NewPortfolioReport(snapshot, policies, on)
}

// fail prints the error and converts it to a failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
