package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/lendscope/lendscope"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	csv       string
	json      string
	columnMap string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a loan book from CSV or mapped JSON" }
func (*importCmd) Usage() string {
	return `lsc import -csv <file> | -source <file> -map <columnmap>

  Imports loan master records into the book folder as loans.jsonl.

  With -csv, the file is a loan book CSV whose header names the columns.
  With -source and -map, the file is an arbitrary JSON export normalized
  through a column map, a JSON file stating where the records live and
  which jsonpath yields each column:

    {"rows": "$.data.loans[*]",
     "columns": {"loan_id": "$.contract.reference", ...}}
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.csv, "csv", "", "Loan book CSV file to import.")
	f.StringVar(&c.json, "source", "", "JSON export to import through a column map.")
	f.StringVar(&c.columnMap, "map", "", "Column map file for -source.")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	loans, err := c.load()
	if err != nil {
		return fail(err)
	}

	target := filepath.Join(*bookFolder, lendscope.LoansFile)
	out, err := os.Create(target)
	if err != nil {
		return fail(fmt.Errorf("cannot create %s: %w", target, err))
	}
	defer out.Close()
	if err := lendscope.EncodeLoans(out, loans); err != nil {
		return fail(err)
	}
	fmt.Printf("Imported %d loans into %s\n", len(loans), target)
	return subcommands.ExitSuccess
}

func (c *importCmd) load() ([]lendscope.LoanRecord, error) {
	switch {
	case c.csv != "":
		f, err := os.Open(c.csv)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return lendscope.ImportLoansCSV(f)

	case c.json != "":
		if c.columnMap == "" {
			return nil, fmt.Errorf("-source needs a column map, see -map")
		}
		mf, err := os.Open(c.columnMap)
		if err != nil {
			return nil, err
		}
		defer mf.Close()
		m, err := lendscope.DecodeColumnMap(mf)
		if err != nil {
			return nil, err
		}
		sf, err := os.Open(c.json)
		if err != nil {
			return nil, err
		}
		defer sf.Close()
		return lendscope.DecodeLoansJSON(sf, m)

	default:
		return nil, fmt.Errorf("nothing to import, see -csv and -source")
	}
}
