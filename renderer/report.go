package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/lendscope/lendscope"
	md "github.com/nao1215/markdown"
)

// ReportMarkdown renders a full portfolio report to a markdown string.
func ReportMarkdown(r *lendscope.PortfolioReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Portfolio Risk Report on %s", r.ReferenceDate))

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header: []string{
			md.Bold("Outstanding Total"),
			md.Bold(r.Kpis.OutstandingTotal.String()),
		},
		Rows: [][]string{
			{"Active Loans", strconv.Itoa(r.Kpis.ActiveLoans)},
			{"Weighted APR", r.Kpis.WeightedAPR.Percent().String()},
			{fmt.Sprintf("NPL Ratio (%s basis)", r.Kpis.Npl.Basis), r.Kpis.Npl.Percentage.String()},
			{"NPL Balance", r.Kpis.Npl.Balance.String()},
		},
	})

	doc.H2("Delinquency")
	delinquency := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Bucket", "Loans", "Balance", "Past Due"},
	}
	for _, s := range r.DpdSummary {
		label := s.Bucket.Label
		if s.Bucket.IsDefault {
			label = md.Bold(label)
		}
		delinquency.Rows = append(delinquency.Rows, []string{
			label,
			strconv.Itoa(s.Loans),
			s.Balance.String(),
			s.PastDueAmount.String(),
		})
	}
	doc.Table(delinquency)

	if len(r.Kpis.TenorMix) > 0 {
		doc.H2("Tenor Mix")
		mix := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Tenor", "Loans", "Balance", "Share"},
		}
		for _, s := range r.Kpis.TenorMix {
			mix.Rows = append(mix.Rows, []string{
				s.Label,
				strconv.Itoa(s.Count),
				s.Balance.String(),
				s.BalanceShare.String(),
			})
		}
		doc.Table(mix)
	}

	if len(r.Kpis.Concentration) > 0 {
		doc.H2("Concentration")
		doc.Table(concentrationTable(r.Kpis.Concentration))
	}

	doc.H2("Clients")
	doc.Table(lifecycleTable(r.Clients))

	buf.WriteString(doc.String())

	ConditionalBlock(&buf, func(w io.Writer) bool {
		if len(r.Meta.PricingExceptions) == 0 {
			return false
		}
		sub := md.NewMarkdown(w)
		sub.H2("Pricing Exceptions")
		table := md.TableSet{
			Header: []string{"Loan", "Reason"},
		}
		for _, e := range r.Meta.PricingExceptions {
			table.Rows = append(table.Rows, []string{e.LoanID, e.Reason})
		}
		sub.Table(table)
		io.WriteString(w, sub.String())
		return true
	})

	ConditionalBlock(&buf, func(w io.Writer) bool {
		if len(r.Meta.Excluded) == 0 {
			return false
		}
		sub := md.NewMarkdown(w)
		sub.H2("Excluded Records")
		sub.PlainText(fmt.Sprintf("%d of %d input loans were excluded.", r.Meta.ExcludedCount, r.Meta.TotalLoans))
		table := md.TableSet{
			Header: []string{"Loan", "Kind", "Reason"},
		}
		for _, e := range r.Meta.Excluded {
			table.Rows = append(table.Rows, []string{e.LoanID, e.Kind, e.Reason})
		}
		sub.Table(table)
		io.WriteString(w, sub.String())
		return true
	})

	return buf.String()
}

// ConcentrationMarkdown renders the top-exposure ranking alone.
func ConcentrationMarkdown(exposures []lendscope.Exposure) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Client Concentration")
	if len(exposures) == 0 {
		doc.PlainText("No active exposure.")
		return doc.String()
	}
	doc.Table(concentrationTable(exposures))
	return doc.String()
}

func concentrationTable(exposures []lendscope.Exposure) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Rank", "Customer", "Balance", "Share"},
	}
	for _, e := range exposures {
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(e.Rank),
			e.CustomerID,
			e.Balance.String(),
			e.Share.String(),
		})
	}
	return table
}
