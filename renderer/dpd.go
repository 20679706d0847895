package renderer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/lendscope/lendscope"
	md "github.com/nao1215/markdown"
)

// DpdMarkdown renders the delinquency state of one loan.
func DpdMarkdown(r lendscope.DpdResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Delinquency for %s on %s", r.LoanID, r.ReferenceDate))

	bucket := r.Bucket.Label
	if r.IsDefault {
		bucket = md.Bold(bucket)
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header: []string{
			md.Bold("Days Past Due"),
			md.Bold(strconv.Itoa(r.DaysPastDue)),
		},
		Rows: [][]string{
			{"Past Due Amount", r.PastDueAmount.String()},
			{"Bucket", bucket},
		},
	}
	if !r.FirstArrearsDate.IsZero() {
		table.Rows = append(table.Rows, []string{"First Arrears", r.FirstArrearsDate.String()})
	}
	if !r.LastPaymentDate.IsZero() {
		table.Rows = append(table.Rows, []string{"Last Payment", r.LastPaymentDate.String()})
	}
	if !r.LastDueDate.IsZero() {
		table.Rows = append(table.Rows, []string{"Last Due", r.LastDueDate.String()})
	}
	doc.Table(table)

	if r.IsDefault {
		doc.PlainText("This loan is in default.")
	}
	return doc.String()
}

// AgingMarkdown renders the per-loan aging book, worst buckets first.
func AgingMarkdown(refDate lendscope.Date, assessments []*lendscope.LoanAssessment) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Loan Aging on %s", refDate))

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignLeft},
		Header:    []string{"Loan", "Customer", "DPD", "Past Due", "Bucket"},
	}
	for _, a := range assessments {
		bucket := a.Dpd.Bucket.Label
		if a.Dpd.IsDefault {
			bucket = md.Bold(bucket)
		}
		table.Rows = append(table.Rows, []string{
			a.Loan.LoanID,
			a.Loan.CustomerID,
			strconv.Itoa(a.Dpd.DaysPastDue),
			a.Dpd.PastDueAmount.String(),
			bucket,
		})
	}
	doc.Table(table)
	return doc.String()
}
