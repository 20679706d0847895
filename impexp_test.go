package lendscope

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportLoansCSV(t *testing.T) {
	in := `loan_id,customer_id,currency,product_type,disbursed_amount,outstanding_balance,apr,tenor_days,origination_date,payment_frequency,closed_date,written_off
L-1,C-1,EUR,working_capital,10000,8000,0.12,90,2026-01-15,monthly,,false
L-2,C-2,EUR,term_loan,50000,0,0.07,720,2024-06-01,quarterly,2026-02-10,true
`
	loans, err := ImportLoansCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, loans, 2)

	l := loans[0]
	require.Equal(t, "L-1", l.LoanID)
	require.Equal(t, "working_capital", l.ProductType)
	require.True(t, l.DisbursedAmount.Equal(M(10000, "EUR")))
	require.Equal(t, 90, l.TenorDays)
	require.Equal(t, MustParse("2026-01-15"), l.OriginationDate)
	require.False(t, l.WrittenOff)

	require.Equal(t, PayQuarterly, loans[1].Frequency)
	require.Equal(t, MustParse("2026-02-10"), loans[1].ClosedDate)
	require.True(t, loans[1].WrittenOff)
}

func TestImportLoansCSV_ColumnOrderIsFree(t *testing.T) {
	in := `outstanding_balance,loan_id,currency,customer_id,ignored_column
8000,L-1,EUR,C-1,whatever
`
	loans, err := ImportLoansCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.Equal(t, "L-1", loans[0].LoanID)
	require.True(t, loans[0].OutstandingBalance.Equal(M(8000, "EUR")))
	require.Equal(t, PayMonthly, loans[0].Frequency)
}

func TestImportLoansCSV_Errors(t *testing.T) {
	_, err := ImportLoansCSV(strings.NewReader("loan_id,customer_id\nL-1,C-1\n"))
	require.Error(t, err, "missing required columns")
	require.Contains(t, err.Error(), "currency")

	in := `loan_id,customer_id,currency,outstanding_balance,apr
L-1,C-1,EUR,8000,twelve
`
	_, err = ImportLoansCSV(strings.NewReader(in))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestLoansCSVRoundTrip(t *testing.T) {
	loans := []LoanRecord{
		{
			LoanID: "L-1", CustomerID: "C-1", Currency: "EUR", ProductType: "working_capital",
			DisbursedAmount: M(10000, "EUR"), OutstandingBalance: M(8000.50, "EUR"),
			APR: Q(0.12), TenorDays: 90, OriginationDate: MustParse("2026-01-15"),
			Frequency: PayWeekly,
		},
		{
			LoanID: "L-2", CustomerID: "C-2", Currency: "EUR", ProductType: "term_loan",
			DisbursedAmount: M(50000, "EUR"), OutstandingBalance: M(0, "EUR"),
			APR: Q(0.07), TenorDays: 720, OriginationDate: MustParse("2024-06-01"),
			ClosedDate: MustParse("2026-02-10"), WrittenOff: true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportLoansCSV(&buf, loans))
	got, err := ImportLoansCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(loans))
	for i := range loans {
		require.Equal(t, loans[i].LoanID, got[i].LoanID)
		require.Equal(t, loans[i].Frequency, got[i].Frequency)
		require.Equal(t, loans[i].ClosedDate, got[i].ClosedDate)
		require.Equal(t, loans[i].WrittenOff, got[i].WrittenOff)
		require.True(t, got[i].OutstandingBalance.Equal(loans[i].OutstandingBalance))
	}
}

func TestImportScheduleCSV(t *testing.T) {
	in := `loan_id,due_date,due_amount,currency
L-1,2026-02-15,1000,EUR
L-1,2026-03-15,1000,EUR
`
	entries, err := ImportScheduleCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, MustParse("2026-02-15"), entries[0].DueDate)
	require.True(t, entries[0].DueAmount.Equal(M(1000, "EUR")))
}

func TestImportPaymentsCSV(t *testing.T) {
	in := `loan_id,payment_date,amount,currency
L-1,2026-02-14,999.99,EUR
`
	events, err := ImportPaymentsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.True(t, events[0].Amount.Equal(M(999.99, "EUR")))

	_, err = ImportPaymentsCSV(strings.NewReader("loan_id,amount\nL-1,10\n"))
	require.Error(t, err, "missing payment_date column")
}

func TestExportReportCSV(t *testing.T) {
	report, err := NewPortfolioReport(testSnapshot(), DefaultPolicies(testGrid(t), "EUR"), MustParse("2026-03-31"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportReportCSV(&buf, report))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header + two loans
	require.Equal(t, strings.Join(assessmentHeader, ","), lines[0])
	require.Contains(t, lines[1], "L-1")
	require.Contains(t, lines[1], "16") // days past due on the 31st
}

func TestExportReport(t *testing.T) {
	report, err := NewPortfolioReport(testSnapshot(), DefaultPolicies(testGrid(t), "EUR"), MustParse("2026-03-31"))
	require.NoError(t, err)

	dir := t.TempDir()
	jsonPath, csvPath, err := ExportReport(dir, report)
	require.NoError(t, err)
	require.FileExists(t, jsonPath)
	require.FileExists(t, csvPath)
	require.Contains(t, jsonPath, "report-2026-03-31-")

	// the JSON file holds the whole report
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "kpis")
	require.Contains(t, decoded, "meta")
}
