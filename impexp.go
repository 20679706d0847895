package lendscope

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// this file contains functions to handle the import/export format.
// It should remain human readable and easy to feed to a spreadsheet.

// loanHeader is the column order of the loan book CSV format.
var loanHeader = []string{
	"loan_id", "customer_id", "currency", "product_type",
	"disbursed_amount", "outstanding_balance", "apr", "tenor_days",
	"origination_date", "payment_frequency", "closed_date", "written_off",
}

// ImportLoansCSV imports loan master records from 'r' in the loan book CSV
// format. The first row is a header naming the columns; column order is
// free, unknown columns are ignored.
func ImportLoansCSV(r io.Reader) ([]LoanRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read loan book header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"loan_id", "customer_id", "currency", "outstanding_balance"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("loan book header is missing column %q", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var loans []LoanRecord
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("cannot read loan book line %d: %w", line, err)
		}

		loan := LoanRecord{
			LoanID:      field(record, "loan_id"),
			CustomerID:  field(record, "customer_id"),
			Currency:    field(record, "currency"),
			ProductType: field(record, "product_type"),
			Frequency:   PayMonthly,
		}
		numbers := []struct {
			name string
			set  func(float64)
		}{
			{"disbursed_amount", func(v float64) { loan.DisbursedAmount = M(v, loan.Currency) }},
			{"outstanding_balance", func(v float64) { loan.OutstandingBalance = M(v, loan.Currency) }},
			{"apr", func(v float64) { loan.APR = Q(v) }},
			{"tenor_days", func(v float64) { loan.TenorDays = int(v) }},
		}
		for _, n := range numbers {
			s := field(record, n.name)
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("loan book line %d: cannot parse %s %q: %w", line, n.name, s, err)
			}
			n.set(v)
		}
		if s := field(record, "origination_date"); s != "" {
			if loan.OriginationDate, err = ParseDate(s); err != nil {
				return nil, fmt.Errorf("loan book line %d: %w", line, err)
			}
		}
		if s := field(record, "closed_date"); s != "" {
			if loan.ClosedDate, err = ParseDate(s); err != nil {
				return nil, fmt.Errorf("loan book line %d: %w", line, err)
			}
		}
		if s := field(record, "payment_frequency"); s != "" {
			if loan.Frequency, err = ParsePaymentFrequency(s); err != nil {
				return nil, fmt.Errorf("loan book line %d: %w", line, err)
			}
		}
		if s := field(record, "written_off"); s != "" {
			if loan.WrittenOff, err = strconv.ParseBool(s); err != nil {
				return nil, fmt.Errorf("loan book line %d: cannot parse written_off %q: %w", line, s, err)
			}
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// ImportScheduleCSV imports schedule entries from 'r'. Columns are loan_id,
// due_date, due_amount, currency; order follows the header.
func ImportScheduleCSV(r io.Reader) ([]PaymentScheduleEntry, error) {
	var entries []PaymentScheduleEntry
	err := importDatedAmounts(r, "schedule", "due_date", "due_amount",
		func(loanID string, d Date, amount Money) {
			entries = append(entries, PaymentScheduleEntry{LoanID: loanID, DueDate: d, DueAmount: amount})
		})
	return entries, err
}

// ImportPaymentsCSV imports payment events from 'r'. Columns are loan_id,
// payment_date, amount, currency; order follows the header.
func ImportPaymentsCSV(r io.Reader) ([]PaymentEvent, error) {
	var events []PaymentEvent
	err := importDatedAmounts(r, "payments", "payment_date", "amount",
		func(loanID string, d Date, amount Money) {
			events = append(events, PaymentEvent{LoanID: loanID, PaymentDate: d, Amount: amount})
		})
	return events, err
}

// importDatedAmounts reads the shared loan_id/date/amount CSV shape of the
// schedule and payment files.
func importDatedAmounts(r io.Reader, kind, dateCol, amountCol string, emit func(string, Date, Money)) error {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("cannot read %s header: %w", kind, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"loan_id", dateCol, amountCol} {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("%s header is missing column %q", kind, name)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("cannot read %s line %d: %w", kind, line, err)
		}
		d, err := ParseDate(record[col[dateCol]])
		if err != nil {
			return fmt.Errorf("%s line %d: %w", kind, line, err)
		}
		v, err := strconv.ParseFloat(record[col[amountCol]], 64)
		if err != nil {
			return fmt.Errorf("%s line %d: cannot parse %s %q: %w", kind, line, amountCol, record[col[amountCol]], err)
		}
		var currency string
		if i, ok := col["currency"]; ok && i < len(record) {
			currency = record[i]
		}
		emit(record[col["loan_id"]], d, M(v, currency))
	}
}

// ExportLoansCSV exports loan master records to 'w' in the loan book CSV
// format, suitable to re-import.
func ExportLoansCSV(w io.Writer, loans []LoanRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(loanHeader); err != nil {
		return fmt.Errorf("cannot write loan book header: %w", err)
	}
	for _, l := range loans {
		closed := ""
		if !l.ClosedDate.IsZero() {
			closed = l.ClosedDate.String()
		}
		record := []string{
			l.LoanID, l.CustomerID, l.Currency, l.ProductType,
			csvAmount(l.DisbursedAmount), csvAmount(l.OutstandingBalance),
			l.APR.String(), strconv.Itoa(l.TenorDays),
			l.OriginationDate.String(), l.Frequency.String(),
			closed, strconv.FormatBool(l.WrittenOff),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write loan %q: %w", l.LoanID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// assessmentHeader is the column order of the per-loan report CSV.
var assessmentHeader = []string{
	"loan_id", "customer_id", "product_type", "outstanding_balance", "apr",
	"tenor_days", "days_past_due", "past_due_amount", "dpd_bucket",
	"is_default", "pricing_band", "total_rate",
}

// ExportReportCSV exports the per-loan section of a report to 'w', one row
// per assessed loan.
func ExportReportCSV(w io.Writer, report *PortfolioReport) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(assessmentHeader); err != nil {
		return fmt.Errorf("cannot write report header: %w", err)
	}
	for _, a := range report.Loans {
		band, rate := "", ""
		if a.Band != nil {
			band = a.Band.ID()
			rate = a.Band.TotalRate.String()
		}
		record := []string{
			a.Loan.LoanID, a.Loan.CustomerID, a.Loan.ProductType,
			csvAmount(a.Loan.OutstandingBalance), a.Loan.APR.String(),
			strconv.Itoa(a.Loan.TenorDays),
			strconv.Itoa(a.Dpd.DaysPastDue), csvAmount(a.Dpd.PastDueAmount),
			a.Dpd.Bucket.Label, strconv.FormatBool(a.Dpd.IsDefault),
			band, rate,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cannot write loan %q: %w", a.Loan.LoanID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportReportJSON exports the full report to 'w' as one indented JSON
// document.
func ExportReportJSON(w io.Writer, report *PortfolioReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("cannot encode report: %w", err)
	}
	return nil
}

// ExportReport writes the report under 'dir' as a timestamped pair of
// files, one JSON document and one per-loan CSV, and returns their paths.
// The timestamp lives in the file name only, never in the report itself,
// so two runs over the same snapshot produce identical content.
func ExportReport(dir string, report *PortfolioReport) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("cannot create export folder: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	base := fmt.Sprintf("report-%s-%s", report.ReferenceDate, stamp)

	jsonPath = filepath.Join(dir, base+".json")
	if err := exportTo(jsonPath, func(w io.Writer) error { return ExportReportJSON(w, report) }); err != nil {
		return "", "", err
	}
	csvPath = filepath.Join(dir, base+".csv")
	if err := exportTo(csvPath, func(w io.Writer) error { return ExportReportCSV(w, report) }); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func exportTo(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("cannot export to %s: %w", path, err)
	}
	return f.Close()
}

func csvAmount(m Money) string {
	return strconv.FormatFloat(m.AsFloat(), 'f', 2, 64)
}
