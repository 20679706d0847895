package lendscope

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/PaesslerAG/jsonpath"
)

// ColumnMap normalizes a loosely-shaped JSON source into engine records.
// Core systems export loan books under all kinds of envelopes and column
// names; the map states where the rows live and which jsonpath yields each
// engine column, so the engine itself never sees source-specific names.
type ColumnMap struct {
	// Rows is the jsonpath selecting the record list in the document,
	// e.g. "$.data.loans[*]".
	Rows string `json:"rows"`
	// Columns maps each engine column name to a jsonpath evaluated against
	// one row, e.g. "loan_id": "$.contract.reference".
	Columns map[string]string `json:"columns"`
}

// DecodeColumnMap parses a column map file.
func DecodeColumnMap(r io.Reader) (ColumnMap, error) {
	var m ColumnMap
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return ColumnMap{}, fmt.Errorf("cannot parse column map: %w", err)
	}
	if m.Rows == "" {
		return ColumnMap{}, configErrorf("column map has no rows path")
	}
	return m, nil
}

// get evaluates one column path against a row.
// jsonpath is never clear about whether it returns a list of one answer or
// a single answer, so a one-element list is unwrapped.
func (m ColumnMap) get(row any, column string) (any, error) {
	path, ok := m.Columns[column]
	if !ok {
		return nil, nil
	}
	jval, err := jsonpath.Get(path, row)
	if err != nil {
		return nil, fmt.Errorf("column %q path %q: %w", column, path, err)
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	return jval, nil
}

func (m ColumnMap) getString(row any, column string) (string, error) {
	jval, err := m.get(row, column)
	if err != nil || jval == nil {
		return "", err
	}
	s, ok := jval.(string)
	if !ok {
		return "", fmt.Errorf("column %q: want a string, got %v", column, jval)
	}
	return s, nil
}

func (m ColumnMap) getFloat(row any, column string) (float64, error) {
	jval, err := m.get(row, column)
	if err != nil || jval == nil {
		return 0, err
	}
	switch v := jval.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("column %q: want a number, got %v", column, jval)
	}
}

func (m ColumnMap) getDate(row any, column string) (Date, error) {
	s, err := m.getString(row, column)
	if err != nil || s == "" {
		return Date{}, err
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("column %q: %w", column, err)
	}
	return d, nil
}

// DecodeLoansJSON reads a JSON document and normalizes it into loan master
// records through the column map. Column names are the same as in the JSONL
// loan codec.
func DecodeLoansJSON(r io.Reader, m ColumnMap) ([]LoanRecord, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse loan source: %w", err)
	}
	jrows, err := jsonpath.Get(m.Rows, doc)
	if err != nil {
		return nil, fmt.Errorf("rows path %q: %w", m.Rows, err)
	}
	rows, ok := jrows.([]any)
	if !ok {
		return nil, fmt.Errorf("rows path %q: want a list, got %T", m.Rows, jrows)
	}

	loans := make([]LoanRecord, 0, len(rows))
	for i, row := range rows {
		loan, err := m.loanFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

func (m ColumnMap) loanFromRow(row any) (loan LoanRecord, err error) {
	if loan.LoanID, err = m.getString(row, "loan_id"); err != nil {
		return
	}
	if loan.CustomerID, err = m.getString(row, "customer_id"); err != nil {
		return
	}
	if loan.Currency, err = m.getString(row, "currency"); err != nil {
		return
	}
	if loan.ProductType, err = m.getString(row, "product_type"); err != nil {
		return
	}

	var f float64
	if f, err = m.getFloat(row, "disbursed_amount"); err != nil {
		return
	}
	loan.DisbursedAmount = M(f, loan.Currency)
	if f, err = m.getFloat(row, "outstanding_balance"); err != nil {
		return
	}
	loan.OutstandingBalance = M(f, loan.Currency)
	if f, err = m.getFloat(row, "apr"); err != nil {
		return
	}
	loan.APR = Q(f)
	if f, err = m.getFloat(row, "tenor_days"); err != nil {
		return
	}
	loan.TenorDays = int(f)

	if loan.OriginationDate, err = m.getDate(row, "origination_date"); err != nil {
		return
	}
	freq, err := m.getString(row, "payment_frequency")
	if err != nil {
		return
	}
	loan.Frequency = PayMonthly
	if freq != "" {
		if loan.Frequency, err = ParsePaymentFrequency(freq); err != nil {
			return
		}
	}
	return loan, nil
}
