package lendscope

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// This file contains the JSONL codecs for the three record sets and the two
// policy files. The formats are human readable, one record per line, easy to
// diff and to merge, so a book snapshot can live in a git repo.

// jloan is the wire shape of one loan master record.
type jloan struct {
	LoanID             string  `json:"loan_id"`
	CustomerID         string  `json:"customer_id"`
	Currency           string  `json:"currency"`
	ProductType        string  `json:"product_type"`
	DisbursedAmount    float64 `json:"disbursed_amount"`
	OutstandingBalance float64 `json:"outstanding_balance"`
	APR                float64 `json:"apr"`
	TenorDays          int     `json:"tenor_days"`
	OriginationDate    Date    `json:"origination_date"`
	PaymentFrequency   string  `json:"payment_frequency"`
	ClosedDate         Date    `json:"closed_date,omitzero"`
	WrittenOff         bool    `json:"written_off,omitempty"`
}

// DecodeLoans parses a JSONL loan book, one loan per line.
func DecodeLoans(r io.Reader) ([]LoanRecord, error) {
	var loans []LoanRecord
	if err := eachLine(r, func(n int, line []byte) error {
		var jl jloan
		if err := json.Unmarshal(line, &jl); err != nil {
			return fmt.Errorf("format error on loan line %d %q: %w", n, string(line), err)
		}
		freq := PayMonthly
		if jl.PaymentFrequency != "" {
			var err error
			freq, err = ParsePaymentFrequency(jl.PaymentFrequency)
			if err != nil {
				return fmt.Errorf("format error on loan line %d: %w", n, err)
			}
		}
		loans = append(loans, LoanRecord{
			LoanID:             jl.LoanID,
			CustomerID:         jl.CustomerID,
			Currency:           jl.Currency,
			ProductType:        jl.ProductType,
			DisbursedAmount:    M(jl.DisbursedAmount, jl.Currency),
			OutstandingBalance: M(jl.OutstandingBalance, jl.Currency),
			APR:                Q(jl.APR),
			TenorDays:          jl.TenorDays,
			OriginationDate:    jl.OriginationDate,
			Frequency:          freq,
			ClosedDate:         jl.ClosedDate,
			WrittenOff:         jl.WrittenOff,
		})
		return nil
	}); err != nil {
		return nil, err
	}
	return loans, nil
}

// EncodeLoans writes the loan book back in its canonical JSONL form.
func EncodeLoans(w io.Writer, loans []LoanRecord) error {
	for _, l := range loans {
		jl := jloan{
			LoanID:             l.LoanID,
			CustomerID:         l.CustomerID,
			Currency:           l.Currency,
			ProductType:        l.ProductType,
			DisbursedAmount:    l.DisbursedAmount.AsFloat(),
			OutstandingBalance: l.OutstandingBalance.AsFloat(),
			APR:                l.APR.AsFloat(),
			TenorDays:          l.TenorDays,
			OriginationDate:    l.OriginationDate,
			PaymentFrequency:   l.Frequency.String(),
			ClosedDate:         l.ClosedDate,
			WrittenOff:         l.WrittenOff,
		}
		if err := json.NewEncoder(w).Encode(jl); err != nil {
			return fmt.Errorf("cannot encode loan %q: %w", l.LoanID, err)
		}
	}
	return nil
}

// DecodeSchedule parses a JSONL payment schedule, one installment per line.
func DecodeSchedule(r io.Reader) ([]PaymentScheduleEntry, error) {
	type jentry struct {
		LoanID    string  `json:"loan_id"`
		DueDate   Date    `json:"due_date"`
		DueAmount float64 `json:"due_amount"`
		Currency  string  `json:"currency"`
	}
	var entries []PaymentScheduleEntry
	if err := eachLine(r, func(n int, line []byte) error {
		var je jentry
		if err := json.Unmarshal(line, &je); err != nil {
			return fmt.Errorf("format error on schedule line %d %q: %w", n, string(line), err)
		}
		entries = append(entries, PaymentScheduleEntry{
			LoanID:    je.LoanID,
			DueDate:   je.DueDate,
			DueAmount: M(je.DueAmount, je.Currency),
		})
		return nil
	}); err != nil {
		return nil, err
	}
	return entries, nil
}

// DecodePayments parses a JSONL payment history, one payment per line.
func DecodePayments(r io.Reader) ([]PaymentEvent, error) {
	type jpayment struct {
		LoanID      string  `json:"loan_id"`
		PaymentDate Date    `json:"payment_date"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
	}
	var events []PaymentEvent
	if err := eachLine(r, func(n int, line []byte) error {
		var jp jpayment
		if err := json.Unmarshal(line, &jp); err != nil {
			return fmt.Errorf("format error on payment line %d %q: %w", n, string(line), err)
		}
		events = append(events, PaymentEvent{
			LoanID:      jp.LoanID,
			PaymentDate: jp.PaymentDate,
			Amount:      M(jp.Amount, jp.Currency),
		})
		return nil
	}); err != nil {
		return nil, err
	}
	return events, nil
}

// jbucket is the wire shape of one aging or tenor bucket.
type jbucket struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Lower       int    `json:"lower"`
	Upper       int    `json:"upper,omitempty"` // omitted on the open-ended last bucket
	IsDefault   bool   `json:"is_default,omitempty"`
}

func toBuckets(jbs []jbucket) []Bucket {
	buckets := make([]Bucket, len(jbs))
	for i, jb := range jbs {
		buckets[i] = Bucket{
			Label:       jb.Label,
			Description: jb.Description,
			Lower:       jb.Lower,
			Upper:       jb.Upper,
			IsDefault:   jb.IsDefault,
		}
	}
	return buckets
}

// DecodeDpdPolicy parses a delinquency policy file: a single JSON document
// holding the default threshold, the NPL basis, and the ordered bucket
// table. The table is validated here, once, at load time.
func DecodeDpdPolicy(r io.Reader) (DpdPolicy, error) {
	var jp struct {
		DefaultThresholdDays int       `json:"default_threshold_days"`
		NplBasis             string    `json:"npl_basis,omitempty"`
		APRMin               float64   `json:"apr_min"`
		APRMax               float64   `json:"apr_max"`
		Buckets              []jbucket `json:"buckets"`
	}
	if err := json.NewDecoder(r).Decode(&jp); err != nil {
		return DpdPolicy{}, fmt.Errorf("cannot parse dpd policy: %w", err)
	}
	buckets, err := NewBucketPolicy(toBuckets(jp.Buckets))
	if err != nil {
		return DpdPolicy{}, err
	}
	policy := DpdPolicy{
		DefaultThresholdDays: jp.DefaultThresholdDays,
		Buckets:              buckets,
		APRMin:               Q(jp.APRMin),
		APRMax:               Q(jp.APRMax),
	}
	switch strings.ToLower(jp.NplBasis) {
	case "", string(NplCountBasis):
		// count is the default
	case string(NplBalanceBasis):
		policy.NPLBalanceWeighted = true
	default:
		return DpdPolicy{}, configErrorf("unknown npl basis %q", jp.NplBasis)
	}
	if err := policy.Validate(); err != nil {
		return DpdPolicy{}, err
	}
	return policy, nil
}

// DecodePricingGrid parses a JSONL pricing grid, one band per line, and
// validates it for overlaps.
func DecodePricingGrid(r io.Reader) (*PricingGrid, error) {
	type jband struct {
		ProductType string  `json:"product_type"`
		Segment     string  `json:"segment,omitempty"`
		TenorMin    int     `json:"tenor_min"`
		TenorMax    int     `json:"tenor_max,omitempty"`
		AmountMin   float64 `json:"amount_min"`
		AmountMax   float64 `json:"amount_max,omitempty"`
		Currency    string  `json:"currency"`
		BaseRate    float64 `json:"base_rate"`
		Margin      float64 `json:"margin"`
		TotalRate   float64 `json:"total_rate,omitempty"`
	}
	var bands []PricingBand
	if err := eachLine(r, func(n int, line []byte) error {
		var jb jband
		if err := json.Unmarshal(line, &jb); err != nil {
			return fmt.Errorf("format error on pricing band line %d %q: %w", n, string(line), err)
		}
		band := PricingBand{
			ProductType: jb.ProductType,
			Segment:     jb.Segment,
			TenorMin:    jb.TenorMin,
			TenorMax:    jb.TenorMax,
			AmountMin:   M(jb.AmountMin, jb.Currency),
			BaseRate:    Q(jb.BaseRate),
			Margin:      Q(jb.Margin),
			TotalRate:   Q(jb.TotalRate),
		}
		if jb.AmountMax != 0 {
			band.AmountMax = M(jb.AmountMax, jb.Currency)
		}
		bands = append(bands, band)
		return nil
	}); err != nil {
		return nil, err
	}
	return NewPricingGrid(bands)
}

// eachLine runs fn over every non-empty line of r with its 1-based number.
func eachLine(r io.Reader, fn func(n int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
