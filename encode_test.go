package lendscope

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecodeLoans(t *testing.T) {
	in := `
{"loan_id":"L-1","customer_id":"C-1","currency":"EUR","product_type":"working_capital","disbursed_amount":10000,"outstanding_balance":8000,"apr":0.12,"tenor_days":90,"origination_date":"2026-01-15","payment_frequency":"monthly"}

{"loan_id":"L-2","customer_id":"C-2","currency":"EUR","product_type":"term_loan","disbursed_amount":50000,"outstanding_balance":0,"apr":0.07,"tenor_days":720,"origination_date":"2024-06-01","closed_date":"2026-02-10"}
`
	loans, err := DecodeLoans(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(loans) != 2 {
		t.Fatalf("decoded %d loans, want 2", len(loans))
	}

	l := loans[0]
	if l.LoanID != "L-1" || l.CustomerID != "C-1" || l.TenorDays != 90 {
		t.Errorf("loan = %+v", l)
	}
	if !l.DisbursedAmount.Equal(M(10000, "EUR")) || !l.OutstandingBalance.Equal(M(8000, "EUR")) {
		t.Errorf("amounts = %s / %s", l.DisbursedAmount, l.OutstandingBalance)
	}
	if l.Frequency != PayMonthly {
		t.Errorf("Frequency = %s", l.Frequency)
	}

	// frequency defaults to monthly when absent, closed date parses
	if loans[1].Frequency != PayMonthly {
		t.Errorf("missing frequency decoded as %s", loans[1].Frequency)
	}
	if loans[1].ClosedDate != MustParse("2026-02-10") {
		t.Errorf("ClosedDate = %s", loans[1].ClosedDate)
	}
}

func TestDecodeLoans_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"broken json", `{"loan_id":`},
		{"bad frequency", `{"loan_id":"L-1","payment_frequency":"fortnightly"}`},
		{"bad date", `{"loan_id":"L-1","origination_date":"not-a-date"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := DecodeLoans(strings.NewReader(c.in)); err == nil {
				t.Error("DecodeLoans() accepted a malformed line")
			}
		})
	}
}

func TestLoansRoundTrip(t *testing.T) {
	loans := []LoanRecord{
		{
			LoanID: "L-1", CustomerID: "C-1", Currency: "EUR", ProductType: "working_capital",
			DisbursedAmount: M(10000, "EUR"), OutstandingBalance: M(8000.50, "EUR"),
			APR: Q(0.12), TenorDays: 90, OriginationDate: MustParse("2026-01-15"),
			Frequency: PayQuarterly,
		},
		{
			LoanID: "L-2", CustomerID: "C-2", Currency: "EUR", ProductType: "term_loan",
			DisbursedAmount: M(50000, "EUR"), OutstandingBalance: M(0, "EUR"),
			APR: Q(0.07), TenorDays: 720, OriginationDate: MustParse("2024-06-01"),
			ClosedDate: MustParse("2026-02-10"), WrittenOff: true,
		},
	}

	var buf bytes.Buffer
	if err := EncodeLoans(&buf, loans); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeLoans(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(loans) {
		t.Fatalf("round trip kept %d loans, want %d", len(got), len(loans))
	}
	for i := range loans {
		w, g := loans[i], got[i]
		if g.LoanID != w.LoanID || g.Frequency != w.Frequency || g.WrittenOff != w.WrittenOff ||
			g.ClosedDate != w.ClosedDate || !g.OutstandingBalance.Equal(w.OutstandingBalance) {
			t.Errorf("loan %d round trip:\ngot  %+v\nwant %+v", i, g, w)
		}
	}
}

func TestDecodeSchedule(t *testing.T) {
	in := `{"loan_id":"L-1","due_date":"2026-02-15","due_amount":1000,"currency":"EUR"}
{"loan_id":"L-1","due_date":"2026-03-15","due_amount":1000,"currency":"EUR"}`
	entries, err := DecodeSchedule(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("decoded %d entries, want 2", len(entries))
	}
	if entries[0].DueDate != MustParse("2026-02-15") || !entries[0].DueAmount.Equal(M(1000, "EUR")) {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestDecodePayments(t *testing.T) {
	in := `{"loan_id":"L-1","payment_date":"2026-02-14","amount":999.99,"currency":"EUR"}`
	events, err := DecodePayments(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("decoded %d events, want 1", len(events))
	}
	if !events[0].Amount.Equal(M(999.99, "EUR")) {
		t.Errorf("Amount = %s", events[0].Amount)
	}
}

func TestDecodeDpdPolicy(t *testing.T) {
	in := `{
  "default_threshold_days": 90,
  "npl_basis": "balance",
  "apr_min": 0,
  "apr_max": 1,
  "buckets": [
    {"label": "Current", "lower": 0, "upper": 1},
    {"label": "1-30", "lower": 1, "upper": 31},
    {"label": "31-90", "lower": 31, "upper": 91},
    {"label": "90+", "lower": 91, "is_default": true}
  ]
}`
	policy, err := DecodeDpdPolicy(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if policy.DefaultThresholdDays != 90 {
		t.Errorf("DefaultThresholdDays = %d, want 90", policy.DefaultThresholdDays)
	}
	if !policy.NPLBalanceWeighted {
		t.Error("npl_basis balance not honored")
	}
	if got := policy.Buckets.Classify(45).Label; got != "31-90" {
		t.Errorf("Classify(45) = %q, want 31-90", got)
	}
}

func TestDecodeDpdPolicy_Errors(t *testing.T) {
	// a broken bucket table is a configuration error at load time
	in := `{"default_threshold_days": 90, "apr_max": 1, "buckets": [{"label": "1-30", "lower": 1, "upper": 31}]}`
	if _, err := DecodeDpdPolicy(strings.NewReader(in)); err == nil {
		t.Error("bucket table not starting at 0 should fail")
	}

	in = `{"default_threshold_days": 90, "apr_max": 1, "npl_basis": "severity", "buckets": [{"label": "all", "lower": 0}]}`
	if _, err := DecodeDpdPolicy(strings.NewReader(in)); err == nil {
		t.Error("unknown npl basis should fail")
	}
}

func TestDecodePricingGrid(t *testing.T) {
	in := `{"product_type":"working_capital","tenor_min":0,"tenor_max":180,"amount_min":0,"currency":"EUR","base_rate":0.06,"margin":0.04}
{"product_type":"working_capital","tenor_min":180,"amount_min":0,"currency":"EUR","base_rate":0.06,"margin":0.06}`
	grid, err := DecodePricingGrid(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	b, err := grid.Match("working_capital", 90, M(1000.0, "EUR"))
	if err != nil {
		t.Fatal(err)
	}
	// total rate derived from base + margin
	if !b.TotalRate.Equal(Q(0.10)) {
		t.Errorf("TotalRate = %s, want 0.10", b.TotalRate)
	}
}

func TestDecodePricingGrid_Overlap(t *testing.T) {
	in := `{"product_type":"working_capital","tenor_min":0,"tenor_max":200,"amount_min":0,"currency":"EUR","base_rate":0.06,"margin":0.04}
{"product_type":"working_capital","tenor_min":180,"amount_min":0,"currency":"EUR","base_rate":0.06,"margin":0.06}`
	if _, err := DecodePricingGrid(strings.NewReader(in)); err == nil {
		t.Error("overlapping grid should fail at load time")
	}
}
