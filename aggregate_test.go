package lendscope

import (
	"math/rand"
	"testing"
)

func assessed(loanID, customerID string, balance, apr float64, tenorDays, dpd int) *LoanAssessment {
	loan := &LoanRecord{
		LoanID:             loanID,
		CustomerID:         customerID,
		Currency:           "EUR",
		ProductType:        "working_capital",
		DisbursedAmount:    M(balance*2, "EUR"),
		OutstandingBalance: M(balance, "EUR"),
		APR:                Q(apr),
		TenorDays:          tenorDays,
		OriginationDate:    MustParse("2025-01-01"),
	}
	policy := DefaultDpdPolicy()
	return &LoanAssessment{
		Loan: loan,
		Dpd: DpdResult{
			LoanID:      loanID,
			DaysPastDue: dpd,
			IsDefault:   dpd >= policy.DefaultThresholdDays,
			Bucket:      policy.Buckets.Classify(dpd),
		},
	}
}

func TestAggregate_WeightedAPR(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-1", 10000, 0.10, 90, 0),
		assessed("L-2", "C-2", 20000, 0.30, 90, 0),
	}
	kpis := Aggregate(assessments, DefaultAggregationPolicy(), false)

	if !kpis.OutstandingTotal.Equal(M(30000, "EUR")) {
		t.Errorf("OutstandingTotal = %s, want 30000", kpis.OutstandingTotal)
	}
	// (10000*0.10 + 20000*0.30) / 30000
	want := M(7000, "EUR").Ratio(M(30000, "EUR"))
	if !kpis.WeightedAPR.Equal(want) {
		t.Errorf("WeightedAPR = %s, want %s", kpis.WeightedAPR, want)
	}
	if kpis.ActiveLoans != 2 {
		t.Errorf("ActiveLoans = %d, want 2", kpis.ActiveLoans)
	}
}

func TestAggregate_Empty(t *testing.T) {
	kpis := Aggregate(nil, DefaultAggregationPolicy(), false)
	if kpis.ActiveLoans != 0 {
		t.Errorf("ActiveLoans = %d, want 0", kpis.ActiveLoans)
	}
	if !kpis.WeightedAPR.IsZero() {
		t.Errorf("WeightedAPR = %s, want 0", kpis.WeightedAPR)
	}
	if kpis.Npl.Percentage != 0 {
		t.Errorf("Npl.Percentage = %v, want 0", kpis.Npl.Percentage)
	}
	if len(kpis.TenorMix) != len(DefaultAggregationPolicy().TenorBuckets.Buckets()) {
		t.Errorf("TenorMix has %d slices, want one per bucket", len(kpis.TenorMix))
	}
}

func TestAggregate_RetiredLoansExcluded(t *testing.T) {
	repaid := assessed("L-1", "C-1", 10000, 0.10, 90, 0)
	repaid.Loan.OutstandingBalance = M(0, "EUR")
	written := assessed("L-2", "C-2", 5000, 0.10, 90, 0)
	written.Loan.WrittenOff = true
	active := assessed("L-3", "C-3", 20000, 0.15, 90, 0)

	kpis := Aggregate([]*LoanAssessment{repaid, written, active}, DefaultAggregationPolicy(), false)
	if kpis.ActiveLoans != 1 {
		t.Errorf("ActiveLoans = %d, want 1", kpis.ActiveLoans)
	}
	if !kpis.OutstandingTotal.Equal(M(20000, "EUR")) {
		t.Errorf("OutstandingTotal = %s, want 20000", kpis.OutstandingTotal)
	}
	if !kpis.WeightedAPR.Equal(Q(0.15)) {
		t.Errorf("WeightedAPR = %s, want 0.15", kpis.WeightedAPR)
	}
}

func TestAggregate_TenorMix(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-1", 1000, 0.1, 90, 0),   // 0-12m
		assessed("L-2", "C-2", 1000, 0.1, 359, 0),  // 0-12m, upper bound exclusive
		assessed("L-3", "C-3", 1000, 0.1, 360, 0),  // 12-24m
		assessed("L-4", "C-4", 1000, 0.1, 2000, 0), // 36m+
	}
	kpis := Aggregate(assessments, DefaultAggregationPolicy(), false)

	wantCounts := map[string]int{"0-12m": 2, "12-24m": 1, "24-36m": 0, "36m+": 1}
	for _, slice := range kpis.TenorMix {
		if slice.Count != wantCounts[slice.Label] {
			t.Errorf("slice %q count = %d, want %d", slice.Label, slice.Count, wantCounts[slice.Label])
		}
	}
	if got := kpis.TenorMix[0].BalanceShare; got != 50 {
		t.Errorf("0-12m balance share = %v, want 50", got)
	}
}

func TestAggregate_Concentration(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-1", 1000, 0.1, 90, 0),
		assessed("L-2", "C-2", 5000, 0.1, 90, 0),
		assessed("L-3", "C-2", 2000, 0.1, 90, 0), // same customer, balances add up
		assessed("L-4", "C-3", 3000, 0.1, 90, 0),
	}
	kpis := Aggregate(assessments, DefaultAggregationPolicy(), false)

	if len(kpis.Concentration) != 3 {
		t.Fatalf("Concentration has %d rows, want 3", len(kpis.Concentration))
	}
	top := kpis.Concentration[0]
	if top.CustomerID != "C-2" || !top.Balance.Equal(M(7000, "EUR")) || top.Rank != 1 {
		t.Errorf("top exposure = %+v, want C-2 with 7000", top)
	}
	if kpis.Concentration[1].CustomerID != "C-3" {
		t.Errorf("second exposure = %q, want C-3", kpis.Concentration[1].CustomerID)
	}

	policy := DefaultAggregationPolicy()
	policy.TopExposures = 2
	kpis = Aggregate(assessments, policy, false)
	if len(kpis.Concentration) != 2 {
		t.Errorf("Concentration has %d rows, want 2 with TopExposures = 2", len(kpis.Concentration))
	}
}

func TestAggregate_ConcentrationTiesBreakByCustomerID(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-b", 1000, 0.1, 90, 0),
		assessed("L-2", "C-a", 1000, 0.1, 90, 0),
	}
	kpis := Aggregate(assessments, DefaultAggregationPolicy(), false)
	if kpis.Concentration[0].CustomerID != "C-a" {
		t.Errorf("tied exposures should rank by customer id, got %q first", kpis.Concentration[0].CustomerID)
	}
}

func TestAggregate_NplCountBasis(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-1", 10000, 0.1, 90, 0),
		assessed("L-2", "C-2", 10000, 0.1, 90, 10),
		assessed("L-3", "C-3", 5000, 0.1, 90, 200),
		assessed("L-4", "C-4", 5000, 0.1, 90, 400),
	}
	kpis := Aggregate(assessments, DefaultAggregationPolicy(), false)

	if kpis.Npl.Count != 2 {
		t.Errorf("Npl.Count = %d, want 2", kpis.Npl.Count)
	}
	if !kpis.Npl.Balance.Equal(M(10000, "EUR")) {
		t.Errorf("Npl.Balance = %s, want 10000", kpis.Npl.Balance)
	}
	if kpis.Npl.Basis != NplCountBasis {
		t.Errorf("Npl.Basis = %q, want count", kpis.Npl.Basis)
	}
	// 2 of 4 loans
	if kpis.Npl.Percentage != 50 {
		t.Errorf("Npl.Percentage = %v, want 50", kpis.Npl.Percentage)
	}
}

func TestAggregate_NplBalanceBasis(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-1", 30000, 0.1, 90, 0),
		assessed("L-2", "C-2", 10000, 0.1, 90, 200),
	}
	kpis := Aggregate(assessments, DefaultAggregationPolicy(), true)

	if kpis.Npl.Basis != NplBalanceBasis {
		t.Errorf("Npl.Basis = %q, want balance", kpis.Npl.Basis)
	}
	// 10000 of 40000
	if kpis.Npl.Percentage != 25 {
		t.Errorf("Npl.Percentage = %v, want 25", kpis.Npl.Percentage)
	}
}

// TestAggregate_OrderIndependence shuffles the assessments and checks the
// reduction lands on the same KPIs, which is what lets the orchestrator
// split the book across workers.
func TestAggregate_OrderIndependence(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-1", 10000, 0.10, 90, 0),
		assessed("L-2", "C-2", 20000, 0.30, 400, 45),
		assessed("L-3", "C-1", 5000, 0.20, 800, 200),
		assessed("L-4", "C-3", 7500, 0.15, 1200, 0),
	}
	want := Aggregate(assessments, DefaultAggregationPolicy(), false)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(assessments), func(a, b int) {
			assessments[a], assessments[b] = assessments[b], assessments[a]
		})
		got := Aggregate(assessments, DefaultAggregationPolicy(), false)
		if !got.OutstandingTotal.Equal(want.OutstandingTotal) ||
			!got.WeightedAPR.Equal(want.WeightedAPR) ||
			got.ActiveLoans != want.ActiveLoans ||
			got.Npl.Count != want.Npl.Count ||
			!got.Npl.Balance.Equal(want.Npl.Balance) {
			t.Fatalf("shuffled aggregate differs:\ngot  %+v\nwant %+v", got, want)
		}
		for j := range want.Concentration {
			if got.Concentration[j].CustomerID != want.Concentration[j].CustomerID {
				t.Fatalf("shuffled concentration order differs at %d", j)
			}
		}
	}
}

func TestKpiPartial_Merge(t *testing.T) {
	assessments := []*LoanAssessment{
		assessed("L-1", "C-1", 10000, 0.10, 90, 0),
		assessed("L-2", "C-2", 20000, 0.30, 400, 200),
		assessed("L-3", "C-1", 5000, 0.20, 800, 0),
	}
	policy := DefaultAggregationPolicy()

	whole := newKpiPartial()
	for _, a := range assessments {
		whole.add(a, policy)
	}

	left, right := newKpiPartial(), newKpiPartial()
	left.add(assessments[0], policy)
	right.add(assessments[1], policy)
	right.add(assessments[2], policy)
	left.merge(right)

	a, b := whole.finalize(policy, false), left.finalize(policy, false)
	if !a.OutstandingTotal.Equal(b.OutstandingTotal) || !a.WeightedAPR.Equal(b.WeightedAPR) ||
		a.ActiveLoans != b.ActiveLoans || a.Npl.Count != b.Npl.Count {
		t.Errorf("merged partials differ from whole:\ngot  %+v\nwant %+v", b, a)
	}
}
