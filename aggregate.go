package lendscope

import (
	"maps"
	"slices"
	"strings"
)

// AggregationPolicy configures the portfolio-level reductions.
type AggregationPolicy struct {
	// TenorBuckets partitions loans by tenor days, same half-open interval
	// table as the aging buckets.
	TenorBuckets *BucketPolicy
	// TopExposures is how many customers the concentration ranking surfaces.
	TopExposures int
}

// DefaultAggregationPolicy returns the documented defaults: four
// months-equivalent tenor slices (30-day months) and the top five exposures.
func DefaultAggregationPolicy() AggregationPolicy {
	tenor, err := NewBucketPolicy([]Bucket{
		{Label: "0-12m", Lower: 0, Upper: 360},
		{Label: "12-24m", Lower: 360, Upper: 720},
		{Label: "24-36m", Lower: 720, Upper: 1080},
		{Label: "36m+", Lower: 1080},
	})
	if err != nil {
		panic(err)
	}
	return AggregationPolicy{TenorBuckets: tenor, TopExposures: 5}
}

// Validate checks the policy consistency.
func (p AggregationPolicy) Validate() error {
	if p.TenorBuckets == nil {
		return configErrorf("aggregation policy has no tenor bucket table")
	}
	if p.TopExposures <= 0 {
		return configErrorf("top exposures must be positive, got %d", p.TopExposures)
	}
	return nil
}

// LoanAssessment is one loan enriched with its delinquency state and its
// pricing band. It is the unit the reductions consume.
type LoanAssessment struct {
	Loan *LoanRecord
	Dpd  DpdResult

	// Band is nil when the pricing lookup failed; PricingErr then carries
	// the NoMatchError or AmbiguousBandError.
	Band       *PricingBand
	PricingErr error
}

// Active reports whether the loan still counts in active aggregates.
func (a *LoanAssessment) Active() bool { return !a.Loan.Retired() }

// MarshalJSON flattens the loan identity, its delinquency fields, and its
// pricing into one object, keeping the contract field names and order.
func (a *LoanAssessment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	// the dpd result owns loan_id and reference_date
	dpd, err := a.Dpd.MarshalJSON()
	if err != nil {
		return nil, err
	}
	w.Embed(dpd)

	w.Append("customer_id", a.Loan.CustomerID)
	w.Append("product_type", a.Loan.ProductType)
	w.Append("outstanding_balance", a.Loan.OutstandingBalance)
	w.Append("apr", a.Loan.APR)
	w.Append("tenor_days", a.Loan.TenorDays)

	if a.Band != nil {
		w.Append("pricing_band", a.Band.ID())
		w.Append("total_rate", a.Band.TotalRate)
	}
	if a.PricingErr != nil {
		w.Append("pricing_error", a.PricingErr.Error())
	}
	return w.MarshalJSON()
}

// TenorSlice is one row of the tenor mix distribution.
type TenorSlice struct {
	Label        string  `json:"label"`
	Count        int     `json:"count"`
	Balance      Money   `json:"balance"`
	BalanceShare Percent `json:"balance_share"`
}

// Exposure is one row of the concentration ranking.
type Exposure struct {
	Rank       int     `json:"rank"`
	CustomerID string  `json:"customer_id"`
	Balance    Money   `json:"balance"`
	Share      Percent `json:"share"`
}

// NplBasis names the weighting of the NPL ratio in the report metadata.
type NplBasis string

const (
	NplCountBasis   NplBasis = "count"
	NplBalanceBasis NplBasis = "balance"
)

// NplSummary is the non-performing share of the portfolio.
type NplSummary struct {
	Count      int      `json:"count"`
	Balance    Money    `json:"balance"`
	Percentage Percent  `json:"percentage"`
	Basis      NplBasis `json:"basis"`
}

// PortfolioKpis are the portfolio-level scalar KPIs of one run.
type PortfolioKpis struct {
	OutstandingTotal Money        `json:"outstanding_total"`
	WeightedAPR      Quantity     `json:"weighted_apr"`
	ActiveLoans      int          `json:"active_loans"`
	TenorMix         []TenorSlice `json:"tenor_mix"`
	Concentration    []Exposure   `json:"concentration"`
	Npl              NplSummary   `json:"npl"`
}

// kpiPartial is a mergeable partial aggregate. Merging is commutative and
// associative so partials produced by parallel workers can be combined in
// any completion order and still reduce to the same KPIs.
type kpiPartial struct {
	outstanding Money
	aprWeighted Money // sum of balance x apr
	activeLoans int
	nplCount    int
	nplBalance  Money

	tenorCount   map[int]int   // tenor bucket ordinal -> loans
	tenorBalance map[int]Money // tenor bucket ordinal -> balance
	exposure     map[string]Money
}

func newKpiPartial() *kpiPartial {
	return &kpiPartial{
		tenorCount:   make(map[int]int),
		tenorBalance: make(map[int]Money),
		exposure:     make(map[string]Money),
	}
}

// add folds one assessed loan into the partial.
func (p *kpiPartial) add(a *LoanAssessment, policy AggregationPolicy) {
	if !a.Active() {
		return
	}
	balance := a.Loan.OutstandingBalance

	p.activeLoans++
	p.outstanding = p.outstanding.Add(balance)
	p.aprWeighted = p.aprWeighted.Add(balance.Mul(a.Loan.APR))

	slot := policy.TenorBuckets.Classify(a.Loan.TenorDays)
	p.tenorCount[slot.Value]++
	p.tenorBalance[slot.Value] = p.tenorBalance[slot.Value].Add(balance)

	p.exposure[a.Loan.CustomerID] = p.exposure[a.Loan.CustomerID].Add(balance)

	if a.Dpd.IsDefault {
		p.nplCount++
		p.nplBalance = p.nplBalance.Add(balance)
	}
}

// merge folds another partial into p.
func (p *kpiPartial) merge(q *kpiPartial) {
	p.outstanding = p.outstanding.Add(q.outstanding)
	p.aprWeighted = p.aprWeighted.Add(q.aprWeighted)
	p.activeLoans += q.activeLoans
	p.nplCount += q.nplCount
	p.nplBalance = p.nplBalance.Add(q.nplBalance)
	for k, v := range q.tenorCount {
		p.tenorCount[k] += v
	}
	for k, v := range q.tenorBalance {
		p.tenorBalance[k] = p.tenorBalance[k].Add(v)
	}
	for k, v := range q.exposure {
		p.exposure[k] = p.exposure[k].Add(v)
	}
}

// finalize turns the partial into the output KPIs. Rankings are ordered by
// balance descending then customer id so that equal inputs always produce
// identical output regardless of input order.
func (p *kpiPartial) finalize(policy AggregationPolicy, nplBalanceWeighted bool) PortfolioKpis {
	kpis := PortfolioKpis{
		OutstandingTotal: p.outstanding,
		ActiveLoans:      p.activeLoans,
	}

	// weighted APR is 0 on an empty or fully repaid portfolio, never a
	// division by zero
	if p.outstanding.IsPositive() {
		kpis.WeightedAPR = p.aprWeighted.Ratio(p.outstanding)
	} else {
		kpis.WeightedAPR = Q(0)
	}

	for _, b := range policy.TenorBuckets.Buckets() {
		slice := TenorSlice{
			Label:   b.Label,
			Count:   p.tenorCount[b.Value],
			Balance: p.tenorBalance[b.Value],
		}
		if p.outstanding.IsPositive() && !slice.Balance.IsZero() {
			slice.BalanceShare = slice.Balance.Ratio(p.outstanding).Percent()
		}
		kpis.TenorMix = append(kpis.TenorMix, slice)
	}

	customers := sortedKeys(p.exposure)
	slices.SortStableFunc(customers, func(a, b string) int {
		switch {
		case p.exposure[a].GreaterThan(p.exposure[b]):
			return -1
		case p.exposure[b].GreaterThan(p.exposure[a]):
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	for i, id := range customers {
		if i >= policy.TopExposures {
			break
		}
		e := Exposure{Rank: i + 1, CustomerID: id, Balance: p.exposure[id]}
		if p.outstanding.IsPositive() {
			e.Share = e.Balance.Ratio(p.outstanding).Percent()
		}
		kpis.Concentration = append(kpis.Concentration, e)
	}

	kpis.Npl = NplSummary{Count: p.nplCount, Balance: p.nplBalance, Basis: NplCountBasis}
	if nplBalanceWeighted {
		kpis.Npl.Basis = NplBalanceBasis
		if p.outstanding.IsPositive() {
			kpis.Npl.Percentage = p.nplBalance.Ratio(p.outstanding).Percent()
		}
	} else if p.activeLoans > 0 {
		kpis.Npl.Percentage = Q(p.nplCount).Div(Q(p.activeLoans)).Percent()
	}
	return kpis
}

// Aggregate reduces the assessed loans into portfolio KPIs in one
// sequential pass. The orchestrator uses the same partials to reduce
// per-worker slices in parallel.
func Aggregate(assessments []*LoanAssessment, policy AggregationPolicy, nplBalanceWeighted bool) PortfolioKpis {
	partial := newKpiPartial()
	for _, a := range assessments {
		partial.add(a, policy)
	}
	return partial.finalize(policy, nplBalanceWeighted)
}

// sortedKeys returns the map keys in sorted order, for deterministic output.
func sortedKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.Sort(keys)
	return keys
}
