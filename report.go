package lendscope

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Snapshot is the immutable input of one engine run: the three record sets,
// already column-normalized by the ingestion layer.
type Snapshot struct {
	Loans    []LoanRecord
	Schedule []PaymentScheduleEntry
	Payments []PaymentEvent
}

// Policies bundles the configuration of one run. Config is read-only for
// the duration of a run; a new run re-reads a fresh snapshot.
type Policies struct {
	Dpd         DpdPolicy
	Aggregation AggregationPolicy
	Grid        *PricingGrid

	// ReportingCurrency is the single currency of the book. Loans in any
	// other currency are excluded and counted; the engine does no FX.
	ReportingCurrency string

	// ReportingPeriod is the client-lifecycle window length, and
	// LookbackPeriods how many previous windows the tracker inspects.
	ReportingPeriod Period
	LookbackPeriods int
}

// DefaultPolicies returns a usable default configuration around the given
// pricing grid: 180-day default threshold, standard aging and tenor tables,
// monthly lifecycle windows with a six-month lookback.
func DefaultPolicies(grid *PricingGrid, currency string) Policies {
	return Policies{
		Dpd:               DefaultDpdPolicy(),
		Aggregation:       DefaultAggregationPolicy(),
		Grid:              grid,
		ReportingCurrency: currency,
		ReportingPeriod:   Monthly,
		LookbackPeriods:   6,
	}
}

// Validate checks the run configuration. Any failure is fatal for the run.
func (p Policies) Validate() error {
	if err := p.Dpd.Validate(); err != nil {
		return err
	}
	if err := p.Aggregation.Validate(); err != nil {
		return err
	}
	if p.Grid == nil {
		return configErrorf("no pricing grid configured")
	}
	if p.ReportingCurrency == "" {
		return configErrorf("no reporting currency configured")
	}
	if p.LookbackPeriods <= 0 {
		return configErrorf("lookback must cover at least one period, got %d", p.LookbackPeriods)
	}
	return nil
}

// ExcludedRecord names one input row dropped from the run, so a consumer
// can tell a clean zero from a partial result.
type ExcludedRecord struct {
	LoanID string `json:"loan_id"`
	Kind   string `json:"kind"` // loan, schedule_entry, payment
	Reason string `json:"reason"`
}

// PricingException is a per-loan pricing lookup failure. The loan stays in
// the report with its pricing fields unset.
type PricingException struct {
	LoanID string `json:"loan_id"`
	Reason string `json:"reason"`
}

// ReportMeta enumerates everything that kept the run from being complete.
// The orchestrator never returns a partially-silent report.
type ReportMeta struct {
	ReferenceDate     Date             `json:"reference_date"`
	ReportingCurrency string           `json:"reporting_currency"`
	TotalLoans        int              `json:"total_loans"`
	ExcludedCount     int              `json:"excluded_count"`
	Excluded          []ExcludedRecord `json:"excluded,omitempty"`
	PricingExceptions []PricingException `json:"pricing_exceptions,omitempty"`
	NplBasis          NplBasis         `json:"npl_basis"`
}

// BucketSummary aggregates the delinquency state of one aging bucket. The
// JSON field names are a stability contract with downstream exporters.
type BucketSummary struct {
	Bucket        Bucket
	Loans         int
	Balance       Money
	PastDueAmount Money
}

func (s BucketSummary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("dpd_bucket", s.Bucket.Label)
	w.Append("dpd_bucket_value", s.Bucket.Value)
	w.Append("dpd_bucket_description", s.Bucket.Description)
	w.Append("default_flag", s.Bucket.IsDefault)
	w.Append("loans", s.Loans)
	w.Append("balance", s.Balance)
	w.Append("past_due_amount", s.PastDueAmount)
	return w.MarshalJSON()
}

// PortfolioReport is the single output of one run. It is immutable once
// built and consumed read-only.
type PortfolioReport struct {
	ReferenceDate Date              `json:"reference_date"`
	Kpis          PortfolioKpis     `json:"kpis"`
	DpdSummary    []BucketSummary   `json:"dpd_summary"`
	Clients       LifecycleSummary  `json:"clients"`
	Loans         []*LoanAssessment `json:"loans"`
	Meta          ReportMeta        `json:"meta"`
}

// NewPortfolioReport runs the whole engine over one snapshot: per-loan
// delinquency in parallel, pricing lookups, order-independent aggregation,
// and client lifecycle classification.
//
// Policy errors are fatal. Malformed records are excluded per record and
// enumerated in the metadata; pricing failures are recorded per loan.
func NewPortfolioReport(snapshot *Snapshot, policies Policies, refDate Date) (*PortfolioReport, error) {
	if err := policies.Validate(); err != nil {
		return nil, err
	}

	meta := ReportMeta{
		ReferenceDate:     refDate,
		ReportingCurrency: policies.ReportingCurrency,
		TotalLoans:        len(snapshot.Loans),
		NplBasis:          NplCountBasis,
	}
	if policies.Dpd.NPLBalanceWeighted {
		meta.NplBasis = NplBalanceBasis
	}

	exclude := func(loanID, kind, reason string) {
		meta.Excluded = append(meta.Excluded, ExcludedRecord{LoanID: loanID, Kind: kind, Reason: reason})
	}

	// Validate loan master records and index them.
	loans := make(map[string]*LoanRecord, len(snapshot.Loans))
	var order []string
	for i := range snapshot.Loans {
		l := &snapshot.Loans[i]
		if _, dup := loans[l.LoanID]; dup {
			exclude(l.LoanID, "loan", "duplicate loan_id")
			continue
		}
		if err := l.CheckIntegrity(policies.Dpd.APRMin, policies.Dpd.APRMax); err != nil {
			exclude(l.LoanID, "loan", err.Reason)
			continue
		}
		if l.Currency != policies.ReportingCurrency {
			exclude(l.LoanID, "loan", fmt.Sprintf("currency %q, book is in %q", l.Currency, policies.ReportingCurrency))
			continue
		}
		loans[l.LoanID] = l
		order = append(order, l.LoanID)
	}

	// Group schedule and payments per loan; orphans are excluded.
	schedules := make(map[string][]PaymentScheduleEntry)
	for _, e := range snapshot.Schedule {
		if _, ok := loans[e.LoanID]; !ok {
			exclude(e.LoanID, "schedule_entry", "references unknown loan_id")
			continue
		}
		schedules[e.LoanID] = append(schedules[e.LoanID], e)
	}
	payments := make(map[string][]PaymentEvent)
	for _, p := range snapshot.Payments {
		if _, ok := loans[p.LoanID]; !ok {
			exclude(p.LoanID, "payment", "references unknown loan_id")
			continue
		}
		payments[p.LoanID] = append(payments[p.LoanID], p)
	}

	// Per-loan delinquency is independent, so it is a data-parallel map.
	// Each worker writes its own slot; merge order cannot matter.
	type outcome struct {
		assessment *LoanAssessment
		err        *DataIntegrityError
	}
	outcomes := make([]outcome, len(order))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range order {
		g.Go(func() error {
			loan := loans[id]
			dpd, err := ComputeDpd(loan, schedules[id], payments[id], refDate, policies.Dpd)
			if err != nil {
				var ie *DataIntegrityError
				if !errors.As(err, &ie) {
					ie = integrityErrorf(id, "%v", err)
				}
				outcomes[i] = outcome{err: ie}
				return nil
			}
			a := &LoanAssessment{Loan: loan, Dpd: dpd}
			if band, err := policies.Grid.Match(loan.ProductType, loan.TenorDays, loan.DisbursedAmount); err != nil {
				a.PricingErr = err
			} else {
				a.Band = &band
			}
			outcomes[i] = outcome{assessment: a}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var assessments []*LoanAssessment
	for _, o := range outcomes {
		if o.err != nil {
			exclude(o.err.LoanID, "loan", o.err.Reason)
			continue
		}
		assessments = append(assessments, o.assessment)
		if o.assessment.PricingErr != nil {
			meta.PricingExceptions = append(meta.PricingExceptions, PricingException{
				LoanID: o.assessment.Loan.LoanID,
				Reason: o.assessment.PricingErr.Error(),
			})
		}
	}
	meta.ExcludedCount = len(meta.Excluded)
	slices.SortFunc(meta.Excluded, func(a, b ExcludedRecord) int {
		if c := strings.Compare(a.LoanID, b.LoanID); c != 0 {
			return c
		}
		return strings.Compare(a.Kind, b.Kind)
	})

	report := &PortfolioReport{
		ReferenceDate: refDate,
		Kpis:          Aggregate(assessments, policies.Aggregation, policies.Dpd.NPLBalanceWeighted),
		DpdSummary:    summarizeBuckets(assessments, policies),
		Clients:       classifyLifecycle(assessments, policies, refDate),
		Loans:         assessments,
		Meta:          meta,
	}
	return report, nil
}

// summarizeBuckets aggregates delinquency per aging bucket over active
// loans. Fully repaid loans are reported per loan but excluded here.
func summarizeBuckets(assessments []*LoanAssessment, policies Policies) []BucketSummary {
	buckets := policies.Dpd.Buckets.Buckets()
	summaries := make([]BucketSummary, len(buckets))
	for i, b := range buckets {
		summaries[i] = BucketSummary{
			Bucket:        b,
			Balance:       M(0, policies.ReportingCurrency),
			PastDueAmount: M(0, policies.ReportingCurrency),
		}
	}
	for _, a := range assessments {
		if !a.Active() {
			continue
		}
		s := &summaries[a.Dpd.Bucket.Value]
		s.Loans++
		s.Balance = s.Balance.Add(a.Loan.OutstandingBalance)
		s.PastDueAmount = s.PastDueAmount.Add(a.Dpd.PastDueAmount)
	}
	return summaries
}

// classifyLifecycle runs the client tracker over the reporting window
// containing refDate and its configured lookback.
func classifyLifecycle(assessments []*LoanAssessment, policies Policies, refDate Date) LifecycleSummary {
	reporting := policies.ReportingPeriod.Range(refDate)
	lookbackFrom := reporting.From
	for range policies.LookbackPeriods {
		lookbackFrom = policies.ReportingPeriod.Range(lookbackFrom.Add(-1)).From
	}
	lookback := NewRange(lookbackFrom, reporting.From.Add(-1))

	all := make([]*LoanRecord, 0, len(assessments))
	for _, a := range assessments {
		all = append(all, a.Loan)
	}
	return ClassifyClients(all, reporting, lookback)
}
