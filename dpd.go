package lendscope

import (
	"slices"
)

// DpdPolicy configures the delinquency computation.
type DpdPolicy struct {
	// DefaultThresholdDays is the DPD at or beyond which a loan is in
	// default. Documented default is 180; 90 and 120 are the usual
	// alternatives.
	DefaultThresholdDays int
	Buckets              *BucketPolicy

	// NPLBalanceWeighted switches the NPL ratio from loan count to
	// outstanding balance. The choice is echoed in the report metadata.
	NPLBalanceWeighted bool

	// Valid APR range for loan master records.
	APRMin, APRMax Quantity
}

// DefaultDpdPolicy returns the documented default policy: 180-day default
// threshold, standard aging table, count-based NPL, APR within [0, 1].
func DefaultDpdPolicy() DpdPolicy {
	return DpdPolicy{
		DefaultThresholdDays: 180,
		Buckets:              DefaultBucketPolicy(),
		APRMin:               Q(0),
		APRMax:               Q(1),
	}
}

// Validate checks the policy consistency.
func (p DpdPolicy) Validate() error {
	if p.DefaultThresholdDays <= 0 {
		return configErrorf("default threshold must be positive, got %d days", p.DefaultThresholdDays)
	}
	if p.Buckets == nil {
		return configErrorf("dpd policy has no bucket table")
	}
	if p.APRMax.LessThan(p.APRMin) {
		return configErrorf("apr range [%s, %s] is empty", p.APRMin, p.APRMax)
	}
	return nil
}

// DpdResult is the delinquency state of one loan at a reference date. It is
// recomputed fresh every run and only lives as a report artifact. The JSON
// field names are a stability contract with downstream exporters.
type DpdResult struct {
	LoanID           string
	ReferenceDate    Date
	DaysPastDue      int
	PastDueAmount    Money
	FirstArrearsDate Date // zero when nothing is in arrears
	LastPaymentDate  Date // zero when no payment was ever received
	LastDueDate      Date // zero when nothing was due yet
	IsDefault        bool
	Bucket           Bucket
}

func (r DpdResult) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("loan_id", r.LoanID)
	w.Append("reference_date", r.ReferenceDate)
	w.Append("days_past_due", r.DaysPastDue)
	w.Append("past_due_amount", r.PastDueAmount)
	w.Optional("first_arrears_date", r.FirstArrearsDate)
	w.Optional("last_payment_date", r.LastPaymentDate)
	w.Optional("last_due_date", r.LastDueDate)
	w.Append("is_default", r.IsDefault)
	w.Append("dpd_bucket", r.Bucket.Label)
	w.Append("dpd_bucket_value", r.Bucket.Value)
	w.Append("dpd_bucket_description", r.Bucket.Description)
	return w.MarshalJSON()
}

// ComputeDpd derives the delinquency state of one loan at refDate from its
// payment schedule and payment history.
//
// Payments are allocated to due installments in chronological order, oldest
// due first. The past-due amount is the sum of due amounts not covered by
// allocated payments among installments due on or before refDate; the first
// arrears date is the due date of the oldest installment still uncovered.
// Day arithmetic is whole days.
//
// Malformed schedule or payment rows fail with a DataIntegrityError naming
// the loan; the engine never guesses around bad rows.
func ComputeDpd(loan *LoanRecord, schedule []PaymentScheduleEntry, payments []PaymentEvent, refDate Date, policy DpdPolicy) (DpdResult, error) {
	res := DpdResult{
		LoanID:        loan.LoanID,
		ReferenceDate: refDate,
		PastDueAmount: M(0, loan.Currency),
	}

	for i := range schedule {
		if err := schedule[i].CheckIntegrity(loan); err != nil {
			return DpdResult{}, err
		}
	}
	for i := range payments {
		if err := payments[i].CheckIntegrity(loan); err != nil {
			return DpdResult{}, err
		}
	}

	// work on sorted copies, the snapshot itself is immutable
	due := slices.Clone(schedule)
	slices.SortStableFunc(due, func(a, b PaymentScheduleEntry) int { return a.DueDate.Sub(b.DueDate) })
	paid := slices.Clone(payments)
	slices.SortStableFunc(paid, func(a, b PaymentEvent) int { return a.PaymentDate.Sub(b.PaymentDate) })

	// available sums all payments received up to refDate
	available := M(0, loan.Currency)
	for _, p := range paid {
		if p.PaymentDate.After(refDate) {
			break
		}
		available = available.Add(p.Amount)
		res.LastPaymentDate = p.PaymentDate
	}

	for _, e := range due {
		if e.DueDate.After(refDate) {
			break
		}
		res.LastDueDate = e.DueDate

		covered := e.DueAmount.Min(available)
		available = available.Sub(covered)
		uncovered := e.DueAmount.Sub(covered)
		if uncovered.IsPositive() {
			res.PastDueAmount = res.PastDueAmount.Add(uncovered)
			if res.FirstArrearsDate.IsZero() {
				res.FirstArrearsDate = e.DueDate
			}
		}
	}

	// A fully repaid loan is reported current regardless of schedule rows:
	// whatever is outstanding is zero, nothing is in arrears.
	if loan.Repaid() {
		res.PastDueAmount = M(0, loan.Currency)
		res.FirstArrearsDate = Date{}
	}

	if !res.FirstArrearsDate.IsZero() {
		// never negative: FirstArrearsDate only comes from installments due
		// on or before refDate
		res.DaysPastDue = refDate.Sub(res.FirstArrearsDate)
	}
	res.IsDefault = res.DaysPastDue >= policy.DefaultThresholdDays
	res.Bucket = policy.Buckets.Classify(res.DaysPastDue)
	return res, nil
}
