package lendscope

import (
	"fmt"
	"strings"
)

// PaymentFrequency is the contractual installment cadence of a loan.
type PaymentFrequency int

const (
	PayMonthly PaymentFrequency = iota
	PayWeekly
	PayQuarterly
	// PayBullet is a single repayment at maturity.
	PayBullet
)

func (f PaymentFrequency) String() string {
	switch f {
	case PayMonthly:
		return "monthly"
	case PayWeekly:
		return "weekly"
	case PayQuarterly:
		return "quarterly"
	case PayBullet:
		return "bullet"
	default:
		return "unknown"
	}
}

// ParsePaymentFrequency parses a string into a PaymentFrequency.
func ParsePaymentFrequency(s string) (PaymentFrequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "month":
		return PayMonthly, nil
	case "weekly", "week":
		return PayWeekly, nil
	case "quarterly", "quarter":
		return PayQuarterly, nil
	case "bullet":
		return PayBullet, nil
	default:
		return 0, fmt.Errorf("unknown payment frequency: %q", s)
	}
}

// LoanRecord is one commercial loan of the book. The engine reads financial
// state, it never mutates it: balances are whatever the ingested snapshot
// says they are.
type LoanRecord struct {
	LoanID      string
	CustomerID  string
	Currency    string
	ProductType string

	DisbursedAmount    Money
	OutstandingBalance Money
	APR                Quantity // annual rate as a 0-1 fraction
	TenorDays          int
	OriginationDate    Date
	Frequency          PaymentFrequency

	// ClosedDate is set when the loan ended before maturity (early repayment
	// or write-off). Zero for open loans.
	ClosedDate Date
	WrittenOff bool
}

// MaturityDate returns the contractual end of the loan.
func (l *LoanRecord) MaturityDate() Date { return l.OriginationDate.Add(l.TenorDays) }

// EndDate returns the date the loan stopped being active: its close date if
// set, its maturity otherwise.
func (l *LoanRecord) EndDate() Date {
	if !l.ClosedDate.IsZero() {
		return l.ClosedDate
	}
	return l.MaturityDate()
}

// Repaid reports whether the loan is fully repaid.
func (l *LoanRecord) Repaid() bool { return l.OutstandingBalance.IsZero() }

// Retired reports whether the loan is excluded from active aggregates:
// fully repaid or written off.
func (l *LoanRecord) Retired() bool { return l.Repaid() || l.WrittenOff }

// ActiveDuring reports whether the loan's life overlaps the window w.
func (l *LoanRecord) ActiveDuring(w Range) bool {
	return NewRange(l.OriginationDate, l.EndDate()).Overlaps(w)
}

// CheckIntegrity validates the loan master record against the policy valid
// APR range. A nil return means the record is usable.
func (l *LoanRecord) CheckIntegrity(aprMin, aprMax Quantity) *DataIntegrityError {
	switch {
	case l.LoanID == "":
		return integrityErrorf(l.LoanID, "missing loan_id")
	case l.CustomerID == "":
		return integrityErrorf(l.LoanID, "missing customer_id")
	case l.TenorDays <= 0:
		return integrityErrorf(l.LoanID, "tenor must be positive, got %d days", l.TenorDays)
	case l.DisbursedAmount.IsNegative():
		return integrityErrorf(l.LoanID, "negative disbursed amount %s", l.DisbursedAmount)
	case l.OutstandingBalance.IsNegative():
		return integrityErrorf(l.LoanID, "negative outstanding balance %s", l.OutstandingBalance)
	case l.OutstandingBalance.GreaterThan(l.DisbursedAmount):
		return integrityErrorf(l.LoanID, "outstanding balance %s exceeds disbursed amount %s", l.OutstandingBalance, l.DisbursedAmount)
	case l.APR.LessThan(aprMin) || l.APR.GreaterThan(aprMax):
		return integrityErrorf(l.LoanID, "apr %s outside valid range [%s, %s]", l.APR, aprMin, aprMax)
	case l.OriginationDate.IsZero():
		return integrityErrorf(l.LoanID, "missing origination date")
	case !l.ClosedDate.IsZero() && l.ClosedDate.Before(l.OriginationDate):
		return integrityErrorf(l.LoanID, "closed date %s before origination %s", l.ClosedDate, l.OriginationDate)
	}
	return nil
}

// PaymentScheduleEntry is one expected installment of a loan. Schedules are
// generated at origination and immutable afterwards.
type PaymentScheduleEntry struct {
	LoanID    string
	DueDate   Date
	DueAmount Money
}

// CheckIntegrity validates the schedule entry against its loan.
func (e *PaymentScheduleEntry) CheckIntegrity(loan *LoanRecord) *DataIntegrityError {
	switch {
	case e.DueAmount.IsNegative():
		return integrityErrorf(e.LoanID, "negative due amount %s on %s", e.DueAmount, e.DueDate)
	case e.DueDate.IsZero():
		return integrityErrorf(e.LoanID, "missing due date")
	case loan != nil && e.DueDate.Before(loan.OriginationDate):
		return integrityErrorf(e.LoanID, "due date %s before origination %s", e.DueDate, loan.OriginationDate)
	case loan != nil && e.DueAmount.Currency() != "" && e.DueAmount.Currency() != loan.Currency:
		return integrityErrorf(e.LoanID, "due amount in %q, loan is in %q", e.DueAmount.Currency(), loan.Currency)
	}
	return nil
}

// PaymentEvent is one actual payment received for a loan. The payment
// history is append-only; a loan may have zero or many events.
type PaymentEvent struct {
	LoanID      string
	PaymentDate Date
	Amount      Money
}

// CheckIntegrity validates the payment event against its loan.
func (p *PaymentEvent) CheckIntegrity(loan *LoanRecord) *DataIntegrityError {
	switch {
	case p.Amount.IsNegative():
		return integrityErrorf(p.LoanID, "negative payment amount %s on %s", p.Amount, p.PaymentDate)
	case p.PaymentDate.IsZero():
		return integrityErrorf(p.LoanID, "missing payment date")
	case loan != nil && p.PaymentDate.Before(loan.OriginationDate):
		return integrityErrorf(p.LoanID, "payment date %s before origination %s", p.PaymentDate, loan.OriginationDate)
	case loan != nil && p.Amount.Currency() != "" && p.Amount.Currency() != loan.Currency:
		return integrityErrorf(p.LoanID, "payment in %q, loan is in %q", p.Amount.Currency(), loan.Currency)
	}
	return nil
}
