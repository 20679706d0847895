package lendscope

import "fmt"

// ConfigurationError reports a malformed or inconsistent policy: unsorted or
// overlapping delinquency buckets, gaps between them, or overlapping pricing
// bands. It is always fatal for the run. A broken policy affects every loan,
// so it is never silently repaired.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// DataIntegrityError reports a single malformed record, naming the loan it
// belongs to. The record is excluded and counted; the run continues.
type DataIntegrityError struct {
	LoanID string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error on loan %q: %s", e.LoanID, e.Reason)
}

func integrityErrorf(loanID, format string, args ...any) *DataIntegrityError {
	return &DataIntegrityError{LoanID: loanID, Reason: fmt.Sprintf(format, args...)}
}

// NoMatchError reports a loan whose (tenor, amount) pair falls outside the
// configured pricing grid. The loan is reported unpriced and flagged, it is
// not silently defaulted to any band.
type NoMatchError struct {
	ProductType string
	TenorDays   int
	Amount      Money
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no pricing band for product %q tenor %d days amount %s", e.ProductType, e.TenorDays, e.Amount)
}

// AmbiguousBandError reports a (tenor, amount) pair matched by more than one
// band. Overlapping bands are a grid misconfiguration; picking "first match"
// would misprice loans, so the ambiguity is surfaced instead.
type AmbiguousBandError struct {
	ProductType string
	TenorDays   int
	Amount      Money
	Bands       []string // ids of the overlapping bands
}

func (e *AmbiguousBandError) Error() string {
	return fmt.Sprintf("ambiguous pricing bands %v for product %q tenor %d days amount %s", e.Bands, e.ProductType, e.TenorDays, e.Amount)
}
