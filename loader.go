package lendscope

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// A book folder holds one snapshot of the lending book and its policies:
//
//	loans.jsonl     the loan master records
//	schedule.jsonl  the expected installments
//	payments.jsonl  the payment history
//	policy.json     the delinquency policy
//	pricing.jsonl   the pricing grid
//
// Record files are required; policy files fall back to the documented
// defaults with a warning, so a fresh book is usable out of the box.
const (
	LoansFile    = "loans.jsonl"
	ScheduleFile = "schedule.jsonl"
	PaymentsFile = "payments.jsonl"
	PolicyFile   = "policy.json"
	PricingFile  = "pricing.jsonl"
)

// LoadSnapshot reads the three record sets from a book folder.
func LoadSnapshot(folder string) (*Snapshot, error) {
	snapshot := &Snapshot{}

	if err := withFile(filepath.Join(folder, LoansFile), func(f *os.File) error {
		var err error
		snapshot.Loans, err = DecodeLoans(f)
		return err
	}); err != nil {
		return nil, err
	}

	// schedule and payments may legitimately be empty for a young book
	err := withFile(filepath.Join(folder, ScheduleFile), func(f *os.File) error {
		var err error
		snapshot.Schedule, err = DecodeSchedule(f)
		return err
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	err = withFile(filepath.Join(folder, PaymentsFile), func(f *os.File) error {
		var err error
		snapshot.Payments, err = DecodePayments(f)
		return err
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return snapshot, nil
}

// LoadPolicies reads the policy and pricing files from a book folder,
// falling back to defaults when a file is missing.
func LoadPolicies(folder, currency string) (Policies, error) {
	policies := DefaultPolicies(nil, currency)

	err := withFile(filepath.Join(folder, PolicyFile), func(f *os.File) error {
		var err error
		policies.Dpd, err = DecodeDpdPolicy(f)
		return err
	})
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning, no %s in %q, using the default delinquency policy", PolicyFile, folder)
	} else if err != nil {
		return Policies{}, err
	}

	err = withFile(filepath.Join(folder, PricingFile), func(f *os.File) error {
		var err error
		policies.Grid, err = DecodePricingGrid(f)
		return err
	})
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning, no %s in %q, using an empty pricing grid", PricingFile, folder)
		policies.Grid, _ = NewPricingGrid(nil)
	} else if err != nil {
		return Policies{}, err
	}

	return policies, nil
}

// withFile opens the file and hands it to fn, wrapping errors with the path.
func withFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open %q: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("in %q: %w", path, err)
	}
	return nil
}
