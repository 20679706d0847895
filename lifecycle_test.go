package lendscope

import "testing"

// month returns the calendar-month window containing the given day.
func month(day string) Range {
	return Monthly.Range(MustParse(day))
}

func loanFor(customer, origination string, tenorDays int, balance float64) *LoanRecord {
	return &LoanRecord{
		LoanID:             "L-" + customer + "-" + origination,
		CustomerID:         customer,
		Currency:           "EUR",
		ProductType:        "working_capital",
		DisbursedAmount:    M(balance*2, "EUR"),
		OutstandingBalance: M(balance, "EUR"),
		APR:                Q(0.1),
		TenorDays:          tenorDays,
		OriginationDate:    MustParse(origination),
	}
}

func TestClassifyClient_New(t *testing.T) {
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-09-01"), MustParse("2026-03-31"))

	history := []*LoanRecord{loanFor("C-1", "2026-03-10", 90, 5000)}
	state, ok := ClassifyClient("C-1", history, reporting, lookback)
	if !ok {
		t.Fatal("active client not classified")
	}
	if state.Status != ClientNew {
		t.Errorf("Status = %s, want new", state.Status)
	}
	if state.ActiveWindow != "2026-03" {
		t.Errorf("ActiveWindow = %q, want 2026-03", state.ActiveWindow)
	}
}

func TestClassifyClient_Recurring(t *testing.T) {
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-09-01"), MustParse("2026-03-31"))

	// the old loan runs into February, the new one covers March: active in
	// the preceding window, so no gap, so recurring
	history := []*LoanRecord{
		loanFor("C-1", "2025-11-01", 120, 0), // repaid, matured 2026-03-01
		loanFor("C-1", "2026-03-05", 90, 5000),
	}
	state, ok := ClassifyClient("C-1", history, reporting, lookback)
	if !ok {
		t.Fatal("active client not classified")
	}
	if state.Status != ClientRecurring {
		t.Errorf("Status = %s, want recurring", state.Status)
	}
}

func TestClassifyClient_Recovered(t *testing.T) {
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-06-01"), MustParse("2026-03-31"))

	// active until December, silent in January and February, back in March
	history := []*LoanRecord{
		loanFor("C-1", "2025-10-01", 90, 0), // matured 2025-12-30
		loanFor("C-1", "2026-03-05", 90, 5000),
	}
	state, ok := ClassifyClient("C-1", history, reporting, lookback)
	if !ok {
		t.Fatal("active client not classified")
	}
	if state.Status != ClientRecovered {
		t.Errorf("Status = %s, want recovered", state.Status)
	}
	if state.LapsedWindow != "2026-02" {
		t.Errorf("LapsedWindow = %q, want 2026-02", state.LapsedWindow)
	}
}

func TestClassifyClient_RecoveredBeatsRecurring(t *testing.T) {
	// a client both returning after a gap and carrying prior history is
	// reported recovered, the comeback matters more
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-01-01"), MustParse("2026-03-31"))

	history := []*LoanRecord{
		loanFor("C-1", "2025-02-01", 60, 0),
		loanFor("C-1", "2025-08-01", 60, 0),
		loanFor("C-1", "2026-03-05", 90, 5000),
	}
	state, _ := ClassifyClient("C-1", history, reporting, lookback)
	if state.Status != ClientRecovered {
		t.Errorf("Status = %s, want recovered", state.Status)
	}
}

func TestClassifyClient_Churned(t *testing.T) {
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-09-01"), MustParse("2026-03-31"))

	history := []*LoanRecord{loanFor("C-1", "2025-10-01", 60, 0)} // matured 2025-11-30
	state, ok := ClassifyClient("C-1", history, reporting, lookback)
	if !ok {
		t.Fatal("churned client not classified")
	}
	if state.Status != ClientChurned {
		t.Errorf("Status = %s, want churned", state.Status)
	}
	if state.ActiveWindow != "2025-11" {
		t.Errorf("ActiveWindow = %q, want 2025-11", state.ActiveWindow)
	}
	if state.LapsedWindow != "2026-03" {
		t.Errorf("LapsedWindow = %q, want 2026-03", state.LapsedWindow)
	}
}

func TestClassifyClient_AbsentIsNotChurned(t *testing.T) {
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-09-01"), MustParse("2026-03-31"))

	// all activity predates the lookback
	history := []*LoanRecord{loanFor("C-1", "2024-01-01", 60, 0)}
	if _, ok := ClassifyClient("C-1", history, reporting, lookback); ok {
		t.Error("client with no activity in scope should be absent, not classified")
	}
}

func TestWindowsBefore_CalendarAligned(t *testing.T) {
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-12-01"), MustParse("2026-03-31"))

	windows := windowsBefore(reporting, lookback)
	want := []string{"2026-02", "2026-01", "2025-12"}
	if len(windows) != len(want) {
		t.Fatalf("got %d windows, want %d", len(windows), len(want))
	}
	for i, w := range windows {
		if w.Identifier() != want[i] {
			t.Errorf("window %d = %q, want %q", i, w.Identifier(), want[i])
		}
	}
}

func TestWindowsBefore_ArbitraryLength(t *testing.T) {
	// a 10-day reporting window slices the past into 10-day windows
	reporting := NewRange(MustParse("2026-03-21"), MustParse("2026-03-30"))
	lookback := NewRange(MustParse("2026-02-25"), MustParse("2026-03-30"))

	windows := windowsBefore(reporting, lookback)
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	first := windows[0]
	if first.From != MustParse("2026-03-11") || first.To != MustParse("2026-03-20") {
		t.Errorf("first window = %s..%s, want 2026-03-11..2026-03-20", first.From, first.To)
	}
}

func TestClassifyClients(t *testing.T) {
	reporting := month("2026-03-15")
	lookback := NewRange(MustParse("2025-09-01"), MustParse("2026-03-31"))

	loans := []*LoanRecord{
		loanFor("C-new", "2026-03-10", 90, 5000),
		loanFor("C-old", "2025-10-01", 60, 0),      // churned
		loanFor("C-gone", "2024-01-01", 30, 0),     // absent
		loanFor("C-back", "2025-10-01", 60, 0),     // ...
		loanFor("C-back", "2026-03-05", 90, 10000), // recovered
	}
	summary := ClassifyClients(loans, reporting, lookback)

	if summary.New != 1 || summary.Recovered != 1 || summary.Churned != 1 || summary.Recurring != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.States) != 3 {
		t.Fatalf("States has %d entries, want 3", len(summary.States))
	}
	// sorted by customer id
	if summary.States[0].CustomerID != "C-back" {
		t.Errorf("first state is %q, want C-back", summary.States[0].CustomerID)
	}
}
