package lendscope

// ClientStatus is the relationship state of a customer for one reporting
// window. It is recomputed from the full activity history every run, never
// transitioned incrementally, so re-runs are idempotent.
type ClientStatus int

const (
	// ClientNew first borrowed inside the current reporting window.
	ClientNew ClientStatus = iota
	// ClientRecurring is active in the current window with prior history.
	ClientRecurring
	// ClientRecovered came back after at least one inactive window.
	ClientRecovered
	// ClientChurned was active within the lookback but not in the current
	// window.
	ClientChurned
)

func (s ClientStatus) String() string {
	switch s {
	case ClientNew:
		return "new"
	case ClientRecurring:
		return "recurring"
	case ClientRecovered:
		return "recovered"
	case ClientChurned:
		return "churned"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status as its lowercase name.
func (s ClientStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ClientState is the lifecycle classification of one customer for one run.
type ClientState struct {
	CustomerID string       `json:"customer_id"`
	Status     ClientStatus `json:"status"`
	// ActiveWindow identifies the last window in which the client had an
	// active loan.
	ActiveWindow string `json:"active_window,omitempty"`
	// LapsedWindow identifies the window in which activity lapsed: the gap
	// window for recovered clients, the current window for churned ones.
	LapsedWindow string `json:"lapsed_window,omitempty"`
}

// windowsBefore slices the span before 'reporting' into consecutive windows
// of the same length, newest first, stopping once a window ends before the
// lookback start.
func windowsBefore(reporting, lookback Range) []Range {
	var windows []Range
	if p, ok := reporting.Period(); ok {
		// align on calendar periods when the reporting window is one
		for w := p.Range(reporting.From.Add(-1)); !w.To.Before(lookback.From); w = p.Range(w.From.Add(-1)) {
			windows = append(windows, w)
		}
		return windows
	}
	length := reporting.To.Sub(reporting.From) + 1
	for to := reporting.From.Add(-1); !to.Before(lookback.From); to = to.Add(-length) {
		windows = append(windows, NewRange(to.Add(-length+1), to))
	}
	return windows
}

// ClassifyClient classifies one customer from its full loan history.
//
// The second return value is false when the client has no activity at all in
// the lookback or the reporting window: such a client is simply absent from
// the lifecycle section, not churned.
//
// When a client satisfies several conditions at once, recovered takes
// precedence over recurring: the comeback is the more actionable signal for
// relationship management.
func ClassifyClient(customerID string, history []*LoanRecord, reporting, lookback Range) (ClientState, bool) {
	activeIn := func(w Range) bool {
		for _, l := range history {
			if l.ActiveDuring(w) {
				return true
			}
		}
		return false
	}

	state := ClientState{CustomerID: customerID}
	previous := windowsBefore(reporting, lookback)

	if activeIn(reporting) {
		state.ActiveWindow = reporting.Identifier()

		// new: no loan originated before the current window
		isNew := true
		for _, l := range history {
			if l.OriginationDate.Before(reporting.From) {
				isNew = false
				break
			}
		}
		if isNew {
			state.Status = ClientNew
			return state, true
		}

		// recovered: inactive in the window immediately preceding this one
		if len(previous) > 0 && !activeIn(previous[0]) {
			state.Status = ClientRecovered
			state.LapsedWindow = previous[0].Identifier()
			return state, true
		}

		state.Status = ClientRecurring
		return state, true
	}

	// churned: active at some point within the lookback, silent now
	for _, w := range previous {
		if activeIn(w) {
			state.Status = ClientChurned
			state.ActiveWindow = w.Identifier()
			state.LapsedWindow = reporting.Identifier()
			return state, true
		}
	}

	// no activity anywhere in scope: absent, not churned
	return ClientState{}, false
}

// LifecycleSummary counts clients per lifecycle status for one run.
type LifecycleSummary struct {
	New       int `json:"new"`
	Recurring int `json:"recurring"`
	Recovered int `json:"recovered"`
	Churned   int `json:"churned"`

	// States lists the individual classifications, sorted by customer id.
	States []ClientState `json:"-"`
}

// ClassifyClients classifies every customer appearing in the loan set.
func ClassifyClients(loans []*LoanRecord, reporting, lookback Range) LifecycleSummary {
	byCustomer := make(map[string][]*LoanRecord)
	for _, l := range loans {
		byCustomer[l.CustomerID] = append(byCustomer[l.CustomerID], l)
	}

	var summary LifecycleSummary
	for _, id := range sortedKeys(byCustomer) {
		state, ok := ClassifyClient(id, byCustomer[id], reporting, lookback)
		if !ok {
			continue
		}
		summary.States = append(summary.States, state)
		switch state.Status {
		case ClientNew:
			summary.New++
		case ClientRecurring:
			summary.Recurring++
		case ClientRecovered:
			summary.Recovered++
		case ClientChurned:
			summary.Churned++
		}
	}
	return summary
}
