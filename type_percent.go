package lendscope

import "fmt"

// Percent is a display-oriented percentage value (25.0 means 25%).
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

// SignedString returns the percentage with an explicit sign, "-" when zero.
func (p Percent) SignedString() string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", p)
}
