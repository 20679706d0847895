package lendscope

import "fmt"

// PricingBand is one row of the pricing grid: the rate applicable to loans
// of a product whose tenor and amount fall inside the band. Both dimensions
// are half-open [min, max): a loan whose tenor equals a band's upper bound
// belongs to the next band. A zero max leaves the dimension unbounded.
type PricingBand struct {
	ProductType string
	Segment     string

	TenorMin int // days, inclusive
	TenorMax int // days, exclusive, 0 for unbounded

	AmountMin Money // inclusive
	AmountMax Money // exclusive, zero Money for unbounded

	BaseRate  Quantity
	Margin    Quantity
	TotalRate Quantity
}

// ID identifies the band in errors and reports.
func (b PricingBand) ID() string {
	seg := b.Segment
	if seg == "" {
		seg = "-"
	}
	return fmt.Sprintf("%s/%s/t%d/a%s", b.ProductType, seg, b.TenorMin, b.AmountMin)
}

// Contains reports whether the (tenor, amount) pair falls inside the band.
func (b PricingBand) Contains(tenorDays int, amount Money) bool {
	if tenorDays < b.TenorMin || (b.TenorMax != 0 && tenorDays >= b.TenorMax) {
		return false
	}
	if amount.LessThan(b.AmountMin) {
		return false
	}
	if !b.AmountMax.IsZero() && amount.GreaterThanOrEqual(b.AmountMax) {
		return false
	}
	return true
}

// tenorOverlaps reports whether the tenor intervals of b and o intersect.
func (b PricingBand) tenorOverlaps(o PricingBand) bool {
	if b.TenorMax != 0 && b.TenorMax <= o.TenorMin {
		return false
	}
	if o.TenorMax != 0 && o.TenorMax <= b.TenorMin {
		return false
	}
	return true
}

// amountOverlaps reports whether the amount intervals of b and o intersect.
func (b PricingBand) amountOverlaps(o PricingBand) bool {
	if !b.AmountMax.IsZero() && b.AmountMax.LessThanOrEqual(o.AmountMin) {
		return false
	}
	if !o.AmountMax.IsZero() && o.AmountMax.LessThanOrEqual(b.AmountMin) {
		return false
	}
	return true
}

// PricingGrid is the configured set of pricing bands, validated once at
// construction.
type PricingGrid struct {
	bands []PricingBand
}

// NewPricingGrid builds a grid from a band list. Within one product/segment
// partition, band rectangles must not intersect; a violation is a
// ConfigurationError, not a runtime one. A band's TotalRate is derived from
// BaseRate + Margin when absent.
func NewPricingGrid(bands []PricingBand) (*PricingGrid, error) {
	out := make([]PricingBand, len(bands))
	for i, b := range bands {
		if b.ProductType == "" {
			return nil, configErrorf("pricing band %d has no product type", i)
		}
		if b.TenorMin < 0 || (b.TenorMax != 0 && b.TenorMax <= b.TenorMin) {
			return nil, configErrorf("band %s has empty tenor interval [%d, %d)", b.ID(), b.TenorMin, b.TenorMax)
		}
		if b.AmountMin.IsNegative() || (!b.AmountMax.IsZero() && b.AmountMax.LessThanOrEqual(b.AmountMin)) {
			return nil, configErrorf("band %s has empty amount interval [%s, %s)", b.ID(), b.AmountMin, b.AmountMax)
		}
		if b.TotalRate.IsZero() {
			b.TotalRate = b.BaseRate.Add(b.Margin)
		}
		out[i] = b
	}
	// pairwise intersection check within each product/segment partition
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			a, b := out[i], out[j]
			if a.ProductType != b.ProductType || a.Segment != b.Segment {
				continue
			}
			if a.tenorOverlaps(b) && a.amountOverlaps(b) {
				return nil, configErrorf("bands %s and %s overlap", a.ID(), b.ID())
			}
		}
	}
	return &PricingGrid{bands: out}, nil
}

// Bands returns the configured band list.
func (g *PricingGrid) Bands() []PricingBand { return g.bands }

// Match finds the unique band of the product containing the (tenor, amount)
// pair. It returns a NoMatchError when the pair sits outside the grid, and
// an AmbiguousBandError when more than one band claims it.
func (g *PricingGrid) Match(productType string, tenorDays int, amount Money) (PricingBand, error) {
	var found []PricingBand
	for _, b := range g.bands {
		if b.ProductType != productType {
			continue
		}
		if b.Contains(tenorDays, amount) {
			found = append(found, b)
		}
	}
	switch len(found) {
	case 0:
		return PricingBand{}, &NoMatchError{ProductType: productType, TenorDays: tenorDays, Amount: amount}
	case 1:
		return found[0], nil
	default:
		ids := make([]string, len(found))
		for i, b := range found {
			ids[i] = b.ID()
		}
		return PricingBand{}, &AmbiguousBandError{ProductType: productType, TenorDays: tenorDays, Amount: amount, Bands: ids}
	}
}
