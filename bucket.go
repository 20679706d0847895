package lendscope

import "fmt"

// Bucket is one named delinquency-aging category. Bounds are half-open
// [Lower, Upper): a days-past-due value exactly equal to Upper belongs to
// the next bucket. Upper == 0 marks the open-ended last bucket.
type Bucket struct {
	Label       string
	Description string
	Lower       int // inclusive
	Upper       int // exclusive, 0 for unbounded
	Value       int // ordinal within the policy
	IsDefault   bool
}

// Unbounded reports whether the bucket is the open-ended last one.
func (b Bucket) Unbounded() bool { return b.Upper == 0 }

// Contains reports whether dpd falls in the bucket interval.
func (b Bucket) Contains(dpd int) bool {
	return dpd >= b.Lower && (b.Unbounded() || dpd < b.Upper)
}

// BucketPolicy is an ordered, gap-free, overlap-free table of aging buckets
// starting at zero. It is validated once at construction; classification
// itself can no longer fail.
type BucketPolicy struct {
	buckets []Bucket
}

// NewBucketPolicy builds a policy from an ordered bucket list. Ordinals are
// assigned by position. It returns a ConfigurationError if the list is
// empty, not sorted, has gaps or overlaps, does not start at zero, or does
// not end open-ended.
func NewBucketPolicy(buckets []Bucket) (*BucketPolicy, error) {
	if len(buckets) == 0 {
		return nil, configErrorf("bucket policy has no buckets")
	}
	if buckets[0].Lower != 0 {
		return nil, configErrorf("first bucket %q must start at 0, got %d", buckets[0].Label, buckets[0].Lower)
	}
	out := make([]Bucket, len(buckets))
	for i, b := range buckets {
		if b.Label == "" {
			return nil, configErrorf("bucket %d has no label", i)
		}
		last := i == len(buckets)-1
		if last != b.Unbounded() {
			if last {
				return nil, configErrorf("last bucket %q must be open-ended", b.Label)
			}
			return nil, configErrorf("bucket %q is open-ended but not last", b.Label)
		}
		if !b.Unbounded() && b.Upper <= b.Lower {
			return nil, configErrorf("bucket %q has empty interval [%d, %d)", b.Label, b.Lower, b.Upper)
		}
		if i > 0 {
			prev := buckets[i-1]
			if b.Lower != prev.Upper {
				// both gaps and overlaps break the partition
				return nil, configErrorf("bucket %q starts at %d, want %d to follow %q", b.Label, b.Lower, prev.Upper, prev.Label)
			}
		}
		b.Value = i
		if b.Description == "" {
			if b.Unbounded() {
				b.Description = fmt.Sprintf("%d+ days past due", b.Lower)
			} else if b.Lower == 0 {
				b.Description = "current"
			} else {
				b.Description = fmt.Sprintf("%d-%d days past due", b.Lower, b.Upper-1)
			}
		}
		out[i] = b
	}
	return &BucketPolicy{buckets: out}, nil
}

// Classify maps a non-negative days-past-due value to its bucket.
func (p *BucketPolicy) Classify(dpd int) Bucket {
	if dpd < 0 {
		panic(fmt.Sprintf("negative days past due %d", dpd))
	}
	for _, b := range p.buckets {
		if b.Contains(dpd) {
			return b
		}
	}
	// unreachable: the policy partitions [0, +inf)
	panic(fmt.Sprintf("no bucket for %d days past due", dpd))
}

// Buckets returns the ordered bucket table.
func (p *BucketPolicy) Buckets() []Bucket { return p.buckets }

// Current returns the zero-DPD bucket.
func (p *BucketPolicy) Current() Bucket { return p.buckets[0] }

// DefaultBucketPolicy returns the documented default aging table:
// Current, 1-30, 31-60, 61-90, 91-120, 121-180, 180+.
func DefaultBucketPolicy() *BucketPolicy {
	p, err := NewBucketPolicy([]Bucket{
		{Label: "Current", Lower: 0, Upper: 1},
		{Label: "1-30 Days", Lower: 1, Upper: 31},
		{Label: "31-60 Days", Lower: 31, Upper: 61},
		{Label: "61-90 Days", Lower: 61, Upper: 91},
		{Label: "91-120 Days", Lower: 91, Upper: 121},
		{Label: "121-180 Days", Lower: 121, Upper: 180},
		{Label: "180+ Days", Lower: 180, IsDefault: true},
	})
	if err != nil {
		panic(err)
	}
	return p
}
