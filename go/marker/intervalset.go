package marker

import (
	"sort"

	"github.com/hoytak/hashreduce/go/refcount"
)

// IntervalSet is an ordered sequence of disjoint, non-adjacent half-open
// ranges. Invariants: starts strictly increase, and each range's end is
// strictly less than the next range's start (touching ranges are coalesced
// on insertion). A nil *IntervalSet is treated as the universal set
// [MinusInfinity, PlusInfinity) by every consumer in this module.
type IntervalSet struct {
	refcount.Counted
	ranges []Range
}

// NewIntervalSet returns a set holding [start, end), or an empty set when
// start >= end.
func NewIntervalSet(start, end Marker) *IntervalSet {
	s := &IntervalSet{}
	s.Init(nil)
	s.AddRange(start, end)
	return s
}

// Universe returns a set explicitly covering [MinusInfinity, PlusInfinity).
// It agrees with a nil set at every finite marker; at PlusInfinity itself
// IsValid reports true only for a nil set.
func Universe() *IntervalSet {
	return NewIntervalSet(MinusInfinity, PlusInfinity)
}

// AddRange merges [start, end) into the set, coalescing with any ranges it
// overlaps or touches. Empty input ranges are dropped.
func (s *IntervalSet) AddRange(start, end Marker) {
	if start >= end {
		return
	}
	// First range that could merge: its end reaches start. Last range that
	// could merge: its start is at most end. Touching counts, so the
	// comparisons are inclusive.
	lo := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End >= start })
	hi := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Start > end })
	if lo < hi {
		if s.ranges[lo].Start < start {
			start = s.ranges[lo].Start
		}
		if s.ranges[hi-1].End > end {
			end = s.ranges[hi-1].End
		}
	}
	merged := make([]Range, 0, len(s.ranges)-(hi-lo)+1)
	merged = append(merged, s.ranges[:lo]...)
	merged = append(merged, Range{Start: start, End: end})
	merged = append(merged, s.ranges[hi:]...)
	s.ranges = merged
}

// IsValid reports whether m is contained in the set. A nil set contains
// every marker.
func (s *IntervalSet) IsValid(m Marker) bool {
	if s == nil {
		return true
	}
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End > m })
	return i < len(s.ranges) && s.ranges[i].Start <= m
}

// ValidAnywhere reports whether the set is non-empty. A nil set is the
// universe and is valid everywhere.
func (s *IntervalSet) ValidAnywhere() bool {
	return s == nil || len(s.ranges) > 0
}

// IsUniverse reports whether the set covers the whole axis.
func (s *IntervalSet) IsUniverse() bool {
	if s == nil {
		return true
	}
	return len(s.ranges) == 1 &&
		s.ranges[0].Start == MinusInfinity &&
		s.ranges[0].End == PlusInfinity
}

// NumRanges returns the number of disjoint ranges in canonical form. A nil
// set reports one (the universe).
func (s *IntervalSet) NumRanges() int {
	if s == nil {
		return 1
	}
	return len(s.ranges)
}

// Equal reports structural equality on canonical form. A nil set equals any
// set covering the whole axis.
func Equal(a, b *IntervalSet) bool {
	if a.IsUniverse() || b.IsUniverse() {
		return a.IsUniverse() && b.IsUniverse()
	}
	if len(a.ranges) != len(b.ranges) {
		return false
	}
	for i, r := range a.ranges {
		if b.ranges[i] != r {
			return false
		}
	}
	return true
}

// Copy returns a fresh set with the same contents. Copying a nil set yields
// an explicit universe.
func (s *IntervalSet) Copy() *IntervalSet {
	out := &IntervalSet{}
	out.Init(nil)
	if s == nil {
		out.ranges = []Range{{Start: MinusInfinity, End: PlusInfinity}}
		return out
	}
	out.ranges = append([]Range(nil), s.ranges...)
	return out
}
