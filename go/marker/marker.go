// Package marker provides the linear coordinate axis that hash keys and hash
// tables are indexed by, and compact ordered-disjoint interval sets over it.
// The axis is the signed 64-bit integers extended with sentinel infinities;
// all intervals are half-open.
package marker

import "math"

// Marker is a coordinate on the axis. The two extreme values of the type are
// reserved as sentinels and compare below / above every finite coordinate.
type Marker int64

const (
	// MinusInfinity is strictly less than every finite Marker. It is only
	// ever valid as the start of a range.
	MinusInfinity Marker = math.MinInt64

	// PlusInfinity is strictly greater than every finite Marker. It is only
	// ever valid as the end of a range.
	PlusInfinity Marker = math.MaxInt64
)

// Range is a half-open interval [Start, End). A Range with Start >= End is
// empty.
type Range struct {
	Start Marker
	End   Marker
}

// NewRange returns the half-open interval [start, end).
func NewRange(start, end Marker) Range {
	return Range{Start: start, End: end}
}

// Empty reports whether the range contains no markers.
func (r Range) Empty() bool {
	return r.Start >= r.End
}

// Contains reports whether m lies in [Start, End).
func (r Range) Contains(m Marker) bool {
	return r.Start <= m && m < r.End
}
