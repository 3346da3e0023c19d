package hashtrie

import (
	"github.com/hoytak/hashreduce/go/hashkey"
	"github.com/hoytak/hashreduce/go/marker"
	"github.com/hoytak/hashreduce/go/refcount"
)

// deltaEntry records a change of delta (mod p) to a summary hash taking
// effect at marker m.
type deltaEntry struct {
	m     marker.Marker
	delta hashkey.Hash
}

// deltaList is a marker-summary list: entries sorted by strictly increasing
// marker. Accumulating deltas over all entries with marker <= m yields the
// summary hash at m. Entries whose delta sums to zero may be present; they
// are removed by normalized.
type deltaList []deltaEntry

// keyDeltas lowers a key to its marker-summary contribution: +digest at each
// range start and -digest at each range end. An unmarked key lowers exactly
// like one valid on [MinusInfinity, PlusInfinity), so the two are
// indistinguishable downstream.
func keyDeltas(k *hashkey.HashKey) deltaList {
	h := k.Hash()
	neg := h.Neg()
	it := marker.NewIterator(k.MarkerInfo())
	var out deltaList
	for {
		r, ok := it.Next()
		if !ok {
			return out
		}
		// Range boundaries within one interval set strictly increase, so
		// appending keeps the list sorted.
		out = append(out, deltaEntry{m: r.Start, delta: h}, deltaEntry{m: r.End, delta: neg})
	}
}

// mergeDeltas returns the pointwise modular sum of two sorted lists,
// coalescing entries at equal markers. Duplicate deltas at a marker are
// summed in Z/pZ, never cancelled structurally, so superposed identical
// contributions stack correctly.
func mergeDeltas(a, b deltaList) deltaList {
	if len(a) == 0 {
		return append(deltaList(nil), b...)
	}
	if len(b) == 0 {
		return append(deltaList(nil), a...)
	}
	out := make(deltaList, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].m < b[j].m:
			out = append(out, a[i])
			i++
		case a[i].m > b[j].m:
			out = append(out, b[j])
			j++
		default:
			out = append(out, deltaEntry{m: a[i].m, delta: a[i].delta.Add(b[j].delta)})
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// evalAt accumulates all deltas taking effect at or before m. Half-open
// ranges fall out naturally: the closing delta at a range's end marker is
// included once m reaches it.
func (l deltaList) evalAt(m marker.Marker) hashkey.Hash {
	var acc hashkey.Hash
	for _, e := range l {
		if e.m > m {
			break
		}
		acc = acc.Add(e.delta)
	}
	return acc
}

// normalized returns the list with zero deltas removed.
func (l deltaList) normalized() deltaList {
	out := make(deltaList, 0, len(l))
	for _, e := range l {
		if !e.delta.IsZero() {
			out = append(out, e)
		}
	}
	return out
}

// Summary is a standalone marker-indexed digest: the same piecewise-constant
// structure a table maintains at its root, detached from any table. It is
// what the bulk summarization of a table list produces, and the graph layer
// builds its per-marker digests out of it.
type Summary struct {
	refcount.Counted
	deltas deltaList
}

// NewSummary returns an empty summary (zero at every marker).
func NewSummary() *Summary {
	s := &Summary{}
	s.Init(nil)
	return s
}

// Add applies a delta taking effect at m.
func (s *Summary) Add(m marker.Marker, delta hashkey.Hash) {
	s.deltas = mergeDeltas(s.deltas, deltaList{{m: m, delta: delta}})
}

// EvalAt returns the summary digest at m.
func (s *Summary) EvalAt(m marker.Marker) hashkey.Hash {
	return s.deltas.evalAt(m)
}

// HashAtMarkerPoint returns a fresh key holding the summary digest at m.
func (s *Summary) HashAtMarkerPoint(m marker.Marker) *hashkey.HashKey {
	return hashkey.FromHash(s.EvalAt(m))
}

// Normalize drops zero entries, canonicalizing the representation.
func (s *Summary) Normalize() {
	s.deltas = s.deltas.normalized()
}

// Segment is a maximal run of markers over which a summary holds one
// non-zero value.
type Segment struct {
	Start marker.Marker
	End   marker.Marker
	Value hashkey.Hash
}

// Segments returns the summary as its non-zero piecewise-constant segments
// in increasing order.
func (s *Summary) Segments() []Segment {
	var out []Segment
	var acc hashkey.Hash
	for i, e := range s.deltas {
		acc = acc.Add(e.delta)
		if acc.IsZero() {
			continue
		}
		end := marker.PlusInfinity
		if i+1 < len(s.deltas) {
			end = s.deltas[i+1].m
		}
		if e.m < end {
			out = append(out, Segment{Start: e.m, End: end, Value: acc})
		}
	}
	return out
}

// SummariesEqual reports whether two summaries agree at every marker.
func SummariesEqual(a, b *Summary) bool {
	na := a.deltas.normalized()
	nb := b.deltas.normalized()
	if len(na) != len(nb) {
		return false
	}
	for i, e := range na {
		if nb[i] != e {
			return false
		}
	}
	return true
}

// SummarizeUpdate merges ht's root summary into acc, starting a fresh
// accumulator when acc is nil, and returns the accumulator.
func SummarizeUpdate(acc *Summary, ht *HashTable) *Summary {
	if acc == nil {
		acc = NewSummary()
	}
	acc.deltas = mergeDeltas(acc.deltas, ht.root.summary())
	return acc
}

// SummarizeFinish normalizes and returns the accumulator, which then holds
// the combined marker-indexed digest of every table folded in. A nil
// accumulator finishes to an empty summary.
func SummarizeFinish(acc *Summary) *Summary {
	if acc == nil {
		return NewSummary()
	}
	acc.Normalize()
	return acc
}
