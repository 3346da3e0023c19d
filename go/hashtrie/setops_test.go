package hashtrie

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoytak/hashreduce/go/hashkey"
	"github.com/hoytak/hashreduce/go/marker"
)

// validitySet flattens a table into its (digest, marker) validity pairs over
// a sample of the axis.
func validitySet(ht *HashTable, sample []marker.Marker) map[[2]interface{}]bool {
	out := map[[2]interface{}]bool{}
	it := NewIterator(ht)
	for {
		k, ok := it.Next()
		if !ok {
			return out
		}
		for _, m := range sample {
			if k.MarkerPointIsValid(m) {
				out[[2]interface{}{k.String(), m}] = true
			}
		}
	}
}

func markerSample(lo, hi marker.Marker) []marker.Marker {
	var out []marker.Marker
	for m := lo; m < hi; m++ {
		out = append(out, m)
	}
	return out
}

func setUnion(a, b map[[2]interface{}]bool) map[[2]interface{}]bool {
	out := map[[2]interface{}]bool{}
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func setIntersection(a, b map[[2]interface{}]bool) map[[2]interface{}]bool {
	out := map[[2]interface{}]bool{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func setDifference(a, b map[[2]interface{}]bool) map[[2]interface{}]bool {
	out := map[[2]interface{}]bool{}
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}

func checkTableSetOps(t *testing.T, ht1, ht2 *HashTable, sample []marker.Marker) {
	s1 := validitySet(ht1, sample)
	s2 := validitySet(ht2, sample)

	require.Equal(t, setUnion(s1, s2), validitySet(Union(ht1, ht2), sample))
	require.Equal(t, setIntersection(s1, s2), validitySet(Intersection(ht1, ht2), sample))
	require.Equal(t, setDifference(s1, s2), validitySet(Difference(ht1, ht2), sample))
}

// tableOf builds a table holding the given keys, taking over the caller's
// references.
func tableOf(entries ...*hashkey.HashKey) *HashTable {
	ht := NewHashTable()
	for _, k := range entries {
		ht.Give(k)
	}
	return ht
}

func TestTableSetOps_Basic(t *testing.T) {
	sample := markerSample(-2, 12)
	cases := []struct {
		name   string
		h1, h2 []*hashkey.HashKey
	}{
		{"unmarked_distinct", []*hashkey.HashKey{hashkey.FromInt(0)}, []*hashkey.HashKey{hashkey.FromInt(1)}},
		{"marked_distinct", []*hashkey.HashKey{markedKey(0, 2, 4)}, []*hashkey.HashKey{markedKey(1, 3, 5)}},
		{"marked_same_range", []*hashkey.HashKey{markedKey(0, 2, 4)}, []*hashkey.HashKey{markedKey(1, 2, 4)}},
		{"marked_same_key", []*hashkey.HashKey{markedKey(0, 2, 4)}, []*hashkey.HashKey{markedKey(0, 2, 4)}},
		{"marked_vs_unmarked", []*hashkey.HashKey{markedKey(0, 2, 4)}, []*hashkey.HashKey{hashkey.FromInt(1)}},
		{"marked_vs_unmarked_same_key", []*hashkey.HashKey{markedKey(0, 2, 4)}, []*hashkey.HashKey{hashkey.FromInt(0)}},
		{"unmarked_vs_marked_same_key", []*hashkey.HashKey{hashkey.FromInt(0)}, []*hashkey.HashKey{markedKey(0, 2, 4)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			checkTableSetOps(t, tableOf(tc.h1...), tableOf(tc.h2...), sample)
		})
	}
}

func TestTableSetOps_ManyRangesSameKey(t *testing.T) {
	mi1 := marker.NewIntervalSet(2, 5)
	mi2 := marker.NewIntervalSet(4, 7)
	for i := marker.Marker(-10); i < 10; i++ {
		mi1.AddRange(i*10+2, i*10+5)
		mi2.AddRange(i*10+4, i*10+7)
	}
	h1 := hashkey.FromInt(0)
	h1.GiveMarkerInfo(mi1)
	h2 := hashkey.FromInt(0)
	h2.GiveMarkerInfo(mi2)

	checkTableSetOps(t, tableOf(h1), tableOf(h2), markerSample(-110, 110))
}

func TestTableSetOps_RandomConsistency(t *testing.T) {
	randomTable := func(rng *rand.Rand, offset, nKeys, nRanges int, span marker.Marker) *HashTable {
		ht := NewHashTable()
		for k := 0; k < nKeys; k++ {
			var bounds []marker.Marker
			for r := 0; r < nRanges; r++ {
				a := marker.Marker(rng.Int63n(int64(2*span))) - span
				b := marker.Marker(rng.Int63n(int64(2*span))) - span
				if a > b {
					a, b = b, a
				}
				bounds = append(bounds, a, b+1)
			}
			ht.Give(markedKey(int64(offset+k), bounds...))
		}
		return ht
	}

	cases := []struct {
		span           marker.Marker
		nKeys, nRanges int
		nUnique        int
	}{
		{20, 5, 5, 0},
		{20, 5, 5, 5},
		{20, 10, 1, 0},
		{20, 10, 1, 10},
		{20, 10, 1, 5},
		{100, 100, 1, 0},
		{100, 100, 1, 100},
		{100, 100, 1, 5},
		{100, 100, 10, 0},
		{100, 100, 10, 100},
		{100, 100, 10, 50},
	}
	for i, tc := range cases {
		rng := rand.New(rand.NewSource(int64(i)))
		ht1 := randomTable(rng, 0, tc.nKeys, tc.nRanges, tc.span)
		ht2 := randomTable(rng, tc.nUnique, tc.nKeys, tc.nRanges, tc.span)
		checkTableSetOps(t, ht1, ht2, markerSample(-tc.span-2, tc.span+2))
	}
}

func TestTableSetOps_UniverseResultIsUnmarked(t *testing.T) {
	// Complementary halves of the axis union to the whole of it; the result
	// must be stored in the unmarked representation.
	h1 := markedKey(0, marker.MinusInfinity, 5)
	h2 := markedKey(0, 5, marker.PlusInfinity)
	u := Union(tableOf(h1), tableOf(h2))
	k := u.View(hashkey.FromInt(0))
	require.NotNil(t, k)
	require.False(t, k.IsMarked())
}

func TestTableSetOps_EmptyResultsOmitted(t *testing.T) {
	// Intersection of disjoint ranges for the same digest drops the key.
	i := Intersection(tableOf(markedKey(0, 0, 5)), tableOf(markedKey(0, 10, 15)))
	require.Equal(t, 0, i.Size())

	// Difference of a key against itself drops it too.
	d := Difference(tableOf(markedKey(0, 0, 5)), tableOf(markedKey(0, 0, 5)))
	require.Equal(t, 0, d.Size())

	// And an unmarked key minus an unmarked key is empty.
	d2 := Difference(tableOf(hashkey.FromInt(0)), tableOf(hashkey.FromInt(0)))
	require.Equal(t, 0, d2.Size())
}
