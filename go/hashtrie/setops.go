package hashtrie

import (
	"github.com/hoytak/hashreduce/go/hashkey"
	"github.com/hoytak/hashreduce/go/marker"
)

// The table set operations act on marker-validity sets, not raw membership:
// a key's validity in the result is the pointwise OR / AND / AND-NOT of its
// validity in the inputs, with an absent interval set standing for the whole
// axis. Keys whose resulting validity is empty are omitted; keys whose
// resulting validity is the whole axis are stored unmarked, so the two
// representations of "everywhere" never coexist in a result.

// Union returns a fresh table where each key present in a or b is valid
// wherever it is valid in either.
func Union(a, b *HashTable) *HashTable {
	out := NewHashTable()
	eachKey(a, func(k *hashkey.HashKey) {
		if bk := b.lookup(k.Hash()); bk != nil {
			if k.MarkerInfo() == nil || bk.MarkerInfo() == nil {
				giveEntry(out, k.Hash(), nil)
				return
			}
			giveEntry(out, k.Hash(), marker.Union(k.MarkerInfo(), bk.MarkerInfo()))
			return
		}
		giveCopy(out, k)
	})
	eachKey(b, func(k *hashkey.HashKey) {
		if !a.Contains(k) {
			giveCopy(out, k)
		}
	})
	return out
}

// Intersection returns a fresh table holding each key present in both a and
// b, valid where it is valid in both; keys with empty joint validity are
// omitted.
func Intersection(a, b *HashTable) *HashTable {
	out := NewHashTable()
	eachKey(a, func(k *hashkey.HashKey) {
		bk := b.lookup(k.Hash())
		if bk == nil {
			return
		}
		switch {
		case k.MarkerInfo() == nil && bk.MarkerInfo() == nil:
			giveEntry(out, k.Hash(), nil)
		case k.MarkerInfo() == nil:
			giveEntry(out, k.Hash(), bk.MarkerInfo().Copy())
		case bk.MarkerInfo() == nil:
			giveEntry(out, k.Hash(), k.MarkerInfo().Copy())
		default:
			mi := marker.Intersection(k.MarkerInfo(), bk.MarkerInfo())
			if !mi.ValidAnywhere() {
				mi.DecRef()
				return
			}
			giveEntry(out, k.Hash(), mi)
		}
	})
	return out
}

// Difference returns a fresh table where each key of a is valid where it is
// valid in a but not in b; keys left with no validity are omitted.
func Difference(a, b *HashTable) *HashTable {
	out := NewHashTable()
	eachKey(a, func(k *hashkey.HashKey) {
		bk := b.lookup(k.Hash())
		if bk == nil {
			giveCopy(out, k)
			return
		}
		mi := marker.Difference(k.MarkerInfo(), bk.MarkerInfo())
		if !mi.ValidAnywhere() {
			mi.DecRef()
			return
		}
		giveEntry(out, k.Hash(), mi)
	})
	return out
}

func eachKey(t *HashTable, f func(*hashkey.HashKey)) {
	it := NewIterator(t)
	for {
		k, ok := it.Next()
		if !ok {
			return
		}
		f(k)
	}
}

// giveEntry inserts a fresh key for digest h owning mi. A universal mi is
// normalised to the unmarked representation; an empty one drops the entry.
func giveEntry(t *HashTable, h hashkey.Hash, mi *marker.IntervalSet) {
	if mi != nil {
		if !mi.ValidAnywhere() {
			mi.DecRef()
			return
		}
		if mi.IsUniverse() {
			mi.DecRef()
			mi = nil
		}
	}
	k := hashkey.FromHash(h)
	if mi != nil {
		k.GiveMarkerInfo(mi)
	}
	t.Give(k)
}

func giveCopy(t *HashTable, k *hashkey.HashKey) {
	if k.MarkerInfo() != nil && !k.MarkerInfo().ValidAnywhere() {
		return
	}
	t.Give(k.Copy())
}
