package hashtrie

import (
	"github.com/hoytak/hashreduce/go/hashkey"
	"github.com/hoytak/hashreduce/go/marker"
	"github.com/hoytak/hashreduce/go/refcount"
)

// HashTable is a set-like container of hash keys addressed by their digests.
// Internally it is a 32-ary prefix trie over successive 5-bit chunks of the
// digest, most significant first; leaves split lazily when a second digest
// lands on their prefix. The table owns one reference and one lock on every
// contained key.
//
// Tables are single-threaded: concurrent mutation is not supported.
type HashTable struct {
	refcount.Counted
	root *node
	size int
}

// NewHashTable returns an empty table.
func NewHashTable() *HashTable {
	t := &HashTable{root: &node{}}
	t.Init(func() {
		it := NewIterator(t)
		for {
			k, ok := it.Next()
			if !ok {
				break
			}
			k.Unlock()
			k.DecRef()
		}
		t.root = &node{}
		t.size = 0
	})
	return t
}

// Size returns the number of distinct digests present.
func (t *HashTable) Size() int {
	return t.size
}

// lookup returns the stored key for a digest, or nil.
func (t *HashTable) lookup(h hashkey.Hash) *hashkey.HashKey {
	n := t.root
	for depth := 0; n != nil; depth++ {
		idx, ok := n.childIndex(chunkAt(h, depth))
		if !ok {
			return nil
		}
		n = n.children[idx]
		if n.key != nil {
			if n.key.Hash() == h {
				return n.key
			}
			return nil
		}
	}
	return nil
}

// insert places k at its digest's position, splitting a leaf if necessary,
// and returns the previous occupant with an equal digest, if any. Summary
// caches along the touched path are invalidated.
func (t *HashTable) insert(n *node, depth int, k *hashkey.HashKey) *hashkey.HashKey {
	defer func() { n.sumValid = false }()
	c := chunkAt(k.Hash(), depth)
	idx, ok := n.childIndex(c)
	if !ok {
		n.addChild(c, &node{key: k})
		return nil
	}
	child := n.children[idx]
	if child.key == nil {
		return t.insert(child, depth+1, k)
	}
	if child.key.Hash() == k.Hash() {
		prev := child.key
		child.key = k
		child.sumValid = false
		return prev
	}
	// Two digests share the prefix: push the existing leaf down through
	// interior nodes until their chunks diverge.
	inner := &node{}
	n.children[idx] = inner
	cur := inner
	for d := depth + 1; ; d++ {
		co := chunkAt(child.key.Hash(), d)
		cn := chunkAt(k.Hash(), d)
		if co != cn {
			cur.addChild(co, child)
			cur.addChild(cn, &node{key: k})
			return nil
		}
		next := &node{}
		cur.addChild(co, next)
		cur = next
	}
}

// remove deletes the leaf matching digest h, pruning interior nodes emptied
// by the removal, and returns the stored key, if any.
func (t *HashTable) remove(n *node, depth int, h hashkey.Hash) *hashkey.HashKey {
	c := chunkAt(h, depth)
	idx, ok := n.childIndex(c)
	if !ok {
		return nil
	}
	child := n.children[idx]
	var removed *hashkey.HashKey
	if child.key != nil {
		if child.key.Hash() != h {
			return nil
		}
		removed = child.key
		n.removeChild(c)
	} else {
		removed = t.remove(child, depth+1, h)
		if removed == nil {
			return nil
		}
		if len(child.children) == 0 {
			n.removeChild(c)
		}
	}
	n.sumValid = false
	return removed
}

// Set inserts h, replacing (and releasing) any previous occupant with an
// equal digest. The table takes its own reference; re-setting the stored
// object is a no-op.
func (t *HashTable) Set(h *hashkey.HashKey) {
	if t.lookup(h.Hash()) == h {
		return
	}
	h.IncRef()
	h.Lock()
	if prev := t.insert(t.root, 0, h); prev != nil {
		prev.Unlock()
		prev.DecRef()
	} else {
		t.size++
	}
}

// SetDefault inserts h only if no key with its digest is present.
func (t *HashTable) SetDefault(h *hashkey.HashKey) {
	if t.lookup(h.Hash()) != nil {
		return
	}
	t.Set(h)
}

// Give is Set consuming the caller's reference: the table takes over the
// reference it is handed instead of adding its own. Giving the stored object
// again is a no-op: refcounts and summaries are unchanged.
func (t *HashTable) Give(h *hashkey.HashKey) {
	if t.lookup(h.Hash()) == h {
		return
	}
	h.Lock()
	if prev := t.insert(t.root, 0, h); prev != nil {
		prev.Unlock()
		prev.DecRef()
	} else {
		t.size++
	}
}

// Pop removes the entry matching h's digest and transfers the table's
// reference to the caller, returning the stored key or nil.
func (t *HashTable) Pop(h *hashkey.HashKey) *hashkey.HashKey {
	removed := t.remove(t.root, 0, h.Hash())
	if removed != nil {
		removed.Unlock()
		t.size--
	}
	return removed
}

// Clear removes the entry matching h's digest, releasing the table's
// reference, and reports whether an entry was present.
func (t *HashTable) Clear(h *hashkey.HashKey) bool {
	removed := t.Pop(h)
	if removed == nil {
		return false
	}
	removed.DecRef()
	return true
}

// View returns the stored key matching h's digest without transferring
// ownership, or nil. The returned key may be a different object equal to h
// by digest.
func (t *HashTable) View(h *hashkey.HashKey) *hashkey.HashKey {
	return t.lookup(h.Hash())
}

// Get is View with an added reference for the caller.
func (t *HashTable) Get(h *hashkey.HashKey) *hashkey.HashKey {
	k := t.lookup(h.Hash())
	if k != nil {
		k.IncRef()
	}
	return k
}

// Contains reports digest membership.
func (t *HashTable) Contains(h *hashkey.HashKey) bool {
	return t.lookup(h.Hash()) != nil
}

// ContainsAt reports whether h's digest is present and the stored key is
// valid at m.
func (t *HashTable) ContainsAt(h *hashkey.HashKey, m marker.Marker) bool {
	k := t.lookup(h.Hash())
	return k != nil && k.MarkerPointIsValid(m)
}

// InsertValidRange adds [start, end) to the validity of the key stored under
// h's digest, inserting h first (as Set) if the digest is absent. As with
// AddValidRange, the first range given to an unmarked key replaces its
// everywhere-valid state, so the key becomes valid on [start, end) only. The
// summaries update as if the key had been removed and re-added atomically.
func (t *HashTable) InsertValidRange(h *hashkey.HashKey, start, end marker.Marker) {
	stored := t.lookup(h.Hash())
	if stored == nil {
		t.Set(h)
		stored = h
	}
	stored.AddValidRange(start, end)
	t.invalidatePath(stored.Hash())
}

// invalidatePath clears summary caches from the root down to the leaf for
// digest h.
func (t *HashTable) invalidatePath(h hashkey.Hash) {
	n := t.root
	for depth := 0; n != nil; depth++ {
		n.sumValid = false
		if n.key != nil {
			return
		}
		idx, ok := n.childIndex(chunkAt(h, depth))
		if !ok {
			return
		}
		n = n.children[idx]
	}
}

// HashAtMarkerPoint returns a fresh key holding the table's summary digest
// at m: the modular sum of the digests of every contained key valid at m.
func (t *HashTable) HashAtMarkerPoint(m marker.Marker) *hashkey.HashKey {
	return hashkey.FromHash(t.root.summary().evalAt(m))
}

// HashOfMarkerRange returns a digest of the table's contents restricted to
// the window [m1, m2): each key's validity is clipped to the window, and
// each surviving range is folded in with its boundary markers. Content
// outside the window cannot affect the result. An empty window digests to
// the zero key.
func (t *HashTable) HashOfMarkerRange(m1, m2 marker.Marker) *hashkey.HashKey {
	if m1 >= m2 {
		return hashkey.New()
	}
	window := marker.NewIntervalSet(m1, m2)
	defer window.DecRef()

	var acc hashkey.Hash
	it := NewIterator(t)
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		clipped := marker.Intersection(k.MarkerInfo(), window)
		rit := marker.NewIterator(clipped)
		for {
			r, ok := rit.Next()
			if !ok {
				break
			}
			contrib := k.Hash().
				Combine(hashkey.HashInt(int64(r.Start))).
				Combine(hashkey.HashInt(int64(r.End)))
			acc = acc.Add(contrib)
		}
		clipped.DecRef()
	}
	return hashkey.FromHash(acc)
}

// ViewHash returns a fresh key holding the commutative sum of every
// contained digest, ignoring marker validity.
func (t *HashTable) ViewHash() *hashkey.HashKey {
	var acc hashkey.Hash
	it := NewIterator(t)
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		acc = acc.Add(k.Hash())
	}
	return hashkey.FromHash(acc)
}

// Summary returns a detached copy of the table's root marker-summary.
func (t *HashTable) Summary() *Summary {
	s := NewSummary()
	s.deltas = append(deltaList(nil), t.root.summary()...)
	s.Normalize()
	return s
}

// ReduceTable returns a structurally normalised copy of the table: a fresh
// table over fresh keys whose summary agrees with the source at every
// marker.
func ReduceTable(t *HashTable) *HashTable {
	out := NewHashTable()
	it := NewIterator(t)
	for {
		k, ok := it.Next()
		if !ok {
			return out
		}
		out.Give(k.Copy())
	}
}
