package hashtrie

import (
	"go.skia.org/infra/go/skerr"
	"go.skia.org/infra/go/sklog"
)

// DebugConsistent verifies the table's internal invariants: every leaf sits
// on the chunk path spelled by its key's digest, and every cached summary
// (including the root) matches a from-scratch recomputation of its subtree.
// It returns an error describing the first violation found. Intended for
// tests and debugging; it touches every node.
func DebugConsistent(t *HashTable) error {
	count, err := checkNode(t.root, nil)
	if err != nil {
		sklog.Errorf("hash table inconsistent: %s", err)
		return err
	}
	if count != t.size {
		return skerr.Fmt("size mismatch: table reports %d keys, trie holds %d", t.size, count)
	}

	// The root summary must equal the merge of every key's own contribution,
	// independent of how the interior caches composed it.
	var expected deltaList
	it := NewIterator(t)
	for {
		k, ok := it.Next()
		if !ok {
			break
		}
		expected = mergeDeltas(expected, keyDeltas(k))
	}
	actual := t.root.summary()
	if !deltasAgree(expected, actual) {
		sklog.Errorf("root summary diverges: expected %d entries, cached %d", len(expected), len(actual))
		return skerr.Fmt("root summary does not match the per-key contributions")
	}
	return nil
}

// checkNode validates the subtree under n, whose position is spelled by
// path, and returns the number of keys below it.
func checkNode(n *node, path []uint) (int, error) {
	if n.key != nil {
		h := n.key.Hash()
		for d, c := range path {
			if chunkAt(h, d) != c {
				return 0, skerr.Fmt("key %s stored off-path: chunk %d is %d, path has %d", h, d, chunkAt(h, d), c)
			}
		}
		if n.sumValid && !deltasAgree(n.sum, keyDeltas(n.key)) {
			return 0, skerr.Fmt("leaf summary for %s is stale", h)
		}
		return 1, nil
	}
	count := 0
	var fresh deltaList
	i := 0
	for c := uint(0); c < fanout; c++ {
		idx, ok := n.childIndex(c)
		if !ok {
			continue
		}
		if idx != i {
			return 0, skerr.Fmt("child slice out of mask order at chunk %d", c)
		}
		i++
		child := n.children[idx]
		sub, err := checkNode(child, append(path, c))
		if err != nil {
			return 0, err
		}
		count += sub
		fresh = mergeDeltas(fresh, child.summary())
	}
	if n.sumValid && !deltasAgree(n.sum, fresh) {
		return 0, skerr.Fmt("interior summary stale at depth %d", len(path))
	}
	return count, nil
}

func deltasAgree(a, b deltaList) bool {
	na := a.normalized()
	nb := b.normalized()
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
