// Package hashtrie implements the keyed summary container at the center of
// this module: a 32-ary prefix trie over hash key digests that maintains, at
// every node, a lazily recomputed marker-summary list. The root summary
// evaluated at a marker m is the modular sum of the digests of exactly those
// contained keys that are valid at m.
package hashtrie

import (
	"math/bits"

	"github.com/hoytak/hashreduce/go/hashkey"
)

const (
	chunkBits = 5
	fanout    = 1 << chunkBits
	// 128 bits in 5-bit chunks, most significant first; the last chunk
	// carries the remaining 3 bits.
	maxDepth = (128 + chunkBits - 1) / chunkBits
)

// chunkAt extracts the depth'th 5-bit chunk of h, MSB first.
func chunkAt(h hashkey.Hash, depth int) uint {
	shift := 128 - chunkBits*(depth+1)
	switch {
	case shift >= 64:
		return uint(h.Hi()>>(shift-64)) & (fanout - 1)
	case shift >= 0:
		v := h.Lo() >> shift
		if shift > 64-chunkBits {
			v |= h.Hi() << (64 - shift)
		}
		return uint(v) & (fanout - 1)
	default:
		return uint(h.Lo()<<uint(-shift)) & (fanout - 1)
	}
}

// node is either a leaf holding one key (key != nil) or an interior node
// holding children in a popcount-compressed slice addressed by mask. Both
// kinds cache their subtree's marker-summary list; sumValid is cleared along
// the mutation path and the list rebuilt on the next read.
type node struct {
	key      *hashkey.HashKey
	mask     uint32
	children []*node

	sum      deltaList
	sumValid bool
}

// childIndex returns the slice position for chunk c, and whether a child is
// present there.
func (n *node) childIndex(c uint) (int, bool) {
	bit := uint32(1) << c
	idx := bits.OnesCount32(n.mask & (bit - 1))
	return idx, n.mask&bit != 0
}

// addChild inserts child at chunk c, which must be vacant.
func (n *node) addChild(c uint, child *node) {
	idx, _ := n.childIndex(c)
	n.mask |= uint32(1) << c
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
}

// removeChild deletes the child at chunk c, which must be present.
func (n *node) removeChild(c uint) {
	idx, _ := n.childIndex(c)
	n.mask &^= uint32(1) << c
	n.children = append(n.children[:idx], n.children[idx+1:]...)
}

// summary returns the node's marker-summary list, rebuilding it if a
// mutation invalidated the cache. For a leaf this is the key's own delta
// list; for an interior node it is the pointwise modular sum of the
// children's summaries.
func (n *node) summary() deltaList {
	if !n.sumValid {
		if n.key != nil {
			n.sum = keyDeltas(n.key)
		} else {
			var acc deltaList
			for _, c := range n.children {
				acc = mergeDeltas(acc, c.summary())
			}
			n.sum = acc
		}
		n.sumValid = true
	}
	return n.sum
}
