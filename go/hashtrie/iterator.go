package hashtrie

import "github.com/hoytak/hashreduce/go/hashkey"

// Iterator yields each stored key exactly once in increasing digest order.
// It does not own the keys it returns, and the table must not be mutated
// while iteration is in progress.
type Iterator struct {
	stack []iterFrame
}

type iterFrame struct {
	n    *node
	next int
}

// NewIterator returns a forward iterator over t.
func NewIterator(t *HashTable) *Iterator {
	return &Iterator{stack: []iterFrame{{n: t.root}}}
}

// Next returns the next key, or ok == false when iteration is complete.
func (it *Iterator) Next() (k *hashkey.HashKey, ok bool) {
	for len(it.stack) > 0 {
		f := &it.stack[len(it.stack)-1]
		if f.n.key != nil {
			k = f.n.key
			it.stack = it.stack[:len(it.stack)-1]
			return k, true
		}
		if f.next >= len(f.n.children) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		child := f.n.children[f.next]
		f.next++
		it.stack = append(it.stack, iterFrame{n: child})
	}
	return nil, false
}

// BottomUpIterator yields the same key set as Iterator but walks the trie in
// post-order, visiting every subtree before the node above it. Like
// Iterator it is non-owning and does not tolerate concurrent mutation.
type BottomUpIterator struct {
	stack []iterFrame
}

// NewBottomUpIterator returns a post-order iterator over t.
func NewBottomUpIterator(t *HashTable) *BottomUpIterator {
	return &BottomUpIterator{stack: []iterFrame{{n: t.root}}}
}

// Next returns the next key in post-order, or ok == false when iteration is
// complete.
func (it *BottomUpIterator) Next() (k *hashkey.HashKey, ok bool) {
	for len(it.stack) > 0 {
		f := &it.stack[len(it.stack)-1]
		if f.next < len(f.n.children) {
			child := f.n.children[f.next]
			f.next++
			it.stack = append(it.stack, iterFrame{n: child})
			continue
		}
		it.stack = it.stack[:len(it.stack)-1]
		if f.n.key != nil {
			return f.n.key, true
		}
	}
	return nil, false
}
