package hashkey

import (
	"github.com/hoytak/hashreduce/go/marker"
	"github.com/hoytak/hashreduce/go/refcount"
)

// HashKey is a refcounted digest with optional marker validity metadata. A
// key with no interval set is valid at every marker; a key with one is valid
// exactly at the markers it contains. The digest is the key's identity:
// containers and equality ignore everything else.
//
// Keys are shared between callers and containers through the refcount
// protocol; the interval set is owned by the key and released with it.
type HashKey struct {
	refcount.Counted
	hash  Hash
	mi    *marker.IntervalSet
	locks int
}

// New returns a key holding the zero digest.
func New() *HashKey {
	return FromHash(Hash{})
}

// FromHash wraps an existing digest in a fresh key.
func FromHash(h Hash) *HashKey {
	k := &HashKey{hash: h}
	k.Init(func() {
		if k.mi != nil {
			k.mi.DecRef()
			k.mi = nil
		}
	})
	return k
}

// FromInt returns the key for a signed integer. FromInt(v) equals
// FromUnsignedInt(uint64(v)) for every non-negative v and collides with no
// negative input.
func FromInt(v int64) *HashKey {
	return FromHash(HashInt(v))
}

// FromUnsignedInt returns the key for an unsigned integer.
func FromUnsignedInt(v uint64) *HashKey {
	return FromHash(HashUint(v))
}

// FromString returns the key for a byte string.
func FromString(s string) *HashKey {
	return FromHash(HashString(s))
}

// FromComponents returns the key for the digest with the given 32-bit
// big-endian limbs, canonicalized mod p.
func FromComponents(a, b, c, d uint32) *HashKey {
	return FromHash(HashFromComponents(a, b, c, d))
}

// FromExact returns the key for an exact 32-character hex digest.
func FromExact(s string) (*HashKey, error) {
	h, err := HashFromString(s)
	if err != nil {
		return nil, err
	}
	return FromHash(h), nil
}

// Hash returns the key's digest.
func (k *HashKey) Hash() Hash {
	return k.hash
}

// Component returns the i'th 32-bit limb of the digest.
func (k *HashKey) Component(i int) uint32 {
	return k.hash.Component(i)
}

// String returns the digest as 32 lowercase hex characters.
func (k *HashKey) String() string {
	return k.hash.String()
}

// Equal reports whether a and b carry equal digests. Marker metadata does
// not participate.
func Equal(a, b *HashKey) bool {
	return a.hash == b.hash
}

// Reduce returns a fresh key holding a + b mod p. Reduce is commutative and
// associative; it is the operator the table summaries accumulate with.
func Reduce(a, b *HashKey) *HashKey {
	return FromHash(a.hash.Add(b.hash))
}

// ReduceUpdate folds x into acc in place.
func ReduceUpdate(acc, x *HashKey) {
	acc.hash = acc.hash.Add(x.hash)
}

// Negative returns a fresh key holding the additive inverse of a, so
// Reduce(a, Negative(a)) is the zero key.
func Negative(a *HashKey) *HashKey {
	return FromHash(a.hash.Neg())
}

// Rehash returns a fresh key with a deterministic non-identity mixing of a's
// digest. The zero key rehashes to itself.
func Rehash(a *HashKey) *HashKey {
	return FromHash(a.hash.Rehash())
}

// Combine returns a fresh key mixing a and b; unlike Reduce the result
// depends on operand order.
func Combine(a, b *HashKey) *HashKey {
	return FromHash(a.hash.Combine(b.hash))
}

// Copy returns a fresh key with the same digest and a copy of the marker
// metadata. Lock state is not copied.
func (k *HashKey) Copy() *HashKey {
	out := FromHash(k.hash)
	if k.mi != nil {
		out.mi = k.mi.Copy()
	}
	return out
}

// AddValidRange restricts the key to [start, end) in addition to any ranges
// already added. The first range added replaces the implicit
// everywhere-valid state. Empty ranges are dropped.
func (k *HashKey) AddValidRange(start, end marker.Marker) {
	if start >= end {
		return
	}
	if k.mi == nil {
		k.mi = marker.NewIntervalSet(start, end)
		return
	}
	k.mi.AddRange(start, end)
}

// ClearMarkerInfo removes all marker metadata, returning the key to the
// everywhere-valid state.
func (k *HashKey) ClearMarkerInfo() {
	if k.mi != nil {
		k.mi.DecRef()
		k.mi = nil
	}
}

// IsMarked reports whether the key carries marker metadata.
func (k *HashKey) IsMarked() bool {
	return k.mi != nil
}

// MarkerPointIsValid reports whether the key is valid at m. Unmarked keys
// are valid everywhere.
func (k *HashKey) MarkerPointIsValid(m marker.Marker) bool {
	return k.mi.IsValid(m)
}

// GiveMarkerInfo replaces the key's marker metadata with mi, taking
// ownership of the caller's reference. A nil mi clears the metadata.
func (k *HashKey) GiveMarkerInfo(mi *marker.IntervalSet) {
	if k.mi == mi {
		return
	}
	if k.mi != nil {
		k.mi.DecRef()
	}
	k.mi = mi
}

// MarkerInfo returns the key's interval set without transferring ownership.
// It is nil for unmarked keys.
func (k *HashKey) MarkerInfo() *marker.IntervalSet {
	return k.mi
}

// Lock records that a container holds this key. The lock count is tracked
// independently of the refcount.
func (k *HashKey) Lock() {
	k.locks++
}

// Unlock releases one container hold.
func (k *HashKey) Unlock() {
	k.locks--
}

// LockCount returns the number of containers currently holding the key.
func (k *HashKey) LockCount() int {
	return k.locks
}
