// Package hashkey implements the additive 128-bit hash algebra at the bottom
// of this module. Digests are elements of Z/pZ for the fixed prime
// p = 2^128 - 159, viewed as four 32-bit big-endian limbs. Reduce (modular
// addition) is the commutative, associative operator the summary tables are
// built on; Negative inverts it; Rehash and Combine are one-way mixers for
// folding positional structure into a digest.
package hashkey

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/bits"

	"go.skia.org/infra/go/skerr"
	"golang.org/x/crypto/blake2b"
)

// PrimeOffset is delta in p = 2^128 - delta. The modulus is the largest
// prime below 2^128.
const PrimeOffset = 159

// Digest size in bytes and in hex characters.
const (
	Size    = 16
	HexSize = 32
)

const (
	primeHi = ^uint64(0)
	primeLo = ^uint64(0) - PrimeOffset + 1
)

// Hash is a canonical representative of Z/pZ, always kept in [0, p). The
// zero value is the additive identity.
type Hash struct {
	hi, lo uint64
}

// HashFromComponents assembles a hash from its four 32-bit big-endian limbs
// a*2^96 + b*2^64 + c*2^32 + d, canonicalized mod p.
func HashFromComponents(a, b, c, d uint32) Hash {
	return canonical(Hash{
		hi: uint64(a)<<32 | uint64(b),
		lo: uint64(c)<<32 | uint64(d),
	})
}

// HashFromString parses an exact 32-character lowercase hex digest.
func HashFromString(s string) (Hash, error) {
	if len(s) != HexSize {
		return Hash{}, skerr.Fmt("hash %q: want %d hex characters, got %d", s, HexSize, len(s))
	}
	var raw [Size]byte
	if _, err := hex.Decode(raw[:], []byte(s)); err != nil {
		return Hash{}, skerr.Wrapf(err, "parsing hash %q", s)
	}
	return hashFromBytes(raw), nil
}

func hashFromBytes(b [Size]byte) Hash {
	return canonical(Hash{
		hi: binary.BigEndian.Uint64(b[:8]),
		lo: binary.BigEndian.Uint64(b[8:]),
	})
}

func (h Hash) bytes() [Size]byte {
	var b [Size]byte
	binary.BigEndian.PutUint64(b[:8], h.hi)
	binary.BigEndian.PutUint64(b[8:], h.lo)
	return b
}

func canonical(h Hash) Hash {
	if h.hi == primeHi && h.lo >= primeLo {
		// Single subtraction suffices: the input is below 2^128 < 2p.
		h.lo -= primeLo
		h.hi = 0
	}
	return h
}

// Add returns h + o mod p.
func (h Hash) Add(o Hash) Hash {
	lo, carry := bits.Add64(h.lo, o.lo, 0)
	hi, carry := bits.Add64(h.hi, o.hi, carry)
	if carry != 0 {
		// 2^128 == PrimeOffset (mod p). Both inputs are below p, so the
		// folded value cannot overflow or reach p again.
		lo, carry = bits.Add64(lo, PrimeOffset, 0)
		hi += carry
		return Hash{hi: hi, lo: lo}
	}
	return canonical(Hash{hi: hi, lo: lo})
}

// Neg returns the additive inverse of h, so h.Add(h.Neg()) is zero.
func (h Hash) Neg() Hash {
	if h.IsZero() {
		return Hash{}
	}
	lo, borrow := bits.Sub64(primeLo, h.lo, 0)
	hi, _ := bits.Sub64(primeHi, h.hi, borrow)
	return Hash{hi: hi, lo: lo}
}

// IsZero reports whether h is the additive identity.
func (h Hash) IsZero() bool {
	return h.hi == 0 && h.lo == 0
}

// Cmp returns -1, 0, or 1 comparing h and o as 128-bit integers.
func (h Hash) Cmp(o Hash) int {
	switch {
	case h.hi < o.hi:
		return -1
	case h.hi > o.hi:
		return 1
	case h.lo < o.lo:
		return -1
	case h.lo > o.lo:
		return 1
	}
	return 0
}

// Component returns the i'th 32-bit big-endian limb (0 is the most
// significant). Out-of-range indices clamp to the nearest limb.
func (h Hash) Component(i int) uint32 {
	if i < 0 {
		i = 0
	} else if i > 3 {
		i = 3
	}
	switch i {
	case 0:
		return uint32(h.hi >> 32)
	case 1:
		return uint32(h.hi)
	case 2:
		return uint32(h.lo >> 32)
	default:
		return uint32(h.lo)
	}
}

// Hi returns the most significant 64 bits.
func (h Hash) Hi() uint64 { return h.hi }

// Lo returns the least significant 64 bits.
func (h Hash) Lo() uint64 { return h.lo }

// String formats the digest as 32 lowercase hex characters, big-endian.
func (h Hash) String() string {
	return fmt.Sprintf("%016x%016x", h.hi, h.lo)
}

// Domain tags keep the factory and mixer input spaces disjoint: two inputs
// from different domains only collide if blake2b does.
const (
	domainUnsigned byte = 0x01
	domainNegative byte = 0x02
	domainString   byte = 0x03
	domainRehash   byte = 0x04
	domainCombine  byte = 0x05
)

func mix(tag byte, payload ...[]byte) Hash {
	d, err := blake2b.New(Size, nil)
	if err != nil {
		// Only reachable with an oversized key, and we pass none.
		panic(err)
	}
	d.Write([]byte{tag})
	for _, p := range payload {
		d.Write(p)
	}
	var sum [Size]byte
	copy(sum[:], d.Sum(nil))
	return hashFromBytes(sum)
}

// HashInt digests a signed integer. Non-negative values digest identically
// to HashUint of the same value; negatives occupy their own domain.
func HashInt(v int64) Hash {
	if v >= 0 {
		return HashUint(uint64(v))
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return mix(domainNegative, buf[:])
}

// HashUint digests an unsigned integer.
func HashUint(v uint64) Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return mix(domainUnsigned, buf[:])
}

// HashString digests a byte string.
func HashString(s string) Hash {
	return mix(domainString, []byte(s))
}

// Rehash returns a deterministic non-identity mixing of h, used to fold a
// value with positional information. The zero digest maps to itself.
func (h Hash) Rehash() Hash {
	if h.IsZero() {
		return h
	}
	b := h.bytes()
	return mix(domainRehash, b[:])
}

// Combine mixes h and o into a fresh digest dependent on operand order.
func (h Hash) Combine(o Hash) Hash {
	hb := h.bytes()
	ob := o.bytes()
	return mix(domainCombine, hb[:], ob[:])
}
