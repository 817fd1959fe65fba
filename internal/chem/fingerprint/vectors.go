// Package fingerprint implements bit and count fingerprint vectors, the
// similarity metrics between them, and the Morgan, atom-pair, topological
// torsion and RDK path generators over chem.Molecule graphs.
package fingerprint

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Kind distinguishes bit vectors from count vectors.
type Kind uint8

const (
	KindBitVect Kind = iota + 1
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindBitVect:
		return "bitvect"
	case KindCount:
		return "count"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Fingerprint is implemented by *BitVect and *SparseIntVect.
type Fingerprint interface {
	Kind() Kind
	// Length is the size of the key space.
	Length() uint64
}

// ─────────────────────────────────────────────────────────────────────────────
// BitVect
// ─────────────────────────────────────────────────────────────────────────────

// BitVect is a fixed-length bit fingerprint.
type BitVect struct {
	n    uint
	bits *bitset.BitSet
}

// NewBitVect returns an all-zero vector of n bits.
func NewBitVect(n uint) *BitVect {
	return &BitVect{n: n, bits: bitset.New(n)}
}

func (v *BitVect) Kind() Kind     { return KindBitVect }
func (v *BitVect) Length() uint64 { return uint64(v.n) }

// Set turns bit i on. Bits beyond the length are ignored.
func (v *BitVect) Set(i uint) {
	if i < v.n {
		v.bits.Set(i)
	}
}

// Clear turns bit i off.
func (v *BitVect) Clear(i uint) {
	if i < v.n {
		v.bits.Clear(i)
	}
}

// Test reports whether bit i is on.
func (v *BitVect) Test(i uint) bool { return i < v.n && v.bits.Test(i) }

// Count returns the number of on bits.
func (v *BitVect) Count() int { return int(v.bits.Count()) }

// OnBits returns the indices of the on bits in ascending order.
func (v *BitVect) OnBits() []uint {
	out := make([]uint, 0, v.bits.Count())
	for i, ok := v.bits.NextSet(0); ok; i, ok = v.bits.NextSet(i + 1) {
		out = append(out, i)
	}
	return out
}

// Clone returns a deep copy.
func (v *BitVect) Clone() *BitVect {
	return &BitVect{n: v.n, bits: v.bits.Clone()}
}

// AndNot returns v with every bit of mask cleared.
func (v *BitVect) AndNot(mask *BitVect) *BitVect {
	return &BitVect{n: v.n, bits: v.bits.Difference(mask.bits)}
}

// intersectionCount returns the number of bits on in both vectors.
func (v *BitVect) intersectionCount(o *BitVect) int {
	return int(v.bits.IntersectionCardinality(o.bits))
}

// Equal reports whether both vectors have the same length and bits.
func (v *BitVect) Equal(o *BitVect) bool {
	return v.n == o.n && v.bits.Equal(o.bits)
}

// Bytes packs the vector into ceil(n/8) bytes, bit i stored in byte i/8 at
// position i%8. This is the layout binary vector stores expect.
func (v *BitVect) Bytes() []byte {
	out := make([]byte, (v.n+7)/8)
	for i, ok := v.bits.NextSet(0); ok; i, ok = v.bits.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

// BitVectFromBytes is the inverse of Bytes.
func BitVectFromBytes(n uint, data []byte) *BitVect {
	v := NewBitVect(n)
	for i := uint(0); i < n && int(i/8) < len(data); i++ {
		if data[i/8]&(1<<(i%8)) != 0 {
			v.bits.Set(i)
		}
	}
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// SparseIntVect
// ─────────────────────────────────────────────────────────────────────────────

// SparseIntVect is a count fingerprint over a key space of declared length.
// Only non-zero entries are stored.
type SparseIntVect struct {
	length uint64
	counts map[uint64]int
}

// NewSparseIntVect returns an empty count vector over [0, length).
func NewSparseIntVect(length uint64) *SparseIntVect {
	return &SparseIntVect{length: length, counts: make(map[uint64]int)}
}

func (v *SparseIntVect) Kind() Kind     { return KindCount }
func (v *SparseIntVect) Length() uint64 { return v.length }

// Add increments key by n, removing the entry when it reaches zero.
func (v *SparseIntVect) Add(key uint64, n int) {
	c := v.counts[key] + n
	if c == 0 {
		delete(v.counts, key)
		return
	}
	v.counts[key] = c
}

// Get returns the count stored under key.
func (v *SparseIntVect) Get(key uint64) int { return v.counts[key] }

// NumNonZero returns the number of stored keys.
func (v *SparseIntVect) NumNonZero() int { return len(v.counts) }

// Total returns the sum of all counts.
func (v *SparseIntVect) Total() int {
	t := 0
	for _, c := range v.counts {
		t += c
	}
	return t
}

// Keys returns the non-zero keys in ascending order.
func (v *SparseIntVect) Keys() []uint64 {
	keys := make([]uint64, 0, len(v.counts))
	for k := range v.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Counts returns a copy of the non-zero entries.
func (v *SparseIntVect) Counts() map[uint64]int {
	out := make(map[uint64]int, len(v.counts))
	for k, c := range v.counts {
		out[k] = c
	}
	return out
}

// Clone returns a deep copy.
func (v *SparseIntVect) Clone() *SparseIntVect {
	return &SparseIntVect{length: v.length, counts: v.Counts()}
}

//Personal.AI order the ending
