package fingerprint

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// hashCombine mixes v into seed with the boost::hash_combine recipe on 32 bits.
func hashCombine(seed, v uint32) uint32 {
	return seed ^ (v + 0x9e3779b9 + (seed << 6) + (seed >> 2))
}

// hashInts combines vs into a fresh seed of zero. Negative values wrap.
func hashInts(vs ...int) uint32 {
	var seed uint32
	for _, v := range vs {
		seed = hashCombine(seed, uint32(v))
	}
	return seed
}

func hashUint32s(vs []uint32) uint32 {
	var seed uint32
	for _, v := range vs {
		seed = hashCombine(seed, v)
	}
	return seed
}

// fmix32 is the murmur3 finalizer. Folding invariants through it spreads
// neighbouring codes over the whole bit range.
func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

const golden64 = 0x9E3779B97F4A7C15

// splitmix64 returns the next value of a splitmix64 generator in state x.
func splitmix64(x uint64) uint64 {
	z := x + golden64
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// hashCodes64 hashes an arbitrary-length code list to 64 bits. It is used
// when a packed key would not fit in a uint64.
func hashCodes64(codes []uint32) uint64 {
	buf := make([]byte, 4*len(codes))
	for i, c := range codes {
		binary.LittleEndian.PutUint32(buf[4*i:], c)
	}
	return xxh3.Hash(buf)
}

//Personal.AI order the ending
