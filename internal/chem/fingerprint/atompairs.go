package fingerprint

import (
	"github.com/sj-huang/rdkit-m/internal/chem"
)

const (
	atomCodeBits   = 14
	pairDistShift  = atomCodeBits
	pairCode2Shift = atomCodeBits + 5
	maxPairLength  = 31

	// AtomPairLength is the key space of unhashed atom-pair fingerprints.
	AtomPairLength uint64 = 1 << (pairCode2Shift + atomCodeBits)
)

// atomCode packs the branch count, pi electrons, element and, optionally, the
// CIP label of atom i.
func atomCode(mol *chem.Molecule, i, branchSubtract int, includeChirality bool) uint32 {
	a := mol.Atom(i)

	nb := mol.Degree(i) - branchSubtract
	if nb < 0 {
		nb = 0
	}
	if nb > 7 {
		nb = 7
	}

	pi := 0
	if a.Aromatic {
		pi = 1
	} else {
		for _, e := range mol.Neighbors(i) {
			if o := mol.Bond(e.Bond).Type.Order(); o > 1 {
				pi += o - 1
			}
		}
	}
	if pi > 3 {
		pi = 3
	}

	code := uint32(nb) | uint32(pi)<<3 | uint32(a.AtomicNum&0x7f)<<5
	if includeChirality && a.CIP != chem.CIPNone {
		code |= uint32(a.CIP) << 12
	}
	return code
}

// AtomPairOptions configures the atom-pair generators.
type AtomPairOptions struct {
	// MinLength and MaxLength bound the topological distance of a pair.
	// Zero values mean 1 and 30.
	MinLength int
	MaxLength int
	// IncludeChirality adds CIP labels to the atom codes.
	IncludeChirality bool
	// IgnoreAtoms drops every pair that touches one of these atoms.
	IgnoreAtoms []int
}

func (o AtomPairOptions) bounds() (int, int) {
	minL, maxL := o.MinLength, o.MaxLength
	if minL <= 0 {
		minL = 1
	}
	if maxL <= 0 {
		maxL = 30
	}
	if maxL > maxPairLength {
		maxL = maxPairLength
	}
	return minL, maxL
}

func ignoreSet(atoms []int) map[int]bool {
	if len(atoms) == 0 {
		return nil
	}
	set := make(map[int]bool, len(atoms))
	for _, a := range atoms {
		set[a] = true
	}
	return set
}

// forEachAtomPair calls fn with the sorted codes and distance of every pair.
func forEachAtomPair(mol *chem.Molecule, opts AtomPairOptions, fn func(c1 uint32, dist int, c2 uint32)) {
	n := mol.NumAtoms()
	minL, maxL := opts.bounds()
	ignore := ignoreSet(opts.IgnoreAtoms)

	codes := make([]uint32, n)
	for i := range codes {
		codes[i] = atomCode(mol, i, 0, opts.IncludeChirality)
	}
	dm := mol.DistanceMatrix()

	for i := 0; i < n; i++ {
		if ignore[i] {
			continue
		}
		for j := i + 1; j < n; j++ {
			if ignore[j] {
				continue
			}
			d := dm[i][j]
			if d < minL || d > maxL {
				continue
			}
			c1, c2 := codes[i], codes[j]
			if c2 < c1 {
				c1, c2 = c2, c1
			}
			fn(c1, d, c2)
		}
	}
}

// AtomPairFingerprint returns the unhashed atom-pair count vector.
func AtomPairFingerprint(mol *chem.Molecule, opts AtomPairOptions) *SparseIntVect {
	fp := NewSparseIntVect(AtomPairLength)
	forEachAtomPair(mol, opts, func(c1 uint32, d int, c2 uint32) {
		key := uint64(c1) | uint64(d)<<pairDistShift | uint64(c2)<<pairCode2Shift
		fp.Add(key, 1)
	})
	return fp
}

// HashedAtomPairFingerprint returns the atom-pair count vector folded into nBits.
func HashedAtomPairFingerprint(mol *chem.Molecule, nBits uint, opts AtomPairOptions) *SparseIntVect {
	fp := NewSparseIntVect(uint64(nBits))
	forEachAtomPair(mol, opts, func(c1 uint32, d int, c2 uint32) {
		h := hashUint32s([]uint32{c1, uint32(d), c2})
		fp.Add(uint64(h%uint32(nBits)), 1)
	})
	return fp
}

// HashedAtomPairBitVect returns the atom-pair bit vector with count
// simulation: each of the nBits/nBitsPerEntry slots owns nBitsPerEntry bits,
// and bit j of a slot is on when the slot's count reaches 2^j.
func HashedAtomPairBitVect(mol *chem.Molecule, nBits, nBitsPerEntry uint, opts AtomPairOptions) *BitVect {
	nBitsPerEntry = entryWidth(nBits, nBitsPerEntry)
	slots := uint32(nBits / nBitsPerEntry)
	counts := make(map[uint32]int)
	forEachAtomPair(mol, opts, func(c1 uint32, d int, c2 uint32) {
		counts[hashUint32s([]uint32{c1, uint32(d), c2})%slots]++
	})
	return simulateCounts(counts, nBits, nBitsPerEntry)
}

func entryWidth(nBits, nBitsPerEntry uint) uint {
	if nBitsPerEntry == 0 {
		return 1
	}
	if nBitsPerEntry > nBits {
		return nBits
	}
	return nBitsPerEntry
}

func simulateCounts(counts map[uint32]int, nBits, nBitsPerEntry uint) *BitVect {
	fp := NewBitVect(nBits)
	for slot, c := range counts {
		for j := uint(0); j < nBitsPerEntry; j++ {
			if c >= 1<<j {
				fp.Set(uint(slot)*nBitsPerEntry + j)
			}
		}
	}
	return fp
}

//Personal.AI order the ending
