package fingerprint

import (
	"math"

	"github.com/sj-huang/rdkit-m/internal/chem"
)

// TorsionOptions configures the topological torsion generators.
type TorsionOptions struct {
	// TargetSize is the number of atoms per path. Zero means 4.
	TargetSize       int
	IncludeChirality bool
	IgnoreAtoms      []int
}

func (o TorsionOptions) size() int {
	if o.TargetSize <= 0 {
		return 4
	}
	return o.TargetSize
}

// TorsionLength returns the key space of unhashed torsions of size atoms.
// Paths whose packed codes overflow 64 bits are hashed instead.
func TorsionLength(size int) uint64 {
	if size*atomCodeBits >= 64 {
		return math.MaxUint64
	}
	return 1 << (uint(size) * atomCodeBits)
}

// forEachTorsion calls fn with the canonical code list of every simple path of
// opts.TargetSize atoms. Each path is visited once, in the direction whose
// first atom index is smaller.
func forEachTorsion(mol *chem.Molecule, opts TorsionOptions, fn func(codes []uint32)) {
	size := opts.size()
	ignore := ignoreSet(opts.IgnoreAtoms)
	n := mol.NumAtoms()
	if size < 2 || n < size {
		return
	}

	path := make([]int, 0, size)
	onPath := make([]bool, n)
	codes := make([]uint32, size)
	rev := make([]uint32, size)

	emit := func() {
		if path[0] >= path[size-1] {
			return
		}
		for k, a := range path {
			if ignore[a] {
				return
			}
			sub := 2
			if k == 0 || k == size-1 {
				sub = 1
			}
			codes[k] = atomCode(mol, a, sub, opts.IncludeChirality)
		}
		for k := range codes {
			rev[k] = codes[size-1-k]
		}
		if lessUint32s(rev, codes) {
			fn(rev)
			return
		}
		fn(codes)
	}

	var walk func(a int)
	walk = func(a int) {
		path = append(path, a)
		onPath[a] = true
		if len(path) == size {
			emit()
		} else {
			for _, e := range mol.Neighbors(a) {
				if !onPath[e.Atom] {
					walk(e.Atom)
				}
			}
		}
		onPath[a] = false
		path = path[:len(path)-1]
	}
	for i := 0; i < n; i++ {
		walk(i)
	}
}

func lessUint32s(a, b []uint32) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func torsionKey(codes []uint32) uint64 {
	if len(codes)*atomCodeBits >= 64 {
		return hashCodes64(codes)
	}
	var key uint64
	for k, c := range codes {
		key |= uint64(c) << (uint(k) * atomCodeBits)
	}
	return key
}

// TopologicalTorsionFingerprint returns the unhashed torsion count vector.
func TopologicalTorsionFingerprint(mol *chem.Molecule, opts TorsionOptions) *SparseIntVect {
	fp := NewSparseIntVect(TorsionLength(opts.size()))
	forEachTorsion(mol, opts, func(codes []uint32) {
		fp.Add(torsionKey(codes), 1)
	})
	return fp
}

// HashedTopologicalTorsionFingerprint returns the torsion count vector folded into nBits.
func HashedTopologicalTorsionFingerprint(mol *chem.Molecule, nBits uint, opts TorsionOptions) *SparseIntVect {
	fp := NewSparseIntVect(uint64(nBits))
	forEachTorsion(mol, opts, func(codes []uint32) {
		fp.Add(uint64(hashUint32s(codes)%uint32(nBits)), 1)
	})
	return fp
}

// HashedTopologicalTorsionBitVect returns the torsion bit vector with the same
// count simulation as HashedAtomPairBitVect.
func HashedTopologicalTorsionBitVect(mol *chem.Molecule, nBits, nBitsPerEntry uint, opts TorsionOptions) *BitVect {
	nBitsPerEntry = entryWidth(nBits, nBitsPerEntry)
	slots := uint32(nBits / nBitsPerEntry)
	counts := make(map[uint32]int)
	forEachTorsion(mol, opts, func(codes []uint32) {
		counts[hashUint32s(codes)%slots]++
	})
	return simulateCounts(counts, nBits, nBitsPerEntry)
}

//Personal.AI order the ending
