package fingerprint

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sj-huang/rdkit-m/internal/chem"
)

// RDKOptions configures the path (subgraph) fingerprint.
type RDKOptions struct {
	// MinPath and MaxPath bound the number of bonds per subgraph. Zero values
	// mean 1 and 7.
	MinPath int
	MaxPath int
	// NBitsPerHash is the number of bits set per subgraph. Zero means 2.
	NBitsPerHash int
}

func (o RDKOptions) withDefaults() RDKOptions {
	if o.MinPath <= 0 {
		o.MinPath = 1
	}
	if o.MaxPath <= 0 {
		o.MaxPath = 7
	}
	if o.MaxPath < o.MinPath {
		o.MaxPath = o.MinPath
	}
	if o.NBitsPerHash <= 0 {
		o.NBitsPerHash = 2
	}
	return o
}

// ConnectedSubgraphs returns every connected bond subset of mol with at most
// maxBonds bonds, each sorted ascending. The result is in no particular order.
func ConnectedSubgraphs(mol *chem.Molecule, maxBonds int) [][]int {
	seen := make(map[string]struct{})
	var out [][]int

	for root := 0; root < mol.NumBonds(); root++ {
		stack := [][]int{{root}}
		for len(stack) > 0 {
			sub := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			key := subgraphKey(sub)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, sub)
			if len(sub) >= maxBonds {
				continue
			}

			in := make(map[int]bool, len(sub))
			for _, b := range sub {
				in[b] = true
			}
			for _, a := range mol.AtomsOfBonds(sub) {
				for _, e := range mol.Neighbors(a) {
					if e.Bond > root && !in[e.Bond] {
						stack = append(stack, insertSorted(sub, e.Bond))
					}
				}
			}
		}
	}
	return out
}

func subgraphKey(bonds []int) string {
	var sb strings.Builder
	for _, b := range bonds {
		sb.WriteString(strconv.Itoa(b))
		sb.WriteByte(',')
	}
	return sb.String()
}

func insertSorted(sorted []int, v int) []int {
	out := make([]int, 0, len(sorted)+1)
	i := sort.SearchInts(sorted, v)
	out = append(out, sorted[:i]...)
	out = append(out, v)
	return append(out, sorted[i:]...)
}

// subgraphHash is independent of bond order. Each bond is described by its type
// and the (invariant, in-subgraph degree) pairs of its atoms.
func subgraphHash(mol *chem.Molecule, sub []int, atomInv []int) uint32 {
	deg := make(map[int]int, len(sub)+1)
	for _, b := range sub {
		bond := mol.Bond(b)
		deg[bond.Begin]++
		deg[bond.End]++
	}

	descs := make([]uint32, len(sub))
	for k, b := range sub {
		bond := mol.Bond(b)
		i1, d1 := atomInv[bond.Begin], deg[bond.Begin]
		i2, d2 := atomInv[bond.End], deg[bond.End]
		if i2 < i1 || (i2 == i1 && d2 < d1) {
			i1, d1, i2, d2 = i2, d2, i1, d1
		}
		descs[k] = hashInts(int(bond.Type), i1, d1, i2, d2)
	}
	sort.Slice(descs, func(x, y int) bool { return descs[x] < descs[y] })
	return hashUint32s(descs)
}

// RDKFingerprint returns the path fingerprint and, per atom, the bits set by
// subgraphs containing that atom.
func RDKFingerprint(mol *chem.Molecule, nBits uint, opts RDKOptions) (*BitVect, [][]uint) {
	opts = opts.withDefaults()
	fp := NewBitVect(nBits)
	atomBits := make([][]uint, mol.NumAtoms())
	atomSeen := make([]map[uint]bool, mol.NumAtoms())
	for i := range atomSeen {
		atomSeen[i] = make(map[uint]bool)
	}

	atomInv := make([]int, mol.NumAtoms())
	for i := range atomInv {
		a := mol.Atom(i)
		atomInv[i] = a.AtomicNum * 2
		if a.Aromatic {
			atomInv[i]++
		}
	}

	for _, sub := range ConnectedSubgraphs(mol, opts.MaxPath) {
		if len(sub) < opts.MinPath {
			continue
		}
		h := uint64(subgraphHash(mol, sub, atomInv))
		atoms := mol.AtomsOfBonds(sub)
		for k := 0; k < opts.NBitsPerHash; k++ {
			bit := uint(splitmix64(h+uint64(k)*golden64) % uint64(nBits))
			fp.Set(bit)
			for _, a := range atoms {
				if !atomSeen[a][bit] {
					atomSeen[a][bit] = true
					atomBits[a] = append(atomBits[a], bit)
				}
			}
		}
	}
	for _, bits := range atomBits {
		sort.Slice(bits, func(x, y int) bool { return bits[x] < bits[y] })
	}
	return fp, atomBits
}

//Personal.AI order the ending
