package fingerprint

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/sj-huang/rdkit-m/internal/chem"
)

// AtomEnvironment is the circular neighbourhood of Radius bonds centred on Atom.
type AtomEnvironment struct {
	Atom   int `json:"atom"`
	Radius int `json:"radius"`
}

// BitInfo maps a folded bit to the environments that set it.
type BitInfo map[uint32][]AtomEnvironment

// MorganOptions configures the circular fingerprint.
type MorganOptions struct {
	Radius int
	// UseFeatures replaces the connectivity invariants with pharmacophoric flags.
	UseFeatures bool
	// UseChirality mixes the CIP label of stereocentres into every layer.
	UseChirality bool
}

// MorganEnvironments returns the surviving environments of mol keyed by their
// unfolded 32-bit identifier. An environment is dropped when an environment with
// the same bond set was already emitted, at this or a smaller radius.
func MorganEnvironments(mol *chem.Molecule, opts MorganOptions) map[uint32][]AtomEnvironment {
	n := mol.NumAtoms()
	out := make(map[uint32][]AtomEnvironment)
	if n == 0 {
		return out
	}

	inv := initialInvariants(mol, opts.UseFeatures)
	for i, code := range inv {
		out[code] = append(out[code], AtomEnvironment{Atom: i, Radius: 0})
	}

	nb := make([]*bitset.BitSet, n)
	for i := range nb {
		nb[i] = bitset.New(uint(mol.NumBonds()))
	}
	dead := make([]bool, n)
	seen := make(map[string]struct{})

	type row struct {
		bonds []int
		key   string
		code  uint32
		atom  int
	}

	type pair struct{ bt, inv uint32 }

	for r := 1; r <= opts.Radius; r++ {
		next := make([]uint32, n)
		nextNb := make([]*bitset.BitSet, n)
		rows := make([]row, 0, n)

		for i := 0; i < n; i++ {
			nbrs := mol.Neighbors(i)
			pairs := make([]pair, len(nbrs))
			for k, e := range nbrs {
				pairs[k] = pair{bt: uint32(mol.Bond(e.Bond).Type), inv: inv[e.Atom]}
			}
			sort.Slice(pairs, func(x, y int) bool {
				if pairs[x].bt != pairs[y].bt {
					return pairs[x].bt < pairs[y].bt
				}
				return pairs[x].inv < pairs[y].inv
			})

			seed := hashCombine(0, uint32(r-1))
			seed = hashCombine(seed, inv[i])
			for _, p := range pairs {
				seed = hashCombine(seed, p.bt)
				seed = hashCombine(seed, p.inv)
			}
			if opts.UseChirality {
				if cip := mol.Atom(i).CIP; cip != chem.CIPNone {
					seed = hashCombine(seed, uint32(cip))
				}
			}
			next[i] = seed

			env := nb[i].Clone()
			for _, e := range nbrs {
				env.Set(uint(e.Bond))
				env.InPlaceUnion(nb[e.Atom])
			}
			nextNb[i] = env

			if !dead[i] {
				bonds, key := bondSetKey(env)
				rows = append(rows, row{bonds: bonds, key: key, code: seed, atom: i})
			}
		}

		sort.Slice(rows, func(x, y int) bool {
			a, b := rows[x], rows[y]
			if c := compareInts(a.bonds, b.bonds); c != 0 {
				return c < 0
			}
			if a.code != b.code {
				return a.code < b.code
			}
			return a.atom < b.atom
		})
		for _, rw := range rows {
			if len(rw.bonds) == 0 {
				dead[rw.atom] = true
				continue
			}
			if _, dup := seen[rw.key]; dup {
				dead[rw.atom] = true
				continue
			}
			seen[rw.key] = struct{}{}
			out[rw.code] = append(out[rw.code], AtomEnvironment{Atom: rw.atom, Radius: r})
		}

		inv = next
		nb = nextNb
	}
	return out
}

func initialInvariants(mol *chem.Molecule, useFeatures bool) []uint32 {
	n := mol.NumAtoms()
	inv := make([]uint32, n)
	if useFeatures {
		for i, f := range mol.FeatureFlags() {
			inv[i] = uint32(f)
		}
		return inv
	}
	for i := 0; i < n; i++ {
		a := mol.Atom(i)
		ring := 0
		if a.InRing {
			ring = 1
		}
		inv[i] = hashInts(a.AtomicNum, mol.Degree(i), a.TotalHs(), a.Charge, a.Isotope, ring)
	}
	return inv
}

func bondSetKey(bs *bitset.BitSet) ([]int, string) {
	bonds := make([]int, 0, bs.Count())
	var sb strings.Builder
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		bonds = append(bonds, int(i))
		sb.WriteString(strconv.Itoa(int(i)))
		sb.WriteByte(',')
	}
	return bonds, sb.String()
}

func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// foldMorgan folds environment identifiers into nBits.
func foldMorgan(envs map[uint32][]AtomEnvironment, nBits uint) BitInfo {
	info := make(BitInfo, len(envs))
	for code, list := range envs {
		bit := fmix32(code) % uint32(nBits)
		info[bit] = append(info[bit], list...)
	}
	for _, list := range info {
		sort.Slice(list, func(x, y int) bool {
			if list[x].Atom != list[y].Atom {
				return list[x].Atom < list[y].Atom
			}
			return list[x].Radius < list[y].Radius
		})
	}
	return info
}

// MorganFingerprint returns the folded count fingerprint and its bit info.
// Each environment contributes one count to its bit.
func MorganFingerprint(mol *chem.Molecule, nBits uint, opts MorganOptions) (*SparseIntVect, BitInfo) {
	info := foldMorgan(MorganEnvironments(mol, opts), nBits)
	fp := NewSparseIntVect(uint64(nBits))
	for bit, list := range info {
		fp.Add(uint64(bit), len(list))
	}
	return fp, info
}

// MorganBitVect returns the folded bit fingerprint and its bit info.
func MorganBitVect(mol *chem.Molecule, nBits uint, opts MorganOptions) (*BitVect, BitInfo) {
	info := foldMorgan(MorganEnvironments(mol, opts), nBits)
	fp := NewBitVect(nBits)
	for bit := range info {
		fp.Set(uint(bit))
	}
	return fp, info
}

// AtomsOfEnvironment returns the atoms covered by env: the centre alone at
// radius zero, otherwise the atoms of its bond environment.
func AtomsOfEnvironment(mol *chem.Molecule, env AtomEnvironment) []int {
	if env.Radius == 0 {
		return []int{env.Atom}
	}
	return mol.AtomsOfBonds(mol.EnvironmentOfRadius(env.Atom, env.Radius))
}

//Personal.AI order the ending
