// Package chem holds the in-memory molecule graph, the SMILES reader and the
// perception steps (implicit hydrogens, ring membership, stereo labels) that
// the fingerprint and similarity-map code build on.
//
// A *Molecule is immutable once returned by ParseSMILES and is safe for
// concurrent readers.
package chem

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BondType is the bond order. Values match the codes hashed into fingerprints.
type BondType uint8

const (
	BondSingle   BondType = 1
	BondDouble   BondType = 2
	BondTriple   BondType = 3
	BondAromatic BondType = 12
)

// Order returns the valence contribution of the bond. Aromatic bonds count as one;
// the extra pi electron is accounted for on the atom.
func (t BondType) Order() int {
	switch t {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	default:
		return 1
	}
}

func (t BondType) String() string {
	switch t {
	case BondSingle:
		return "single"
	case BondDouble:
		return "double"
	case BondTriple:
		return "triple"
	case BondAromatic:
		return "aromatic"
	}
	return fmt.Sprintf("BondType(%d)", uint8(t))
}

// BondDir records the '/' and '\' markers of a single bond.
type BondDir uint8

const (
	BondDirNone BondDir = iota
	BondDirUp
	BondDirDown
)

// ChiralTag is the tetrahedral marker written in the SMILES.
type ChiralTag uint8

const (
	ChiralNone ChiralTag = iota
	// ChiralCCW is '@': looking from the first neighbour the rest are anticlockwise.
	ChiralCCW
	// ChiralCW is '@@'.
	ChiralCW
)

// CIPLabel is the perceived R/S label of a stereocentre.
type CIPLabel uint8

const (
	CIPNone CIPLabel = 0
	CIPR    CIPLabel = 1
	CIPS    CIPLabel = 2
)

func (l CIPLabel) String() string {
	switch l {
	case CIPR:
		return "R"
	case CIPS:
		return "S"
	}
	return ""
}

// Atom is a heavy atom of the graph. Hydrogens are implicit.
type Atom struct {
	Index      int
	Symbol     string
	AtomicNum  int
	Aromatic   bool
	Charge     int
	Isotope    int
	Class      int
	ExplicitHs int
	ImplicitHs int
	// Bracket is true for atoms written in [...]; they never get implicit Hs.
	Bracket bool
	Chiral  ChiralTag
	CIP     CIPLabel
	InRing  bool
}

// TotalHs returns explicit plus implicit hydrogens.
func (a Atom) TotalHs() int { return a.ExplicitHs + a.ImplicitHs }

// Bond connects two atoms.
type Bond struct {
	Index  int
	Begin  int
	End    int
	Type   BondType
	Dir    BondDir
	InRing bool
}

// Other returns the atom at the other end of the bond from atom.
func (b Bond) Other(atom int) int {
	if b.Begin == atom {
		return b.End
	}
	return b.Begin
}

// Neighbor is an adjacency entry.
type Neighbor struct {
	Atom int
	Bond int
}

// Molecule is a heavy-atom graph with perceived properties.
type Molecule struct {
	smiles string
	atoms  []Atom
	bonds  []Bond
	adj    [][]Neighbor

	// stereoOrder is the neighbour order as written, -1 standing for the
	// bracket hydrogen. Only perception reads it.
	stereoOrder [][]int

	distOnce sync.Once
	dist     [][]int
}

// SMILES returns the input string the molecule was parsed from.
func (m *Molecule) SMILES() string { return m.smiles }

// NumAtoms returns the number of heavy atoms.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds between heavy atoms.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// Atom returns atom i. It panics when i is out of range, like a slice index.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Bond returns bond i.
func (m *Molecule) Bond(i int) Bond { return m.bonds[i] }

// Atoms returns a copy of the atom list.
func (m *Molecule) Atoms() []Atom {
	out := make([]Atom, len(m.atoms))
	copy(out, m.atoms)
	return out
}

// Bonds returns a copy of the bond list.
func (m *Molecule) Bonds() []Bond {
	out := make([]Bond, len(m.bonds))
	copy(out, m.bonds)
	return out
}

// Neighbors returns the adjacency of atom i in bond creation order.
// The returned slice must not be modified.
func (m *Molecule) Neighbors(i int) []Neighbor { return m.adj[i] }

// Degree returns the number of heavy-atom neighbours of atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// BondBetween returns the bond joining i and j.
func (m *Molecule) BondBetween(i, j int) (Bond, bool) {
	for _, nb := range m.adj[i] {
		if nb.Atom == j {
			return m.bonds[nb.Bond], true
		}
	}
	return Bond{}, false
}

// ValenceSum returns the sum of bond orders around atom i, ignoring hydrogens.
func (m *Molecule) ValenceSum(i int) int {
	v := 0
	for _, nb := range m.adj[i] {
		v += m.bonds[nb.Bond].Type.Order()
	}
	return v
}

// Distance returns the number of bonds on the shortest path between i and j,
// or -1 when they are in different fragments.
func (m *Molecule) Distance(i, j int) int {
	return m.DistanceMatrix()[i][j]
}

// DistanceMatrix returns the topological distance matrix. It is computed once
// and shared; callers must not modify it.
func (m *Molecule) DistanceMatrix() [][]int {
	m.distOnce.Do(func() {
		n := len(m.atoms)
		m.dist = make([][]int, n)
		queue := make([]int, 0, n)
		for src := 0; src < n; src++ {
			row := make([]int, n)
			for k := range row {
				row[k] = -1
			}
			row[src] = 0
			queue = append(queue[:0], src)
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				for _, nb := range m.adj[cur] {
					if row[nb.Atom] < 0 {
						row[nb.Atom] = row[cur] + 1
						queue = append(queue, nb.Atom)
					}
				}
			}
			m.dist[src] = row
		}
	})
	return m.dist
}

// EnvironmentOfRadius returns the sorted indices of the bonds reachable from
// atom within radius steps. When the environment stops growing before radius
// is reached the result is empty, so every non-empty result has exactly the
// requested radius.
func (m *Molecule) EnvironmentOfRadius(atom, radius int) []int {
	if radius <= 0 || atom < 0 || atom >= len(m.atoms) {
		return nil
	}
	inEnv := make(map[int]bool)
	seen := map[int]bool{atom: true}
	frontier := []int{atom}
	for step := 0; step < radius; step++ {
		var next []int
		grew := false
		for _, a := range frontier {
			for _, nb := range m.adj[a] {
				if !inEnv[nb.Bond] {
					inEnv[nb.Bond] = true
					grew = true
				}
				if !seen[nb.Atom] {
					seen[nb.Atom] = true
					next = append(next, nb.Atom)
				}
			}
		}
		if !grew {
			return nil
		}
		frontier = next
	}
	out := make([]int, 0, len(inEnv))
	for b := range inEnv {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// AtomsOfBonds returns the sorted, de-duplicated atoms touched by bonds.
func (m *Molecule) AtomsOfBonds(bonds []int) []int {
	set := make(map[int]struct{}, len(bonds)*2)
	for _, b := range bonds {
		set[m.bonds[b].Begin] = struct{}{}
		set[m.bonds[b].End] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Ints(out)
	return out
}

// Fragments returns the connected components as sorted atom index lists.
func (m *Molecule) Fragments() [][]int {
	d := m.DistanceMatrix()
	assigned := make([]bool, len(m.atoms))
	var frags [][]int
	for i := range m.atoms {
		if assigned[i] {
			continue
		}
		var frag []int
		for j := range m.atoms {
			if d[i][j] >= 0 {
				assigned[j] = true
				frag = append(frag, j)
			}
		}
		frags = append(frags, frag)
	}
	return frags
}

// Formula returns a Hill-order molecular formula including implicit hydrogens.
func (m *Molecule) Formula() string {
	counts := make(map[string]int)
	hs := 0
	for _, a := range m.atoms {
		counts[a.Symbol]++
		hs += a.TotalHs()
	}
	if hs > 0 {
		counts["H"] += hs
	}

	var sb strings.Builder
	write := func(sym string) {
		n := counts[sym]
		if n == 0 {
			return
		}
		sb.WriteString(sym)
		if n > 1 {
			fmt.Fprintf(&sb, "%d", n)
		}
		delete(counts, sym)
	}
	if counts["C"] > 0 {
		write("C")
		write("H")
	}
	rest := make([]string, 0, len(counts))
	for sym := range counts {
		rest = append(rest, sym)
	}
	sort.Strings(rest)
	for _, sym := range rest {
		write(sym)
	}
	return sb.String()
}

//Personal.AI order the ending
