package chem

import (
	"sort"

	apperrors "github.com/sj-huang/rdkit-m/pkg/errors"
)

// perceive fills in ring flags, implicit hydrogens and stereo labels.
func perceive(m *Molecule) error {
	markRings(m)
	for i := range m.atoms {
		a := &m.atoms[i]
		if a.Aromatic && !a.InRing {
			return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
				WithDetailf("aromatic atom %d (%s) is not in a ring", i, a.Symbol)
		}
		if !a.Bracket {
			a.ImplicitHs = implicitHydrogens(m, i)
		}
	}
	if err := checkValences(m); err != nil {
		return err
	}
	if !kekulizable(m) {
		return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
			WithDetail("aromatic system cannot be kekulized")
	}
	assignStereoLabels(m)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Rings
// ─────────────────────────────────────────────────────────────────────────────

// markRings flags every bond that is not a bridge, and every atom touching one.
func markRings(m *Molecule) {
	n := len(m.atoms)
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	bridge := make([]bool, len(m.bonds))
	timer := 0

	var visit func(u, parentBond int)
	visit = func(u, parentBond int) {
		disc[u] = timer
		low[u] = timer
		timer++
		for _, nb := range m.adj[u] {
			if nb.Bond == parentBond {
				continue
			}
			if disc[nb.Atom] < 0 {
				visit(nb.Atom, nb.Bond)
				if low[nb.Atom] < low[u] {
					low[u] = low[nb.Atom]
				}
				if low[nb.Atom] > disc[u] {
					bridge[nb.Bond] = true
				}
			} else if disc[nb.Atom] < low[u] {
				low[u] = disc[nb.Atom]
			}
		}
	}
	for i := 0; i < n; i++ {
		if disc[i] < 0 {
			visit(i, -1)
		}
	}

	for bi := range m.bonds {
		if bridge[bi] {
			continue
		}
		b := &m.bonds[bi]
		b.InRing = true
		m.atoms[b.Begin].InRing = true
		m.atoms[b.End].InRing = true
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Hydrogens
// ─────────────────────────────────────────────────────────────────────────────

func implicitHydrogens(m *Molecule, i int) int {
	a := m.atoms[i]
	el, ok := elementByNum[a.AtomicNum]
	if !ok || len(el.Valences) == 0 {
		return 0
	}
	sum := m.ValenceSum(i)

	if a.Aromatic {
		vmin := el.Valences[0]
		pi := 1
		if sum+1 > vmin {
			pi = 0
		}
		if h := vmin - sum - pi; h > 0 {
			return h
		}
		return 0
	}

	for _, v := range el.Valences {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Sanitization
// ─────────────────────────────────────────────────────────────────────────────

// allowedValences returns the valences of the element isoelectronic with the
// charged atom, so N+ follows C and O- follows F. Nil means unconstrained.
func allowedValences(a Atom) []int {
	el, ok := elementByNum[a.AtomicNum-a.Charge]
	if !ok {
		return nil
	}
	return el.Valences
}

func checkValences(m *Molecule) error {
	for i, a := range m.atoms {
		vals := allowedValences(a)
		if len(vals) == 0 {
			continue
		}
		if v, limit := m.ValenceSum(i)+a.TotalHs(), vals[len(vals)-1]; v > limit {
			return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
				WithDetailf("explicit valence %d for atom %d (%s) exceeds %d", v, i, a.Symbol, limit)
		}
	}
	return nil
}

// kekulizable reports whether every aromatic atom short of its next allowed
// valence can take one double bond to an aromatic ring neighbour, with no
// atom taking two.
func kekulizable(m *Molecule) bool {
	n := len(m.atoms)
	need := make([]bool, n)
	free := make([]bool, n)
	for i, a := range m.atoms {
		if !a.Aromatic {
			continue
		}
		vals := allowedValences(a)
		if len(vals) == 0 {
			free[i] = true
			continue
		}
		cur := m.ValenceSum(i) + a.TotalHs()
		for _, v := range vals {
			if v >= cur {
				need[i] = v > cur
				break
			}
		}
		free[i] = need[i]
	}

	matched := make([]bool, n)
	partner := func(nb Neighbor) bool {
		b := m.bonds[nb.Bond]
		return b.Type == BondAromatic && b.InRing && free[nb.Atom] && !matched[nb.Atom]
	}

	var match func() bool
	match = func() bool {
		// Most constrained atom first.
		best, fewest := -1, 0
		for i := range need {
			if !need[i] || matched[i] {
				continue
			}
			cnt := 0
			for _, nb := range m.adj[i] {
				if partner(nb) {
					cnt++
				}
			}
			if best < 0 || cnt < fewest {
				best, fewest = i, cnt
			}
			if cnt == 0 {
				return false
			}
		}
		if best < 0 {
			return true
		}
		matched[best] = true
		for _, nb := range m.adj[best] {
			if !partner(nb) {
				continue
			}
			matched[nb.Atom] = true
			if match() {
				return true
			}
			matched[nb.Atom] = false
		}
		matched[best] = false
		return false
	}
	return match()
}

// ─────────────────────────────────────────────────────────────────────────────
// Stereo
// ─────────────────────────────────────────────────────────────────────────────

// connectivityRanks returns a rank per atom from iterated neighbour refinement.
// Higher rank means higher priority; hydrogens implicitly rank 0.
func connectivityRanks(m *Molecule) []int {
	n := len(m.atoms)
	keys := make([][]int, n)
	for i, a := range m.atoms {
		keys[i] = []int{a.AtomicNum, a.Isotope}
	}
	ranks, classes := denseRanks(keys)

	for iter := 0; iter < n; iter++ {
		for i := range m.atoms {
			nbrs := make([]int, 0, len(m.adj[i])+4)
			for _, nb := range m.adj[i] {
				for k := 0; k < m.bonds[nb.Bond].Type.Order(); k++ {
					nbrs = append(nbrs, ranks[nb.Atom])
				}
			}
			for k := 0; k < m.atoms[i].TotalHs(); k++ {
				nbrs = append(nbrs, 0)
			}
			sort.Sort(sort.Reverse(sort.IntSlice(nbrs)))
			keys[i] = append([]int{ranks[i]}, nbrs...)
		}
		next, nextClasses := denseRanks(keys)
		ranks = next
		if nextClasses == classes {
			break
		}
		classes = nextClasses
	}
	return ranks
}

// denseRanks ranks keys lexicographically starting at 1.
func denseRanks(keys [][]int) ([]int, int) {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return lessInts(keys[idx[a]], keys[idx[b]]) })

	ranks := make([]int, len(keys))
	rank := 0
	for k, i := range idx {
		if k == 0 || lessInts(keys[idx[k-1]], keys[i]) {
			rank++
		}
		ranks[i] = rank
	}
	return ranks, rank
}

func lessInts(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// assignStereoLabels sets CIP on tetrahedral centres whose four substituents
// have distinct ranks.
func assignStereoLabels(m *Molecule) {
	var ranks []int
	for i := range m.atoms {
		a := &m.atoms[i]
		if a.Chiral == ChiralNone || len(m.stereoOrder[i]) != 4 {
			continue
		}
		if ranks == nil {
			ranks = connectivityRanks(m)
		}

		pri := make([]int, 4)
		for k, nb := range m.stereoOrder[i] {
			if nb >= 0 {
				pri[k] = ranks[nb]
			}
		}
		if !allDistinct(pri) {
			continue
		}

		inversions := 0
		for x := 0; x < 4; x++ {
			for y := x + 1; y < 4; y++ {
				if pri[x] < pri[y] {
					inversions++
				}
			}
		}
		tag := a.Chiral
		if inversions%2 == 1 {
			if tag == ChiralCCW {
				tag = ChiralCW
			} else {
				tag = ChiralCCW
			}
		}
		// Neighbours are now in descending priority order.
		if tag == ChiralCCW {
			a.CIP = CIPS
		} else {
			a.CIP = CIPR
		}
	}
}

func allDistinct(v []int) bool {
	for i := range v {
		for j := i + 1; j < len(v); j++ {
			if v[i] == v[j] {
				return false
			}
		}
	}
	return true
}

//Personal.AI order the ending
