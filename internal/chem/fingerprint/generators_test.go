package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/chem"
)

var (
	benzene  = chem.MustParseSMILES("c1ccccc1")
	pyridine = chem.MustParseSMILES("c1ccncc1")
)

// ─────────────────────────────────────────────────────────────────────────────
// Morgan
// ─────────────────────────────────────────────────────────────────────────────

func TestMorganEnvironments_Benzene(t *testing.T) {
	envs := MorganEnvironments(benzene, MorganOptions{Radius: 2})
	require.Len(t, envs, 3)
	for _, list := range envs {
		assert.Len(t, list, 6)
	}
}

func TestMorganBitVect_Pyridine(t *testing.T) {
	fp, info := MorganBitVect(pyridine, 2048, MorganOptions{Radius: 2})
	assert.Equal(t, []uint{11, 407, 462, 1020, 1480, 1483, 1493, 1617, 1785}, fp.OnBits())
	assert.Equal(t, []AtomEnvironment{{Atom: 3, Radius: 0}}, info[11])
	assert.Equal(t, []AtomEnvironment{{0, 0}, {1, 0}, {2, 0}, {4, 0}, {5, 0}}, info[1480])
	assert.Equal(t, []AtomEnvironment{{1, 2}, {5, 2}}, info[407])
}

func TestMorganFingerprint_Counts(t *testing.T) {
	fp, info := MorganFingerprint(benzene, 2048, MorganOptions{Radius: 2})
	assert.Equal(t, uint64(2048), fp.Length())
	assert.Equal(t, 3, fp.NumNonZero())
	assert.Equal(t, 18, fp.Total())
	assert.Equal(t, 6, fp.Get(1480))
	assert.Len(t, info, 3)
}

func TestMorgan_RadiusZero(t *testing.T) {
	fp, info := MorganBitVect(pyridine, 2048, MorganOptions{Radius: 0})
	assert.Equal(t, 2, fp.Count())
	for _, list := range info {
		for _, env := range list {
			assert.Zero(t, env.Radius)
		}
	}
}

func TestMorgan_ChainDropsDuplicateEnvironments(t *testing.T) {
	// In ethane both radius-1 environments cover the same single bond.
	envs := MorganEnvironments(chem.MustParseSMILES("CC"), MorganOptions{Radius: 2})
	total := 0
	for _, list := range envs {
		total += len(list)
	}
	assert.Equal(t, 3, total)
}

func TestMorgan_Chirality(t *testing.T) {
	left := chem.MustParseSMILES("CC[C@](F)(Cl)c1ccccc1")
	right := chem.MustParseSMILES("CC[C@@](F)(Cl)c1ccccc1")

	l, _ := MorganBitVect(left, 2048, MorganOptions{Radius: 1})
	r, _ := MorganBitVect(right, 2048, MorganOptions{Radius: 1})
	assert.True(t, l.Equal(r))

	l, _ = MorganBitVect(left, 2048, MorganOptions{Radius: 1, UseChirality: true})
	r, _ = MorganBitVect(right, 2048, MorganOptions{Radius: 1, UseChirality: true})
	assert.False(t, l.Equal(r))
}

func TestMorgan_Features(t *testing.T) {
	envs := MorganEnvironments(pyridine, MorganOptions{Radius: 0, UseFeatures: true})
	assert.Len(t, envs[uint32(chem.FeatureAromatic)], 5)
	assert.Len(t, envs[uint32(chem.FeatureAromatic|chem.FeatureAcceptor)], 1)
}

func TestAtomsOfEnvironment(t *testing.T) {
	assert.Equal(t, []int{2}, AtomsOfEnvironment(benzene, AtomEnvironment{Atom: 2}))
	assert.Equal(t, []int{0, 1, 2, 4, 5}, AtomsOfEnvironment(benzene, AtomEnvironment{Atom: 0, Radius: 2}))
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom pairs
// ─────────────────────────────────────────────────────────────────────────────

func TestAtomCode(t *testing.T) {
	// aromatic carbon, two heavy neighbours, one pi electron
	assert.Equal(t, uint32(2|1<<3|6<<5), atomCode(benzene, 0, 0, false))
	assert.Equal(t, uint32(1|1<<3|6<<5), atomCode(benzene, 0, 1, false))

	acetonitrile := chem.MustParseSMILES("CC#N")
	assert.Equal(t, uint32(1|2<<3|7<<5), atomCode(acetonitrile, 2, 0, false))

	chiral := chem.MustParseSMILES("CC[C@](F)(Cl)c1ccccc1")
	plain := atomCode(chiral, 2, 0, false)
	withLabel := atomCode(chiral, 2, 0, true)
	assert.NotEqual(t, plain, withLabel)
	assert.Equal(t, plain, withLabel&0xfff)
}

func TestAtomPairFingerprint_Benzene(t *testing.T) {
	fp := AtomPairFingerprint(benzene, AtomPairOptions{})
	assert.Equal(t, AtomPairLength, fp.Length())
	assert.Equal(t, map[uint64]int{105922762: 6, 105939146: 6, 105955530: 3}, fp.Counts())
}

func TestAtomPairFingerprint_Options(t *testing.T) {
	fp := AtomPairFingerprint(benzene, AtomPairOptions{MaxLength: 2})
	assert.Equal(t, 12, fp.Total())

	fp = AtomPairFingerprint(benzene, AtomPairOptions{MinLength: 3})
	assert.Equal(t, 3, fp.Total())

	fp = AtomPairFingerprint(benzene, AtomPairOptions{IgnoreAtoms: []int{0}})
	assert.Equal(t, 10, fp.Total())

	hashed := HashedAtomPairFingerprint(benzene, 1024, AtomPairOptions{})
	assert.Equal(t, uint64(1024), hashed.Length())
	assert.Equal(t, 15, hashed.Total())
}

func TestHashedAtomPairBitVect_CountSimulation(t *testing.T) {
	fp := HashedAtomPairBitVect(benzene, 2048, 4, AtomPairOptions{})
	assert.Equal(t, []uint{192, 193, 194, 724, 725, 964, 965, 966}, fp.OnBits())

	one := HashedAtomPairBitVect(benzene, 2048, 1, AtomPairOptions{})
	assert.Equal(t, 3, one.Count())
}

// ─────────────────────────────────────────────────────────────────────────────
// Torsions
// ─────────────────────────────────────────────────────────────────────────────

func TestTopologicalTorsion_Benzene(t *testing.T) {
	fp := TopologicalTorsionFingerprint(benzene, TorsionOptions{})
	assert.Equal(t, uint64(1)<<56, fp.Length())
	assert.Equal(t, map[uint64]int{884061039100105: 6}, fp.Counts())

	fp = TopologicalTorsionFingerprint(benzene, TorsionOptions{IgnoreAtoms: []int{0}})
	assert.Equal(t, 2, fp.Total())
}

func TestTopologicalTorsion_ChainIsCanonical(t *testing.T) {
	// both directions of a symmetric path produce one key
	fp := TopologicalTorsionFingerprint(chem.MustParseSMILES("CCCC"), TorsionOptions{})
	assert.Equal(t, 1, fp.NumNonZero())
	assert.Equal(t, 1, fp.Total())

	short := TopologicalTorsionFingerprint(chem.MustParseSMILES("CCC"), TorsionOptions{})
	assert.Zero(t, short.Total())
}

func TestTopologicalTorsion_LongPathsAreHashed(t *testing.T) {
	mol := chem.MustParseSMILES("CCCCCC")
	fp := TopologicalTorsionFingerprint(mol, TorsionOptions{TargetSize: 6})
	assert.Equal(t, TorsionLength(6), fp.Length())
	assert.Equal(t, 1, fp.Total())
}

func TestHashedTopologicalTorsion(t *testing.T) {
	fp := HashedTopologicalTorsionFingerprint(pyridine, 2048, TorsionOptions{})
	assert.Equal(t, 6, fp.Total())

	bv := HashedTopologicalTorsionBitVect(pyridine, 1024, 1, TorsionOptions{})
	assert.Positive(t, bv.Count())
	assert.LessOrEqual(t, bv.Count(), 6)
}

// ─────────────────────────────────────────────────────────────────────────────
// RDK
// ─────────────────────────────────────────────────────────────────────────────

func TestConnectedSubgraphs(t *testing.T) {
	// propane has bonds {0}, {1}, {0,1}
	subs := ConnectedSubgraphs(chem.MustParseSMILES("CCC"), 5)
	assert.ElementsMatch(t, [][]int{{0}, {1}, {0, 1}}, subs)

	// a six-ring has six connected subsets of each size 1..5 and one of size 6
	subs = ConnectedSubgraphs(benzene, 6)
	assert.Len(t, subs, 31)
	subs = ConnectedSubgraphs(benzene, 2)
	assert.Len(t, subs, 12)
}

func TestRDKFingerprint(t *testing.T) {
	fp, atomBits := RDKFingerprint(benzene, 2048, RDKOptions{MaxPath: 5})
	assert.Equal(t, 10, fp.Count())
	require.Len(t, atomBits, 6)
	for _, b := range atomBits {
		assert.Len(t, b, 10)
	}

	fp, atomBits = RDKFingerprint(pyridine, 2048, RDKOptions{MaxPath: 5})
	assert.Equal(t, 30, fp.Count())
	for _, bit := range atomBits[3] {
		assert.True(t, fp.Test(bit))
	}
	assert.IsIncreasing(t, atomBits[3])
}

func TestRDKFingerprint_MinPath(t *testing.T) {
	all, _ := RDKFingerprint(pyridine, 2048, RDKOptions{MaxPath: 5, NBitsPerHash: 1})
	long, _ := RDKFingerprint(pyridine, 2048, RDKOptions{MinPath: 3, MaxPath: 5, NBitsPerHash: 1})
	assert.Less(t, long.Count(), all.Count())
	// every long-path bit is also set when short paths are included
	assert.Zero(t, long.AndNot(all).Count())
}

//Personal.AI order the ending
