package fingerprint

import (
	"math"
	"sort"
	"strings"

	apperrors "github.com/sj-huang/rdkit-m/pkg/errors"
)

// Metric scores two fingerprints of the same kind and length.
type Metric func(a, b Fingerprint) (float64, error)

// Metric names accepted by MetricByName.
const (
	MetricDice          = "dice"
	MetricTanimoto      = "tanimoto"
	MetricCosine        = "cosine"
	MetricSokal         = "sokal"
	MetricRussel        = "russel"
	MetricKulczynski    = "kulczynski"
	MetricMcConnaughey  = "mcconnaughey"
	MetricBraunBlanquet = "braunblanquet"
	MetricAsymmetric    = "asymmetric"
)

var metricsByName = map[string]Metric{
	MetricDice:          DiceSimilarity,
	MetricTanimoto:      TanimotoSimilarity,
	MetricCosine:        CosineSimilarity,
	MetricSokal:         SokalSimilarity,
	MetricRussel:        RusselSimilarity,
	MetricKulczynski:    KulczynskiSimilarity,
	MetricMcConnaughey:  McConnaugheySimilarity,
	MetricBraunBlanquet: BraunBlanquetSimilarity,
	MetricAsymmetric:    AsymmetricSimilarity,
}

// MetricByName resolves a case-insensitive metric name. The empty name is Dice.
func MetricByName(name string) (Metric, error) {
	if name == "" {
		return DiceSimilarity, nil
	}
	m, ok := metricsByName[strings.ToLower(name)]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeMetricUnsupported, "unsupported similarity metric").
			WithDetailf("metric %q; expected one of %s", name, strings.Join(MetricNames(), ", "))
	}
	return m, nil
}

// MetricNames lists the registered metric names in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(metricsByName))
	for n := range metricsByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared plumbing
// ─────────────────────────────────────────────────────────────────────────────

func incompatible(a, b Fingerprint) error {
	return apperrors.New(apperrors.ErrCodeFingerprintIncompatible, "fingerprints are not comparable").
		WithDetailf("%s/%d vs %s/%d", kindOf(a), lengthOf(a), kindOf(b), lengthOf(b))
}

func kindOf(f Fingerprint) string {
	if f == nil {
		return "nil"
	}
	return f.Kind().String()
}

func lengthOf(f Fingerprint) uint64 {
	if f == nil {
		return 0
	}
	return f.Length()
}

// bitCounts returns |a|, |b| and |a∩b| for two compatible bit vectors.
func bitCounts(a, b Fingerprint) (float64, float64, float64, error) {
	va, okA := a.(*BitVect)
	vb, okB := b.(*BitVect)
	if okA && okB && va != nil && vb != nil && va.n == vb.n {
		return float64(va.Count()), float64(vb.Count()), float64(va.intersectionCount(vb)), nil
	}
	if _, _, ok := countVectors(a, b); ok {
		return 0, 0, 0, apperrors.New(apperrors.ErrCodeMetricUnsupported, "metric is defined on bit vectors only").
			WithDetailf("got %s", kindOf(a))
	}
	return 0, 0, 0, incompatible(a, b)
}

func countVectors(a, b Fingerprint) (*SparseIntVect, *SparseIntVect, bool) {
	va, okA := a.(*SparseIntVect)
	vb, okB := b.(*SparseIntVect)
	if !okA || !okB || va == nil || vb == nil || va.length != vb.length {
		return nil, nil, false
	}
	return va, vb, true
}

// countSums returns Σa, Σb and Σmin(a,b).
func countSums(a, b *SparseIntVect) (float64, float64, float64) {
	var sa, sb, common int
	for k, ca := range a.counts {
		sa += ca
		if cb, ok := b.counts[k]; ok {
			if cb < ca {
				common += cb
			} else {
				common += ca
			}
		}
	}
	for _, cb := range b.counts {
		sb += cb
	}
	return float64(sa), float64(sb), float64(common)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics defined on both kinds
// ─────────────────────────────────────────────────────────────────────────────

// DiceSimilarity is 2c/(a+b); on counts c is Σmin and a, b are totals.
func DiceSimilarity(a, b Fingerprint) (float64, error) {
	if ca, cb, ok := countVectors(a, b); ok {
		sa, sb, common := countSums(ca, cb)
		return ratio(2*common, sa+sb), nil
	}
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(2*c, na+nb), nil
}

// TanimotoSimilarity is c/(a+b-c).
func TanimotoSimilarity(a, b Fingerprint) (float64, error) {
	if ca, cb, ok := countVectors(a, b); ok {
		sa, sb, common := countSums(ca, cb)
		return ratio(common, sa+sb-common), nil
	}
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c, na+nb-c), nil
}

// CosineSimilarity is c/sqrt(ab) on bits and the normalised dot product on counts.
func CosineSimilarity(a, b Fingerprint) (float64, error) {
	if ca, cb, ok := countVectors(a, b); ok {
		var dot, qa, qb float64
		for k, x := range ca.counts {
			qa += float64(x * x)
			if y, ok := cb.counts[k]; ok {
				dot += float64(x * y)
			}
		}
		for _, y := range cb.counts {
			qb += float64(y * y)
		}
		return ratio(dot, math.Sqrt(qa*qb)), nil
	}
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c, math.Sqrt(na*nb)), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bit-vector-only metrics
// ─────────────────────────────────────────────────────────────────────────────

// SokalSimilarity is c/(2a+2b-3c).
func SokalSimilarity(a, b Fingerprint) (float64, error) {
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c, 2*na+2*nb-3*c), nil
}

// RusselSimilarity is c/n.
func RusselSimilarity(a, b Fingerprint) (float64, error) {
	_, _, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c, float64(a.Length())), nil
}

// KulczynskiSimilarity is c(a+b)/(2ab).
func KulczynskiSimilarity(a, b Fingerprint) (float64, error) {
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c*(na+nb), 2*na*nb), nil
}

// McConnaugheySimilarity is (c(a+b)-ab)/(ab), ranging over [-1, 1].
func McConnaugheySimilarity(a, b Fingerprint) (float64, error) {
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c*(na+nb)-na*nb, na*nb), nil
}

// BraunBlanquetSimilarity is c/max(a,b).
func BraunBlanquetSimilarity(a, b Fingerprint) (float64, error) {
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c, math.Max(na, nb)), nil
}

// AsymmetricSimilarity is c/min(a,b).
func AsymmetricSimilarity(a, b Fingerprint) (float64, error) {
	na, nb, c, err := bitCounts(a, b)
	if err != nil {
		return 0, err
	}
	return ratio(c, math.Min(na, nb)), nil
}

//Personal.AI order the ending
