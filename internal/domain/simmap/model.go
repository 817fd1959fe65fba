package simmap

import (
	"strconv"

	"github.com/sj-huang/rdkit-m/internal/chem/fingerprint"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// LinearModel scores a fingerprint as Intercept + Σ coefficient(key) × value,
// where value is 1 for an on bit and the count for a count vector. Keys absent
// from Coefficients contribute nothing.
type LinearModel struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[uint64]float64 `json:"-"`
}

// NewLinearModel builds a model from coefficients keyed by decimal strings,
// the form they take in JSON requests.
func NewLinearModel(intercept float64, coefficients map[string]float64) (*LinearModel, error) {
	m := &LinearModel{Intercept: intercept, Coefficients: make(map[uint64]float64, len(coefficients))}
	for k, v := range coefficients {
		key, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeModelInvalid, "invalid model coefficient key").
				WithDetailf("key %q is not an unsigned integer", k)
		}
		m.Coefficients[key] = v
	}
	return m, nil
}

// Predict implements PredictFunc.
func (m *LinearModel) Predict(fp fingerprint.Fingerprint) (float64, error) {
	if m == nil {
		return 0, errors.New(errors.ErrCodeModelInvalid, "model is nil")
	}
	sum := m.Intercept
	switch v := fp.(type) {
	case *fingerprint.BitVect:
		for _, bit := range v.OnBits() {
			sum += m.Coefficients[uint64(bit)]
		}
	case *fingerprint.SparseIntVect:
		for key, c := range v.Counts() {
			sum += m.Coefficients[key] * float64(c)
		}
	default:
		return 0, errors.New(errors.ErrCodeFingerprintIncompatible, "model cannot score fingerprint").
			WithDetailf("%T", fp)
	}
	return sum, nil
}

// SimilarityModel predicts the similarity of a fingerprint to a fixed reference.
// Used as a model it reproduces GetAtomicWeightsForFingerprint.
func SimilarityModel(ref fingerprint.Fingerprint, metric fingerprint.Metric) PredictFunc {
	if metric == nil {
		metric = fingerprint.DiceSimilarity
	}
	return func(fp fingerprint.Fingerprint) (float64, error) {
		return metric(ref, fp)
	}
}

//Personal.AI order the ending
