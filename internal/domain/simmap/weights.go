// Package simmap computes atomic similarity maps: the contribution of every
// probe atom to the fingerprint similarity with a reference molecule, or to a
// fingerprint-based model prediction, and the 2D gaussian depiction of those
// contributions.
package simmap

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sj-huang/rdkit-m/internal/chem"
	"github.com/sj-huang/rdkit-m/internal/chem/fingerprint"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// PredictFunc scores a fingerprint, typically with a trained model.
type PredictFunc func(fp fingerprint.Fingerprint) (float64, error)

type weightsConfig struct {
	metric      fingerprint.Metric
	concurrency int
}

// WeightsOption customises a weights computation.
type WeightsOption func(*weightsConfig)

// WithMetric selects the similarity metric. The default is Dice.
func WithMetric(m fingerprint.Metric) WeightsOption {
	return func(c *weightsConfig) {
		if m != nil {
			c.metric = m
		}
	}
}

// WithConcurrency bounds the number of atoms evaluated at once.
// The default is runtime.GOMAXPROCS(0).
func WithConcurrency(n int) WeightsOption {
	return func(c *weightsConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func newWeightsConfig(opts []WeightsOption) weightsConfig {
	cfg := weightsConfig{
		metric:      fingerprint.DiceSimilarity,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// GetAtomicWeightsForFingerprint returns, for every atom i of probe,
// metric(ref, probe) - metric(ref, probe without atom i).
func GetAtomicWeightsForFingerprint(ctx context.Context, ref, probe *chem.Molecule, fpFn FingerprintFunc, opts ...WeightsOption) ([]float64, error) {
	if fpFn == nil {
		return nil, errors.InvalidParam("fingerprint function is required")
	}
	if ref == nil || probe == nil || ref.NumAtoms() == 0 || probe.NumAtoms() == 0 {
		return nil, errors.New(errors.ErrCodeMoleculeEmpty, "reference and probe molecules are required")
	}
	cfg := newWeightsConfig(opts)

	refFP, err := fpFn(ref, -1)
	if err != nil {
		return nil, wrapWeightsErr(err, "reference fingerprint")
	}
	probeFP, err := fpFn(probe, -1)
	if err != nil {
		return nil, wrapWeightsErr(err, "probe fingerprint")
	}
	base, err := cfg.metric(refFP, probeFP)
	if err != nil {
		return nil, err
	}

	return perAtom(ctx, probe.NumAtoms(), cfg.concurrency, func(i int) (float64, error) {
		fp, err := fpFn(probe, i)
		if err != nil {
			return 0, wrapWeightsErr(err, "probe fingerprint without atom")
		}
		sim, err := cfg.metric(refFP, fp)
		if err != nil {
			return 0, err
		}
		return base - sim, nil
	})
}

// GetAtomicWeightsForModel returns, for every atom i of probe,
// predict(probe) - predict(probe without atom i).
func GetAtomicWeightsForModel(ctx context.Context, probe *chem.Molecule, fpFn FingerprintFunc, predict PredictFunc, opts ...WeightsOption) ([]float64, error) {
	if fpFn == nil || predict == nil {
		return nil, errors.InvalidParam("fingerprint function and predict function are required")
	}
	if probe == nil || probe.NumAtoms() == 0 {
		return nil, errors.New(errors.ErrCodeMoleculeEmpty, "probe molecule is required")
	}
	cfg := newWeightsConfig(opts)

	probeFP, err := fpFn(probe, -1)
	if err != nil {
		return nil, wrapWeightsErr(err, "probe fingerprint")
	}
	base, err := predict(probeFP)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelInvalid, "model prediction failed")
	}

	return perAtom(ctx, probe.NumAtoms(), cfg.concurrency, func(i int) (float64, error) {
		fp, err := fpFn(probe, i)
		if err != nil {
			return 0, wrapWeightsErr(err, "probe fingerprint without atom")
		}
		p, err := predict(fp)
		if err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeModelInvalid, "model prediction failed")
		}
		return base - p, nil
	})
}

// perAtom evaluates fn for 0..n-1 with at most limit goroutines. The first
// error cancels the remaining atoms.
func perAtom(ctx context.Context, n, limit int, fn func(i int) (float64, error)) ([]float64, error) {
	weights := make([]float64, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := fn(i)
			if err != nil {
				return err
			}
			weights[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return weights, nil
}

// wrapWeightsErr keeps AppErrors untouched and labels anything else.
func wrapWeightsErr(err error, what string) error {
	if errors.GetCode(err) != errors.CodeUnknown {
		return err
	}
	return errors.Wrap(err, errors.ErrCodeFingerprintGenerationFailed, what+" failed")
}

// GetStandardizedWeights divides weights by their largest magnitude and
// returns that magnitude. All-zero weights are returned unchanged with 0.
func GetStandardizedWeights(weights []float64) ([]float64, float64) {
	maxAbs := 0.0
	for _, w := range weights {
		maxAbs = math.Max(maxAbs, math.Abs(w))
	}
	out := make([]float64, len(weights))
	if maxAbs == 0 {
		copy(out, weights)
		return out, 0
	}
	for i, w := range weights {
		out[i] = w / maxAbs
	}
	return out, maxAbs
}

//Personal.AI order the ending
