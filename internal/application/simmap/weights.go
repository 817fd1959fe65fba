package simmap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/sj-huang/rdkit-m/internal/chem/fingerprint"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

const (
	sourceFingerprint = "fingerprint"
	sourceModel       = "model"
)

// computingCache is implemented by caches that collapse concurrent misses
// for the same key into one computation.
type computingCache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]float64, error)) ([]float64, bool, error)
}

// WeightsKey derives the cache key of a fingerprint weight computation.
func WeightsKey(reference, probe string, spec domain.Spec, metric string) string {
	h := xxh3.HashString(strings.Join([]string{sourceFingerprint, reference, probe, spec.String(), strings.ToLower(metric)}, "\x00"))
	return fmt.Sprintf("fp:%016x", h)
}

// ModelWeightsKey derives the cache key of a model weight computation.
func ModelWeightsKey(probe string, spec domain.Spec, model []byte) string {
	h := xxh3.HashString(strings.Join([]string{sourceModel, probe, spec.String(), string(model)}, "\x00"))
	return fmt.Sprintf("model:%016x", h)
}

func (s *serviceImpl) ComputeWeights(ctx context.Context, input *WeightsInput) (*WeightsResult, error) {
	if input == nil {
		return nil, errors.InvalidParam("weights input is required")
	}
	ref, err := parseMolecule("reference", input.Reference)
	if err != nil {
		return nil, err
	}
	probe, err := parseMolecule("probe", input.Probe)
	if err != nil {
		return nil, err
	}
	spec := s.spec(input.Spec)
	fpFn, err := spec.Func(s.fp)
	if err != nil {
		return nil, err
	}
	metricName := s.metricName(input.Metric)
	metric, err := fingerprint.MetricByName(metricName)
	if err != nil {
		return nil, err
	}

	key := WeightsKey(ref.SMILES(), probe.SMILES(), spec, metricName)
	weights, cached, err := s.cachedWeights(ctx, key, func(ctx context.Context) ([]float64, error) {
		start := time.Now()
		w, err := domain.GetAtomicWeightsForFingerprint(ctx, ref, probe, fpFn, s.weightsOptions(metric)...)
		if err != nil {
			return nil, err
		}
		prometheus.RecordWeights(s.metrics, sourceFingerprint, probe.NumAtoms(), time.Since(start))
		return w, nil
	})
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	res := s.Standardize(weights)
	res.Fingerprint = spec.String()
	res.Metric = metricName
	res.Cached = cached
	return res, nil
}

func (s *serviceImpl) ComputeModelWeights(ctx context.Context, input *ModelWeightsInput) (*WeightsResult, error) {
	if input == nil || input.Model == nil {
		return nil, errors.New(errors.ErrCodeModelInvalid, "model is required")
	}
	probe, err := parseMolecule("probe", input.Probe)
	if err != nil {
		return nil, err
	}
	model, err := input.Model.Build()
	if err != nil {
		return nil, err
	}
	spec := s.spec(input.Spec)
	fpFn, err := spec.Func(s.fp)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(input.Model)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode model")
	}

	key := ModelWeightsKey(probe.SMILES(), spec, encoded)
	weights, cached, err := s.cachedWeights(ctx, key, func(ctx context.Context) ([]float64, error) {
		start := time.Now()
		w, err := domain.GetAtomicWeightsForModel(ctx, probe, fpFn, model.Predict, s.weightsOptions(nil)...)
		if err != nil {
			return nil, err
		}
		prometheus.RecordWeights(s.metrics, sourceModel, probe.NumAtoms(), time.Since(start))
		return w, nil
	})
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	res := s.Standardize(weights)
	res.Fingerprint = spec.String()
	res.Cached = cached
	return res, nil
}

// Standardize scales weights into [-1, 1].
func (s *serviceImpl) Standardize(weights []float64) *WeightsResult {
	std, maxWeight := domain.GetStandardizedWeights(weights)
	return &WeightsResult{
		Weights:      append([]float64{}, weights...),
		Standardized: std,
		MaxWeight:    maxWeight,
	}
}

// cachedWeights consults the weights cache around compute. Without a cache
// compute runs directly; cache errors never fail the computation.
func (s *serviceImpl) cachedWeights(ctx context.Context, key string, compute func(ctx context.Context) ([]float64, error)) ([]float64, bool, error) {
	if s.cache == nil {
		w, err := compute(ctx)
		return w, false, err
	}

	if cc, ok := s.cache.(computingCache); ok {
		w, hit, err := cc.GetOrCompute(ctx, key, s.cacheTTL(), compute)
		if err == nil {
			prometheus.RecordCacheAccess(s.metrics, weightsCacheLabel, hit)
		}
		return w, hit, err
	}

	w, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Weights cache read failed", logging.String("key", key), logging.Err(err))
	}
	prometheus.RecordCacheAccess(s.metrics, weightsCacheLabel, hit && err == nil)
	if hit && err == nil {
		return w, true, nil
	}

	w, err = compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, key, w, s.cacheTTL()); err != nil {
		s.logger.Warn("Weights cache write failed", logging.String("key", key), logging.Err(err))
	}
	return w, false, nil
}

//Personal.AI order the ending
