package simmap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sj-huang/rdkit-m/internal/chem/fingerprint"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// referenceSpec is the fingerprint stored in the reference library.
var referenceSpec = domain.Spec{
	Type:   domain.FamilyMorgan,
	FPType: domain.FPTypeBitVect,
	NBits:  referenceVectorLen,
	Radius: lo.ToPtr(domain.DefaultMorganRadius),
}

// referenceVector packs the library fingerprint of smiles.
func (s *serviceImpl) referenceVector(role, smiles string) ([]byte, error) {
	mol, err := parseMolecule(role, smiles)
	if err != nil {
		return nil, err
	}
	fpFn, err := referenceSpec.Func(s.fp)
	if err != nil {
		return nil, err
	}
	fp, err := fpFn(mol, -1)
	if err != nil {
		return nil, err
	}
	bv, ok := fp.(*fingerprint.BitVect)
	if !ok {
		return nil, errors.New(errors.ErrCodeFingerprintGenerationFailed, "reference fingerprint is not a bit vector")
	}
	return bv.Bytes(), nil
}

func (s *serviceImpl) RegisterReferences(ctx context.Context, inputs []ReferenceInput) ([]*domain.Reference, error) {
	if s.references == nil {
		return nil, disabled("reference library")
	}
	if len(inputs) == 0 {
		return nil, errors.InvalidParam("at least one reference is required")
	}

	refs := make([]*domain.Reference, 0, len(inputs))
	for i, in := range inputs {
		smiles := strings.TrimSpace(in.SMILES)
		vec, err := s.referenceVector(fmt.Sprintf("reference %d", i), smiles)
		if err != nil {
			return nil, err
		}
		refs = append(refs, &domain.Reference{
			Name:   lo.Ternary(in.Name == "", smiles, in.Name),
			SMILES: smiles,
			Vector: vec,
		})
	}
	refs = lo.UniqBy(refs, func(r *domain.Reference) string { return r.SMILES })

	if err := s.references.Upsert(ctx, refs); err != nil {
		s.recordError(err)
		return nil, err
	}
	s.logger.Info("Registered reference molecules", logging.Int("count", len(refs)))
	return refs, nil
}

func (s *serviceImpl) NearestReferences(ctx context.Context, smiles string, k int) ([]domain.ReferenceMatch, error) {
	if s.references == nil {
		return nil, disabled("reference library")
	}
	if k <= 0 {
		k = defaultNearestK
	}
	vec, err := s.referenceVector("probe", smiles)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	matches, err := s.references.Nearest(ctx, vec, k)
	if s.metrics != nil {
		s.metrics.ReferenceSearchDuration.WithLabelValues(referenceBackend).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.recordError(err)
		return nil, err
	}
	return lo.Ternary(matches == nil, []domain.ReferenceMatch{}, matches), nil
}

// GenerateMapAgainstNearest fills req.Reference with the closest library
// molecule to req.Probe and generates a fingerprint map against it.
func (s *serviceImpl) GenerateMapAgainstNearest(ctx context.Context, req *domain.MapRequest) (*MapResult, *domain.ReferenceMatch, error) {
	if req == nil {
		return nil, nil, errors.InvalidParam("map request is required")
	}
	matches, err := s.NearestReferences(ctx, req.Probe, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(matches) == 0 {
		return nil, nil, errors.New(errors.ErrCodeReferenceNotFound, "reference library is empty")
	}
	best := matches[0]

	nreq := *req
	nreq.Kind = domain.KindFingerprint
	nreq.Model = nil
	nreq.Reference = best.SMILES
	if nreq.Label == "" {
		nreq.Label = "nearest:" + best.Name
	}
	res, err := s.GenerateMap(ctx, &nreq)
	if err != nil {
		return nil, nil, err
	}
	return res, &best, nil
}

//Personal.AI order the ending
