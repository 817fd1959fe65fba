package simmap

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// ValidateRequest checks req without computing anything and fills its kind.
func ValidateRequest(req *domain.MapRequest) error {
	if req == nil {
		return errors.InvalidParam("map request is required")
	}
	if req.Kind == "" {
		req.Kind = lo.Ternary(req.Model != nil, domain.KindModel, domain.KindFingerprint)
	}
	switch req.Kind {
	case domain.KindFingerprint:
		if strings.TrimSpace(req.Reference) == "" {
			return errors.InvalidParam("reference SMILES is required for fingerprint maps")
		}
	case domain.KindModel:
		if req.Model == nil {
			return errors.New(errors.ErrCodeModelInvalid, "model is required for model maps")
		}
	default:
		return errors.InvalidParam("unknown map kind").WithDetailf("kind %q; expected fingerprint or model", req.Kind)
	}
	if strings.TrimSpace(req.Probe) == "" {
		return errors.InvalidParam("probe SMILES is required")
	}
	if err := req.Options.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(req.Options.Format) {
	case "", domain.FormatPNG, domain.FormatSVG:
	default:
		return errors.New(errors.ErrCodeValidation, "unsupported image format").
			WithDetailf("format %q; expected png or svg", req.Options.Format)
	}
	return nil
}

func (s *serviceImpl) mapOptions(in domain.MapOptions) domain.MapOptions {
	if in.Size <= 0 {
		in.Size = s.defaults.Size
	}
	if in.Contours <= 0 {
		in.Contours = s.defaults.Contours
	}
	if in.Sigma <= 0 {
		in.Sigma = s.defaults.Sigma
	}
	if in.Format == "" {
		in.Format = s.defaults.RenderFmt
	}
	if in.Format == "" {
		in.Format = domain.FormatPNG
	}
	in.Format = strings.ToLower(in.Format)
	return in
}

func (s *serviceImpl) GenerateMap(ctx context.Context, req *domain.MapRequest) (*MapResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	probe, err := parseMolecule("probe", req.Probe)
	if err != nil {
		return nil, err
	}

	var weights *WeightsResult
	spec := s.spec(req.Spec)
	metric := ""
	if req.Kind == domain.KindModel {
		weights, err = s.ComputeModelWeights(ctx, &ModelWeightsInput{Probe: req.Probe, Spec: spec, Model: req.Model})
	} else {
		metric = s.metricName(req.Metric)
		weights, err = s.ComputeWeights(ctx, &WeightsInput{Reference: req.Reference, Probe: req.Probe, Spec: spec, Metric: metric})
	}
	if err != nil {
		return nil, err
	}

	opts := s.mapOptions(req.Options)
	format := opts.Format
	opts.Format = ""
	fig, err := domain.GetSimilarityMapFromWeights(probe, weights.Standardized, opts)
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	rec := &domain.MapRecord{
		ID:        common.NewID(),
		Kind:      req.Kind,
		Label:     req.Label,
		Reference: req.Reference,
		Probe:     req.Probe,
		Spec:      spec,
		Metric:    metric,
		Weights:   weights.Standardized,
		MaxWeight: weights.MaxWeight,
		CreatedAt: s.now(),
	}
	result := &MapResult{Record: rec, Figure: fig}

	if err := s.render(fig, format); err != nil {
		if !errors.IsCode(err, errors.ErrCodeRendererUnavailable) {
			s.recordError(err)
			return nil, err
		}
		s.logger.Warn("Storing similarity map without image", logging.String("id", rec.ID.String()), logging.Err(err))
	} else {
		result.Image = fig.Image
		rec.ImageFormat = format
		if s.images != nil {
			key := imageKeyPrefix + rec.ID.String() + "." + format
			if err := s.images.Put(ctx, key, fig.Image, contentTypeFor(format)); err != nil {
				s.recordError(err)
				return nil, err
			}
			rec.ImageKey = key
		}
	}

	if s.maps == nil {
		return result, nil
	}
	start := time.Now()
	err = s.maps.Save(ctx, rec)
	prometheus.RecordDBQuery(s.metrics, "save_map", time.Since(start), err)
	if err != nil {
		s.recordError(err)
		s.discardImage(ctx, rec.ImageKey)
		return nil, err
	}
	result.Persisted = true
	if s.metrics != nil {
		s.metrics.MapsStoredTotal.WithLabelValues(req.Kind).Inc()
	}

	if s.index != nil {
		if err := s.index.Index(ctx, rec); err != nil {
			s.logger.Warn("Failed to index similarity map", logging.String("id", rec.ID.String()), logging.Err(err))
		}
	}

	s.logger.Info("Generated similarity map",
		logging.String("id", rec.ID.String()),
		logging.String("kind", rec.Kind),
		logging.Int("atoms", probe.NumAtoms()),
		logging.Float64("max_weight", rec.MaxWeight),
		logging.Bool("cached", weights.Cached),
	)
	return result, nil
}

func (s *serviceImpl) render(fig *domain.Figure, format string) error {
	start := time.Now()
	if err := domain.RenderFigure(fig, s.renderer, format); err != nil {
		return err
	}
	prometheus.RecordRender(s.metrics, format, len(fig.Image), time.Since(start))
	return nil
}

func (s *serviceImpl) discardImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to remove orphaned image", logging.String("key", key), logging.Err(err))
	}
}

func (s *serviceImpl) GetMap(ctx context.Context, id common.ID) (*domain.MapRecord, error) {
	if s.maps == nil {
		return nil, disabled("map storage")
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.maps.Get(ctx, id)
}

func (s *serviceImpl) ListMaps(ctx context.Context, q domain.ListQuery) (*ListResult, error) {
	if s.maps == nil {
		return nil, disabled("map storage")
	}
	q.Pagination = q.Pagination.Normalize()
	if err := q.Pagination.Validate(); err != nil {
		return nil, err
	}
	records, total, err := s.maps.List(ctx, q)
	if err != nil {
		return nil, err
	}
	size := q.Pagination.PageSize
	return &ListResult{
		Maps:       lo.Ternary(records == nil, []*domain.MapRecord{}, records),
		Total:      total,
		Page:       q.Pagination.Page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// DeleteMap removes the record, then its image and index entry best-effort.
func (s *serviceImpl) DeleteMap(ctx context.Context, id common.ID) error {
	rec, err := s.GetMap(ctx, id)
	if err != nil {
		return err
	}
	if err := s.maps.Delete(ctx, id); err != nil {
		return err
	}
	s.discardImage(ctx, rec.ImageKey)
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			s.logger.Warn("Failed to remove similarity map from index", logging.String("id", id.String()), logging.Err(err))
		}
	}
	s.logger.Info("Deleted similarity map", logging.String("id", id.String()))
	return nil
}

// MapImage returns the stored image and its content type.
func (s *serviceImpl) MapImage(ctx context.Context, id common.ID) ([]byte, string, error) {
	rec, err := s.imageRecord(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.images.Get(ctx, rec.ImageKey)
	if err != nil {
		return nil, "", err
	}
	return data, contentTypeFor(rec.ImageFormat), nil
}

// ImageURL returns a presigned download URL for the stored image.
func (s *serviceImpl) ImageURL(ctx context.Context, id common.ID, expiry time.Duration) (string, error) {
	rec, err := s.imageRecord(ctx, id)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return s.images.PresignedURL(ctx, rec.ImageKey, expiry)
}

func (s *serviceImpl) imageRecord(ctx context.Context, id common.ID) (*domain.MapRecord, error) {
	if s.images == nil {
		return nil, disabled("image storage")
	}
	rec, err := s.GetMap(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.ImageKey == "" {
		return nil, errors.NotFound("similarity map has no stored image").WithDetail(id.String())
	}
	return rec, nil
}

func (s *serviceImpl) SearchMaps(ctx context.Context, q domain.SearchQuery) (*SearchResult, error) {
	if s.index == nil {
		return nil, disabled("map search")
	}
	q.Pagination = q.Pagination.Normalize()
	if err := q.Pagination.Validate(); err != nil {
		return nil, err
	}
	hits, total, err := s.index.Search(ctx, q)
	if err != nil {
		s.recordError(err)
		return nil, err
	}
	return &SearchResult{Hits: lo.Ternary(hits == nil, []domain.SearchHit{}, hits), Total: total}, nil
}

//Personal.AI order the ending
