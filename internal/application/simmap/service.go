// Package simmap provides the application-level service for similarity maps.
// It sits between the HTTP, CLI and worker entry points and the domain logic,
// and owns caching, persistence, image storage, indexing and job dispatch.
package simmap

import (
	"context"
	"time"

	"github.com/sj-huang/rdkit-m/internal/chem"
	"github.com/sj-huang/rdkit-m/internal/chem/fingerprint"
	"github.com/sj-huang/rdkit-m/internal/config"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// Service defines the similarity map application operations.
type Service interface {
	ComputeWeights(ctx context.Context, input *WeightsInput) (*WeightsResult, error)
	ComputeModelWeights(ctx context.Context, input *ModelWeightsInput) (*WeightsResult, error)
	Standardize(weights []float64) *WeightsResult

	GenerateMap(ctx context.Context, req *domain.MapRequest) (*MapResult, error)
	GetMap(ctx context.Context, id common.ID) (*domain.MapRecord, error)
	ListMaps(ctx context.Context, q domain.ListQuery) (*ListResult, error)
	DeleteMap(ctx context.Context, id common.ID) error
	MapImage(ctx context.Context, id common.ID) ([]byte, string, error)
	ImageURL(ctx context.Context, id common.ID, expiry time.Duration) (string, error)
	SearchMaps(ctx context.Context, q domain.SearchQuery) (*SearchResult, error)

	SubmitJob(ctx context.Context, req *domain.MapRequest) (*domain.JobRecord, error)
	GetJob(ctx context.Context, id common.ID) (*domain.JobRecord, error)
	HandleJob(ctx context.Context, job *domain.Job) error
	HandleExhausted(ctx context.Context, job *domain.Job, cause error) error

	RegisterReferences(ctx context.Context, inputs []ReferenceInput) ([]*domain.Reference, error)
	NearestReferences(ctx context.Context, smiles string, k int) ([]domain.ReferenceMatch, error)
	GenerateMapAgainstNearest(ctx context.Context, req *domain.MapRequest) (*MapResult, *domain.ReferenceMatch, error)
}

// Locker guards a job against concurrent processing by several workers.
// Acquire does not wait; ok is false when another holder owns name.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Deps are the collaborators of the service. Every port is optional; the
// operations that need a missing port fail with COMMON_015.
type Deps struct {
	Maps       domain.Repository
	Jobs       domain.JobRepository
	Images     domain.ImageStore
	Index      domain.SearchIndex
	Cache      domain.WeightsCache
	Publisher  domain.JobPublisher
	References domain.ReferenceLibrary
	Renderer   domain.Renderer
	Locker     Locker

	Fingerprinter *domain.Fingerprinter
	Metrics       *prometheus.AppMetrics
	Defaults      config.SimmapConfig
	Logger        logging.Logger
}

// WeightsInput selects a fingerprint-based weight computation.
type WeightsInput struct {
	Reference string
	Probe     string
	Spec      domain.Spec
	Metric    string
}

// ModelWeightsInput selects a model-based weight computation.
type ModelWeightsInput struct {
	Probe string
	Spec  domain.Spec
	Model *domain.ModelSpec
}

// WeightsResult carries raw and standardized weights.
type WeightsResult struct {
	Weights      []float64 `json:"weights"`
	Standardized []float64 `json:"standardized"`
	MaxWeight    float64   `json:"max_weight"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	Metric       string    `json:"metric,omitempty"`
	Cached       bool      `json:"cached"`
}

// MapResult is a generated map with its persisted record.
type MapResult struct {
	Record    *domain.MapRecord `json:"record"`
	Figure    *domain.Figure    `json:"-"`
	Image     []byte            `json:"-"`
	Persisted bool              `json:"persisted"`
}

// ListResult is a page of map records.
type ListResult struct {
	Maps       []*domain.MapRecord `json:"maps"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// SearchResult is a page of search hits.
type SearchResult struct {
	Hits  []domain.SearchHit `json:"hits"`
	Total int64              `json:"total"`
}

// ReferenceInput names a molecule for the reference library.
type ReferenceInput struct {
	Name   string `json:"name"`
	SMILES string `json:"smiles"`
}

const (
	defaultJobLockTTL  = 2 * time.Minute
	defaultCacheTTL    = time.Hour
	defaultNearestK    = 5
	weightsCacheLabel  = "weights"
	componentService   = "simmap_service"
	referenceBackend   = "milvus"
	imageKeyPrefix     = "maps/"
	contentTypePNG     = "image/png"
	contentTypeSVG     = "image/svg+xml"
	referenceVectorLen = 2048
)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	maps       domain.Repository
	jobs       domain.JobRepository
	images     domain.ImageStore
	index      domain.SearchIndex
	cache      domain.WeightsCache
	publisher  domain.JobPublisher
	references domain.ReferenceLibrary
	renderer   domain.Renderer
	locker     Locker

	fp       *domain.Fingerprinter
	metrics  *prometheus.AppMetrics
	defaults config.SimmapConfig
	logger   logging.Logger
	now      func() time.Time
}

// NewService creates the similarity map application service.
func NewService(deps Deps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	fp := deps.Fingerprinter
	if fp == nil {
		fp = domain.DefaultFingerprinter()
	}
	return &serviceImpl{
		maps:       deps.Maps,
		jobs:       deps.Jobs,
		images:     deps.Images,
		index:      deps.Index,
		cache:      deps.Cache,
		publisher:  deps.Publisher,
		references: deps.References,
		renderer:   deps.Renderer,
		locker:     deps.Locker,
		fp:         fp,
		metrics:    deps.Metrics,
		defaults:   deps.Defaults,
		logger:     logger.Named("simmap"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared helpers
// ─────────────────────────────────────────────────────────────────────────────

func disabled(feature string) error {
	return errors.New(errors.ErrCodeFeatureDisabled, feature+" is not configured")
}

func parseMolecule(role, smiles string) (*chem.Molecule, error) {
	mol, err := chem.ParseSMILES(smiles)
	if err != nil {
		var appErr *errors.AppError
		if !errors.As(err, &appErr) {
			return nil, err
		}
		if appErr.Detail == "" {
			return nil, appErr.WithDetail(role)
		}
		return nil, appErr.WithDetailf("%s: %s", role, appErr.Detail)
	}
	return mol, nil
}

// spec fills an empty fingerprint choice from the configured defaults.
func (s *serviceImpl) spec(in domain.Spec) domain.Spec {
	if in.Type == "" {
		in.Type = s.defaults.Fingerprint
		if in.FPType == "" {
			in.FPType = s.defaults.FPType
		}
	}
	if in.Type == "" {
		return domain.DefaultSpec()
	}
	return in.Normalize()
}

func (s *serviceImpl) metricName(name string) string {
	if name == "" {
		name = s.defaults.Metric
	}
	if name == "" {
		name = fingerprint.MetricDice
	}
	return name
}

func (s *serviceImpl) weightsOptions(metric fingerprint.Metric) []domain.WeightsOption {
	opts := []domain.WeightsOption{domain.WithConcurrency(s.defaults.Concurrency)}
	if metric != nil {
		opts = append(opts, domain.WithMetric(metric))
	}
	return opts
}

func (s *serviceImpl) cacheTTL() time.Duration {
	if s.defaults.CacheTTL > 0 {
		return s.defaults.CacheTTL
	}
	return defaultCacheTTL
}

func (s *serviceImpl) recordError(err error) {
	if err == nil {
		return
	}
	prometheus.RecordError(s.metrics, componentService, string(errors.GetCode(err)))
}

func contentTypeFor(format string) string {
	if format == domain.FormatSVG {
		return contentTypeSVG
	}
	return contentTypePNG
}

//Personal.AI order the ending
