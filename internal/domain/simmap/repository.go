package simmap

import (
	"context"
	"time"

	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// Map kinds.
const (
	KindFingerprint = "fingerprint"
	KindModel       = "model"
)

// ModelSpec is the transport form of a LinearModel.
type ModelSpec struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// Build converts m into a LinearModel.
func (m *ModelSpec) Build() (*LinearModel, error) {
	return NewLinearModel(m.Intercept, m.Coefficients)
}

// MapRequest describes one similarity map to compute.
type MapRequest struct {
	Kind      string     `json:"kind"`
	Reference string     `json:"reference,omitempty"`
	Probe     string     `json:"probe"`
	Spec      Spec       `json:"fingerprint"`
	Metric    string     `json:"metric,omitempty"`
	Model     *ModelSpec `json:"model,omitempty"`
	Options   MapOptions `json:"options"`
	Label     string     `json:"label,omitempty"`
}

// MapRecord is a persisted similarity map.
type MapRecord struct {
	ID          common.ID `json:"id"`
	Kind        string    `json:"kind"`
	Label       string    `json:"label,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Probe       string    `json:"probe"`
	Spec        Spec      `json:"fingerprint"`
	Metric      string    `json:"metric"`
	Weights     []float64 `json:"weights"`
	MaxWeight   float64   `json:"max_weight"`
	ImageKey    string    `json:"image_key,omitempty"`
	ImageFormat string    `json:"image_format,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Job is an asynchronous map request travelling through the message queue.
type Job struct {
	ID          common.ID  `json:"id"`
	Request     MapRequest `json:"request"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Attempt     int        `json:"attempt"`
	Error       string     `json:"error,omitempty"`
}

// JobResult is published once a job has been processed.
type JobResult struct {
	JobID  common.ID `json:"job_id"`
	MapID  common.ID `json:"map_id,omitempty"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// Job states. JobSucceeded and JobFailed are also JobResult states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// JobRecord tracks a job's progress for status queries.
type JobRecord struct {
	ID          common.ID `json:"id"`
	Status      string    `json:"status"`
	MapID       common.ID `json:"map_id,omitempty"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Reference is an entry of the reference library.
type Reference struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	SMILES string `json:"smiles"`
	// Vector is the packed 2048-bit Morgan radius 2 bit vector.
	Vector []byte `json:"-"`
}

// ReferenceMatch is a nearest-neighbour hit with its Jaccard distance.
type ReferenceMatch struct {
	Reference
	Distance float64 `json:"distance"`
}

// ListQuery filters stored maps.
type ListQuery struct {
	Kind       string
	Probe      string
	Pagination common.Pagination
}

// SearchQuery is a free-text query over indexed maps.
type SearchQuery struct {
	Text       string
	Kind       string
	Pagination common.Pagination
}

// SearchHit is one indexed map matching a SearchQuery.
type SearchHit struct {
	ID    common.ID `json:"id"`
	Score float64   `json:"score"`
	Label string    `json:"label,omitempty"`
	Probe string    `json:"probe"`
	Kind  string    `json:"kind"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Ports
// ─────────────────────────────────────────────────────────────────────────────

// Repository persists map records.
type Repository interface {
	Save(ctx context.Context, rec *MapRecord) error
	// Get returns an error with code SIMMAP_005 when id is unknown.
	Get(ctx context.Context, id common.ID) (*MapRecord, error)
	List(ctx context.Context, q ListQuery) ([]*MapRecord, int64, error)
	Delete(ctx context.Context, id common.ID) error
}

// JobRepository persists job status.
type JobRepository interface {
	SaveJob(ctx context.Context, rec *JobRecord) error
	// GetJob returns an error with code COMMON_005 when id is unknown.
	GetJob(ctx context.Context, id common.ID) (*JobRecord, error)
}

// ImageStore keeps rendered images.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// SearchIndex provides free-text search over map records.
type SearchIndex interface {
	Index(ctx context.Context, rec *MapRecord) error
	Search(ctx context.Context, q SearchQuery) ([]SearchHit, int64, error)
	Delete(ctx context.Context, id common.ID) error
}

// WeightsCache memoises atomic weights by key.
type WeightsCache interface {
	Get(ctx context.Context, key string) ([]float64, bool, error)
	Set(ctx context.Context, key string, weights []float64, ttl time.Duration) error
}

// JobPublisher hands jobs and their outcomes to the message queue.
type JobPublisher interface {
	PublishJob(ctx context.Context, job *Job) error
	PublishResult(ctx context.Context, res *JobResult) error
	PublishDeadLetter(ctx context.Context, job *Job) error
}

// ReferenceLibrary stores reference molecules for nearest-neighbour lookup.
type ReferenceLibrary interface {
	Upsert(ctx context.Context, refs []*Reference) error
	Nearest(ctx context.Context, vector []byte, k int) ([]ReferenceMatch, error)
}

//Personal.AI order the ending
