// Package simmap defines the request and response bodies of the similarity
// map HTTP API. Only plain data types and request validation live here, so
// both the server and the Go client can import it.
package simmap

import (
	"strings"
	"time"

	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// Map kinds.
const (
	KindFingerprint = "fingerprint"
	KindModel       = "model"
)

// Job states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// ─────────────────────────────────────────────────────────────────────────────
// Shared parameter blocks
// ─────────────────────────────────────────────────────────────────────────────

// FingerprintSpec selects a fingerprint family and its parameters. Type is
// one of morgan, ap, tt, rdk; zero fields take the server defaults.
type FingerprintSpec struct {
	Type   string `json:"type"`
	FPType string `json:"fp_type,omitempty"`
	NBits  int    `json:"n_bits,omitempty"`

	Radius       *int `json:"radius,omitempty"`
	UseFeatures  bool `json:"use_features,omitempty"`
	UseChirality bool `json:"use_chirality,omitempty"`

	MinLength        int  `json:"min_length,omitempty"`
	MaxLength        int  `json:"max_length,omitempty"`
	TargetSize       int  `json:"target_size,omitempty"`
	NBitsPerEntry    int  `json:"n_bits_per_entry,omitempty"`
	IncludeChirality bool `json:"include_chirality,omitempty"`

	MinPath      int `json:"min_path,omitempty"`
	MaxPath      int `json:"max_path,omitempty"`
	NBitsPerHash int `json:"n_bits_per_hash,omitempty"`
}

// ModelSpec is a linear model over fingerprint bits. Coefficient keys are
// decimal bit indices.
type ModelSpec struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// MapOptions tunes the similarity map figure.
type MapOptions struct {
	Size       int     `json:"size,omitempty"`
	Sigma      float64 `json:"sigma,omitempty"`
	Step       float64 `json:"step,omitempty"`
	Contours   int     `json:"contours,omitempty"`
	ColorMap   string  `json:"color_map,omitempty"`
	Alpha      float64 `json:"alpha,omitempty"`
	BondLength float64 `json:"bond_length,omitempty"`
	Padding    float64 `json:"padding,omitempty"`
	// Format is "png" or "svg".
	Format string `json:"format,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Weights
// ─────────────────────────────────────────────────────────────────────────────

// WeightsRequest asks for the atomic weights of Probe against Reference.
type WeightsRequest struct {
	Reference   string           `json:"reference"`
	Probe       string           `json:"probe"`
	Fingerprint *FingerprintSpec `json:"fingerprint,omitempty"`
	Metric      string           `json:"metric,omitempty"`
}

func (r *WeightsRequest) Validate() error {
	if strings.TrimSpace(r.Reference) == "" {
		return errors.InvalidParam("reference SMILES is required")
	}
	if strings.TrimSpace(r.Probe) == "" {
		return errors.InvalidParam("probe SMILES is required")
	}
	return nil
}

// ModelWeightsRequest asks for the atomic weights of Probe under Model.
type ModelWeightsRequest struct {
	Probe       string           `json:"probe"`
	Fingerprint *FingerprintSpec `json:"fingerprint,omitempty"`
	Model       *ModelSpec       `json:"model"`
}

func (r *ModelWeightsRequest) Validate() error {
	if strings.TrimSpace(r.Probe) == "" {
		return errors.InvalidParam("probe SMILES is required")
	}
	if r.Model == nil {
		return errors.New(errors.ErrCodeModelInvalid, "model is required")
	}
	return nil
}

// StandardizeRequest carries raw weights to rescale.
type StandardizeRequest struct {
	Weights []float64 `json:"weights"`
}

// WeightsResponse carries raw and standardized weights.
type WeightsResponse struct {
	Weights      []float64 `json:"weights"`
	Standardized []float64 `json:"standardized"`
	MaxWeight    float64   `json:"max_weight"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	Metric       string    `json:"metric,omitempty"`
	Cached       bool      `json:"cached"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Maps
// ─────────────────────────────────────────────────────────────────────────────

// MapRequest describes a similarity map to generate. With Nearest set the
// reference is the closest molecule of the reference library and Reference
// must be empty.
type MapRequest struct {
	Kind        string           `json:"kind,omitempty"`
	Label       string           `json:"label,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	Probe       string           `json:"probe"`
	Fingerprint *FingerprintSpec `json:"fingerprint,omitempty"`
	Metric      string           `json:"metric,omitempty"`
	Model       *ModelSpec       `json:"model,omitempty"`
	Options     MapOptions       `json:"options"`
	Nearest     bool             `json:"nearest,omitempty"`
}

func (r *MapRequest) Validate() error {
	if strings.TrimSpace(r.Probe) == "" {
		return errors.InvalidParam("probe SMILES is required")
	}
	if r.Nearest {
		if r.Reference != "" || r.Model != nil {
			return errors.InvalidParam("nearest maps take neither a reference nor a model")
		}
		return nil
	}
	if r.Model == nil && strings.TrimSpace(r.Reference) == "" {
		return errors.InvalidParam("either a reference SMILES or a model is required")
	}
	switch strings.ToLower(r.Options.Format) {
	case "", "png", "svg":
	default:
		return errors.New(errors.ErrCodeValidation, "unsupported image format").WithDetail(r.Options.Format)
	}
	return nil
}

// MapRecord is a stored similarity map.
type MapRecord struct {
	ID          common.ID       `json:"id"`
	Kind        string          `json:"kind"`
	Label       string          `json:"label,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Probe       string          `json:"probe"`
	Fingerprint FingerprintSpec `json:"fingerprint"`
	Metric      string          `json:"metric,omitempty"`
	Weights     []float64       `json:"weights"`
	MaxWeight   float64         `json:"max_weight"`
	ImageFormat string          `json:"image_format,omitempty"`
	HasImage    bool            `json:"has_image"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MapResponse is the outcome of a synchronous map request. Image holds the
// rendered bytes when the server did not store them.
type MapResponse struct {
	Map       MapRecord       `json:"map"`
	Persisted bool            `json:"persisted"`
	Image     []byte          `json:"image,omitempty"`
	Nearest   *ReferenceMatch `json:"nearest,omitempty"`
}

// MapListResponse is one page of stored maps.
type MapListResponse struct {
	Maps       []MapRecord `json:"maps"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// SearchHit is one stored map matching a text query.
type SearchHit struct {
	ID    common.ID `json:"id"`
	Score float64   `json:"score"`
	Label string    `json:"label,omitempty"`
	Probe string    `json:"probe"`
	Kind  string    `json:"kind"`
}

type SearchResponse struct {
	Hits  []SearchHit `json:"hits"`
	Total int64       `json:"total"`
}

// ImageURLResponse is a time-limited download link.
type ImageURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Jobs
// ─────────────────────────────────────────────────────────────────────────────

// JobStatus reports the progress of an asynchronous map request.
type JobStatus struct {
	ID          common.ID `json:"id"`
	Status      string    `json:"status"`
	MapID       common.ID `json:"map_id,omitempty"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Done reports whether the job reached a final state.
func (j *JobStatus) Done() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}

// ─────────────────────────────────────────────────────────────────────────────
// Reference library
// ─────────────────────────────────────────────────────────────────────────────

type ReferenceInput struct {
	Name   string `json:"name,omitempty"`
	SMILES string `json:"smiles"`
}

type RegisterReferencesRequest struct {
	References []ReferenceInput `json:"references"`
}

func (r *RegisterReferencesRequest) Validate() error {
	if len(r.References) == 0 {
		return errors.InvalidParam("at least one reference is required")
	}
	for i, ref := range r.References {
		if strings.TrimSpace(ref.SMILES) == "" {
			return errors.InvalidParam("reference SMILES is required").WithDetailf("reference %d", i)
		}
	}
	return nil
}

type Reference struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	SMILES string `json:"smiles"`
}

// ReferenceMatch is a library molecule with its Jaccard distance to the query.
type ReferenceMatch struct {
	Reference
	Distance float64 `json:"distance"`
}

type RegisterReferencesResponse struct {
	References []Reference `json:"references"`
}

type NearestResponse struct {
	Matches []ReferenceMatch `json:"matches"`
}

//Personal.AI order the ending
