package simmap

import (
	"context"
	"math"
	"strings"

	"github.com/sj-huang/rdkit-m/internal/chem"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// Map defaults.
const (
	DefaultMapSize    = 250
	DefaultContours   = 10
	DefaultGridStep   = 0.05
	DefaultSigma      = 0.3
	DefaultAlpha      = 0.5
	DefaultBondLength = 1.5
	DefaultPadding    = 1.5
	DefaultColorMap   = "moreland"

	sigmaBondFraction = 0.3
)

// Bounds of the depiction options.
const (
	MaxMapSize    = 4096
	MinGridStep   = 0.01
	MaxContours   = 100
	MaxBondLength = 10.0
	MaxPadding    = 10.0
	MaxGridPoints = 4 << 20
)

// Image formats understood by renderers.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Renderer draws a Figure into an encoded image.
type Renderer interface {
	Render(fig *Figure, format string) ([]byte, error)
}

// ErrRendererUnavailable is reported when an image is requested and no
// renderer is configured.
var ErrRendererUnavailable = errors.New(errors.ErrCodeRendererUnavailable, "no renderer is configured")

// MapOptions controls the depiction. Zero fields take the defaults.
type MapOptions struct {
	// Size is the edge length of the rendered image in pixels.
	Size int `json:"size,omitempty"`
	// Sigma is the gaussian width. Zero means 0.3 times the length of the
	// first bond, or 0.3 for molecules without bonds.
	Sigma float64 `json:"sigma,omitempty"`
	// Step is the lattice spacing in coordinate units.
	Step       float64 `json:"step,omitempty"`
	Contours   int     `json:"contours,omitempty"`
	ColorMap   string  `json:"color_map,omitempty"`
	Alpha      float64 `json:"alpha,omitempty"`
	BondLength float64 `json:"bond_length,omitempty"`
	Padding    float64 `json:"padding,omitempty"`
	// Format requests an image ("png" or "svg"). Empty computes the figure only.
	Format string `json:"format,omitempty"`

	Renderer Renderer `json:"-"`
}

func (o MapOptions) withDefaults() MapOptions {
	if o.Size <= 0 {
		o.Size = DefaultMapSize
	}
	if o.Step <= 0 {
		o.Step = DefaultGridStep
	}
	if o.Contours <= 0 {
		o.Contours = DefaultContours
	}
	if o.ColorMap == "" {
		o.ColorMap = DefaultColorMap
	}
	if o.Alpha <= 0 || o.Alpha > 1 {
		o.Alpha = DefaultAlpha
	}
	if o.BondLength <= 0 {
		o.BondLength = DefaultBondLength
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	o.Format = strings.ToLower(o.Format)
	return o
}

// Validate rejects option values no map can be computed with. Zero fields
// are accepted and take the defaults.
func (o MapOptions) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.New(errors.ErrCodeValidation, "invalid map options").WithDetailf(format, args...)
	}
	switch {
	case o.Size < 0 || o.Size > MaxMapSize:
		return invalid("size %d outside [0, %d]", o.Size, MaxMapSize)
	case !(o.Step == 0 || o.Step >= MinGridStep) || math.IsInf(o.Step, 0):
		return invalid("step %g; expected 0 or at least %g", o.Step, MinGridStep)
	case o.Contours < 0 || o.Contours > MaxContours:
		return invalid("contours %d outside [0, %d]", o.Contours, MaxContours)
	case !inRange(o.Sigma, 0, MaxBondLength):
		return invalid("sigma %g outside [0, %g]", o.Sigma, MaxBondLength)
	case !inRange(o.BondLength, 0, MaxBondLength):
		return invalid("bond_length %g outside [0, %g]", o.BondLength, MaxBondLength)
	case !inRange(o.Padding, 0, MaxPadding):
		return invalid("padding %g outside [0, %g]", o.Padding, MaxPadding)
	case !inRange(o.Alpha, 0, 1):
		return invalid("alpha %g outside [0, 1]", o.Alpha)
	}
	return nil
}

func inRange(v, min, max float64) bool { return v >= min && v <= max }

// Figure is a computed similarity map.
type Figure struct {
	Mol     *chem.Molecule `json:"-"`
	SMILES  string         `json:"smiles"`
	Coords  []Point        `json:"coords"`
	Weights []float64      `json:"weights"`
	Grid    *Grid          `json:"grid"`
	Levels  []float64      `json:"levels"`
	Sigma   float64        `json:"sigma"`
	Options MapOptions     `json:"options"`

	Image       []byte `json:"-"`
	ImageFormat string `json:"image_format,omitempty"`
}

// GetSimilarityMapFromWeights lays mol out, samples the weighted gaussians on a
// grid and, when opts.Format is set, renders the figure.
func GetSimilarityMapFromWeights(mol *chem.Molecule, weights []float64, opts MapOptions) (*Figure, error) {
	if mol == nil || mol.NumAtoms() == 0 {
		return nil, errors.New(errors.ErrCodeMoleculeEmpty, "molecule has no atoms")
	}
	if len(weights) != mol.NumAtoms() {
		return nil, errors.New(errors.ErrCodeWeightsLengthMismatch, "weights do not match the molecule").
			WithDetailf("%d weights for %d atoms", len(weights), mol.NumAtoms())
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	switch opts.Format {
	case "", FormatPNG, FormatSVG:
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unsupported image format").
			WithDetailf("format %q; expected png or svg", opts.Format)
	}

	coords := Compute2DCoords(mol, opts.BondLength)
	sigma := opts.Sigma
	if sigma <= 0 {
		sigma = DefaultSigma
		if mol.NumBonds() > 0 {
			b := mol.Bond(0)
			sigma = sigmaBondFraction * dist(coords[b.Begin], coords[b.End])
		}
	}

	if n := GridPoints(coords, opts.Step, opts.Padding); n > MaxGridPoints {
		return nil, errors.New(errors.ErrCodeValidation, "map grid too fine").
			WithDetailf("%d lattice points at step %g; at most %d", n, opts.Step, MaxGridPoints)
	}
	grid := GaussianGrid(coords, weights, sigma, opts.Step, opts.Padding)
	fig := &Figure{
		Mol:     mol,
		SMILES:  mol.SMILES(),
		Coords:  coords,
		Weights: append([]float64(nil), weights...),
		Grid:    grid,
		Levels:  ContourLevels(grid.MaxAbs(), opts.Contours),
		Sigma:   sigma,
		Options: opts,
	}

	if opts.Format == "" {
		return fig, nil
	}
	if err := RenderFigure(fig, opts.Renderer, opts.Format); err != nil {
		return fig, err
	}
	return fig, nil
}

// RenderFigure renders fig with r and stores the image on the figure.
func RenderFigure(fig *Figure, r Renderer, format string) error {
	if r == nil {
		return ErrRendererUnavailable
	}
	img, err := r.Render(fig, format)
	if err != nil {
		if errors.GetCode(err) != errors.CodeUnknown {
			return err
		}
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "rendering similarity map failed")
	}
	fig.Image = img
	fig.ImageFormat = format
	return nil
}

// GetSimilarityMapForFingerprint computes fingerprint weights of probe against
// ref, standardizes them and builds the figure. It returns the unstandardized
// largest weight magnitude.
func GetSimilarityMapForFingerprint(ctx context.Context, ref, probe *chem.Molecule, fpFn FingerprintFunc, opts MapOptions, wopts ...WeightsOption) (*Figure, float64, error) {
	weights, err := GetAtomicWeightsForFingerprint(ctx, ref, probe, fpFn, wopts...)
	if err != nil {
		return nil, 0, err
	}
	std, maxWeight := GetStandardizedWeights(weights)
	fig, err := GetSimilarityMapFromWeights(probe, std, opts)
	return fig, maxWeight, err
}

// GetSimilarityMapForModel is GetSimilarityMapForFingerprint for model weights.
func GetSimilarityMapForModel(ctx context.Context, probe *chem.Molecule, fpFn FingerprintFunc, predict PredictFunc, opts MapOptions, wopts ...WeightsOption) (*Figure, float64, error) {
	weights, err := GetAtomicWeightsForModel(ctx, probe, fpFn, predict, wopts...)
	if err != nil {
		return nil, 0, err
	}
	std, maxWeight := GetStandardizedWeights(weights)
	fig, err := GetSimilarityMapFromWeights(probe, std, opts)
	return fig, maxWeight, err
}

//Personal.AI order the ending
