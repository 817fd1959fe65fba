package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/rendering/plot"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// localService runs the similarity map pipeline in-process without any
// storage backend.
func (c *CLIContext) localService() appsimmap.Service {
	return appsimmap.NewService(appsimmap.Deps{
		Renderer: plot.NewRenderer(c.Logger),
		Defaults: c.Config.Simmap,
		Logger:   c.Logger,
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared flags
// ─────────────────────────────────────────────────────────────────────────────

type fingerprintFlags struct {
	fpType       string
	bitType      string
	nBits        int
	radius       int
	useFeatures  bool
	useChirality bool
	metric       string

	cmd *cobra.Command
}

func (f *fingerprintFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	f.cmd = cmd
	fs.StringVar(&f.fpType, "fp", "", "fingerprint type: morgan, ap, tt, rdk (default from config)")
	fs.StringVar(&f.bitType, "fp-type", "", "bit representation: bv or count")
	fs.IntVar(&f.nBits, "n-bits", 0, "fingerprint length")
	fs.IntVar(&f.radius, "radius", domain.DefaultMorganRadius, "Morgan radius")
	fs.BoolVar(&f.useFeatures, "use-features", false, "feature invariants for Morgan")
	fs.BoolVar(&f.useChirality, "use-chirality", false, "chirality for Morgan")
	fs.StringVar(&f.metric, "metric", "", "similarity metric (default from config)")
}

func (f *fingerprintFlags) spec() domain.Spec {
	s := domain.Spec{
		Type:         f.fpType,
		FPType:       f.bitType,
		NBits:        f.nBits,
		UseFeatures:  f.useFeatures,
		UseChirality: f.useChirality,
	}
	if f.cmd != nil && f.cmd.Flags().Changed("radius") {
		s.Radius = lo.ToPtr(f.radius)
	}
	return s
}

// readModel loads a linear model from a JSON file.
func readModel(path string) (*domain.ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var m domain.ModelSpec
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.New(errors.ErrCodeModelInvalid, "malformed model file").WithDetail(err.Error())
	}
	return &m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// weights
// ─────────────────────────────────────────────────────────────────────────────

type weightsView struct {
	*appsimmap.WeightsResult
}

func (v weightsView) TableHeaders() []string {
	return []string{"ATOM", "WEIGHT", "STANDARDIZED"}
}

func (v weightsView) TableRows() [][]string {
	rows := make([][]string, len(v.Weights))
	for i, w := range v.Weights {
		std := ""
		if i < len(v.Standardized) {
			std = strconv.FormatFloat(v.Standardized[i], 'f', 4, 64)
		}
		rows[i] = []string{strconv.Itoa(i), strconv.FormatFloat(w, 'f', 4, 64), std}
	}
	return rows
}

func newWeightsCmd() *cobra.Command {
	var (
		reference string
		probe     string
		modelPath string
		fp        fingerprintFlags
	)
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Compute atomic similarity weights",
		Long: "Compute the per-atom weights of --probe against --reference, or under the\n" +
			"linear model in --model. Nothing is stored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			svc := cliCtx.localService()

			var res *appsimmap.WeightsResult
			if modelPath != "" {
				model, err := readModel(modelPath)
				if err != nil {
					return err
				}
				res, err = svc.ComputeModelWeights(ctx, &appsimmap.ModelWeightsInput{Probe: probe, Spec: fp.spec(), Model: model})
				if err != nil {
					return err
				}
			} else {
				res, err = svc.ComputeWeights(ctx, &appsimmap.WeightsInput{
					Reference: reference, Probe: probe, Spec: fp.spec(), Metric: fp.metric,
				})
				if err != nil {
					return err
				}
			}
			return PrintResult(cmd, weightsView{res})
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "reference SMILES")
	cmd.Flags().StringVar(&probe, "probe", "", "probe SMILES")
	cmd.Flags().StringVar(&modelPath, "model", "", "JSON file with a linear model over fingerprint bits")
	fp.register(cmd)
	_ = cmd.MarkFlagRequired("probe")
	cmd.MarkFlagsMutuallyExclusive("reference", "model")
	return cmd
}

func newStandardizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standardize WEIGHT...",
		Short: "Scale weights by their largest magnitude",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			weights := make([]float64, len(args))
			for i, a := range args {
				if weights[i], err = strconv.ParseFloat(a, 64); err != nil {
					return errors.InvalidParam("weights must be numbers").WithDetail(a)
				}
			}
			return PrintResult(cmd, weightsView{cliCtx.localService().Standardize(weights)})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// map
// ─────────────────────────────────────────────────────────────────────────────

type mapFlags struct {
	size     int
	sigma    float64
	contours int
	colorMap string
	alpha    float64
	format   string
}

func (f *mapFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.size, "size", 0, "image edge length in pixels")
	fs.Float64Var(&f.sigma, "sigma", 0, "gaussian width")
	fs.IntVar(&f.contours, "contours", 0, "number of contour lines")
	fs.StringVar(&f.colorMap, "color-map", "", fmt.Sprintf("color map %v", plot.ColorMaps()))
	fs.Float64Var(&f.alpha, "alpha", 0, "contour line alpha")
	fs.StringVar(&f.format, "format", "", "image format: png or svg")
}

func (f *mapFlags) options() domain.MapOptions {
	return domain.MapOptions{
		Size:     f.size,
		Sigma:    f.sigma,
		Contours: f.contours,
		ColorMap: f.colorMap,
		Alpha:    f.alpha,
		Format:   f.format,
	}
}

type mapView struct {
	File      string    `json:"file,omitempty"`
	Kind      string    `json:"kind"`
	Format    string    `json:"format,omitempty"`
	MaxWeight float64   `json:"max_weight"`
	Weights   []float64 `json:"weights"`
}

func (v mapView) String() string {
	if v.File == "" {
		return fmt.Sprintf("%s map without image, max weight %.4f", v.Kind, v.MaxWeight)
	}
	return fmt.Sprintf("wrote %s map to %s (max weight %.4f)", v.Kind, v.File, v.MaxWeight)
}

func newMapCmd() *cobra.Command {
	var (
		reference string
		probe     string
		modelPath string
		label     string
		out       string
		fp        fingerprintFlags
		mf        mapFlags
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render a similarity map to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()

			req := &domain.MapRequest{
				Reference: reference,
				Probe:     probe,
				Spec:      fp.spec(),
				Metric:    fp.metric,
				Options:   mf.options(),
				Label:     label,
			}
			if modelPath != "" {
				if req.Model, err = readModel(modelPath); err != nil {
					return err
				}
			}
			res, err := cliCtx.localService().GenerateMap(ctx, req)
			if err != nil {
				return err
			}

			view := mapView{
				Kind:      res.Record.Kind,
				Format:    res.Record.ImageFormat,
				MaxWeight: res.Record.MaxWeight,
				Weights:   res.Record.Weights,
			}
			if len(res.Image) > 0 {
				if out == "" {
					out = "simmap." + res.Record.ImageFormat
				}
				if err := os.WriteFile(out, res.Image, 0o644); err != nil {
					return fmt.Errorf("failed to write image: %w", err)
				}
				view.File = out
			}
			return PrintResult(cmd, view)
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "reference SMILES")
	cmd.Flags().StringVar(&probe, "probe", "", "probe SMILES")
	cmd.Flags().StringVar(&modelPath, "model", "", "JSON file with a linear model over fingerprint bits")
	cmd.Flags().StringVar(&label, "label", "", "free-form label")
	cmd.Flags().StringVar(&out, "out", "", "output file (default simmap.<format>)")
	fp.register(cmd)
	mf.register(cmd)
	_ = cmd.MarkFlagRequired("probe")
	cmd.MarkFlagsMutuallyExclusive("reference", "model")
	return cmd
}

//Personal.AI order the ending
