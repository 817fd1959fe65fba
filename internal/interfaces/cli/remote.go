package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/sj-huang/rdkit-m/pkg/client"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// ─────────────────────────────────────────────────────────────────────────────
// Table views
// ─────────────────────────────────────────────────────────────────────────────

type mapListView struct{ *dto.MapListResponse }

func (v mapListView) TableHeaders() []string {
	return []string{"ID", "KIND", "LABEL", "PROBE", "MAX_WEIGHT", "IMAGE", "CREATED"}
}

func (v mapListView) TableRows() [][]string {
	rows := lo.Map(v.Maps, func(m dto.MapRecord, _ int) []string {
		return mapRow(&m)
	})
	return append(rows, []string{fmt.Sprintf("page %d/%d, %d total", v.Page, v.TotalPages, v.Total)})
}

type mapRecordView struct{ *dto.MapRecord }

func (v mapRecordView) TableHeaders() []string { return mapListView{}.TableHeaders() }
func (v mapRecordView) TableRows() [][]string  { return [][]string{mapRow(v.MapRecord)} }

func mapRow(m *dto.MapRecord) []string {
	return []string{
		m.ID.String(), m.Kind, m.Label, m.Probe, formatFloat(m.MaxWeight),
		lo.Ternary(m.HasImage, m.ImageFormat, "-"), m.CreatedAt.Format(time.RFC3339),
	}
}

type searchView struct{ *dto.SearchResponse }

func (v searchView) TableHeaders() []string { return []string{"ID", "SCORE", "KIND", "LABEL", "PROBE"} }

func (v searchView) TableRows() [][]string {
	return lo.Map(v.Hits, func(h dto.SearchHit, _ int) []string {
		return []string{h.ID.String(), formatFloat(h.Score), h.Kind, h.Label, h.Probe}
	})
}

type jobView struct{ *dto.JobStatus }

func (v jobView) TableHeaders() []string {
	return []string{"ID", "STATUS", "MAP", "ATTEMPTS", "ERROR", "UPDATED"}
}

func (v jobView) TableRows() [][]string {
	return [][]string{{
		v.ID.String(), v.Status, v.MapID.String(), strconv.Itoa(v.Attempts), v.Error,
		v.UpdatedAt.Format(time.RFC3339),
	}}
}

type referencesView []dto.Reference

func (v referencesView) TableHeaders() []string { return []string{"ID", "NAME", "SMILES"} }

func (v referencesView) TableRows() [][]string {
	return lo.Map([]dto.Reference(v), func(r dto.Reference, _ int) []string {
		return []string{strconv.FormatInt(r.ID, 10), r.Name, r.SMILES}
	})
}

type matchesView []dto.ReferenceMatch

func (v matchesView) TableHeaders() []string { return []string{"ID", "NAME", "SMILES", "DISTANCE"} }

func (v matchesView) TableRows() [][]string {
	return lo.Map([]dto.ReferenceMatch(v), func(m dto.ReferenceMatch, _ int) []string {
		return []string{strconv.FormatInt(m.ID, 10), m.Name, m.SMILES, formatFloat(m.Distance)}
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Request flags
// ─────────────────────────────────────────────────────────────────────────────

type remoteMapFlags struct {
	reference string
	probe     string
	modelPath string
	label     string
	fp        fingerprintFlags
	mf        mapFlags
}

func (f *remoteMapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.reference, "reference", "", "reference SMILES")
	cmd.Flags().StringVar(&f.probe, "probe", "", "probe SMILES")
	cmd.Flags().StringVar(&f.modelPath, "model", "", "JSON file with a linear model over fingerprint bits")
	cmd.Flags().StringVar(&f.label, "label", "", "free-form label")
	f.fp.register(cmd)
	f.mf.register(cmd)
	_ = cmd.MarkFlagRequired("probe")
	cmd.MarkFlagsMutuallyExclusive("reference", "model")
}

func (f *remoteMapFlags) request() (*dto.MapRequest, error) {
	spec := dto.FingerprintSpec(f.fp.spec())
	o := f.mf.options()
	req := &dto.MapRequest{
		Label:       f.label,
		Reference:   f.reference,
		Probe:       f.probe,
		Fingerprint: &spec,
		Metric:      f.fp.metric,
		Options: dto.MapOptions{
			Size:       o.Size,
			Sigma:      o.Sigma,
			Step:       o.Step,
			Contours:   o.Contours,
			ColorMap:   o.ColorMap,
			Alpha:      o.Alpha,
			BondLength: o.BondLength,
			Padding:    o.Padding,
			Format:     o.Format,
		},
	}
	if f.modelPath != "" {
		model, err := readModel(f.modelPath)
		if err != nil {
			return nil, err
		}
		m := dto.ModelSpec(*model)
		req.Model = &m
	}
	return req, nil
}

// remote returns the API client of the command tree.
func remote(cmd *cobra.Command) (*CLIContext, *client.Client, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cliCtx, cliCtx.Client, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// maps
// ─────────────────────────────────────────────────────────────────────────────

func newMapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maps",
		Short: "Generate and browse maps stored by the API server",
	}
	cmd.AddCommand(
		newMapsGenerateCmd(),
		newMapsListCmd(),
		newMapsGetCmd(),
		newMapsSearchCmd(),
		newMapsDeleteCmd(),
		newMapsImageCmd(),
		newMapsURLCmd(),
	)
	return cmd
}

func newMapsGenerateCmd() *cobra.Command {
	var (
		flags   remoteMapFlags
		nearest bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a map on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			req.Nearest = nearest
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()

			res, err := c.Maps().Generate(ctx, req)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return PrintResult(cmd, res)
			}
			if res.Nearest != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Nearest reference: %s (%s), distance %s\n",
					res.Nearest.Name, res.Nearest.SMILES, formatFloat(res.Nearest.Distance))
			}
			return printTable(cmd, mapRecordView{&res.Map})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&nearest, "nearest", false, "use the closest molecule of the reference library")
	cmd.MarkFlagsMutuallyExclusive("nearest", "reference")
	cmd.MarkFlagsMutuallyExclusive("nearest", "model")
	return cmd
}

func newMapsListCmd() *cobra.Command {
	var opts client.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			res, err := c.Maps().List(ctx, &opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, mapListView{res})
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter by kind (fingerprint, model)")
	cmd.Flags().StringVar(&opts.Probe, "probe", "", "filter by probe SMILES")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", common.DefaultPageSize, "page size")
	return cmd
}

func newMapsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a stored map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			rec, err := c.Maps().Get(ctx, common.ID(args[0]))
			if err != nil {
				return err
			}
			return PrintResult(cmd, mapRecordView{rec})
		},
	}
}

func newMapsSearchCmd() *cobra.Command {
	var opts client.ListOptions
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Full-text search over map labels and SMILES",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			res, err := c.Maps().Search(ctx, args[0], &opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, searchView{res})
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter by kind (fingerprint, model)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", common.DefaultPageSize, "page size")
	return cmd
}

func newMapsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored map and its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			if err := c.Maps().Delete(ctx, common.ID(args[0])); err != nil {
				return err
			}
			PrintSuccess(cmd, "deleted "+args[0])
			return nil
		},
	}
}

func newMapsImageCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "image ID",
		Short: "Download the image of a stored map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			data, contentType, err := c.Maps().Image(ctx, common.ID(args[0]))
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + lo.Ternary(strings.Contains(contentType, "svg"), ".svg", ".png")
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write image: %w", err)
			}
			PrintSuccess(cmd, fmt.Sprintf("wrote %d bytes to %s", len(data), out))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default ID.<format>)")
	return cmd
}

func newMapsURLCmd() *cobra.Command {
	var expiry time.Duration
	cmd := &cobra.Command{
		Use:   "url ID",
		Short: "Print a presigned download link for a stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			res, err := c.Maps().ImageURL(ctx, common.ID(args[0]), expiry)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return PrintResult(cmd, res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			return nil
		},
	}
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "link lifetime (default server side)")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// job
// ─────────────────────────────────────────────────────────────────────────────

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Submit and track asynchronous map jobs",
	}

	var (
		flags    remoteMapFlags
		wait     bool
		interval time.Duration
	)
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Queue a map for the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			job, err := c.Jobs().Submit(ctx, req)
			if err != nil {
				return err
			}
			if wait {
				if job, err = c.Jobs().Wait(ctx, job.ID, interval); err != nil {
					return err
				}
			}
			return PrintResult(cmd, jobView{job})
		},
	}
	flags.register(submit)
	submit.Flags().BoolVar(&wait, "wait", false, "poll until the job finishes")
	submit.Flags().DurationVar(&interval, "interval", time.Second, "poll interval")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			job, err := c.Jobs().Get(ctx, common.ID(args[0]))
			if err != nil {
				return err
			}
			return PrintResult(cmd, jobView{job})
		},
	}

	var waitInterval time.Duration
	waitCmd := &cobra.Command{
		Use:   "wait ID",
		Short: "Poll a job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			job, err := c.Jobs().Wait(ctx, common.ID(args[0]), waitInterval)
			if err != nil {
				return err
			}
			return PrintResult(cmd, jobView{job})
		},
	}
	waitCmd.Flags().DurationVar(&waitInterval, "interval", time.Second, "poll interval")

	cmd.AddCommand(submit, get, waitCmd)
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// reference
// ─────────────────────────────────────────────────────────────────────────────

// readSMIFile parses a .smi file: one "SMILES [NAME]" per line, blank lines
// and lines starting with # are skipped.
func readSMIFile(path string) ([]dto.ReferenceInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var refs []dto.ReferenceInput
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		ref := dto.ReferenceInput{SMILES: fields[0]}
		if len(fields) > 1 {
			ref.Name = strings.Join(fields[1:], " ")
		}
		refs = append(refs, ref)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return refs, nil
}

func newReferenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Manage the reference molecule library",
	}

	var smiles, name, file string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register reference molecules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			var refs []dto.ReferenceInput
			if file != "" {
				if refs, err = readSMIFile(file); err != nil {
					return err
				}
			}
			if smiles != "" {
				refs = append(refs, dto.ReferenceInput{Name: name, SMILES: smiles})
			}
			if len(refs) == 0 {
				return errors.InvalidParam("nothing to register").WithDetail("set --smiles or --file")
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			out, err := c.References().Register(ctx, refs...)
			if err != nil {
				return err
			}
			return PrintResult(cmd, referencesView(out))
		},
	}
	add.Flags().StringVar(&smiles, "smiles", "", "SMILES of one molecule")
	add.Flags().StringVar(&name, "name", "", "name of the --smiles molecule")
	add.Flags().StringVar(&file, "file", "", ".smi file with one SMILES and optional name per line")

	var k int
	nearest := &cobra.Command{
		Use:   "nearest SMILES",
		Short: "Find the library molecules closest to SMILES",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, c, err := remote(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cliCtx.withTimeout(cmd)
			defer cancel()
			matches, err := c.References().Nearest(ctx, args[0], k)
			if err != nil {
				return err
			}
			return PrintResult(cmd, matchesView(matches))
		},
	}
	nearest.Flags().IntVar(&k, "k", 0, "number of matches (default server side)")

	cmd.AddCommand(add, nearest)
	return cmd
}

//Personal.AI order the ending
