// Package plot renders similarity map figures with gonum/plot. It draws into
// in-memory canvases only and never needs a display.
package plot

import (
	"bytes"
	"image/color"
	"math"
	"strconv"
	"strings"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/sj-huang/rdkit-m/internal/chem"
	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

const (
	dpi           = 96
	paletteSteps  = 255
	bondOffset    = 0.12
	contourWidth  = 0.6
	bondLineWidth = 1.4
)

func smooth(m func() palette.DivergingColorMap) func() palette.ColorMap {
	return func() palette.ColorMap { return m() }
}

var colorMaps = map[string]func() palette.ColorMap{
	"moreland":      smooth(moreland.SmoothBlueRed),
	"blue-red":      smooth(moreland.SmoothBlueRed),
	"blue-tan":      smooth(moreland.SmoothBlueTan),
	"green-red":     smooth(moreland.SmoothGreenRed),
	"purple-orange": smooth(moreland.SmoothPurpleOrange),
}

// ColorMaps lists the accepted colour map names.
func ColorMaps() []string {
	names := make([]string, 0, len(colorMaps))
	for name := range colorMaps {
		names = append(names, name)
	}
	return names
}

// Renderer is a simmap.Renderer backed by gonum/plot.
type Renderer struct {
	logger logging.Logger
}

func NewRenderer(logger logging.Logger) *Renderer {
	return &Renderer{logger: logger}
}

var _ simmap.Renderer = (*Renderer)(nil)

// Render draws fig as png or svg.
func (r *Renderer) Render(fig *simmap.Figure, format string) ([]byte, error) {
	if fig == nil || fig.Grid == nil {
		return nil, errors.New(errors.ErrCodeValidation, "figure has no grid")
	}
	format = strings.ToLower(format)
	if format != simmap.FormatPNG && format != simmap.FormatSVG {
		return nil, errors.New(errors.ErrCodeValidation, "unsupported image format").WithDetail(format)
	}

	pal, err := heatPalette(fig.Options.ColorMap, fig.Options.Alpha)
	if err != nil {
		return nil, err
	}
	p, err := r.buildPlot(fig, pal)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRenderFailed, "failed to build plot")
	}

	size := fig.Options.Size
	if size <= 0 {
		size = simmap.DefaultMapSize
	}
	side := vg.Length(size) * vg.Inch / dpi

	var buf bytes.Buffer
	switch format {
	case simmap.FormatPNG:
		c := vgimg.NewWith(vgimg.UseWH(side, side), vgimg.UseDPI(dpi))
		p.Draw(draw.New(c))
		if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRenderFailed, "failed to encode png")
		}
	case simmap.FormatSVG:
		c := vgsvg.New(side, side)
		p.Draw(draw.New(c))
		if _, err := c.WriteTo(&buf); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRenderFailed, "failed to encode svg")
		}
	}

	r.logger.Debug("Similarity map rendered",
		logging.String("format", format),
		logging.Int("atoms", len(fig.Coords)),
		logging.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (r *Renderer) buildPlot(fig *simmap.Figure, pal palette.Palette) (*gplot.Plot, error) {
	p := gplot.New()
	p.HideAxes()
	p.BackgroundColor = color.White

	// symmetric range keeps zero weight on the neutral colour
	bound := fig.Grid.MaxAbs()
	if bound == 0 {
		bound = 1
	}
	hm := plotter.NewHeatMap(fig.Grid, pal)
	hm.Min, hm.Max = -bound, bound
	p.Add(hm)

	if levels := nonZero(fig.Levels); len(levels) > 0 {
		c := plotter.NewContour(fig.Grid, levels, solid(color.Gray{Y: 80}))
		c.Min, c.Max = -bound, bound
		// negative levels dashed
		c.LineStyles = make([]draw.LineStyle, len(levels))
		for i, l := range levels {
			c.LineStyles[i] = draw.LineStyle{Color: color.Gray{Y: 80}, Width: vg.Points(contourWidth)}
			if l < 0 {
				c.LineStyles[i].Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
			}
		}
		p.Add(c)
	}

	if fig.Mol != nil {
		if err := addMolecule(p, fig.Mol, fig.Coords); err != nil {
			return nil, err
		}
	}

	cols, rows := fig.Grid.Dims()
	if cols > 0 && rows > 0 {
		p.X.Min, p.X.Max = fig.Grid.X(0), fig.Grid.X(cols-1)
		p.Y.Min, p.Y.Max = fig.Grid.Y(0), fig.Grid.Y(rows-1)
		squareRanges(p)
	}
	return p, nil
}

func addMolecule(p *gplot.Plot, mol *chem.Molecule, coords []simmap.Point) error {
	for _, b := range mol.Bonds() {
		a, z := coords[b.Begin], coords[b.End]
		for _, off := range bondOffsets(b.Type) {
			dx, dy := perpendicular(a, z, off)
			line, err := plotter.NewLine(plotter.XYs{{X: a.X + dx, Y: a.Y + dy}, {X: z.X + dx, Y: z.Y + dy}})
			if err != nil {
				return err
			}
			line.LineStyle.Width = vg.Points(bondLineWidth)
			line.LineStyle.Color = color.Black
			if b.Type == chem.BondAromatic && off != 0 {
				line.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
			}
			p.Add(line)
		}
	}

	var xys plotter.XYs
	var labels []string
	for i, atom := range mol.Atoms() {
		if atom.AtomicNum == 6 && atom.Charge == 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: coords[i].X, Y: coords[i].Y})
		labels = append(labels, atomLabel(atom))
	}
	if len(xys) == 0 {
		return nil
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = text.XCenter
		l.TextStyle[i].YAlign = text.YCenter
		l.TextStyle[i].Font.Size = vg.Points(11)
	}
	p.Add(l)
	return nil
}

func atomLabel(a chem.Atom) string {
	label := a.Symbol
	if a.Aromatic && len(label) > 0 {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	switch {
	case a.Charge == 1:
		label += "+"
	case a.Charge == -1:
		label += "-"
	case a.Charge > 1:
		label += "+" + strconv.Itoa(a.Charge)
	case a.Charge < -1:
		label += "-" + strconv.Itoa(-a.Charge)
	}
	return label
}

func bondOffsets(t chem.BondType) []float64 {
	switch t {
	case chem.BondDouble, chem.BondAromatic:
		return []float64{0, bondOffset}
	case chem.BondTriple:
		return []float64{-bondOffset, 0, bondOffset}
	}
	return []float64{0}
}

func perpendicular(a, b simmap.Point, d float64) (float64, float64) {
	if d == 0 {
		return 0, 0
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	n := math.Hypot(dx, dy)
	if n == 0 {
		return 0, 0
	}
	return -dy / n * d, dx / n * d
}

// squareRanges widens the shorter axis so both span the same length.
func squareRanges(p *gplot.Plot) {
	w, h := p.X.Max-p.X.Min, p.Y.Max-p.Y.Min
	if w > h {
		pad := (w - h) / 2
		p.Y.Min, p.Y.Max = p.Y.Min-pad, p.Y.Max+pad
	} else if h > w {
		pad := (h - w) / 2
		p.X.Min, p.X.Max = p.X.Min-pad, p.X.Max+pad
	}
}

func nonZero(levels []float64) []float64 {
	out := make([]float64, 0, len(levels))
	for _, l := range levels {
		if l != 0 {
			out = append(out, l)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Palettes
// ─────────────────────────────────────────────────────────────────────────────

type fixedPalette []color.Color

func (p fixedPalette) Colors() []color.Color { return p }

func solid(c color.Color) palette.Palette {
	return fixedPalette{c}
}

// heatPalette samples the named colour map and applies alpha.
func heatPalette(name string, alpha float64) (palette.Palette, error) {
	if name == "" {
		name = simmap.DefaultColorMap
	}
	factory, ok := colorMaps[strings.ToLower(name)]
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, "unknown colour map").WithDetail(name)
	}
	if alpha <= 0 || alpha > 1 {
		alpha = simmap.DefaultAlpha
	}
	cm := factory()
	cm.SetMin(0)
	cm.SetMax(1)

	src := cm.Palette(paletteSteps).Colors()
	out := make(fixedPalette, len(src))
	a := uint8(math.Round(alpha * 255))
	for i, c := range src {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		n.A = a
		out[i] = n
	}
	return out, nil
}

//Personal.AI order the ending
