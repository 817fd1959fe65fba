package simmap

import (
	"math"
)

// Grid holds a scalar field sampled on a regular lattice. It satisfies the
// plotter.GridXYZ contract of gonum/plot.
type Grid struct {
	Xs []float64 `json:"xs"`
	Ys []float64 `json:"ys"`
	// Values[r][c] is the field at (Xs[c], Ys[r]).
	Values [][]float64 `json:"values"`
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (c, r int) { return len(g.Xs), len(g.Ys) }

// Z returns the value at column c, row r.
func (g *Grid) Z(c, r int) float64 { return g.Values[r][c] }

// X returns the coordinate of column c.
func (g *Grid) X(c int) float64 { return g.Xs[c] }

// Y returns the coordinate of row r.
func (g *Grid) Y(r int) float64 { return g.Ys[r] }

// MaxAbs returns the largest magnitude on the grid.
func (g *Grid) MaxAbs() float64 {
	m := 0.0
	for _, row := range g.Values {
		for _, v := range row {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}

// GaussianGrid sums one isotropic gaussian of width sigma and height
// weights[i] per atom over a lattice of spacing step that covers every atom
// with padding on each side.
func GaussianGrid(coords []Point, weights []float64, sigma, step, padding float64) *Grid {
	if step <= 0 {
		step = DefaultGridStep
	}
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	minX, maxX, minY, maxY := extent(coords, padding)

	g := &Grid{
		Xs: axis(minX, maxX, step),
		Ys: axis(minY, maxY, step),
	}
	g.Values = make([][]float64, len(g.Ys))

	twoSigma2 := 2 * sigma * sigma
	// atoms further than 4 sigma from a lattice point are skipped
	cutoff2 := 16 * sigma * sigma
	for r, y := range g.Ys {
		row := make([]float64, len(g.Xs))
		for c, x := range g.Xs {
			v := 0.0
			for i, p := range coords {
				if weights[i] == 0 {
					continue
				}
				d2 := (x-p.X)*(x-p.X) + (y-p.Y)*(y-p.Y)
				if d2 > cutoff2 {
					continue
				}
				v += weights[i] * math.Exp(-d2/twoSigma2)
			}
			row[c] = v
		}
		g.Values[r] = row
	}
	return g
}

// GridPoints returns the number of lattice points GaussianGrid samples for
// coords at spacing step.
func GridPoints(coords []Point, step, padding float64) int {
	if step <= 0 {
		step = DefaultGridStep
	}
	minX, maxX, minY, maxY := extent(coords, padding)
	return axisLen(minX, maxX, step) * axisLen(minY, maxY, step)
}

func extent(coords []Point, padding float64) (minX, maxX, minY, maxY float64) {
	for i, p := range coords {
		if i == 0 {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			continue
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return minX - padding, maxX + padding, minY - padding, maxY + padding
}

func axisLen(lo, hi, step float64) int {
	n := int(math.Ceil((hi-lo)/step)) + 1
	if n < 2 {
		n = 2
	}
	return n
}

func axis(lo, hi, step float64) []float64 {
	out := make([]float64, axisLen(lo, hi, step))
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// ContourLevels returns n levels evenly spaced strictly inside
// (-maxAbs, maxAbs). It returns nil when maxAbs is zero or n < 1.
func ContourLevels(maxAbs float64, n int) []float64 {
	if maxAbs <= 0 || n < 1 {
		return nil
	}
	levels := make([]float64, n)
	for k := range levels {
		levels[k] = -maxAbs + 2*maxAbs*float64(k+1)/float64(n+1)
	}
	return levels
}

//Personal.AI order the ending
