package simmap

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sj-huang/rdkit-m/internal/chem"
)

// Point is a 2D depiction coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Compute2DCoords lays mol out in the plane by classical multidimensional
// scaling of the topological distance matrix, then scales the result so the
// mean bond length equals bondLength. Atoms in different fragments are placed
// two bonds further apart than the largest in-fragment distance.
func Compute2DCoords(mol *chem.Molecule, bondLength float64) []Point {
	n := mol.NumAtoms()
	coords := make([]Point, n)
	if n <= 1 {
		return coords
	}
	if bondLength <= 0 {
		bondLength = DefaultBondLength
	}

	dm := mol.DistanceMatrix()
	maxD := 0
	for i := range dm {
		for _, d := range dm[i] {
			if d > maxD {
				maxD = d
			}
		}
	}
	sq := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := float64(dm[i][j])
			if dm[i][j] < 0 {
				d = float64(maxD + 2)
			}
			sq[i*n+j] = d * d
		}
	}

	// double centring: B = -1/2 J D² J
	rowMean := make([]float64, n)
	grand := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rowMean[i] += sq[i*n+j]
		}
		grand += rowMean[i]
		rowMean[i] /= float64(n)
	}
	grand /= float64(n * n)

	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(sq[i*n+j]-rowMean[i]-rowMean[j]+grand))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(b, true) {
		return circleLayout(n, bondLength)
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// eigenvalues come back in ascending order
	for axis, col := range []int{n - 1, n - 2} {
		scale := math.Sqrt(math.Max(values[col], 0))
		for i := 0; i < n; i++ {
			v := vecs.At(i, col) * scale
			if axis == 0 {
				coords[i].X = v
			} else {
				coords[i].Y = v
			}
		}
	}
	orient(coords)

	if mean := meanBondLength(mol, coords); mean > 1e-9 {
		f := bondLength / mean
		for i := range coords {
			coords[i].X *= f
			coords[i].Y *= f
		}
	}
	return coords
}

// orient fixes the sign ambiguity of the eigenvectors: the first atom with a
// non-zero coordinate on each axis ends up on the positive side.
func orient(coords []Point) {
	flipX, flipY := false, false
	for _, p := range coords {
		if math.Abs(p.X) > 1e-9 {
			flipX = p.X < 0
			break
		}
	}
	for _, p := range coords {
		if math.Abs(p.Y) > 1e-9 {
			flipY = p.Y < 0
			break
		}
	}
	for i := range coords {
		if flipX {
			coords[i].X = -coords[i].X
		}
		if flipY {
			coords[i].Y = -coords[i].Y
		}
	}
}

func meanBondLength(mol *chem.Molecule, coords []Point) float64 {
	if mol.NumBonds() == 0 {
		// no bonds: use the mean nearest-neighbour distance
		total := 0.0
		for i := range coords {
			best := math.Inf(1)
			for j := range coords {
				if i != j {
					best = math.Min(best, dist(coords[i], coords[j]))
				}
			}
			total += best
		}
		return total / float64(len(coords))
	}
	total := 0.0
	for _, b := range mol.Bonds() {
		total += dist(coords[b.Begin], coords[b.End])
	}
	return total / float64(mol.NumBonds())
}

func circleLayout(n int, bondLength float64) []Point {
	coords := make([]Point, n)
	r := bondLength / (2 * math.Sin(math.Pi/float64(n)))
	for i := range coords {
		a := 2 * math.Pi * float64(i) / float64(n)
		coords[i] = Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return coords
}

func dist(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

//Personal.AI order the ending
