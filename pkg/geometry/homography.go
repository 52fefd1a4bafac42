package geometry

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when the point correspondences do not define a homography.
var ErrDegenerate = errors.New("degenerate point correspondences")

// Homography is a 3x3 projective transform, normalized so that H[2][2] == 1.
type Homography struct {
	m *mat.Dense
}

// NewHomography solves the projective transform mapping src[i] onto dst[i]
// from exactly four correspondences (the direct linear transform with h33 = 1).
func NewHomography(src, dst [4]Point) (*Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return nil, errors.Wrapf(ErrDegenerate, "NewHomography: %v", err)
	}

	data := make([]float64, 9)
	for i := 0; i < 8; i++ {
		data[i] = h.AtVec(i)
	}
	data[8] = 1

	return &Homography{m: mat.NewDense(3, 3, data)}, nil
}

// At returns element (i, j) of the matrix.
func (h *Homography) At(i, j int) float64 {
	return h.m.At(i, j)
}

// Transform maps a single point through the homography.
func (h *Homography) Transform(p Point) Point {
	w := h.m.At(2, 0)*p.X + h.m.At(2, 1)*p.Y + h.m.At(2, 2)
	if w == 0 {
		return Pt(math.Inf(1), math.Inf(1))
	}
	x := (h.m.At(0, 0)*p.X + h.m.At(0, 1)*p.Y + h.m.At(0, 2)) / w
	y := (h.m.At(1, 0)*p.X + h.m.At(1, 1)*p.Y + h.m.At(1, 2)) / w
	return Pt(x, y)
}

// Inverse returns the transform mapping destination points back to the source plane.
func (h *Homography) Inverse() (*Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.m); err != nil {
		return nil, errors.Wrapf(ErrDegenerate, "Inverse: %v", err)
	}

	s := inv.At(2, 2)
	if s == 0 {
		return nil, errors.Wrap(ErrDegenerate, "Inverse: h33 is zero")
	}
	inv.Scale(1/s, &inv)

	return &Homography{m: &inv}, nil
}
