// Package rectify applies a fixed perspective transform (homography) to
// images, binary masks and tracked point sets, used to remap workspace scene
// layers into a canonical bird-eye-view.  The same transform instance is
// applied to every call so masks and point overlays stay geometrically
// consistent within a session.
package rectify

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// ErrBadTransform is returned when a perspective transform cannot be built
// or inverted from the supplied values.
var ErrBadTransform = errors.New("invalid perspective transform")

// Point is a 2-D image coordinate.
type Point struct {
	X, Y float64
}

// Transform holds a fixed 3x3 homography.  It is set once at construction
// and immutable for the session lifetime.
type Transform struct {
	m   *mat.Dense
	inv *mat.Dense
}

// NewTransform builds a transform from a row-major 3x3 homography.  The
// matrix must be invertible.
func NewTransform(elems []float64) (*Transform, error) {
	if len(elems) != 9 {
		return nil, errors.Wrapf(ErrBadTransform,
			"got %d matrix elements, want 9", len(elems))
	}

	cp := make([]float64, 9)
	copy(cp, elems)

	m := mat.NewDense(3, 3, cp)

	var inv mat.Dense

	if err := inv.Inverse(m); err != nil {
		return nil, errors.Wrapf(ErrBadTransform, "matrix is not invertible: %v", err)
	}

	return &Transform{m: m, inv: &inv}, nil
}

// QuadTransform computes the homography mapping the four src corners onto
// the four dst corners by solving the standard eight-unknown linear system,
// eg. mapping the observed tabletop quadrilateral to a top-down rectangle.
func QuadTransform(src, dst []Point) (*Transform, error) {
	if len(src) != 4 || len(dst) != 4 {
		return nil, errors.Wrapf(ErrBadTransform,
			"got %d source and %d destination points, want 4 each",
			len(src), len(dst))
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y

		a.SetRow(2*i, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx})
		a.SetRow(2*i+1, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy})
		b.SetVec(2*i, dx)
		b.SetVec(2*i+1, dy)
	}

	var x mat.VecDense

	if err := x.SolveVec(a, b); err != nil {
		return nil, errors.Wrapf(ErrBadTransform,
			"degenerate point correspondence: %v", err)
	}

	return NewTransform([]float64{
		x.AtVec(0), x.AtVec(1), x.AtVec(2),
		x.AtVec(3), x.AtVec(4), x.AtVec(5),
		x.AtVec(6), x.AtVec(7), 1,
	})
}

// Mat returns a copy of the 3x3 homography matrix.
func (t *Transform) Mat() *mat.Dense {
	return mat.DenseCopyOf(t.m)
}

// Inverse returns the inverse transform.
func (t *Transform) Inverse() *Transform {
	return &Transform{m: mat.DenseCopyOf(t.inv), inv: mat.DenseCopyOf(t.m)}
}

// apply maps a single coordinate through the given 3x3 matrix.
func apply(m *mat.Dense, x, y float64) (float64, float64) {
	w := m.At(2, 0)*x + m.At(2, 1)*y + m.At(2, 2)
	px := (m.At(0, 0)*x + m.At(0, 1)*y + m.At(0, 2)) / w
	py := (m.At(1, 0)*x + m.At(1, 1)*y + m.At(1, 2)) / w

	return px, py
}

// Points transforms each point independently through the homography,
// preserving order and count.
func (t *Transform) Points(pts []Point) []Point {
	out := make([]Point, len(pts))

	for i, p := range pts {
		out[i].X, out[i].Y = apply(t.m, p.X, p.Y)
	}

	return out
}

// WarpGray remaps a flat row-major single-channel buffer through the
// homography using inverse mapping with nearest-neighbour sampling.  The
// output has the same dimensions as the input; destination pixels whose
// source falls outside the frame stay zero.
func (t *Transform) WarpGray(pix []uint8, width, height int) ([]uint8, error) {
	if len(pix) != width*height {
		return nil, errors.Errorf("buffer has %d pixels, want %dx%d",
			len(pix), width, height)
	}

	out := make([]uint8, len(pix))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := apply(t.inv, float64(x), float64(y))

			ix := int(math.Round(sx))
			iy := int(math.Round(sy))

			if ix < 0 || iy < 0 || ix >= width || iy >= height {
				continue
			}

			out[y*width+x] = pix[iy*width+ix]
		}
	}

	return out, nil
}

// WarpImage remaps a color image through the same homography via OpenCV,
// writing the result to dst with the source dimensions.
func (t *Transform) WarpImage(src gocv.Mat, dst *gocv.Mat) {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()

	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, t.m.At(r, c))
		}
	}

	gocv.WarpPerspective(src, dst, m, image.Pt(src.Cols(), src.Rows()))
}
