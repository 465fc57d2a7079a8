package rectify

import (
	"errors"
	"math"
	"testing"
)

// pointsClose compares point slices within a tolerance
func pointsClose(a, b []Point, tol float64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if math.Abs(a[i].X-b[i].X) > tol || math.Abs(a[i].Y-b[i].Y) > tol {
			return false
		}
	}

	return true
}

func TestNewTransformBadInput(t *testing.T) {
	if _, err := NewTransform([]float64{1, 2, 3}); !errors.Is(err, ErrBadTransform) {
		t.Errorf("short matrix: expected ErrBadTransform, got %v", err)
	}

	// singular matrix
	_, err := NewTransform([]float64{
		1, 2, 3,
		2, 4, 6,
		0, 0, 1,
	})

	if !errors.Is(err, ErrBadTransform) {
		t.Errorf("singular matrix: expected ErrBadTransform, got %v", err)
	}
}

func TestPointsRoundTrip(t *testing.T) {
	// a proper perspective transform, not just affine
	tf, err := NewTransform([]float64{
		1.2, 0.1, -30,
		-0.05, 0.9, 12,
		0.0002, 0.0001, 1,
	})

	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	pts := []Point{{X: 0, Y: 0}, {X: 640, Y: 0}, {X: 320, Y: 240}, {X: 11.5, Y: 477.25}}

	fwd := tf.Points(pts)
	back := tf.Inverse().Points(fwd)

	if !pointsClose(back, pts, 1e-9) {
		t.Errorf("round trip produced %v, want %v", back, pts)
	}

	if len(fwd) != len(pts) {
		t.Errorf("transform changed point count: %d != %d", len(fwd), len(pts))
	}
}

func TestQuadTransformMapsCorners(t *testing.T) {
	// observed tabletop quadrilateral to a top-down square
	src := []Point{{X: 100, Y: 50}, {X: 540, Y: 60}, {X: 600, Y: 400}, {X: 40, Y: 420}}
	dst := []Point{{X: 0, Y: 0}, {X: 400, Y: 0}, {X: 400, Y: 400}, {X: 0, Y: 400}}

	tf, err := QuadTransform(src, dst)

	if err != nil {
		t.Fatalf("quad transform: %v", err)
	}

	got := tf.Points(src)

	if !pointsClose(got, dst, 1e-6) {
		t.Errorf("corners mapped to %v, want %v", got, dst)
	}
}

func TestQuadTransformDegenerate(t *testing.T) {
	// three collinear source points
	src := []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 0, Y: 5}}
	dst := []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	if _, err := QuadTransform(src, dst); !errors.Is(err, ErrBadTransform) {
		t.Errorf("expected ErrBadTransform, got %v", err)
	}
}

func TestWarpGrayIdentity(t *testing.T) {
	tf, err := NewTransform([]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})

	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	pix := []uint8{
		0, 1, 0,
		1, 0, 1,
		0, 0, 1,
	}

	out, err := tf.WarpGray(pix, 3, 3)

	if err != nil {
		t.Fatalf("warp: %v", err)
	}

	for i := range pix {
		if out[i] != pix[i] {
			t.Errorf("pixel %d changed under identity warp", i)
		}
	}
}

func TestWarpGrayTranslation(t *testing.T) {
	// shift one pixel right and one down
	tf, err := NewTransform([]float64{
		1, 0, 1,
		0, 1, 1,
		0, 0, 1,
	})

	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	pix := make([]uint8, 16)
	pix[0] = 1 // top-left corner

	out, err := tf.WarpGray(pix, 4, 4)

	if err != nil {
		t.Fatalf("warp: %v", err)
	}

	if out[1*4+1] != 1 {
		t.Errorf("pixel did not move to 1,1: %v", out)
	}

	// source pixels shifted off frame become zero, total count preserved here
	n := 0
	for _, v := range out {
		if v != 0 {
			n++
		}
	}

	if n != 1 {
		t.Errorf("%d pixels set after translation, want 1", n)
	}
}

func TestWarpGrayShapeChecked(t *testing.T) {
	tf, err := NewTransform([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})

	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	if _, err := tf.WarpGray(make([]uint8, 7), 3, 3); err == nil {
		t.Errorf("expected error for mis-sized buffer")
	}
}

func TestMatIsACopy(t *testing.T) {
	tf, err := NewTransform([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1})

	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	m := tf.Mat()
	m.Set(0, 2, 99)

	if got := tf.Mat().At(0, 2); got != 0 {
		t.Errorf("transform mutated through Mat(): %v", got)
	}
}
