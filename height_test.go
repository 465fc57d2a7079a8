package surveillance

import (
	"errors"
	"testing"
)

// uniformDepth builds a depth map with every pixel set to v
func uniformDepth(width, height int, v float32) DepthMap {
	d := NewDepthMap(width, height)

	for i := range d.Pix() {
		d.Pix()[i] = v
	}

	return d
}

func TestHeightBeforeCalibration(t *testing.T) {
	he := NewHeightEstimator()

	_, err := he.Apply(uniformDepth(4, 4, 2.0))

	if !errors.Is(err, ErrNotCalibrated) {
		t.Errorf("expected ErrNotCalibrated, got %v", err)
	}
}

func TestHeightShapeMismatch(t *testing.T) {
	he := NewHeightEstimator()
	he.Calibrate(uniformDepth(4, 4, 2.0))

	_, err := he.Apply(uniformDepth(4, 5, 2.0))

	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestHeightAbsoluteDifference(t *testing.T) {
	he := NewHeightEstimator()

	ref := NewDepthMap(3, 2)
	cur := NewDepthMap(3, 2)

	refVals := []float32{2.0, 2.0, 1.5, 0.0, 2.5, 3.0}
	curVals := []float32{2.3, 1.8, 1.5, 0.7, 0.0, 3.2}
	wantVals := []float32{0.3, 0.2, 0.0, 0.7, 2.5, 0.2}

	copy(ref.Pix(), refVals)
	copy(cur.Pix(), curVals)

	he.Calibrate(ref)

	heights, err := he.Apply(cur)

	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	for i, want := range wantVals {
		got := heights.Pix()[i]

		if diff := got - want; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("pixel %d: height %v, want %v", i, got, want)
		}
	}
}

func TestHeightRecalibration(t *testing.T) {
	he := NewHeightEstimator()
	he.Calibrate(uniformDepth(2, 2, 2.0))
	he.Calibrate(uniformDepth(2, 2, 3.0))

	heights, err := he.Apply(uniformDepth(2, 2, 2.0))

	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	for i, v := range heights.Pix() {
		if v != 1.0 {
			t.Errorf("pixel %d: height %v after recalibration, want 1.0", i, v)
		}
	}
}
