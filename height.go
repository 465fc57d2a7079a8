package surveillance

import (
	"github.com/pkg/errors"
)

// HeightEstimator converts raw depth frames into absolute height-above-surface
// maps against a reference depth frame captured once over the empty working
// surface.  Calibration is one-shot: the reference is stored and reused for
// every subsequent frame until re-calibrated.
type HeightEstimator struct {
	reference DepthMap
}

// NewHeightEstimator returns an uncalibrated height estimator.
func NewHeightEstimator() *HeightEstimator {
	return &HeightEstimator{}
}

// Calibrate stores the reference depth frame of the empty working surface.
// Calling it again replaces the previous calibration.
func (h *HeightEstimator) Calibrate(reference DepthMap) {
	h.reference = reference
}

// Calibrated reports whether a reference depth frame has been stored.
func (h *HeightEstimator) Calibrated() bool {
	return !h.reference.Empty()
}

// Apply converts a depth frame into a height map where each pixel is the
// absolute difference between the current and the reference depth reading,
// in the sensor's length unit.
func (h *HeightEstimator) Apply(depth DepthMap) (HeightMap, error) {
	if !h.Calibrated() {
		return HeightMap{}, errors.Wrap(ErrNotCalibrated,
			"height requested before a reference depth frame was stored")
	}

	if !depth.SameSize(h.reference) {
		return HeightMap{}, errors.Wrapf(ErrShapeMismatch,
			"depth frame is %dx%d, calibrated reference is %dx%d",
			depth.Width(), depth.Height(),
			h.reference.Width(), h.reference.Height())
	}

	out := NewDepthMap(depth.Width(), depth.Height())

	ref := h.reference.Pix()
	cur := depth.Pix()
	dst := out.Pix()

	for i := range dst {
		d := ref[i] - cur[i]
		if d < 0 {
			d = -d
		}
		dst[i] = d
	}

	return out, nil
}
