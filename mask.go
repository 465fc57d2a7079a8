package surveillance

import (
	"github.com/pkg/errors"
)

// Mask is a binary image mask stored as a flat row-major buffer, one byte per
// pixel, zero meaning unset.  Masks of equal dimensions can be combined with
// the boolean operations used during layer composition.
type Mask struct {
	width  int
	height int
	pix    []uint8
}

// NewMask returns an all-unset mask of the given dimensions.
func NewMask(width, height int) Mask {
	return Mask{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height),
	}
}

// MaskFromBytes wraps an existing flat row-major buffer as a Mask.  The
// buffer is referenced, not copied.  Any non-zero byte counts as set.
func MaskFromBytes(width, height int, pix []uint8) (Mask, error) {
	if len(pix) != width*height {
		return Mask{}, errors.Wrapf(ErrShapeMismatch,
			"mask buffer has %d pixels, want %dx%d", len(pix), width, height)
	}

	return Mask{width: width, height: height, pix: pix}, nil
}

// Width returns the mask width in pixels.
func (m Mask) Width() int {
	return m.width
}

// Height returns the mask height in pixels.
func (m Mask) Height() int {
	return m.height
}

// Empty reports whether the mask holds no pixel data, ie. the zero value.
func (m Mask) Empty() bool {
	return m.pix == nil
}

// At reports whether the pixel at x,y is set.
func (m Mask) At(x, y int) bool {
	return m.pix[y*m.width+x] != 0
}

// Set sets or clears the pixel at x,y.
func (m Mask) Set(x, y int, v bool) {
	if v {
		m.pix[y*m.width+x] = 1
	} else {
		m.pix[y*m.width+x] = 0
	}
}

// Pix returns the backing buffer.  Pixels are row-major, one byte each.
func (m Mask) Pix() []uint8 {
	return m.pix
}

// Clone returns a copy of the mask with its own backing buffer.
func (m Mask) Clone() Mask {
	pix := make([]uint8, len(m.pix))
	copy(pix, m.pix)
	return Mask{width: m.width, height: m.height, pix: pix}
}

// SameSize reports whether both masks have identical dimensions.
func (m Mask) SameSize(o Mask) bool {
	return m.width == o.width && m.height == o.height
}

// Union sets every pixel of m that is set in o.
func (m Mask) Union(o Mask) error {
	if !m.SameSize(o) {
		return errors.Wrapf(ErrShapeMismatch, "union %dx%d with %dx%d",
			m.width, m.height, o.width, o.height)
	}

	for i, v := range o.pix {
		if v != 0 {
			m.pix[i] = 1
		}
	}

	return nil
}

// Subtract clears every pixel of m that is set in o (logical AND-NOT).
func (m Mask) Subtract(o Mask) error {
	if !m.SameSize(o) {
		return errors.Wrapf(ErrShapeMismatch, "subtract %dx%d from %dx%d",
			o.width, o.height, m.width, m.height)
	}

	for i, v := range o.pix {
		if v != 0 {
			m.pix[i] = 0
		}
	}

	return nil
}

// Count returns the number of set pixels.
func (m Mask) Count() int {
	n := 0

	for _, v := range m.pix {
		if v != 0 {
			n++
		}
	}

	return n
}

// DepthMap is a single-channel floating point image stored as a flat
// row-major buffer, used for raw sensor depth readings in meters.  The same
// representation carries derived height maps, see HeightMap.
type DepthMap struct {
	width  int
	height int
	pix    []float32
}

// HeightMap holds the absolute height above the calibrated reference plane
// per pixel, in the sensor's length unit.  It shares the DepthMap
// representation.
type HeightMap = DepthMap

// NewDepthMap returns an all-zero depth map of the given dimensions.
func NewDepthMap(width, height int) DepthMap {
	return DepthMap{
		width:  width,
		height: height,
		pix:    make([]float32, width*height),
	}
}

// DepthMapFromFloats wraps an existing flat row-major buffer as a DepthMap.
// The buffer is referenced, not copied.
func DepthMapFromFloats(width, height int, pix []float32) (DepthMap, error) {
	if len(pix) != width*height {
		return DepthMap{}, errors.Wrapf(ErrShapeMismatch,
			"depth buffer has %d pixels, want %dx%d", len(pix), width, height)
	}

	return DepthMap{width: width, height: height, pix: pix}, nil
}

// Width returns the depth map width in pixels.
func (d DepthMap) Width() int {
	return d.width
}

// Height returns the depth map height in pixels.
func (d DepthMap) Height() int {
	return d.height
}

// Empty reports whether the depth map holds no pixel data.
func (d DepthMap) Empty() bool {
	return d.pix == nil
}

// At returns the value at x,y.
func (d DepthMap) At(x, y int) float32 {
	return d.pix[y*d.width+x]
}

// Set stores a value at x,y.
func (d DepthMap) Set(x, y int, v float32) {
	d.pix[y*d.width+x] = v
}

// Pix returns the backing buffer.
func (d DepthMap) Pix() []float32 {
	return d.pix
}

// SameSize reports whether both maps have identical dimensions.
func (d DepthMap) SameSize(o DepthMap) bool {
	return d.width == o.width && d.height == o.height
}
