package surveillance

import (
	"sort"

	clipper "github.com/ctessum/go.clipper"
	"github.com/pkg/errors"

	"github.com/acmiyaguchi/Surveillance/rectify"
)

// Default non-ROI thresholds.  Depth readings below the epsilon indicate the
// sensor failed to capture the pixel; heights above the ceiling indicate the
// point is off the working surface, eg. a far wall.
const (
	DefaultDepthEpsilon  float32 = 1e-3
	DefaultHeightCeiling float32 = 0.5
)

// NonROIPolicy encodes the prior knowledge of which pixels are outside the
// region of interest regardless of any segmenter's opinion.  Both threshold
// rules are evaluated identically every frame; the policy keeps no memory of
// prior frames.
type NonROIPolicy struct {
	// DepthEpsilon marks pixels whose depth magnitude is below it as invalid
	// sensor readings.
	DepthEpsilon float32
	// HeightCeiling marks pixels whose height above the reference surface
	// exceeds it as off the working surface.
	HeightCeiling float32

	// workspace, when set, marks pixels outside the configured working area
	// polygon.
	workspace Mask
}

// NewNonROIPolicy returns a policy with the given thresholds.  Zero values
// select the defaults.
func NewNonROIPolicy(depthEpsilon, heightCeiling float32) *NonROIPolicy {
	if depthEpsilon == 0 {
		depthEpsilon = DefaultDepthEpsilon
	}

	if heightCeiling == 0 {
		heightCeiling = DefaultHeightCeiling
	}

	return &NonROIPolicy{
		DepthEpsilon:  depthEpsilon,
		HeightCeiling: heightCeiling,
	}
}

// SetWorkspace adds an exclusion rule marking every pixel outside the given
// closed polygon as non-ROI.  The polygon is first offset outwards by margin
// pixels so segmenters keep a tolerance band around the working area.  Pass
// fewer than three points to clear the rule.
func (p *NonROIPolicy) SetWorkspace(width, height int, polygon []rectify.Point,
	margin float64) error {

	if len(polygon) == 0 {
		p.workspace = Mask{}
		return nil
	}

	if len(polygon) < 3 {
		return errors.Errorf("workspace polygon has %d points, want at least 3",
			len(polygon))
	}

	// offset the polygon outwards by the margin
	var path clipper.Path

	for _, pt := range polygon {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X),
			Y: clipper.CInt(pt.Y),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(margin)

	if len(solution) == 0 {
		return errors.Errorf("workspace polygon offset by %v collapsed", margin)
	}

	// rasterise: pixels inside any offset ring are workspace, the rest is
	// excluded
	inside := NewMask(width, height)

	for _, ring := range solution {
		rasterise(inside, ring)
	}

	p.workspace = NewMask(width, height)

	for i, v := range inside.Pix() {
		if v == 0 {
			p.workspace.Pix()[i] = 1
		}
	}

	return nil
}

// rasterise sets every pixel of m whose center lies inside the closed ring,
// using even-odd scanline crossing counts.
func rasterise(m Mask, ring clipper.Path) {
	n := len(ring)

	if n < 3 {
		return
	}

	for y := 0; y < m.Height(); y++ {
		cy := float64(y) + 0.5

		// collect crossings of the scanline with the ring edges
		var xs []float64

		for i := 0; i < n; i++ {
			a := ring[i]
			b := ring[(i+1)%n]

			ay, by := float64(a.Y), float64(b.Y)

			if (ay <= cy) == (by <= cy) {
				continue
			}

			ax, bx := float64(a.X), float64(b.X)
			xs = append(xs, ax+(cy-ay)/(by-ay)*(bx-ax))
		}

		sort.Float64s(xs)

		// fill between crossing pairs left to right
		for i := 0; i+1 < len(xs); i += 2 {
			lo, hi := xs[i], xs[i+1]

			for x := int(lo + 0.5); float64(x)+0.5 < hi && x < m.Width(); x++ {
				if x < 0 {
					continue
				}
				m.Set(x, y, true)
			}
		}
	}
}

// Mask derives the exclusion mask for the current frame.  A pixel is non-ROI
// when its depth magnitude is below DepthEpsilon, its height is above
// HeightCeiling, or it lies outside the configured workspace polygon.
func (p *NonROIPolicy) Mask(depth DepthMap, heights HeightMap) (Mask, error) {
	if !depth.SameSize(heights) {
		return Mask{}, errors.Wrapf(ErrShapeMismatch,
			"depth frame is %dx%d, height map is %dx%d",
			depth.Width(), depth.Height(), heights.Width(), heights.Height())
	}

	out := NewMask(depth.Width(), depth.Height())

	dp := depth.Pix()
	hp := heights.Pix()
	op := out.Pix()

	for i := range op {
		d := dp[i]
		if d < 0 {
			d = -d
		}

		if d < p.DepthEpsilon || hp[i] > p.HeightCeiling {
			op[i] = 1
		}
	}

	if !p.workspace.Empty() {
		if !p.workspace.SameSize(out) {
			return Mask{}, errors.Wrapf(ErrShapeMismatch,
				"workspace mask is %dx%d, frame is %dx%d",
				p.workspace.Width(), p.workspace.Height(),
				out.Width(), out.Height())
		}

		if err := out.Union(p.workspace); err != nil {
			return Mask{}, err
		}
	}

	return out, nil
}
