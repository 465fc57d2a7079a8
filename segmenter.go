package surveillance

import (
	"gocv.io/x/gocv"

	"github.com/acmiyaguchi/Surveillance/rectify"
)

// Segmenter is the capability the scene interpreter consumes from each
// concrete layer segmentation algorithm.  Process analyses the current RGB
// frame and Mask returns the resulting raw binary mask at frame resolution.
// The interpreter never retains the raw mask beyond composition.
type Segmenter interface {
	Process(rgb gocv.Mat) error
	Mask() Mask
}

// HeightAware is implemented by segmenters that consume the per-frame height
// map (eg. range-based robot detection).  The height map is owned by the
// interpreter and must be treated as read-only.
type HeightAware interface {
	UpdateHeightMap(heights HeightMap)
}

// Tracker exposes the current tracked point state of a segmenter's
// associated tracker.  The interpreter only reads the points, optionally
// rectifying them for display or export.
type Tracker interface {
	Points() []rectify.Point
}

// TrackerProvider is implemented by segmenters with an associated tracker.
// Tracker may return nil when no tracker is attached.
type TrackerProvider interface {
	Tracker() Tracker
}

// ResidualSegmenter is the capability of the object-layer segmenter.  It is
// informed of the final background, human and robot masks before Process and
// returns whatever is left unexplained within the frame, subject to its own
// internal heuristics.
type ResidualSegmenter interface {
	Segmenter
	SetContextMasks(background, human, robot Mask)
}
