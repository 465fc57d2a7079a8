package surveillance

import (
	"github.com/pkg/errors"
)

// Sentinel errors returned by the scene interpreter and its components.
// None of these represent transient conditions, each indicates a programming
// or configuration error upstream, so callers should not retry.  Match with
// errors.Is as returned errors may carry wrapped context.
var (
	// ErrShapeMismatch is returned when a frame, depth map or mask has a
	// resolution different from what the operation requires.  Inputs are
	// never truncated or padded to fit.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNotCalibrated is returned when a height map is requested before the
	// height estimator was calibrated with a reference depth frame, or a
	// query is made before the first frame was processed.
	ErrNotCalibrated = errors.New("not calibrated")

	// ErrNoTransformConfigured is returned when a rectified layer or point
	// set is requested but no perspective transform was supplied at
	// construction.
	ErrNoTransformConfigured = errors.New("no perspective transform configured")

	// ErrUnknownLayer is returned when a layer query names a layer outside
	// the fixed four-layer vocabulary.
	ErrUnknownLayer = errors.New("unknown layer name")
)
