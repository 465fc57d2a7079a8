package surveillance

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/acmiyaguchi/Surveillance/rectify"
)

// Config carries the scene interpreter parameters beyond the ones owned by
// the layer segmenters themselves.
type Config struct {
	// Policy derives the non-ROI exclusion mask each frame.  Nil selects a
	// policy with the default thresholds.
	Policy *NonROIPolicy
	// BEV is the fixed bird-eye-view homography used for rectified queries.
	// Nil leaves rectification unconfigured; rectified queries then fail
	// with ErrNoTransformConfigured.
	BEV *rectify.Transform
}

// SceneInterpreter splits the workspace scene into four layers: background
// (tabletop), human, robot arm and the residual manipulated objects.  The
// first three rely on their own segmenter capability, the object layer is
// the residual.  Frames are processed one at a time; after each successful
// ProcessFrame the four final masks are pairwise disjoint.
type SceneInterpreter struct {
	humanSeg  Segmenter
	bgSeg     Segmenter
	robotSeg  Segmenter
	objectSeg ResidualSegmenter

	estimator *HeightEstimator
	policy    *NonROIPolicy
	bev       *rectify.Transform

	// state of the last successfully processed frame.  The rgb and depth
	// inputs are referenced, never copied, until the next ProcessFrame
	// replaces them.
	frameID   uuid.UUID
	rgb       gocv.Mat
	depth     DepthMap
	heightMap HeightMap
	nonROI    Mask
	masks     map[Layer]Mask
}

// NewSceneInterpreter builds a scene interpreter from the four layer
// segmenter capabilities and a height estimator.  The estimator may be
// calibrated before or after construction, but must be calibrated before the
// first ProcessFrame.
func NewSceneInterpreter(human, background, robot Segmenter,
	object ResidualSegmenter, estimator *HeightEstimator,
	cfg Config) (*SceneInterpreter, error) {

	if human == nil || background == nil || robot == nil || object == nil {
		return nil, errors.New("all four layer segmenters are required")
	}

	if estimator == nil {
		return nil, errors.New("a height estimator is required")
	}

	policy := cfg.Policy

	if policy == nil {
		policy = NewNonROIPolicy(0, 0)
	}

	return &SceneInterpreter{
		humanSeg:  human,
		bgSeg:     background,
		robotSeg:  robot,
		objectSeg: object,
		estimator: estimator,
		policy:    policy,
		bev:       cfg.BEV,
		masks:     make(map[Layer]Mask),
	}, nil
}

// ProcessFrame runs the full per-frame pipeline on an RGB/depth pair of
// matching resolution: height estimation, non-ROI derivation, the four raw
// segmentations and the trust-order composition
// human > background > robot > residual object.  On any failure the call
// returns without touching the previous frame's masks, so queries keep
// serving the last consistent snapshot.  The rgb frame must be an 8-bit
// 3-channel image.
func (s *SceneInterpreter) ProcessFrame(rgb gocv.Mat, depth DepthMap) error {
	if rgb.Empty() || depth.Empty() {
		return errors.Wrap(ErrShapeMismatch, "empty rgb frame or depth map")
	}

	if rgb.Cols() != depth.Width() || rgb.Rows() != depth.Height() {
		return errors.Wrapf(ErrShapeMismatch,
			"rgb frame is %dx%d, depth map is %dx%d",
			rgb.Cols(), rgb.Rows(), depth.Width(), depth.Height())
	}

	heightMap, err := s.estimator.Apply(depth)

	if err != nil {
		return err
	}

	// hand the fresh height map to the segmenters that consume it
	for _, seg := range s.segmenters() {
		if ha, ok := seg.(HeightAware); ok {
			ha.UpdateHeightMap(heightMap)
		}
	}

	nonROI, err := s.policy.Mask(depth, heightMap)

	if err != nil {
		return err
	}

	// human first, its raw mask is the most trusted signal and is kept
	// without demotion
	human, err := s.rawMask(s.humanSeg, LayerHuman, rgb, depth)

	if err != nil {
		return err
	}

	// background absorbs the non-ROI exclusion, then yields every pixel
	// already claimed by the human mask
	background, err := s.rawMask(s.bgSeg, LayerBackground, rgb, depth)

	if err != nil {
		return err
	}

	if err := background.Union(nonROI); err != nil {
		return err
	}

	if err := background.Subtract(human); err != nil {
		return err
	}

	// robot yields to the human mask and then to the final background mask,
	// two sequential trust overrides
	robot, err := s.rawMask(s.robotSeg, LayerRobot, rgb, depth)

	if err != nil {
		return err
	}

	if err := robot.Subtract(human); err != nil {
		return err
	}

	if err := robot.Subtract(background); err != nil {
		return err
	}

	// the object layer is whatever the three final masks leave unexplained
	s.objectSeg.SetContextMasks(background, human, robot)

	object, err := s.rawMask(s.objectSeg, LayerObject, rgb, depth)

	if err != nil {
		return err
	}

	// commit only after every step succeeded
	s.frameID = uuid.New()
	s.rgb = rgb
	s.depth = depth
	s.heightMap = heightMap
	s.nonROI = nonROI
	s.masks[LayerHuman] = human
	s.masks[LayerBackground] = background
	s.masks[LayerRobot] = robot
	s.masks[LayerObject] = object

	return nil
}

// segmenters returns the four segmenter capabilities in trust order.
func (s *SceneInterpreter) segmenters() []Segmenter {
	return []Segmenter{s.humanSeg, s.bgSeg, s.robotSeg, s.objectSeg}
}

// segmenterFor maps a layer identity to its segmenter capability.
func (s *SceneInterpreter) segmenterFor(layer Layer) Segmenter {
	switch layer {
	case LayerHuman:
		return s.humanSeg
	case LayerBackground:
		return s.bgSeg
	case LayerRobot:
		return s.robotSeg
	case LayerObject:
		return s.objectSeg
	}

	return nil
}

// rawMask runs one segmenter on the frame and returns a private copy of its
// raw mask, so composition never mutates segmenter-owned state.
func (s *SceneInterpreter) rawMask(seg Segmenter, layer Layer, rgb gocv.Mat,
	depth DepthMap) (Mask, error) {

	if err := seg.Process(rgb); err != nil {
		return Mask{}, errors.Wrapf(err, "%s segmenter", layer)
	}

	raw := seg.Mask()

	if raw.Empty() || raw.Width() != depth.Width() ||
		raw.Height() != depth.Height() {

		return Mask{}, errors.Wrapf(ErrShapeMismatch,
			"%s segmenter returned a %dx%d mask for a %dx%d frame",
			layer, raw.Width(), raw.Height(), depth.Width(), depth.Height())
	}

	return raw.Clone(), nil
}

// FrameID returns the capture identity assigned to the last successfully
// processed frame.
func (s *SceneInterpreter) FrameID() uuid.UUID {
	return s.frameID
}

// LayerMask returns the final binary mask of the named layer, optionally
// rectified to the bird-eye-view.  The name must be one of
// {background, human, robot, object}.
func (s *SceneInterpreter) LayerMask(name string, rectifyView bool) (Mask, error) {
	layer, err := ParseLayer(name)

	if err != nil {
		return Mask{}, err
	}

	mask, ok := s.masks[layer]

	if !ok {
		return Mask{}, errors.Wrap(ErrNotCalibrated,
			"no frame has been processed")
	}

	if !rectifyView {
		return mask, nil
	}

	if s.bev == nil {
		return Mask{}, errors.Wrapf(ErrNoTransformConfigured,
			"rectified %s mask", layer)
	}

	pix, err := s.bev.WarpGray(mask.Pix(), mask.Width(), mask.Height())

	if err != nil {
		return Mask{}, err
	}

	return MaskFromBytes(mask.Width(), mask.Height(), pix)
}

// LayerImage returns the frame content of the named layer, ie. the RGB frame
// with every pixel outside the layer mask zeroed, optionally rectified to
// the bird-eye-view.  The caller owns the returned Mat and must Close it.
func (s *SceneInterpreter) LayerImage(name string, rectifyView bool) (gocv.Mat, error) {
	layer, err := ParseLayer(name)

	if err != nil {
		return gocv.Mat{}, err
	}

	mask, ok := s.masks[layer]

	if !ok {
		return gocv.Mat{}, errors.Wrap(ErrNotCalibrated,
			"no frame has been processed")
	}

	if rectifyView && s.bev == nil {
		return gocv.Mat{}, errors.Wrapf(ErrNoTransformConfigured,
			"rectified %s layer", layer)
	}

	// manipulating bytes directly is much faster than per-pixel access
	// through CGO
	data := s.rgb.ToBytes()

	for i, v := range mask.Pix() {
		if v == 0 {
			p := i * 3
			data[p+0] = 0
			data[p+1] = 0
			data[p+2] = 0
		}
	}

	img, err := gocv.NewMatFromBytes(s.rgb.Rows(), s.rgb.Cols(),
		gocv.MatTypeCV8UC3, data)

	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "building layer image")
	}

	if !rectifyView {
		return img, nil
	}

	defer img.Close()

	out := gocv.NewMat()
	s.bev.WarpImage(img, &out)

	return out, nil
}

// LayerTracker returns the tracker associated with the named layer's
// segmenter, or nil when the segmenter has none.
func (s *SceneInterpreter) LayerTracker(name string) (Tracker, error) {
	layer, err := ParseLayer(name)

	if err != nil {
		return nil, err
	}

	if tp, ok := s.segmenterFor(layer).(TrackerProvider); ok {
		return tp.Tracker(), nil
	}

	return nil, nil
}

// RectifyPoints transforms a tracked point set with the session homography,
// preserving order and count, so points can be overlaid on rectified layers.
func (s *SceneInterpreter) RectifyPoints(pts []rectify.Point) ([]rectify.Point, error) {
	if s.bev == nil {
		return nil, errors.Wrap(ErrNoTransformConfigured, "rectified points")
	}

	return s.bev.Points(pts), nil
}

// HeightMap returns the height map derived from the last processed depth
// frame.
func (s *SceneInterpreter) HeightMap() (HeightMap, error) {
	if s.heightMap.Empty() {
		return HeightMap{}, errors.Wrap(ErrNotCalibrated,
			"no depth frame has been processed")
	}

	return s.heightMap, nil
}

// NonROI returns the exclusion mask derived for the last processed frame.
func (s *SceneInterpreter) NonROI() (Mask, error) {
	if s.nonROI.Empty() {
		return Mask{}, errors.Wrap(ErrNotCalibrated,
			"no frame has been processed")
	}

	return s.nonROI, nil
}
