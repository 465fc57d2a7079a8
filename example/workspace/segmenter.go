package main

import (
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	surveillance "github.com/acmiyaguchi/Surveillance"
	"github.com/acmiyaguchi/Surveillance/rectify"
)

// bandSegmenter marks every pixel whose height above the table falls inside
// [low, high).  It stands in for a trained detector so the pipeline can be
// exercised without model weights.
type bandSegmenter struct {
	low     float32
	high    float32
	heights surveillance.HeightMap
	mask    surveillance.Mask
}

// UpdateHeightMap receives the per-frame height map from the interpreter
func (s *bandSegmenter) UpdateHeightMap(heights surveillance.HeightMap) {
	s.heights = heights
}

// Process builds the band mask from the current height map
func (s *bandSegmenter) Process(rgb gocv.Mat) error {

	if s.heights.Empty() {
		return errors.New("no height map received before Process")
	}

	width := s.heights.Width()
	height := s.heights.Height()

	if rgb.Cols() != width || rgb.Rows() != height {
		return errors.Errorf("rgb frame is %dx%d, height map is %dx%d",
			rgb.Cols(), rgb.Rows(), width, height)
	}

	s.mask = surveillance.NewMask(width, height)

	for i, v := range s.heights.Pix() {
		if v >= s.low && v < s.high {
			s.mask.Pix()[i] = 1
		}
	}

	return nil
}

// Mask returns the raw band mask from the last Process call
func (s *bandSegmenter) Mask() surveillance.Mask {
	return s.mask
}

// residualSegmenter claims every pixel left unexplained by the background,
// human and robot masks and tracks the centroids of the resulting blobs
type residualSegmenter struct {
	background surveillance.Mask
	human      surveillance.Mask
	robot      surveillance.Mask
	mask       surveillance.Mask
	tracker    *blobTracker
}

func newResidualSegmenter() *residualSegmenter {
	return &residualSegmenter{
		tracker: newBlobTracker(),
	}
}

// SetContextMasks receives the composed layers of the current frame
func (s *residualSegmenter) SetContextMasks(background, human, robot surveillance.Mask) {
	s.background = background
	s.human = human
	s.robot = robot
}

// Process computes the residual mask and refreshes the blob tracker
func (s *residualSegmenter) Process(rgb gocv.Mat) error {

	if s.background.Empty() {
		return errors.New("no context masks received before Process")
	}

	width := s.background.Width()
	height := s.background.Height()

	s.mask = surveillance.NewMask(width, height)

	pix := s.mask.Pix()

	for i := range pix {
		if s.background.Pix()[i] == 0 && s.human.Pix()[i] == 0 &&
			s.robot.Pix()[i] == 0 {
			pix[i] = 1
		}
	}

	s.tracker.Update(blobCentroids(s.mask))

	return nil
}

// Mask returns the residual mask from the last Process call
func (s *residualSegmenter) Mask() surveillance.Mask {
	return s.mask
}

// Tracker exposes the centroid tracker to the interpreter
func (s *residualSegmenter) Tracker() surveillance.Tracker {
	return s.tracker
}

// blobCentroids labels the 4-connected components of the mask and returns
// one centroid per component
func blobCentroids(m surveillance.Mask) []rectify.Point {

	width := m.Width()
	height := m.Height()

	seen := make([]bool, width*height)
	stack := make([]int, 0, 64)

	var pts []rectify.Point

	for start, v := range m.Pix() {
		if v == 0 || seen[start] {
			continue
		}

		// flood fill one component accumulating its centroid
		sumX, sumY, n := 0, 0, 0
		stack = append(stack[:0], start)
		seen[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x := idx % width
			y := idx / width

			sumX += x
			sumY += y
			n++

			for _, next := range []int{idx - 1, idx + 1, idx - width, idx + width} {
				if next < 0 || next >= width*height || seen[next] ||
					m.Pix()[next] == 0 {
					continue
				}

				// reject wrap-around on horizontal neighbours
				if (next == idx-1 || next == idx+1) && next/width != y {
					continue
				}

				seen[next] = true
				stack = append(stack, next)
			}
		}

		pts = append(pts, rectify.Point{
			X: float64(sumX) / float64(n),
			Y: float64(sumY) / float64(n),
		})
	}

	return pts
}

// track is one blob followed across frames
type track struct {
	ID  uuid.UUID
	Pos rectify.Point
}

// blobTracker matches blob centroids between frames by nearest neighbour and
// keeps a stable identity for each
type blobTracker struct {
	tracks []track
	// centroids further apart than this start a new track
	maxDist float64
}

func newBlobTracker() *blobTracker {
	return &blobTracker{maxDist: 50}
}

// Update matches the new centroids against the existing tracks
func (t *blobTracker) Update(pts []rectify.Point) {

	next := make([]track, 0, len(pts))
	used := make([]bool, len(t.tracks))

	for _, p := range pts {
		best := -1
		bestDist := t.maxDist

		for i, tr := range t.tracks {
			if used[i] {
				continue
			}

			d := math.Hypot(tr.Pos.X-p.X, tr.Pos.Y-p.Y)

			if d < bestDist {
				best = i
				bestDist = d
			}
		}

		if best >= 0 {
			used[best] = true
			next = append(next, track{ID: t.tracks[best].ID, Pos: p})
			continue
		}

		next = append(next, track{ID: uuid.New(), Pos: p})
	}

	t.tracks = next
}

// Points returns the current track positions
func (t *blobTracker) Points() []rectify.Point {

	pts := make([]rectify.Point, len(t.tracks))

	for i, tr := range t.tracks {
		pts[i] = tr.Pos
	}

	return pts
}
