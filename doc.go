/*
Package surveillance fuses the outputs of independent binary-mask segmenters
watching the same camera frame into a single layered interpretation of a
human-robot workspace scene: background (tabletop), human, robot arm, and the
residual manipulated objects.

The scene interpreter owns the per-frame pipeline: depth frames are converted
to height-above-surface maps against a calibrated reference plane, a non-ROI
exclusion mask is derived from depth validity and height bounds, and the raw
segmenter masks are composed under a fixed trust order
(human > background > robot > residual object) into four mutually exclusive
layer masks.

Concrete segmentation algorithms, trackers and the calibration workflow are
external collaborators consumed through the capability interfaces in this
package.  The rectify subpackage provides bird-eye-view rectification of
layers and tracked points with a fixed homography, and the cache subpackage
provides the fixed-capacity ring buffer used for signal histories.
*/
package surveillance
