// Package render draws scene interpretation results onto frames for
// inspection: the four layer masks as transparent color overlays and tracked
// point sets as markers.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	surveillance "github.com/acmiyaguchi/Surveillance"
	"github.com/acmiyaguchi/Surveillance/rectify"
)

// Layers renders the given layer masks as a transparent overlay on top of
// the whole image using the LayerColors palette.  Masks must match the image
// dimensions.
func Layers(img *gocv.Mat, masks map[surveillance.Layer]surveillance.Mask,
	alpha float32) error {

	width := img.Cols()
	height := img.Rows()

	for layer, mask := range masks {
		if mask.Width() != width || mask.Height() != height {
			return fmt.Errorf("%s mask is %dx%d, image is %dx%d",
				layer, mask.Width(), mask.Height(), width, height)
		}
	}

	// it is too slow to manipulate pixel by pixel using GoCV due to slowness
	// over CGO.  So we copy the bytes from the source image and manipulate
	// the bytes directly before copying back to a Mat
	imgData := img.ToBytes()

	for _, layer := range surveillance.Layers {
		mask, ok := masks[layer]

		if !ok {
			continue
		}

		clr := LayerColors[layer]
		pix := mask.Pix()

		for i, v := range pix {
			if v == 0 {
				continue
			}

			pixelPos := i * 3

			b, g, r := imgData[pixelPos+0], imgData[pixelPos+1], imgData[pixelPos+2]

			imgData[pixelPos+0] = uint8(float32(b)*(1-alpha) + float32(clr.B)*alpha)
			imgData[pixelPos+1] = uint8(float32(g)*(1-alpha) + float32(clr.G)*alpha)
			imgData[pixelPos+2] = uint8(float32(r)*(1-alpha) + float32(clr.R)*alpha)
		}
	}

	// copy back to the original mat
	tmpImg, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, imgData)

	if err != nil {
		return fmt.Errorf("error creating overlay Mat: %w", err)
	}

	defer tmpImg.Close()
	tmpImg.CopyTo(img)

	return nil
}

// Points draws a marker at each tracked point, eg. object centroids overlaid
// on a rectified layer.
func Points(img *gocv.Mat, pts []rectify.Point, clr color.RGBA, radius int) {
	for _, pt := range pts {
		gocv.Circle(img, image.Pt(int(pt.X+0.5), int(pt.Y+0.5)), radius, clr, -1)
	}
}
