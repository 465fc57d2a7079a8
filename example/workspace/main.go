/*
Example code showing how to build a scene interpreter for a tabletop
workspace from an RGB/depth frame pair and a reference capture of the empty
table.  Simple height-band segmenters stand in for the production human,
robot and background detectors so the full pipeline can be run end to end:
height estimation, non-ROI exclusion, trust-order layer composition,
bird-eye-view rectification and overlay rendering.
*/
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	surveillance "github.com/acmiyaguchi/Surveillance"
	"github.com/acmiyaguchi/Surveillance/cache"
	"github.com/acmiyaguchi/Surveillance/rectify"
	"github.com/acmiyaguchi/Surveillance/render"
)

const (
	// depth band (meters above table) treated as tabletop surface
	surfaceBand = 0.02
	// depth band boundary between manipulated objects and the robot arm
	robotLow = 0.15
	// overlay transparency
	overlayAlpha = 0.45
	// legend TTF size
	ttfFontSize = 18
)

func main() {
	rgbFile := flag.String("rgb", "frame.jpg", "RGB frame of the workspace")
	depthFile := flag.String("depth", "frame-depth.png", "16-bit depth map paired with the RGB frame")
	refFile := flag.String("ref", "empty-depth.png", "16-bit depth map of the empty table used for calibration")
	saveFile := flag.String("save", "layers.jpg", "Output image with the layer overlay")
	depthUnits := flag.Float64("units", 1000, "Depth units per meter in the PNG files")
	quadFlag := flag.String("bev", "", "Table corners x0,y0,x1,y1,x2,y2,x3,y3 for bird-eye-view rectification")
	fontFile := flag.String("font", "", "Optional TTF font for the legend, uses Hershey otherwise")
	flag.Parse()

	log.SetFlags(0)

	rgb := gocv.IMRead(*rgbFile, gocv.IMReadColor)

	if rgb.Empty() {
		log.Fatal("Error reading RGB frame from: ", *rgbFile)
	}

	defer rgb.Close()

	depth, err := loadDepth(*depthFile, float32(*depthUnits))

	if err != nil {
		log.Fatal("Error reading depth map: ", err)
	}

	reference, err := loadDepth(*refFile, float32(*depthUnits))

	if err != nil {
		log.Fatal("Error reading reference depth map: ", err)
	}

	// calibrate the height estimator with the empty table capture
	estimator := surveillance.NewHeightEstimator()
	estimator.Calibrate(reference)

	cfg := surveillance.Config{}

	if *quadFlag != "" {
		bev, err := parseQuad(*quadFlag, rgb.Cols(), rgb.Rows())

		if err != nil {
			log.Fatal("Error parsing -bev corners: ", err)
		}

		cfg.BEV = bev
	}

	// stand-in segmenters splitting the scene by height bands
	human := &bandSegmenter{low: robotLow, high: 10}
	robot := &bandSegmenter{low: surfaceBand, high: robotLow}
	background := &bandSegmenter{low: 0, high: surfaceBand}
	object := newResidualSegmenter()

	interp, err := surveillance.NewSceneInterpreter(human, background, robot,
		object, estimator, cfg)

	if err != nil {
		log.Fatal("Error building scene interpreter: ", err)
	}

	start := time.Now()

	if err := interp.ProcessFrame(rgb, depth); err != nil {
		log.Fatal("Error processing frame: ", err)
	}

	log.Printf("Processed frame %s in %s\n", interp.FrameID(), time.Since(start))

	// accumulate per-layer pixel areas as a signal history
	signals, err := cache.NewRing(100, len(surveillance.Layers))

	if err != nil {
		log.Fatal("Error creating signal cache: ", err)
	}

	area := make([]float64, 0, len(surveillance.Layers))
	masks := make(map[surveillance.Layer]surveillance.Mask)

	for _, layer := range surveillance.Layers {
		mask, err := interp.LayerMask(layer.String(), false)

		if err != nil {
			log.Fatal("Error querying layer mask: ", err)
		}

		masks[layer] = mask
		area = append(area, float64(mask.Count()))

		log.Printf("Layer %-10s covers %6d pixels\n", layer, mask.Count())
	}

	if err := signals.Append(area); err != nil {
		log.Fatal("Error caching layer signals: ", err)
	}

	// render the overlay on a copy of the frame
	resImg := rgb.Clone()
	defer resImg.Close()

	if err := render.Layers(&resImg, masks, overlayAlpha); err != nil {
		log.Fatal("Error rendering layer overlay: ", err)
	}

	// overlay the object centroids, rectified when a BEV transform is set
	tracker, err := interp.LayerTracker("object")

	if err == nil && tracker != nil {
		pts := tracker.Points()

		if cfg.BEV != nil {
			pts, err = interp.RectifyPoints(pts)

			if err != nil {
				log.Fatal("Error rectifying tracked points: ", err)
			}
		}

		render.Points(&resImg, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 4)
	}

	if err := drawLegend(&resImg, *fontFile); err != nil {
		log.Fatal("Error drawing legend: ", err)
	}

	if !gocv.IMWrite(*saveFile, resImg) {
		log.Fatal("Failed to save the overlay image")
	}

	log.Printf("Saved layer overlay to %s, %d signal rows cached\n",
		*saveFile, signals.Len())
}

// loadDepth reads a 16-bit depth PNG and converts it to meters
func loadDepth(file string, units float32) (surveillance.DepthMap, error) {

	img := gocv.IMRead(file, gocv.IMReadAnyDepth)

	if img.Empty() {
		return surveillance.DepthMap{}, fmt.Errorf("cannot read %s", file)
	}

	defer img.Close()

	f32 := gocv.NewMat()
	defer f32.Close()

	img.ConvertToWithParams(&f32, gocv.MatTypeCV32F, 1/units, 0)

	vals, err := f32.DataPtrFloat32()

	if err != nil {
		return surveillance.DepthMap{}, fmt.Errorf("reading depth values: %w", err)
	}

	pix := make([]float32, len(vals))
	copy(pix, vals)

	return surveillance.DepthMapFromFloats(img.Cols(), img.Rows(), pix)
}

// parseQuad builds the bird-eye-view transform mapping the given table
// corners onto the full frame
func parseQuad(s string, width, height int) (*rectify.Transform, error) {

	parts := strings.Split(s, ",")

	if len(parts) != 8 {
		return nil, fmt.Errorf("got %d values, want 8", len(parts))
	}

	vals := make([]float64, 8)

	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)

		if err != nil {
			return nil, fmt.Errorf("value %q: %w", p, err)
		}

		vals[i] = v
	}

	src := []rectify.Point{
		{X: vals[0], Y: vals[1]},
		{X: vals[2], Y: vals[3]},
		{X: vals[4], Y: vals[5]},
		{X: vals[6], Y: vals[7]},
	}

	dst := []rectify.Point{
		{X: 0, Y: 0},
		{X: float64(width), Y: 0},
		{X: float64(width), Y: float64(height)},
		{X: 0, Y: float64(height)},
	}

	return rectify.QuadTransform(src, dst)
}

// drawLegend writes the layer color legend onto the image, using the given
// TTF font when provided or the built in Hershey font otherwise
func drawLegend(img *gocv.Mat, fontFile string) error {

	var face font.Face

	if fontFile != "" {
		fontBytes, err := os.ReadFile(fontFile)

		if err != nil {
			return fmt.Errorf("failed to load font: %w", err)
		}

		f, err := opentype.Parse(fontBytes)

		if err != nil {
			return fmt.Errorf("failed to parse font: %w", err)
		}

		face, err = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    ttfFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})

		if err != nil {
			return fmt.Errorf("failed to create type face: %w", err)
		}
	}

	for i, layer := range surveillance.Layers {
		clr := render.LayerColors[layer]
		pos := image.Pt(10, 24*(i+1))

		// color swatch next to the layer name
		gocv.Rectangle(img, image.Rect(pos.X, pos.Y-12, pos.X+14, pos.Y+2), clr, -1)

		if face == nil {
			gocv.PutText(img, layer.String(), image.Pt(pos.X+20, pos.Y),
				gocv.FontHersheyDuplex, 0.6,
				color.RGBA{R: 255, G: 255, B: 255, A: 0}, 1)
			continue
		}

		if err := putTTFText(img, layer.String(), face, pos.X+20, pos.Y); err != nil {
			return err
		}
	}

	return nil
}

// putTTFText renders text onto the Mat through an image.RGBA overlay
func putTTFText(img *gocv.Mat, text string, face font.Face, x, y int) error {

	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(),
		image.NewUniform(color.RGBA{0, 0, 0, 0}), image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}

	dr.DrawString(text)

	// blend the text pixels onto the frame bytes
	data := img.ToBytes()
	width := img.Cols()

	bounds := rgba.Bounds()

	for yy := bounds.Min.Y; yy < bounds.Max.Y; yy++ {
		for xx := bounds.Min.X; xx < bounds.Max.X; xx++ {
			r, g, b, a := rgba.At(xx, yy).RGBA()

			if a == 0 {
				continue
			}

			pos := (yy*width + xx) * 3
			data[pos+0] = uint8(b >> 8)
			data[pos+1] = uint8(g >> 8)
			data[pos+2] = uint8(r >> 8)
		}
	}

	tmp, err := gocv.NewMatFromBytes(img.Rows(), width, gocv.MatTypeCV8UC3, data)

	if err != nil {
		return fmt.Errorf("error creating text Mat: %w", err)
	}

	defer tmp.Close()
	tmp.CopyTo(img)

	return nil
}
