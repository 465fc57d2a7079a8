package render

import (
	"image/color"

	surveillance "github.com/acmiyaguchi/Surveillance"
)

var (
	// LayerColors is the fixed palette used to paint each scene layer mask
	LayerColors = map[surveillance.Layer]color.RGBA{
		surveillance.LayerHuman:      {R: 255, G: 56, B: 56, A: 255},  // #FF3838
		surveillance.LayerBackground: {R: 96, G: 96, B: 96, A: 255},   // #606060
		surveillance.LayerRobot:      {R: 0, G: 194, B: 255, A: 255},  // #00C2FF
		surveillance.LayerObject:     {R: 72, G: 249, B: 10, A: 255},  // #48F90A
	}
)
