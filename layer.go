package surveillance

import (
	"fmt"

	"github.com/pkg/errors"
)

// Layer identifies one of the four scene layers produced by composition.
type Layer int

// The fixed layer vocabulary.  Declaration order is the trust order used to
// resolve overlapping raw masks, most trusted first, except that background
// absorbs the non-ROI exclusion before demoting robot pixels.
const (
	LayerHuman Layer = iota
	LayerBackground
	LayerRobot
	LayerObject
)

// Layers lists all four layer identities in trust order.
var Layers = []Layer{LayerHuman, LayerBackground, LayerRobot, LayerObject}

// layerNames is the fixed name table for the query interface.
var layerNames = map[Layer]string{
	LayerHuman:      "human",
	LayerBackground: "background",
	LayerRobot:      "robot",
	LayerObject:     "object",
}

// String returns the query-interface name of the layer.
func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}

	return fmt.Sprintf("layer(%d)", int(l))
}

// ParseLayer resolves a layer name from the fixed vocabulary
// {background, human, robot, object}.  Any other name fails with
// ErrUnknownLayer.
func ParseLayer(name string) (Layer, error) {
	for layer, known := range layerNames {
		if name == known {
			return layer, nil
		}
	}

	return 0, errors.Wrapf(ErrUnknownLayer, "%q", name)
}
