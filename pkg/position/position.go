// Package position turns a detected object's bounding polygon into a coarse
// directional label: on the left, on the right or straight ahead.
package position

import (
	"github.com/teslashibe/naveye-assist/pkg/orientation"
)

// Vertex is a polygon corner in normalized frame coordinates (0-1).
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a bounding polygon, usually four vertices.
type Polygon []Vertex

// MeanX returns the arithmetic mean of the vertex x coordinates.
// The second return value is false for an empty polygon.
func (p Polygon) MeanX() (float64, bool) {
	if len(p) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range p {
		sum += v.X
	}
	return sum / float64(len(p)), true
}

// Label is a directional label.
type Label string

// Labels spoken after the object name.
const (
	Left     Label = "on the left"
	Right    Label = "on the right"
	Straight Label = "straight ahead"
)

// Thresholds on the mean x coordinate. Both are exclusive.
const (
	LeftThreshold  = 0.33
	RightThreshold = 0.66
)

// Classify maps box to a label: mean x below LeftThreshold is Left, above
// RightThreshold is Right, anything else (including an empty box) is Straight.
//
// The orientation is accepted so callers always pass it, but both orientations
// currently use the same thresholds.
func Classify(box Polygon, _ orientation.Orientation) Label {
	mean, ok := box.MeanX()
	if !ok {
		return Straight
	}
	return classifyX(mean)
}

func classifyX(mean float64) Label {
	switch {
	case mean < LeftThreshold:
		return Left
	case mean > RightThreshold:
		return Right
	default:
		return Straight
	}
}
