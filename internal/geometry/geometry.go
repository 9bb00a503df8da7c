package geometry

import (
	"math"

	"github.com/mitroadmaps/gomapinfer/common"
)

// Box is an axis-aligned box in image coordinates. Width and height are
// expected to be non-negative.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Centroid returns the geometric center of the box, used as its point
// representation for matching.
func (b Box) Centroid() common.Point {
	return common.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Diagonal returns the length of the box diagonal, a proxy for object scale.
func (b Box) Diagonal() float64 {
	return math.Sqrt(b.Width*b.Width + b.Height*b.Height)
}

// Valid reports whether the box has strictly positive dimensions.
func (b Box) Valid() bool {
	return b.Width > 0 && b.Height > 0
}
