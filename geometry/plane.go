package geometry

import (
	"math"
)

// CartesianPlane is an axis aligned boundary plane x[SurfaceDimension] = Position
// with outward normal +1 or -1 along that axis
type CartesianPlane struct {
	Index            int
	Dimension        int
	SurfaceDimension int
	Position         float64
	Normal           float64
	Source           int // index of the BoundarySource
}

func (p CartesianPlane) NormalVector() (n []float64) {
	n = make([]float64, p.Dimension)
	n[p.SurfaceDimension] = p.Normal
	return
}

// Distance is the unsigned distance from a position to the plane
func (p CartesianPlane) Distance(position []float64) float64 {
	return math.Abs(position[p.SurfaceDimension] - p.Position)
}

// Outgoing reports whether a direction leaves the domain through this plane.
// Tangent directions are neither outgoing nor incoming.
func (p CartesianPlane) Outgoing(direction []float64) bool {
	return p.Normal*direction[p.SurfaceDimension] > 0
}

func (p CartesianPlane) Incoming(direction []float64) bool {
	return p.Normal*direction[p.SurfaceDimension] < 0
}
