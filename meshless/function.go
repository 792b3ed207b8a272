package meshless

import (
	"math"
)

// Function is a meshless function centered at a point with compact support
type Function interface {
	Dimension() int
	Radius() float64
	Position() []float64
	Value(x []float64) float64
	// Gradient writes the gradient at x into grad, which has Dimension() entries
	Gradient(x []float64, grad []float64)
}

// RBFFunction evaluates an RBF at the distance from its center scaled by Shape
type RBFFunction struct {
	RBF      RBF
	Shape    float64
	position []float64
}

func NewRBFFunction(rbf RBF, shape float64, position []float64) *RBFFunction {
	return &RBFFunction{RBF: rbf, Shape: shape, position: position}
}

func (f *RBFFunction) Dimension() int      { return len(f.position) }
func (f *RBFFunction) Position() []float64 { return f.position }
func (f *RBFFunction) Radius() float64     { return f.RBF.Radius() / f.Shape }

func (f *RBFFunction) distance(x []float64) float64 {
	var d float64
	for i, c := range f.position {
		d += (x[i] - c) * (x[i] - c)
	}
	return math.Sqrt(d)
}

func (f *RBFFunction) Value(x []float64) float64 {
	return f.RBF.Value(f.Shape * f.distance(x))
}

func (f *RBFFunction) Gradient(x []float64, grad []float64) {
	var (
		dist = f.distance(x)
	)
	if dist == 0 {
		for i := range grad {
			grad[i] = 0
		}
		return
	}
	fac := f.RBF.D(f.Shape*dist) * f.Shape / dist
	for i, c := range f.position {
		grad[i] = fac * (x[i] - c)
	}
}
