package integration

import (
	"fmt"

	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/meshless"
	"github.com/notargets/gomeshless/quadrature"
)

// Cell is a box of the background integration mesh. Weights and Bases list
// the functions whose support intersects it.
type Cell struct {
	Index      int
	Limits     [][2]float64
	Quadrature quadrature.Rule
	Weights    []int
	Bases      []int
}

// Surface is a piece of a boundary plane, carrying its own quadrature
type Surface struct {
	Index      int
	Plane      int
	Limits     [][2]float64 // zero width in the plane's dimension
	Quadrature quadrature.Rule
	Weights    []int
	Bases      []int
}

// Mesh is the Cartesian background mesh used only to carry quadrature
type Mesh struct {
	Dimension int
	Cells     []*Cell
	Surfaces  []*Surface
}

// split divides limits into counts[d] equal intervals per dimension, first
// dimension fastest, skipping dimension skip (use -1 to skip none)
func split(limits [][2]float64, counts []int, skip int) (boxes [][][2]float64) {
	var (
		dim   = len(limits)
		total = 1
	)
	for d := 0; d < dim; d++ {
		if d != skip {
			total *= counts[d]
		}
	}
	idx := make([]int, dim)
	for n := 0; n < total; n++ {
		box := make([][2]float64, dim)
		for d := 0; d < dim; d++ {
			if d == skip {
				box[d] = limits[d]
				continue
			}
			h := (limits[d][1] - limits[d][0]) / float64(counts[d])
			box[d][0] = limits[d][0] + float64(idx[d])*h
			box[d][1] = limits[d][0] + float64(idx[d]+1)*h
			if idx[d] == counts[d]-1 {
				box[d][1] = limits[d][1]
			}
		}
		boxes = append(boxes, box)
		for d := 0; d < dim; d++ {
			if d == skip {
				continue
			}
			idx[d]++
			if idx[d] < counts[d] {
				break
			}
			idx[d] = 0
		}
	}
	return
}

// NewMesh partitions the solid into cells[d] intervals per dimension with an
// n point Gauss-Legendre rule per dimension, and records the overlap lists
func NewMesh(solid *geometry.Box, cells []int, n int, weights, bases *meshless.Neighbors) (m *Mesh, err error) {
	var (
		dim = solid.Dimension
	)
	if len(cells) != dim {
		err = fmt.Errorf("integration mesh needs cell counts for %d dimensions, got %d", dim, len(cells))
		return
	}
	for d, c := range cells {
		if c < 1 {
			err = fmt.Errorf("integration mesh needs at least one cell in dimension %d, got %d", d, c)
			return
		}
	}
	m = &Mesh{Dimension: dim}
	for i, box := range split(solid.Limits, cells, -1) {
		c := &Cell{
			Index:   i,
			Limits:  box,
			Weights: weights.InBox(box),
			Bases:   bases.InBox(box),
		}
		if c.Quadrature, err = quadrature.Cartesian(n, box); err != nil {
			return
		}
		m.Cells = append(m.Cells, c)
	}
	for p, plane := range solid.Planes {
		sd := plane.SurfaceDimension
		for _, box := range split(solid.Limits, cells, sd) {
			box[sd] = [2]float64{plane.Position, plane.Position}
			s := &Surface{
				Index:   len(m.Surfaces),
				Plane:   p,
				Limits:  box,
				Weights: weights.InBox(box),
				Bases:   bases.InBox(box),
			}
			var free quadrature.Rule
			if dim > 1 {
				freeLimits := make([][2]float64, 0, dim-1)
				for d := 0; d < dim; d++ {
					if d != sd {
						freeLimits = append(freeLimits, box[d])
					}
				}
				if free, err = quadrature.Cartesian(n, freeLimits); err != nil {
					return
				}
			}
			s.Quadrature = quadrature.Embed(free, dim, sd, plane.Position)
			m.Surfaces = append(m.Surfaces, s)
		}
	}
	return
}

// WeightCells inverts the overlap lists: cells and surfaces per weight
func (m *Mesh) WeightCells(numberOfWeights int) (cells [][]*Cell, surfaces [][]*Surface) {
	cells = make([][]*Cell, numberOfWeights)
	surfaces = make([][]*Surface, numberOfWeights)
	for _, c := range m.Cells {
		for _, i := range c.Weights {
			cells[i] = append(cells[i], c)
		}
	}
	for _, s := range m.Surfaces {
		for _, i := range s.Weights {
			surfaces[i] = append(surfaces[i], s)
		}
	}
	return
}
