package geometry

import (
	"fmt"

	"github.com/notargets/gomeshless/utils"
)

// Region assigns a material to an axis aligned sub box of the domain.
// Later regions take precedence over earlier ones.
type Region struct {
	Limits   [][2]float64
	Material int
}

func (r Region) Contains(position []float64) bool {
	for d, x := range position {
		if x < r.Limits[d][0]-utils.BOUNDARYTOL || x > r.Limits[d][1]+utils.BOUNDARYTOL {
			return false
		}
	}
	return true
}

// Box is an axis aligned solid with one boundary plane per face, ordered
// (dimension 0 min, dimension 0 max, dimension 1 min, ...)
type Box struct {
	Dimension       int
	Limits          [][2]float64
	Planes          []CartesianPlane
	Sources         []BoundarySource
	Regions         []Region
	DefaultMaterial int
}

// NewBox creates the solid with its boundary planes. sources[s] is attached
// to plane s, so len(sources) must be 2*dimension.
func NewBox(limits [][2]float64, sources []BoundarySource, defaultMaterial int, regions ...Region) (b *Box, err error) {
	var (
		dim = len(limits)
	)
	if dim < 1 || dim > 3 {
		err = fmt.Errorf("box dimension must be 1 to 3, got %d", dim)
		return
	}
	if len(sources) != 2*dim {
		err = fmt.Errorf("box needs %d boundary sources, got %d", 2*dim, len(sources))
		return
	}
	for d := 0; d < dim; d++ {
		if limits[d][1] <= limits[d][0] {
			err = fmt.Errorf("empty box limits [%g, %g] in dimension %d", limits[d][0], limits[d][1], d)
			return
		}
	}
	for i, r := range regions {
		if len(r.Limits) != dim {
			err = fmt.Errorf("region %d has dimension %d in a %d dimensional box", i, len(r.Limits), dim)
			return
		}
	}
	b = &Box{
		Dimension:       dim,
		Limits:          limits,
		Sources:         sources,
		Regions:         regions,
		DefaultMaterial: defaultMaterial,
	}
	for d := 0; d < dim; d++ {
		for side := 0; side < 2; side++ {
			s := 2*d + side
			normal := -1.
			if side == 1 {
				normal = 1.
			}
			b.Planes = append(b.Planes, CartesianPlane{
				Index:            s,
				Dimension:        dim,
				SurfaceDimension: d,
				Position:         limits[d][side],
				Normal:           normal,
				Source:           s,
			})
		}
	}
	return
}

func (b *Box) Inside(position []float64) bool {
	for d, x := range position {
		if x < b.Limits[d][0]-utils.BOUNDARYTOL || x > b.Limits[d][1]+utils.BOUNDARYTOL {
			return false
		}
	}
	return true
}

// NearestSurfaces returns the indices of planes closer than distance to
// position. A plane exactly distance away, to within BOUNDARYTOL, is not
// included, so mirrored points tie the same way.
func (b *Box) NearestSurfaces(position []float64, distance float64) (surfaces []int) {
	for s, p := range b.Planes {
		if p.Distance(position) < distance-utils.BOUNDARYTOL {
			surfaces = append(surfaces, s)
		}
	}
	return
}

// OnBoundary returns the planes position lies on
func (b *Box) OnBoundary(position []float64) (surfaces []int) {
	for s, p := range b.Planes {
		if p.Distance(position) <= utils.BOUNDARYTOL {
			surfaces = append(surfaces, s)
		}
	}
	return
}

func (b *Box) MaterialAt(position []float64) int {
	for r := len(b.Regions) - 1; r >= 0; r-- {
		if b.Regions[r].Contains(position) {
			return b.Regions[r].Material
		}
	}
	return b.DefaultMaterial
}

func (b *Box) Source(plane int) BoundarySource {
	return b.Sources[b.Planes[plane].Source]
}

func (b *Box) HasReflection() bool {
	for _, s := range b.Sources {
		if s.HasReflection() {
			return true
		}
	}
	return false
}
