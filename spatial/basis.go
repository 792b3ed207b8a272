package spatial

import (
	"github.com/notargets/gomeshless/meshless"
	"github.com/notargets/gomeshless/utils"
)

// Point is the capability shared by basis and weight functions
type Point interface {
	Index() int
	Dimension() int
	Position() []float64
	PointType() utils.PointType
	Material() int
}

// BasisFunction spans the solution space. It is immutable once built.
type BasisFunction struct {
	index            int
	dimension        int
	radius           float64
	position         []float64
	function         meshless.Function
	pointType        utils.PointType
	boundarySurfaces []int
	boundaryIndex    int
	material         int
}

// NewBasisFunction is BOUNDARY when any boundary surface lies within its
// support. boundaryIndex is its slot in the augment list, or -1.
func NewBasisFunction(index, material, boundaryIndex int, function meshless.Function,
	boundarySurfaces []int) (b *BasisFunction) {
	b = &BasisFunction{
		index:            index,
		dimension:        function.Dimension(),
		radius:           function.Radius(),
		position:         function.Position(),
		function:         function,
		pointType:        utils.Interior,
		boundarySurfaces: boundarySurfaces,
		boundaryIndex:    boundaryIndex,
		material:         material,
	}
	if len(boundarySurfaces) != 0 {
		b.pointType = utils.Boundary
	}
	return
}

func (b *BasisFunction) Index() int                  { return b.index }
func (b *BasisFunction) Dimension() int              { return b.dimension }
func (b *BasisFunction) Position() []float64         { return b.position }
func (b *BasisFunction) PointType() utils.PointType  { return b.pointType }
func (b *BasisFunction) Material() int               { return b.material }
func (b *BasisFunction) Radius() float64             { return b.radius }
func (b *BasisFunction) Function() meshless.Function { return b.function }
func (b *BasisFunction) BoundarySurfaces() []int     { return b.boundarySurfaces }
func (b *BasisFunction) BoundaryIndex() int          { return b.boundaryIndex }
