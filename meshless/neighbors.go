package meshless

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/notargets/gomeshless/utils"
)

// support is stored in the R-tree as the square polygon bounding it
type support struct {
	geom.Polygon
	index    int
	position []float64
	radius   float64
}

var _ geom.Geom = (*support)(nil)

// Neighbors indexes the supports of a set of meshless functions. The R-tree
// holds the first two coordinates; the third is filtered exactly.
type Neighbors struct {
	dimension int
	tree      *rtree.Rtree
	supports  []*support
}

func planarBounds(position []float64, radius float64) *geom.Bounds {
	var (
		y float64
	)
	if len(position) > 1 {
		y = position[1]
	}
	return &geom.Bounds{
		Min: geom.Point{X: position[0] - radius, Y: y - radius},
		Max: geom.Point{X: position[0] + radius, Y: y + radius},
	}
}

func boxPolygon(b *geom.Bounds) geom.Polygon {
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}}
}

func NewNeighbors(positions [][]float64, radii []float64) (n *Neighbors, err error) {
	if len(positions) != len(radii) {
		err = fmt.Errorf("%d positions and %d radii", len(positions), len(radii))
		return
	}
	n = &Neighbors{
		tree: rtree.NewTree(25, 50),
	}
	for i, pos := range positions {
		if i == 0 {
			n.dimension = len(pos)
		}
		if len(pos) != n.dimension {
			err = fmt.Errorf("point %d has dimension %d, expected %d", i, len(pos), n.dimension)
			return
		}
		if math.IsInf(radii[i], 0) || radii[i] <= 0 {
			err = fmt.Errorf("point %d needs a finite positive support radius, got %g", i, radii[i])
			return
		}
		s := &support{
			Polygon:  boxPolygon(planarBounds(pos, radii[i])),
			index:    i,
			position: pos,
			radius:   radii[i],
		}
		n.supports = append(n.supports, s)
		n.tree.Insert(s)
	}
	return
}

func (n *Neighbors) Len() int { return len(n.supports) }

// Overlapping returns, in ascending order, the indices of supports that
// intersect the ball of the given radius around position
func (n *Neighbors) Overlapping(position []float64, radius float64) (indices []int) {
	for _, sI := range n.tree.SearchIntersect(planarBounds(position, radius)) {
		s := sI.(*support)
		if utils.Distance(position, s.position) < radius+s.radius {
			indices = append(indices, s.index)
		}
	}
	sort.Ints(indices)
	return
}

// InBox returns, in ascending order, the supports that intersect an axis
// aligned box with a nonzero measure
func (n *Neighbors) InBox(limits [][2]float64) (indices []int) {
	// Surfaces are boxes of zero width in one dimension
	eps := utils.BOUNDARYTOL
	b := &geom.Bounds{
		Min: geom.Point{X: limits[0][0] - eps},
		Max: geom.Point{X: limits[0][1] + eps},
	}
	if len(limits) > 1 {
		b.Min.Y, b.Max.Y = limits[1][0]-eps, limits[1][1]+eps
	} else {
		// 1D supports are stored as squares centered on y = 0
		b.Min.Y, b.Max.Y = -1, 1
	}
	for _, sI := range n.tree.SearchIntersect(b) {
		s := sI.(*support)
		if utils.BoxDistance(s.position, limits) < s.radius {
			indices = append(indices, s.index)
		}
	}
	sort.Ints(indices)
	return
}
