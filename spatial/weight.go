package spatial

import (
	"fmt"

	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/meshless"
	"github.com/notargets/gomeshless/utils"
)

// Integrals are the quadrature tables of one weight function. With D the
// dimension, S the weight's boundary surfaces and J its basis functions:
//
//	IsW    s                   IsBW   s + S*j
//	IvW    0                   IvDw   d
//	IvBW   j                   IvBDw  d + D*j
//	IvDbW  d + D*j             IvDbDw d2 + D*(d1 + D*j)
type Integrals struct {
	IsW    []float64
	IsBW   []float64
	IvW    []float64
	IvDw   []float64
	IvBW   []float64
	IvBDw  []float64
	IvDbW  []float64
	IvDbDw []float64
}

// NewIntegrals allocates zeroed tables for the given sizes
func NewIntegrals(D, S, J int) Integrals {
	return Integrals{
		IsW:    make([]float64, S),
		IsBW:   make([]float64, S*J),
		IvW:    make([]float64, 1),
		IvDw:   make([]float64, D),
		IvBW:   make([]float64, J),
		IvBDw:  make([]float64, D*J),
		IvDbW:  make([]float64, D*J),
		IvDbDw: make([]float64, D*D*J),
	}
}

func (in Integrals) check(D, S, J int) error {
	for _, c := range []struct {
		name string
		size int
		want int
	}{
		{"is_w", len(in.IsW), S}, {"is_b_w", len(in.IsBW), S * J},
		{"iv_w", len(in.IvW), 1}, {"iv_dw", len(in.IvDw), D},
		{"iv_b_w", len(in.IvBW), J}, {"iv_b_dw", len(in.IvBDw), D * J},
		{"iv_db_w", len(in.IvDbW), D * J}, {"iv_db_dw", len(in.IvDbDw), D * D * J},
	} {
		if c.size != c.want {
			return fmt.Errorf("%s has %d entries, expected %d", c.name, c.size, c.want)
		}
	}
	return nil
}

// Values are the basis functions and their gradients at the weight center:
// VB j, VDb d + D*j
type Values struct {
	VB  []float64
	VDb []float64
}

// WeightFunction spans the test space of the weak form
type WeightFunction struct {
	index            int
	dimension        int
	radius           float64
	position         []float64
	function         meshless.Function
	pointType        utils.PointType
	material         int
	options          WeightOptions
	basisIndices     []int
	localBasis       map[int]int
	boundarySurfaces []int
	localSurface     map[int]int

	integrated bool
	integrals  Integrals
	values     Values
	weighted   *material.Weighted
}

func NewWeightFunction(index, material int, options WeightOptions, function meshless.Function,
	basisIndices, boundarySurfaces []int) (w *WeightFunction) {
	w = &WeightFunction{
		index:            index,
		dimension:        function.Dimension(),
		radius:           function.Radius(),
		position:         function.Position(),
		function:         function,
		pointType:        utils.Interior,
		material:         material,
		options:          options,
		basisIndices:     basisIndices,
		localBasis:       make(map[int]int, len(basisIndices)),
		boundarySurfaces: boundarySurfaces,
		localSurface:     make(map[int]int, len(boundarySurfaces)),
	}
	if len(boundarySurfaces) != 0 {
		w.pointType = utils.Boundary
	}
	for j, k := range basisIndices {
		w.localBasis[k] = j
	}
	for s, p := range boundarySurfaces {
		w.localSurface[p] = s
	}
	return
}

func (w *WeightFunction) Index() int                  { return w.index }
func (w *WeightFunction) Dimension() int              { return w.dimension }
func (w *WeightFunction) Position() []float64         { return w.position }
func (w *WeightFunction) PointType() utils.PointType  { return w.pointType }
func (w *WeightFunction) Material() int               { return w.material }
func (w *WeightFunction) Radius() float64             { return w.radius }
func (w *WeightFunction) Function() meshless.Function { return w.function }
func (w *WeightFunction) Options() WeightOptions      { return w.options }
func (w *WeightFunction) BasisIndices() []int         { return w.basisIndices }
func (w *WeightFunction) NumberOfBasisFunctions() int { return len(w.basisIndices) }

// BoundarySurfaces are the global plane indices within the weight's support
func (w *WeightFunction) BoundarySurfaces() []int       { return w.boundarySurfaces }
func (w *WeightFunction) NumberOfBoundarySurfaces() int { return len(w.boundarySurfaces) }

func (w *WeightFunction) NumberOfDimensionalMoments() int {
	if w.options.IncludeSUPG {
		return 1 + w.dimension
	}
	return 1
}

// LocalBasisIndex maps a global basis index to its position in the stencil
func (w *WeightFunction) LocalBasisIndex(global int) (j int, ok bool) {
	j, ok = w.localBasis[global]
	return
}

// LocalSurfaceIndex maps a global plane index to its position in the
// weight's surface tables
func (w *WeightFunction) LocalSurfaceIndex(plane int) (s int, ok bool) {
	s, ok = w.localSurface[plane]
	return
}

func (w *WeightFunction) Integrated() bool                     { return w.integrated }
func (w *WeightFunction) Integrals() *Integrals                { return &w.integrals }
func (w *WeightFunction) Values() *Values                      { return &w.values }
func (w *WeightFunction) WeightedMaterial() *material.Weighted { return w.weighted }

// SetIntegrals moves the weight from UNINTEGRATED to INTEGRATED. It may be
// called once, and the tables are read only afterwards.
func (w *WeightFunction) SetIntegrals(integrals Integrals, values Values, weighted *material.Weighted) (err error) {
	var (
		D, S, J = w.dimension, len(w.boundarySurfaces), len(w.basisIndices)
	)
	if w.integrated {
		return fmt.Errorf("weight %d: %w", w.index, ErrAlreadyIntegrated)
	}
	if err = integrals.check(D, S, J); err != nil {
		return fmt.Errorf("weight %d: %w", w.index, err)
	}
	if len(values.VB) != J || len(values.VDb) != D*J {
		return fmt.Errorf("weight %d: values sized %d and %d for %d basis functions",
			w.index, len(values.VB), len(values.VDb), J)
	}
	if weighted == nil {
		return fmt.Errorf("weight %d: missing weighted material", w.index)
	}
	if weighted.DimensionalMoments != w.NumberOfDimensionalMoments() {
		return fmt.Errorf("weight %d: material has %d dimensional moments, expected %d",
			w.index, weighted.DimensionalMoments, w.NumberOfDimensionalMoments())
	}
	if err = weighted.Validate(J); err != nil {
		return fmt.Errorf("weight %d: %w", w.index, err)
	}
	w.integrals, w.values, w.weighted = integrals, values, weighted
	w.integrated = true
	return
}
