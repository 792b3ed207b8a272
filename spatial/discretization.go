package spatial

import (
	"fmt"

	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/material"
)

// Discretization is the arena of basis functions, weight functions and point
// materials of a meshless problem. Cross references are dense indices.
type Discretization struct {
	Dimension         int
	Solid             *geometry.Box
	Options           Options
	Bases             []*BasisFunction
	Weights           []*WeightFunction
	Materials         []*material.Material
	BoundaryBases     []int // augment slot to basis index
	Identical         bool  // bases and weights are the same functions
	Groups            int
	ScatteringMoments int
}

func (sd *Discretization) NumberOfPoints() int         { return len(sd.Weights) }
func (sd *Discretization) NumberOfBoundaryPoints() int { return len(sd.BoundaryBases) }
func (sd *Discretization) Dependency() material.SpatialDependency {
	return sd.Options.Weighting.Dependency()
}

func (sd *Discretization) NumberOfDimensionalMoments() int {
	if sd.Options.IncludeSUPG {
		return 1 + sd.Dimension
	}
	return 1
}

// PointMaterial is the material at the center of basis or weight k
func (sd *Discretization) PointMaterial(k int) *material.Material {
	return sd.Materials[sd.Bases[k].Material()]
}

func (sd *Discretization) Integrated() bool {
	for _, w := range sd.Weights {
		if !w.Integrated() {
			return false
		}
	}
	return true
}

// Check verifies that every stencil references known bases and that every
// table is consistent with its stencil
func (sd *Discretization) Check() error {
	var (
		N = len(sd.Bases)
	)
	if len(sd.Weights) != N {
		return fmt.Errorf("%d weight functions and %d basis functions", len(sd.Weights), N)
	}
	for i, w := range sd.Weights {
		for _, k := range w.BasisIndices() {
			if k < 0 || k >= N {
				return fmt.Errorf("weight %d references basis %d of %d: %w", i, k, N, ErrIndexOutOfBounds)
			}
		}
		if w.Integrated() {
			if err := w.integrals.check(sd.Dimension, w.NumberOfBoundarySurfaces(),
				w.NumberOfBasisFunctions()); err != nil {
				return fmt.Errorf("weight %d: %w", i, err)
			}
		}
	}
	for a, k := range sd.BoundaryBases {
		if sd.Bases[k].BoundaryIndex() != a {
			return fmt.Errorf("basis %d has boundary index %d, expected %d", k, sd.Bases[k].BoundaryIndex(), a)
		}
	}
	return nil
}
