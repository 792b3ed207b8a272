// Package weakform assembles meshless weak form discretizations: it places
// weight and basis functions on a point set and integrates them.
package weakform

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/integration"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/meshless"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/utils"
)

// Spacing is the largest nearest neighbor distance of the point set
func Spacing(points [][]float64) (spacing float64, err error) {
	if len(points) < 2 {
		err = fmt.Errorf("need at least two points to find the spacing, got %d", len(points))
		return
	}
	for i, p := range points {
		nearest := math.Inf(1)
		for k, q := range points {
			if k == i {
				continue
			}
			nearest = math.Min(nearest, utils.Distance(p, q))
		}
		if nearest == 0 {
			err = fmt.Errorf("point %d coincides with another point", i)
			return
		}
		spacing = math.Max(spacing, nearest)
	}
	return
}

// NewDiscretization builds an unintegrated discretization of the solid.
// Every point carries one weight function and one basis function.
func NewDiscretization(solid *geometry.Box, points [][]float64, materials []*material.Material,
	groups int, opts spatial.Options) (sd *spatial.Discretization, err error) {
	var (
		N = len(points)
		D = solid.Dimension
	)
	if err = opts.Check(D); err != nil {
		return
	}
	for i, p := range points {
		if len(p) != D {
			err = fmt.Errorf("point %d has dimension %d, solid has %d", i, len(p), D)
			return
		}
		if !solid.Inside(p) {
			err = fmt.Errorf("point %d at %v lies outside the solid", i, p)
			return
		}
	}
	L := 1
	for i, m := range materials {
		if m.Groups != groups {
			err = fmt.Errorf("material %d has %d groups, problem has %d", i, m.Groups, groups)
			return
		}
		if err = m.Validate(); err != nil {
			return
		}
		if m.ScatteringMoments > L {
			L = m.ScatteringMoments
		}
	}
	rbf, err := meshless.NewRBF(opts.RBF)
	if err != nil {
		return
	}
	spacing, err := Spacing(points)
	if err != nil {
		return
	}
	var (
		radius = spacing * opts.RadiusIntervals
		shape  = rbf.Radius() / radius
		radii  = utils.ConstArray(N, radius)
	)
	sd = &spatial.Discretization{
		Dimension:         D,
		Solid:             solid,
		Options:           opts,
		Materials:         materials,
		Groups:            groups,
		ScatteringMoments: L,
	}
	switch opts.IdenticalBasis {
	case spatial.IdenticalTrue:
		sd.Identical = true
	case spatial.IdenticalAuto:
		sd.Identical = opts.BasisType == spatial.RBFBasis
	}
	if sd.Identical && opts.BasisType != spatial.RBFBasis {
		err = fmt.Errorf("%w: identical basis and weight functions need RBF bases", spatial.ErrUnsupported)
		return
	}
	neighbors, err := meshless.NewNeighbors(points, radii)
	if err != nil {
		return
	}

	weightFunctions := make([]meshless.Function, N)
	for i, p := range points {
		weightFunctions[i] = meshless.NewRBFFunction(rbf, shape, p)
	}

	// Basis functions, numbering the boundary ones as augment slots
	for k, p := range points {
		var f meshless.Function
		switch opts.BasisType {
		case spatial.RBFBasis:
			f = meshless.NewRBFFunction(rbf, shape, p)
		default:
			nb := []meshless.Function{weightFunctions[k]}
			for _, i := range neighbors.Overlapping(p, radius) {
				if i != k {
					nb = append(nb, weightFunctions[i])
				}
			}
			if f, err = meshless.NewLinearMLSFunction(nb); err != nil {
				err = fmt.Errorf("basis %d: %w", k, err)
				return
			}
		}
		surfaces := solid.NearestSurfaces(p, radius)
		boundaryIndex := -1
		if len(surfaces) != 0 {
			boundaryIndex = len(sd.BoundaryBases)
			sd.BoundaryBases = append(sd.BoundaryBases, k)
		}
		sd.Bases = append(sd.Bases, spatial.NewBasisFunction(k, solid.MaterialAt(p), boundaryIndex, f, surfaces))
	}

	// Weight functions with their stencils
	tau0 := opts.TauConst * radius / rbf.Radius()
	for i, p := range points {
		wo := spatial.WeightOptions{
			Weighting:            opts.Weighting,
			Normalized:           opts.Normalized,
			IncludeSUPG:          opts.IncludeSUPG,
			TauScaling:           opts.TauScaling,
			Total:                opts.Total,
			IntegrationOrdinates: opts.IntegrationOrdinates,
			Flux:                 opts.Flux,
		}
		if opts.IncludeSUPG {
			wo.Tau = tau0 * tauScale(solid, weightFunctions[i], opts.TauScaling)
		}
		stencil := neighbors.Overlapping(p, radius)
		sd.Weights = append(sd.Weights, spatial.NewWeightFunction(i, solid.MaterialAt(p), wo,
			weightFunctions[i], stencil, solid.NearestSurfaces(p, radius)))
	}
	if err = sd.Check(); err != nil {
		return
	}
	slog.Debug("meshless discretization", "points", N, "boundary", len(sd.BoundaryBases),
		"radius", radius, "rbf", rbf.Name(), "basis", opts.BasisType, "weighting", opts.Weighting)
	return
}

// tauScale reduces the stabilization near the boundary
func tauScale(solid *geometry.Box, w meshless.Function, scaling spatial.TauScaling) float64 {
	var (
		p      = w.Position()
		radius = w.Radius()
	)
	dist, nearest := math.Inf(1), -1
	for s, pl := range solid.Planes {
		if d := pl.Distance(p); d < dist {
			dist, nearest = d, s
		}
	}
	switch scaling {
	case spatial.TauLinear:
		return math.Min(dist/radius, 1)
	case spatial.TauAbsolute:
		if dist < radius {
			return 0
		}
		return 1
	case spatial.TauFunctional:
		if dist >= radius {
			return 1
		}
		// Weight value at the closest boundary point relative to the center
		q := append([]float64(nil), p...)
		pl := solid.Planes[nearest]
		q[pl.SurfaceDimension] = pl.Position
		return 1 - w.Value(q)/w.Value(p)
	}
	return 1
}

// DefaultCells is two integration cells per point spacing in each dimension
func DefaultCells(solid *geometry.Box, spacing float64) (cells []int) {
	for _, lim := range solid.Limits {
		n := 2 * int(math.Round((lim[1]-lim[0])/spacing))
		if n < 1 {
			n = 1
		}
		cells = append(cells, n)
	}
	return
}

// Integrate builds the background mesh and stores the integrals on every
// weight function of sd. An integrated discretization is left as is.
func Integrate(ctx context.Context, sd *spatial.Discretization) (err error) {
	var (
		N      = sd.NumberOfPoints()
		points = make([][]float64, N)
		wRadii = make([]float64, N)
		bRadii = make([]float64, N)
	)
	if sd.Integrated() {
		return
	}
	for i := 0; i < N; i++ {
		points[i] = sd.Weights[i].Position()
		wRadii[i] = sd.Weights[i].Radius()
		bRadii[i] = sd.Bases[i].Radius()
	}
	cells := sd.Options.IntegrationCells
	if len(cells) == 0 {
		spacing, err := Spacing(points)
		if err != nil {
			return err
		}
		cells = DefaultCells(sd.Solid, spacing)
	}
	weights, err := meshless.NewNeighbors(points, wRadii)
	if err != nil {
		return
	}
	bases, err := meshless.NewNeighbors(points, bRadii)
	if err != nil {
		return
	}
	mesh, err := integration.NewMesh(sd.Solid, cells, sd.Options.IntegrationOrdinates, weights, bases)
	if err != nil {
		return
	}
	return integration.NewEngine(sd, mesh).PerformIntegration(ctx)
}

// Build creates and integrates a discretization in one call
func Build(ctx context.Context, solid *geometry.Box, points [][]float64, materials []*material.Material,
	groups int, opts spatial.Options) (sd *spatial.Discretization, err error) {
	if sd, err = NewDiscretization(solid, points, materials, groups, opts); err != nil {
		return
	}
	err = Integrate(ctx, sd)
	return
}

// UniformPoints lays out n[d] points per dimension over the solid,
// including the boundary, first dimension fastest
func UniformPoints(solid *geometry.Box, n []int) (points [][]float64, err error) {
	if len(n) != solid.Dimension {
		err = fmt.Errorf("point counts for %d dimensions, solid has %d", len(n), solid.Dimension)
		return
	}
	var (
		axes  = make([][]float64, len(n))
		total = 1
	)
	for d, c := range n {
		if c < 2 {
			err = fmt.Errorf("need at least two points in dimension %d, got %d", d, c)
			return
		}
		axes[d] = utils.Linspace(solid.Limits[d][0], solid.Limits[d][1], c)
		total *= c
	}
	idx := make([]int, len(n))
	for k := 0; k < total; k++ {
		p := make([]float64, len(n))
		for d := range n {
			p[d] = axes[d][idx[d]]
		}
		points = append(points, p)
		for d := range n {
			idx[d]++
			if idx[d] < n[d] {
				break
			}
			idx[d] = 0
		}
	}
	return
}
