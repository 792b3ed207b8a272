package integration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ctessum/sparse"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/utils"
)

var tracer = otel.Tracer("gomeshless.integration")

// Result holds the tables computed for one weight function
type Result struct {
	Integrals spatial.Integrals
	Values    spatial.Values
	Material  *material.Weighted
}

// Engine integrates every weight function of a discretization over a shared
// background mesh
type Engine struct {
	sd       *spatial.Discretization
	mesh     *Mesh
	pm       *utils.PartitionMap
	cells    [][]*Cell
	surfaces [][]*Surface
}

func NewEngine(sd *spatial.Discretization, mesh *Mesh) (e *Engine) {
	N := sd.NumberOfPoints()
	e = &Engine{
		sd:   sd,
		mesh: mesh,
		pm:   utils.NewParallelPartition(sd.Options.ParallelDegree, N),
	}
	e.cells, e.surfaces = mesh.WeightCells(N)
	return
}

// Integrate computes the tables for every weight without modifying the
// discretization, so it may be repeated
func (e *Engine) Integrate(ctx context.Context) (results []Result, err error) {
	results = make([]Result, e.sd.NumberOfPoints())
	err = e.pm.ParallelFor(ctx, func(ctx context.Context, bucket, kMin, kMax int) error {
		for i := kMin; i < kMax; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.integrateWeight(i)
			if err != nil {
				return err
			}
			results[i] = r
		}
		return nil
	})
	if err != nil {
		results = nil
	}
	return
}

// PerformIntegration integrates all weights and stores the tables on them
func (e *Engine) PerformIntegration(ctx context.Context) (err error) {
	var (
		N     = e.sd.NumberOfPoints()
		start = time.Now()
	)
	ctx, span := tracer.Start(ctx, "integration.PerformIntegration",
		trace.WithAttributes(attribute.Int("points", N),
			attribute.Int("cells", len(e.mesh.Cells)),
			attribute.Int("surfaces", len(e.mesh.Surfaces))))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	results, err := e.Integrate(ctx)
	if err != nil {
		return
	}
	for i, r := range results {
		if err = e.sd.Weights[i].SetIntegrals(r.Integrals, r.Values, r.Material); err != nil {
			return
		}
	}
	slog.Info("integration complete", "points", N, "cells", len(e.mesh.Cells),
		"surfaces", len(e.mesh.Surfaces), "elapsed", time.Since(start))
	return
}

type accumulator struct {
	isW, isBW                   *sparse.DenseArray
	ivW, ivDw, ivBW             *sparse.DenseArray
	ivBDw, ivDbW, ivDbDw        *sparse.DenseArray
	material                    *MaterialData
	bv, wGrad                   []float64
	bGrad                       [][]float64
	local                       []int
	dimension, moments, basisJ  int
	weightIndex                 int
	flux                        []float64
	c                           []float64
	xs                          *crossSections
	useQuadMaterial, fullSigmaT bool
}

func (e *Engine) integrateWeight(i int) (r Result, err error) {
	var (
		sd      = e.sd
		w       = sd.Weights[i]
		D       = sd.Dimension
		S       = w.NumberOfBoundarySurfaces()
		J       = w.NumberOfBasisFunctions()
		G       = sd.Groups
		L       = sd.ScatteringMoments
		DM      = w.NumberOfDimensionalMoments()
		opts    = w.Options()
		dep     = opts.Weighting.Dependency()
		wfun    = w.Function()
		isWeak  = opts.Weighting == spatial.WeightWeighting || opts.Weighting == spatial.FluxWeighting || opts.Weighting == spatial.FullWeighting
		fullSig = opts.Weighting == spatial.FullWeighting
	)
	acc := &accumulator{
		isW:             sparse.ZerosDense(maxInt(S, 1)),
		isBW:            sparse.ZerosDense(maxInt(J, 1), maxInt(S, 1)),
		ivW:             sparse.ZerosDense(1),
		ivDw:            sparse.ZerosDense(D),
		ivBW:            sparse.ZerosDense(maxInt(J, 1)),
		ivBDw:           sparse.ZerosDense(maxInt(J, 1), D),
		ivDbW:           sparse.ZerosDense(maxInt(J, 1), D),
		ivDbDw:          sparse.ZerosDense(maxInt(J, 1), D, D),
		material:        newMaterialData(DM, G, L, J, dep),
		wGrad:           make([]float64, D),
		dimension:       D,
		moments:         DM,
		basisJ:          J,
		weightIndex:     i,
		flux:            utils.ConstArray(G, 1),
		c:               make([]float64, DM),
		xs:              newCrossSections(G, L),
		useQuadMaterial: isWeak,
		fullSigmaT:      fullSig,
	}

	// Volume integrals
	for _, cell := range e.cells[i] {
		if err = acc.prepareBases(sd, w, cell.Bases); err != nil {
			return
		}
		q := cell.Quadrature
		for n := 0; n < q.Size(); n++ {
			x := q.Ordinates[n]
			wv := wfun.Value(x)
			if wv == 0 {
				continue
			}
			wfun.Gradient(x, acc.wGrad)
			if err = acc.evaluateBases(sd, cell.Bases, x); err != nil {
				return
			}
			acc.addVolume(q.Weights[n], wv, cell.Bases)
			if acc.useQuadMaterial {
				acc.addMaterial(sd, q.Weights[n], wv, x, cell.Bases)
			}
		}
	}

	// Surface integrals, kept apart from the cell sums
	for _, surf := range e.surfaces[i] {
		s, ok := w.LocalSurfaceIndex(surf.Plane)
		if !ok {
			// Surface pieces touching the support but outside the boundary
			// list carry a zero weight
			continue
		}
		if s >= S {
			err = fmt.Errorf("weight %d surface %d of %d: %w", i, s, S, spatial.ErrIndexOutOfBounds)
			return
		}
		if err = acc.prepareBases(sd, w, surf.Bases); err != nil {
			return
		}
		q := surf.Quadrature
		for n := 0; n < q.Size(); n++ {
			x := q.Ordinates[n]
			wv := wfun.Value(x)
			if wv == 0 {
				continue
			}
			if err = acc.evaluateBases(sd, surf.Bases, x); err != nil {
				return
			}
			acc.isW.AddVal(q.Weights[n]*wv, s)
			for k := range surf.Bases {
				j := acc.local[k]
				if j < 0 {
					continue
				}
				acc.isBW.AddVal(q.Weights[n]*acc.bv[k]*wv, j, s)
			}
		}
	}

	r.Integrals = acc.flatten(D, S, J)
	if r.Values, err = basisValues(sd, w); err != nil {
		return
	}

	// Weighted material
	switch opts.Weighting {
	case spatial.PointWeighting, spatial.BasisWeighting:
		r.Material = pointWeighted(sd.Materials[w.Material()], dep, DM, G, L, opts.Normalized,
			&volumeNorms{ivW: r.Integrals.IvW[0], ivDw: r.Integrals.IvDw})
	default:
		r.Material = acc.material.weighted(dep, DM, G, L, opts.Normalized, r.Integrals.IvBW)
	}

	for _, v := range [][]float64{r.Integrals.IvW, r.Integrals.IvDw, r.Integrals.IvBW, r.Integrals.IvBDw,
		r.Integrals.IvDbW, r.Integrals.IvDbDw, r.Integrals.IsW, r.Integrals.IsBW, r.Material.SigmaT} {
		if k := utils.FirstNonFinite(v); k >= 0 {
			err = fmt.Errorf("weight %d: non-finite integral at entry %d", i, k)
			return
		}
	}
	return
}

// prepareBases maps the bases overlapping a cell onto the weight's stencil,
// with -1 for bases outside it
func (acc *accumulator) prepareBases(sd *spatial.Discretization, w *spatial.WeightFunction, bases []int) error {
	acc.local = acc.local[:0]
	for _, k := range bases {
		j, ok := w.LocalBasisIndex(k)
		if !ok {
			j = -1
		} else if j >= acc.basisJ {
			return fmt.Errorf("weight %d basis %d local index %d of %d: %w",
				acc.weightIndex, k, j, acc.basisJ, spatial.ErrIndexOutOfBounds)
		}
		acc.local = append(acc.local, j)
	}
	if cap(acc.bv) < len(bases) {
		acc.bv = make([]float64, len(bases))
		acc.bGrad = make([][]float64, len(bases))
		for k := range acc.bGrad {
			acc.bGrad[k] = make([]float64, acc.dimension)
		}
	}
	acc.bv = acc.bv[:len(bases)]
	acc.bGrad = acc.bGrad[:len(bases)]
	return nil
}

// evaluateBases fills values and gradients at x for the bases in the stencil
// and fails if a basis outside the stencil is nonzero where the weight is
func (acc *accumulator) evaluateBases(sd *spatial.Discretization, bases []int, x []float64) error {
	for k, kb := range bases {
		f := sd.Bases[kb].Function()
		acc.bv[k] = f.Value(x)
		if acc.local[k] < 0 {
			if acc.bv[k] != 0 {
				return fmt.Errorf("weight %d overlaps basis %d outside its stencil: %w",
					acc.weightIndex, kb, spatial.ErrIndexOutOfBounds)
			}
			continue
		}
		f.Gradient(x, acc.bGrad[k])
	}
	return nil
}

func (acc *accumulator) addVolume(qw, wv float64, bases []int) {
	D := acc.dimension
	acc.ivW.AddVal(qw*wv, 0)
	for d := 0; d < D; d++ {
		acc.ivDw.AddVal(qw*acc.wGrad[d], d)
	}
	for k := range bases {
		j := acc.local[k]
		if j < 0 {
			continue
		}
		b, db := acc.bv[k], acc.bGrad[k]
		acc.ivBW.AddVal(qw*b*wv, j)
		for d := 0; d < D; d++ {
			acc.ivBDw.AddVal(qw*b*acc.wGrad[d], j, d)
			acc.ivDbW.AddVal(qw*db[d]*wv, j, d)
			for d2 := 0; d2 < D; d2++ {
				acc.ivDbDw.AddVal(qw*db[d]*acc.wGrad[d2], j, d, d2)
			}
		}
	}
}

// addMaterial adds the cross section moments at one quadrature point. The
// local material is the Shepard interpolant of the stencil's point materials.
func (acc *accumulator) addMaterial(sd *spatial.Discretization, qw, wv float64, x []float64, bases []int) {
	var (
		w    = sd.Weights[acc.weightIndex]
		opts = w.Options()
		G    = len(acc.flux)
		sum  float64
	)
	acc.xs.zero()
	for k, kb := range bases {
		if acc.local[k] < 0 || acc.bv[k] == 0 {
			continue
		}
		sum += acc.bv[k]
		acc.xs.add(acc.bv[k], sd.PointMaterial(kb))
	}
	if sum == 0 {
		acc.xs.zero()
		acc.xs.add(1, sd.Materials[w.Material()])
	} else {
		acc.xs.scale(1 / sum)
	}
	acc.c[0] = wv
	for d := 1; d < acc.moments; d++ {
		acc.c[d] = acc.wGrad[d-1]
	}
	if opts.Weighting == spatial.FluxWeighting {
		for g := 0; g < G; g++ {
			acc.flux[g] = opts.Flux(0, g, x)
		}
	}
	acc.material.accumulate(qw, acc.c, acc.flux, acc.xs)
	if acc.fullSigmaT {
		for k := range bases {
			j := acc.local[k]
			if j < 0 {
				continue
			}
			for g := 0; g < G; g++ {
				acc.material.BasisSigmaT.AddVal(qw*acc.bv[k]*wv*acc.xs.sigmaT[g], j, g)
			}
		}
	}
}

func (acc *accumulator) flatten(D, S, J int) (in spatial.Integrals) {
	in = spatial.NewIntegrals(D, S, J)
	copy(in.IvW, acc.ivW.Elements)
	copy(in.IvDw, acc.ivDw.Elements)
	if J > 0 {
		copy(in.IvBW, acc.ivBW.Elements)
		copy(in.IvBDw, acc.ivBDw.Elements)
		copy(in.IvDbW, acc.ivDbW.Elements)
		copy(in.IvDbDw, acc.ivDbDw.Elements)
	}
	if S > 0 {
		copy(in.IsW, acc.isW.Elements)
		if J > 0 {
			copy(in.IsBW, acc.isBW.Elements)
		}
	}
	return
}

// basisValues evaluates the stencil at the weight center
func basisValues(sd *spatial.Discretization, w *spatial.WeightFunction) (v spatial.Values, err error) {
	var (
		D    = sd.Dimension
		J    = w.NumberOfBasisFunctions()
		x    = w.Position()
		grad = make([]float64, D)
	)
	v.VB = make([]float64, J)
	v.VDb = make([]float64, D*J)
	for j, k := range w.BasisIndices() {
		f := sd.Bases[k].Function()
		v.VB[j] = f.Value(x)
		f.Gradient(x, grad)
		copy(v.VDb[D*j:D*(j+1)], grad)
	}
	if k := utils.FirstNonFinite(v.VB); k >= 0 {
		err = fmt.Errorf("weight %d: basis %d is not finite at the weight center", w.Index(), w.BasisIndices()[k])
	}
	return
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
