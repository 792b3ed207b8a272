package InputParameters

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ghodss/yaml"

	"github.com/notargets/gomeshless/discretization"
	"github.com/notargets/gomeshless/geometry"
	"github.com/notargets/gomeshless/linsolve"
	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/solver"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/transport"
	"github.com/notargets/gomeshless/weakform"
)

var planeNames = []string{"xmin", "xmax", "ymin", "ymax", "zmin", "zmax"}

type RegionInput struct {
	Limits   [][2]float64 `json:"Limits"`
	Material string       `json:"Material"`
}

type BoundaryInput struct {
	Alpha    float64   `json:"Alpha"`    // specular reflection, all groups
	Incoming []float64 `json:"Incoming"` // isotropic entering angular flux per group
}

type SpatialInput struct {
	Form                 string  `json:"Form"`
	Weighting            string  `json:"Weighting"`
	BasisType            string  `json:"BasisType"`
	RBF                  string  `json:"RBF"`
	RadiusIntervals      float64 `json:"RadiusIntervals"`
	SUPG                 bool    `json:"SUPG"`
	TauConst             float64 `json:"TauConst"`
	TauScaling           string  `json:"TauScaling"`
	Total                string  `json:"Total"`
	Normalized           *bool   `json:"Normalized"`
	IdenticalBasis       string  `json:"IdenticalBasis"`
	IntegrationOrdinates int     `json:"IntegrationOrdinates"`
	IntegrationCells     []int   `json:"IntegrationCells"`
	FluxExpression       string  `json:"FluxExpression"` // FLUX weighting shape in x, y, z, m, g
}

type SolverInput struct {
	LinearSolver   string  `json:"LinearSolver"`
	KrylovSize     int     `json:"KrylovSize"`
	LinearTol      float64 `json:"LinearTolerance"`
	FillLevel      int     `json:"FillLevel"`
	DropTolerance  float64 `json:"DropTolerance"`
	Iteration      string  `json:"Iteration"`
	MaxIterations  int     `json:"MaxIterations"`
	Tolerance      float64 `json:"Tolerance"`
	Eigenvalue     bool    `json:"Eigenvalue"`
	QuitIfDiverged bool    `json:"QuitIfDiverged"`
	ParallelDegree int     `json:"ParallelDegree"`
}

// Parameters obtained from the YAML problem file
type InputParameters struct {
	Title             string                   `json:"Title"`
	Limits            [][2]float64             `json:"Limits"`
	Points            []int                    `json:"Points"`
	MaterialLibrary   string                   `json:"MaterialLibrary"`
	DefaultMaterial   string                   `json:"DefaultMaterial"`
	Regions           []RegionInput            `json:"Regions"`
	Ordinates         int                      `json:"Ordinates"` // 1D ordinates, or polar count in 2D and 3D
	Azimuthal         int                      `json:"Azimuthal"`
	ScatteringMoments int                      `json:"ScatteringMoments"`
	Boundaries        map[string]BoundaryInput `json:"Boundaries"` // keyed by xmin, xmax, ymin ...
	Spatial           SpatialInput             `json:"Spatial"`
	Solver            SolverInput              `json:"Solver"`
	Reference         string                   `json:"Reference"` // reference scalar flux in x, y, z, g
}

func (ip *InputParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	return ip.Check()
}

func (ip *InputParameters) Dimension() int { return len(ip.Limits) }

func (ip *InputParameters) Check() error {
	D := ip.Dimension()
	if D < 1 || D > 3 {
		return fmt.Errorf("Limits must give 1 to 3 dimensions, got %d", D)
	}
	if len(ip.Points) != D {
		return fmt.Errorf("Points must give a count for each of %d dimensions, got %d", D, len(ip.Points))
	}
	if ip.Ordinates < 1 {
		return fmt.Errorf("Ordinates must be positive, got %d", ip.Ordinates)
	}
	for name := range ip.Boundaries {
		if k := planeIndex(name); k < 0 || k >= 2*D {
			return fmt.Errorf("unknown boundary %q for a %d dimensional problem", name, D)
		}
	}
	return nil
}

func planeIndex(name string) int {
	for k, n := range planeNames {
		if strings.EqualFold(n, name) {
			return k
		}
	}
	return -1
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%v\t\t= Limits\n", ip.Limits)
	fmt.Printf("%v\t\t\t= Points\n", ip.Points)
	fmt.Printf("[%d]\t\t\t\t= Ordinates\n", ip.Ordinates)
	fmt.Printf("[%s]\t\t\t= Weighting\n", ip.Spatial.Weighting)
	fmt.Printf("[%s]\t\t\t= Linear Solver\n", ip.Solver.LinearSolver)
	keys := make([]string, len(ip.Boundaries))
	i := 0
	for k := range ip.Boundaries {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Boundaries[%s] = %+v\n", key, ip.Boundaries[key])
	}
}

var functions = map[string]govaluate.ExpressionFunction{
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"exp":  unary(math.Exp),
	"sqrt": unary(math.Sqrt),
	"abs":  unary(math.Abs),
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected one argument, got %d", len(args))
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("argument %v is not a number", args[0])
		}
		return f(x), nil
	}
}

// Expression is a compiled function of position, moment and group
type Expression struct {
	expr *govaluate.EvaluableExpression
}

func NewExpression(text string) (e *Expression, err error) {
	e = &Expression{}
	if e.expr, err = govaluate.NewEvaluableExpressionWithFunctions(text, functions); err != nil {
		err = fmt.Errorf("expression %q: %w", text, err)
	}
	return
}

func (e *Expression) Evaluate(position []float64, m, g int) (v float64, err error) {
	params := map[string]interface{}{"x": 0., "y": 0., "z": 0., "m": float64(m), "g": float64(g)}
	for d, x := range position {
		params[[]string{"x", "y", "z"}[d]] = x
	}
	res, err := e.expr.Evaluate(params)
	if err != nil {
		return
	}
	var ok bool
	if v, ok = res.(float64); !ok {
		err = fmt.Errorf("expression %q yields %v, not a number", e.expr.String(), res)
	}
	return
}

// SpatialOptions starts from the defaults and applies the file settings
func (ip *InputParameters) SpatialOptions() (opts spatial.Options, err error) {
	var (
		si = ip.Spatial
	)
	opts = spatial.DefaultOptions()
	if opts.Form, err = spatial.ParseForm(si.Form); err != nil {
		return
	}
	if opts.Weighting, err = spatial.ParseWeighting(si.Weighting); err != nil {
		return
	}
	if si.BasisType != "" {
		if opts.BasisType, err = spatial.ParseBasisType(si.BasisType); err != nil {
			return
		}
	}
	if si.TauScaling != "" {
		if opts.TauScaling, err = spatial.ParseTauScaling(si.TauScaling); err != nil {
			return
		}
	}
	if opts.Total, err = spatial.ParseTotal(si.Total); err != nil {
		return
	}
	switch strings.ToUpper(si.IdenticalBasis) {
	case "", "AUTO":
		opts.IdenticalBasis = spatial.IdenticalAuto
	case "TRUE":
		opts.IdenticalBasis = spatial.IdenticalTrue
	case "FALSE":
		opts.IdenticalBasis = spatial.IdenticalFalse
	default:
		err = fmt.Errorf("unknown identical basis setting %q", si.IdenticalBasis)
		return
	}
	if si.RBF != "" {
		opts.RBF = si.RBF
	}
	if si.RadiusIntervals != 0 {
		opts.RadiusIntervals = si.RadiusIntervals
	}
	if si.TauConst != 0 {
		opts.TauConst = si.TauConst
	}
	if si.Normalized != nil {
		opts.Normalized = *si.Normalized
	}
	if si.IntegrationOrdinates != 0 {
		opts.IntegrationOrdinates = si.IntegrationOrdinates
	}
	opts.IncludeSUPG = si.SUPG
	opts.IntegrationCells = si.IntegrationCells
	opts.ParallelDegree = ip.Solver.ParallelDegree
	if si.FluxExpression != "" {
		var e *Expression
		if e, err = NewExpression(si.FluxExpression); err != nil {
			return
		}
		if _, err = e.Evaluate(make([]float64, ip.Dimension()), 0, 0); err != nil {
			return
		}
		// Variables are bound and checked above
		opts.Flux = func(m, g int, x []float64) float64 {
			v, _ := e.Evaluate(x, m, g)
			return v
		}
	}
	return
}

func (ip *InputParameters) SweepOptions(runID string) (opts transport.Options, err error) {
	var (
		si = ip.Solver
	)
	opts = transport.DefaultOptions()
	if opts.Solver.Method, err = linsolve.ParseMethod(si.LinearSolver); err != nil {
		return
	}
	if si.KrylovSize != 0 {
		opts.Solver.KrylovSize = si.KrylovSize
	}
	if si.LinearTol != 0 {
		opts.Solver.Tolerance = si.LinearTol
	}
	if si.FillLevel != 0 {
		opts.Solver.FillLevel = si.FillLevel
	}
	if si.DropTolerance != 0 {
		opts.Solver.DropTolerance = si.DropTolerance
	}
	opts.QuitIfDiverged = si.QuitIfDiverged
	opts.ParallelDegree = si.ParallelDegree
	opts.RunID = runID
	return
}

func (ip *InputParameters) SolverOptions() (opts solver.Options, err error) {
	var (
		si = ip.Solver
	)
	opts = solver.DefaultOptions()
	if opts.Method, err = solver.ParseMethod(si.Iteration); err != nil {
		return
	}
	if si.MaxIterations != 0 {
		opts.MaxIterations = si.MaxIterations
	}
	if si.Tolerance != 0 {
		opts.Tolerance = si.Tolerance
		opts.Krylov.Tolerance = si.Tolerance
	}
	return
}

// Angular is the 1D Gauss-Legendre set, or a product set in 2D and 3D.
// The library moment count applies when the file gives none.
func (ip *InputParameters) Angular(lib *material.Library) (*discretization.Angular, error) {
	L := ip.ScatteringMoments
	if L == 0 {
		L = lib.ScatteringMoments()
	}
	if ip.Dimension() == 1 {
		return discretization.NewAngular1D(ip.Ordinates, L)
	}
	az := ip.Azimuthal
	if az == 0 {
		az = 2 * ip.Ordinates
	}
	return discretization.NewAngularProduct(ip.Dimension(), ip.Ordinates, az, L)
}

// Solid places the boundary sources on the planes of the box
func (ip *InputParameters) Solid(lib *material.Library, angular *discretization.Angular) (solid *geometry.Box, err error) {
	var (
		D = ip.Dimension()
		G = lib.Groups
		O = angular.NumberOfOrdinates()
	)
	sources := make([]geometry.BoundarySource, 2*D)
	for s := range sources {
		sources[s] = geometry.NewVacuumSource(s, G, O)
	}
	for name, bi := range ip.Boundaries {
		s := planeIndex(name)
		src := &sources[s]
		for g := range src.Alpha {
			src.Alpha[g] = bi.Alpha
		}
		if len(bi.Incoming) == 0 {
			continue
		}
		if len(bi.Incoming) != G {
			err = fmt.Errorf("boundary %s: %d incoming values for %d groups", name, len(bi.Incoming), G)
			return
		}
		normal := -1.
		if s%2 == 1 {
			normal = 1
		}
		for o := 0; o < O; o++ {
			if normal*angular.Direction(o)[s/2] >= 0 {
				continue
			}
			for g := 0; g < G; g++ {
				src.Data[g+G*o] = bi.Incoming[g]
			}
		}
	}
	def := 0
	if ip.DefaultMaterial != "" {
		if def, err = lib.Index(ip.DefaultMaterial); err != nil {
			return
		}
	}
	var regions []geometry.Region
	for _, ri := range ip.Regions {
		var m int
		if m, err = lib.Index(ri.Material); err != nil {
			return
		}
		regions = append(regions, geometry.Region{Limits: ri.Limits, Material: m})
	}
	return geometry.NewBox(ip.Limits, sources, def, regions...)
}

// Problem is a discretized problem ready to solve
type Problem struct {
	TD        *transport.Discretization
	Sweep     *transport.Sweep
	Chains    *solver.Chains
	Solver    solver.Options
	Eigen     bool
	Reference *Expression
}

// Setup discretizes the problem with the materials of lib
func (ip *InputParameters) Setup(ctx context.Context, lib *material.Library, runID string) (p *Problem, err error) {
	p = &Problem{Eigen: ip.Solver.Eigenvalue}
	angular, err := ip.Angular(lib)
	if err != nil {
		return
	}
	solid, err := ip.Solid(lib, angular)
	if err != nil {
		return
	}
	opts, err := ip.SpatialOptions()
	if err != nil {
		return
	}
	points, err := weakform.UniformPoints(solid, ip.Points)
	if err != nil {
		return
	}
	sd, err := weakform.Build(ctx, solid, points, lib.Materials, lib.Groups, opts)
	if err != nil {
		return
	}
	energy, err := discretization.NewEnergy(lib.Groups)
	if err != nil {
		return
	}
	if p.TD, err = transport.NewDiscretization(sd, angular, energy); err != nil {
		return
	}
	sweepOpts, err := ip.SweepOptions(runID)
	if err != nil {
		return
	}
	if p.Sweep, err = transport.NewSweep(ctx, p.TD, sweepOpts); err != nil {
		return
	}
	if p.Chains, err = solver.NewChains(p.Sweep); err != nil {
		return
	}
	if p.Solver, err = ip.SolverOptions(); err != nil {
		return
	}
	if ip.Reference != "" {
		p.Reference, err = NewExpression(ip.Reference)
	}
	return
}

func (p *Problem) Solve(ctx context.Context) (solver.Result, error) {
	if p.Eigen {
		return solver.PowerIteration(ctx, p.Chains, p.Solver)
	}
	return solver.Solve(ctx, p.Chains, p.Solver)
}

// ScalarFlux interpolates the isotropic moment of group g to the points
func (p *Problem) ScalarFlux(phi []float64, g int) (values []float64) {
	td := p.TD
	for _, w := range td.Spatial.Weights {
		var v float64
		for j, k := range w.BasisIndices() {
			v += w.Values().VB[j] * phi[td.PhiIndex(k, 0, g)]
		}
		values = append(values, v)
	}
	return
}

// ReferenceError is the largest difference from the reference solution,
// relative to its largest value
func (p *Problem) ReferenceError(phi []float64) (maxErr float64, err error) {
	if p.Reference == nil {
		err = fmt.Errorf("no reference solution given")
		return
	}
	var scale float64
	for g := 0; g < p.TD.NumberOfGroups(); g++ {
		values := p.ScalarFlux(phi, g)
		for i, w := range p.TD.Spatial.Weights {
			var ref float64
			if ref, err = p.Reference.Evaluate(w.Position(), 0, g); err != nil {
				return
			}
			scale = math.Max(scale, math.Abs(ref))
			maxErr = math.Max(maxErr, math.Abs(values[i]-ref))
		}
	}
	if scale > 0 {
		maxErr /= scale
	}
	return
}
