package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomeshless/linsolve"
	"github.com/notargets/gomeshless/operator"
)

var ErrNotConverged = errors.New("iteration did not converge")

var tracer = otel.Tracer("gomeshless.solver")

var iterationCount = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "gomeshless_solver_iterations",
	Help:    "Outer iterations per transport solve",
	Buckets: prometheus.ExponentialBuckets(1, 2, 12),
}, []string{"method"})

type Method uint8

const (
	SourceIterationMethod Method = iota
	KrylovMethod
)

func (m Method) String() string { return [...]string{"SOURCE_ITERATION", "KRYLOV"}[m] }

func ParseMethod(s string) (m Method, err error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "_")) {
	case "SOURCE_ITERATION", "SI", "":
		m = SourceIterationMethod
	case "KRYLOV", "GMRES":
		m = KrylovMethod
	default:
		err = fmt.Errorf("unknown iteration method %q", s)
	}
	return
}

type Options struct {
	Method        Method
	MaxIterations int
	Tolerance     float64
	Krylov        linsolve.Options // outer GMRES, and the inner solves of PowerIteration
}

func DefaultOptions() Options {
	kr := linsolve.DefaultOptions()
	kr.Method = linsolve.GMRES
	kr.Tolerance = 1e-10
	return Options{
		Method:        SourceIterationMethod,
		MaxIterations: 1000,
		Tolerance:     1e-10,
		Krylov:        kr,
	}
}

type Result struct {
	Phi        []float64 // moments followed by the augments
	Iterations int
	Change     float64 // last relative change of phi
	K          float64 // eigenvalue, 1 for fixed source problems
}

// relativeChange is the largest change of the phi part relative to its
// largest entry
func relativeChange(x, y []float64) float64 {
	scale := floats.Norm(y, math.Inf(1))
	if scale == 0 {
		scale = 1
	}
	return floats.Distance(x, y, math.Inf(1)) / scale
}

func copyOf(x []float64) []float64 { return append([]float64(nil), x...) }

// Solve runs the fixed source method selected in opts
func Solve(ctx context.Context, ch *Chains, opts Options) (Result, error) {
	switch opts.Method {
	case KrylovMethod:
		return KrylovSteadyState(ctx, ch, opts)
	default:
		return SourceIteration(ctx, ch, opts)
	}
}

func start(ctx context.Context, name string, ch *Chains) (context.Context, trace.Span) {
	td := ch.Discretization()
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("points", td.NumberOfPoints()),
		attribute.Int("ordinates", td.NumberOfOrdinates()),
		attribute.Int("groups", td.NumberOfGroups())))
}

func finish(span trace.Span, method string, r Result, err error) {
	iterationCount.WithLabelValues(method).Observe(float64(r.Iterations))
	span.SetAttributes(attribute.Int("iterations", r.Iterations))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SourceIteration repeats phi = source + flux(phi) from phi = source
func SourceIteration(ctx context.Context, ch *Chains, opts Options) (r Result, err error) {
	ctx, span := start(ctx, "solver.SourceIteration", ch)
	defer func() { finish(span, "source_iteration", r, err) }()
	var (
		n     = ch.td.PhiSize()
		begin = time.Now()
	)
	b, err := ch.Source.Apply(make([]float64, ch.Size()))
	if err != nil {
		return
	}
	r.K = 1
	x := copyOf(b)
	for r.Iterations < opts.MaxIterations {
		if err = ctx.Err(); err != nil {
			return
		}
		var y []float64
		if y, err = ch.Flux.Apply(copyOf(x)); err != nil {
			return
		}
		floats.Add(y, b)
		r.Iterations++
		r.Change = relativeChange(x[:n], y[:n])
		x = y
		slog.Debug("source iteration", slog.Int("iteration", r.Iterations), slog.Float64("change", r.Change))
		if r.Change < opts.Tolerance {
			r.Phi = x
			slog.Info("source iteration converged", "iterations", r.Iterations, "elapsed", time.Since(begin))
			return
		}
	}
	r.Phi = x
	err = fmt.Errorf("source iteration: change %g after %d iterations: %w", r.Change, r.Iterations, ErrNotConverged)
	return
}

// KrylovSteadyState solves (I - flux) phi = source with matrix free GMRES
func KrylovSteadyState(ctx context.Context, ch *Chains, opts Options) (r Result, err error) {
	ctx, span := start(ctx, "solver.KrylovSteadyState", ch)
	defer func() { finish(span, "krylov", r, err) }()
	begin := time.Now()
	b, err := ch.Source.Apply(make([]float64, ch.Size()))
	if err != nil {
		return
	}
	r.K = 1
	x := copyOf(b)
	res, err := linsolve.MatrixFreeGMRES(removeFrom(ctx, ch.Flux), b, x, krylovOptions(opts))
	r.Phi, r.Iterations, r.Change = x, res.Iterations, res.Residual
	if err != nil {
		if errors.Is(err, linsolve.ErrNotConverged) {
			err = fmt.Errorf("krylov steady state: %w: %w", err, ErrNotConverged)
		}
		return
	}
	slog.Info("krylov steady state converged", "iterations", r.Iterations,
		"residual", r.Change, "elapsed", time.Since(begin))
	return
}

func krylovOptions(opts Options) linsolve.Options {
	kr := opts.Krylov
	if kr.MaxIterations == 0 {
		kr.MaxIterations = opts.MaxIterations
	}
	if kr.Tolerance == 0 {
		kr.Tolerance = opts.Tolerance
	}
	return kr
}

// removeFrom computes dst = src - op(src)
func removeFrom(ctx context.Context, op operator.VectorOperator) func(dst, src []float64) error {
	return func(dst, src []float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		y, err := op.Apply(copyOf(src))
		if err != nil {
			return err
		}
		floats.SubTo(dst, src, y)
		return nil
	}
}

// production is the total isotropic moment of a fission source
func (ch *Chains) production(f []float64) float64 {
	var (
		td  = ch.td
		sum float64
	)
	for i := 0; i < td.NumberOfPoints(); i++ {
		for g := 0; g < td.NumberOfGroups(); g++ {
			sum += f[td.PhiIndex(i, 0, g)]
		}
	}
	return sum
}

// PowerIteration finds the fundamental k-eigenvalue of
// (I - scatter) phi = fission(phi) / k, solving each within-generation
// problem with GMRES
func PowerIteration(ctx context.Context, ch *Chains, opts Options) (r Result, err error) {
	ctx, span := start(ctx, "solver.PowerIteration", ch)
	defer func() { finish(span, "power_iteration", r, err) }()
	var (
		td    = ch.td
		n     = td.PhiSize()
		begin = time.Now()
		kr    = krylovOptions(opts)
		apply = removeFrom(ctx, ch.Scatter)
	)
	x := make([]float64, ch.Size())
	for i := 0; i < td.NumberOfPoints(); i++ {
		for g := 0; g < td.NumberOfGroups(); g++ {
			x[td.PhiIndex(i, 0, g)] = 1
		}
	}
	f, err := ch.Fission.Apply(copyOf(x))
	if err != nil {
		return
	}
	r.K = 1
	for r.Iterations < opts.MaxIterations {
		p := ch.production(f)
		if p == 0 || math.IsNaN(p) {
			err = fmt.Errorf("power iteration: fission production is %g, the problem has no fissile material", p)
			return
		}
		rhs := copyOf(f)
		floats.Scale(1/r.K, rhs)
		y := copyOf(x)
		if _, err = linsolve.MatrixFreeGMRES(apply, rhs, y, kr); err != nil {
			err = fmt.Errorf("power iteration %d: %w", r.Iterations, err)
			return
		}
		var fy []float64
		if fy, err = ch.Fission.Apply(copyOf(y)); err != nil {
			return
		}
		k := r.K * ch.production(fy) / p
		r.Iterations++
		r.Change = relativeChange(x[:n], y[:n])
		dk := math.Abs(k-r.K) / math.Abs(k)
		x, f, r.K = y, fy, k
		slog.Debug("power iteration", slog.Int("iteration", r.Iterations),
			slog.Float64("k", k), slog.Float64("change", r.Change))
		if r.Change < opts.Tolerance && dk < opts.Tolerance {
			r.Phi = x
			slog.Info("power iteration converged", "iterations", r.Iterations, "k", k, "elapsed", time.Since(begin))
			return
		}
	}
	r.Phi = x
	err = fmt.Errorf("power iteration: k = %g, change %g after %d iterations: %w",
		r.K, r.Change, r.Iterations, ErrNotConverged)
	return
}
