// Package linsolve solves the sparse systems produced by a transport sweep
package linsolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/notargets/gomeshless/utils"
)

var ErrNotConverged = errors.New("linear solve did not converge")

var (
	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gomeshless_linear_solve_total",
		Help: "Total linear solves by method and result",
	}, []string{"method", "result"})

	solveIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gomeshless_linear_solve_iterations",
		Help:    "Krylov iterations per linear solve",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"method"})
)

type Method uint8

const (
	Direct Method = iota
	GMRES
	GMRESILUT
	GMRESILUK
	SparseLU
)

func (m Method) String() string {
	return [...]string{"DIRECT", "GMRES", "GMRES_ILUT", "GMRES_ILUK", "SPARSE_LU"}[m]
}

func ParseMethod(s string) (m Method, err error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "_")) {
	case "DIRECT", "LU", "":
		m = Direct
	case "GMRES":
		m = GMRES
	case "GMRES_ILUT", "ILUT":
		m = GMRESILUT
	case "GMRES_ILUK", "GMRES_ILU", "ILUK":
		m = GMRESILUK
	case "SPARSE_LU", "SPARSE":
		m = SparseLU
	default:
		err = fmt.Errorf("unknown linear solver %q", s)
	}
	return
}

// Options tune the iterative solvers. The direct solver ignores them.
type Options struct {
	Method        Method
	KrylovSize    int
	MaxIterations int
	Tolerance     float64
	Restarts      int
	FillLevel     int     // ILU(k) level, or extra entries kept per row by ILUT
	DropTolerance float64 // ILUT drops entries below this times the row norm
}

func DefaultOptions() Options {
	return Options{
		Method:        Direct,
		KrylovSize:    30,
		MaxIterations: 1000,
		Tolerance:     1.e-10,
		Restarts:      20,
		FillLevel:     2,
		DropTolerance: 1.e-6,
	}
}

// Result reports the outcome of one solve
type Result struct {
	Iterations int
	Residual   float64 // relative residual norm
	Converged  bool
}

// LinearSolver factors or preconditions a matrix once in Assemble, then
// solves any number of right hand sides
type LinearSolver interface {
	Assemble(A utils.CSR) error
	Solve(b, x []float64) (Result, error)
	Method() Method
}

func New(opts Options) (ls LinearSolver, err error) {
	switch opts.Method {
	case Direct:
		ls = &DirectSolver{}
	case SparseLU:
		ls = &SparseLUSolver{}
	case GMRES, GMRESILUT, GMRESILUK:
		if opts.KrylovSize < 1 || opts.MaxIterations < 1 || opts.Tolerance <= 0 {
			err = fmt.Errorf("invalid %s settings: krylov size %d, max iterations %d, tolerance %g",
				opts.Method, opts.KrylovSize, opts.MaxIterations, opts.Tolerance)
			return
		}
		ls = &GMRESSolver{opts: opts}
	default:
		err = fmt.Errorf("unknown linear solver method %d", opts.Method)
	}
	return
}

func record(m Method, r Result, err error) {
	result := "converged"
	switch {
	case errors.Is(err, ErrNotConverged):
		result = "diverged"
	case err != nil:
		result = "error"
	}
	solveTotal.WithLabelValues(m.String(), result).Inc()
	if m != Direct && m != SparseLU {
		solveIterations.WithLabelValues(m.String()).Observe(float64(r.Iterations))
	}
}

func checkSquare(A utils.CSR) (n int, err error) {
	nr, nc := A.Dims()
	if nr != nc {
		err = fmt.Errorf("matrix %s is %dx%d, not square", A.Name(), nr, nc)
	}
	return nr, err
}
