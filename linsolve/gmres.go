package linsolve

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomeshless/utils"
)

// GMRESSolver is restarted GMRES, right preconditioned by ILUT or ILU(k)
// when the method asks for it
type GMRESSolver struct {
	opts Options
	A    utils.CSR
	n    int
	pc   preconditioner
}

func (gs *GMRESSolver) Method() Method { return gs.opts.Method }

func (gs *GMRESSolver) Assemble(A utils.CSR) (err error) {
	if gs.n, err = checkSquare(A); err != nil {
		return
	}
	gs.A = A
	switch gs.opts.Method {
	case GMRESILUT:
		gs.pc, err = factorILU(A, dropRule{
			level:    -1,
			tol:      gs.opts.DropTolerance,
			keepLow:  gs.opts.FillLevel,
			keepHigh: gs.opts.FillLevel,
		})
	case GMRESILUK:
		gs.pc, err = factorILU(A, dropRule{level: gs.opts.FillLevel})
	default:
		gs.pc = identity{}
	}
	return
}

// Solve uses x as the initial guess and overwrites it with the solution
func (gs *GMRESSolver) Solve(b, x []float64) (r Result, err error) {
	defer func() { record(gs.opts.Method, r, err) }()
	if gs.pc == nil {
		err = fmt.Errorf("GMRES solve before Assemble")
		return
	}
	if len(b) != gs.n || len(x) != gs.n {
		err = fmt.Errorf("GMRES solve of size %d with b %d and x %d", gs.n, len(b), len(x))
		return
	}
	A := gs.A
	return gmres(func(dst, src []float64) error {
		A.MulVecTo(dst, src)
		return nil
	}, gs.pc, A.Name(), b, x, gs.opts)
}

// MatrixFreeGMRES solves A x = b where apply computes dst = A src. x holds
// the initial guess and is overwritten.
func MatrixFreeGMRES(apply func(dst, src []float64) error, b, x []float64, opts Options) (r Result, err error) {
	defer func() { record(GMRES, r, err) }()
	if len(b) != len(x) {
		err = fmt.Errorf("GMRES solve with b %d and x %d", len(b), len(x))
		return
	}
	if opts.KrylovSize < 1 || opts.MaxIterations < 1 || opts.Tolerance <= 0 {
		err = fmt.Errorf("invalid GMRES settings: krylov size %d, max iterations %d, tolerance %g",
			opts.KrylovSize, opts.MaxIterations, opts.Tolerance)
		return
	}
	opts.Method = GMRES
	return gmres(apply, identity{}, "operator", b, x, opts)
}

func gmres(apply func(dst, src []float64) error, pc preconditioner, name string,
	b, x []float64, opts Options) (r Result, err error) {
	var (
		n = len(b)
		m = opts.KrylovSize
	)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		for i := range x {
			x[i] = 0
		}
		r = Result{Converged: true}
		return
	}
	var (
		V   = make([][]float64, m+1)
		H   = make([][]float64, m+1) // H[i][j], i <= j+1
		cs  = make([]float64, m)
		sn  = make([]float64, m)
		g   = make([]float64, m+1)
		y   = make([]float64, m)
		res = make([]float64, n)
		z   = make([]float64, n)
	)
	for i := range V {
		V[i] = make([]float64, n)
		H[i] = make([]float64, m)
	}
	residual := func() (float64, error) {
		if err := apply(res, x); err != nil {
			return 0, err
		}
		floats.SubTo(res, b, res)
		return floats.Norm(res, 2), nil
	}
	beta, err := residual()
	if err != nil {
		return
	}
	r.Residual = beta / bnorm
	for cycle := 0; cycle <= opts.Restarts; cycle++ {
		if r.Residual < opts.Tolerance {
			r.Converged = true
			return
		}
		floats.ScaleTo(V[0], 1/beta, res)
		for i := range g {
			g[i] = 0
		}
		g[0] = beta
		k := 0
		for k < m && r.Iterations < opts.MaxIterations {
			pc.apply(z, V[k])
			w := V[k+1]
			if err = apply(w, z); err != nil {
				return
			}
			for i := 0; i <= k; i++ {
				H[i][k] = floats.Dot(w, V[i])
				floats.AddScaled(w, -H[i][k], V[i])
			}
			H[k+1][k] = floats.Norm(w, 2)
			if H[k+1][k] != 0 {
				floats.Scale(1/H[k+1][k], w)
			}
			for i := 0; i < k; i++ {
				h0, h1 := H[i][k], H[i+1][k]
				H[i][k] = cs[i]*h0 + sn[i]*h1
				H[i+1][k] = -sn[i]*h0 + cs[i]*h1
			}
			den := math.Hypot(H[k][k], H[k+1][k])
			if den == 0 {
				err = fmt.Errorf("GMRES breakdown in %s at iteration %d", name, r.Iterations)
				return
			}
			cs[k], sn[k] = H[k][k]/den, H[k+1][k]/den
			H[k][k], H[k+1][k] = den, 0
			g[k+1] = -sn[k] * g[k]
			g[k] = cs[k] * g[k]
			k++
			r.Iterations++
			if math.Abs(g[k])/bnorm < opts.Tolerance {
				break
			}
		}
		// Back substitution for the Krylov coefficients
		for i := k - 1; i >= 0; i-- {
			y[i] = g[i]
			for j := i + 1; j < k; j++ {
				y[i] -= H[i][j] * y[j]
			}
			y[i] /= H[i][i]
		}
		for i := range res {
			res[i] = 0
		}
		for i := 0; i < k; i++ {
			floats.AddScaled(res, y[i], V[i])
		}
		pc.apply(z, res)
		floats.Add(x, z)
		if beta, err = residual(); err != nil {
			return
		}
		r.Residual = beta / bnorm
		if r.Iterations >= opts.MaxIterations {
			break
		}
	}
	if r.Residual < opts.Tolerance {
		r.Converged = true
		return
	}
	err = fmt.Errorf("%s on %s: residual %g after %d iterations: %w",
		opts.Method, name, r.Residual, r.Iterations, ErrNotConverged)
	return
}
