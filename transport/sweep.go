package transport

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/gomeshless/linsolve"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/utils"
)

var tracer = otel.Tracer("gomeshless.transport")

var (
	sweepTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gomeshless_sweep_total",
		Help: "Total transport sweeps applied",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gomeshless_sweep_duration_seconds",
		Help:    "Transport sweep duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	})

	sweepDiverged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gomeshless_sweep_diverged_total",
		Help: "Ordinate and group solves accepted without convergence",
	})
)

// Rows assembles the rows of the per ordinate and group systems
type Rows interface {
	GetMatrixRow(i, o, g int) (cols []int, vals []float64, err error)
	GetRHS(i, o, g int, x []float64, includeBoundarySource bool) (float64, error)
}

type Options struct {
	Solver         linsolve.Options
	QuitIfDiverged bool
	ParallelDegree int    // concurrent (o,g) solves, 0 for all CPUs
	RunID          string // recorded in matrix dumps
}

func DefaultOptions() Options {
	return Options{Solver: linsolve.DefaultOptions()}
}

// Sweep inverts the streaming and collision operator for every ordinate
// and group. The systems are assembled once and reused by every Apply.
type Sweep struct {
	td                    *Discretization
	opts                  Options
	rows                  Rows
	matrices              []utils.CSR // g + G*o
	solvers               []linsolve.LinearSolver
	includeBoundarySource bool
}

// NewSweep picks weak or collocation rows from the spatial form
func NewSweep(ctx context.Context, td *Discretization, opts Options) (sw *Sweep, err error) {
	var rows Rows
	switch td.Spatial.Options.Form {
	case spatial.StrongForm:
		rows = NewStrongRows(td)
	default:
		rows = NewWeakRows(td)
	}
	return NewSweepWithRows(ctx, td, rows, opts)
}

func NewSweepWithRows(ctx context.Context, td *Discretization, rows Rows, opts Options) (sw *Sweep, err error) {
	var (
		O     = td.NumberOfOrdinates()
		G     = td.NumberOfGroups()
		N     = td.NumberOfPoints()
		start = time.Now()
	)
	sw = &Sweep{
		td:                    td,
		opts:                  opts,
		rows:                  rows,
		matrices:              make([]utils.CSR, O*G),
		solvers:               make([]linsolve.LinearSolver, O*G),
		includeBoundarySource: true,
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(sw.parallelDegree())
	for o := 0; o < O; o++ {
		for g := 0; g < G; g++ {
			o, g := o, g
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				A, err := sw.assemble(o, g)
				if err != nil {
					return err
				}
				ls, err := linsolve.New(opts.Solver)
				if err != nil {
					return err
				}
				if err = ls.Assemble(A); err != nil {
					return fmt.Errorf("ordinate %d group %d: %w", o, g, err)
				}
				sw.matrices[g+G*o], sw.solvers[g+G*o] = A, ls
				return nil
			})
		}
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}
	var nnz int
	for _, A := range sw.matrices {
		nnz += A.NNZ()
	}
	slog.Info("sweep assembled", "points", N, "ordinates", O, "groups", G, "nonzeros", nnz,
		"solver", opts.Solver.Method, "elapsed", time.Since(start))
	return
}

func (sw *Sweep) parallelDegree() int {
	if sw.opts.ParallelDegree > 0 {
		return sw.opts.ParallelDegree
	}
	return runtime.NumCPU()
}

func (sw *Sweep) assemble(o, g int) (A utils.CSR, err error) {
	N := sw.td.NumberOfPoints()
	cb := utils.NewCSRBuilder(N, N, fmt.Sprintf("sweep_o%d_g%d", o, g))
	for i := 0; i < N; i++ {
		cols, vals, err := sw.rows.GetMatrixRow(i, o, g)
		if err != nil {
			return A, err
		}
		if k := utils.FirstNonFinite(vals); k >= 0 {
			return A, fmt.Errorf("row %d of ordinate %d group %d has a non-finite entry for basis %d",
				i, o, g, cols[k])
		}
		if err = cb.AddRow(cols, vals); err != nil {
			return A, err
		}
	}
	return cb.Build()
}

func (sw *Sweep) Discretization() *Discretization { return sw.td }
func (sw *Sweep) RowSize() int                    { return sw.td.PsiSize() + sw.td.NumberOfAugments() }
func (sw *Sweep) ColumnSize() int                 { return sw.RowSize() }

func (sw *Sweep) GetMatrixRow(i, o, g int) (cols []int, vals []float64, err error) {
	return sw.rows.GetMatrixRow(i, o, g)
}

func (sw *Sweep) GetRHS(i, o, g int, x []float64) (float64, error) {
	return sw.rows.GetRHS(i, o, g, x, sw.includeBoundarySource)
}

// Matrix is the assembled (o,g) system
func (sw *Sweep) Matrix(o, g int) utils.CSR {
	return sw.matrices[g+sw.td.NumberOfGroups()*o]
}

// BoundarySourceToggle shares the assembled systems with a sweep that does
// or does not add the prescribed boundary sources
func (sw *Sweep) BoundarySourceToggle(include bool) *Sweep {
	cp := *sw
	cp.includeBoundarySource = include
	return &cp
}

func (sw *Sweep) Apply(x []float64) ([]float64, error) {
	return sw.ApplyContext(context.Background(), x)
}

// ApplyContext overwrites the psi part of x with the swept angular flux and
// refreshes the augments
func (sw *Sweep) ApplyContext(ctx context.Context, x []float64) (y []float64, err error) {
	var (
		td    = sw.td
		O     = td.NumberOfOrdinates()
		G     = td.NumberOfGroups()
		N     = td.NumberOfPoints()
		start = time.Now()
	)
	if len(x) != sw.ColumnSize() {
		return nil, fmt.Errorf("sweep of size %d applied to vector of size %d", sw.ColumnSize(), len(x))
	}
	ctx, span := tracer.Start(ctx, "transport.Sweep",
		trace.WithAttributes(attribute.Int("ordinates", O), attribute.Int("groups", G),
			attribute.Bool("boundary_source", sw.includeBoundarySource)))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(sw.parallelDegree())
	for o := 0; o < O; o++ {
		for g := 0; g < G; g++ {
			o, g := o, g
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				// Every right hand side is read before this pair's psi is written,
				// and no other pair touches those slots
				b := make([]float64, N)
				for i := 0; i < N; i++ {
					var err error
					if b[i], err = sw.GetRHS(i, o, g, x); err != nil {
						return err
					}
				}
				psi := make([]float64, N)
				r, err := sw.solvers[g+G*o].Solve(b, psi)
				if err != nil {
					if !errors.Is(err, linsolve.ErrNotConverged) || sw.opts.QuitIfDiverged {
						return fmt.Errorf("ordinate %d group %d: %w", o, g, err)
					}
					sweepDiverged.Inc()
					slog.Warn("sweep solve did not converge", slog.Int("ordinate", o), slog.Int("group", g),
						slog.Int("iterations", r.Iterations), slog.Float64("residual", r.Residual))
				}
				for i := 0; i < N; i++ {
					x[td.PsiIndex(i, o, g)] = psi[i]
				}
				return nil
			})
		}
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}
	sw.UpdateAugments(x)
	sweepTotal.Inc()
	sweepDuration.Observe(time.Since(start).Seconds())
	return x, nil
}

// UpdateAugments copies the angular flux of each boundary basis into its
// augment slots
func (sw *Sweep) UpdateAugments(x []float64) {
	var (
		td = sw.td
		O  = td.NumberOfOrdinates()
		G  = td.NumberOfGroups()
	)
	if !td.HasReflection {
		return
	}
	for b, k := range td.Spatial.BoundaryBases {
		for o := 0; o < O; o++ {
			for g := 0; g < G; g++ {
				x[td.AugmentIndex(b, o, g)] = x[td.PsiIndex(k, o, g)]
			}
		}
	}
}

type xmlRow struct {
	Index   int    `xml:"row_index,attr"`
	Columns string `xml:"column_indices"`
	Values  string `xml:"values"`
}

type xmlMatrix struct {
	O      int      `xml:"o,attr"`
	G      int      `xml:"g,attr"`
	Points int      `xml:"number_of_points,attr"`
	Rows   []xmlRow `xml:"row"`
}

type xmlMatrices struct {
	XMLName  xml.Name    `xml:"sweep_matrices"`
	RunID    string      `xml:"run_id,attr,omitempty"`
	Solver   string      `xml:"solver,attr"`
	Matrices []xmlMatrix `xml:"matrix"`
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, " ")
}

func joinFloats(v []float64) string {
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = strconv.FormatFloat(x, 'g', 17, 64)
	}
	return strings.Join(s, " ")
}

// SaveMatrixAsXML writes every assembled (o,g) matrix row by row
func (sw *Sweep) SaveMatrixAsXML(w io.Writer) (err error) {
	var (
		O = sw.td.NumberOfOrdinates()
		G = sw.td.NumberOfGroups()
		N = sw.td.NumberOfPoints()
	)
	out := xmlMatrices{RunID: sw.opts.RunID, Solver: sw.opts.Solver.Method.String()}
	for o := 0; o < O; o++ {
		for g := 0; g < G; g++ {
			A := sw.Matrix(o, g)
			m := xmlMatrix{O: o, G: g, Points: N}
			for i := 0; i < N; i++ {
				cols, vals := A.Row(i)
				m.Rows = append(m.Rows, xmlRow{Index: i, Columns: joinInts(cols), Values: joinFloats(vals)})
			}
			out.Matrices = append(out.Matrices, m)
		}
	}
	if _, err = io.WriteString(w, xml.Header); err != nil {
		return
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err = enc.Encode(out); err != nil {
		return
	}
	return enc.Flush()
}
