package linsolve

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/gomeshless/utils"
)

// preconditioner applies an approximate inverse: dst = M^-1 src
type preconditioner interface {
	apply(dst, src []float64)
}

type identity struct{}

func (identity) apply(dst, src []float64) { copy(dst, src) }

// iluFactors stores a unit lower factor L and an upper factor U by row,
// with the diagonal first in each U row
type iluFactors struct {
	n            int
	lCols, uCols [][]int
	lVals, uVals [][]float64
	uLev         [][]int
}

func (f *iluFactors) apply(dst, src []float64) {
	copy(dst, src)
	for i := 0; i < f.n; i++ {
		for k, j := range f.lCols[i] {
			dst[i] -= f.lVals[i][k] * dst[j]
		}
	}
	for i := f.n - 1; i >= 0; i-- {
		for k := 1; k < len(f.uCols[i]); k++ {
			dst[i] -= f.uVals[i][k] * dst[f.uCols[i][k]]
		}
		dst[i] /= f.uVals[i][0]
	}
}

// rowWork is a sparse accumulator for the row being eliminated
type rowWork struct {
	val    []float64
	lev    []int
	used   []bool
	lower  []int // sorted columns below the diagonal still to eliminate
	others []int // columns at or above the diagonal
}

func newRowWork(n int) *rowWork {
	return &rowWork{val: make([]float64, n), lev: make([]int, n), used: make([]bool, n)}
}

func (w *rowWork) insert(i, j int, v float64, lev int) {
	w.used[j], w.val[j], w.lev[j] = true, v, lev
	if j < i {
		k := sort.SearchInts(w.lower, j)
		w.lower = append(w.lower, 0)
		copy(w.lower[k+1:], w.lower[k:])
		w.lower[k] = j
	} else {
		w.others = append(w.others, j)
	}
}

func (w *rowWork) reset(cols []int) {
	for _, j := range cols {
		w.used[j], w.val[j], w.lev[j] = false, 0, 0
	}
	w.lower, w.others = w.lower[:0], w.others[:0]
}

type dropRule struct {
	level    int     // level of fill, negative for threshold dropping
	tol      float64 // threshold relative to the row norm
	keepLow  int     // extra entries kept in L per row
	keepHigh int     // extra entries kept in U per row
}

// factorILU performs a row oriented incomplete LU with either level of
// fill or threshold dropping
func factorILU(A utils.CSR, rule dropRule) (f *iluFactors, err error) {
	n, err := checkSquare(A)
	if err != nil {
		return
	}
	f = &iluFactors{
		n:     n,
		lCols: make([][]int, n), lVals: make([][]float64, n),
		uCols: make([][]int, n), uVals: make([][]float64, n), uLev: make([][]int, n),
	}
	w := newRowWork(n)
	for i := 0; i < n; i++ {
		cols, vals := A.Row(i)
		var (
			rowNorm    float64
			nLow, nUp  int
			eliminated []int
		)
		for k, j := range cols {
			w.insert(i, j, vals[k], 0)
			rowNorm += vals[k] * vals[k]
			if j < i {
				nLow++
			} else {
				nUp++
			}
		}
		rowNorm = math.Sqrt(rowNorm)
		if !w.used[i] {
			w.insert(i, i, 0, 0)
		}
		drop := rule.tol * rowNorm
		for len(w.lower) > 0 {
			k := w.lower[0]
			w.lower = w.lower[1:]
			eliminated = append(eliminated, k)
			if rule.level >= 0 && w.lev[k] > rule.level {
				w.val[k] = 0
				continue
			}
			w.val[k] /= f.uVals[k][0]
			if rule.level < 0 && math.Abs(w.val[k]) < drop {
				w.val[k] = 0
				continue
			}
			for m := 1; m < len(f.uCols[k]); m++ {
				j := f.uCols[k][m]
				lev := w.lev[k] + f.uLev[k][m] + 1
				upd := -w.val[k] * f.uVals[k][m]
				switch {
				case w.used[j]:
					w.val[j] += upd
					if lev < w.lev[j] {
						w.lev[j] = lev
					}
				case rule.level < 0 || lev <= rule.level:
					w.insert(i, j, upd, lev)
				}
			}
		}
		// Gather L
		var lc []int
		for _, k := range eliminated {
			if w.val[k] != 0 && (rule.level < 0 || w.lev[k] <= rule.level) {
				lc = append(lc, k)
			}
		}
		if rule.level < 0 {
			lc = largest(lc, w.val, nLow+rule.keepLow)
		}
		sort.Ints(lc)
		for _, k := range lc {
			f.lCols[i] = append(f.lCols[i], k)
			f.lVals[i] = append(f.lVals[i], w.val[k])
		}
		// Gather U, diagonal first
		if w.val[i] == 0 {
			w.reset(append(eliminated, w.others...))
			err = fmt.Errorf("zero pivot in row %d of %s", i, A.Name())
			return
		}
		var uc []int
		for _, j := range w.others {
			if j == i {
				continue
			}
			if rule.level >= 0 && w.lev[j] > rule.level {
				continue
			}
			if rule.level < 0 && math.Abs(w.val[j]) < drop {
				continue
			}
			uc = append(uc, j)
		}
		if rule.level < 0 {
			uc = largest(uc, w.val, nUp-1+rule.keepHigh)
		}
		sort.Ints(uc)
		f.uCols[i] = append(f.uCols[i], i)
		f.uVals[i] = append(f.uVals[i], w.val[i])
		f.uLev[i] = append(f.uLev[i], 0)
		for _, j := range uc {
			f.uCols[i] = append(f.uCols[i], j)
			f.uVals[i] = append(f.uVals[i], w.val[j])
			f.uLev[i] = append(f.uLev[i], w.lev[j])
		}
		w.reset(append(eliminated, w.others...))
	}
	return
}

// largest keeps the p entries of cols with largest magnitude
func largest(cols []int, val []float64, p int) []int {
	if p < 0 {
		p = 0
	}
	if len(cols) <= p {
		return cols
	}
	sort.Slice(cols, func(a, b int) bool { return math.Abs(val[cols[a]]) > math.Abs(val[cols[b]]) })
	return cols[:p]
}
