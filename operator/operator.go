// Package operator provides the linear and affine vector operators that are
// chained into transport source and flux operators
package operator

import (
	"fmt"
)

// VectorOperator maps a vector of ColumnSize to a vector of RowSize. Apply
// may reuse x for its result, so callers must not use x afterwards.
type VectorOperator interface {
	Apply(x []float64) ([]float64, error)
	RowSize() int
	ColumnSize() int
}

func checkSize(name string, x []float64, n int) error {
	if len(x) != n {
		return fmt.Errorf("%s expects a vector of size %d, got %d", name, n, len(x))
	}
	return nil
}

// Composition applies its operators right to left, as in A·B·C
type Composition struct {
	ops []VectorOperator
}

func Compose(ops ...VectorOperator) (c *Composition, err error) {
	if len(ops) == 0 {
		err = fmt.Errorf("composition of no operators")
		return
	}
	for k := 0; k < len(ops)-1; k++ {
		if ops[k].ColumnSize() != ops[k+1].RowSize() {
			err = fmt.Errorf("operator %d takes %d entries but operator %d yields %d",
				k, ops[k].ColumnSize(), k+1, ops[k+1].RowSize())
			return
		}
	}
	return &Composition{ops: ops}, nil
}

func (c *Composition) RowSize() int    { return c.ops[0].RowSize() }
func (c *Composition) ColumnSize() int { return c.ops[len(c.ops)-1].ColumnSize() }

func (c *Composition) Apply(x []float64) (y []float64, err error) {
	y = x
	for k := len(c.ops) - 1; k >= 0; k-- {
		if y, err = c.ops[k].Apply(y); err != nil {
			return
		}
	}
	return
}

// Summation adds the results of its operators applied to copies of x
type Summation struct {
	ops []VectorOperator
}

func Sum(ops ...VectorOperator) (s *Summation, err error) {
	if len(ops) == 0 {
		err = fmt.Errorf("sum of no operators")
		return
	}
	for k, op := range ops {
		if op.RowSize() != ops[0].RowSize() || op.ColumnSize() != ops[0].ColumnSize() {
			err = fmt.Errorf("operator %d is %dx%d, operator 0 is %dx%d", k,
				op.RowSize(), op.ColumnSize(), ops[0].RowSize(), ops[0].ColumnSize())
			return
		}
	}
	return &Summation{ops: ops}, nil
}

func (s *Summation) RowSize() int    { return s.ops[0].RowSize() }
func (s *Summation) ColumnSize() int { return s.ops[0].ColumnSize() }

func (s *Summation) Apply(x []float64) (y []float64, err error) {
	if err = checkSize("sum", x, s.ColumnSize()); err != nil {
		return
	}
	y = make([]float64, s.RowSize())
	for _, op := range s.ops {
		var r []float64
		if r, err = op.Apply(append([]float64(nil), x...)); err != nil {
			return nil, err
		}
		for i, v := range r {
			y[i] += v
		}
	}
	return
}

// Identity returns its input
type Identity struct {
	Size int
}

func (id Identity) RowSize() int    { return id.Size }
func (id Identity) ColumnSize() int { return id.Size }
func (id Identity) Apply(x []float64) ([]float64, error) {
	return x, checkSize("identity", x, id.Size)
}

// Scaled multiplies the result of an operator by a constant
type Scaled struct {
	Factor float64
	Op     VectorOperator
}

func Scale(factor float64, op VectorOperator) *Scaled { return &Scaled{Factor: factor, Op: op} }

func (s *Scaled) RowSize() int    { return s.Op.RowSize() }
func (s *Scaled) ColumnSize() int { return s.Op.ColumnSize() }
func (s *Scaled) Apply(x []float64) (y []float64, err error) {
	if y, err = s.Op.Apply(x); err != nil {
		return
	}
	for i := range y {
		y[i] *= s.Factor
	}
	return
}

// Augmented applies an operator to the leading part of a vector and carries
// the trailing augments through, or zeroes them
type Augmented struct {
	Augments     int
	Op           VectorOperator
	ZeroAugments bool
}

// Augment wraps op when there are augments, and returns it unchanged otherwise
func Augment(augments int, op VectorOperator, zeroAugments bool) VectorOperator {
	if augments == 0 {
		return op
	}
	return &Augmented{Augments: augments, Op: op, ZeroAugments: zeroAugments}
}

func (a *Augmented) RowSize() int    { return a.Op.RowSize() + a.Augments }
func (a *Augmented) ColumnSize() int { return a.Op.ColumnSize() + a.Augments }
func (a *Augmented) Apply(x []float64) (y []float64, err error) {
	if err = checkSize("augmented operator", x, a.ColumnSize()); err != nil {
		return
	}
	n := a.Op.ColumnSize()
	aug := append([]float64(nil), x[n:]...)
	if y, err = a.Op.Apply(x[:n:n]); err != nil {
		return
	}
	if a.ZeroAugments {
		for i := range aug {
			aug[i] = 0
		}
	}
	return append(y, aug...), nil
}
