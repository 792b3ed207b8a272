// Package solver chains the transport operators into source and flux
// operators and iterates them to a steady state or a k-eigenvalue
package solver

import (
	"fmt"

	"github.com/notargets/gomeshless/material"
	"github.com/notargets/gomeshless/operator"
	"github.com/notargets/gomeshless/spatial"
	"github.com/notargets/gomeshless/transport"
)

// Chains holds the composed operators acting on moment vectors of
// PhiSize plus the reflection augments.
//
//	Source  D·LinvB·M·Q, affine, ignores its input
//	Flux    D·LinvI·M·(S+F)·Wm
//	Scatter D·LinvI·M·S·Wm
//	Fission D·LinvI·M·F·Wm
//
// With basis materials the weighting moves to the left of S and F.
type Chains struct {
	td      *transport.Discretization
	Source  operator.VectorOperator
	Flux    operator.VectorOperator
	Scatter operator.VectorOperator
	Fission operator.VectorOperator
}

func NewChains(sweep *transport.Sweep) (ch *Chains, err error) {
	var (
		td   = sweep.Discretization()
		sd   = td.Spatial
		A    = td.NumberOfAugments()
		supg = sd.Options.IncludeSUPG
	)
	if sd.Options.Total == spatial.TotalMoment {
		err = fmt.Errorf("%w: total cross section treatment MOMENT", spatial.ErrUnsupported)
		return
	}
	var (
		M, D, S, F, W, Q operator.VectorOperator
		basis            = sd.Dependency() != material.WeightDependency
	)
	if supg {
		M = operator.NewSUPGMomentToDiscrete(td)
	} else {
		M = operator.NewMomentToDiscrete(td)
	}
	D = operator.NewDiscreteToMoment(td)
	Q = operator.NewInternalSource(td)
	if basis {
		S = operator.NewBasisScattering(td, operator.Full)
		F = operator.NewBasisFission(td, operator.Full)
		if supg {
			W = operator.NewSUPGMomentWeighting(td)
		} else {
			W = operator.NewMomentWeighting(td)
		}
	} else {
		S = operator.NewScattering(td, operator.Full)
		F = operator.NewFission(td, operator.Full)
		W = operator.NewMomentWeighting(td)
	}
	M = operator.Augment(A, M, false)
	D = operator.Augment(A, D, false)
	S = operator.Augment(A, S, false)
	F = operator.Augment(A, F, true)
	W = operator.Augment(A, W, false)
	Q = operator.Augment(A, Q, false)

	var (
		LinvB = sweep.BoundarySourceToggle(true)
		LinvI = sweep.BoundarySourceToggle(false)
	)
	ch = &Chains{td: td}
	if ch.Source, err = operator.Compose(D, LinvB, M, Q); err != nil {
		return nil, fmt.Errorf("source operator: %w", err)
	}
	SF, err := operator.Sum(S, F)
	if err != nil {
		return nil, err
	}
	chain := func(name string, op operator.VectorOperator) (c operator.VectorOperator, err error) {
		if basis {
			c, err = operator.Compose(D, LinvI, M, W, op)
		} else {
			c, err = operator.Compose(D, LinvI, M, op, W)
		}
		if err != nil {
			err = fmt.Errorf("%s operator: %w", name, err)
		}
		return
	}
	if ch.Flux, err = chain("flux", SF); err != nil {
		return nil, err
	}
	if ch.Scatter, err = chain("scattering", S); err != nil {
		return nil, err
	}
	if ch.Fission, err = chain("fission", F); err != nil {
		return nil, err
	}
	return
}

func (ch *Chains) Discretization() *transport.Discretization { return ch.td }

// Size is the length of the iterated vector
func (ch *Chains) Size() int { return ch.td.PhiSize() + ch.td.NumberOfAugments() }
