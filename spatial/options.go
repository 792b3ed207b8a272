package spatial

import (
	"fmt"
	"strings"

	"github.com/notargets/gomeshless/material"
)

type Weighting uint8

const (
	// Cross sections taken at the weight center
	PointWeighting Weighting = iota
	// Cross sections averaged against the weight function
	WeightWeighting
	// Cross sections averaged against the weight function times a flux shape
	FluxWeighting
	// Each basis function carries the cross sections at its center
	BasisWeighting
	// Collision integrates basis times weight times sigma_t
	FullWeighting
)

func (w Weighting) String() string {
	return [...]string{"POINT", "WEIGHT", "FLUX", "BASIS", "FULL"}[w]
}

// Dependency is the cross section representation the weighting implies
func (w Weighting) Dependency() material.SpatialDependency {
	switch w {
	case BasisWeighting:
		return material.BasisDependency
	case FullWeighting:
		return material.BasisWeightDependency
	}
	return material.WeightDependency
}

type Form uint8

const (
	WeakForm Form = iota
	StrongForm
)

func (f Form) String() string { return [...]string{"WEAK", "STRONG"}[f] }

type TauScaling uint8

const (
	TauNone       TauScaling = iota
	TauFunctional            // 1 minus the normalized weight at the nearest boundary
	TauLinear                // distance to the boundary over the radius
	TauAbsolute              // zero on the boundary
)

func (ts TauScaling) String() string {
	return [...]string{"NONE", "FUNCTIONAL", "LINEAR", "ABSOLUTE"}[ts]
}

type Total uint8

const (
	TotalIsotropic Total = iota
	TotalMoment
)

func (t Total) String() string { return [...]string{"ISOTROPIC", "MOMENT"}[t] }

type IdenticalBasis uint8

const (
	IdenticalAuto IdenticalBasis = iota
	IdenticalTrue
	IdenticalFalse
)

type BasisType uint8

const (
	LinearMLSBasis BasisType = iota
	RBFBasis
)

func (bt BasisType) String() string { return [...]string{"MLS", "RBF"}[bt] }

// FluxFunction is the flux shape used by FLUX weighting
type FluxFunction func(moment, group int, position []float64) float64

// WeightOptions are the per weight function integration settings
type WeightOptions struct {
	Weighting            Weighting
	Normalized           bool
	IncludeSUPG          bool
	Tau                  float64
	TauScaling           TauScaling
	Total                Total
	IntegrationOrdinates int
	Flux                 FluxFunction
}

// Options configure a meshless discretization
type Options struct {
	Form                 Form
	Weighting            Weighting
	BasisType            BasisType
	RBF                  string
	RadiusIntervals      float64 // support radius in multiples of the point spacing
	IncludeSUPG          bool
	TauConst             float64
	TauScaling           TauScaling
	Total                Total
	Normalized           bool
	IdenticalBasis       IdenticalBasis
	IntegrationOrdinates int
	IntegrationCells     []int
	Flux                 FluxFunction
	ParallelDegree       int
}

func DefaultOptions() Options {
	return Options{
		Form:                 WeakForm,
		Weighting:            WeightWeighting,
		BasisType:            LinearMLSBasis,
		RBF:                  "wendland",
		RadiusIntervals:      3,
		TauConst:             1,
		TauScaling:           TauLinear,
		Normalized:           true,
		IntegrationOrdinates: 4,
	}
}

// Check rejects unsupported combinations before any work is done, and
// resolves the settings that other options force
func (o *Options) Check(dimension int) error {
	if o.Total == TotalMoment {
		return fmt.Errorf("%w: total cross section treatment MOMENT", ErrUnsupported)
	}
	if o.Form == StrongForm && o.Weighting != PointWeighting && o.Weighting != BasisWeighting {
		return fmt.Errorf("%w: STRONG form requires POINT or BASIS weighting, got %s",
			ErrUnsupported, o.Weighting)
	}
	if o.IncludeSUPG && o.Weighting == FullWeighting {
		return fmt.Errorf("%w: SUPG with FULL weighting", ErrUnsupported)
	}
	if o.IncludeSUPG && o.Form == StrongForm {
		return fmt.Errorf("%w: SUPG with STRONG form", ErrUnsupported)
	}
	if o.Weighting == FluxWeighting && o.Flux == nil {
		return fmt.Errorf("FLUX weighting needs a flux function")
	}
	if o.RadiusIntervals <= 0 {
		return fmt.Errorf("radius must be a positive number of intervals, got %g", o.RadiusIntervals)
	}
	if o.IntegrationOrdinates < 1 {
		return fmt.Errorf("need at least one integration ordinate, got %d", o.IntegrationOrdinates)
	}
	if len(o.IntegrationCells) != 0 && len(o.IntegrationCells) != dimension {
		return fmt.Errorf("integration cells given for %d dimensions, problem has %d",
			len(o.IntegrationCells), dimension)
	}
	if o.IncludeSUPG {
		// Dimensional moments must stay unnormalized to combine with tau
		o.Normalized = false
	}
	if o.Form == StrongForm {
		// Collocation works with point values
		o.Normalized = true
	}
	return nil
}

func ParseWeighting(s string) (w Weighting, err error) {
	switch strings.ToUpper(s) {
	case "POINT":
		w = PointWeighting
	case "WEIGHT", "":
		w = WeightWeighting
	case "FLUX":
		w = FluxWeighting
	case "BASIS":
		w = BasisWeighting
	case "FULL":
		w = FullWeighting
	default:
		err = fmt.Errorf("unknown weighting %q", s)
	}
	return
}

func ParseForm(s string) (f Form, err error) {
	switch strings.ToUpper(s) {
	case "WEAK", "":
		f = WeakForm
	case "STRONG":
		f = StrongForm
	default:
		err = fmt.Errorf("unknown discretization form %q", s)
	}
	return
}

func ParseTauScaling(s string) (ts TauScaling, err error) {
	switch strings.ToUpper(s) {
	case "NONE":
		ts = TauNone
	case "FUNCTIONAL":
		ts = TauFunctional
	case "LINEAR", "":
		ts = TauLinear
	case "ABSOLUTE":
		ts = TauAbsolute
	default:
		err = fmt.Errorf("unknown tau scaling %q", s)
	}
	return
}

func ParseTotal(s string) (t Total, err error) {
	switch strings.ToUpper(s) {
	case "ISOTROPIC", "":
		t = TotalIsotropic
	case "MOMENT":
		t = TotalMoment
	default:
		err = fmt.Errorf("unknown total cross section treatment %q", s)
	}
	return
}

func ParseBasisType(s string) (bt BasisType, err error) {
	switch strings.ToUpper(s) {
	case "MLS", "LINEAR_MLS", "":
		bt = LinearMLSBasis
	case "RBF":
		bt = RBFBasis
	default:
		err = fmt.Errorf("unknown basis type %q", s)
	}
	return
}
