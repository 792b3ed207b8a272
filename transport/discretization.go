// Package transport sweeps the discrete ordinates transport equation on a
// meshless spatial discretization
package transport

import (
	"fmt"

	"github.com/notargets/gomeshless/discretization"
	"github.com/notargets/gomeshless/spatial"
)

// Discretization joins the spatial, angular and energy discretizations and
// fixes the layout of the flux vectors:
//
//	psi      g + G*(o + O*i)
//	augments PsiSize() + g + G*(o + O*b), present only with reflection
//	phi      g + G*(m + M*i)
//	SUPG phi g + G*(m + M*(d + DM*i))
type Discretization struct {
	Spatial       *spatial.Discretization
	Angular       *discretization.Angular
	Energy        *discretization.Energy
	HasReflection bool
	reflected     [][]int // [plane][o]
}

func NewDiscretization(sd *spatial.Discretization, angular *discretization.Angular,
	energy *discretization.Energy) (td *Discretization, err error) {
	if !sd.Integrated() {
		err = fmt.Errorf("spatial discretization must be integrated before transport")
		return
	}
	if angular.Dimension != sd.Dimension {
		err = fmt.Errorf("angular set is %dD, space is %dD", angular.Dimension, sd.Dimension)
		return
	}
	if energy.NumberOfGroups() != sd.Groups {
		err = fmt.Errorf("energy has %d groups, materials have %d", energy.NumberOfGroups(), sd.Groups)
		return
	}
	td = &Discretization{
		Spatial:       sd,
		Angular:       angular,
		Energy:        energy,
		HasReflection: sd.Solid.HasReflection(),
	}
	var (
		O = angular.NumberOfOrdinates()
		G = energy.NumberOfGroups()
	)
	for s, src := range sd.Solid.Sources {
		if err = src.Validate(G, O); err != nil {
			err = fmt.Errorf("boundary source %d: %w", s, err)
			return
		}
	}
	if td.HasReflection {
		td.reflected = make([][]int, len(sd.Solid.Planes))
		for p, plane := range sd.Solid.Planes {
			td.reflected[p] = make([]int, O)
			for o := 0; o < O; o++ {
				if td.reflected[p][o], err = angular.ReflectOrdinate(o, plane.NormalVector()); err != nil {
					return
				}
			}
		}
	}
	return
}

func (td *Discretization) NumberOfPoints() int    { return td.Spatial.NumberOfPoints() }
func (td *Discretization) NumberOfOrdinates() int { return td.Angular.NumberOfOrdinates() }
func (td *Discretization) NumberOfGroups() int    { return td.Energy.NumberOfGroups() }
func (td *Discretization) NumberOfMoments() int   { return td.Angular.NumberOfMoments() }

func (td *Discretization) PsiSize() int {
	return td.NumberOfPoints() * td.NumberOfOrdinates() * td.NumberOfGroups()
}

func (td *Discretization) PhiSize() int {
	return td.NumberOfPoints() * td.NumberOfMoments() * td.NumberOfGroups()
}

// SUPGPhiSize is the size of a moment vector carrying dimensional moments
func (td *Discretization) SUPGPhiSize() int {
	return td.PhiSize() * td.Spatial.NumberOfDimensionalMoments()
}

func (td *Discretization) NumberOfAugments() int {
	if !td.HasReflection {
		return 0
	}
	return td.Spatial.NumberOfBoundaryPoints() * td.NumberOfOrdinates() * td.NumberOfGroups()
}

func (td *Discretization) PsiIndex(i, o, g int) int {
	G, O := td.NumberOfGroups(), td.NumberOfOrdinates()
	return g + G*(o+O*i)
}

func (td *Discretization) AugmentIndex(b, o, g int) int {
	G, O := td.NumberOfGroups(), td.NumberOfOrdinates()
	return td.PsiSize() + g + G*(o+O*b)
}

func (td *Discretization) PhiIndex(i, m, g int) int {
	G, M := td.NumberOfGroups(), td.NumberOfMoments()
	return g + G*(m+M*i)
}

// ReflectedOrdinate is the ordinate reflected about a boundary plane
func (td *Discretization) ReflectedOrdinate(plane, o int) int {
	return td.reflected[plane][o]
}
