package geometry

import (
	"fmt"
)

// BoundarySource describes what enters the domain through a boundary plane:
// the specular reflection coefficient per group and a prescribed incoming
// angular flux indexed by g + G*o
type BoundarySource struct {
	Index int
	Alpha []float64
	Data  []float64
}

func NewVacuumSource(index, groups, ordinates int) BoundarySource {
	return BoundarySource{
		Index: index,
		Alpha: make([]float64, groups),
		Data:  make([]float64, groups*ordinates),
	}
}

func NewReflectiveSource(index, groups, ordinates int) (bs BoundarySource) {
	bs = NewVacuumSource(index, groups, ordinates)
	for g := range bs.Alpha {
		bs.Alpha[g] = 1
	}
	return
}

func (bs BoundarySource) HasReflection() bool {
	for _, a := range bs.Alpha {
		if a != 0 {
			return true
		}
	}
	return false
}

func (bs BoundarySource) Validate(groups, ordinates int) error {
	if len(bs.Alpha) != groups {
		return fmt.Errorf("boundary source %d: %d alpha values for %d groups", bs.Index, len(bs.Alpha), groups)
	}
	if len(bs.Data) != groups*ordinates {
		return fmt.Errorf("boundary source %d: %d data values, expected %d groups x %d ordinates",
			bs.Index, len(bs.Data), groups, ordinates)
	}
	for g, a := range bs.Alpha {
		if a < 0 || a > 1 {
			return fmt.Errorf("boundary source %d: alpha[%d] = %g outside [0,1]", bs.Index, g, a)
		}
	}
	return nil
}
