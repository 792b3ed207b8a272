package discretization

import "fmt"

type Energy struct {
	Groups int
}

func NewEnergy(groups int) (e *Energy, err error) {
	if groups < 1 {
		err = fmt.Errorf("need at least one energy group, got %d", groups)
		return
	}
	return &Energy{Groups: groups}, nil
}

func (e *Energy) NumberOfGroups() int { return e.Groups }
