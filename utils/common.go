package utils

const (
	NODETOL = 1.e-12
	// Distances closer than this to a boundary plane are on the plane
	BOUNDARYTOL = 100 * 2.220446049250313e-16
)

type PointType uint8

const (
	Interior PointType = iota
	Boundary
)

func (pt PointType) String() string {
	switch pt {
	case Interior:
		return "INTERIOR"
	case Boundary:
		return "BOUNDARY"
	}
	return "UNKNOWN"
}
