package utils

import (
	"math"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

func POW(x float64, pp int) (y float64) {
	var (
		p       = pp
		flipped bool
	)
	if pp > 8 || pp < -8 {
		goto MATHPOW
	}

	if p < 0 {
		p = -pp
		flipped = true
	}
	switch p {
	case 0:
		y = 1
	case 1:
		y = x
	case 2:
		y = x * x
	case 3:
		y = x * x * x
	case 4:
		y = x * x
		y = y * y
	case 5:
		y = x * x
		y = y * y * x
	case 6:
		y = x * x
		y = y * y * y
	case 7:
		y = x * x
		y = y * y * y * x
	case 8:
		y = x * x
		y = y * y * y * y
	}
	if flipped {
		y = 1. / y
	}
	return

MATHPOW:
	y = math.Pow(x, float64(p))
	return
}

// Distance is the Cartesian distance between two positions of equal dimension
func Distance(a, b []float64) (d float64) {
	for i := range a {
		d += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(d)
}

// BoxDistance is the distance from a position to the closest point of an
// axis aligned box given by per-dimension [min, max] limits
func BoxDistance(position []float64, limits [][2]float64) (d float64) {
	for i, x := range position {
		switch {
		case x < limits[i][0]:
			d += (limits[i][0] - x) * (limits[i][0] - x)
		case x > limits[i][1]:
			d += (x - limits[i][1]) * (x - limits[i][1])
		}
	}
	return math.Sqrt(d)
}

// Linspace returns N equally spaced values spanning [x0, x1] inclusive
func Linspace(x0, x1 float64, N int) (v []float64) {
	v = make([]float64, N)
	if N == 1 {
		v[0] = x0
		return
	}
	dx := (x1 - x0) / float64(N-1)
	for i := range v {
		v[i] = x0 + float64(i)*dx
	}
	v[N-1] = x1
	return
}
