package meshless

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gomeshless/utils"
)

// RBF is a radial function of a scaled distance r >= 0
type RBF interface {
	Value(r float64) float64
	D(r float64) float64  // first derivative in r
	DD(r float64) float64 // second derivative in r
	Radius() float64      // scaled distance beyond which the function is zero
	Name() string
}

// TruncatedGaussian is exp(-r^2), cut off at R
type TruncatedGaussian struct {
	R float64
}

func (tg TruncatedGaussian) Value(r float64) float64 {
	if r >= tg.R {
		return 0
	}
	return math.Exp(-r * r)
}

func (tg TruncatedGaussian) D(r float64) float64 {
	if r >= tg.R {
		return 0
	}
	return -2 * r * math.Exp(-r*r)
}

func (tg TruncatedGaussian) DD(r float64) float64 {
	if r >= tg.R {
		return 0
	}
	return (4*r*r - 2) * math.Exp(-r*r)
}

func (tg TruncatedGaussian) Radius() float64 { return tg.R }
func (tg TruncatedGaussian) Name() string    { return "truncated_gaussian" }

// CompactGaussian is a Gaussian shifted and rescaled to reach zero
// continuously at R while keeping unit value at the center
type CompactGaussian struct {
	R, k1, k2 float64
}

func NewCompactGaussian(R float64) CompactGaussian {
	k1 := math.Exp(-R * R)
	return CompactGaussian{R: R, k1: k1, k2: 1 / (1 - k1)}
}

func (cg CompactGaussian) Value(r float64) float64 {
	if r >= cg.R {
		return 0
	}
	return (math.Exp(-r*r) - cg.k1) * cg.k2
}

func (cg CompactGaussian) D(r float64) float64 {
	if r >= cg.R {
		return 0
	}
	return -2 * r * math.Exp(-r*r) * cg.k2
}

func (cg CompactGaussian) DD(r float64) float64 {
	if r >= cg.R {
		return 0
	}
	return (4*r*r - 2) * math.Exp(-r*r) * cg.k2
}

func (cg CompactGaussian) Radius() float64 { return cg.R }
func (cg CompactGaussian) Name() string    { return "compact_gaussian" }

// Wendland is the C2 Wendland function (1-r)^4 (4r+1) on r < 1
type Wendland struct{}

func (Wendland) Value(r float64) float64 {
	if r >= 1 {
		return 0
	}
	return utils.POW(1-r, 4) * (4*r + 1)
}

func (Wendland) D(r float64) float64 {
	if r >= 1 {
		return 0
	}
	return -20 * r * utils.POW(1-r, 3)
}

func (Wendland) DD(r float64) float64 {
	if r >= 1 {
		return 0
	}
	return 20 * utils.POW(1-r, 2) * (4*r - 1)
}

func (Wendland) Radius() float64 { return 1 }
func (Wendland) Name() string    { return "wendland" }

func NewRBF(name string) (rbf RBF, err error) {
	switch strings.ToLower(name) {
	case "truncated_gaussian", "gaussian":
		rbf = TruncatedGaussian{R: 5}
	case "compact_gaussian":
		rbf = NewCompactGaussian(5)
	case "wendland", "":
		rbf = Wendland{}
	default:
		err = fmt.Errorf("unknown radial basis function %q", name)
	}
	return
}
