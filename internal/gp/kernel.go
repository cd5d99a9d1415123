package gp

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kernel is a covariance function over 2D locations.
type Kernel interface {
	// Cov returns the covariance between a and b.
	Cov(a, b r2.Vec) float64
	// Diag returns the prior variance at a, i.e. Cov(a, a).
	Diag(a r2.Vec) float64
}

// RBF is the isotropic squared-exponential (radial basis) kernel
//
//	k(a, b) = exp(-|a-b|² / 2ℓ²)
//
// with unit signal variance.
type RBF struct {
	LengthScale float64
}

// Cov implements Kernel.
func (k RBF) Cov(a, b r2.Vec) float64 {
	d2 := r2.Norm2(r2.Sub(a, b))
	return math.Exp(-0.5 * d2 / (k.LengthScale * k.LengthScale))
}

// Diag implements Kernel.
func (RBF) Diag(r2.Vec) float64 { return 1 }
