// Package gp implements zero-mean Gaussian Process regression over 2D
// locations on top of gonum's Cholesky factorisation.
package gp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/gpinterp/internal/monitoring"
)

const (
	// DefaultLengthScale is the RBF length scale used when none is configured.
	DefaultLengthScale = 1.0
	// DefaultAlpha is the diagonal noise added to the training covariance. It
	// keeps K+αI invertible when samples share a location.
	DefaultAlpha = 1e-6
)

var (
	ErrNoSamples           = errors.New("gp: no training samples")
	ErrShape               = errors.New("gp: locations and targets differ in length")
	ErrNonFinite           = errors.New("gp: non-finite training data")
	ErrNotPositiveDefinite = errors.New("gp: covariance matrix is not positive definite")
	ErrNotFitted           = errors.New("gp: regressor has not been fitted")
)

var logger = monitoring.For("gp")

// Regressor is a Gaussian Process regressor with a fixed kernel. A Regressor
// is not safe for concurrent Fit calls; create one per request.
type Regressor struct {
	kernel Kernel
	alpha  float64

	x       []r2.Vec
	y       []float64
	chol    mat.Cholesky
	weights *mat.VecDense // (K + αI)⁻¹ y
	lower   *mat.TriDense
	fitted  bool
}

// NewRegressor returns an unfitted regressor. alpha is added to the diagonal
// of the training covariance.
func NewRegressor(kernel Kernel, alpha float64) *Regressor {
	return &Regressor{kernel: kernel, alpha: alpha}
}

// Fit conditions the process on the samples y observed at x.
func (g *Regressor) Fit(x []r2.Vec, y []float64) error {
	g.fitted = false
	if len(x) == 0 {
		return ErrNoSamples
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d locations, %d targets", ErrShape, len(x), len(y))
	}
	for i, p := range x {
		if !isFinite(p.X) || !isFinite(p.Y) || !isFinite(y[i]) {
			return fmt.Errorf("%w: sample %d is (%g, %g, %g)", ErrNonFinite, i, p.X, p.Y, y[i])
		}
	}

	n := len(x)
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := g.kernel.Cov(x[i], x[j])
			if i == j {
				v += g.alpha
			}
			k.SetSym(i, j, v)
		}
	}

	if ok := g.chol.Factorize(k); !ok {
		return fmt.Errorf("%w (n=%d, alpha=%g)", ErrNotPositiveDefinite, n, g.alpha)
	}

	g.weights = mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(g.weights, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		if err := conditionOnly(err); err != nil {
			return fmt.Errorf("gp: solving for weights: %w", err)
		}
	}

	g.lower = mat.NewTriDense(n, mat.Lower, nil)
	g.chol.LTo(g.lower)

	g.x = append(g.x[:0], x...)
	g.y = append(g.y[:0], y...)
	g.fitted = true
	return nil
}

// Predict returns the posterior mean and standard deviation at each query
// location. Posterior variance that rounds below zero is clipped to zero.
func (g *Regressor) Predict(q []r2.Vec) (mean, std []float64, err error) {
	if !g.fitted {
		return nil, nil, ErrNotFitted
	}
	m := len(q)
	if m == 0 {
		return []float64{}, []float64{}, nil
	}

	n := len(g.x)
	cross := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			cross.Set(i, j, g.kernel.Cov(g.x[i], q[j]))
		}
	}

	var mu mat.VecDense
	mu.MulVec(cross.T(), g.weights)

	// v = L⁻¹ K*, var = k** - Σᵢ vᵢⱼ²
	var v mat.Dense
	if err := g.lower.SolveTo(&v, false, cross); err != nil {
		if err := conditionOnly(err); err != nil {
			return nil, nil, fmt.Errorf("gp: solving predictive variance: %w", err)
		}
	}

	mean = make([]float64, m)
	std = make([]float64, m)
	col := make([]float64, n)
	for j := 0; j < m; j++ {
		mean[j] = mu.AtVec(j)
		mat.Col(col, j, &v)
		variance := g.kernel.Diag(q[j]) - floats.Dot(col, col)
		if variance < 0 {
			variance = 0
		}
		std[j] = math.Sqrt(variance)
	}
	return mean, std, nil
}

// LogMarginalLikelihood returns log p(y | X, θ) of the fitted data.
func (g *Regressor) LogMarginalLikelihood() (float64, error) {
	if !g.fitted {
		return 0, ErrNotFitted
	}
	n := float64(len(g.y))
	dataFit := floats.Dot(g.y, g.weights.RawVector().Data)
	return -0.5*dataFit - 0.5*g.chol.LogDet() - 0.5*n*math.Log(2*math.Pi), nil
}

// conditionOnly swallows gonum's ill-conditioning warning. The solution is
// still written when a mat.Condition is returned.
func conditionOnly(err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		logger.Printf("ill-conditioned covariance (cond=%g), continuing", float64(cond))
		return nil
	}
	return err
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
