package gp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r2"
)

// Length-scale search bounds, matching the usual RBF hyperparameter box.
const (
	MinLengthScale = 1e-5
	MaxLengthScale = 1e5
)

// OptimizeLengthScale searches for the RBF length scale that maximises the
// log marginal likelihood of y at x. The search runs Nelder-Mead over log ℓ,
// clamped to [MinLengthScale, MaxLengthScale], starting from init.
//
// On failure it returns init together with the error so callers can fall
// back to the fixed length scale.
func OptimizeLengthScale(x []r2.Vec, y []float64, alpha, init float64) (float64, error) {
	if len(x) == 0 {
		return init, ErrNoSamples
	}
	if !(init > 0) {
		return init, fmt.Errorf("gp: initial length scale must be positive, got %g", init)
	}

	lo, hi := math.Log(MinLengthScale), math.Log(MaxLengthScale)
	clamp := func(theta float64) float64 {
		return math.Max(lo, math.Min(hi, theta))
	}

	g := NewRegressor(RBF{}, alpha)
	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			g.kernel = RBF{LengthScale: math.Exp(clamp(theta[0]))}
			if err := g.Fit(x, y); err != nil {
				return math.Inf(1)
			}
			lml, err := g.LogMarginalLikelihood()
			if err != nil {
				return math.Inf(1)
			}
			return -lml
		},
	}

	settings := &optimize.Settings{
		MajorIterations: 200,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-8,
			Iterations: 20,
		},
	}
	result, err := optimize.Minimize(problem, []float64{math.Log(init)}, settings, &optimize.NelderMead{SimplexSize: 1})
	if err != nil {
		return init, fmt.Errorf("gp: length scale search: %w", err)
	}
	if math.IsInf(result.F, 1) || math.IsNaN(result.F) {
		return init, fmt.Errorf("gp: length scale search found no feasible point")
	}

	best := math.Exp(clamp(result.X[0]))
	logger.Printf("length scale %.4g -> %.4g (lml=%.4g, %d evaluations, %v)",
		init, best, -result.F, result.FuncEvaluations, result.Status)
	return best, nil
}
