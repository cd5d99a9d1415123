// Package interp turns scattered (x, y, value) samples into a regular grid of
// Gaussian Process predictions and uncertainties.
package interp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/gpinterp/internal/gp"
	"github.com/banshee-data/gpinterp/internal/monitoring"
)

// Default grid returned when no samples are supplied.
const (
	DefaultGridMin         = -5.0
	DefaultGridMax         = 5.0
	DefaultGridPoints      = 20
	DefaultGridUncertainty = 0.5

	// GridPadding extends the sample bounding box on every side.
	GridPadding = 1.0
)

var logger = monitoring.For("interp")

// Point is one observed sample.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
}

// ErrIncompletePoint reports a sample without a numeric x, y or value.
var ErrIncompletePoint = errors.New("point requires numeric x, y and value")

var pointKeys = [3]string{"x", "y", "value"}

// UnmarshalJSON requires all three keys, spelled exactly, with non-null
// numbers. Other keys are ignored.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var vals [3]float64
	for i, key := range pointKeys {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("%w: missing %q", ErrIncompletePoint, key)
		}
		if err := json.Unmarshal(v, &vals[i]); err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrIncompletePoint, key)
		}
	}
	*p = Point{X: vals[0], Y: vals[1], Value: vals[2]}
	return nil
}

// Grid holds predictions on a regular lattice. Predictions[row][col] and
// Uncertainty[row][col] belong to (XGrid[col], YGrid[row]).
type Grid struct {
	XGrid       []float64   `json:"x_grid"`
	YGrid       []float64   `json:"y_grid"`
	Predictions [][]float64 `json:"predictions"`
	Uncertainty [][]float64 `json:"uncertainty"`
}

// Shape returns the matrix dimensions, len(YGrid) × len(XGrid).
func (g *Grid) Shape() (rows, cols int) {
	return len(g.YGrid), len(g.XGrid)
}

// Nearest returns the indices of the grid cell closest to (x, y).
func (g *Grid) Nearest(x, y float64) (row, col int) {
	return nearestIndex(g.YGrid, y), nearestIndex(g.XGrid, x)
}

// nearestIndex assumes axis is sorted ascending.
func nearestIndex(axis []float64, v float64) int {
	i := sort.SearchFloat64s(axis, v)
	switch {
	case i == 0:
		return 0
	case i == len(axis):
		return len(axis) - 1
	case v-axis[i-1] <= axis[i]-v:
		return i - 1
	default:
		return i
	}
}

// Options tunes the interpolation. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	GridSize            int
	LengthScale         float64
	Alpha               float64
	OptimizeLengthScale bool
}

// DefaultOptions returns a 50×50 grid with an RBF(1.0) kernel and α = 1e-6.
func DefaultOptions() Options {
	return Options{
		GridSize:    50,
		LengthScale: gp.DefaultLengthScale,
		Alpha:       gp.DefaultAlpha,
	}
}

// DefaultGrid is the response for an empty sample set: a 20×20 lattice over
// [-5, 5]² with zero predictions and a flat 0.5 uncertainty.
func DefaultGrid() *Grid {
	axis := floats.Span(make([]float64, DefaultGridPoints), DefaultGridMin, DefaultGridMax)
	return &Grid{
		XGrid:       axis,
		YGrid:       append([]float64(nil), axis...),
		Predictions: filled(DefaultGridPoints, DefaultGridPoints, 0),
		Uncertainty: filled(DefaultGridPoints, DefaultGridPoints, DefaultGridUncertainty),
	}
}

// Interpolate fits a GP to points and evaluates it on a GridSize × GridSize
// lattice spanning the padded bounding box of the samples.
func Interpolate(points []Point, opts Options) (*Grid, error) {
	if len(points) == 0 {
		return DefaultGrid(), nil
	}
	if opts.GridSize < 2 {
		return nil, fmt.Errorf("interp: grid size must be at least 2, got %d", opts.GridSize)
	}

	x := make([]r2.Vec, len(points))
	y := make([]float64, len(points))
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		x[i] = r2.Vec{X: p.X, Y: p.Y}
		y[i] = p.Value
		xs[i], ys[i] = p.X, p.Y
	}

	lengthScale := opts.LengthScale
	if opts.OptimizeLengthScale {
		best, err := gp.OptimizeLengthScale(x, y, opts.Alpha, lengthScale)
		if err != nil {
			logger.Printf("length scale search failed, keeping %g: %v", lengthScale, err)
		} else {
			lengthScale = best
		}
	}

	reg := gp.NewRegressor(gp.RBF{LengthScale: lengthScale}, opts.Alpha)
	if err := reg.Fit(x, y); err != nil {
		return nil, fmt.Errorf("interp: fitting %d samples: %w", len(points), err)
	}

	n := opts.GridSize
	xGrid := floats.Span(make([]float64, n), floats.Min(xs)-GridPadding, floats.Max(xs)+GridPadding)
	yGrid := floats.Span(make([]float64, n), floats.Min(ys)-GridPadding, floats.Max(ys)+GridPadding)

	// Mesh order: y slowest, x fastest, so flat index = row*n + col.
	query := make([]r2.Vec, 0, n*n)
	for _, gy := range yGrid {
		for _, gx := range xGrid {
			query = append(query, r2.Vec{X: gx, Y: gy})
		}
	}

	mean, std, err := reg.Predict(query)
	if err != nil {
		return nil, fmt.Errorf("interp: predicting %d grid cells: %w", len(query), err)
	}
	for i := range mean {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) {
			return nil, fmt.Errorf("interp: prediction at cell %d is NaN", i)
		}
	}

	return &Grid{
		XGrid:       xGrid,
		YGrid:       yGrid,
		Predictions: reshape(mean, n, n),
		Uncertainty: reshape(std, n, n),
	}, nil
}

func reshape(flat []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		out[r] = flat[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return out
}

func filled(rows, cols int, v float64) [][]float64 {
	flat := make([]float64, rows*cols)
	if v != 0 {
		for i := range flat {
			flat[i] = v
		}
	}
	return reshape(flat, rows, cols)
}
