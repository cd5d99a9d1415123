// Package render draws interpolation grids as PNG images (gonum/plot) and
// interactive HTML heat maps (go-echarts).
package render

import (
	"fmt"
	"math"

	"github.com/banshee-data/gpinterp/internal/interp"
)

// Layer selects which matrix of a Grid is drawn.
type Layer string

const (
	LayerPredictions Layer = "predictions"
	LayerUncertainty Layer = "uncertainty"
)

// ParseLayer maps a query value to a Layer. The empty string selects
// predictions.
func ParseLayer(s string) (Layer, error) {
	switch Layer(s) {
	case "", LayerPredictions:
		return LayerPredictions, nil
	case LayerUncertainty:
		return LayerUncertainty, nil
	default:
		return "", fmt.Errorf("unknown layer %q (want %q or %q)", s, LayerPredictions, LayerUncertainty)
	}
}

func (l Layer) title() string {
	if l == LayerUncertainty {
		return "GP uncertainty (std)"
	}
	return "GP prediction (mean)"
}

func (l Layer) values(g *interp.Grid) [][]float64 {
	if l == LayerUncertainty {
		return g.Uncertainty
	}
	return g.Predictions
}

// gridXYZ adapts one layer of a Grid to plotter.GridXYZ. Columns follow
// XGrid and rows follow YGrid.
type gridXYZ struct {
	g  *interp.Grid
	z  [][]float64
	lo float64
	hi float64
}

func newGridXYZ(g *interp.Grid, layer Layer) (*gridXYZ, error) {
	rows, cols := g.Shape()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("render: grid too small (%d×%d)", rows, cols)
	}
	z := layer.values(g)
	if len(z) != rows {
		return nil, fmt.Errorf("render: %s has %d rows, want %d", layer, len(z), rows)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for r, row := range z {
		if len(row) != cols {
			return nil, fmt.Errorf("render: %s row %d has %d cols, want %d", layer, r, len(row), cols)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if lo > hi {
		return nil, fmt.Errorf("render: %s has no finite values", layer)
	}
	// A flat field still needs a non-empty colour range.
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return &gridXYZ{g: g, z: z, lo: lo, hi: hi}, nil
}

func (g *gridXYZ) Dims() (c, r int)   { return len(g.g.XGrid), len(g.g.YGrid) }
func (g *gridXYZ) Z(c, r int) float64 { return g.z[r][c] }
func (g *gridXYZ) X(c int) float64    { return g.g.XGrid[c] }
func (g *gridXYZ) Y(r int) float64    { return g.g.YGrid[r] }
func (g *gridXYZ) Min() float64       { return g.lo }
func (g *gridXYZ) Max() float64       { return g.hi }
