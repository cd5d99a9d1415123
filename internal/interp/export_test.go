package interp

import "gonum.org/v1/gonum/spatial/r2"

func toVecs(points []Point) []r2.Vec {
	out := make([]r2.Vec, len(points))
	for i, p := range points {
		out[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	return out
}
