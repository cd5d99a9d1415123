package render

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gpinterp/internal/interp"
)

func sampleGrid(t *testing.T) *interp.Grid {
	t.Helper()
	opts := interp.DefaultOptions()
	opts.GridSize = 12
	g, err := interp.Interpolate([]interp.Point{
		{X: 0, Y: 0, Value: 1},
		{X: 1, Y: 1, Value: -1},
	}, opts)
	require.NoError(t, err)
	return g
}

func TestParseLayer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Layer
		wantErr bool
	}{
		{"", LayerPredictions, false},
		{"predictions", LayerPredictions, false},
		{"uncertainty", LayerUncertainty, false},
		{"variance", "", true},
		{"Predictions", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLayer(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseLayer(%q)", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestGridXYZ(t *testing.T) {
	t.Parallel()

	g := &interp.Grid{
		XGrid:       []float64{0, 1, 2},
		YGrid:       []float64{10, 20},
		Predictions: [][]float64{{1, 2, 3}, {4, 5, 6}},
		Uncertainty: [][]float64{{0.1, 0.1, 0.1}, {0.1, 0.1, 0.1}},
	}

	xyz, err := newGridXYZ(g, LayerPredictions)
	require.NoError(t, err)
	c, r := xyz.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 6.0, xyz.Z(2, 1))
	assert.Equal(t, 2.0, xyz.Z(1, 0))
	assert.Equal(t, 2.0, xyz.X(2))
	assert.Equal(t, 20.0, xyz.Y(1))
	assert.Equal(t, 1.0, xyz.Min())
	assert.Equal(t, 6.0, xyz.Max())

	flat, err := newGridXYZ(g, LayerUncertainty)
	require.NoError(t, err)
	assert.Less(t, flat.Min(), flat.Max())
}

func TestGridXYZ_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		g    *interp.Grid
	}{
		{"too small", &interp.Grid{XGrid: []float64{0}, YGrid: []float64{0}, Predictions: [][]float64{{0}}}},
		{"ragged", &interp.Grid{XGrid: []float64{0, 1}, YGrid: []float64{0, 1}, Predictions: [][]float64{{0, 1}, {0}}}},
		{"missing rows", &interp.Grid{XGrid: []float64{0, 1}, YGrid: []float64{0, 1}, Predictions: [][]float64{{0, 1}}}},
		{"all NaN", &interp.Grid{XGrid: []float64{0, 1}, YGrid: []float64{0, 1}, Predictions: [][]float64{{math.NaN(), math.NaN()}, {math.NaN(), math.NaN()}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGridXYZ(tt.g, LayerPredictions)
			assert.Error(t, err)
		})
	}
}

func TestWritePNG(t *testing.T) {
	t.Parallel()

	for _, layer := range []Layer{LayerPredictions, LayerUncertainty} {
		t.Run(string(layer), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePNG(&buf, sampleGrid(t), layer))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Positive(t, img.Bounds().Dx())
			assert.Positive(t, img.Bounds().Dy())
		})
	}
}

func TestWritePNG_DefaultGrid(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, interp.DefaultGrid(), LayerPredictions))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestWriteChart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, sampleGrid(t), LayerUncertainty))

	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "expected an HTML document")
	assert.Contains(t, html, "GP Interpolation")
	assert.Contains(t, html, "heatmap")
	assert.Contains(t, html, AssetsHost)
}

func TestAxisLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"-1.000", "0.500", "2.000"}, axisLabels([]float64{-1, 0.5, 2}))
}
