package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gpinterp/internal/interp"
)

// AssetsHost serves the echarts JavaScript referenced by rendered pages.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// WriteChart renders one layer of g as a self-contained HTML heat map.
func WriteChart(w io.Writer, g *interp.Grid, layer Layer) error {
	data, err := newGridXYZ(g, layer)
	if err != nil {
		return err
	}
	cols, rows := data.Dims()

	xLabels := axisLabels(g.XGrid)
	yLabels := axisLabels(g.YGrid)

	cells := make([]opts.HeatMapData, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells = append(cells, opts.HeatMapData{Value: [3]interface{}{c, r, data.Z(c, r)}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "GP Interpolation", Width: "900px", Height: "800px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: layer.title(), Subtitle: fmt.Sprintf("grid=%d×%d", rows, cols)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "x", Data: xLabels, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "y", Data: yLabels, SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(data.Min()),
			Max:        float32(data.Max()),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(xLabels).AddSeries(string(layer), cells)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("render: chart: %w", err)
	}
	return nil
}

func axisLabels(axis []float64) []string {
	out := make([]string, len(axis))
	for i, v := range axis {
		out[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return out
}
