package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gpinterp/internal/interp"
)

// PNG image size.
const (
	PNGWidth  = 6 * vg.Inch
	PNGHeight = 5 * vg.Inch

	paletteSize = 255
)

func layerPalette(layer Layer) palette.Palette {
	if layer == LayerUncertainty {
		return moreland.Kindlmann().Palette(paletteSize)
	}
	return moreland.SmoothBlueRed().Palette(paletteSize)
}

// WritePNG draws one layer of g as a heat map and writes the PNG to w.
func WritePNG(w io.Writer, g *interp.Grid, layer Layer) error {
	data, err := newGridXYZ(g, layer)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = layer.title()
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	hm := plotter.NewHeatMap(data, layerPalette(layer))
	hm.Rasterized = true
	p.Add(hm)

	wt, err := p.WriterTo(PNGWidth, PNGHeight, "png")
	if err != nil {
		return fmt.Errorf("render: creating png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render: writing png: %w", err)
	}
	return nil
}
