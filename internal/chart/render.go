package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	pngWidth  = 20 * vg.Centimeter
	pngHeight = 12 * vg.Centimeter
)

// RenderPNG draws f with gonum/plot and writes a PNG image to w. Box traces,
// heatmap traces and scatter outlines are supported; placeholder figures are
// drawn as centred text.
func RenderPNG(w io.Writer, f *Figure) error {
	p := plot.New()
	p.Title.Text = f.Layout.Title
	p.X.Label.Text = f.Layout.XAxis.Title
	p.Y.Label.Text = f.Layout.YAxis.Title

	if f.IsPlaceholder() {
		if err := addText(p, f.PlaceholderText()); err != nil {
			return err
		}
		p.HideAxes()
	} else {
		var names []string
		for _, t := range f.Data {
			var err error
			switch t.Type {
			case "box":
				err = addBox(p, t, len(names))
				names = append(names, t.Name)
			case "heatmap":
				err = addHeatMap(p, t)
			case "scatter", "scattergl":
				err = addOutline(p, t)
			default:
				err = fmt.Errorf("unsupported trace type %q", t.Type)
			}
			if err != nil {
				return fmt.Errorf("failed to draw %s trace: %w", t.Type, err)
			}
		}
		if len(names) > 0 {
			p.NominalX(names...)
		}
	}

	wt, err := p.WriterTo(pngWidth, pngHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

func addText(p *plot.Plot, text string) error {
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
		Labels: []string{text},
	})
	if err != nil {
		return fmt.Errorf("failed to create label: %w", err)
	}
	p.Add(labels)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return nil
}

func addBox(p *plot.Plot, t Trace, pos int) error {
	vals := make(plotter.Values, 0, len(t.Y))
	for _, v := range t.Y {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	box, err := plotter.NewBoxPlot(vg.Points(20), float64(pos), vals)
	if err != nil {
		return err
	}
	if t.Marker != nil {
		if c, ok := parseHex(t.Marker.Color); ok {
			box.FillColor = c
		}
	}
	p.Add(box)
	return nil
}

// heatGrid adapts a heatmap trace to plotter.GridXYZ.
type heatGrid struct {
	x, y     []float64
	z        [][]float64
	min, max float64
}

func (g heatGrid) Dims() (c, r int)   { return len(g.x), len(g.y) }
func (g heatGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g heatGrid) X(c int) float64    { return g.x[c] }
func (g heatGrid) Y(r int) float64    { return g.y[r] }
func (g heatGrid) Min() float64       { return g.min }
func (g heatGrid) Max() float64       { return g.max }

func addHeatMap(p *plot.Plot, t Trace) error {
	if len(t.X) < 2 || len(t.Y) < 2 {
		return fmt.Errorf("heatmap needs at least a 2x2 grid")
	}
	if len(t.Z) != len(t.Y) {
		return fmt.Errorf("heatmap has %d rows for %d y values", len(t.Z), len(t.Y))
	}
	g := heatGrid{x: t.X, y: t.Y, z: t.Z, min: math.Inf(1), max: math.Inf(-1)}
	for _, row := range t.Z {
		if len(row) != len(t.X) {
			return fmt.Errorf("heatmap row has %d values for %d x values", len(row), len(t.X))
		}
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			g.min = math.Min(g.min, v)
			g.max = math.Max(g.max, v)
		}
	}
	if math.IsInf(g.min, 1) {
		// Nothing but missing cells.
		return nil
	}
	if g.max == g.min {
		g.max = g.min + 1
	}
	hm := plotter.NewHeatMap(g, palette.Heat(12, 1))
	hm.NaN = color.Transparent
	p.Add(hm)
	return nil
}

// addOutline draws a NaN-separated polyline as one line per ring.
func addOutline(p *plot.Plot, t Trace) error {
	n := len(t.X)
	if len(t.Y) < n {
		n = len(t.Y)
	}
	var ring plotter.XYs
	flush := func() error {
		if len(ring) < 2 {
			ring = ring[:0]
			return nil
		}
		l, err := plotter.NewLine(ring)
		if err != nil {
			return err
		}
		l.Color = color.Black
		l.Width = vg.Points(0.5)
		p.Add(l)
		ring = nil
		return nil
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(t.X[i]) || math.IsNaN(t.Y[i]) {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		ring = append(ring, plotter.XY{X: t.X[i], Y: t.Y[i]})
	}
	return flush()
}

func parseHex(s string) (color.RGBA, bool) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}
