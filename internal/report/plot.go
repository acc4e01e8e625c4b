package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
)

// PlotProfile draws the closed (z, r) outline of every calculator and
// writes it as a PNG image.
func PlotProfile(w io.Writer, calcs []*wheel.Calculator) error {
	p := plot.New()
	p.Title.Text = "EMEC wheel profiles"
	p.X.Label.Text = "z (mm)"
	p.Y.Label.Text = "r (mm)"
	p.Add(plotter.NewGrid())

	for i, c := range calcs {
		outline := c.Profile()
		pts := make(plotter.XYs, 0, len(outline)+1)
		for _, v := range outline {
			pts = append(pts, plotter.XY{X: v.X, Y: v.Y})
		}
		if len(outline) > 0 {
			pts = append(pts, plotter.XY{X: outline[0].X, Y: outline[0].Y})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("profile of %s: %w", c.RequestedType(), err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(c.RequestedType().String(), line)
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
