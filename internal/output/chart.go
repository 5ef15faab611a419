package output

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"SkytechIndex/internal/model"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	bgColor       = hexColor("#0b1420")
	titleColor    = hexColor("#d9f0ff")
	tickColor     = hexColor("#cfe6f3")
	spineColor    = hexColor("#223447")
	gridColor     = color.NRGBA{R: 0x4b, G: 0x5b, B: 0x6b, A: 38}
	intradayColor = hexColor("#8ce7e7")
	levelColor    = hexColor("#93c5fd")
	upColor       = hexColor("#34d399")
	downColor     = hexColor("#fb7185")
)

func hexColor(s string) color.NRGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		panic(fmt.Sprintf("bad color %q", s))
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// newDarkPlot returns a plot styled with the dark theme.
func newDarkPlot(title, timeFormat string, loc *time.Location) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = bgColor
	p.Title.Text = title
	p.Title.TextStyle.Color = titleColor
	p.Title.Padding = vg.Points(10)
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = spineColor
		ax.Label.TextStyle.Color = tickColor
		ax.Tick.Label.Color = tickColor
		ax.Tick.LineStyle.Color = spineColor
	}
	p.X.Tick.Marker = plot.TimeTicks{Format: timeFormat, Time: plot.UnixTimeIn(loc)}

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)
	return p
}

func renderPNG(p *plot.Plot, w, h vg.Length, dpi int) ([]byte, error) {
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func intradayChart(points []model.PctPoint, title string, loc *time.Location) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points")
	}
	p := newDarkPlot(title, "15:04", loc)
	p.Y.Label.Text = "Change vs Open (%)"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Time.Unix())
		xys[i].Y = pt.Pct
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2.2)
	line.LineStyle.Color = intradayColor

	// zero reference line tinted by the sign of the latest change
	zeroColor := upColor
	if points[len(points)-1].Pct < 0 {
		zeroColor = downColor
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: xys[0].X, Y: 0}, {X: xys[len(xys)-1].X, Y: 0}})
	if err != nil {
		return nil, err
	}
	zero.LineStyle.Width = vg.Points(1)
	zero.LineStyle.Color = zeroColor
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(zero, line)
	return renderPNG(p, 12*vg.Inch, 6*vg.Inch, 150)
}

func levelChart(levels []model.IndexLevel, title string, loc *time.Location) ([]byte, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("no levels")
	}
	p := newDarkPlot(title, "01/02", loc)
	p.Y.Label.Text = "Index level"

	xys := make(plotter.XYs, len(levels))
	for i, l := range levels {
		xys[i].X = float64(l.Time.Unix())
		xys[i].Y = l.Level
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2.2)
	line.LineStyle.Color = levelColor
	p.Add(line)
	return renderPNG(p, 14*vg.Inch, 6*vg.Inch, 130)
}
