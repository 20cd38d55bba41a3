package charts

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"f1lapcompare/pkg/model"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Series is one driver's trace on a chart.
type Series struct {
	Name  string
	Color color.RGBA
	X     []float64
	Y     []float64
}

// Spec describes a single channel chart. YMin and YMax are required, go-chart
// fails on a flat range otherwise.
type Spec struct {
	Title  string
	XName  string
	YName  string
	YMin   float64
	YMax   float64
	Ticks  []chart.Tick
	Width  int
	Height int
}

func lineStyle(c color.RGBA) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A},
	}
}

// Render draws the series as lines and returns the decoded image.
func Render(spec Spec, series []Series) (image.Image, error) {
	if len(series) == 0 {
		return nil, errors.Wrap(model.ErrInvalid, "no series to chart")
	}
	cs := make([]chart.Series, 0, len(series))
	for _, s := range series {
		if len(s.X) != len(s.Y) {
			return nil, errors.Wrapf(model.ErrInvalid, "series %s has %d x and %d y values", s.Name, len(s.X), len(s.Y))
		}
		if len(s.X) < 2 {
			return nil, errors.Wrapf(model.ErrInvalid, "series %s needs at least two values", s.Name)
		}
		cs = append(cs, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
			Style:   lineStyle(s.Color),
		})
	}
	yMax := spec.YMax
	if yMax <= spec.YMin {
		yMax = spec.YMin + 1
	}

	ch := chart.Chart{
		Title:      spec.Title,
		Width:      spec.Width,
		Height:     spec.Height,
		Background: chart.Style{Padding: chart.Box{Top: 36, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: spec.XName},
		YAxis: chart.YAxis{
			Name:  spec.YName,
			Range: &chart.ContinuousRange{Min: spec.YMin, Max: yMax},
			Ticks: spec.Ticks,
		},
		Series: cs,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrapf(err, "rendering chart %s", spec.Title)
	}
	return png.Decode(&buf)
}
