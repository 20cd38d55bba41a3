package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"f1lapcompare/pkg/charts"
	"f1lapcompare/pkg/helper"
	"f1lapcompare/pkg/layout"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/resources"
	"f1lapcompare/pkg/telemetry"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	chart "github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"
)

// fallback colours when both drivers share a team colour
var defaultColors = [2]color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff},
	{0xff, 0x7f, 0x0e, 0xff},
}

// Figure lists what to draw for one comparison.
type Figure struct {
	ID    string
	Title string
	// Event names the circuit map, Title is used when empty.
	Event    string
	Series   []model.Telemetry
	Colors   []color.RGBA
	Circuit  bool
	Channels bool
	// Segments are drawn as a dominance map when not empty.
	Segments []model.DominanceSegment
}

type Renderer struct {
	cfg Config
	l   *zap.Logger
}

func NewRenderer(cfg Config, l *zap.Logger) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Renderer{cfg: cfg, l: l}, nil
}

func (r *Renderer) Config() Config {
	return r.cfg
}

func (r *Renderer) validate(fig Figure) error {
	if fig.ID == "" {
		return errors.Wrap(model.ErrInvalid, "figure without id")
	}
	if len(fig.Series) != 2 {
		return errors.Wrapf(model.ErrInvalid, "expected two series, got %d", len(fig.Series))
	}
	for _, s := range fig.Series {
		if s.Len() < 2 {
			return errors.Wrapf(model.ErrInvalid, "series of %s lap %d has %d samples", s.Driver, s.Lap, s.Len())
		}
	}
	if fig.Series[0].Axis != fig.Series[1].Axis {
		return errors.Wrapf(model.ErrInvalid, "series aligned on %s and %s", fig.Series[0].Axis, fig.Series[1].Axis)
	}
	if fig.Circuit && !hasPositions(fig.Series[0]) {
		return errors.Wrapf(model.ErrInvalid, "no position data for %s lap %d", fig.Series[0].Driver, fig.Series[0].Lap)
	}
	if !fig.Circuit && !fig.Channels && len(fig.Segments) == 0 {
		return errors.Wrap(model.ErrInvalid, "nothing to render")
	}
	return nil
}

func hasPositions(t model.Telemetry) bool {
	return lo.SomeBy(t.Samples, func(s model.Sample) bool {
		return s.X != t.Samples[0].X || s.Y != t.Samples[0].Y
	})
}

// Trace returns the track positions of a lap.
func Trace(t model.Telemetry) []model.Point {
	return lo.Map(t.Samples, func(s model.Sample, _ int) model.Point {
		return model.Point{X: s.X, Y: s.Y}
	})
}

// Colors returns the team colours of both drivers, falling back to
// distinct defaults when missing or identical.
func Colors(d1, d2 model.Driver) []color.RGBA {
	c1 := layout.HexColor(d1.TeamColour, defaultColors[0])
	c2 := layout.HexColor(d2.TeamColour, defaultColors[1])
	if c1 == c2 {
		c1, c2 = defaultColors[0], defaultColors[1]
	}
	return []color.RGBA{c1, c2}
}

func (fig Figure) mapTitle() string {
	if fig.Event != "" {
		return fig.Event + " Map"
	}
	return fig.Title
}

// figureID keys a file on everything that changes its pixels, so a figure
// drawn with other settings is never served from a stale file.
func figureID(parts ...any) string {
	return helper.ToID(fmt.Sprint(parts...))
}

func segmentsKey(segments []model.DominanceSegment) string {
	return strings.Join(lo.Map(segments, func(s model.DominanceSegment, _ int) string {
		return fmt.Sprintf("%.3f-%.3f:%s", s.Start, s.End, s.Faster)
	}), ",")
}

func (r *Renderer) colors(fig Figure) []color.RGBA {
	if len(fig.Colors) == 2 {
		return fig.Colors
	}
	return defaultColors[:]
}

// Render validates the figure and writes the requested images. The
// resources come back in circuit, channels, dominance order.
func (r *Renderer) Render(ctx context.Context, fig Figure) ([]resources.Resource, error) {
	if err := r.validate(fig); err != nil {
		return nil, err
	}
	colors := r.colors(fig)
	var out []resources.Resource

	width, height := r.cfg.Width, r.cfg.Width*9/16

	if fig.Circuit {
		title := fig.mapTitle()
		id := figureID(fig.ID, "|", title, "|", width, "x", height)
		res, err := resources.NewFigure(r.cfg.OutDir, id, resources.TypeCircuitMap, ".png").
			Build(ctx, func(ctx context.Context, filePath string) error {
				return layout.BuildCircuitPNG(filePath, title, Trace(fig.Series[0]), width, height)
			})
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}

	if fig.Channels {
		id := figureID(fig.ID, "|", fig.Title, "|", r.cfg.String(), "|", colors)
		res, err := resources.NewFigure(r.cfg.OutDir, id, resources.TypeChannels, ".png").
			Build(ctx, func(ctx context.Context, filePath string) error {
				img, err := r.channelsImage(fig, colors)
				if err != nil {
					return err
				}
				return draw2dimg.SaveToPngFile(filePath, img)
			})
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}

	if len(fig.Segments) > 0 {
		byDriver := map[string]color.RGBA{
			fig.Series[0].Driver: colors[0],
			fig.Series[1].Driver: colors[1],
		}
		id := figureID(fig.ID, "|", width, "x", height, "|", colors, "|", segmentsKey(fig.Segments))
		res, err := resources.NewFigure(r.cfg.OutDir, id, resources.TypeDominance, ".png").
			Build(ctx, func(ctx context.Context, filePath string) error {
				return layout.BuildDominancePNG(filePath, fig.Segments, byDriver, width, height)
			})
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}

	r.l.Info("figures rendered", zap.String("title", fig.Title), zap.Int("files", len(out)))
	return out, nil
}

// TrackSVG writes the circuit outline used by the replay page.
func (r *Renderer) TrackSVG(ctx context.Context, id string, t model.Telemetry) (resources.Resource, error) {
	if !hasPositions(t) {
		return resources.Resource{}, errors.Wrapf(model.ErrInvalid, "no position data for %s lap %d", t.Driver, t.Lap)
	}
	width, height := r.cfg.Width, r.cfg.Width*9/16
	return resources.NewFigure(r.cfg.OutDir, figureID(id, "|", width, "x", height), resources.TypeTrackSvg, ".svg").
		Build(ctx, func(ctx context.Context, filePath string) error {
			return layout.BuildCircuitSVG(filePath, Trace(t), width, height)
		})
}

type channelSpec struct {
	title string
	unit  string
	value func(model.Sample) float64
	ticks []chart.Tick
	// fixed range, derived from the data when both are zero
	min, max float64
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var onOff = []chart.Tick{{Value: 0, Label: "off"}, {Value: 1, Label: "on"}}

var channelSpecs = map[Channel]channelSpec{
	Speed:    {title: "Speed", unit: "km/h", value: func(s model.Sample) float64 { return s.Speed }},
	Throttle: {title: "Throttle", unit: "%", value: func(s model.Sample) float64 { return s.Throttle }, min: 0, max: 105},
	Brake:    {title: "Brake", unit: "", value: func(s model.Sample) float64 { return boolValue(s.Brake) }, ticks: onOff, min: -0.1, max: 1.1},
	Gear:     {title: "Gear", unit: "", value: func(s model.Sample) float64 { return float64(s.Gear) }, min: 0, max: 9},
	RPM:      {title: "RPM", unit: "rpm", value: func(s model.Sample) float64 { return s.RPM }},
	DRS:      {title: "DRS", unit: "", value: func(s model.Sample) float64 { return boolValue(s.DRS) }, ticks: onOff, min: -0.1, max: 1.1},
}

func axisName(a model.Axis) string {
	if a == model.AxisDistance {
		return "Distance (m)"
	}
	return "Time (s)"
}

func (r *Renderer) channelChart(ch Channel, fig Figure, colors []color.RGBA, width int, title string) (image.Image, error) {
	spec := channelSpecs[ch]
	series := make([]charts.Series, 0, len(fig.Series))
	low, high := math.Inf(1), math.Inf(-1)
	for i, t := range fig.Series {
		ys := telemetry.Values(t, spec.value)
		for _, y := range ys {
			low, high = math.Min(low, y), math.Max(high, y)
		}
		series = append(series, charts.Series{
			Name:  fmt.Sprintf("%s L%d", t.Driver, t.Lap),
			Color: colors[i],
			X:     telemetry.AxisValues(t),
			Y:     ys,
		})
	}
	yMin, yMax := spec.min, spec.max
	if yMin == 0 && yMax == 0 {
		pad := math.Max((high-low)*0.05, 1)
		yMin, yMax = math.Max(0, low-pad), high+pad
	}
	return charts.Render(charts.Spec{
		Title:  title,
		XName:  axisName(fig.Series[0].Axis),
		YName:  spec.unit,
		YMin:   yMin,
		YMax:   yMax,
		Ticks:  spec.ticks,
		Width:  width,
		Height: r.cfg.Height,
	}, series)
}

// channelsImage lays the channel charts out in one column, or two columns
// when side by side.
func (r *Renderer) channelsImage(fig Figure, colors []color.RGBA) (*image.RGBA, error) {
	channels := r.cfg.Channels.List()
	cols := 1
	if r.cfg.Layout == SideBySide && len(channels) > 1 {
		cols = 2
	}
	rows := (len(channels) + cols - 1) / cols
	cellWidth := r.cfg.Width / cols

	dest := image.NewRGBA(image.Rect(0, 0, r.cfg.Width, rows*r.cfg.Height))
	gc := draw2dimg.NewGraphicContext(dest)
	gc.SetFillColor(layout.Background)
	draw2dkit.Rectangle(gc, 0, 0, float64(r.cfg.Width), float64(rows*r.cfg.Height))
	gc.Fill()

	for i, ch := range channels {
		title := channelSpecs[ch].title
		if i == 0 && fig.Title != "" {
			title = fig.Title + " - " + title
		}
		img, err := r.channelChart(ch, fig, colors, cellWidth, title)
		if err != nil {
			return nil, err
		}
		gc.Save()
		gc.Translate(float64((i%cols)*cellWidth), float64((i/cols)*r.cfg.Height))
		gc.DrawImage(img)
		gc.Restore()
	}
	return dest, nil
}
