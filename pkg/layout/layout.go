package layout

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"f1lapcompare/pkg/model"

	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/llgcode/draw2d/draw2dsvg"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	margin     = 40
	trackWidth = 14
	lineWidth  = 8
	titleSize  = 14
)

var (
	mu = sync.Mutex{}

	Background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	TrackColor = color.RGBA{0x22, 0x22, 0x22, 0xff}
	StartColor = color.RGBA{0xe1, 0x06, 0x00, 0xff}
	TieColor   = color.RGBA{0x99, 0x99, 0x99, 0xff}

	titleFont = draw2d.FontData{Name: "goregular", Family: draw2d.FontFamilySans, Style: draw2d.FontStyleNormal}
	fontOnce  sync.Once
	fontErr   error
)

// registerFont makes the Go regular font available to the graphic contexts.
func registerFont() error {
	fontOnce.Do(func() {
		font, err := truetype.Parse(goregular.TTF)
		if err != nil {
			fontErr = errors.Wrap(err, "cannot parse title font")
			return
		}
		draw2d.RegisterFont(titleFont, font)
	})
	return fontErr
}

// SvgMetadata maps car coordinates onto the pixels of a rendered track. It
// is appended to the SVG files so the replay page can place the cars.
type SvgMetadata struct {
	MinX    float64 `json:"minX"`
	MaxX    float64 `json:"maxX"`
	MinY    float64 `json:"minY"`
	MaxY    float64 `json:"maxY"`
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// NewFrame fits the bounding box of the points into a width x height canvas
// keeping the aspect ratio.
func NewFrame(points []model.Point, width, height int) (SvgMetadata, error) {
	if len(points) < 2 {
		return SvgMetadata{}, errors.Wrapf(model.ErrInvalid, "track needs at least two points, got %d", len(points))
	}
	if width <= 2*margin || height <= 2*margin {
		return SvgMetadata{}, errors.Wrapf(model.ErrInvalid, "figure %dx%d too small", width, height)
	}
	m := SvgMetadata{
		MinX:   math.Inf(1),
		MaxX:   math.Inf(-1),
		MinY:   math.Inf(1),
		MaxY:   math.Inf(-1),
		Width:  float64(width),
		Height: float64(height),
	}
	for _, p := range points {
		m.MinX = math.Min(m.MinX, p.X)
		m.MaxX = math.Max(m.MaxX, p.X)
		m.MinY = math.Min(m.MinY, p.Y)
		m.MaxY = math.Max(m.MaxY, p.Y)
	}
	spanX := math.Max(m.MaxX-m.MinX, 1)
	spanY := math.Max(m.MaxY-m.MinY, 1)
	m.Scale = math.Min((m.Width-2*margin)/spanX, (m.Height-2*margin)/spanY)
	m.OffsetX = (m.Width - spanX*m.Scale) / 2
	m.OffsetY = (m.Height - spanY*m.Scale) / 2
	return m, nil
}

// Project converts car coordinates to pixels. The y axis is flipped so north
// stays up.
func (m SvgMetadata) Project(x, y float64) (float64, float64) {
	px := (x-m.MinX)*m.Scale + m.OffsetX
	py := m.Height - ((y-m.MinY)*m.Scale + m.OffsetY)
	return px, py
}

// HexColor parses a team colour such as "3671C6"; invalid values fall back
// to fallback.
func HexColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}

func fillBackground(gc draw2d.GraphicContext, m SvgMetadata) {
	gc.Save()
	gc.SetFillColor(Background)
	draw2dkit.Rectangle(gc, 0, 0, m.Width, m.Height)
	gc.Fill()
	gc.Restore()
}

func drawPath(gc draw2d.GraphicContext, m SvgMetadata, points []model.Point, c color.Color, width float64, closed bool) {
	if len(points) == 0 {
		return
	}
	gc.Save()
	gc.SetStrokeColor(c)
	gc.SetLineWidth(width)
	gc.SetLineCap(draw2d.RoundCap)
	gc.SetLineJoin(draw2d.RoundJoin)
	gc.BeginPath()
	for i, p := range points {
		x, y := m.Project(p.X, p.Y)
		if i == 0 {
			gc.MoveTo(x, y)
		} else {
			gc.LineTo(x, y)
		}
	}
	if closed {
		gc.Close()
	}
	gc.Stroke()
	gc.Restore()
}

// drawStart marks the start/finish line with a dot.
func drawStart(gc draw2d.GraphicContext, m SvgMetadata, p model.Point) {
	x, y := m.Project(p.X, p.Y)
	gc.Save()
	gc.SetFillColor(StartColor)
	gc.SetStrokeColor(Background)
	gc.SetLineWidth(2)
	gc.BeginPath()
	draw2dkit.Circle(gc, x, y, trackWidth*0.8)
	gc.FillStroke()
	gc.Restore()
}

// drawTitle writes title in the top margin.
func drawTitle(gc draw2d.GraphicContext, title string) {
	if title == "" {
		return
	}
	gc.Save()
	gc.SetFontData(titleFont)
	gc.SetFontSize(titleSize)
	gc.SetFillColor(TrackColor)
	gc.FillStringAt(title, margin/2, margin/2+titleSize/2)
	gc.Restore()
}

func drawCircuit(gc draw2d.GraphicContext, m SvgMetadata, title string, trace []model.Point) {
	fillBackground(gc, m)
	drawTitle(gc, title)
	drawPath(gc, m, trace, TrackColor, trackWidth, true)
	drawStart(gc, m, trace[0])
}

// CircuitImage draws the outline of the track from the position trace of a
// lap, with title on top.
func CircuitImage(title string, trace []model.Point, width, height int) (*image.RGBA, error) {
	m, err := NewFrame(trace, width, height)
	if err != nil {
		return nil, err
	}
	if err := registerFont(); err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	dest := image.NewRGBA(image.Rect(0, 0, width, height))
	drawCircuit(draw2dimg.NewGraphicContext(dest), m, title, trace)
	return dest, nil
}

func BuildCircuitPNG(filePath, title string, trace []model.Point, width, height int) error {
	img, err := CircuitImage(title, trace, width, height)
	if err != nil {
		return err
	}
	return draw2dimg.SaveToPngFile(filePath, img)
}

// DominanceImage colours every segment of the track with the colour of the
// faster driver; segments without a faster driver are grey.
func DominanceImage(segments []model.DominanceSegment, colors map[string]color.RGBA, width, height int) (*image.RGBA, error) {
	if len(segments) == 0 {
		return nil, errors.Wrap(model.ErrInvalid, "no dominance segments to draw")
	}
	var all []model.Point
	for _, s := range segments {
		all = append(all, s.Points...)
	}
	m, err := NewFrame(all, width, height)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	dest := image.NewRGBA(image.Rect(0, 0, width, height))
	gc := draw2dimg.NewGraphicContext(dest)
	fillBackground(gc, m)
	drawPath(gc, m, all, TrackColor, trackWidth+4, false)
	for _, s := range segments {
		c, ok := colors[s.Faster]
		if !ok {
			c = TieColor
		}
		drawPath(gc, m, s.Points, c, trackWidth, false)
	}
	drawStart(gc, m, all[0])
	return dest, nil
}

func BuildDominancePNG(filePath string, segments []model.DominanceSegment, colors map[string]color.RGBA, width, height int) error {
	img, err := DominanceImage(segments, colors, width, height)
	if err != nil {
		return err
	}
	return draw2dimg.SaveToPngFile(filePath, img)
}

// BuildCircuitSVG writes the track outline as SVG followed by the metadata
// needed to project car positions onto it, stored as an xml comment.
func BuildCircuitSVG(filePath string, trace []model.Point, width, height int) error {
	m, err := NewFrame(trace, width, height)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	dest := draw2dsvg.NewSvg()
	gc := draw2dsvg.NewGraphicContext(dest)
	drawPath(gc, m, trace, TrackColor, lineWidth, true)
	drawStart(gc, m, trace[0])
	if err := draw2dsvg.SaveToSvgFile(filePath, dest); err != nil {
		return err
	}

	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	buffer := new(bytes.Buffer)
	if err := json.Compact(buffer, jsonBytes); err != nil {
		return err
	}

	// append metadata to svg file as comments in the xml
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, _ = f.Write([]byte("\n<!--\n"))
	_, _ = f.Write(buffer.Bytes())
	_, err = f.Write([]byte("\n-->"))
	return err
}

// ReadSvgMetadata loads the metadata appended by BuildCircuitSVG.
func ReadSvgMetadata(filePath string) (SvgMetadata, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return SvgMetadata{}, err
	}
	defer f.Close()

	var m SvgMetadata
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	inComment := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "<!--":
			inComment = true
		case inComment && strings.HasPrefix(line, "{"):
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				return m, errors.Wrapf(err, "invalid metadata in %s", filePath)
			}
			return m, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return m, err
	}
	return m, fmt.Errorf("no metadata found in %s", filePath)
}
