package render

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"testing"

	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/resources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lapTelemetry(driver string, phase float64) model.Telemetry {
	t := model.Telemetry{Driver: driver, Lap: 2, Axis: model.AxisDistance}
	for i := 0; i <= 100; i++ {
		a := 2 * math.Pi * float64(i) / 100
		t.Samples = append(t.Samples, model.Sample{
			Distance: float64(i) * 50,
			Time:     float64(i) * 0.9,
			Speed:    220 + 60*math.Sin(a+phase),
			Throttle: 80,
			Brake:    i%10 == 0,
			Gear:     6,
			RPM:      11000,
			DRS:      i > 80,
			X:        800 * math.Cos(a),
			Y:        800 * math.Sin(a),
		})
	}
	return t
}

func TestParseChannels(t *testing.T) {
	c, err := ParseChannels([]string{"speed,Brake", " drs"})
	require.NoError(t, err)
	assert.Equal(t, []Channel{Speed, Brake, DRS}, c.List())

	c, err = ParseChannels([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, AllChannels, c.List())

	c, err = ParseChannels(nil)
	require.NoError(t, err)
	assert.True(t, c.Empty())

	_, err = ParseChannels([]string{"tyres"})
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("Side-By-Side")
	require.NoError(t, err)
	assert.Equal(t, SideBySide, l)
	l, err = ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, Stacked, l)
	_, err = ParseLayout("grid")
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	require.NoError(t, cfg.Validate())

	noChannels := cfg
	noChannels.Channels = Channels{}
	_, err := NewRenderer(noChannels, nil)
	assert.ErrorIs(t, err, model.ErrInvalid)

	tiny := cfg
	tiny.Width = 10
	assert.ErrorIs(t, tiny.Validate(), model.ErrInvalid)
}

func TestColors(t *testing.T) {
	ver := model.Driver{Code: "VER", TeamColour: "3671C6"}
	per := model.Driver{Code: "PER", TeamColour: "3671C6"}
	ham := model.Driver{Code: "HAM", TeamColour: "27F4D2"}

	assert.Equal(t, []color.RGBA{{0x36, 0x71, 0xc6, 0xff}, {0x27, 0xf4, 0xd2, 0xff}}, Colors(ver, ham))
	assert.Equal(t, defaultColors[:], Colors(ver, per))
}

func TestRender(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Width, cfg.Height = 800, 200
	cfg.Channels = Channels{Speed: true, Throttle: true, Gear: true}
	cfg.Layout = SideBySide
	r, err := NewRenderer(cfg, nil)
	require.NoError(t, err)

	fig := Figure{
		ID:       "test",
		Title:    "VER vs HAM",
		Series:   []model.Telemetry{lapTelemetry("VER", 0), lapTelemetry("HAM", math.Pi)},
		Circuit:  true,
		Channels: true,
		Segments: []model.DominanceSegment{
			{Start: 0, End: 2500, Faster: "VER", Points: Trace(lapTelemetry("VER", 0))[:51]},
			{Start: 2500, End: 5000, Faster: "HAM", Points: Trace(lapTelemetry("VER", 0))[50:]},
		},
	}
	files, err := r.Render(context.Background(), fig)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, resources.TypeCircuitMap, files[0].Type())
	assert.Equal(t, resources.TypeChannels, files[1].Type())
	assert.Equal(t, resources.TypeDominance, files[2].Type())

	f, err := os.Open(files[1].FilePath())
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	// three charts on two columns
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())

	svg, err := r.TrackSVG(context.Background(), "test", fig.Series[0])
	require.NoError(t, err)
	assert.FileExists(t, svg.FilePath())
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestRenderCircuitMapTitle(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Width = 640
	r, err := NewRenderer(cfg, nil)
	require.NoError(t, err)

	ink := func(img image.Image) int {
		n := 0
		for y := 0; y < 26; y++ {
			for x := 0; x < 400; x++ {
				if cr, cg, cb, _ := img.At(x, y).RGBA(); cr < 0x8000 && cg < 0x8000 && cb < 0x8000 {
					n++
				}
			}
		}
		return n
	}
	series := []model.Telemetry{lapTelemetry("VER", 0), lapTelemetry("HAM", math.Pi)}

	named, err := r.Render(context.Background(), Figure{ID: "map", Event: "Abu Dhabi Grand Prix", Series: series, Circuit: true})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "Abu Dhabi Grand Prix Map", Figure{Event: "Abu Dhabi Grand Prix"}.mapTitle())
	assert.Greater(t, ink(decodePNG(t, named[0].FilePath())), 20)

	bare, err := r.Render(context.Background(), Figure{ID: "map", Series: series, Circuit: true})
	require.NoError(t, err)
	require.Len(t, bare, 1)
	assert.NotEqual(t, named[0].FilePath(), bare[0].FilePath())
	assert.Zero(t, ink(decodePNG(t, bare[0].FilePath())))
}

func TestRenderFigureIDsFollowSettings(t *testing.T) {
	dir := t.TempDir()
	ver, ham := lapTelemetry("VER", 0), lapTelemetry("HAM", math.Pi)
	trace := Trace(ver)
	fig := Figure{
		ID:      "same",
		Series:  []model.Telemetry{ver, ham},
		Circuit: true,
		Segments: []model.DominanceSegment{
			{Start: 0, End: 2500, Faster: "VER", Points: trace[:51]},
			{Start: 2500, End: 5000, Faster: "HAM", Points: trace[50:]},
		},
	}
	render := func(width int, fig Figure) []resources.Resource {
		cfg := DefaultConfig(dir)
		cfg.Width = width
		r, err := NewRenderer(cfg, nil)
		require.NoError(t, err)
		files, err := r.Render(context.Background(), fig)
		require.NoError(t, err)
		require.Len(t, files, 2)
		return files
	}

	small := render(800, fig)
	large := render(1000, fig)
	for i := range small {
		assert.NotEqual(t, small[i].FilePath(), large[i].FilePath())
		assert.Equal(t, 1000, decodePNG(t, large[i].FilePath()).Bounds().Dx())
	}

	swapped := fig
	swapped.Segments = []model.DominanceSegment{
		{Start: 0, End: 2500, Faster: "HAM", Points: trace[:51]},
		{Start: 2500, End: 5000, Faster: "VER", Points: trace[50:]},
	}
	again := render(1000, swapped)
	assert.Equal(t, large[0].FilePath(), again[0].FilePath())
	assert.NotEqual(t, large[1].FilePath(), again[1].FilePath())
}

func TestRenderInvalid(t *testing.T) {
	r, err := NewRenderer(DefaultConfig(t.TempDir()), nil)
	require.NoError(t, err)

	ver := lapTelemetry("VER", 0)
	timed := lapTelemetry("HAM", 0)
	timed.Axis = model.AxisTime
	short := lapTelemetry("HAM", 0)
	short.Samples = short.Samples[:1]
	noPos := lapTelemetry("VER", 0)
	for i := range noPos.Samples {
		noPos.Samples[i].X, noPos.Samples[i].Y = 0, 0
	}

	tests := []struct {
		name string
		fig  Figure
	}{
		{name: "one series", fig: Figure{ID: "x", Series: []model.Telemetry{ver}, Channels: true}},
		{name: "three series", fig: Figure{ID: "x", Series: []model.Telemetry{ver, ver, ver}, Channels: true}},
		{name: "empty series", fig: Figure{ID: "x", Series: []model.Telemetry{ver, {Driver: "HAM", Axis: model.AxisDistance}}, Channels: true}},
		{name: "single sample", fig: Figure{ID: "x", Series: []model.Telemetry{ver, short}, Channels: true}},
		{name: "mixed axes", fig: Figure{ID: "x", Series: []model.Telemetry{ver, timed}, Channels: true}},
		{name: "no positions", fig: Figure{ID: "x", Series: []model.Telemetry{noPos, ver}, Circuit: true}},
		{name: "nothing requested", fig: Figure{ID: "x", Series: []model.Telemetry{ver, ver}}},
		{name: "no id", fig: Figure{Series: []model.Telemetry{ver, ver}, Channels: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := r.Render(context.Background(), tt.fig)
			assert.ErrorIs(t, err, model.ErrInvalid)
			assert.Empty(t, files)
		})
	}
}
