package charts

import (
	"image/color"
	"testing"

	"f1lapcompare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	spec := Spec{Title: "Speed", XName: "Distance (m)", YName: "km/h", YMin: 0, YMax: 350, Width: 600, Height: 240}
	img, err := Render(spec, []Series{
		{Name: "VER", Color: color.RGBA{0x36, 0x71, 0xc6, 0xff}, X: []float64{0, 10, 20}, Y: []float64{280, 300, 310}},
		{Name: "HAM", Color: color.RGBA{0x27, 0xf4, 0xd2, 0xff}, X: []float64{0, 10, 20}, Y: []float64{285, 295, 315}},
	})
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestRenderFlatRange(t *testing.T) {
	spec := Spec{Title: "Gear", YMin: 8, YMax: 8, Width: 300, Height: 200}
	_, err := Render(spec, []Series{{Name: "VER", X: []float64{0, 1}, Y: []float64{8, 8}}})
	assert.NoError(t, err)
}

func TestRenderInvalid(t *testing.T) {
	spec := Spec{Title: "Speed", YMax: 350, Width: 300, Height: 200}
	tests := []struct {
		name   string
		series []Series
	}{
		{name: "no series"},
		{name: "length mismatch", series: []Series{{Name: "VER", X: []float64{0, 1, 2}, Y: []float64{1, 2}}}},
		{name: "single value", series: []Series{{Name: "VER", X: []float64{0}, Y: []float64{1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(spec, tt.series)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}
}
