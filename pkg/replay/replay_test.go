package replay

import (
	"context"
	"image/color"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"f1lapcompare/pkg/layout"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/resources"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// circle lap of 1000m radius/period in seconds, sampled every 0.1s
func circleLap(driver string, period float64) model.Telemetry {
	t := model.Telemetry{Driver: driver, Lap: 1, Axis: model.AxisTime}
	for i := 0; float64(i)*0.1 <= period+1e-9; i++ {
		ts := float64(i) * 0.1
		a := 2 * math.Pi * ts / period
		t.Samples = append(t.Samples, model.Sample{Time: ts, Speed: 200, X: 1000 * math.Cos(a), Y: 1000 * math.Sin(a)})
	}
	return t
}

var colors = []color.RGBA{{0x36, 0x71, 0xc6, 0xff}, {0x27, 0xf4, 0xd2, 0xff}}

func newReplay(t *testing.T) (*Registry, *Replay) {
	t.Helper()
	dir := t.TempDir()
	series := [2]model.Telemetry{circleLap("VER", 1.0), circleLap("HAM", 1.2)}
	svg, err := resources.NewFigure(dir, "42", resources.TypeTrackSvg, ".svg").
		Build(context.Background(), func(ctx context.Context, filePath string) error {
			return layout.BuildCircuitSVG(filePath, []model.Point{{X: -1000, Y: -1000}, {X: 1000, Y: 1000}}, 600, 600)
		})
	require.NoError(t, err)

	rg := NewRegistry(nil)
	rp, err := rg.Add("42", "VER vs HAM", svg, series, colors)
	require.NoError(t, err)
	return rg, rp
}

func TestPositions(t *testing.T) {
	_, rp := newReplay(t)
	assert.InDelta(t, 1.2, rp.Duration(), 1e-9)

	cars := rp.Positions(0)
	require.Len(t, cars, 2)
	assert.Equal(t, "VER", cars[0].Driver)
	assert.Equal(t, "#3671C6", cars[0].Color)
	// x=1000, y=0 on a 600px canvas with 40px margins
	assert.InDelta(t, 560, cars[0].X, 1e-6)
	assert.InDelta(t, 300, cars[0].Y, 1e-6)

	cars = rp.Positions(1.1)
	assert.True(t, cars[0].Done)
	assert.False(t, cars[1].Done)
	assert.Equal(t, "00:01.000", cars[0].Time)
	assert.Equal(t, "00:01.100", cars[1].Time)
}

func TestAddRejectsDistanceSeries(t *testing.T) {
	rg := NewRegistry(nil)
	lap := circleLap("VER", 1)
	lap.Axis = model.AxisDistance
	_, err := rg.Add("1", "", resources.Resource{}, [2]model.Telemetry{lap, circleLap("HAM", 1)}, colors)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestRegistryEvictsOldest(t *testing.T) {
	rg, rp := newReplay(t)
	rg.limit = 3
	series := [2]model.Telemetry{circleLap("VER", 1.0), circleLap("HAM", 1.2)}

	for _, id := range []string{"1", "2", "42", "3"} {
		_, err := rg.Add(id, "", rp.svgResource, series, colors)
		require.NoError(t, err)
	}
	// re-adding "42" keeps its place in line
	_, ok := rg.Get("42")
	assert.False(t, ok)
	for _, id := range []string{"1", "2", "3"} {
		_, ok := rg.Get(id)
		assert.True(t, ok, id)
	}
	assert.Len(t, rg.replays, 3)
	assert.Equal(t, []string{"1", "2", "3"}, rg.order)
}

func TestParseSpeed(t *testing.T) {
	assert.InDelta(t, 1, parseSpeed([]byte("start")), 1e-9)
	assert.InDelta(t, 4, parseSpeed([]byte("4")), 1e-9)
	assert.InDelta(t, maxSpeed, parseSpeed([]byte("1000")), 1e-9)
	assert.InDelta(t, 1, parseSpeed([]byte("-2")), 1e-9)
}

func TestHandlers(t *testing.T) {
	rg, _ := newReplay(t)
	r := mux.NewRouter()
	rg.AddHandlers(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/replay/42/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/replay/42/ws")
	assert.Contains(t, string(body), "svg-track_42.svg")

	resp, err = http.Get(srv.URL + "/replay/7/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/replay/42/ws"
	c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("10")))

	frames := 0
	var last []CarPosition
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}
		last, err = rg.caster.From(data)
		require.NoError(t, err)
		frames++
	}
	assert.Equal(t, 2, frames)
	require.Len(t, last, 2)
	assert.True(t, last[0].Done)
	assert.True(t, last[1].Done)
}
