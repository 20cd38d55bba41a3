package replay

import (
	"context"
	"fmt"
	"html/template"
	"image/color"
	"math"
	"net/http"
	"sync"
	"time"

	"f1lapcompare/pkg/caster"
	"f1lapcompare/pkg/helper"
	"f1lapcompare/pkg/layout"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/resources"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	tick     = 100 * time.Millisecond
	maxSpeed = 20.0
)

var upgrader = websocket.Upgrader{} // use default options

// CarPosition is one car on the replay, in SVG pixels.
type CarPosition struct {
	Driver string  `json:"dri"`
	Color  string  `json:"color"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Speed  float64 `json:"speed"`
	Time   string  `json:"time"`
	Done   bool    `json:"done"`
}

// Replay plays two laps side by side on the circuit outline.
type Replay struct {
	ID          string
	Title       string
	svgResource resources.Resource
	svgMetadata layout.SvgMetadata
	series      [2]model.Telemetry
	colors      [2]string
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Duration is the longest of both laps.
func (rp *Replay) Duration() float64 {
	d := 0.0
	for _, t := range rp.series {
		if n := len(t.Samples); n > 0 {
			d = math.Max(d, t.Samples[n-1].Time)
		}
	}
	return d
}

// Positions returns both cars at t seconds into the lap. A car that finished
// its lap stays on its last sample.
func (rp *Replay) Positions(t float64) []CarPosition {
	cars := make([]CarPosition, 0, len(rp.series))
	for i, tel := range rp.series {
		s, done := sampleAt(tel.Samples, t)
		x, y := rp.svgMetadata.Project(s.X, s.Y)
		cars = append(cars, CarPosition{
			Driver: tel.Driver,
			Color:  rp.colors[i],
			X:      x,
			Y:      y,
			Speed:  s.Speed,
			Time:   helper.SecondsToMinutes(math.Min(t, s.Time)),
			Done:   done,
		})
	}
	return cars
}

func sampleAt(samples []model.Sample, t float64) (model.Sample, bool) {
	if len(samples) == 0 {
		return model.Sample{}, true
	}
	last := samples[len(samples)-1]
	if t >= last.Time {
		return last, true
	}
	if t <= samples[0].Time {
		return samples[0], false
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Time >= t {
			a, b := samples[i-1], samples[i]
			f := 0.0
			if b.Time > a.Time {
				f = (t - a.Time) / (b.Time - a.Time)
			}
			return model.Sample{
				Time:  t,
				Speed: a.Speed + f*(b.Speed-a.Speed),
				X:     a.X + f*(b.X-a.X),
				Y:     a.Y + f*(b.Y-a.Y),
			}, false
		}
	}
	return last, true
}

// MaxReplays bounds the replays kept in memory, the oldest go first.
const MaxReplays = 64

// Registry keeps the replays served by the web server.
type Registry struct {
	mu      sync.Mutex
	replays map[string]*Replay
	order   []string
	limit   int
	caster  caster.Caster[[]CarPosition]
	l       *zap.Logger
}

func NewRegistry(l *zap.Logger) *Registry {
	if l == nil {
		l = zap.NewNop()
	}
	return &Registry{
		replays: map[string]*Replay{},
		limit:   MaxReplays,
		caster:  caster.JSONCaster[[]CarPosition]{},
		l:       l,
	}
}

// Add registers a replay of two time aligned laps over the given track SVG.
func (rg *Registry) Add(id, title string, svg resources.Resource, series [2]model.Telemetry, colors []color.RGBA) (*Replay, error) {
	for _, t := range series {
		if t.Axis != model.AxisTime || t.Len() < 2 {
			return nil, errors.Wrapf(model.ErrInvalid, "replay of %s lap %d needs time aligned samples", t.Driver, t.Lap)
		}
	}
	if len(colors) != 2 {
		return nil, errors.Wrapf(model.ErrInvalid, "expected two colours, got %d", len(colors))
	}
	meta, err := layout.ReadSvgMetadata(svg.FilePath())
	if err != nil {
		return nil, err
	}
	rp := &Replay{
		ID:          id,
		Title:       title,
		svgResource: svg,
		svgMetadata: meta,
		series:      series,
		colors:      [2]string{hex(colors[0]), hex(colors[1])},
	}

	rg.mu.Lock()
	defer rg.mu.Unlock()
	if _, ok := rg.replays[id]; !ok {
		rg.order = append(rg.order, id)
	}
	rg.replays[id] = rp
	for len(rg.order) > rg.limit {
		oldest := rg.order[0]
		rg.order = rg.order[1:]
		delete(rg.replays, oldest)
		rg.l.Debug("replay evicted", zap.String("id", oldest))
	}
	rg.l.Info("replay registered", zap.String("id", id), zap.String("title", title))
	return rp, nil
}

func (rg *Registry) Get(id string) (*Replay, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rp, ok := rg.replays[id]
	return rp, ok
}

// AddHandlers mounts /replay/{id}/live and /replay/{id}/ws.
func (rg *Registry) AddHandlers(r *mux.Router) {
	r.HandleFunc("/replay/{id}/ws", rg.websocketHandler())
	r.HandleFunc("/replay/{id}/live", rg.liveHandler()).Methods(http.MethodGet)
}

func (rg *Registry) lookup(w http.ResponseWriter, r *http.Request) (*Replay, bool) {
	id := mux.Vars(r)["id"]
	rp, ok := rg.Get(id)
	if !ok {
		http.Error(w, fmt.Sprintf("replay %s not found", id), http.StatusNotFound)
	}
	return rp, ok
}

// play streams frames until both cars finished or ctx is done. speed
// multiplies the replay clock.
func (rg *Registry) play(ctx context.Context, c *websocket.Conn, rp *Replay, speed float64) error {
	t := time.NewTicker(tick)
	defer t.Stop()
	clock := 0.0
	end := rp.Duration()
	for {
		select {
		case <-t.C:
			clock += tick.Seconds() * speed
			data, err := rg.caster.To(rp.Positions(clock))
			if err != nil {
				return err
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
			if clock >= end {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func parseSpeed(msg []byte) float64 {
	var speed float64
	if _, err := fmt.Sscanf(string(msg), "%g", &speed); err != nil || speed <= 0 {
		return 1
	}
	return math.Min(speed, maxSpeed)
}

func (rg *Registry) websocketHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		rp, ok := rg.lookup(w, r)
		if !ok {
			return
		}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			rg.l.Warn("upgrade", zap.Error(err))
			return
		}
		defer c.Close()
		// the client sends the playback speed to start
		_, message, err := c.ReadMessage()
		if err != nil {
			rg.l.Warn("read", zap.Error(err))
			return
		}
		speed := parseSpeed(message)
		rg.l.Debug("replay started", zap.String("id", rp.ID), zap.Float64("speed", speed))
		if err := rg.play(r.Context(), c, rp, speed); err != nil {
			rg.l.Warn("write", zap.Error(err))
			return
		}
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "lap finished"))
	}
}

type Data struct {
	Title        string
	WebSocketURL string
	TrackURL     string
	Width        int
	Height       int
}

func (rg *Registry) liveHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		rp, ok := rg.lookup(w, r)
		if !ok {
			return
		}
		e := Data{
			Title:        rp.Title,
			WebSocketURL: "ws://" + r.Host + "/replay/" + rp.ID + "/ws",
			TrackURL:     "http://" + r.Host + "/resources/" + rp.svgResource.FileName(),
			Width:        int(rp.svgMetadata.Width),
			Height:       int(rp.svgMetadata.Height),
		}
		if err := homeTemplate.Execute(w, e); err != nil {
			rg.l.Error("rendering replay page", zap.Error(err))
		}
	}
}

var homeTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{ .Title }}</title>
</head>
<body>
  <h3>{{ .Title }}</h3>
  <div id="timing"></div>
  <svg id="svgContainer" width="{{ .Width }}" height="{{ .Height }}" xmlns="http://www.w3.org/2000/svg">
    <g id="track"></g>
  </svg>

  <script>
    const trackUrl = '{{ .TrackURL }}';
    const wsUrl = '{{ .WebSocketURL }}';
    const speed = new URLSearchParams(window.location.search).get('speed') || '1';

    const svgContainer = document.getElementById('svgContainer');
    const timing = document.getElementById('timing');
    const cars = new Map();

    async function start() {
      try {
        const response = await fetch(trackUrl);
        if (!response.ok) {
          throw new Error(response.statusText);
        }
        document.getElementById('track').innerHTML = await response.text();
      } catch (error) {
        console.error('failed to fetch track', error);
      }

      const socket = new WebSocket(wsUrl);
      socket.addEventListener('open', () => socket.send(speed));
      socket.addEventListener('message', (event) => {
        const positions = JSON.parse(event.data);
        const lines = [];
        for (const data of positions) {
          if (!cars.has(data.dri)) {
            cars.set(data.dri, buildCar(data.dri, data.color));
          }
          drawCar(cars.get(data.dri), data.x, data.y);
          lines.push(data.dri + ' ' + data.time + ' ' + Math.round(data.speed) + ' km/h' + (data.done ? ' (finished)' : ''));
        }
        timing.textContent = lines.join(' | ');
      });
      socket.addEventListener('close', (event) => console.log('replay closed', event.reason));
    }

    function buildCar(id, color) {
      const carElement = document.createElementNS('http://www.w3.org/2000/svg', 'g');
      const circleElement = document.createElementNS('http://www.w3.org/2000/svg', 'circle');
      const textElement = document.createElementNS('http://www.w3.org/2000/svg', 'text');
      textElement.setAttribute('text-anchor', 'middle');
      textElement.setAttribute('dy', '.3em');
      textElement.setAttribute('font-size', '10px');
      textElement.setAttribute('fill', '#FFFFFF');
      textElement.textContent = id;
      circleElement.setAttribute('r', 14);
      circleElement.setAttribute('stroke', '#111111');
      circleElement.setAttribute('stroke-width', '2px');
      circleElement.setAttribute('fill', color);
      carElement.appendChild(circleElement);
      carElement.appendChild(textElement);
      svgContainer.appendChild(carElement);
      return {circle: circleElement, text: textElement};
    }

    function drawCar(car, x, y) {
      car.circle.setAttribute('cx', x);
      car.circle.setAttribute('cy', y);
      car.text.setAttribute('x', x);
      car.text.setAttribute('y', y);
    }

    start();
  </script>
</body>
</html>
`))
