package compare

import (
	"context"
	"fmt"
	"strings"

	"f1lapcompare/pkg/dominance"
	"f1lapcompare/pkg/helper"
	"f1lapcompare/pkg/laps"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/render"
	"f1lapcompare/pkg/resources"
	"f1lapcompare/pkg/session"
	"f1lapcompare/pkg/telemetry"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Publisher receives every successful report.
type Publisher interface {
	Publish(topic string, r *Report) int
}

// Topic is the pubsub topic reports are published on.
const Topic = "compare"

type Option func(*Service)

func WithBins(bins int) Option {
	return func(s *Service) {
		s.bins = bins
	}
}

// WithSteps sets the resampling steps of the distance and time axes.
func WithSteps(distance, time float64) Option {
	return func(s *Service) {
		if distance > 0 {
			s.distanceStep = distance
		}
		if time > 0 {
			s.timeStep = time
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.pub = p
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.l = l
	}
}

// Service runs the comparison pipeline: load the session, pick both laps,
// align their telemetry and render the figures.
type Service struct {
	loader       *session.Loader
	renderer     *render.Renderer
	bins         int
	distanceStep float64
	timeStep     float64
	pub          Publisher
	l            *zap.Logger
}

func NewService(loader *session.Loader, renderer *render.Renderer, opts ...Option) *Service {
	s := &Service{
		loader:       loader,
		renderer:     renderer,
		bins:         dominance.DefaultBins,
		distanceStep: telemetry.DefaultDistanceStep,
		timeStep:     telemetry.DefaultTimeStep,
		l:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Renderer is used by the outer surfaces to build extra figures.
func (s *Service) Renderer() *render.Renderer {
	return s.renderer
}

type request struct {
	kind      Kind
	year      int
	gp        string
	st        model.SessionType
	d1, d2    string
	lapNumber int
}

func (r request) String() string {
	return fmt.Sprintf("%s %d %s %s %s-%s lap %d", r.kind, r.year, r.gp, r.st, r.d1, r.d2, r.lapNumber)
}

// CompareLaps draws the circuit map and the channel comparison of the
// fastest laps of both drivers.
func (s *Service) CompareLaps(ctx context.Context, year int, gp string, st model.SessionType, d1, d2 string) (*Report, error) {
	return s.run(ctx, request{kind: KindLaps, year: year, gp: gp, st: st, d1: d1, d2: d2, lapNumber: laps.Fastest})
}

// CompareRaceLaps compares the given race lap of both drivers, 0 meaning
// their fastest race lap, with a dominance map.
func (s *Service) CompareRaceLaps(ctx context.Context, year int, gp string, d1, d2 string, lapNumber int) (*Report, error) {
	if lapNumber < 0 {
		return nil, errors.Wrapf(model.ErrInvalid, "invalid lap number %d", lapNumber)
	}
	return s.run(ctx, request{kind: KindRace, year: year, gp: gp, st: model.Race, d1: d1, d2: d2, lapNumber: lapNumber})
}

// CompareFastestLaps compares the fastest laps of both drivers with a
// dominance map.
func (s *Service) CompareFastestLaps(ctx context.Context, year int, gp string, st model.SessionType, d1, d2 string) (*Report, error) {
	return s.run(ctx, request{kind: KindFastest, year: year, gp: gp, st: st, d1: d1, d2: d2, lapNumber: laps.Fastest})
}

// Compare dispatches on kind; used by the outer surfaces.
func (s *Service) Compare(ctx context.Context, kind Kind, year int, gp string, st model.SessionType, d1, d2 string, lapNumber int) (*Report, error) {
	switch kind {
	case KindLaps:
		return s.CompareLaps(ctx, year, gp, st, d1, d2)
	case KindFastest:
		return s.CompareFastestLaps(ctx, year, gp, st, d1, d2)
	case KindRace:
		return s.CompareRaceLaps(ctx, year, gp, d1, d2, lapNumber)
	}
	return nil, errors.Wrapf(model.ErrInvalid, "unknown comparison %q", kind)
}

func (s *Service) validate(req request) error {
	if strings.TrimSpace(req.gp) == "" {
		return errors.Wrap(model.ErrInvalid, "missing event")
	}
	if req.st.Name() == "" {
		return errors.Wrapf(model.ErrInvalid, "unknown session type %q", req.st)
	}
	if req.d1 == "" || req.d2 == "" {
		return errors.Wrap(model.ErrInvalid, "two drivers are needed")
	}
	return nil
}

func (s *Service) run(ctx context.Context, req request) (*Report, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	l := s.l.With(zap.String("request", req.String()))

	sess, err := s.loader.Load(ctx, req.year, req.gp, req.st)
	if err != nil {
		return nil, err
	}
	d1, found := sess.DriverByCode(req.d1)
	if !found {
		return nil, errors.Wrapf(model.ErrNotFound, "driver %s did not take part in %s", req.d1, sess)
	}
	d2, found := sess.DriverByCode(req.d2)
	if !found {
		return nil, errors.Wrapf(model.ErrNotFound, "driver %s did not take part in %s", req.d2, sess)
	}

	result := model.ComparisonResult{Session: sess}
	for i, code := range []string{d1.Code, d2.Code} {
		lap, err := laps.Select(sess, code, req.lapNumber)
		if err != nil {
			return nil, err
		}
		samples, err := s.loader.LapTelemetry(ctx, sess, lap)
		if err != nil {
			return nil, err
		}
		tel, err := telemetry.Align(code, lap.LapNumber, samples, model.AxisDistance, s.distanceStep)
		if err != nil {
			return nil, err
		}
		result.Laps[i] = lap
		result.Series[i] = tel
		l.Debug("lap aligned", zap.Stringer("lap", lap), zap.Int("samples", tel.Len()))
	}

	title := session.Describe(sess, d1.Code, d2.Code)
	report := &Report{
		ID:       helper.ToID(fmt.Sprintf("%s-%d-%s-%d-%s-%d", req.kind, sess.Key, d1.Code, result.Laps[0].LapNumber, d2.Code, result.Laps[1].LapNumber)),
		Kind:     req.kind,
		Title:    title,
		Session:  sess.String(),
		Category: sess.Type.Category(),
		Laps:     result.Laps,
		Delta:    result.Delta(),
		Result:   result,
	}

	fig := render.Figure{
		ID:       report.ID,
		Title:    title,
		Event:    sess.EventName,
		Series:   result.Series[:],
		Colors:   render.Colors(d1, d2),
		Circuit:  req.kind == KindLaps,
		Channels: true,
	}
	if req.kind != KindLaps {
		segments, err := dominance.Compute(result.Series[0], result.Series[1], s.bins)
		if err != nil {
			return nil, err
		}
		if len(segments) == 0 {
			return nil, errors.Wrapf(model.ErrInvalid, "laps of %s and %s do not overlap", d1.Code, d2.Code)
		}
		report.Segments = segments
		report.Share = dominance.Share(segments)
		fig.Segments = segments
	}

	files, err := s.renderer.Render(ctx, fig)
	if err != nil {
		return nil, err
	}
	report.Files = lo.Map(files, func(r resources.Resource, _ int) File { return toFile(r) })

	l.Info("comparison done", zap.String("summary", report.Summary()), zap.Int("files", len(report.Files)))
	if s.pub != nil {
		s.pub.Publish(Topic, report)
	}
	return report, nil
}

// TimeAligned resamples both laps of a report on the time axis, as used by
// the replay.
func (s *Service) TimeAligned(r *Report) ([2]model.Telemetry, error) {
	var out [2]model.Telemetry
	for i, t := range r.Result.Series {
		tel, err := telemetry.Align(t.Driver, t.Lap, t.Samples, model.AxisTime, s.timeStep)
		if err != nil {
			return out, err
		}
		out[i] = tel
	}
	return out, nil
}
