package session

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"f1lapcompare/pkg/helper"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/openf1"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Provider is the subset of the OpenF1 API the loader needs.
type Provider interface {
	Meetings(ctx context.Context, year int) ([]openf1.Meeting, error)
	Sessions(ctx context.Context, meetingKey int) ([]openf1.Session, error)
	Drivers(ctx context.Context, sessionKey int) ([]openf1.Driver, error)
	Laps(ctx context.Context, sessionKey int) ([]openf1.Lap, error)
	Pits(ctx context.Context, sessionKey int) ([]openf1.Pit, error)
	RaceControl(ctx context.Context, sessionKey int) ([]openf1.RaceControl, error)
	CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]openf1.CarData, error)
	Location(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]openf1.Location, error)
}

type Loader struct {
	p Provider
	l *zap.Logger
}

func NewLoader(p Provider, l *zap.Logger) *Loader {
	if l == nil {
		l = zap.NewNop()
	}
	return &Loader{p: p, l: l}
}

var (
	deletedLapRe    = regexp.MustCompile(`CAR (\d+) \(\w+\) (?:TIME [0-9:.]+ |LAP )DELETED.*?\bLAP (\d+)`)
	reinstatedLapRe = regexp.MustCompile(`CAR (\d+) \(\w+\) (?:TIME [0-9:.]+ |LAP )REINSTATED.*?\bLAP (\d+)`)
)

// Load resolves the event of the given year and returns the requested
// session with all its laps.
func (ld *Loader) Load(ctx context.Context, year int, event string, st model.SessionType) (*model.Session, error) {
	meetings, err := ld.p.Meetings(ctx, year)
	if err != nil {
		return nil, err
	}
	meeting, found := matchMeeting(meetings, event)
	if !found {
		return nil, errors.Wrapf(model.ErrNotFound, "event %q in %d", event, year)
	}

	sessions, err := ld.p.Sessions(ctx, meeting.MeetingKey)
	if err != nil {
		return nil, err
	}
	sess, found := lo.Find(sessions, func(s openf1.Session) bool {
		return strings.EqualFold(s.SessionName, st.Name())
	})
	if !found {
		return nil, errors.Wrapf(model.ErrNotFound, "session %s of %s %d", st.Name(), meeting.MeetingName, year)
	}

	s := &model.Session{
		Key:          sess.SessionKey,
		Year:         year,
		Type:         st,
		Name:         sess.SessionName,
		EventName:    meeting.MeetingName,
		OfficialName: meeting.MeetingOfficialName,
		Circuit:      meeting.CircuitShortName,
	}
	if t, err := openf1.ParseDate(sess.DateStart); err == nil {
		s.Start = t
	}

	drivers, err := ld.p.Drivers(ctx, sess.SessionKey)
	if err != nil {
		return nil, err
	}
	s.Drivers = toDrivers(drivers)

	laps, err := ld.p.Laps(ctx, sess.SessionKey)
	if err != nil {
		return nil, err
	}
	if len(laps) == 0 {
		return nil, errors.Wrapf(model.ErrNotFound, "no lap data for %s", s)
	}
	pits, err := ld.p.Pits(ctx, sess.SessionKey)
	if err != nil {
		return nil, err
	}
	messages, err := ld.p.RaceControl(ctx, sess.SessionKey)
	if err != nil {
		return nil, err
	}

	s.Laps = buildLaps(s, laps, pits, deletedLaps(messages))
	ld.l.Info("session loaded",
		zap.String("session", s.String()), zap.Int("drivers", len(s.Drivers)), zap.Int("laps", len(s.Laps)))
	return s, nil
}

// LapTelemetry fetches the raw car samples of a lap with positions merged in.
// Time is relative to the lap start, Distance is left for the aligner.
func (ld *Loader) LapTelemetry(ctx context.Context, s *model.Session, lap model.Lap) ([]model.Sample, error) {
	if lap.SessionKey != s.Key {
		return nil, errors.Wrapf(model.ErrInvalid, "%s does not belong to %s", lap, s)
	}
	if lap.Start.IsZero() || lap.LapTime <= 0 {
		return nil, errors.Wrapf(model.ErrInvalid, "%s has no recorded telemetry", lap)
	}
	car, err := ld.p.CarData(ctx, s.Key, lap.DriverNumber, lap.Start, lap.End())
	if err != nil {
		return nil, err
	}
	if len(car) == 0 {
		return nil, errors.Wrapf(model.ErrInvalid, "%s has no recorded telemetry", lap)
	}
	loc, err := ld.p.Location(ctx, s.Key, lap.DriverNumber, lap.Start, lap.End())
	if err != nil {
		return nil, err
	}

	samples := make([]model.Sample, 0, len(car))
	for _, c := range car {
		t, err := openf1.ParseDate(c.Date)
		if err != nil {
			ld.l.Warn("skipping car sample", zap.String("date", c.Date), zap.Error(err))
			continue
		}
		samples = append(samples, model.Sample{
			Time:     t.Sub(lap.Start).Seconds(),
			Speed:    c.Speed,
			Throttle: c.Throttle,
			Brake:    c.Brake >= 50,
			Gear:     c.NGear,
			RPM:      c.RPM,
			DRS:      c.DRSOpen(),
		})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time < samples[j].Time
	})
	mergePositions(samples, lap.Start, loc)
	return samples, nil
}

type position struct {
	t    float64
	x, y float64
}

// mergePositions linearly interpolates the location trace onto the car
// samples; samples outside the trace take the nearest position.
func mergePositions(samples []model.Sample, start time.Time, loc []openf1.Location) {
	ps := make([]position, 0, len(loc))
	for _, l := range loc {
		t, err := openf1.ParseDate(l.Date)
		if err != nil {
			continue
		}
		ps = append(ps, position{t: t.Sub(start).Seconds(), x: l.X, y: l.Y})
	}
	if len(ps) == 0 {
		return
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].t < ps[j].t })

	j := 0
	for i := range samples {
		t := samples[i].Time
		for j < len(ps)-2 && ps[j+1].t <= t {
			j++
		}
		switch {
		case t <= ps[0].t || len(ps) == 1:
			samples[i].X, samples[i].Y = ps[0].x, ps[0].y
		case t >= ps[len(ps)-1].t:
			samples[i].X, samples[i].Y = ps[len(ps)-1].x, ps[len(ps)-1].y
		default:
			a, b := ps[j], ps[j+1]
			f := 0.0
			if b.t > a.t {
				f = (t - a.t) / (b.t - a.t)
			}
			samples[i].X = a.x + f*(b.x-a.x)
			samples[i].Y = a.y + f*(b.y-a.y)
		}
	}
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ", "grand prix", "", "gp", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// matchMeeting resolves a round number or a (partial) event name. Testing
// meetings are never matched.
func matchMeeting(meetings []openf1.Meeting, event string) (openf1.Meeting, bool) {
	races := lo.Filter(meetings, func(m openf1.Meeting, _ int) bool {
		return !strings.Contains(strings.ToLower(m.MeetingName), "testing")
	})
	sort.SliceStable(races, func(i, j int) bool {
		return races[i].DateStart < races[j].DateStart
	})

	if round, err := strconv.Atoi(strings.TrimSpace(event)); err == nil {
		if round < 1 || round > len(races) {
			return openf1.Meeting{}, false
		}
		return races[round-1], true
	}

	want := normalize(event)
	if want == "" {
		return openf1.Meeting{}, false
	}
	fields := func(m openf1.Meeting) []string {
		return []string{
			normalize(m.MeetingName), normalize(m.Location), normalize(m.CountryName),
			normalize(m.CircuitShortName), normalize(m.MeetingOfficialName),
		}
	}
	if m, found := lo.Find(races, func(m openf1.Meeting) bool {
		return lo.Contains(fields(m), want)
	}); found {
		return m, true
	}
	return lo.Find(races, func(m openf1.Meeting) bool {
		return lo.SomeBy(fields(m), func(f string) bool { return f != "" && strings.Contains(f, want) })
	})
}

func toDrivers(ds []openf1.Driver) []model.Driver {
	drivers := make([]model.Driver, 0, len(ds))
	for _, d := range lo.UniqBy(ds, func(d openf1.Driver) int { return d.DriverNumber }) {
		code := strings.ToUpper(d.NameAcronym)
		if code == "" {
			code = helper.GetDriverCodeName(d.FullName)
		}
		if code == "" {
			code = strconv.Itoa(d.DriverNumber)
		}
		drivers = append(drivers, model.Driver{
			Number:     d.DriverNumber,
			Code:       code,
			FullName:   d.FullName,
			TeamName:   d.TeamName,
			TeamColour: d.TeamColour,
		})
	}
	return drivers
}

type lapKey struct {
	driver int
	lap    int
}

// deletedLaps replays the race control messages in order; a reinstated lap
// is no longer deleted.
func deletedLaps(messages []openf1.RaceControl) map[lapKey]bool {
	sorted := append([]openf1.RaceControl(nil), messages...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	deleted := map[lapKey]bool{}
	for _, m := range sorted {
		msg := strings.ToUpper(m.Message)
		if g := deletedLapRe.FindStringSubmatch(msg); g != nil {
			driver, _ := strconv.Atoi(g[1])
			lap, _ := strconv.Atoi(g[2])
			deleted[lapKey{driver, lap}] = true
		} else if g := reinstatedLapRe.FindStringSubmatch(msg); g != nil {
			driver, _ := strconv.Atoi(g[1])
			lap, _ := strconv.Atoi(g[2])
			delete(deleted, lapKey{driver, lap})
		}
	}
	return deleted
}

func seconds(v *float64) time.Duration {
	if v == nil || *v <= 0 {
		return 0
	}
	return time.Duration(*v * float64(time.Second))
}

func buildLaps(s *model.Session, raw []openf1.Lap, pits []openf1.Pit, deleted map[lapKey]bool) []model.Lap {
	pitIn := map[lapKey]bool{}
	for _, p := range pits {
		pitIn[lapKey{p.DriverNumber, p.LapNumber}] = true
	}
	pitOut := map[lapKey]bool{}
	for _, r := range raw {
		if r.IsPitOutLap {
			pitOut[lapKey{r.DriverNumber, r.LapNumber}] = true
		}
	}

	laps := make([]model.Lap, 0, len(raw))
	for _, r := range raw {
		key := lapKey{r.DriverNumber, r.LapNumber}
		code := strconv.Itoa(r.DriverNumber)
		if d, ok := s.DriverByNumber(r.DriverNumber); ok {
			code = d.Code
		}
		lap := model.Lap{
			SessionKey:   s.Key,
			Driver:       code,
			DriverNumber: r.DriverNumber,
			LapNumber:    r.LapNumber,
			LapTime:      seconds(r.LapDuration),
			Sectors:      [3]time.Duration{seconds(r.DurationSector1), seconds(r.DurationSector2), seconds(r.DurationSector3)},
			PitOutLap:    r.IsPitOutLap,
			// the lap before an out lap ends in the pit lane
			PitInLap: pitIn[key] || pitOut[lapKey{r.DriverNumber, r.LapNumber + 1}],
			Deleted:  deleted[key],
		}
		if r.DateStart != nil {
			if t, err := openf1.ParseDate(*r.DateStart); err == nil {
				lap.Start = t
			}
		}
		laps = append(laps, lap)
	}
	sort.SliceStable(laps, func(i, j int) bool {
		if laps[i].DriverNumber != laps[j].DriverNumber {
			return laps[i].DriverNumber < laps[j].DriverNumber
		}
		return laps[i].LapNumber < laps[j].LapNumber
	})
	return laps
}

// Describe is used in log lines and figure titles.
func Describe(s *model.Session, d1, d2 string) string {
	return fmt.Sprintf("%d %s - %s - %s vs %s", s.Year, s.EventName, s.Name, d1, d2)
}
