// Package fakeprovider serves synthetic OpenF1 data for tests.
package fakeprovider

import (
	"context"
	"math"
	"time"

	"f1lapcompare/pkg/openf1"
)

const (
	dateLayout = "2006-01-02T15:04:05.000000+00:00"

	MeetingKey    = 1107
	QualifyingKey = 9100
	RaceKey       = 9200
	TrackLength   = 5000.0
	SampleRate    = 4 // samples per second
)

var SessionStart = time.Date(2021, 12, 11, 13, 0, 0, 0, time.UTC)

type carKey struct {
	session int
	driver  int
}

// Provider implements session.Provider from in-memory tables.
type Provider struct {
	MeetingList []openf1.Meeting
	SessionList map[int][]openf1.Session
	DriverList  map[int][]openf1.Driver
	LapList     map[int][]openf1.Lap
	PitList     map[int][]openf1.Pit
	Messages    map[int][]openf1.RaceControl
	car         map[carKey][]openf1.CarData
	loc         map[carKey][]openf1.Location

	// Err, when set, is returned by every call.
	Err error
}

func Date(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func ptr[T any](v T) *T {
	return &v
}

// LapSpec describes one synthetic lap. Phase shifts where along the lap the
// driver is quicker.
type LapSpec struct {
	Number  int
	Time    float64
	PitOut  bool
	Untimed bool
	Phase   float64
}

// New builds a 2021 Abu Dhabi weekend with a qualifying and a race session,
// VER (1) and HAM (44) on track.
func New() *Provider {
	p := &Provider{
		MeetingList: []openf1.Meeting{
			{MeetingKey: 1000, MeetingName: "Pre-Season Testing", Location: "Sakhir", CountryName: "Bahrain", CircuitShortName: "Sakhir", DateStart: "2021-03-12T07:00:00+00:00", Year: 2021},
			{MeetingKey: 1001, MeetingName: "Bahrain Grand Prix", MeetingOfficialName: "FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2021", Location: "Sakhir", CountryName: "Bahrain", CircuitShortName: "Sakhir", DateStart: "2021-03-26T11:30:00+00:00", Year: 2021},
			{MeetingKey: MeetingKey, MeetingName: "Abu Dhabi Grand Prix", MeetingOfficialName: "FORMULA 1 ETIHAD AIRWAYS ABU DHABI GRAND PRIX 2021", Location: "Yas Island", CountryName: "United Arab Emirates", CircuitShortName: "Yas Marina Circuit", DateStart: "2021-12-10T09:30:00+00:00", Year: 2021},
		},
		SessionList: map[int][]openf1.Session{
			MeetingKey: {
				{SessionKey: QualifyingKey, SessionName: "Qualifying", SessionType: "Qualifying", MeetingKey: MeetingKey, DateStart: Date(SessionStart), Year: 2021},
				{SessionKey: RaceKey, SessionName: "Race", SessionType: "Race", MeetingKey: MeetingKey, DateStart: Date(SessionStart.Add(24 * time.Hour)), Year: 2021},
			},
		},
		DriverList: map[int][]openf1.Driver{},
		LapList:    map[int][]openf1.Lap{},
		PitList:    map[int][]openf1.Pit{},
		Messages:   map[int][]openf1.RaceControl{},
		car:        map[carKey][]openf1.CarData{},
		loc:        map[carKey][]openf1.Location{},
	}
	for _, key := range []int{QualifyingKey, RaceKey} {
		p.DriverList[key] = []openf1.Driver{
			{DriverNumber: 33, NameAcronym: "VER", FullName: "Max VERSTAPPEN", TeamName: "Red Bull Racing", TeamColour: "3671C6", SessionKey: key},
			{DriverNumber: 44, NameAcronym: "HAM", FullName: "Lewis HAMILTON", TeamName: "Mercedes", TeamColour: "27F4D2", SessionKey: key},
		}
	}
	p.AddLaps(QualifyingKey, 33, SessionStart.Add(10*time.Minute), []LapSpec{
		{Number: 1, Time: 95, PitOut: true},
		{Number: 2, Time: 82.109, Phase: 0},
		{Number: 3, Time: 100},
	})
	p.AddLaps(QualifyingKey, 44, SessionStart.Add(11*time.Minute), []LapSpec{
		{Number: 1, Time: 96, PitOut: true},
		{Number: 2, Time: 82.480, Phase: math.Pi},
		{Number: 3, Time: 101},
	})
	raceStart := SessionStart.Add(24*time.Hour + 5*time.Minute)
	p.AddLaps(RaceKey, 33, raceStart, []LapSpec{
		{Number: 1, Time: 92.1},
		{Number: 2, Time: 91.4},
		{Number: 3, Time: 93.0},
	})
	p.AddLaps(RaceKey, 44, raceStart.Add(500*time.Millisecond), []LapSpec{
		{Number: 1, Time: 92.5, Phase: math.Pi / 2},
		{Number: 2, Time: 91.9, Phase: math.Pi / 2},
		{Number: 3, Time: 92.2, Phase: math.Pi / 2},
	})
	return p
}

// AddLaps appends back to back laps for a driver, generating car data and
// positions on a circular track of TrackLength metres.
func (p *Provider) AddLaps(sessionKey, driver int, start time.Time, specs []LapSpec) {
	key := carKey{sessionKey, driver}
	at := start
	for _, spec := range specs {
		lap := openf1.Lap{
			DriverNumber: driver,
			LapNumber:    spec.Number,
			IsPitOutLap:  spec.PitOut,
			DateStart:    ptr(Date(at)),
			SessionKey:   sessionKey,
		}
		if !spec.Untimed {
			lap.LapDuration = ptr(spec.Time)
			lap.DurationSector1 = ptr(spec.Time / 3)
			lap.DurationSector2 = ptr(spec.Time / 3)
			lap.DurationSector3 = ptr(spec.Time / 3)
		}
		p.LapList[sessionKey] = append(p.LapList[sessionKey], lap)

		radius := TrackLength / (2 * math.Pi)
		mean := TrackLength / spec.Time * 3.6
		n := int(spec.Time * SampleRate)
		for i := 0; i < n; i++ {
			t := float64(i) / SampleRate
			frac := t / spec.Time
			date := Date(at.Add(time.Duration(t * float64(time.Second))))
			speed := mean * (1 + 0.1*math.Sin(2*math.Pi*frac+spec.Phase))
			drs := 0
			if frac > 0.8 {
				drs = 12
			}
			brake := 0.0
			if math.Sin(2*math.Pi*frac+spec.Phase) < -0.9 {
				brake = 100
			}
			p.car[key] = append(p.car[key], openf1.CarData{
				Date:         date,
				DriverNumber: driver,
				Speed:        speed,
				RPM:          9000 + 30*speed,
				NGear:        1 + int(math.Min(7, speed/45)),
				Throttle:     math.Min(100, speed/3),
				Brake:        brake,
				DRS:          drs,
			})
			angle := 2 * math.Pi * frac
			p.loc[key] = append(p.loc[key], openf1.Location{
				Date:         date,
				DriverNumber: driver,
				X:            radius * math.Cos(angle),
				Y:            radius * math.Sin(angle),
			})
		}
		at = at.Add(time.Duration(spec.Time * float64(time.Second)))
	}
}

// ClearTelemetry drops the car data of a driver to simulate missing data.
func (p *Provider) ClearTelemetry(sessionKey, driver int) {
	delete(p.car, carKey{sessionKey, driver})
	delete(p.loc, carKey{sessionKey, driver})
}

func (p *Provider) Meetings(ctx context.Context, year int) ([]openf1.Meeting, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	var ms []openf1.Meeting
	for _, m := range p.MeetingList {
		if m.Year == year {
			ms = append(ms, m)
		}
	}
	return ms, nil
}

func (p *Provider) Sessions(ctx context.Context, meetingKey int) ([]openf1.Session, error) {
	return p.SessionList[meetingKey], p.Err
}

func (p *Provider) Drivers(ctx context.Context, sessionKey int) ([]openf1.Driver, error) {
	return p.DriverList[sessionKey], p.Err
}

func (p *Provider) Laps(ctx context.Context, sessionKey int) ([]openf1.Lap, error) {
	return p.LapList[sessionKey], p.Err
}

func (p *Provider) Pits(ctx context.Context, sessionKey int) ([]openf1.Pit, error) {
	return p.PitList[sessionKey], p.Err
}

func (p *Provider) RaceControl(ctx context.Context, sessionKey int) ([]openf1.RaceControl, error) {
	return p.Messages[sessionKey], p.Err
}

func inRange(date string, from, to time.Time) bool {
	t, err := openf1.ParseDate(date)
	if err != nil {
		return false
	}
	return !t.Before(from) && t.Before(to)
}

func (p *Provider) CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]openf1.CarData, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	var out []openf1.CarData
	for _, c := range p.car[carKey{sessionKey, driverNumber}] {
		if inRange(c.Date, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *Provider) Location(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]openf1.Location, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	var out []openf1.Location
	for _, l := range p.loc[carKey{sessionKey, driverNumber}] {
		if inRange(l.Date, from, to) {
			out = append(out, l)
		}
	}
	return out, nil
}
