package model

import (
	"fmt"
	"strings"
	"time"
)

type SessionType string

const (
	Practice1        SessionType = "FP1"
	Practice2        SessionType = "FP2"
	Practice3        SessionType = "FP3"
	Qualifying       SessionType = "Q"
	Sprint           SessionType = "S"
	SprintShootout   SessionType = "SS"
	SprintQualifying SessionType = "SQ"
	Race             SessionType = "R"

	sessionTypeCodes = "FP1, FP2, FP3, Q, S, SS, SQ, R"
)

var sessionNames = map[SessionType]string{
	Practice1:        "Practice 1",
	Practice2:        "Practice 2",
	Practice3:        "Practice 3",
	Qualifying:       "Qualifying",
	Sprint:           "Sprint",
	SprintShootout:   "Sprint Shootout",
	SprintQualifying: "Sprint Qualifying",
	Race:             "Race",
}

// ParseSessionType accepts either the short code (Q, FP2, ...) or the full
// session name as published by the provider (Qualifying, Practice 2, ...).
func ParseSessionType(s string) (SessionType, error) {
	v := strings.TrimSpace(s)
	for t, name := range sessionNames {
		if strings.EqualFold(v, string(t)) || strings.EqualFold(v, name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown session type %q (expected one of %s)", ErrInvalid, s, sessionTypeCodes)
}

// Name returns the provider's session name for the type.
func (t SessionType) Name() string {
	return sessionNames[t]
}

// Category groups session types the way subscriptions are stored.
func (t SessionType) Category() string {
	switch t {
	case Practice1, Practice2, Practice3:
		return "Practice"
	case Qualifying, SprintShootout, SprintQualifying:
		return "Qual"
	case Sprint, Race:
		return "Race"
	}
	return ""
}

type Axis string

const (
	AxisTime     Axis = "time"
	AxisDistance Axis = "distance"
)

type Driver struct {
	Number     int    `json:"number"`
	Code       string `json:"code"`
	FullName   string `json:"fullName"`
	TeamName   string `json:"teamName"`
	TeamColour string `json:"teamColour"`
}

type Session struct {
	Key          int         `json:"key"`
	Year         int         `json:"year"`
	Type         SessionType `json:"type"`
	Name         string      `json:"name"`
	EventName    string      `json:"eventName"`
	OfficialName string      `json:"officialName"`
	Circuit      string      `json:"circuit"`
	Start        time.Time   `json:"start"`
	Drivers      []Driver    `json:"drivers"`
	Laps         []Lap       `json:"laps"`
}

func (s *Session) String() string {
	return fmt.Sprintf("%d %s - %s", s.Year, s.EventName, s.Name)
}

// DriverByCode looks up a driver by its three letter code, case-insensitive.
func (s *Session) DriverByCode(code string) (Driver, bool) {
	for _, d := range s.Drivers {
		if strings.EqualFold(d.Code, code) {
			return d, true
		}
	}
	return Driver{}, false
}

func (s *Session) DriverByNumber(number int) (Driver, bool) {
	for _, d := range s.Drivers {
		if d.Number == number {
			return d, true
		}
	}
	return Driver{}, false
}

type Lap struct {
	SessionKey   int              `json:"sessionKey"`
	Driver       string           `json:"driver"`
	DriverNumber int              `json:"driverNumber"`
	LapNumber    int              `json:"lapNumber"`
	LapTime      time.Duration    `json:"lapTime"`
	Sectors      [3]time.Duration `json:"sectors"`
	Start        time.Time        `json:"start"`
	PitOutLap    bool             `json:"pitOutLap"`
	PitInLap     bool             `json:"pitInLap"`
	Deleted      bool             `json:"deleted"`
}

// Valid reports whether the lap may count as a representative timed lap.
func (l Lap) Valid() bool {
	return l.LapTime > 0 && !l.Start.IsZero() && !l.Deleted && !l.PitInLap && !l.PitOutLap
}

func (l Lap) End() time.Time {
	return l.Start.Add(l.LapTime)
}

func (l Lap) String() string {
	return fmt.Sprintf("%s lap %d (%s)", l.Driver, l.LapNumber, l.LapTime)
}

// Sample is one telemetry reading. Time is seconds since the lap start and
// Distance metres since the lap start.
type Sample struct {
	Time     float64 `json:"time"`
	Distance float64 `json:"distance"`
	Speed    float64 `json:"speed"`
	Throttle float64 `json:"throttle"`
	Brake    bool    `json:"brake"`
	Gear     int     `json:"gear"`
	RPM      float64 `json:"rpm"`
	DRS      bool    `json:"drs"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// AxisValue returns the coordinate of the sample along the given axis.
func (s Sample) AxisValue(a Axis) float64 {
	if a == AxisDistance {
		return s.Distance
	}
	return s.Time
}

type Telemetry struct {
	Driver  string   `json:"driver"`
	Lap     int      `json:"lap"`
	Axis    Axis     `json:"axis"`
	Samples []Sample `json:"samples"`
}

func (t Telemetry) Len() int {
	return len(t.Samples)
}

// Range returns the first and last axis values.
func (t Telemetry) Range() (float64, float64) {
	if len(t.Samples) == 0 {
		return 0, 0
	}
	return t.Samples[0].AxisValue(t.Axis), t.Samples[len(t.Samples)-1].AxisValue(t.Axis)
}

type ComparisonResult struct {
	Session *Session     `json:"session"`
	Laps    [2]Lap       `json:"laps"`
	Series  [2]Telemetry `json:"series"`
}

// Delta is the lap time of the first driver minus the second one.
func (c ComparisonResult) Delta() time.Duration {
	return c.Laps[0].LapTime - c.Laps[1].LapTime
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DominanceSegment covers [Start, End) metres of the lap. Faster is empty
// when neither driver was quicker.
type DominanceSegment struct {
	Start      float64    `json:"start"`
	End        float64    `json:"end"`
	Faster     string     `json:"faster"`
	MeanSpeeds [2]float64 `json:"meanSpeeds"`
	Points     []Point    `json:"points"`
}
