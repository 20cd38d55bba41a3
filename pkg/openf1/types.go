package openf1

// Meeting is a race weekend as published on /meetings.
type Meeting struct {
	MeetingKey          int    `json:"meeting_key"`
	MeetingName         string `json:"meeting_name"`
	MeetingOfficialName string `json:"meeting_official_name"`
	Location            string `json:"location"`
	CountryName         string `json:"country_name"`
	CircuitShortName    string `json:"circuit_short_name"`
	DateStart           string `json:"date_start"`
	Year                int    `json:"year"`
}

type Session struct {
	SessionKey  int    `json:"session_key"`
	SessionName string `json:"session_name"`
	SessionType string `json:"session_type"`
	MeetingKey  int    `json:"meeting_key"`
	DateStart   string `json:"date_start"`
	DateEnd     string `json:"date_end"`
	Year        int    `json:"year"`
}

type Driver struct {
	DriverNumber int    `json:"driver_number"`
	NameAcronym  string `json:"name_acronym"`
	FullName     string `json:"full_name"`
	TeamName     string `json:"team_name"`
	TeamColour   string `json:"team_colour"`
	SessionKey   int    `json:"session_key"`
}

// Lap uses pointers where the API publishes null for untimed laps.
type Lap struct {
	DriverNumber    int      `json:"driver_number"`
	LapNumber       int      `json:"lap_number"`
	LapDuration     *float64 `json:"lap_duration"`
	DurationSector1 *float64 `json:"duration_sector_1"`
	DurationSector2 *float64 `json:"duration_sector_2"`
	DurationSector3 *float64 `json:"duration_sector_3"`
	IsPitOutLap     bool     `json:"is_pit_out_lap"`
	DateStart       *string  `json:"date_start"`
	SessionKey      int      `json:"session_key"`
}

type CarData struct {
	Date         string  `json:"date"`
	DriverNumber int     `json:"driver_number"`
	Speed        float64 `json:"speed"`
	RPM          float64 `json:"rpm"`
	NGear        int     `json:"n_gear"`
	Throttle     float64 `json:"throttle"`
	Brake        float64 `json:"brake"`
	DRS          int     `json:"drs"`
}

type Location struct {
	Date         string  `json:"date"`
	DriverNumber int     `json:"driver_number"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
}

type Pit struct {
	DriverNumber int     `json:"driver_number"`
	LapNumber    int     `json:"lap_number"`
	PitDuration  float64 `json:"pit_duration"`
}

type RaceControl struct {
	Date         string `json:"date"`
	Category     string `json:"category"`
	Message      string `json:"message"`
	DriverNumber *int   `json:"driver_number"`
	LapNumber    *int   `json:"lap_number"`
}

// DRSOpen reports whether the DRS code means the flap is open.
// 10, 12 and 14 are the open states; 8 only means eligible.
func (c CarData) DRSOpen() bool {
	return c.DRS >= 10
}
