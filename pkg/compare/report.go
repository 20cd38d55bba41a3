package compare

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"f1lapcompare/pkg/helper"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/resources"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Kind string

const (
	KindLaps    Kind = "laps"
	KindFastest Kind = "fastest"
	KindRace    Kind = "race"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindLaps, KindFastest, KindRace:
		return k, true
	}
	return "", false
}

// File is a rendered figure of a report.
type File struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"-"`
}

func toFile(r resources.Resource) File {
	return File{Type: r.Type(), Name: r.FileName(), Path: r.FilePath()}
}

// Report is the outcome of a comparison.
type Report struct {
	ID       string                   `json:"id"`
	Kind     Kind                     `json:"kind"`
	Title    string                   `json:"title"`
	Session  string                   `json:"session"`
	Category string                   `json:"category"`
	Laps     [2]model.Lap             `json:"laps"`
	Delta    time.Duration            `json:"delta"`
	Segments []model.DominanceSegment `json:"segments,omitempty"`
	Share    map[string]float64       `json:"share,omitempty"`
	Files    []File                   `json:"files"`

	Result model.ComparisonResult `json:"-"`
}

// Summary is the one line lap time comparison, the gap is the second
// driver's.
func (r *Report) Summary() string {
	a, b := r.Laps[0], r.Laps[1]
	return fmt.Sprintf("%s %s | %s %s (%s)",
		a.Driver, helper.LapTime(a.LapTime), b.Driver, helper.LapTime(b.LapTime),
		strings.TrimSpace(helper.SecondsToDiff(-r.Delta.Seconds())))
}

// Table renders the lap times, sectors and gap of both laps.
func (r *Report) Table() string {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Driver", "Lap", "Time", "S1", "S2", "S3", "Gap"})
	for i, lap := range r.Laps {
		gap := ""
		if i == 1 {
			gap = helper.SecondsToDiff(-r.Delta.Seconds())
		}
		t.AppendRow(table.Row{
			lap.Driver,
			lap.LapNumber,
			helper.LapTime(lap.LapTime),
			helper.ToSectorTime(lap.Sectors[0]),
			helper.ToSectorTime(lap.Sectors[1]),
			helper.ToSectorTime(lap.Sectors[2]),
			gap,
		})
	}
	if len(r.Share) > 0 {
		t.AppendSeparator()
		for _, lap := range r.Laps {
			t.AppendRow(table.Row{lap.Driver, "", fmt.Sprintf("%.0f%% faster", r.Share[lap.Driver]*100)})
		}
	}
	t.Render()
	return b.String()
}

// FileOf returns the first figure of the given type.
func (r *Report) FileOf(_type string) (File, bool) {
	for _, f := range r.Files {
		if f.Type == _type {
			return f, true
		}
	}
	return File{}, false
}
