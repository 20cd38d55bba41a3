package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/openf1"
	"f1lapcompare/testsupport/fakeprovider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ld := NewLoader(fakeprovider.New(), nil)

	s, err := ld.Load(context.Background(), 2021, "abu dhabi", model.Qualifying)
	require.NoError(t, err)
	assert.Equal(t, fakeprovider.QualifyingKey, s.Key)
	assert.Equal(t, "Abu Dhabi Grand Prix", s.EventName)
	assert.Equal(t, "Qualifying", s.Name)
	assert.Len(t, s.Drivers, 2)
	require.Len(t, s.Laps, 6)
	for _, lap := range s.Laps {
		assert.Equal(t, s.Key, lap.SessionKey, "lap %s belongs to another session", lap)
		assert.Contains(t, []string{"VER", "HAM"}, lap.Driver)
	}
	assert.True(t, s.Laps[0].PitOutLap)
	assert.InDelta(t, 82.109, s.Laps[1].LapTime.Seconds(), 1e-6)
}

func TestLoadEventMatching(t *testing.T) {
	ld := NewLoader(fakeprovider.New(), nil)
	tests := []struct {
		name    string
		event   string
		wantKey int
		wantErr error
	}{
		{name: "meeting name", event: "Abu Dhabi Grand Prix", wantKey: fakeprovider.QualifyingKey},
		{name: "snake case", event: "abu_dhabi", wantKey: fakeprovider.QualifyingKey},
		{name: "location", event: "yas island", wantKey: fakeprovider.QualifyingKey},
		{name: "partial", event: "yas", wantKey: fakeprovider.QualifyingKey},
		{name: "round skips testing", event: "2", wantKey: fakeprovider.QualifyingKey},
		{name: "unknown", event: "monaco", wantErr: model.ErrNotFound},
		{name: "round out of range", event: "24", wantErr: model.ErrNotFound},
		{name: "round without session", event: "1", wantErr: model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ld.Load(context.Background(), 2021, tt.event, model.Qualifying)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, s.Key)
		})
	}
}

func TestLoadUnknownSession(t *testing.T) {
	_, err := NewLoader(fakeprovider.New(), nil).Load(context.Background(), 2021, "abu dhabi", model.Sprint)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = NewLoader(fakeprovider.New(), nil).Load(context.Background(), 1950, "abu dhabi", model.Race)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLoadProviderError(t *testing.T) {
	p := fakeprovider.New()
	p.Err = errors.Join(model.ErrProvider, errors.New("connection refused"))
	_, err := NewLoader(p, nil).Load(context.Background(), 2021, "abu dhabi", model.Race)
	assert.ErrorIs(t, err, model.ErrProvider)
}

func TestLoadFlagsLaps(t *testing.T) {
	p := fakeprovider.New()
	p.PitList[fakeprovider.RaceKey] = []openf1.Pit{{DriverNumber: 44, LapNumber: 2}}
	p.Messages[fakeprovider.RaceKey] = []openf1.RaceControl{
		{Date: "2021-12-12T13:10:00+00:00", Category: "Other", Message: "CAR 33 (VER) TIME 1:31.400 DELETED - TRACK LIMITS AT TURN 5 LAP 2 13:09:58"},
		{Date: "2021-12-12T13:11:00+00:00", Category: "Other", Message: "CAR 33 (VER) LAP DELETED - TRACK LIMITS AT TURN 9 LAP 3 13:10:59"},
		{Date: "2021-12-12T13:12:00+00:00", Category: "Other", Message: "CAR 33 (VER) TIME 1:33.000 REINSTATED LAP 3 13:11:50"},
	}
	s, err := NewLoader(p, nil).Load(context.Background(), 2021, "abu dhabi", model.Race)
	require.NoError(t, err)

	byKey := map[string]model.Lap{}
	for _, lap := range s.Laps {
		byKey[fmt.Sprintf("%s%d", lap.Driver, lap.LapNumber)] = lap
	}
	assert.True(t, byKey["VER2"].Deleted)
	assert.False(t, byKey["VER3"].Deleted)
	assert.True(t, byKey["HAM2"].PitInLap)
	assert.False(t, byKey["HAM1"].PitInLap)
}

func TestLapTelemetry(t *testing.T) {
	ld := NewLoader(fakeprovider.New(), nil)
	s, err := ld.Load(context.Background(), 2021, "abu dhabi", model.Race)
	require.NoError(t, err)

	lap := s.Laps[1]
	samples, err := ld.LapTelemetry(context.Background(), s, lap)
	require.NoError(t, err)
	require.NotEmpty(t, samples)
	assert.InDelta(t, 0, samples[0].Time, 1e-6)
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i].Time, samples[i-1].Time)
	}
	assert.Less(t, samples[len(samples)-1].Time, lap.LapTime.Seconds()+1e-3)
	// first sample of the lap sits on the start line of the circle
	radius := fakeprovider.TrackLength / (2 * math.Pi)
	assert.InDelta(t, radius, samples[0].X, 1e-6)
	assert.InDelta(t, 0, samples[0].Y, 1e-6)
}

func TestLapTelemetryMissing(t *testing.T) {
	p := fakeprovider.New()
	ld := NewLoader(p, nil)
	s, err := ld.Load(context.Background(), 2021, "abu dhabi", model.Race)
	require.NoError(t, err)

	p.ClearTelemetry(fakeprovider.RaceKey, 33)
	_, err = ld.LapTelemetry(context.Background(), s, s.Laps[0])
	assert.ErrorIs(t, err, model.ErrInvalid)

	untimed := s.Laps[0]
	untimed.LapTime = 0
	_, err = ld.LapTelemetry(context.Background(), s, untimed)
	assert.ErrorIs(t, err, model.ErrInvalid)

	foreign := s.Laps[0]
	foreign.SessionKey = 1
	_, err = ld.LapTelemetry(context.Background(), s, foreign)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestMergePositions(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []model.Sample{{Time: -1}, {Time: 0.5}, {Time: 1.5}, {Time: 5}}
	loc := []openf1.Location{
		{Date: fakeprovider.Date(start), X: 0, Y: 0},
		{Date: fakeprovider.Date(start.Add(time.Second)), X: 10, Y: 20},
		{Date: fakeprovider.Date(start.Add(2 * time.Second)), X: 20, Y: 20},
	}
	mergePositions(samples, start, loc)
	assert.Equal(t, model.Sample{Time: -1}, samples[0])
	assert.InDelta(t, 5, samples[1].X, 1e-9)
	assert.InDelta(t, 10, samples[1].Y, 1e-9)
	assert.InDelta(t, 15, samples[2].X, 1e-9)
	assert.InDelta(t, 20, samples[2].Y, 1e-9)
	assert.InDelta(t, 20, samples[3].X, 1e-9)
}
