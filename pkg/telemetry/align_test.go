package telemetry

import (
	"testing"

	"f1lapcompare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constant 180 km/h (50 m/s) for 2 seconds, sampled every 0.25s
func steadySamples() []model.Sample {
	var samples []model.Sample
	for i := 8; i >= 0; i-- {
		samples = append(samples, model.Sample{
			Time:     float64(i) * 0.25,
			Speed:    180,
			Throttle: 100,
			Gear:     i/3 + 5,
			RPM:      10000 + float64(i)*100,
			DRS:      i >= 4,
			X:        float64(i),
		})
	}
	return samples
}

func TestAddDistance(t *testing.T) {
	samples := []model.Sample{{Time: 0, Speed: 0}, {Time: 1, Speed: 36}, {Time: 2, Speed: 36}}
	AddDistance(samples)
	assert.InDelta(t, 0, samples[0].Distance, 1e-9)
	assert.InDelta(t, 5, samples[1].Distance, 1e-9)
	assert.InDelta(t, 15, samples[2].Distance, 1e-9)
}

func TestAlignDistance(t *testing.T) {
	tel, err := Align("VER", 2, steadySamples(), model.AxisDistance, 10)
	require.NoError(t, err)
	assert.Equal(t, "VER", tel.Driver)
	assert.Equal(t, 2, tel.Lap)
	assert.Equal(t, model.AxisDistance, tel.Axis)
	require.Len(t, tel.Samples, 11)

	for i, s := range tel.Samples {
		assert.InDelta(t, float64(i)*10, s.Distance, 1e-9)
		assert.InDelta(t, float64(i)*0.2, s.Time, 1e-9)
		assert.InDelta(t, 180, s.Speed, 1e-9)
	}
	from, to := tel.Range()
	assert.InDelta(t, 0, from, 1e-9)
	assert.InDelta(t, 100, to, 1e-9)

	// 30m sits between the 0.5s and 0.75s samples: gear and DRS hold, RPM interpolates
	s := tel.Samples[3]
	assert.InDelta(t, 0.6, s.Time, 1e-9)
	assert.Equal(t, 5, s.Gear)
	assert.False(t, s.DRS)
	assert.InDelta(t, 10240, s.RPM, 1e-6)
	assert.True(t, tel.Samples[5].DRS)
	assert.Equal(t, 6, tel.Samples[5].Gear)
}

func TestAlignTimeKeepsLastSample(t *testing.T) {
	tel, err := Align("HAM", 1, steadySamples(), model.AxisTime, 0.3)
	require.NoError(t, err)
	xs := AxisValues(tel)
	require.Len(t, xs, 8)
	assert.InDelta(t, 0, xs[0], 1e-9)
	assert.InDelta(t, 1.8, xs[6], 1e-9)
	assert.InDelta(t, 2, xs[7], 1e-9)
}

func TestAlignIsMonotonic(t *testing.T) {
	samples := []model.Sample{
		{Time: 0, Speed: 100}, {Time: 0.2, Speed: 0}, {Time: 0.4, Speed: 0},
		{Time: 0.4, Speed: 50}, {Time: 1.7, Speed: 300}, {Time: 1.1, Speed: 200},
	}
	for _, axis := range []model.Axis{model.AxisTime, model.AxisDistance} {
		t.Run(string(axis), func(t *testing.T) {
			tel, err := Align("VER", 1, samples, axis, DefaultStep(axis))
			require.NoError(t, err)
			require.GreaterOrEqual(t, tel.Len(), 2)
			xs := AxisValues(tel)
			for i := 1; i < len(xs); i++ {
				assert.GreaterOrEqual(t, xs[i], xs[i-1], "sample %d", i)
			}
		})
	}
}

func TestAlignErrors(t *testing.T) {
	tests := []struct {
		name    string
		samples []model.Sample
		axis    model.Axis
		step    float64
	}{
		{name: "no telemetry", axis: model.AxisTime, step: 0.1},
		{name: "zero step", samples: steadySamples(), axis: model.AxisTime},
		{name: "unknown axis", samples: steadySamples(), axis: "lap", step: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align("VER", 1, tt.samples, tt.axis, tt.step)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}
}

func TestAlignSingleSample(t *testing.T) {
	tel, err := Align("VER", 1, []model.Sample{{Time: 3, Speed: 100}}, model.AxisTime, 0.1)
	require.NoError(t, err)
	require.Len(t, tel.Samples, 1)
	assert.InDelta(t, 0, tel.Samples[0].Distance, 1e-9)
}
