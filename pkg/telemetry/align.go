package telemetry

import (
	"math"
	"sort"

	"f1lapcompare/pkg/model"

	"github.com/pkg/errors"
)

const (
	DefaultDistanceStep = 5.0 // metres
	DefaultTimeStep     = 0.1 // seconds
)

// DefaultStep returns the grid spacing used when none is configured.
func DefaultStep(axis model.Axis) float64 {
	if axis == model.AxisDistance {
		return DefaultDistanceStep
	}
	return DefaultTimeStep
}

// AddDistance integrates speed over time (trapezoid rule) into the Distance
// channel. Samples must be ordered by time.
func AddDistance(samples []model.Sample) {
	if len(samples) == 0 {
		return
	}
	samples[0].Distance = 0
	for i := 1; i < len(samples); i++ {
		dt := samples[i].Time - samples[i-1].Time
		mean := (samples[i].Speed + samples[i-1].Speed) / 2 / 3.6
		samples[i].Distance = samples[i-1].Distance + mean*dt
	}
}

// Align orders the raw samples of a lap, adds distance and resamples them
// onto a uniform grid of the given step along axis.
func Align(driver string, lap int, samples []model.Sample, axis model.Axis, step float64) (model.Telemetry, error) {
	if len(samples) == 0 {
		return model.Telemetry{}, errors.Wrapf(model.ErrInvalid, "%s lap %d has no recorded telemetry", driver, lap)
	}
	if axis != model.AxisTime && axis != model.AxisDistance {
		return model.Telemetry{}, errors.Wrapf(model.ErrInvalid, "unknown axis %q", axis)
	}
	if step <= 0 || math.IsNaN(step) {
		return model.Telemetry{}, errors.Wrapf(model.ErrInvalid, "invalid step %v", step)
	}

	sorted := append([]model.Sample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	AddDistance(sorted)

	return model.Telemetry{
		Driver:  driver,
		Lap:     lap,
		Axis:    axis,
		Samples: Resample(sorted, axis, step),
	}, nil
}

// Resample interpolates samples, ordered along axis, onto first, first+step,
// ... up to the last axis value, which is always kept. Continuous channels
// are linearly interpolated, gear, brake and DRS hold the previous sample.
func Resample(samples []model.Sample, axis model.Axis, step float64) []model.Sample {
	if len(samples) < 2 {
		return append([]model.Sample(nil), samples...)
	}
	first := samples[0].AxisValue(axis)
	last := samples[len(samples)-1].AxisValue(axis)
	n := int(math.Floor((last-first)/step)) + 1

	out := make([]model.Sample, 0, n+1)
	j := 0
	for k := 0; k < n; k++ {
		x := first + float64(k)*step
		for j < len(samples)-2 && samples[j+1].AxisValue(axis) <= x {
			j++
		}
		out = append(out, interpolate(samples[j], samples[j+1], axis, x))
	}
	if last-out[len(out)-1].AxisValue(axis) > step*1e-6 {
		out = append(out, samples[len(samples)-1])
	}
	return out
}

func lerp(a, b, f float64) float64 {
	return a + f*(b-a)
}

func interpolate(a, b model.Sample, axis model.Axis, x float64) model.Sample {
	xa, xb := a.AxisValue(axis), b.AxisValue(axis)
	f := 0.0
	if xb > xa {
		f = math.Max(0, math.Min(1, (x-xa)/(xb-xa)))
	}
	s := model.Sample{
		Time:     lerp(a.Time, b.Time, f),
		Distance: lerp(a.Distance, b.Distance, f),
		Speed:    lerp(a.Speed, b.Speed, f),
		Throttle: lerp(a.Throttle, b.Throttle, f),
		RPM:      lerp(a.RPM, b.RPM, f),
		X:        lerp(a.X, b.X, f),
		Y:        lerp(a.Y, b.Y, f),
		Gear:     a.Gear,
		Brake:    a.Brake,
		DRS:      a.DRS,
	}
	// keep the grid value exact
	if axis == model.AxisDistance {
		s.Distance = x
	} else {
		s.Time = x
	}
	return s
}

// Values extracts one channel of the telemetry.
func Values(t model.Telemetry, fn func(model.Sample) float64) []float64 {
	vs := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		vs[i] = fn(s)
	}
	return vs
}

// AxisValues returns the x coordinates of the telemetry along its axis.
func AxisValues(t model.Telemetry) []float64 {
	return Values(t, func(s model.Sample) float64 { return s.AxisValue(t.Axis) })
}
