package dominance

import (
	"math"

	"f1lapcompare/pkg/model"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	// DefaultBins is the number of minisectors the shared distance is split in.
	DefaultBins = 25
	tolerance   = 1e-9
)

type bin struct {
	model.DominanceSegment
	n int
}

// Compute splits the distance range covered by both laps in equal bins and
// labels each with the driver carrying the higher mean speed. Bins with the
// same label are merged. Parts of a lap outside the other lap's range are
// ignored, disjoint laps give no segment.
func Compute(a, b model.Telemetry, bins int) ([]model.DominanceSegment, error) {
	if a.Axis != model.AxisDistance || b.Axis != model.AxisDistance {
		return nil, errors.Wrapf(model.ErrInvalid, "dominance needs distance aligned telemetry, got %s and %s", a.Axis, b.Axis)
	}
	if a.Len() < 2 || b.Len() < 2 {
		return nil, errors.Wrapf(model.ErrInvalid, "dominance needs at least two samples per lap, got %d and %d", a.Len(), b.Len())
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	aFrom, aTo := a.Range()
	bFrom, bTo := b.Range()
	from, to := math.Max(aFrom, bFrom), math.Min(aTo, bTo)
	if to <= from {
		return nil, nil
	}

	width := (to - from) / float64(bins)
	var merged []bin
	for k := 0; k < bins; k++ {
		start := from + float64(k)*width
		end := from + float64(k+1)*width
		if k == bins-1 {
			end = to
		}
		closed := k == bins-1
		sa := meanSpeed(a, start, end, closed)
		sb := meanSpeed(b, start, end, closed)

		faster := ""
		switch diff := sa - sb; {
		case diff > tolerance:
			faster = a.Driver
		case diff < -tolerance:
			faster = b.Driver
		}

		if n := len(merged); n > 0 && merged[n-1].Faster == faster {
			last := &merged[n-1]
			last.MeanSpeeds[0] = (last.MeanSpeeds[0]*float64(last.n) + sa) / float64(last.n+1)
			last.MeanSpeeds[1] = (last.MeanSpeeds[1]*float64(last.n) + sb) / float64(last.n+1)
			last.End = end
			last.Points = append(last.Points, points(a, start, end)[1:]...)
			last.n++
			continue
		}
		merged = append(merged, bin{
			DominanceSegment: model.DominanceSegment{
				Start:      start,
				End:        end,
				Faster:     faster,
				MeanSpeeds: [2]float64{sa, sb},
				Points:     points(a, start, end),
			},
			n: 1,
		})
	}
	return lo.Map(merged, func(m bin, _ int) model.DominanceSegment {
		return m.DominanceSegment
	}), nil
}

// meanSpeed averages the samples inside [start, end), or [start, end] for
// the last bin. A bin narrower than the sampling step uses the speed
// interpolated at its middle.
func meanSpeed(t model.Telemetry, start, end float64, closed bool) float64 {
	sum, n := 0.0, 0
	for _, s := range t.Samples {
		if d := s.Distance; d >= start && (d < end || closed && d == end) {
			sum += s.Speed
			n++
		}
	}
	if n == 0 {
		return at(t, (start+end)/2).Speed
	}
	return sum / float64(n)
}

// points returns the track positions of t between start and end, both
// boundaries included so consecutive segments join up.
func points(t model.Telemetry, start, end float64) []model.Point {
	first := at(t, start)
	ps := []model.Point{{X: first.X, Y: first.Y}}
	for _, s := range t.Samples {
		if s.Distance > start && s.Distance < end {
			ps = append(ps, model.Point{X: s.X, Y: s.Y})
		}
	}
	last := at(t, end)
	return append(ps, model.Point{X: last.X, Y: last.Y})
}

// at interpolates speed and position at distance d.
func at(t model.Telemetry, d float64) model.Sample {
	ss := t.Samples
	if d <= ss[0].Distance {
		return ss[0]
	}
	for i := 1; i < len(ss); i++ {
		if ss[i].Distance >= d {
			a, b := ss[i-1], ss[i]
			f := 0.0
			if b.Distance > a.Distance {
				f = (d - a.Distance) / (b.Distance - a.Distance)
			}
			return model.Sample{
				Distance: d,
				Speed:    a.Speed + f*(b.Speed-a.Speed),
				X:        a.X + f*(b.X-a.X),
				Y:        a.Y + f*(b.Y-a.Y),
			}
		}
	}
	return ss[len(ss)-1]
}

// Share returns the fraction of the covered distance each driver was faster
// on, keyed by driver code.
func Share(segments []model.DominanceSegment) map[string]float64 {
	total := 0.0
	share := map[string]float64{}
	for _, s := range segments {
		total += s.End - s.Start
		if s.Faster != "" {
			share[s.Faster] += s.End - s.Start
		}
	}
	if total == 0 {
		return share
	}
	for k := range share {
		share[k] /= total
	}
	return share
}
