package laps

import (
	"sort"

	"f1lapcompare/pkg/model"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Fastest is the lap number used to ask Select for the fastest lap.
const Fastest = 0

// PickDriver returns all laps of a driver in lap order.
func PickDriver(s *model.Session, code string) ([]model.Lap, error) {
	d, found := s.DriverByCode(code)
	if !found {
		return nil, errors.Wrapf(model.ErrNotFound, "driver %s did not take part in %s", code, s)
	}
	laps := lo.Filter(s.Laps, func(l model.Lap, _ int) bool {
		return l.DriverNumber == d.Number
	})
	if len(laps) == 0 {
		return nil, errors.Wrapf(model.ErrNotFound, "driver %s has no laps in %s", d.Code, s)
	}
	sort.SliceStable(laps, func(i, j int) bool {
		return laps[i].LapNumber < laps[j].LapNumber
	})
	return laps, nil
}

// PickFastest returns the quickest valid lap. On equal times the earlier lap
// wins.
func PickFastest(laps []model.Lap) (model.Lap, error) {
	valid := lo.Filter(laps, func(l model.Lap, _ int) bool {
		return l.Valid()
	})
	if len(valid) == 0 {
		return model.Lap{}, errors.Wrap(model.ErrNotFound, "no valid timed lap")
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].LapNumber < valid[j].LapNumber
	})
	return lo.MinBy(valid, func(a, b model.Lap) bool {
		return a.LapTime < b.LapTime
	}), nil
}

func PickLap(laps []model.Lap, number int) (model.Lap, error) {
	lap, found := lo.Find(laps, func(l model.Lap) bool {
		return l.LapNumber == number
	})
	if !found {
		return model.Lap{}, errors.Wrapf(model.ErrNotFound, "lap %d", number)
	}
	return lap, nil
}

// Select returns the fastest lap of a driver when number is Fastest, the
// given lap otherwise.
func Select(s *model.Session, code string, number int) (model.Lap, error) {
	laps, err := PickDriver(s, code)
	if err != nil {
		return model.Lap{}, err
	}
	var lap model.Lap
	if number == Fastest {
		lap, err = PickFastest(laps)
	} else {
		lap, err = PickLap(laps, number)
	}
	if err != nil {
		return model.Lap{}, errors.Wrapf(err, "%s in %s", code, s)
	}
	return lap, nil
}
