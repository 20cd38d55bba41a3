package bot

import (
	"strconv"
	"strings"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/model"

	"github.com/pkg/errors"
)

// CompareArgs are the parsed arguments of /compare, /fastest and /race.
type CompareArgs struct {
	Kind    compare.Kind
	Year    int
	GP      string
	Session model.SessionType
	D1, D2  string
	Lap     int
}

func usage(kind compare.Kind) string {
	if kind == compare.KindRace {
		return "/race <year> <grand prix> <driver1> <driver2> [lap]"
	}
	return "/" + commandOf(kind) + " <year> <grand prix> <session> <driver1> <driver2>"
}

func commandOf(kind compare.Kind) string {
	if kind == compare.KindLaps {
		return "compare"
	}
	return string(kind)
}

// ParseCompareArgs reads "<year> <gp...> <session> <d1> <d2>", or
// "<year> <gp...> <d1> <d2> [lap]" for race laps. The grand prix may span
// several words.
func ParseCompareArgs(kind compare.Kind, args []string) (CompareArgs, error) {
	a := CompareArgs{Kind: kind, Session: model.Race}
	need := 5
	if kind == compare.KindRace {
		need = 4
		if n := len(args); n > 4 {
			if lap, err := strconv.Atoi(args[n-1]); err == nil {
				a.Lap = lap
				args = args[:n-1]
			}
		}
	}
	if len(args) < need {
		return a, errors.Wrapf(model.ErrInvalid, "usage: %s", usage(kind))
	}

	year, err := strconv.Atoi(args[0])
	if err != nil {
		return a, errors.Wrapf(model.ErrInvalid, "invalid year %q, usage: %s", args[0], usage(kind))
	}
	a.Year = year

	n := len(args)
	a.D1, a.D2 = strings.ToUpper(args[n-2]), strings.ToUpper(args[n-1])
	rest := args[1 : n-2]
	if kind != compare.KindRace {
		if a.Session, err = model.ParseSessionType(rest[len(rest)-1]); err != nil {
			return a, err
		}
		rest = rest[:len(rest)-1]
	}
	a.GP = strings.Join(rest, " ")
	return a, nil
}
