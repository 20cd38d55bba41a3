package render

import (
	"fmt"
	"strings"

	"f1lapcompare/pkg/model"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Channel string

const (
	Speed    Channel = "speed"
	Throttle Channel = "throttle"
	Brake    Channel = "brake"
	Gear     Channel = "gear"
	RPM      Channel = "rpm"
	DRS      Channel = "drs"
)

// AllChannels lists the supported channels in drawing order.
var AllChannels = []Channel{Speed, Throttle, Brake, Gear, RPM, DRS}

// Channels selects which telemetry channels are charted.
type Channels struct {
	Speed    bool
	Throttle bool
	Brake    bool
	Gear     bool
	RPM      bool
	DRS      bool
}

func EveryChannel() Channels {
	return Channels{Speed: true, Throttle: true, Brake: true, Gear: true, RPM: true, DRS: true}
}

// ParseChannels builds a selection from names such as "speed,brake". "all"
// selects every channel.
func ParseChannels(names []string) (Channels, error) {
	var c Channels
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			switch Channel(strings.ToLower(strings.TrimSpace(part))) {
			case "":
			case "all":
				c = EveryChannel()
			case Speed:
				c.Speed = true
			case Throttle:
				c.Throttle = true
			case Brake:
				c.Brake = true
			case Gear:
				c.Gear = true
			case RPM:
				c.RPM = true
			case DRS:
				c.DRS = true
			default:
				return c, errors.Wrapf(model.ErrInvalid, "unknown channel %q", part)
			}
		}
	}
	return c, nil
}

// List returns the selected channels in drawing order.
func (c Channels) List() []Channel {
	on := map[Channel]bool{
		Speed: c.Speed, Throttle: c.Throttle, Brake: c.Brake, Gear: c.Gear, RPM: c.RPM, DRS: c.DRS,
	}
	return lo.Filter(AllChannels, func(ch Channel, _ int) bool { return on[ch] })
}

func (c Channels) Empty() bool {
	return len(c.List()) == 0
}

type Layout string

const (
	Stacked    Layout = "stacked"
	SideBySide Layout = "side-by-side"
)

func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case Stacked, "":
		return Stacked, nil
	case SideBySide, "side", "sidebyside":
		return SideBySide, nil
	}
	return "", errors.Wrapf(model.ErrInvalid, "unknown layout %q", s)
}

// Config drives the plot renderer. Width is the width of the whole channel
// figure, Height the height of a single channel chart.
type Config struct {
	Channels Channels
	Layout   Layout
	Width    int
	Height   int
	OutDir   string
}

func DefaultConfig(outDir string) Config {
	return Config{
		Channels: EveryChannel(),
		Layout:   Stacked,
		Width:    1200,
		Height:   260,
		OutDir:   outDir,
	}
}

func (c Config) Validate() error {
	if c.Channels.Empty() {
		return errors.Wrap(model.ErrInvalid, "no channel selected")
	}
	if c.Layout != Stacked && c.Layout != SideBySide {
		return errors.Wrapf(model.ErrInvalid, "unknown layout %q", c.Layout)
	}
	if c.Width < 200 || c.Height < 100 {
		return errors.Wrapf(model.ErrInvalid, "figure size %dx%d too small", c.Width, c.Height)
	}
	if c.OutDir == "" {
		return errors.Wrap(model.ErrInvalid, "no output directory")
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("%v %s %dx%d", c.Channels.List(), c.Layout, c.Width, c.Height)
}
