package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/config"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/render"
)

func TestFlagValue(t *testing.T) {
	assert.Equal(t, "speed,brake", flagValue([]any{"speed", "brake"}))
	assert.Equal(t, "42", flagValue(42))
	assert.Equal(t, "2.5", flagValue(2.5))
}

func TestBindFlags(t *testing.T) {
	var timeout string
	var step float64
	var channels []string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&timeout, "request-timeout", "30s", "")
	cmd.Flags().Float64Var(&step, "distance-step", 5, "")
	cmd.PersistentFlags().StringSliceVar(&channels, "channels", []string{"all"}, "")

	t.Setenv("F1LC_DISTANCE_STEP", "2.5")
	v := viper.New()
	v.Set("request-timeout", "5s")
	v.Set("channels", []any{"speed", "gear"})
	bindFlags(cmd, v)

	assert.Equal(t, "5s", timeout)
	assert.InDelta(t, 2.5, step, 1e-9)
	assert.Equal(t, []string{"speed", "gear"}, channels)
}

func TestBindFlagsKeepsCommandLine(t *testing.T) {
	var timeout string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&timeout, "request-timeout", "30s", "")
	require.NoError(t, cmd.Flags().Set("request-timeout", "1m"))

	v := viper.New()
	v.Set("request-timeout", "5s")
	bindFlags(cmd, v)
	assert.Equal(t, "1m", timeout)
}

func TestRenderConfig(t *testing.T) {
	config.ResourcesDir = t.TempDir()
	config.Channels = []string{"speed", "drs"}
	config.Layout = string(render.SideBySide)
	config.Width, config.Height = 800, 200

	cfg, err := renderConfig()
	require.NoError(t, err)
	assert.Equal(t, render.Channels{Speed: true, DRS: true}, cfg.Channels)
	assert.Equal(t, render.SideBySide, cfg.Layout)

	config.Channels = []string{"tyres"}
	_, err = renderConfig()
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestNewClientTimeout(t *testing.T) {
	config.CacheDir = ""
	config.RequestTimeout = "soon"
	_, err := newClient()
	assert.ErrorIs(t, err, model.ErrInvalid)

	config.RequestTimeout = time.Second.String()
	_, err = newClient()
	assert.NoError(t, err)
}

func TestPrintReport(t *testing.T) {
	r := &compare.Report{
		Title: "2021 Abu Dhabi Grand Prix - Qualifying - VER vs HAM",
		Laps: [2]model.Lap{
			{Driver: "VER", LapNumber: 2, LapTime: 82109 * time.Millisecond},
			{Driver: "HAM", LapNumber: 2, LapTime: 82480 * time.Millisecond},
		},
		Delta: -371 * time.Millisecond,
		Files: []compare.File{{Type: "channels", Name: "channels_1.png", Path: "figures/channels_1.png"}},
	}
	var b bytes.Buffer
	require.NoError(t, printReport(&b, r))
	assert.Contains(t, b.String(), "VER 01:22.109 | HAM 01:22.480 (+0.371s)")
	assert.Contains(t, b.String(), "channels: figures/channels_1.png")
}
