package cmd

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/config"
	"f1lapcompare/pkg/log"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/openf1"
	"f1lapcompare/pkg/render"
	"f1lapcompare/pkg/resources"
	"f1lapcompare/pkg/session"
)

func renderConfig() (render.Config, error) {
	cfg := render.DefaultConfig(config.ResourcesDir)
	channels, err := render.ParseChannels(config.Channels)
	if err != nil {
		return cfg, err
	}
	layout, err := render.ParseLayout(config.Layout)
	if err != nil {
		return cfg, err
	}
	cfg.Channels = channels
	cfg.Layout = layout
	cfg.Width = config.Width
	cfg.Height = config.Height
	return cfg, cfg.Validate()
}

func newClient() (*openf1.Client, error) {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil {
		return nil, errors.Wrapf(model.ErrInvalid, "invalid request timeout %q", config.RequestTimeout)
	}
	opts := []openf1.Option{
		openf1.WithHTTPClient(&http.Client{Timeout: timeout}),
		openf1.WithLogger(log.Named("openf1")),
	}
	if config.CacheDir != "" {
		cache, err := resources.NewCache(config.CacheDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, openf1.WithCache(cache))
	}
	return openf1.NewClient(config.ProviderURL, opts...), nil
}

// newService wires the provider client, the renderer and the comparison
// pipeline from the resolved configuration.
func newService(extra ...compare.Option) (*compare.Service, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	rcfg, err := renderConfig()
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewRenderer(rcfg, log.Named("render"))
	if err != nil {
		return nil, err
	}
	opts := []compare.Option{
		compare.WithBins(config.DominanceBins),
		compare.WithSteps(config.DistanceStep, config.TimeStep),
		compare.WithLogger(log.Named("compare")),
	}
	opts = append(opts, extra...)
	return compare.NewService(session.NewLoader(client, log.Named("session")), renderer, opts...), nil
}
