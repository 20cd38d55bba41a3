package openf1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/resources"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultURL = "https://api.openf1.org/v1"
	dateLayout = "2006-01-02T15:04:05.000"
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithCache keeps every successful response in the given cache so repeated
// comparisons do not hit the API again.
func WithCache(cache *resources.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.l = l
	}
}

// Client talks to the OpenF1 REST API.
type Client struct {
	baseURL string
	hc      *http.Client
	cache   *resources.Cache
	l       *zap.Logger
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      http.DefaultClient,
		l:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type param struct {
	key   string
	op    string
	value string
}

func eq(key string, v any) param {
	return param{key: key, op: "=", value: fmt.Sprint(v)}
}

func gte(key string, t time.Time) param {
	return param{key: key, op: ">=", value: t.UTC().Format(dateLayout)}
}

func lt(key string, t time.Time) param {
	return param{key: key, op: "<", value: t.UTC().Format(dateLayout)}
}

// requestURL keeps the comparison operators unescaped, the API expects them
// verbatim in the query string (date>=...).
func (c *Client) requestURL(endpoint string, params ...param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.key+p.op+url.QueryEscape(p.value))
	}
	u := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if len(parts) > 0 {
		u += "?" + strings.Join(parts, "&")
	}
	return u
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	c.l.Debug("fetching", zap.String("url", u))
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(model.ErrProvider, "request %s: %v", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(model.ErrProvider, "reading %s: %v", u, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		// the API answers 404 with {"detail":"No results found."} on empty queries
		return nil, errNoResults
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Wrapf(model.ErrProvider, "error getting %s: %s", u, resp.Status)
	}
	if isEmptyList(body) {
		return nil, errNoResults
	}
	return body, nil
}

// errNoResults keeps empty answers out of the cache, data may be published
// later.
var errNoResults = errors.New("no results")

func isEmptyList(body []byte) bool {
	return string(bytes.Join(bytes.Fields(body), nil)) == "[]"
}

func get[T any](ctx context.Context, c *Client, endpoint string, params ...param) ([]T, error) {
	u := c.requestURL(endpoint, params...)
	var (
		body []byte
		err  error
	)
	if c.cache != nil {
		body, err = c.cache.Get(ctx, u, func(ctx context.Context) ([]byte, error) {
			return c.fetch(ctx, u)
		})
	} else {
		body, err = c.fetch(ctx, u)
	}
	if errors.Is(err, errNoResults) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrapf(model.ErrProvider, "decoding %s: %v", endpoint, err)
	}
	return items, nil
}

func (c *Client) Meetings(ctx context.Context, year int) ([]Meeting, error) {
	return get[Meeting](ctx, c, "meetings", eq("year", year))
}

func (c *Client) Sessions(ctx context.Context, meetingKey int) ([]Session, error) {
	return get[Session](ctx, c, "sessions", eq("meeting_key", meetingKey))
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]Driver, error) {
	return get[Driver](ctx, c, "drivers", eq("session_key", sessionKey))
}

func (c *Client) Laps(ctx context.Context, sessionKey int) ([]Lap, error) {
	return get[Lap](ctx, c, "laps", eq("session_key", sessionKey))
}

func (c *Client) Pits(ctx context.Context, sessionKey int) ([]Pit, error) {
	return get[Pit](ctx, c, "pit", eq("session_key", sessionKey))
}

func (c *Client) RaceControl(ctx context.Context, sessionKey int) ([]RaceControl, error) {
	return get[RaceControl](ctx, c, "race_control", eq("session_key", sessionKey))
}

// CarData returns the car channels of a driver in [from, to).
func (c *Client) CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]CarData, error) {
	return get[CarData](ctx, c, "car_data",
		eq("session_key", sessionKey), eq("driver_number", driverNumber), gte("date", from), lt("date", to))
}

// Location returns the car positions of a driver in [from, to).
func (c *Client) Location(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]Location, error) {
	return get[Location](ctx, c, "location",
		eq("session_key", sessionKey), eq("driver_number", driverNumber), gte("date", from), lt("date", to))
}

// ParseDate parses the timestamps published by the API, with or without
// fractional seconds and offset.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05.999999", s)
	if err != nil {
		return time.Time{}, errors.Wrapf(model.ErrProvider, "invalid date %q", s)
	}
	return t.UTC(), nil
}
