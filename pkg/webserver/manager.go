package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/render"
	"f1lapcompare/pkg/replay"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultAddr = ":8080"

// Comparer runs comparisons for the HTTP API.
type Comparer interface {
	Compare(ctx context.Context, kind compare.Kind, year int, gp string, st model.SessionType, d1, d2 string, lapNumber int) (*compare.Report, error)
	TimeAligned(r *compare.Report) ([2]model.Telemetry, error)
	Renderer() *render.Renderer
}

type Manager struct {
	r            *mux.Router
	addr         string
	resourcesDir string
	comparer     Comparer
	replays      *replay.Registry
	l            *zap.Logger
}

func NewManager(addr, resourcesDir string, comparer Comparer, l *zap.Logger) *Manager {
	if addr == "" {
		addr = DefaultAddr
	}
	if l == nil {
		l = zap.NewNop()
	}
	m := &Manager{
		r:            mux.NewRouter(),
		addr:         addr,
		resourcesDir: resourcesDir,
		comparer:     comparer,
		replays:      replay.NewRegistry(l.Named("replay")),
		l:            l,
	}

	m.rootHandlers()
	return m
}

func (m *Manager) Router() *mux.Router {
	return m.r
}

func (m *Manager) rootHandlers() {
	fs := http.FileServer(http.Dir(m.resourcesDir))
	resStr := "/resources/"

	m.r.PathPrefix(resStr).Handler(http.StripPrefix(resStr, fs))
	m.r.HandleFunc("/compare/{kind}", m.compareHandler()).Methods(http.MethodGet)
	m.replays.AddHandlers(m.r)
}

// Routes lists the registered path templates.
func (m *Manager) Routes() []string {
	var routes []string
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		if methods, err := route.GetMethods(); err == nil {
			pathTemplate = strings.Join(methods, ",") + " " + pathTemplate
		}
		routes = append(routes, pathTemplate)
		return nil
	})
	return routes
}

type compareResponse struct {
	*compare.Report
	Table  string   `json:"table"`
	URLs   []string `json:"urls"`
	Replay string   `json:"replay,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrProvider):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (m *Manager) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.l.Warn("writing response", zap.Error(err))
	}
}

func (m *Manager) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		m.l.Error("compare failed", zap.Error(err))
	}
	m.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func invalid(format string, args ...any) error {
	return errors.Wrapf(model.ErrInvalid, format, args...)
}

func (m *Manager) compareHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := compare.ParseKind(mux.Vars(r)["kind"])
		if !ok {
			m.writeError(w, invalid("unknown comparison %q", mux.Vars(r)["kind"]))
			return
		}
		q := r.URL.Query()
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			m.writeError(w, invalid("invalid year %q", q.Get("year")))
			return
		}
		st := model.Race
		if kind != compare.KindRace {
			if st, err = model.ParseSessionType(q.Get("session")); err != nil {
				m.writeError(w, err)
				return
			}
		}
		lap := 0
		if s := q.Get("lap"); s != "" {
			if lap, err = strconv.Atoi(s); err != nil {
				m.writeError(w, invalid("invalid lap %q", s))
				return
			}
		}

		report, err := m.comparer.Compare(r.Context(), kind, year, q.Get("gp"), st, strings.ToUpper(q.Get("d1")), strings.ToUpper(q.Get("d2")), lap)
		if err != nil {
			m.writeError(w, err)
			return
		}

		resp := compareResponse{Report: report, Table: report.Table()}
		for _, f := range report.Files {
			resp.URLs = append(resp.URLs, "/resources/"+f.Name)
		}
		if err := m.addReplay(r.Context(), report); err != nil {
			m.l.Warn("replay not available", zap.String("report", report.ID), zap.Error(err))
		} else {
			resp.Replay = "/replay/" + report.ID + "/live"
		}
		m.writeJSON(w, http.StatusOK, resp)
	}
}

func (m *Manager) addReplay(ctx context.Context, report *compare.Report) error {
	series, err := m.comparer.TimeAligned(report)
	if err != nil {
		return err
	}
	svg, err := m.comparer.Renderer().TrackSVG(ctx, report.ID, report.Result.Series[0])
	if err != nil {
		return err
	}
	d1, _ := report.Result.Session.DriverByCode(report.Laps[0].Driver)
	d2, _ := report.Result.Session.DriverByCode(report.Laps[1].Driver)
	_, err = m.replays.Add(report.ID, report.Title, svg, series, render.Colors(d1, d2))
	return err
}

// Serve listens until ctx is done, then shuts down gracefully.
func (m *Manager) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr: m.addr,
		// comparisons fetch telemetry, leave them time to finish
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}

	errc := make(chan error, 1)
	go func() {
		m.l.Info("webserver listening", zap.String("addr", m.addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.l.Info("webserver shutting down")
	return srv.Shutdown(shutdownCtx)
}
