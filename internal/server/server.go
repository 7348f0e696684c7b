package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pkgcompare/pkg/buildinfo"
	"github.com/matzehuels/pkgcompare/pkg/compare"
	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/httputil"
	"github.com/matzehuels/pkgcompare/pkg/integrations"
	pkgio "github.com/matzehuels/pkgcompare/pkg/io"
	"github.com/matzehuels/pkgcompare/pkg/notify"
	"github.com/matzehuels/pkgcompare/pkg/panel"
	"github.com/matzehuels/pkgcompare/pkg/record"
	"github.com/matzehuels/pkgcompare/pkg/render"
	"github.com/matzehuels/pkgcompare/pkg/search"
	"github.com/matzehuels/pkgcompare/pkg/selection"
)

// maxPages bounds how many suggestion pages one search request may load.
const maxPages = 10

var panelDimensions = map[string]record.Dimension{
	"size":      record.DimensionSize,
	"versions":  record.DimensionVersion,
	"downloads": record.DimensionDownloads,
}

// Server serves one workspace.
type Server struct {
	ws     *compare.Workspace
	logger *log.Logger
	events *hub
	router chi.Router
	unsubs []func()
}

// New creates a server for ws and starts forwarding workspace changes to
// the event stream. A nil logger uses log.Default().
func New(ws *compare.Workspace, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{ws: ws, logger: logger, events: newHub()}

	s.unsubs = append(s.unsubs,
		ws.Selection().Subscribe(func(snap selection.Snapshot) {
			s.events.publish(Event{Type: EventSelection, Revision: snap.Revision, Selection: snap.Records})
		}),
		ws.Notifications().Subscribe(func(n notify.Notification) {
			s.events.publish(Event{Type: EventNotification, Notification: &n})
		}),
	)
	ws.OnPanelChange(func(st panel.State) {
		s.events.publish(Event{Type: EventPanel, Panel: &st})
	})

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/selection", s.handleSelection)
		r.Post("/selection", s.handleSelect)
		r.Delete("/selection/{name}", s.handleRemove)
		r.Get("/panels/{dimension}", s.handlePanel)
		r.Post("/panels/size/{name}/refetch", s.handleRefetch)
		r.Get("/report", s.handleReport)
		r.Get("/notifications", s.handleNotifications)
		r.Get("/events", s.handleEvents)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops forwarding workspace changes and disconnects event clients.
func (s *Server) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.events.close()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type healthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Upstreams map[string]string `json:"upstreams"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   buildinfo.Version,
		Upstreams: s.ws.Health(),
	})
}

type searchResponse struct {
	search.State
	Highlights map[int][]int `json:"highlights,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "page must be a positive integer"))
			return
		}
		page = min(n, maxPages)
	}

	if err := s.ws.Search(r.Context(), q); err != nil {
		writeError(w, http.StatusBadGateway, errors.New(search.FailureMessage))
		return
	}
	for st := s.ws.Suggestions(); st.Page < page && st.HasMore; st = s.ws.Suggestions() {
		if err := s.ws.MoreSuggestions(r.Context()); err != nil {
			writeError(w, http.StatusBadGateway, errors.New(search.FailureMessage))
			return
		}
	}

	st := s.ws.Suggestions()
	writeJSON(w, http.StatusOK, searchResponse{State: st, Highlights: search.Highlights(st.Query, st.Items)})
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Selection().Snapshot())
}

type selectRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	rec, err := s.ws.Select(r.Context(), req.Name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}
	s.ws.Remove(name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	dim, ok := panelDimensions[chi.URLParam(r, "dimension")]
	if !ok {
		writeError(w, http.StatusNotFound, pkgerrors.New(pkgerrors.ErrCodeNotFound, "unknown panel %q", chi.URLParam(r, "dimension")))
		return
	}
	st, _ := s.ws.Panel(dim)
	writeJSON(w, http.StatusOK, st)
}

type refetchResponse struct {
	Started bool        `json:"started"`
	Panel   panel.State `json:"panel"`
}

func (s *Server) handleRefetch(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}
	started, err := s.ws.RefetchSize(r.Context(), name)
	if err != nil && errors.Is(err, panel.ErrNotSelected) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	// A failed re-fetch is reported through the panel state and a
	// notification, like any other fetch failure.
	st, _ := s.ws.Panel(record.DimensionSize)
	status := http.StatusOK
	if !started {
		status = http.StatusConflict
	}
	writeJSON(w, status, refetchResponse{Started: started, Panel: st})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.ws.Report()
	switch f := r.URL.Query().Get("format"); f {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		if err := pkgio.WriteJSON(report, w); err != nil {
			s.logger.Warn("write report", "err", err)
		}
	case "yaml", "yml":
		w.Header().Set("Content-Type", "application/yaml")
		if err := pkgio.WriteYAML(report, w); err != nil {
			s.logger.Warn("write report", "err", err)
		}
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(render.Markdown(report)))
	default:
		writeError(w, http.StatusBadRequest, pkgerrors.New(pkgerrors.ErrCodeInvalidFormat, "unsupported format %q", f))
	}
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Notifications().Recent())
}

// pathName returns the unescaped {name} path parameter.
func pathName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, pkgerrors.New(pkgerrors.ErrCodeInvalidPackage, "invalid package name in path"))
		return "", false
	}
	return name, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return http.StatusNotFound
	case pkgerrors.Is(err, pkgerrors.ErrCodeInvalidPackage), pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, httputil.ErrUpstreamDown):
		return http.StatusServiceUnavailable
	case errors.Is(err, integrations.ErrNetwork), errors.Is(err, integrations.ErrMalformed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: pkgerrors.UserMessage(err),
		Code:  string(pkgerrors.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
