package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/layout"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
	"github.com/aretw0/arbor/pkg/ports"
)

// Server exposes a Player and an editing Service over HTTP.
type Server struct {
	player  *arbor.Player
	editor  *editor.Service
	layout  layout.Engine
	streams *StreamManager
	watcher ports.Watcher
	metrics http.Handler
	logger  *slog.Logger
	spec    *openapi3.T

	allowAll bool
	origins  []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLayout sets the engine behind the layout route.
func WithLayout(e layout.Engine) Option {
	return func(s *Server) { s.layout = e }
}

// WithStreams shares a StreamManager that already receives the player's diffs.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.streams = sm }
}

// WithWatcher enables the reload feed on /events without a session id.
func WithWatcher(w ports.Watcher) Option {
	return func(s *Server) { s.watcher = w }
}

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCORS sets the allowed browser origins. allowAll permits any origin.
func WithCORS(allowAll bool, origins ...string) Option {
	return func(s *Server) {
		s.allowAll = allowAll
		s.origins = origins
	}
}

// NewHandler builds the router. It fails when the embedded OpenAPI document
// does not validate.
func NewHandler(ctx context.Context, player *arbor.Player, edit *editor.Service, opts ...Option) (http.Handler, error) {
	spec, err := Spec(ctx)
	if err != nil {
		return nil, err
	}
	s := &Server{
		player: player,
		editor: edit,
		layout: layout.Layered{},
		logger: logging.NewNop(),
		spec:   spec,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}
	return s.routes(), nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-Match"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300,
	}
	if len(s.origins) > 0 {
		corsOpts.AllowedOrigins = s.origins
	}
	if s.allowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Get("/events", s.subscribeEvents)

	r.Route("/flowcharts", func(r chi.Router) {
		r.Get("/", s.listFlowcharts)
		r.Post("/", s.createFlowchart)
		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", s.getFlowchart)
			r.Get("/check", s.checkFlowchart)
			r.Get("/layout", s.layoutFlowchart)
			r.Get("/mermaid", s.renderFlowchart)
			r.Post("/nodes", s.createNode)
			r.Put("/nodes/{id}", s.updateNode)
			r.Delete("/nodes/{id}", s.deleteNode)
			r.Post("/nodes/{id}/connect", s.connectNode)
		})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.startSession)
		r.Get("/{id}", s.viewSession)
		r.Delete("/{id}", s.deleteSession)
		r.Get("/{id}/history", s.sessionHistory)
		r.Get("/{id}/history.pdf", s.sessionHistoryPDF)
		r.Post("/{id}/{action}", s.stepSession)
	})

	return r
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec != nil && s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "arbor-http",
		"version":     strings.TrimSpace(arbor.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrFlowchartNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, domain.ErrEmptyFlowchart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorage):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Reason: "invalid request body: " + err.Error()}
	}
	return nil
}

// keyParam returns the unescaped storage key. Keys contain slashes, so
// clients send them URL-escaped.
func keyParam(r *http.Request) (string, error) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		return "", &domain.ValidationError{Field: "key", Reason: "must be a URL-escaped storage key"}
	}
	return key, nil
}

func pathParam(r *http.Request, name string) string {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return chi.URLParam(r, name)
	}
	return v
}

func editOptions(r *http.Request) []editor.EditOption {
	if v := strings.Trim(r.Header.Get("If-Match"), `"`); v != "" {
		return []editor.EditOption{editor.IfMatch(v)}
	}
	return nil
}

func setETag(w http.ResponseWriter, doc *domain.Document) {
	if doc != nil && doc.Version != "" {
		w.Header().Set("ETag", `"`+doc.Version+`"`)
	}
}
