package http

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/seedbed"
	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/internal/validator"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/aretw0/seedbed/pkg/output"
	"github.com/aretw0/seedbed/pkg/runner"
	"github.com/aretw0/seedbed/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// Engine is the part of the seedbed engine the HTTP adapter needs.
type Engine interface {
	runner.Generator
	Parse(source []byte) (*domain.Recipe, error)
	Validate(source []byte) (*validator.Report, error)
	Providers() []string
	Sessions() *session.Manager
}

// Server serves the seedbed API over an Engine.
type Server struct {
	engine   Engine
	doc      *openapi3.T
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// Spec returns the embedded OpenAPI document.
func Spec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	s := &Server{engine: engine, doc: doc}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/providers", s.ListProviders)
	r.Post("/generate", s.validated("/generate", s.Generate))
	r.Post("/validate", s.validated("/validate", s.Validate))
	r.Get("/sessions/{id}", s.validated("/sessions/{id}", s.GetSession))
	r.Delete("/sessions/{id}", s.validated("/sessions/{id}", s.DeleteSession))
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Recipe              string         `json:"recipe"`
	SessionID           string         `json:"session_id,omitempty"`
	Seed                int64          `json:"seed,omitempty"`
	Vars                map[string]any `json:"vars,omitempty"`
	NumRecords          *int           `json:"num_records,omitempty"`
	NumRecordsTablename string         `json:"num_records_tablename,omitempty"`
}

// GenerateResponse is the JSON result of a run.
type GenerateResponse struct {
	RunID     string            `json:"run_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Status    string            `json:"status"`
	Seed      int64             `json:"seed,omitempty"`
	Batches   int               `json:"batches"`
	Counts    map[string]int    `json:"counts"`
	Skipped   []string          `json:"skipped,omitempty"`
	Records   []json.RawMessage `json:"records"`
	Error     string            `json:"error,omitempty"`
}

// Generate handles POST /generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var format string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format parameter: %w", err))
		return
	}

	var body GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	vars, err := runner.SanitizeVars(body.Vars)
	if err != nil {
		s.logger.Warn("Generate: vars rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	recipe, err := s.engine.Parse([]byte(body.Recipe))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := []runner.Option{
		runner.WithLogger(s.logger),
		runner.WithSessionID(body.SessionID),
		runner.WithVars(vars),
	}
	if body.NumRecords != nil {
		if body.NumRecordsTablename == "" {
			writeError(w, http.StatusBadRequest, errors.New("num_records requires num_records_tablename"))
			return
		}
		opts = append(opts, runner.WithTarget(body.NumRecordsTablename, *body.NumRecords))
	}

	gen := runner.Generator(s.engine)
	if body.Seed != 0 {
		gen = seededGenerator{Generator: s.engine, seed: body.Seed}
	}
	summary, runErr := runner.New(gen, opts...).Run(r.Context(), recipe)
	if runErr != nil {
		s.logger.Warn("Generate failed", "err", runErr, "session_id", body.SessionID)
	}

	if runErr == nil && format == string(output.FormatMarkdown) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte(output.Markdown(summary.Records)))
		return
	}

	resp, err := newGenerateResponse(summary, runErr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, statusFor(runErr), resp)
}

// seededGenerator pins the seed of every batch to the request's seed; the
// engine still offsets it by the session run index.
type seededGenerator struct {
	runner.Generator
	seed int64
}

func (g seededGenerator) GenerateRecipe(ctx context.Context, sessionID string, recipe *domain.Recipe, opts ...seedbed.RunOption) (*domain.Result, error) {
	return g.Generator.GenerateRecipe(ctx, sessionID, recipe, append(opts, seedbed.WithRunSeed(g.seed))...)
}

func newGenerateResponse(summary *runner.Summary, runErr error) (GenerateResponse, error) {
	resp := GenerateResponse{
		Status:  string(domain.StatusCompleted),
		Batches: summary.Batches,
		Counts:  summary.Counts,
		Records: make([]json.RawMessage, 0, len(summary.Records)),
	}
	if last := summary.Last; last != nil {
		resp.RunID = last.RunID
		resp.SessionID = last.SessionID
		resp.Seed = last.Seed
		resp.Skipped = last.Skipped
		if runErr != nil {
			resp.Status = string(last.Status)
		}
	}
	records := summary.Records
	if runErr != nil {
		resp.Error = runErr.Error()
		if resp.Status == "" || resp.Status == string(domain.StatusCompleted) {
			resp.Status = string(domain.StatusFailed)
		}
		if summary.Last != nil && !summary.Last.Completed() {
			records = append(records, summary.Last.Records...)
		}
	}
	for _, rec := range records {
		data, err := output.MarshalRecord(rec)
		if err != nil {
			return resp, err
		}
		resp.Records = append(resp.Records, data)
	}
	return resp, nil
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var parseErr *domain.ParseError
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	Recipe string `json:"recipe"`
}

// IssueDTO is a lint finding on the wire.
type IssueDTO struct {
	Severity string `json:"severity"`
	Object   string `json:"object,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Field    string `json:"field,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

// ValidateResponse is the result of POST /validate.
type ValidateResponse struct {
	OK     bool       `json:"ok"`
	Issues []IssueDTO `json:"issues"`
	Error  string     `json:"error,omitempty"`
}

// Validate handles POST /validate. Parse and plan failures are reported in
// the body with OK false rather than as an HTTP error.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, validateRecipe(s.engine, body.Recipe))
}

func validateRecipe(engine Engine, source string) ValidateResponse {
	resp := ValidateResponse{Issues: []IssueDTO{}}
	report, err := engine.Validate([]byte(source))
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.OK = report.OK()
	for _, i := range report.Issues {
		resp.Issues = append(resp.Issues, IssueDTO{
			Severity: string(i.Severity),
			Object:   i.Object,
			Nickname: i.Nickname,
			Field:    i.Field,
			Line:     i.Line,
			Message:  i.Message,
		})
	}
	return resp
}

// ListProviders handles GET /providers.
func (s *Server) ListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Providers())
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionParam(w, r)
	if !ok {
		return
	}
	sess, err := s.engine.Sessions().Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		s.logger.Error("GetSession failed", "err", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionParam(w, r)
	if !ok {
		return
	}
	if err := s.engine.Sessions().Delete(r.Context(), id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.Error("DeleteSession failed", "err", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter id: %w", err))
		return "", false
	}
	return id, true
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "seedbed-http",
		"version":     strings.TrimSpace(seedbed.Version),
		"api_version": apiVersion,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
