package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/tokenlab/internal/analysis"
	"github.com/DeafMist/tokenlab/internal/config"
	"github.com/DeafMist/tokenlab/internal/elasticsearch"
	"github.com/DeafMist/tokenlab/internal/models"
	"github.com/DeafMist/tokenlab/internal/normalize"
	"github.com/DeafMist/tokenlab/internal/tokenize"
)

const (
	defaultTestFraction = 0.2
	defaultTransformTok = "regex"
)

var errTooManyTexts = errors.New("too many texts")

type corpusStore interface {
	Health(ctx context.Context) error
	SearchArticles(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
}

type server struct {
	log      *slog.Logger
	cfg      *config.API
	es       corpusStore
	doc      normalize.Document
	engine   *normalize.Engine
	registry *tokenize.Registry
}

func newServer(log *slog.Logger, cfg *config.API, es corpusStore, doc normalize.Document, registry *tokenize.Registry) (*server, error) {
	engine, err := normalize.NewFromDocument(doc, normalize.WithLogger(log), normalize.WithWorkers(cfg.Workers))
	if err != nil {
		return nil, err
	}
	return &server{log: log, cfg: cfg, es: es, doc: doc, engine: engine, registry: registry}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/config/preprocessing", s.handleConfig)
	r.Get("/articles", s.handleSearch)

	r.Post("/normalize", s.handleNormalize)
	r.Post("/normalize/articles", s.handleNormalizeArticles)
	r.Post("/compare", s.handleCompare)
	r.Post("/transforms", s.handleTransforms)
	r.Post("/subword/evaluate", s.handleSubword)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type normalizeRequest struct {
	Text   string          `json:"text"`
	Config map[string]bool `json:"config,omitempty"`
}

type normalizeResponse struct {
	Text string `json:"text"`
}

type normalizeArticlesRequest struct {
	Articles []models.Article `json:"articles"`
	Config   map[string]bool  `json:"config,omitempty"`
}

type compareRequest struct {
	Texts        []string `json:"texts"`
	TestFraction *float64 `json:"test_fraction,omitempty"`
	Methods      []string `json:"methods,omitempty"`
}

type transformsRequest struct {
	Text       string   `json:"text,omitempty"`
	Tokens     []string `json:"tokens,omitempty"`
	Method     string   `json:"method,omitempty"`
	Transforms []string `json:"transforms,omitempty"`
}

type transformsResponse struct {
	Method  string                            `json:"method,omitempty"`
	Records map[string]models.TransformRecord `json:"records"`
	Unknown []string                          `json:"unknown,omitempty"`
}

type subwordRequest struct {
	Texts  []string `json:"texts"`
	Models []string `json:"models,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.doc)
}

func (s *server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	engine, err := s.engineFor(req.Config)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{Text: engine.Normalize(req.Text)})
}

func (s *server) handleNormalizeArticles(w http.ResponseWriter, r *http.Request) {
	var req normalizeArticlesRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkCount(w, len(req.Articles)) {
		return
	}
	engine, err := s.engineFor(req.Config)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, engine.BatchNormalize(r.Context(), req.Articles))
}

func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkCount(w, len(req.Texts)) {
		return
	}
	frac := defaultTestFraction
	if req.TestFraction != nil {
		frac = *req.TestFraction
	}

	adapters, missing := s.registry.Select(req.Methods)
	res, err := analysis.Compare(r.Context(), req.Texts, frac, adapters, s.analysisOptions()...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analysis.ErrTestFraction) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	maps.Copy(res.Unavailable, notRegistered(missing))
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleTransforms(w http.ResponseWriter, r *http.Request) {
	var req transformsRequest
	if !s.decode(w, r, &req) {
		return
	}

	tokens := req.Tokens
	method := ""
	if tokens == nil {
		method = req.Method
		if method == "" {
			method = defaultTransformTok
		}
		adapter, ok := s.registry.Get(method)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown method %q", method)})
			return
		}
		ctx, cancel := s.callContext(r.Context())
		defer cancel()
		var err error
		tokens, err = adapter.Tokenize(ctx, req.Text)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
	}

	transforms, unknown := tokenize.SelectTransforms(s.engine.Lexicon(), req.Transforms)
	records := analysis.CompareTransforms(r.Context(), tokens, transforms, s.analysisOptions()...)
	writeJSON(w, http.StatusOK, transformsResponse{Method: method, Records: records, Unknown: unknown})
}

func (s *server) handleSubword(w http.ResponseWriter, r *http.Request) {
	var req subwordRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.checkCount(w, len(req.Texts)) {
		return
	}

	adapters, missing := s.registry.Select(req.Models)
	rep := analysis.EvaluateModels(r.Context(), adapters, req.Texts, s.analysisOptions()...)
	maps.Copy(rep.Unavailable, notRegistered(missing))
	writeJSON(w, http.StatusOK, rep)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Source:   strings.TrimSpace(q.Get("source")),
		Category: strings.TrimSpace(q.Get("category")),
		From:     clampInt(q.Get("from"), 0, 10_000),
		Size:     clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
	}

	result, err := s.es.SearchArticles(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// engineFor returns the shared engine, or a one-off engine when the request
// overrides config options on top of the loaded document.
func (s *server) engineFor(overrides map[string]bool) (*normalize.Engine, error) {
	if len(overrides) == 0 {
		return s.engine, nil
	}
	merged := s.doc.Config.Map()
	maps.Copy(merged, overrides)
	cfg, err := normalize.FromMap(merged)
	if err != nil {
		return nil, err
	}
	doc := s.doc
	doc.Config = cfg
	return normalize.NewFromDocument(doc, normalize.WithLogger(s.log), normalize.WithWorkers(s.cfg.Workers))
}

func (s *server) analysisOptions() []analysis.Option {
	return []analysis.Option{
		analysis.WithWorkers(s.cfg.Workers),
		analysis.WithTimeout(s.cfg.Timeout),
		analysis.WithLogger(s.log),
	}
}

func (s *server) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// decode reads a size-limited JSON body. On failure it writes the response
// and returns false.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return false
	}
	return true
}

func (s *server) checkCount(w http.ResponseWriter, n int) bool {
	if n > s.cfg.MaxTexts {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("%v: %d > %d", errTooManyTexts, n, s.cfg.MaxTexts),
		})
		return false
	}
	return true
}

func notRegistered(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = fmt.Sprintf("%v: %q is not registered", tokenize.ErrUnavailable, n)
	}
	return out
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
