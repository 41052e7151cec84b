package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/search/query"
	"github.com/kailas-cloud/talentrag/internal/logger"
	healthuc "github.com/kailas-cloud/talentrag/internal/usecase/health"
	"github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/talentrag/internal/usecase/usage"
)

// maxBodyBytes caps request bodies; queries are short text.
const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the talentrag HTTP API.
type Server struct {
	retrieval     Retriever
	insights      InsightsReader
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	retriever Retriever, insights InsightsReader, health HealthChecker, usage UsageReporter, logger *zap.Logger,
) *Server {
	s := &Server{
		retrieval: retriever,
		insights:  insights,
		health:    health,
		usage:     usage,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(domain.ErrJobNotFound, http.StatusNotFound, codeJobNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
	}
	return s
}

// Routes mounts the API handlers on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", func(r gochi.Router) {
		r.Post("/search", s.Search)
		r.Post("/ask", s.Ask)
		r.Post("/candidates", s.Candidates)
		r.Post("/jobs/{id}/match", s.MatchJob)
		r.Get("/insights", s.Insights)
		r.Get("/usage", s.Usage)
	})
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	f, err := req.Filters.toDomain()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	id := IdentityFromContext(r.Context())
	qc, err := query.New(req.Query, f, req.K, retrieval.DefaultSearchK, id.Role)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.retrieval.Search(r.Context(), qc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Ask handles POST /api/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	f, err := req.Filters.toDomain()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	id := IdentityFromContext(r.Context())
	qc, err := query.New(req.Query, f, req.K, retrieval.DefaultAskK, id.Role)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.retrieval.Ask(r.Context(), retrieval.AskRequest{
		Context:           qc,
		IncludeJobContext: req.IncludeJobContext,
		UserID:            id.Subject,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Candidates handles POST /api/candidates.
func (s *Server) Candidates(w http.ResponseWriter, r *http.Request) {
	var req CandidatesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.retrieval.CandidatesForRequirements(r.Context(), retrieval.CandidateRequest{
		Requirements: req.Requirements,
		Skills:       req.Skills,
		K:            req.K,
		Role:         IdentityFromContext(r.Context()).Role,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// MatchJob handles POST /api/jobs/{id}/match.
func (s *Server) MatchJob(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	// The body is optional: an empty one means the default top_n.
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.TopN < 0 || req.TopN > maxTopN {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "top_n must be between 1 and 50")
		return
	}

	resp, err := s.retrieval.MatchJob(r.Context(), gochi.URLParam(r, "id"), req.TopN,
		IdentityFromContext(r.Context()).Role)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Insights handles GET /api/insights.
func (s *Server) Insights(w http.ResponseWriter, r *http.Request) {
	resp, err := s.insights.Insights(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Usage handles GET /api/usage?period=day|month. Admin only.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	if IdentityFromContext(r.Context()).Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, codeForbidden, "admin role required")
		return
	}
	period, err := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	report, err := s.usage.Report(r.Context(), period)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HealthCheck handles GET /health. Only an unreachable database yields 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeBody parses a JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. Input errors keep their detail,
// other sentinels return the bare sentinel text, anything else is internal.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) || errors.Is(err, domain.ErrInvalidFilter) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrJobNotFound,
		domain.ErrDocumentNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
