package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/domain"
	domprompt "github.com/kailas-cloud/askctx/internal/domain/prompt"
	"github.com/kailas-cloud/askctx/internal/domain/ranking"
	domusage "github.com/kailas-cloud/askctx/internal/domain/usage"
	healthuc "github.com/kailas-cloud/askctx/internal/usecase/health"
)

// PromptService builds prompts and rankings for questions.
type PromptService interface {
	Build(ctx context.Context, question string) (domprompt.Prompt, error)
	Rank(ctx context.Context, question string, limit int) ([]ranking.Result, error)
}

// HealthService reports service health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageService reports embedding budget usage.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// maxRankLimit caps the limit accepted by POST /v1/rank.
const maxRankLimit = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the askctx HTTP API.
type Server struct {
	prompts       PromptService
	health        HealthService
	usage         UsageService
	logger        *zap.Logger
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(prompts PromptService, health HealthService, usage UsageService, logger *zap.Logger) *Server {
	s := &Server{
		prompts:      prompts,
		health:       health,
		usage:        usage,
		logger:       logger,
		maxBodyBytes: 64 << 10,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, ErrorCodeEmbeddingQuota),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, ErrorCodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrInconsistentCorpus, http.StatusInternalServerError, ErrorCodeCorpusError),
		sentinelHandler(domain.ErrMalformedCorpus, http.StatusInternalServerError, ErrorCodeCorpusError),
	}
	return s
}

// WithMaxBodyBytes overrides the request body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// BuildPrompt handles POST /v1/prompt.
func (s *Server) BuildPrompt(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	p, err := s.prompts.Build(ctx, req.Question)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	keys := p.Sections()
	sections := make([]SectionRef, len(keys))
	for i, k := range keys {
		sections[i] = SectionRef{Title: k.Title, Heading: k.Heading}
	}

	writeJSON(w, http.StatusOK, PromptResponse{
		Prompt:     p.Text(),
		Sections:   sections,
		TokensUsed: p.TokensUsed(),
	})
}

// RankSections handles POST /v1/rank.
func (s *Server) RankSections(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Limit < 0 || req.Limit > maxRankLimit {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"limit must be between 0 and "+strconv.Itoa(maxRankLimit))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.prompts.Rank(ctx, req.Question, req.Limit)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]RankedSection, len(results))
	for i, res := range results {
		items[i] = RankedSection{
			SectionRef: SectionRef{Title: res.Key().Title, Heading: res.Key().Heading},
			Score:      res.Score(),
		}
	}
	writeJSON(w, http.StatusOK, RankResponse{Results: items})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, `period must be "day" or "month"`)
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()

	writeJSON(w, http.StatusOK, UsageResponse{
		Period:        string(report.Period()),
		Provider:      report.Provider(),
		PeriodStartAt: report.PeriodStart(),
		PeriodEndAt:   report.PeriodEnd(),
		Budget: BudgetStatus{
			TokensLimit:     b.Limit,
			TokensUsed:      b.Used,
			TokensRemaining: b.Remaining,
			IsExhausted:     b.Exhausted(),
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// decode reads a JSON body, writing a 4xx response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
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

// safeDomainMessage returns a client-safe message without exposing internals.
// Validation errors are caller-facing and pass through verbatim.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidArgument) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingUnavailable,
		domain.ErrInconsistentCorpus,
		domain.ErrMalformedCorpus,
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

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
