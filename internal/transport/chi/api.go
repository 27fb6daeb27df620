package chi

import "time"

// ErrorCode is a machine-readable error identifier returned to clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest            ErrorCode = "bad_request"
	ErrorCodeValidationFailed      ErrorCode = "validation_failed"
	ErrorCodeUnauthorized          ErrorCode = "unauthorized"
	ErrorCodeEmbeddingQuota        ErrorCode = "embedding_quota_exceeded"
	ErrorCodeEmbeddingUnavailable  ErrorCode = "embedding_provider_error"
	ErrorCodeCorpusError           ErrorCode = "corpus_error"
	ErrorCodeInternalError         ErrorCode = "internal_error"
	ErrorCodeRequestEntityTooLarge ErrorCode = "request_too_large"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QuestionRequest is the body of POST /v1/prompt.
type QuestionRequest struct {
	Question string `json:"question"`
}

// RankRequest is the body of POST /v1/rank.
type RankRequest struct {
	Question string `json:"question"`
	Limit    int    `json:"limit,omitempty"`
}

// SectionRef identifies a section in responses.
type SectionRef struct {
	Title   string `json:"title"`
	Heading string `json:"heading"`
}

// PromptResponse is returned by POST /v1/prompt.
type PromptResponse struct {
	Prompt     string       `json:"prompt"`
	Sections   []SectionRef `json:"sections"`
	TokensUsed int          `json:"tokens_used"`
}

// RankedSection is a single ranking entry.
type RankedSection struct {
	SectionRef
	Score float64 `json:"score"`
}

// RankResponse is returned by POST /v1/rank.
type RankResponse struct {
	Results []RankedSection `json:"results"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// BudgetStatus is the budget part of a usage report. A zero limit has remaining -1.
type BudgetStatus struct {
	TokensLimit     int64 `json:"tokens_limit"`
	TokensUsed      int64 `json:"tokens_used"`
	TokensRemaining int64 `json:"tokens_remaining"`
	IsExhausted     bool  `json:"is_exhausted"`
}

// UsageResponse is returned by GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt time.Time    `json:"period_start_at"`
	PeriodEndAt   time.Time    `json:"period_end_at"`
	Budget        BudgetStatus `json:"budget"`
}
