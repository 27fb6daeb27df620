// Package health aggregates component checks into one service status.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing dependency; prompts may still be served from cache.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names used in reports.
const (
	CheckDatabase  = "database"
	CheckEmbedding = "embedding"
	CheckCorpus    = "corpus"
)

// checkTimeout bounds each dependency probe.
const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	corpus    CorpusInfo
}

// New creates a Service. db and embedding can be nil when not configured.
func New(db DBPinger, embedding EmbeddingChecker, corpus CorpusInfo) *Service {
	return &Service{db: db, embedding: embedding, corpus: corpus}
}

// Check runs health checks against all configured components.
// An empty corpus makes the service unhealthy; a failing dependency only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.db != nil {
		checks[CheckDatabase] = probe(ctx, s.db.Ping)
	}
	if s.embedding != nil {
		checks[CheckEmbedding] = probe(ctx, s.embedding.HealthCheck)
	}

	corpusOK := s.corpus != nil && s.corpus.Len() > 0
	checks[CheckCorpus] = CheckOK
	if !corpusOK {
		checks[CheckCorpus] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
