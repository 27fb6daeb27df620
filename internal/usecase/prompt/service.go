// Package prompt answers "which sections go into the prompt for this question".
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/domain"
	domprompt "github.com/kailas-cloud/askctx/internal/domain/prompt"
	"github.com/kailas-cloud/askctx/internal/domain/ranking"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
	"github.com/kailas-cloud/askctx/internal/logger"
)

// DefaultRankLimit is the number of ranked sections returned when the caller gives none.
const DefaultRankLimit = 5

// Service embeds a question, ranks the corpus and assembles the prompt.
type Service struct {
	embed    Embedder
	snapshot Snapshot
	template domprompt.Template
	observer domprompt.Observer
}

// New creates a prompt service. observer may be nil.
func New(embed Embedder, snapshot Snapshot, tpl domprompt.Template, observer domprompt.Observer) (*Service, error) {
	if err := tpl.Validate(); err != nil {
		return nil, fmt.Errorf("prompt template: %w", err)
	}
	if snapshot.Records == nil {
		return nil, fmt.Errorf("%w: section records are required", domain.ErrInvalidArgument)
	}
	return &Service{embed: embed, snapshot: snapshot, template: tpl, observer: observer}, nil
}

// Corpus returns the snapshot the service ranks against.
func (s *Service) Corpus() Snapshot { return s.snapshot }

// Build returns the prompt for question.
func (s *Service) Build(ctx context.Context, question string) (domprompt.Prompt, error) {
	ranked, err := s.rank(ctx, question)
	if err != nil {
		return domprompt.Prompt{}, err
	}

	obs := domprompt.Observers{s.observer, logObserver(logger.FromContext(ctx))}
	p, err := domprompt.Assemble(ranked, s.snapshot.Records, question, s.template, obs)
	if err != nil {
		return domprompt.Prompt{}, fmt.Errorf("assemble prompt: %w", err)
	}
	return p, nil
}

// Rank returns the limit best matching sections for question, best first.
// limit <= 0 means DefaultRankLimit.
func (s *Service) Rank(ctx context.Context, question string, limit int) ([]ranking.Result, error) {
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	ranked, err := s.rank(ctx, question)
	if err != nil {
		return nil, err
	}
	return ranking.Top(ranked, limit), nil
}

func (s *Service) rank(ctx context.Context, question string) ([]ranking.Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidArgument)
	}

	res, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, embedError(err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	ranked, err := ranking.Rank(vector.Vector(res.Embedding), s.snapshot.Corpus)
	if err != nil {
		return nil, rankError(err, len(res.Embedding), s.snapshot.Corpus.Dimensions())
	}
	return ranked, nil
}

// rankError reports a question vector that does not fit the corpus as a server-side
// corpus problem: the query embedder and the corpus disagree on dimensions.
func rankError(err error, queryDims, corpusDims int) error {
	var dme *domain.DimensionMismatchError
	if errors.As(err, &dme) {
		return fmt.Errorf("rank corpus: %w: question embedding has %d dimensions, corpus has %d",
			domain.ErrInconsistentCorpus, queryDims, corpusDims)
	}
	return fmt.Errorf("rank corpus: %w", err)
}

// embedError keeps quota and provider sentinels and classifies anything else as unavailable.
func embedError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) || errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return fmt.Errorf("embed question: %w", err)
	}
	return fmt.Errorf("embed question: %w: %w", domain.ErrEmbeddingUnavailable, err)
}

// logObserver writes the selection as a debug line on the request logger.
func logObserver(l *zap.Logger) domprompt.Observer {
	return domprompt.ObserverFunc(func(sel domprompt.Selection) {
		keys := make([]string, len(sel.Sections))
		for i, k := range sel.Sections {
			keys[i] = k.String()
		}
		l.Debug("Prompt assembled",
			zap.Int("candidates", sel.Candidates),
			zap.Int("selected", len(sel.Sections)),
			zap.Strings("sections", keys),
			zap.Int("tokens_used", sel.TokensUsed),
		)
	})
}
