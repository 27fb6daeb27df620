package askctx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/askctx/internal/domain"
	domcorpus "github.com/kailas-cloud/askctx/internal/domain/corpus"
	domprompt "github.com/kailas-cloud/askctx/internal/domain/prompt"
	"github.com/kailas-cloud/askctx/internal/domain/ranking"
	domsection "github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
	corpusrepo "github.com/kailas-cloud/askctx/internal/repository/corpus"
	sectionrepo "github.com/kailas-cloud/askctx/internal/repository/section"
	promptuc "github.com/kailas-cloud/askctx/internal/usecase/prompt"
)

// promptUseCase is the internal surface the client drives, swappable in tests.
type promptUseCase interface {
	Build(ctx context.Context, question string) (domprompt.Prompt, error)
	Rank(ctx context.Context, question string, limit int) ([]ranking.Result, error)
}

// Client is the askctx SDK entry point. It is safe for concurrent use.
type Client struct {
	svc      promptUseCase
	sections int
	obs      *observer
}

// New loads the corpus and section texts and creates a Client.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("askctx: embedder required (use WithEmbedder)")
	}

	c, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}
	records, err := loadSections(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	svc, err := promptuc.New(
		&embedderAdapter{inner: cfg.embedder},
		promptuc.Snapshot{Corpus: c, Records: records},
		domprompt.TemplateFromConfig(promptConfig(cfg.prompt)),
		obs,
	)
	if err != nil {
		return nil, fmt.Errorf("askctx: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Client{svc: svc, sections: c.Len(), obs: obs}, nil
}

// Len returns the number of embedded sections.
func (c *Client) Len() int { return c.sections }

// Prompt builds the completion prompt for question.
func (c *Client) Prompt(ctx context.Context, question string) (out Prompt, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() { c.obs.prompt(start, out, usage.TotalTokens, err) }()

	p, err := c.svc.Build(ctx, question)
	if err != nil {
		return Prompt{}, fmt.Errorf("prompt: %w", err)
	}

	keys := p.Sections()
	out = Prompt{
		Text:            p.Text(),
		Sections:        make([]SectionKey, len(keys)),
		TokensUsed:      p.TokensUsed(),
		EmbeddingTokens: usage.TotalTokens,
	}
	for i, k := range keys {
		out.Sections[i] = SectionKey{Title: k.Title, Heading: k.Heading}
	}
	return out, nil
}

// Rank returns the limit sections most similar to question, best first.
// limit <= 0 returns 5.
func (c *Client) Rank(ctx context.Context, question string, limit int) (out []RankedSection, err error) {
	start := time.Now()
	ctx, usage := domain.NewContextWithUsage(ctx)
	defer func() { c.obs.rank(start, len(out), usage.TotalTokens, err) }()

	results, err := c.svc.Rank(ctx, question, limit)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	out = make([]RankedSection, len(results))
	for i, r := range results {
		out[i] = RankedSection{
			SectionKey: SectionKey{Title: r.Key().Title, Heading: r.Key().Heading},
			Score:      r.Score(),
		}
	}
	return out, nil
}

func loadCorpus(cfg *clientConfig) (domcorpus.Corpus, error) {
	if cfg.embeddings != nil {
		entries := make([]domcorpus.Entry, len(cfg.embeddings))
		for i, e := range cfg.embeddings {
			entries[i] = domcorpus.Entry{
				Key:    domsection.Key{Title: e.Title, Heading: e.Heading},
				Vector: vector.Vector(e.Vector),
			}
		}
		c, err := domcorpus.New(entries)
		if err != nil {
			return domcorpus.Corpus{}, fmt.Errorf("askctx: embeddings: %w", err)
		}
		return c, nil
	}

	if cfg.corpusPath == "" {
		return domcorpus.Corpus{}, errors.New("askctx: corpus required (use WithCorpusFile or WithEmbeddings)")
	}
	c, err := corpusrepo.Load(cfg.corpusPath)
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("askctx: %w", err)
	}
	return c, nil
}

func loadSections(cfg *clientConfig) (domsection.Records, error) {
	if cfg.sections != nil {
		list := make([]domsection.Record, len(cfg.sections))
		for i, s := range cfg.sections {
			r, err := domsection.NewRecord(domsection.Key{Title: s.Title, Heading: s.Heading}, s.Content, s.Tokens)
			if err != nil {
				return domsection.Records{}, fmt.Errorf("askctx: section %d: %w: %w", i, ErrMalformedCorpus, err)
			}
			list[i] = r
		}
		records, err := domsection.NewRecords(list)
		if err != nil {
			return domsection.Records{}, fmt.Errorf("askctx: %w", err)
		}
		return records, nil
	}

	if cfg.sectionsPath == "" {
		return domsection.Records{}, errors.New("askctx: sections required (use WithSectionsFile or WithSections)")
	}
	records, err := sectionrepo.LoadCSV(cfg.sectionsPath)
	if err != nil {
		return domsection.Records{}, fmt.Errorf("askctx: %w", err)
	}
	return records, nil
}

func promptConfig(p *PromptConfig) domain.PromptConfig {
	out := domain.DefaultPromptConfig()
	if p == nil {
		return out
	}
	if p.Header != "" {
		out.Header = p.Header
	}
	if p.Separator != "" {
		out.Separator = p.Separator
		out.SeparatorTokens = p.SeparatorTokens
	}
	if p.MaxSectionTokens > 0 {
		out.MaxSectionTokens = p.MaxSectionTokens
	}
	return out
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
