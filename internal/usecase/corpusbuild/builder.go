// Package corpusbuild computes the document embeddings of a section set.
package corpusbuild

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/domain"
	domcorpus "github.com/kailas-cloud/askctx/internal/domain/corpus"
	domsection "github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
)

// DefaultBatchSize is the number of sections sent per embedding call.
const DefaultBatchSize = 100

// Builder embeds section contents into a corpus.
type Builder struct {
	embed     domain.Embedder
	batchSize int
	progress  Progress
	logger    *zap.Logger
}

// New creates a Builder. batchSize <= 0 means DefaultBatchSize.
func New(embed domain.Embedder, batchSize int, logger *zap.Logger) *Builder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Builder{embed: embed, batchSize: batchSize, logger: logger}
}

// WithProgress attaches a progress reporter. p may be nil.
func (b *Builder) WithProgress(p Progress) *Builder {
	b.progress = p
	return b
}

// Result is a built corpus and the tokens spent on it.
type Result struct {
	Corpus      domcorpus.Corpus
	TotalTokens int
}

// Build embeds every record's content with newlines replaced by spaces.
func (b *Builder) Build(ctx context.Context, records []domsection.Record) (Result, error) {
	if b.progress != nil {
		b.progress.Start(len(records))
		defer b.progress.Finish()
	}

	entries := make([]domcorpus.Entry, 0, len(records))
	var tokens int

	for start := 0; start < len(records); start += b.batchSize {
		end := min(start+b.batchSize, len(records))
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = strings.ReplaceAll(batch[i].Content(), "\n", " ")
		}

		res, err := b.embedBatch(ctx, texts)
		if err != nil {
			return Result{}, fmt.Errorf("embed sections %d-%d: %w", start, end-1, err)
		}
		if len(res.Embeddings) != len(batch) {
			return Result{}, fmt.Errorf("%w: got %d embeddings for %d sections",
				domain.ErrEmbeddingUnavailable, len(res.Embeddings), len(batch))
		}

		for i := range batch {
			entries = append(entries, domcorpus.Entry{
				Key:    batch[i].Key(),
				Vector: vector.Vector(res.Embeddings[i]),
			})
		}
		tokens += res.TotalTokens

		if b.progress != nil {
			b.progress.Add(len(batch))
		}
		b.logger.Debug("Embedded batch",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("tokens", res.TotalTokens),
		)
	}

	c, err := domcorpus.New(entries)
	if err != nil {
		return Result{}, fmt.Errorf("build corpus: %w", err)
	}
	return Result{Corpus: c, TotalTokens: tokens}, nil
}

func (b *Builder) embedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := b.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, b.embed, texts)
}
