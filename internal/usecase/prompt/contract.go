package prompt

import (
	"context"

	"github.com/kailas-cloud/askctx/internal/domain"
	domcorpus "github.com/kailas-cloud/askctx/internal/domain/corpus"
	domprompt "github.com/kailas-cloud/askctx/internal/domain/prompt"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Snapshot is the immutable corpus a request runs against: section embeddings
// plus the text records they point to.
type Snapshot struct {
	Corpus  domcorpus.Corpus
	Records domprompt.Lookup
}
