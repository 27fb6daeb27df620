package askctx

import "github.com/kailas-cloud/askctx/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument        = domain.ErrInvalidArgument
	ErrInconsistentCorpus     = domain.ErrInconsistentCorpus
	ErrMalformedCorpus        = domain.ErrMalformedCorpus
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
)
