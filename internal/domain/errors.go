package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a caller error such as a vector length mismatch.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInconsistentCorpus signals a ranked section with no matching text record,
	// or a question embedding whose length differs from the corpus.
	ErrInconsistentCorpus = errors.New("inconsistent corpus")
	// ErrMalformedCorpus signals a corpus that cannot be loaded (e.g. mixed dimensions).
	ErrMalformedCorpus = errors.New("malformed corpus")
	// ErrEmbeddingUnavailable signals an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
)

// DimensionMismatchError wraps ErrInvalidArgument with the offending lengths.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: vector length %d, expected %d", ErrInvalidArgument.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrInvalidArgument }

// NewDimensionMismatch creates a vector length mismatch error.
func NewDimensionMismatch(want, got int) error {
	return &DimensionMismatchError{Want: want, Got: got}
}
