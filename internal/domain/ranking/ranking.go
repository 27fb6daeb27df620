// Package ranking orders corpus sections by similarity to a query embedding.
package ranking

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kailas-cloud/askctx/internal/domain/corpus"
	"github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
)

// Result is a single ranked section.
type Result struct {
	key   section.Key
	score float64
}

// NewResult creates a ranked result.
func NewResult(key section.Key, score float64) Result {
	return Result{key: key, score: score}
}

// Key returns the section key.
func (r Result) Key() section.Key { return r.key }

// Score returns the similarity score.
func (r Result) Score() float64 { return r.score }

// Score returns the similarity of a query and a candidate embedding (inner product).
// Vectors of different length fail with domain.ErrInvalidArgument.
func Score(query, candidate vector.Vector) (float64, error) {
	s, err := vector.Dot(query, candidate)
	if err != nil {
		return 0, fmt.Errorf("score: %w", err)
	}
	return s, nil
}

// Rank scores every corpus entry against query and returns all of them, highest score first.
// Equal scores are ordered by descending key (title, then heading).
func Rank(query vector.Vector, c corpus.Corpus) ([]Result, error) {
	results := make([]Result, 0, c.Len())

	var err error
	c.Each(func(key section.Key, v vector.Vector) bool {
		var s float64
		s, err = Score(query, v)
		if err != nil {
			err = fmt.Errorf("rank %s: %w", key, err)
			return false
		}
		results = append(results, Result{key: key, score: s})
		return true
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, Compare)
	return results, nil
}

// Compare orders results by descending score, then descending key.
func Compare(a, b Result) int {
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	return section.Compare(b.key, a.key)
}

// Top returns at most k leading results. k <= 0 returns all of them.
func Top(results []Result, k int) []Result {
	if k <= 0 || k >= len(results) {
		return results
	}
	return results[:k]
}
