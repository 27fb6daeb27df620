// Package corpus holds the immutable set of section embeddings a query is ranked against.
package corpus

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/askctx/internal/domain"
	"github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
)

// Entry pairs a section key with its embedding.
type Entry struct {
	Key    section.Key
	Vector vector.Vector
}

// Corpus is a read-only mapping from section key to embedding.
// All vectors share one dimensionality. Iteration order is ascending by key.
type Corpus struct {
	entries    []Entry
	index      map[section.Key]int
	dimensions int
}

// New validates entries and builds a Corpus.
// Mixed dimensionality, empty vectors and duplicate keys are rejected with ErrMalformedCorpus.
func New(entries []Entry) (Corpus, error) {
	c := Corpus{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[section.Key]int, len(entries)),
	}

	for i, e := range entries {
		if len(e.Vector) == 0 {
			return Corpus{}, fmt.Errorf("%w: entry %d (%s) has an empty vector", domain.ErrMalformedCorpus, i, e.Key)
		}
		if i == 0 {
			c.dimensions = len(e.Vector)
		} else if len(e.Vector) != c.dimensions {
			return Corpus{}, fmt.Errorf("%w: entry %d (%s) has %d dimensions, expected %d",
				domain.ErrMalformedCorpus, i, e.Key, len(e.Vector), c.dimensions)
		}
		if _, dup := c.index[e.Key]; dup {
			return Corpus{}, fmt.Errorf("%w: duplicate section %s", domain.ErrMalformedCorpus, e.Key)
		}
		c.index[e.Key] = i
		c.entries = append(c.entries, Entry{Key: e.Key, Vector: e.Vector.Clone()})
	}

	slices.SortFunc(c.entries, func(a, b Entry) int { return section.Compare(a.Key, b.Key) })
	for i, e := range c.entries {
		c.index[e.Key] = i
	}

	return c, nil
}

// Len returns the number of sections.
func (c Corpus) Len() int { return len(c.entries) }

// Dimensions returns the shared vector length (0 for an empty corpus).
func (c Corpus) Dimensions() int { return c.dimensions }

// Keys returns all section keys in ascending order.
func (c Corpus) Keys() []section.Key {
	keys := make([]section.Key, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Vector returns the embedding for key.
func (c Corpus) Vector(key section.Key) (vector.Vector, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.entries[i].Vector, true
}

// Each calls fn for every entry in key order. Returning false stops iteration.
// fn must not modify the vector.
func (c Corpus) Each(fn func(key section.Key, v vector.Vector) bool) {
	for _, e := range c.entries {
		if !fn(e.Key, e.Vector) {
			return
		}
	}
}
