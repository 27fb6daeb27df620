// Package section models document sections: their identity and text records.
package section

import (
	"cmp"
	"fmt"

	"github.com/kailas-cloud/askctx/internal/domain"
)

// Key identifies a document section. It joins the embedding corpus with the text store.
type Key struct {
	Title   string
	Heading string
}

// String renders the key for logs.
func (k Key) String() string {
	return k.Title + " / " + k.Heading
}

// Compare orders keys by title, then heading. Returns -1, 0 or +1.
func Compare(a, b Key) int {
	if c := cmp.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return cmp.Compare(a.Heading, b.Heading)
}

// Record is a section's text with its precomputed token length (immutable value object).
type Record struct {
	key     Key
	content string
	tokens  int
}

// NewRecord validates and creates a Record.
// Title is required, token length must be non-negative.
func NewRecord(key Key, content string, tokens int) (Record, error) {
	if key.Title == "" {
		return Record{}, fmt.Errorf("section title is required")
	}
	if tokens < 0 {
		return Record{}, fmt.Errorf("section %q: negative token length %d", key, tokens)
	}
	return Record{key: key, content: content, tokens: tokens}, nil
}

// Key returns the section identity.
func (r *Record) Key() Key { return r.key }

// Content returns the section text.
func (r *Record) Content() string { return r.content }

// Tokens returns the precomputed token length.
func (r *Record) Tokens() int { return r.tokens }

// Records is a read-only lookup from Key to Record.
type Records struct {
	byKey map[Key]Record
}

// NewRecords builds a lookup. Duplicate keys are a malformed corpus.
func NewRecords(records []Record) (Records, error) {
	m := make(map[Key]Record, len(records))
	for _, r := range records {
		if _, dup := m[r.key]; dup {
			return Records{}, fmt.Errorf("%w: duplicate section %q", domain.ErrMalformedCorpus, r.key)
		}
		m[r.key] = r
	}
	return Records{byKey: m}, nil
}

// Lookup returns the record for key.
func (rs Records) Lookup(key Key) (Record, bool) {
	r, ok := rs.byKey[key]
	return r, ok
}

// Len returns the number of records.
func (rs Records) Len() int { return len(rs.byKey) }
