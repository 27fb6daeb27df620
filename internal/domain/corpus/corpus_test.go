package corpus

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/askctx/internal/domain"
	"github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
)

func TestNew(t *testing.T) {
	c, err := New([]Entry{
		{Key: section.Key{Title: "b"}, Vector: vector.Vector{0, 1}},
		{Key: section.Key{Title: "a"}, Vector: vector.Vector{1, 0}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if c.Dimensions() != 2 {
		t.Errorf("Dimensions = %d, want 2", c.Dimensions())
	}

	keys := c.Keys()
	if keys[0].Title != "a" || keys[1].Title != "b" {
		t.Errorf("keys not sorted: %v", keys)
	}

	v, ok := c.Vector(section.Key{Title: "b"})
	if !ok || v[1] != 1 {
		t.Errorf("Vector(b) = %v, %v", v, ok)
	}
	if _, ok := c.Vector(section.Key{Title: "zzz"}); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestNew_Empty(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 0 || c.Dimensions() != 0 {
		t.Errorf("unexpected empty corpus: len=%d dims=%d", c.Len(), c.Dimensions())
	}
}

func TestNew_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"mixed dimensions", []Entry{
			{Key: section.Key{Title: "a"}, Vector: vector.Vector{1, 0}},
			{Key: section.Key{Title: "b"}, Vector: vector.Vector{1, 0, 0}},
		}},
		{"empty vector", []Entry{
			{Key: section.Key{Title: "a"}, Vector: vector.Vector{}},
		}},
		{"duplicate key", []Entry{
			{Key: section.Key{Title: "a"}, Vector: vector.Vector{1}},
			{Key: section.Key{Title: "a"}, Vector: vector.Vector{2}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.entries)
			if !errors.Is(err, domain.ErrMalformedCorpus) {
				t.Fatalf("expected ErrMalformedCorpus, got %v", err)
			}
		})
	}
}

func TestNew_CopiesVectors(t *testing.T) {
	src := vector.Vector{1, 2}
	c, err := New([]Entry{{Key: section.Key{Title: "a"}, Vector: src}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src[0] = 99
	v, _ := c.Vector(section.Key{Title: "a"})
	if v[0] != 1 {
		t.Error("corpus shares caller's vector")
	}
}

func TestEach_Stop(t *testing.T) {
	c, _ := New([]Entry{
		{Key: section.Key{Title: "a"}, Vector: vector.Vector{1}},
		{Key: section.Key{Title: "b"}, Vector: vector.Vector{2}},
		{Key: section.Key{Title: "c"}, Vector: vector.Vector{3}},
	})
	var seen []string
	c.Each(func(k section.Key, _ vector.Vector) bool {
		seen = append(seen, k.Title)
		return len(seen) < 2
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("unexpected iteration: %v", seen)
	}
}
