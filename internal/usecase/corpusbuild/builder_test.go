package corpusbuild

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/domain"
	domsection "github.com/kailas-cloud/askctx/internal/domain/section"
)

type mockBatchEmbedder struct {
	calls  [][]string
	err    error
	short  bool
	tokens int
}

func (m *mockBatchEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := m.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0], TotalTokens: res.TotalTokens}, nil
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: m.tokens * len(texts)}, nil
}

// singleEmbedder has no batch support.
type singleEmbedder struct{ calls int }

func (s *singleEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

type recordingProgress struct {
	total    int
	added    int
	finished bool
}

func (p *recordingProgress) Start(total int) { p.total = total }
func (p *recordingProgress) Add(n int)       { p.added += n }
func (p *recordingProgress) Finish()         { p.finished = true }

func records(t *testing.T, n int) []domsection.Record {
	t.Helper()
	out := make([]domsection.Record, n)
	for i := range out {
		r, err := domsection.NewRecord(
			domsection.Key{Title: "Olympics", Heading: fmt.Sprintf("H%02d", i)},
			fmt.Sprintf("line one\nline %d", i), 10,
		)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = r
	}
	return out
}

func TestBuild_Batches(t *testing.T) {
	emb := &mockBatchEmbedder{tokens: 2}
	progress := &recordingProgress{}
	b := New(emb, 2, zap.NewNop()).WithProgress(progress)

	res, err := b.Build(context.Background(), records(t, 5))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(emb.calls) != 3 {
		t.Fatalf("batches = %d, want 3", len(emb.calls))
	}
	if len(emb.calls[2]) != 1 {
		t.Errorf("last batch = %d texts, want 1", len(emb.calls[2]))
	}
	if emb.calls[0][0] != "line one line 0" {
		t.Errorf("newlines not replaced: %q", emb.calls[0][0])
	}
	if res.Corpus.Len() != 5 || res.Corpus.Dimensions() != 2 {
		t.Errorf("corpus = %d x %d", res.Corpus.Len(), res.Corpus.Dimensions())
	}
	if res.TotalTokens != 10 {
		t.Errorf("tokens = %d, want 10", res.TotalTokens)
	}
	if progress.total != 5 || progress.added != 5 || !progress.finished {
		t.Errorf("progress = %+v", progress)
	}
}

func TestBuild_DefaultBatchSize(t *testing.T) {
	emb := &mockBatchEmbedder{}
	if _, err := New(emb, 0, zap.NewNop()).Build(context.Background(), records(t, 3)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(emb.calls) != 1 {
		t.Errorf("batches = %d, want 1", len(emb.calls))
	}
}

func TestBuild_Fallback(t *testing.T) {
	emb := &singleEmbedder{}
	res, err := New(emb, 10, zap.NewNop()).Build(context.Background(), records(t, 3))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if emb.calls != 3 {
		t.Errorf("Embed calls = %d, want 3", emb.calls)
	}
	if res.TotalTokens != 3 {
		t.Errorf("tokens = %d, want 3", res.TotalTokens)
	}
}

func TestBuild_EmbedError(t *testing.T) {
	emb := &mockBatchEmbedder{err: domain.ErrEmbeddingQuotaExceeded}
	_, err := New(emb, 2, zap.NewNop()).Build(context.Background(), records(t, 3))
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestBuild_CountMismatch(t *testing.T) {
	emb := &mockBatchEmbedder{short: true}
	_, err := New(emb, 2, zap.NewNop()).Build(context.Background(), records(t, 2))
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestBuild_DuplicateSections(t *testing.T) {
	recs := records(t, 1)
	recs = append(recs, recs[0])

	_, err := New(&mockBatchEmbedder{}, 2, zap.NewNop()).Build(context.Background(), recs)
	if !errors.Is(err, domain.ErrMalformedCorpus) {
		t.Fatalf("expected ErrMalformedCorpus, got %v", err)
	}
}

func TestNewBarProgress_Disabled(t *testing.T) {
	if p := NewBarProgress(false, nil); p != nil {
		t.Fatalf("expected nil progress, got %T", p)
	}
}
