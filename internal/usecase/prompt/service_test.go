package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/askctx/internal/domain"
	domcorpus "github.com/kailas-cloud/askctx/internal/domain/corpus"
	domprompt "github.com/kailas-cloud/askctx/internal/domain/prompt"
	"github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
)

// --- Mocks ---

type mockEmbedder struct {
	vec    []float32
	tokens int
	err    error
	calls  int
	got    string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.got = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: m.tokens}, nil
}

// --- Fixtures ---

var (
	keyA = section.Key{Title: "Olympics", Heading: "A"}
	keyB = section.Key{Title: "Olympics", Heading: "B"}
	keyC = section.Key{Title: "Olympics", Heading: "C"}
)

func testSnapshot(t *testing.T, withRecords ...section.Key) Snapshot {
	t.Helper()
	c, err := domcorpus.New([]domcorpus.Entry{
		{Key: keyA, Vector: vector.Vector{1, 0}},
		{Key: keyB, Vector: vector.Vector{0, 1}},
		{Key: keyC, Vector: vector.Vector{1, 1}},
	})
	if err != nil {
		t.Fatalf("corpus: %v", err)
	}
	if len(withRecords) == 0 {
		withRecords = []section.Key{keyA, keyB, keyC}
	}
	var list []section.Record
	for _, k := range withRecords {
		r, err := section.NewRecord(k, "text of "+k.Heading, 100)
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		list = append(list, r)
	}
	records, err := section.NewRecords(list)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	return Snapshot{Corpus: c, Records: records}
}

func testTemplate() domprompt.Template {
	return domprompt.Template{Header: "Context:\n", Separator: "\n* ", SeparatorTokens: 0, MaxTokens: 250}
}

func newTestService(t *testing.T, emb Embedder, snap Snapshot, obs domprompt.Observer) *Service {
	t.Helper()
	svc, err := New(emb, snap, testTemplate(), obs)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

// --- Build ---

func TestBuild_SelectsTopSectionsWithinBudget(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 1}}
	svc := newTestService(t, emb, testSnapshot(t), nil)

	p, err := svc.Build(context.Background(), "Who won?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// C scores 2; B and A tie at 1 and B ranks first. 100+100 fits in 250, the third does not.
	want := "Context:\n\n* text of C\n* text of B\n\nQ: Who won?\nA:"
	if p.Text() != want {
		t.Errorf("prompt = %q, want %q", p.Text(), want)
	}
	if got := p.Sections(); len(got) != 2 || got[0] != keyC || got[1] != keyB {
		t.Errorf("sections = %v", got)
	}
	if p.TokensUsed() != 200 {
		t.Errorf("tokens used = %d, want 200", p.TokensUsed())
	}
	if emb.got != "Who won?" {
		t.Errorf("embedded %q", emb.got)
	}
}

func TestBuild_EmptyQuestion(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 1}}
	svc := newTestService(t, emb, testSnapshot(t), nil)

	_, err := svc.Build(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if emb.calls != 0 {
		t.Error("embedder must not be called for an empty question")
	}
}

func TestBuild_EmbeddingFailure(t *testing.T) {
	svc := newTestService(t, &mockEmbedder{err: errors.New("connection refused")}, testSnapshot(t), nil)

	_, err := svc.Build(context.Background(), "Who won?")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestBuild_QuotaExceeded(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingQuotaExceeded}
	svc := newTestService(t, emb, testSnapshot(t), nil)

	_, err := svc.Build(context.Background(), "Who won?")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Error("quota errors must stay distinct from provider failures")
	}
}

func TestBuild_DimensionMismatch(t *testing.T) {
	// A query model with different dimensions is a deployment fault, not a bad question.
	svc := newTestService(t, &mockEmbedder{vec: []float32{1, 1, 1}}, testSnapshot(t), nil)

	_, err := svc.Build(context.Background(), "Who won?")
	if !errors.Is(err, domain.ErrInconsistentCorpus) {
		t.Fatalf("expected ErrInconsistentCorpus, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidArgument) {
		t.Error("dimension mismatch must not be reported as a caller error")
	}
	if !strings.Contains(err.Error(), "3 dimensions, corpus has 2") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestBuild_InconsistentCorpus(t *testing.T) {
	// C ranks first but has no text.
	svc := newTestService(t, &mockEmbedder{vec: []float32{1, 1}}, testSnapshot(t, keyA, keyB), nil)

	_, err := svc.Build(context.Background(), "Who won?")
	if !errors.Is(err, domain.ErrInconsistentCorpus) {
		t.Fatalf("expected ErrInconsistentCorpus, got %v", err)
	}
}

func TestBuild_RecordsUsage(t *testing.T) {
	svc := newTestService(t, &mockEmbedder{vec: []float32{1, 1}, tokens: 7}, testSnapshot(t), nil)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := svc.Build(ctx, "Who won?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TotalTokens != 7 || !usage.Used {
		t.Errorf("usage = %+v", usage)
	}
}

func TestBuild_NotifiesObserver(t *testing.T) {
	var got []domprompt.Selection
	obs := domprompt.ObserverFunc(func(sel domprompt.Selection) { got = append(got, sel) })
	svc := newTestService(t, &mockEmbedder{vec: []float32{1, 1}}, testSnapshot(t), obs)

	if _, err := svc.Build(context.Background(), "Who won?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(got))
	}
	if got[0].Candidates != 3 || len(got[0].Sections) != 2 || got[0].TokensUsed != 200 {
		t.Errorf("unexpected selection: %+v", got[0])
	}
}

// --- Rank ---

func TestRank_Limit(t *testing.T) {
	svc := newTestService(t, &mockEmbedder{vec: []float32{1, 1}}, testSnapshot(t), nil)

	results, err := svc.Rank(context.Background(), "Who won?", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].Key() != keyC || results[1].Key() != keyB {
		t.Fatalf("unexpected results: %v", results)
	}
	if results[0].Score() != 2 {
		t.Errorf("top score = %v, want 2", results[0].Score())
	}
}

func TestRank_DefaultLimit(t *testing.T) {
	svc := newTestService(t, &mockEmbedder{vec: []float32{1, 1}}, testSnapshot(t), nil)

	results, err := svc.Rank(context.Background(), "Who won?", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Corpus is smaller than DefaultRankLimit.
	if len(results) != 3 {
		t.Fatalf("expected all 3 sections, got %d", len(results))
	}
}

func TestRank_DoesNotNeedRecords(t *testing.T) {
	svc := newTestService(t, &mockEmbedder{vec: []float32{1, 1}}, testSnapshot(t, keyA), nil)

	if _, err := svc.Rank(context.Background(), "Who won?", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- New ---

func TestNew_InvalidTemplate(t *testing.T) {
	tpl := testTemplate()
	tpl.MaxTokens = -1
	_, err := New(&mockEmbedder{}, testSnapshot(t), tpl, nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNew_MissingRecords(t *testing.T) {
	snap := testSnapshot(t)
	snap.Records = nil
	if _, err := New(&mockEmbedder{}, snap, testTemplate(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedError_KeepsSentinel(t *testing.T) {
	err := embedError(errors.New("boom"))
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) || !strings.Contains(err.Error(), "boom") {
		t.Errorf("unexpected error: %v", err)
	}
}
