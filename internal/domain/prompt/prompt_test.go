package prompt

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/askctx/internal/domain"
	"github.com/kailas-cloud/askctx/internal/domain/ranking"
	"github.com/kailas-cloud/askctx/internal/domain/section"
)

func k(title string) section.Key { return section.Key{Title: title, Heading: "h"} }

func fixture(t *testing.T, tokens ...int) ([]ranking.Result, section.Records) {
	t.Helper()
	titles := []string{"a", "b", "c", "d", "e"}
	ranked := make([]ranking.Result, len(tokens))
	recs := make([]section.Record, len(tokens))
	for i, n := range tokens {
		key := k(titles[i])
		ranked[i] = ranking.NewResult(key, float64(len(tokens)-i))
		r, err := section.NewRecord(key, titles[i]+"-text", n)
		if err != nil {
			t.Fatalf("NewRecord: %v", err)
		}
		recs[i] = r
	}
	rs, err := section.NewRecords(recs)
	if err != nil {
		t.Fatalf("NewRecords: %v", err)
	}
	return ranked, rs
}

func TestAssemble_BudgetCutoff(t *testing.T) {
	ranked, recs := fixture(t, 100, 100, 100)
	tpl := Template{Header: "H:", Separator: "|", SeparatorTokens: 0, MaxTokens: 250}

	p, err := Assemble(ranked, recs, "q?", tpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Sections()) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(p.Sections()))
	}
	if p.Sections()[0] != k("a") || p.Sections()[1] != k("b") {
		t.Errorf("unexpected selection: %v", p.Sections())
	}
	if p.TokensUsed() != 200 {
		t.Errorf("TokensUsed = %d, want 200", p.TokensUsed())
	}
	want := "H:|a-text|b-text\n\nQ: q?\nA:"
	if p.Text() != want {
		t.Errorf("Text = %q, want %q", p.Text(), want)
	}
}

func TestAssemble_SeparatorCountsTowardBudget(t *testing.T) {
	ranked, recs := fixture(t, 100, 100)
	tpl := Template{Separator: "\n* ", SeparatorTokens: 3, MaxTokens: 205}

	p, err := Assemble(ranked, recs, "q", tpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Sections()) != 1 {
		t.Fatalf("expected 1 section (103+103 > 205), got %d", len(p.Sections()))
	}
}

func TestAssemble_ExactFitIncluded(t *testing.T) {
	ranked, recs := fixture(t, 100, 150)
	tpl := Template{MaxTokens: 250}

	p, err := Assemble(ranked, recs, "q", tpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Sections()) != 2 {
		t.Errorf("expected both sections at exactly the budget, got %d", len(p.Sections()))
	}
}

func TestAssemble_FirstCandidateTooLarge(t *testing.T) {
	ranked, recs := fixture(t, 600, 10, 10)
	tpl := Template{Header: "Context:\n", Separator: "\n* ", SeparatorTokens: 3, MaxTokens: 500}

	p, err := Assemble(ranked, recs, "Who won?", tpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Sections()) != 0 {
		t.Errorf("expected no sections, got %v", p.Sections())
	}
	if p.Text() != "Context:\n\n\nQ: Who won?\nA:" {
		t.Errorf("unexpected prompt: %q", p.Text())
	}
}

func TestAssemble_NoLookAhead(t *testing.T) {
	// b overflows; c would fit but must not be picked
	ranked, recs := fixture(t, 50, 500, 10)
	tpl := Template{MaxTokens: 100}

	p, err := Assemble(ranked, recs, "q", tpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Sections()) != 1 || p.Sections()[0] != k("a") {
		t.Errorf("expected only a, got %v", p.Sections())
	}
}

func TestAssemble_NormalizesNewlines(t *testing.T) {
	key := k("a")
	rec, _ := section.NewRecord(key, "line one\nline two\n\nend", 5)
	recs, _ := section.NewRecords([]section.Record{rec})
	ranked := []ranking.Result{ranking.NewResult(key, 1)}

	p, err := Assemble(ranked, recs, "q", Template{Separator: "* ", MaxTokens: 10}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "* line one line two  end\n\nQ: q\nA:"
	if p.Text() != want {
		t.Errorf("Text = %q, want %q", p.Text(), want)
	}
}

func TestAssemble_InconsistentCorpus(t *testing.T) {
	ranked, recs := fixture(t, 10)
	ranked = append(ranked, ranking.NewResult(k("missing"), 0))

	_, err := Assemble(ranked, recs, "q", Template{MaxTokens: 1000}, nil)
	if !errors.Is(err, domain.ErrInconsistentCorpus) {
		t.Fatalf("expected ErrInconsistentCorpus, got %v", err)
	}
}

func TestAssemble_MissingAfterCutoffIgnored(t *testing.T) {
	ranked, recs := fixture(t, 90, 90)
	ranked = append(ranked, ranking.NewResult(k("missing"), 0))

	p, err := Assemble(ranked, recs, "q", Template{MaxTokens: 100}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Sections()) != 1 {
		t.Errorf("expected 1 section, got %d", len(p.Sections()))
	}
}

func TestAssemble_ObserverDoesNotAffectResult(t *testing.T) {
	ranked, recs := fixture(t, 100, 100, 100)
	tpl := Template{Header: "H", Separator: "|", MaxTokens: 250}

	var got Selection
	calls := 0
	obs := ObserverFunc(func(sel Selection) {
		calls++
		got = sel
		sel.Sections = nil
	})

	withObs, err := Assemble(ranked, recs, "q", tpl, obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	without, err := Assemble(ranked, recs, "q", tpl, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("observer called %d times, want 1", calls)
	}
	if got.Candidates != 3 || len(got.Sections) != 2 || got.TokensUsed != 200 || got.Question != "q" {
		t.Errorf("unexpected selection: %+v", got)
	}
	if withObs.Text() != without.Text() || len(withObs.Sections()) != len(without.Sections()) {
		t.Error("observer changed the result")
	}
}

func TestObservers_FanOut(t *testing.T) {
	var a, b int
	obs := Observers{
		ObserverFunc(func(Selection) { a++ }),
		nil,
		ObserverFunc(func(Selection) { b++ }),
	}
	obs.Observe(Selection{})
	if a != 1 || b != 1 {
		t.Errorf("fan-out calls: a=%d b=%d", a, b)
	}
}

func TestTemplate_Validate(t *testing.T) {
	if err := (Template{MaxTokens: -1}).Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for negative budget, got %v", err)
	}
	if err := (Template{SeparatorTokens: -1}).Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for negative separator, got %v", err)
	}
}

func TestTemplateFromConfig(t *testing.T) {
	tpl := TemplateFromConfig(domain.DefaultPromptConfig())
	if tpl.MaxTokens != 500 || tpl.SeparatorTokens != 3 || tpl.Separator != "\n* " {
		t.Errorf("unexpected template: %+v", tpl)
	}
}
