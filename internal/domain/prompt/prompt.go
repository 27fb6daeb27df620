// Package prompt packs ranked sections into a bounded-length completion prompt.
package prompt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/askctx/internal/domain"
	"github.com/kailas-cloud/askctx/internal/domain/ranking"
	"github.com/kailas-cloud/askctx/internal/domain/section"
)

// Template holds the fixed prompt framing and the token budget.
type Template struct {
	Header          string
	Separator       string
	SeparatorTokens int
	MaxTokens       int
}

// TemplateFromConfig builds a Template from domain prompt settings.
func TemplateFromConfig(cfg domain.PromptConfig) Template {
	return Template{
		Header:          cfg.Header,
		Separator:       cfg.Separator,
		SeparatorTokens: cfg.SeparatorTokens,
		MaxTokens:       cfg.MaxSectionTokens,
	}
}

// Validate checks the budget settings.
func (t Template) Validate() error {
	if t.MaxTokens < 0 {
		return fmt.Errorf("%w: negative token budget %d", domain.ErrInvalidArgument, t.MaxTokens)
	}
	if t.SeparatorTokens < 0 {
		return fmt.Errorf("%w: negative separator length %d", domain.ErrInvalidArgument, t.SeparatorTokens)
	}
	return nil
}

// Lookup resolves a section key to its text record.
type Lookup interface {
	Lookup(key section.Key) (section.Record, bool)
}

// Selection describes which sections went into a prompt. Reported to an Observer only.
type Selection struct {
	Question   string
	Candidates int
	Sections   []section.Key
	TokensUsed int
}

// Observer receives assembly diagnostics. It cannot influence the result.
type Observer interface {
	Observe(sel Selection)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(sel Selection)

// Observe calls f(sel).
func (f ObserverFunc) Observe(sel Selection) { f(sel) }

// Observers fans a selection out to several observers in order.
type Observers []Observer

// Observe reports sel to every non-nil observer.
func (os Observers) Observe(sel Selection) {
	for _, o := range os {
		if o != nil {
			o.Observe(sel)
		}
	}
}

// Prompt is an assembled prompt and the sections it contains, in rank order.
type Prompt struct {
	text       string
	sections   []section.Key
	tokensUsed int
}

// Text returns the full prompt string.
func (p *Prompt) Text() string { return p.text }

// Sections returns the selected section keys in rank order.
func (p *Prompt) Sections() []section.Key { return p.sections }

// TokensUsed returns the budget consumed by the selected sections and their separators.
func (p *Prompt) TokensUsed() int { return p.tokensUsed }

// Assemble walks ranked results in order and packs section texts until the budget is exceeded.
//
// Each candidate costs its token length plus SeparatorTokens. The first candidate that
// pushes the running total past MaxTokens ends the walk; lower ranked candidates are never
// considered, even if they would fit. A ranked key missing from records fails with
// domain.ErrInconsistentCorpus. obs may be nil.
func Assemble(
	ranked []ranking.Result, records Lookup, question string, tpl Template, obs Observer,
) (Prompt, error) {
	if err := tpl.Validate(); err != nil {
		return Prompt{}, err
	}

	var (
		body     strings.Builder
		selected []section.Key
		total    int
		used     int
	)

	for _, r := range ranked {
		rec, ok := records.Lookup(r.Key())
		if !ok {
			return Prompt{}, fmt.Errorf("%w: no text for section %s", domain.ErrInconsistentCorpus, r.Key())
		}

		total += rec.Tokens() + tpl.SeparatorTokens
		if total > tpl.MaxTokens {
			break
		}
		used = total

		body.WriteString(tpl.Separator)
		body.WriteString(strings.ReplaceAll(rec.Content(), "\n", " "))
		selected = append(selected, r.Key())
	}

	if obs != nil {
		obs.Observe(Selection{
			Question:   question,
			Candidates: len(ranked),
			Sections:   slices.Clone(selected),
			TokensUsed: used,
		})
	}

	return Prompt{
		text:       tpl.Header + body.String() + "\n\nQ: " + question + "\nA:",
		sections:   selected,
		tokensUsed: used,
	}, nil
}
