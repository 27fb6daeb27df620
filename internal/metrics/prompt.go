package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/askctx/internal/domain/prompt"
)

var (
	PromptSectionsSelected = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prompt_sections_selected",
			Help:      "Number of sections packed into a prompt",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	PromptTokensUsed = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prompt_tokens_used",
			Help:      "Token budget consumed by selected sections and separators",
			Buckets:   prometheus.LinearBuckets(0, 100, 11),
		},
	)

	RankCandidates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rank_candidates",
			Help:      "Number of corpus sections ranked for the last question",
		},
	)
)

func promptCollectors() []prometheus.Collector {
	return []prometheus.Collector{PromptSectionsSelected, PromptTokensUsed, RankCandidates}
}

// PromptObserver records prompt assembly outcomes.
type PromptObserver struct{}

// Observe implements prompt.Observer.
func (PromptObserver) Observe(sel prompt.Selection) {
	PromptSectionsSelected.Observe(float64(len(sel.Sections)))
	PromptTokensUsed.Observe(float64(sel.TokensUsed))
	RankCandidates.Set(float64(sel.Candidates))
}

var _ prompt.Observer = PromptObserver{}
