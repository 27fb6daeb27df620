package askctx

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domprompt "github.com/kailas-cloud/askctx/internal/domain/prompt"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	promptSections  prometheus.Histogram
	promptTokens    prometheus.Histogram
	rankResults     prometheus.Histogram
	embeddingTokens *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askctx",
			Subsystem: "sdk",
			Name:      "requests_total",
			Help:      "Prompt and rank calls by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "askctx",
			Subsystem: "sdk",
			Name:      "request_duration_seconds",
			Help:      "Prompt and rank latency, including the question embedding.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		promptSections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "askctx",
			Subsystem: "sdk",
			Name:      "prompt_sections",
			Help:      "Sections selected into each assembled prompt.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
		promptTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "askctx",
			Subsystem: "sdk",
			Name:      "prompt_tokens_used",
			Help:      "Section and separator tokens spent per prompt.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		}),
		rankResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "askctx",
			Subsystem: "sdk",
			Name:      "rank_results",
			Help:      "Sections returned per rank call.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		embeddingTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askctx",
			Subsystem: "sdk",
			Name:      "embedding_tokens_total",
			Help:      "Tokens billed by the embedder for questions.",
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.promptSections); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.promptTokens); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.rankResults); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.embeddingTokens); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("askctx: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("askctx: register metric: %w", err)
	}
	return nil
}

// observer reports prompt and rank calls to slog and prometheus.
// It also receives section selections from prompt assembly.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

var _ domprompt.Observer = (*observer)(nil)

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// Observe records which sections a prompt kept and the budget they spent.
func (o *observer) Observe(sel domprompt.Selection) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.promptSections.Observe(float64(len(sel.Sections)))
		o.metrics.promptTokens.Observe(float64(sel.TokensUsed))
	}
	if o.logger != nil {
		o.logger.Debug("prompt assembled",
			"candidates", sel.Candidates,
			"selected", len(sel.Sections),
			"tokens_used", sel.TokensUsed,
		)
	}
}

func (o *observer) prompt(start time.Time, p Prompt, embeddingTokens int, err error) {
	if o == nil {
		return
	}
	o.finish("prompt", start, embeddingTokens, err,
		"sections", len(p.Sections), "tokens_used", p.TokensUsed)
}

func (o *observer) rank(start time.Time, results int, embeddingTokens int, err error) {
	if o == nil {
		return
	}
	if o.metrics != nil && err == nil {
		o.metrics.rankResults.Observe(float64(results))
	}
	o.finish("rank", start, embeddingTokens, err, "results", results)
}

func (o *observer) finish(op string, start time.Time, embeddingTokens int, err error, attrs ...any) {
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.requests.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
		if embeddingTokens > 0 {
			o.metrics.embeddingTokens.WithLabelValues(op).Add(float64(embeddingTokens))
		}
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn(op+" failed", "duration", dur, "error", err)
		return
	}
	o.logger.Debug(op+" completed",
		append([]any{"duration", dur, "embedding_tokens", embeddingTokens}, attrs...)...)
}
