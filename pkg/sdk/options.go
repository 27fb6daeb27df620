package askctx

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	embedder Embedder

	corpusPath   string
	embeddings   []Embedding
	sectionsPath string
	sections     []Section

	prompt *PromptConfig

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEmbedder sets the question embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCorpusFile loads section embeddings from a .csv or .parquet file.
func WithCorpusFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusPath = path
	})
}

// WithEmbeddings sets section embeddings in memory. Overrides WithCorpusFile.
func WithEmbeddings(e []Embedding) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddings = e
	})
}

// WithSectionsFile loads section texts from a CSV with title, heading, content and tokens columns.
func WithSectionsFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sectionsPath = path
	})
}

// WithSections sets section texts in memory. Overrides WithSectionsFile.
func WithSections(s []Section) Option {
	return optionFunc(func(c *clientConfig) {
		c.sections = s
	})
}

// WithPromptConfig overrides the prompt header, separator and token budget.
func WithPromptConfig(p PromptConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.prompt = &p
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
