// Command askctx-embed computes document embeddings for a sections file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/app"
	"github.com/kailas-cloud/askctx/internal/config"
	logpkg "github.com/kailas-cloud/askctx/internal/logger"
	"github.com/kailas-cloud/askctx/internal/metrics"
	corpusrepo "github.com/kailas-cloud/askctx/internal/repository/corpus"
	sectionrepo "github.com/kailas-cloud/askctx/internal/repository/section"
	"github.com/kailas-cloud/askctx/internal/usecase/corpusbuild"
	"github.com/kailas-cloud/askctx/internal/version"
)

type options struct {
	configPath string
	sections   string
	out        string
	batchSize  int
	publish    bool
	progress   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Config file (default: config/$ENV.yaml)")
	flag.StringVar(&opts.sections, "sections", "", "Sections CSV (default: corpus.sections_path)")
	flag.StringVar(&opts.out, "out", "", "Output .csv or .parquet (default: corpus.embeddings_path)")
	flag.IntVar(&opts.batchSize, "batch", 0, "Sections per embedding call (default: embedding.vectorizer.batch_size)")
	flag.BoolVar(&opts.publish, "publish", false, "Also write section records to the database")
	flag.BoolVar(&opts.progress, "progress", corpusbuild.StderrIsTerminal(), "Show progress bar")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "askctx-embed:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, &opts)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	logger.Info("Building corpus",
		zap.String("version", version.String()),
		zap.String("sections", opts.sections),
		zap.String("out", opts.out),
		zap.String("model", cfg.Embedding.Vectorizer.DocumentModel),
		zap.Int("batch_size", opts.batchSize),
	)

	if _, err := corpusrepo.FormatFromPath(opts.out); err != nil {
		return err
	}

	f, err := os.Open(opts.sections)
	if err != nil {
		return fmt.Errorf("open sections: %w", err)
	}
	records, err := sectionrepo.ReadCSV(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("read sections: %w", err)
	}

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	if opts.publish && store == nil {
		return errors.New("-publish requires database.driver redis")
	}

	budget := app.NewBudget(ctx, &cfg, store, logger)
	embedder := app.BuildEmbedder(&cfg, app.Document, store, budget, logger)

	start := time.Now()
	builder := corpusbuild.New(embedder, opts.batchSize, logger).
		WithProgress(corpusbuild.NewBarProgress(opts.progress, os.Stderr))
	res, err := builder.Build(ctx, records)
	if err != nil {
		return err
	}

	if err := corpusrepo.Save(opts.out, res.Corpus); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}

	if opts.publish {
		if err := sectionrepo.NewRedisStore(store).Put(ctx, records); err != nil {
			return fmt.Errorf("publish sections: %w", err)
		}
		logger.Info("Sections published", zap.Int("count", len(records)))
	}

	logger.Info("Corpus written",
		zap.String("path", opts.out),
		zap.Int("sections", res.Corpus.Len()),
		zap.Int("dimensions", res.Corpus.Dimensions()),
		zap.Int("tokens", res.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// applyOverrides fills unset flags from config.
func applyOverrides(cfg *config.Config, opts *options) {
	if opts.sections == "" {
		opts.sections = cfg.Corpus.SectionsPath
	}
	if opts.out == "" {
		opts.out = cfg.Corpus.EmbeddingsPath
	}
	if opts.batchSize <= 0 {
		opts.batchSize = cfg.Embedding.Vectorizer.BatchSize
	}
}
