package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/app"
	"github.com/kailas-cloud/askctx/internal/config"
	dbRedis "github.com/kailas-cloud/askctx/internal/db/redis"
	"github.com/kailas-cloud/askctx/internal/domain"
	domprompt "github.com/kailas-cloud/askctx/internal/domain/prompt"
	domsection "github.com/kailas-cloud/askctx/internal/domain/section"
	logpkg "github.com/kailas-cloud/askctx/internal/logger"
	"github.com/kailas-cloud/askctx/internal/metrics"
	corpusrepo "github.com/kailas-cloud/askctx/internal/repository/corpus"
	sectionrepo "github.com/kailas-cloud/askctx/internal/repository/section"
	chiTransport "github.com/kailas-cloud/askctx/internal/transport/chi"
	healthuc "github.com/kailas-cloud/askctx/internal/usecase/health"
	promptuc "github.com/kailas-cloud/askctx/internal/usecase/prompt"
	usageuc "github.com/kailas-cloud/askctx/internal/usecase/usage"
	"github.com/kailas-cloud/askctx/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting askctx API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embeddings_path", cfg.Corpus.EmbeddingsPath),
		zap.String("sections_source", cfg.Corpus.SectionsSource),
	)

	metrics.Register()

	ctx := context.Background()

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	}

	snapshot, err := loadSnapshot(ctx, &cfg, store)
	if err != nil {
		logger.Fatal("Failed to load corpus", zap.Error(err))
	}
	logger.Info("Corpus loaded",
		zap.Int("sections", snapshot.Corpus.Len()),
		zap.Int("dimensions", snapshot.Corpus.Dimensions()),
	)
	if missing := missingSections(snapshot); len(missing) > 0 {
		logger.Warn("Embedded sections without text",
			zap.Int("count", len(missing)),
			zap.Strings("sections", missing[:min(len(missing), 10)]),
		)
	}

	// Single BudgetTracker shared by the query embedder and the usage service.
	budget := app.NewBudget(ctx, &cfg, store, logger)
	query := app.BuildEmbedder(&cfg, app.Query, store, budget, logger)
	logger.Info("Query embedder created",
		zap.String("provider", cfg.Embedding.Vectorizer.Provider),
		zap.String("model", query.Model),
		zap.Bool("cache", store != nil && cfg.Embedding.Cache),
	)

	promptSvc, err := promptuc.New(
		query, snapshot,
		domprompt.TemplateFromConfig(cfg.Prompt.Domain()),
		metrics.PromptObserver{},
	)
	if err != nil {
		logger.Fatal("Failed to create prompt service", zap.Error(err))
	}

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	// Pass nil interfaces, not typed nil pointers.
	var dbPinger healthuc.DBPinger
	if store != nil {
		dbPinger = store
	}
	healthSvc := healthuc.New(dbPinger, query.Base, snapshot.Corpus)

	server := chiTransport.NewServer(promptSvc, healthSvc, usageSvc, logger).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	router := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys: cfg.Auth.APIKeys,
		Logger:  logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// loadSnapshot reads the embeddings file and the section texts, and checks they agree.
func loadSnapshot(ctx context.Context, cfg *config.Config, store *dbRedis.Store) (promptuc.Snapshot, error) {
	c, err := corpusrepo.Load(cfg.Corpus.EmbeddingsPath)
	if err != nil {
		return promptuc.Snapshot{}, fmt.Errorf("load embeddings: %w", err)
	}

	var records domsection.Records
	switch cfg.Corpus.SectionsSource {
	case config.SectionsFromRedis:
		records, err = sectionrepo.NewRedisStore(store).Snapshot(ctx)
	default:
		records, err = sectionrepo.LoadCSV(cfg.Corpus.SectionsPath)
	}
	if err != nil {
		return promptuc.Snapshot{}, fmt.Errorf("load sections: %w", err)
	}

	if want := cfg.Embedding.Vectorizer.Dimensions; want > 0 && c.Len() > 0 && c.Dimensions() != want {
		return promptuc.Snapshot{}, fmt.Errorf("embeddings: %w", domain.NewDimensionMismatch(want, c.Dimensions()))
	}

	return promptuc.Snapshot{Corpus: c, Records: records}, nil
}

// missingSections lists embedded sections without text. Prompts that rank one of
// them within budget fail with an inconsistent corpus error.
func missingSections(snapshot promptuc.Snapshot) []string {
	var missing []string
	for _, k := range snapshot.Corpus.Keys() {
		if _, ok := snapshot.Records.Lookup(k); !ok {
			missing = append(missing, k.String())
		}
	}
	return missing
}
