// Package app holds the wiring shared by the askctx binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/config"
	dbRedis "github.com/kailas-cloud/askctx/internal/db/redis"
	"github.com/kailas-cloud/askctx/internal/domain"
	"github.com/kailas-cloud/askctx/internal/metrics"
	budgetrepo "github.com/kailas-cloud/askctx/internal/repository/budget"
	"github.com/kailas-cloud/askctx/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/askctx/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/askctx/internal/usecase/embedding"
)

// OpenStore connects to the configured database and waits until it answers.
// It returns nil when no database is configured.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*dbRedis.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// NewBudget creates the provider's budget tracker, or nil when no limit is configured.
// store may be nil; counters then live in memory only.
func NewBudget(
	ctx context.Context, cfg *config.Config, store *dbRedis.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	name := cfg.Embedding.Vectorizer.Provider
	bc := cfg.Provider().Budget
	if bc.DailyTokenLimit <= 0 && bc.MonthlyTokenLimit <= 0 {
		return nil
	}

	action := embeddinguc.BudgetActionWarn
	if bc.Action == string(embeddinguc.BudgetActionReject) {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(name, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, logger)

	if store != nil {
		budget.WithStore(ctx, budgetrepo.New(store,
			time.Duration(cfg.Storage.BudgetDailyTTLHours)*time.Hour,
			time.Duration(cfg.Storage.BudgetMonthlyTTLDays)*24*time.Hour,
		))
	}
	return budget
}

// Side selects the model and instruction of an embedder chain.
type Side int

// Embedding sides.
const (
	Document Side = iota
	Query
)

// Embedder is the assembled decorator chain together with its provider client.
type Embedder struct {
	domain.Embedder
	Base  *openaiEmb.Embedder
	Model string
}

// BuildEmbedder assembles the chain: OpenAI -> Cached -> Instrumented -> Instruction.
// store and budget may be nil.
func BuildEmbedder(
	cfg *config.Config, side Side, store *dbRedis.Store,
	budget *embeddinguc.BudgetTracker, logger *zap.Logger,
) Embedder {
	vec := cfg.Embedding.Vectorizer
	prov := cfg.Provider()

	model, instruction := vec.DocumentModel, vec.DocumentInstruction
	if side == Query {
		model, instruction = vec.QueryModel, vec.QueryInstruction
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      model,
		Dimensions: vec.Dimensions,
		Provider:   vec.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil && cfg.Embedding.Cache {
		embedder = embcache.New(base, store, model, metrics.EmbeddingCacheTotal, logger)
	}

	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var checker embeddinguc.BudgetChecker
	if budget != nil {
		checker = budget
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, vec.Provider, model, checker, logger)

	// Instruction prefix is outermost so the cache key includes it.
	if instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, instruction)
	}

	return Embedder{Embedder: embedder, Base: base, Model: model}
}
