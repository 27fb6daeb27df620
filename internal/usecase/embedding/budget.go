package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askctx/internal/domain"
	"github.com/kailas-cloud/askctx/internal/domain/usage"
)

// BudgetAction defines behavior when token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// persistTimeout bounds a write-behind store update.
const persistTimeout = 2 * time.Second

// BudgetStore is the persistence interface for budget counters.
// IncrBy may be called repeatedly for the same key.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// window is one accounting period with its own cap.
type window struct {
	period usage.Period
	limit  int64
	used   int64
	start  time.Time
}

// roll zeroes the counter once now leaves the current window.
func (w *window) roll(now time.Time) {
	start, _ := w.period.Bounds(now)
	if !start.Equal(w.start) {
		w.used = 0
		w.start = start
	}
}

func (w *window) exceeded() bool {
	return w.limit > 0 && w.used >= w.limit
}

// key names the persisted counter, e.g. askctx:budget:openai:day:2024-02-29.
func (w *window) key(provider string) string {
	layout := "2006-01-02"
	if w.period == usage.PeriodMonth {
		layout = "2006-01"
	}
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, provider, w.period, w.start.Format(layout))
}

// BudgetTracker counts embedding tokens per day and per month.
// Check reads in-memory counters only. Record updates memory first,
// then writes behind to the store when one is attached.
type BudgetTracker struct {
	mu       sync.Mutex
	day      window
	month    window
	action   BudgetAction
	provider string
	now      func() time.Time
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a budget tracker. A zero limit disables that cap.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		day:      window{period: usage.PeriodDay, limit: dailyLimit},
		month:    window{period: usage.PeriodMonth, limit: monthlyLimit},
		action:   action,
		provider: provider,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
	b.rollLocked()
	return b
}

// WithStore attaches a persistence store and loads current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	b.rollLocked()
	for _, w := range []*window{&b.day, &b.month} {
		val, err := store.Get(ctx, w.key(b.provider))
		if err != nil {
			b.logger.Warn("Failed to load budget from store",
				zap.String("period", string(w.period)), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("monthly_used", b.month.used),
	)
	return b
}

// Provider returns the provider the budget applies to.
func (b *BudgetTracker) Provider() string { return b.provider }

// Check verifies the budget allows a new request.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	if !b.day.exceeded() && !b.month.exceeded() {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.day.used),
		zap.Int64("daily_limit", b.day.limit),
		zap.Int64("monthly_used", b.month.used),
		zap.Int64("monthly_limit", b.month.limit),
	)
	return nil
}

// Record registers consumed tokens after a request.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollLocked()
	b.day.used += tokens
	b.month.used += tokens
	store := b.store
	keys := []string{b.day.key(b.provider), b.month.key(b.provider)}
	b.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request so a slow store never blocks the caller's deadline.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Status returns the budget state of the window containing the current time.
func (b *BudgetTracker) Status(period usage.Period) usage.Budget {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	w := b.day
	if period == usage.PeriodMonth {
		w = b.month
	}
	return usage.NewBudget(w.limit, w.used)
}

func (b *BudgetTracker) rollLocked() {
	now := b.now()
	b.day.roll(now)
	b.month.roll(now)
}
