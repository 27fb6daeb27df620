// Package budget persists embedding token counters in a key-value store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/askctx/internal/db"
	"github.com/kailas-cloud/askctx/internal/domain/usage"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps budget counters as INCRBY integers that expire after their window.
type Store struct {
	store store
	ttl   map[usage.Period]time.Duration
}

// New creates a budget store.
// dailyTTL applies to day counters (48h is enough), monthTTL to month counters (62 days).
func New(s store, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store: s,
		ttl: map[usage.Period]time.Duration{
			usage.PeriodDay:   dailyTTL,
			usage.PeriodMonth: monthTTL,
		},
	}
}

// IncrBy atomically increments the counter and sets its TTL on first write.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}

	// NX keeps the original expiry on later increments.
	if err := s.store.Expire(ctx, key, s.ttlForKey(key), true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get returns the current counter value, 0 when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

// ttlForKey picks the TTL from the period segment of askctx:budget:{provider}:{period}:{date}.
func (s *Store) ttlForKey(key string) time.Duration {
	if strings.Contains(key, ":"+string(usage.PeriodDay)+":") {
		return s.ttl[usage.PeriodDay]
	}
	return s.ttl[usage.PeriodMonth]
}
