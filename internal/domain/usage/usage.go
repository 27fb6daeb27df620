// Package usage describes embedding token consumption against the configured budget.
package usage

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/askctx/internal/domain"
)

// Period is the budget accounting window.
type Period string

// Accounting windows.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty input means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", domain.ErrInvalidArgument, s)
	}
}

// Bounds returns the UTC window [start, end) containing t.
func (p Period) Bounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	if p == PeriodMonth {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Unlimited marks a budget without a cap.
const Unlimited int64 = -1

// Budget is the token budget state of one window.
type Budget struct {
	Limit     int64 // 0 means no cap
	Used      int64
	Remaining int64 // Unlimited when Limit is 0
}

// NewBudget computes the remaining tokens for a window.
func NewBudget(limit, used int64) Budget {
	b := Budget{Limit: limit, Used: used, Remaining: Unlimited}
	if limit > 0 {
		b.Remaining = max(limit-used, 0)
	}
	return b
}

// Exhausted reports whether a capped budget has no tokens left.
func (b Budget) Exhausted() bool {
	return b.Limit > 0 && b.Remaining == 0
}

// Report is the embedding usage of a provider for one window.
type Report struct {
	period   Period
	start    time.Time
	end      time.Time
	provider string
	budget   Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, provider string, b Budget) Report {
	return Report{period: period, start: start, end: end, provider: provider, budget: b}
}

// Period returns the accounting window.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the window start.
func (r *Report) PeriodStart() time.Time { return r.start }

// PeriodEnd returns the window end, which is also when the budget resets.
func (r *Report) PeriodEnd() time.Time { return r.end }

// Provider returns the embedding provider name.
func (r *Report) Provider() string { return r.provider }

// Budget returns the budget state.
func (r *Report) Budget() Budget { return r.budget }
