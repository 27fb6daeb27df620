// Package usage reports embedding token consumption.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/askctx/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the window of period containing the current time.
// Without a budget reader the report shows an unlimited, unused budget.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())

	if s.br == nil {
		return domusage.NewReport(period, start, end, "", domusage.NewBudget(0, 0))
	}
	return domusage.NewReport(period, start, end, s.br.Provider(), s.br.Status(period))
}
