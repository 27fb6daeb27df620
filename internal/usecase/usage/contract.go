package usage

import domusage "github.com/kailas-cloud/askctx/internal/domain/usage"

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Provider() string
	Status(period domusage.Period) domusage.Budget
}
