package domain

import (
	"context"
	"testing"
)

func TestUsageFromContext_Missing(t *testing.T) {
	u := UsageFromContext(context.Background())
	if u != nil {
		t.Fatalf("expected nil usage, got %+v", u)
	}
	// nil receiver must not panic
	u.AddTokens(10)
}

func TestUsageFromContext_AddTokens(t *testing.T) {
	ctx, u := NewContextWithUsage(context.Background())

	UsageFromContext(ctx).AddTokens(7)
	UsageFromContext(ctx).AddTokens(0)

	if u.TotalTokens != 7 {
		t.Errorf("TotalTokens = %d, want 7", u.TotalTokens)
	}
	if !u.Used {
		t.Error("expected Used=true after AddTokens")
	}
}
