package section

import (
	"context"
	"strings"

	"github.com/kailas-cloud/askctx/internal/db"
)

// mockStore is an in-memory hash store.
type mockStore struct {
	hashes       map[string]map[string]string
	hsetMultiErr error
	scanErr      error
	hsetCalls    int
}

func newMockStore() *mockStore {
	return &mockStore{hashes: map[string]map[string]string{}}
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.hsetCalls++
	if m.hsetMultiErr != nil {
		return m.hsetMultiErr
	}
	for _, it := range items {
		h := m.hashes[it.Key]
		if h == nil {
			h = map[string]string{}
			m.hashes[it.Key] = h
		}
		for k, v := range it.Fields {
			h[k] = v
		}
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	h, ok := m.hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	return h, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
