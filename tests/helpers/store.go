package helpers

import (
	"slices"
	"testing"

	"github.com/xiaot623/gogo/director/internal/domain"
	"github.com/xiaot623/gogo/director/internal/registry"
	"github.com/xiaot623/gogo/director/internal/repository"
)

// NewTestSQLiteStore returns an in-memory job ledger closed at test end.
func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewTestRegistry builds a registry from the built-in catalogue with
// deterministic ids.
func NewTestRegistry(t *testing.T, names ...string) *registry.Registry {
	t.Helper()

	var descs []domain.AgentDescriptor
	for _, d := range registry.DefaultAgents() {
		if len(names) > 0 && !slices.Contains(names, d.Name) {
			continue
		}
		d.ID = "id-" + d.Name
		descs = append(descs, d)
	}

	r, err := registry.New(descs)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return r
}
