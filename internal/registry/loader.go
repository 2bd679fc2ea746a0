package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/xiaot623/gogo/director/internal/domain"
)

// Loader produces the registry snapshot used for one planning or execution cycle.
type Loader interface {
	Load(ctx context.Context) (*Registry, error)
}

// Source provides raw agent records.
type Source interface {
	ListAgents(ctx context.Context) ([]domain.AgentDescriptor, error)
}

// StoreLoader builds a fresh snapshot from a Source on every Load.
type StoreLoader struct {
	source Source
	logger *slog.Logger
}

// NewStoreLoader creates a loader over source.
func NewStoreLoader(source Source, logger *slog.Logger) *StoreLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreLoader{source: source, logger: logger}
}

// Load reads every record and builds a snapshot. Records that would make the
// snapshot inconsistent are skipped with a warning: a missing name, a
// malformed address, a negative cost, or a name or address already taken by
// an earlier record.
func (l *StoreLoader) Load(ctx context.Context) (*Registry, error) {
	records, err := l.source.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	kept := records[:0:0]
	names := make(map[string]bool, len(records))
	addresses := make(map[string]bool, len(records))
	for _, rec := range records {
		if reason := l.reject(rec, names, addresses); reason != "" {
			l.logger.Warn("skipping agent record", "reason", reason, "id", rec.ID, "agent", rec.Name, "address", rec.Address)
			continue
		}
		names[rec.Name] = true
		addresses[addressKey(rec.Address)] = true
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		l.logger.Warn("no agents found in store; run agentctl seed to provision the catalogue")
	}
	return New(kept)
}

func (l *StoreLoader) reject(rec domain.AgentDescriptor, names, addresses map[string]bool) string {
	switch {
	case rec.Name == "":
		return "missing name"
	case !ValidAddress(rec.Address):
		return "malformed address"
	case rec.CostPerOutputToken < 0 || math.IsNaN(rec.CostPerOutputToken):
		return "negative cost"
	case names[rec.Name]:
		return "duplicate name"
	case addresses[addressKey(rec.Address)]:
		return "duplicate address"
	}
	return ""
}

// Static always returns the same snapshot.
type Static struct {
	registry *Registry
}

// NewStatic wraps an existing registry.
func NewStatic(r *Registry) *Static {
	return &Static{registry: r}
}

// Load returns the wrapped snapshot.
func (s *Static) Load(ctx context.Context) (*Registry, error) {
	if s.registry == nil {
		return MustNew(nil), nil
	}
	return s.registry, nil
}
