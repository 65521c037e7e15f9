package features

import (
	"context"
	"errors"
	"log/slog"
)

// Source loads the flags of one period type. Implementations return
// ErrNotConfigured when no settings exist for that scope and period.
type Source interface {
	DepartmentFlags(ctx context.Context, tenantID, departmentID string, period PeriodType) (Flags, error)
	CompanyFlags(ctx context.Context, tenantID string, period PeriodType) (Flags, error)
}

// Resolver picks the snapshot for one KPI: department settings first, then
// company settings, then Fallback. Each period type falls back on its own.
// It keeps no state between calls.
type Resolver struct {
	Source   Source
	Fallback Set
}

func NewResolver(source Source, fallback Set) *Resolver {
	return &Resolver{Source: source, Fallback: fallback}
}

func (r *Resolver) Resolve(ctx context.Context, tenantID, departmentID string, period PeriodType) Snapshot {
	if r == nil {
		return DefaultSet().fallbackSnapshot(period)
	}
	if r.Source == nil {
		return r.Fallback.fallbackSnapshot(period)
	}

	if departmentID != "" {
		flags, err := r.Source.DepartmentFlags(ctx, tenantID, departmentID, period)
		if err == nil {
			return flags.snapshot(period)
		}
		if !errors.Is(err, ErrNotConfigured) {
			slog.Warn("department features unavailable, using defaults", "tenantId", tenantID, "departmentId", departmentID, "err", err)
			return r.Fallback.fallbackSnapshot(period)
		}
	}

	flags, err := r.Source.CompanyFlags(ctx, tenantID, period)
	if err == nil {
		return flags.snapshot(period)
	}
	if !errors.Is(err, ErrNotConfigured) {
		slog.Warn("company features unavailable, using defaults", "tenantId", tenantID, "err", err)
	}
	return r.Fallback.fallbackSnapshot(period)
}

func (s Set) fallbackSnapshot(period PeriodType) Snapshot {
	snapshot := s.Snapshot(period)
	snapshot.Defaulted = true
	return snapshot
}
