package service

import (
	"context"

	"github.com/Foresight-builder/Foresight-backend/internal/drift"
	"github.com/Foresight-builder/Foresight-backend/internal/store"
)

// Counter is the capability shared by the authoritative repository and the
// fallback store.
type Counter interface {
	CountFollowers(ctx context.Context, eventID int64) (int64, error)
}

// FallbackPolicy decides when a failure of the authoritative store may be
// served from the local fallback store. The zero value never falls back.
type FallbackPolicy struct {
	Enabled bool
	Local   store.FallbackStore
}

// Applies reports whether a failure tagged class may be degraded to the
// fallback store. Without the flag a migration symptom must surface as
// "setup required" instead.
func (p FallbackPolicy) Applies(class drift.Class) bool {
	return p.Enabled && p.Local != nil && class.IsMigrationSymptom()
}

var (
	_ Counter = store.FallbackStore(nil)
)
