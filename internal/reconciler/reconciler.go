package reconciler

import (
	"context"
	"time"

	"github.com/Foresight-builder/Foresight-backend/internal/config"
	"github.com/Foresight-builder/Foresight-backend/internal/drift"
	"github.com/Foresight-builder/Foresight-backend/internal/repository"
	"github.com/Foresight-builder/Foresight-backend/internal/store"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

// Reconciler periodically rebuilds the fallback follower sets of the most
// read events from the authoritative store.
type Reconciler struct {
	store  store.FallbackStore
	repo   repository.FollowRepository
	cfg    config.ReconcilerConfig
	quit   chan struct{}
	doneCh chan struct{}
}

// New creates a new Reconciler.
func New(store store.FallbackStore, repo repository.FollowRepository, cfg config.ReconcilerConfig) *Reconciler {
	return &Reconciler{
		store:  store,
		repo:   repo,
		cfg:    cfg,
		quit:   make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile runs one cycle. It returns the number of events rebuilt.
// A migration symptom from the authoritative store ends the cycle early and
// keeps the hot scores, since the fallback sets are the only source left.
func (r *Reconciler) Reconcile(ctx context.Context) int {
	l := pkglog.L()

	topN := int64(r.cfg.TopN)
	if topN <= 0 {
		topN = 100
	}

	// 1. Fetch top-N hot events
	eventIDs, err := r.store.GetTopHotEvents(ctx, topN)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to get top hot events")
		return 0
	}

	if len(eventIDs) == 0 {
		l.Debug().Msg("reconciler: no hot events to reconcile")
		return 0
	}

	// 2. Rebuild each hot event's follower set from the DB
	rebuilt := 0
	for _, eventID := range eventIDs {
		keys, err := r.repo.ListFollowerKeys(ctx, eventID)
		if err != nil {
			if class := drift.Classify(err); class.IsMigrationSymptom() {
				l.Warn().Err(err).
					Str(pkglog.FieldClass, class.String()).
					Msg("reconciler: authoritative store needs the follower-key migration, skipping cycle")
				return rebuilt
			}
			l.Error().Err(err).Int64(pkglog.FieldEventID, eventID).Msg("reconciler: failed to list followers from db")
			continue
		}
		if err := r.store.ReplaceFollowers(ctx, eventID, keys); err != nil {
			l.Error().Err(err).Int64(pkglog.FieldEventID, eventID).Msg("reconciler: failed to replace fallback followers")
			continue
		}
		rebuilt++
	}

	// 3. Reset hot scores for the next cycle
	if err := r.store.ResetHotEventScores(ctx); err != nil {
		l.Error().Err(err).Msg("reconciler: failed to reset hot event scores")
	}

	l.Info().Int("count", rebuilt).Msg("reconciler: hot-event reconciliation complete")
	return rebuilt
}
