package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Foresight-builder/Foresight-backend/internal/drift"
	"github.com/Foresight-builder/Foresight-backend/internal/input"
	"github.com/Foresight-builder/Foresight-backend/internal/repository"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

// AccessRecorder tracks which events are read most, so the reconciler can
// keep their fallback sets fresh.
type AccessRecorder interface {
	RecordAccess(ctx context.Context, eventID int64) error
}

// followCountService implements FollowCountService.
type followCountService struct {
	remote   Counter
	policy   FallbackPolicy
	recorder AccessRecorder
	sf       singleflight.Group
}

// NewFollowCountService creates a FollowCountService reading from remote and
// degrading according to policy. recorder may be nil.
func NewFollowCountService(remote Counter, policy FallbackPolicy, recorder AccessRecorder) FollowCountService {
	return &followCountService{
		remote:   remote,
		policy:   policy,
		recorder: recorder,
	}
}

// CountFollowers counts followers of every id concurrently. The first
// failure that cannot be degraded aborts the batch.
func (s *followCountService) CountFollowers(ctx context.Context, eventIDs []int64) (*CountResult, error) {
	if len(eventIDs) > input.MaxBatchSize {
		eventIDs = eventIDs[:input.MaxBatchSize]
	}

	counts := make([]int64, len(eventIDs))
	degraded := make([]bool, len(eventIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(input.MaxBatchSize)

	for i, id := range eventIDs {
		g.Go(func() error {
			n, usedFallback, err := s.countOne(gCtx, id)
			if err != nil {
				return err
			}
			counts[i] = n
			degraded[i] = usedFallback
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &CountResult{Counts: make(map[int64]int64, len(eventIDs))}
	for i, id := range eventIDs {
		result.Counts[id] = counts[i]
		if degraded[i] {
			result.FallbackUsed = true
		}
	}

	if s.recorder != nil {
		s.recordAccess(ctx, eventIDs)
	}

	return result, nil
}

func (s *followCountService) countOne(ctx context.Context, eventID int64) (int64, bool, error) {
	l := pkglog.Ctx(ctx)

	// Concurrent requests for the same hot event share one query. The shared
	// query ignores the cancellation of whichever caller started it.
	v, err, _ := s.sf.Do(strconv.FormatInt(eventID, 10), func() (interface{}, error) {
		return s.remote.CountFollowers(context.WithoutCancel(ctx), eventID)
	})
	if err == nil {
		n, ok := v.(int64)
		if !ok {
			return 0, false, drift.Query(fmt.Errorf("unexpected result type from singleflight"))
		}
		return n, false, nil
	}

	de := drift.Wrap(err)
	if !s.policy.Applies(de.Class) {
		l.Error().Err(err).
			Int64(pkglog.FieldEventID, eventID).
			Str(pkglog.FieldClass, de.Class.String()).
			Msg("follow count query failed")
		return 0, false, de
	}

	local, err := s.policy.Local.CountFollowers(ctx, eventID)
	if err != nil {
		l.Error().Err(err).Int64(pkglog.FieldEventID, eventID).Msg("fallback follow count failed")
		return 0, false, drift.Query(fmt.Errorf("fallback count for event %d: %w", eventID, err))
	}

	l.Warn().
		Int64(pkglog.FieldEventID, eventID).
		Str(pkglog.FieldClass, de.Class.String()).
		Msg("served follow count from fallback store")
	return local, true, nil
}

// recordAccess is best-effort; failures only cost reconciler freshness.
func (s *followCountService) recordAccess(ctx context.Context, eventIDs []int64) {
	l := pkglog.Ctx(ctx)
	for _, id := range eventIDs {
		if err := s.recorder.RecordAccess(ctx, id); err != nil {
			l.Warn().Err(err).Int64(pkglog.FieldEventID, id).Msg("failed to record hot event access")
			return
		}
	}
}

// Ensure the authoritative source satisfies Counter at compile time.
var _ Counter = (*repository.GormFollowRepository)(nil)
