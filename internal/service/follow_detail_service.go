package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
	"github.com/Foresight-builder/Foresight-backend/internal/input"
	"github.com/Foresight-builder/Foresight-backend/internal/repository"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

// followDetailService implements FollowDetailService.
type followDetailService struct {
	follows repository.FollowRepository
	events  repository.EventRepository
}

// NewFollowDetailService creates a new FollowDetailService.
func NewFollowDetailService(follows repository.FollowRepository, events repository.EventRepository) FollowDetailService {
	return &followDetailService{
		follows: follows,
		events:  events,
	}
}

// ListFollows returns the events followerKey follows, newest first, each
// annotated with its follower count. A count that cannot be read is
// reported as zero; this endpoint never falls back or asks for setup.
func (s *followDetailService) ListFollows(ctx context.Context, followerKey string) ([]domain.FollowDetailEntry, error) {
	if followerKey == "" {
		return nil, input.ErrMissingFollowKey
	}

	ctx = pkglog.WithFollower(ctx, followerKey)
	l := pkglog.Ctx(ctx)

	eventIDs, err := s.follows.ListFollowedEventIDs(ctx, followerKey)
	if err != nil {
		l.Error().Err(err).Msg("failed to list followed events")
		return nil, fmt.Errorf("%w: %v", ErrFollowsUnavailable, err)
	}
	if len(eventIDs) == 0 {
		return []domain.FollowDetailEntry{}, nil
	}

	events, err := s.events.ListEvents(ctx, eventIDs)
	if err != nil {
		l.Error().Err(err).Int(pkglog.FieldEventIDs, len(eventIDs)).Msg("failed to fetch event details")
		return nil, fmt.Errorf("%w: %v", ErrEventsUnavailable, err)
	}

	entries := make([]domain.FollowDetailEntry, len(events))

	// Per-event failures are absorbed, so the group never returns an error.
	var g errgroup.Group
	g.SetLimit(input.MaxBatchSize)
	for i, event := range events {
		g.Go(func() error {
			entries[i] = domain.FollowDetailEntry{Event: event}
			n, err := s.follows.CountFollowers(ctx, event.ID)
			if err != nil {
				l.Warn().Err(err).Int64(pkglog.FieldEventID, event.ID).Msg("follower count unavailable, reporting zero")
				return nil
			}
			entries[i].FollowersCount = max(n, 0)
			return nil
		})
	}
	_ = g.Wait()

	return entries, nil
}
