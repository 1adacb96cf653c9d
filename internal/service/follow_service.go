package service

import (
	"context"
	"fmt"

	"github.com/Foresight-builder/Foresight-backend/internal/audit"
	"github.com/Foresight-builder/Foresight-backend/internal/consumer"
	"github.com/Foresight-builder/Foresight-backend/internal/drift"
	"github.com/Foresight-builder/Foresight-backend/internal/repository"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

// followService implements FollowService.
type followService struct {
	repo   repository.FollowRepository
	policy FallbackPolicy
}

// NewFollowService creates a new FollowService.
func NewFollowService(repo repository.FollowRepository, policy FallbackPolicy) FollowService {
	return &followService{
		repo:   repo,
		policy: policy,
	}
}

// Follow records that followerKey follows eventID. While the follower-key
// column is unmigrated, inserts trip the legacy foreign key or the integer
// cast; with fallback enabled the follow is kept in the fallback store.
func (s *followService) Follow(ctx context.Context, eventID int64, followerKey string) (*WriteResult, error) {
	l := pkglog.Ctx(ctx)

	created, err := s.repo.Follow(ctx, eventID, followerKey)
	if err == nil {
		if created {
			audit.Log(ctx, audit.ActionFollow, eventID, followerKey, "event followed")
		}
		return &WriteResult{Changed: created}, nil
	}

	de := drift.Wrap(err)
	if !s.policy.Applies(de.Class) {
		l.Error().Err(err).
			Int64(pkglog.FieldEventID, eventID).
			Str(pkglog.FieldFollower, followerKey).
			Str(pkglog.FieldClass, de.Class.String()).
			Msg("follow failed")
		return nil, de
	}

	if err := s.policy.Local.AddFollower(ctx, eventID, followerKey); err != nil {
		return nil, drift.Query(fmt.Errorf("fallback follow: %w", err))
	}
	audit.LogWithDetail(ctx, audit.ActionFollow, eventID, followerKey, de.Class.String(), "event followed in fallback store")
	return &WriteResult{Changed: true, FallbackUsed: true}, nil
}

// Unfollow removes the follow of eventID by followerKey.
func (s *followService) Unfollow(ctx context.Context, eventID int64, followerKey string) (*WriteResult, error) {
	l := pkglog.Ctx(ctx)

	existed, err := s.repo.Unfollow(ctx, eventID, followerKey)
	if err == nil {
		if existed {
			audit.Log(ctx, audit.ActionUnfollow, eventID, followerKey, "event unfollowed")
		}
		return &WriteResult{Changed: existed}, nil
	}

	de := drift.Wrap(err)
	if !s.policy.Applies(de.Class) {
		l.Error().Err(err).
			Int64(pkglog.FieldEventID, eventID).
			Str(pkglog.FieldFollower, followerKey).
			Str(pkglog.FieldClass, de.Class.String()).
			Msg("unfollow failed")
		return nil, de
	}

	if err := s.policy.Local.RemoveFollower(ctx, eventID, followerKey); err != nil {
		return nil, drift.Query(fmt.Errorf("fallback unfollow: %w", err))
	}
	audit.LogWithDetail(ctx, audit.ActionUnfollow, eventID, followerKey, de.Class.String(), "event unfollowed in fallback store")
	return &WriteResult{Changed: true, FallbackUsed: true}, nil
}

// IsFollowing reports whether followerKey follows eventID, and whether the
// answer came from the fallback store.
func (s *followService) IsFollowing(ctx context.Context, eventID int64, followerKey string) (bool, bool, error) {
	n, err := s.repo.CountFollowersBy(ctx, eventID, followerKey)
	if err == nil {
		return n > 0, false, nil
	}

	de := drift.Wrap(err)
	if !s.policy.Applies(de.Class) {
		return false, false, de
	}

	ok, err := s.policy.Local.IsFollower(ctx, eventID, followerKey)
	if err != nil {
		return false, false, drift.Query(fmt.Errorf("fallback follow status: %w", err))
	}
	return ok, true, nil
}

// HandleCDCEvent mirrors a Debezium change on event_follows into the
// fallback store. It is a no-op without a fallback store.
func (s *followService) HandleCDCEvent(ctx context.Context, event *consumer.DebeziumMessage) error {
	l := pkglog.Ctx(ctx)

	local := s.policy.Local
	if local == nil {
		return nil
	}

	switch op := event.Payload.Op; op {
	case "c", "r":
		// Create, or a snapshot read of an existing row.
		after := event.Payload.After
		if after == nil {
			l.Warn().Str("op", op).Msg("CDC event missing 'after' field")
			return nil
		}
		if err := local.AddFollower(ctx, after.EventID, string(after.UserID)); err != nil {
			l.Error().Err(err).Int64(pkglog.FieldEventID, after.EventID).Msg("failed to add fallback follower")
			return err
		}

	case "u":
		// The pair itself changed: move the follower from the old row to the new one.
		before, after := event.Payload.Before, event.Payload.After
		if before != nil {
			if err := local.RemoveFollower(ctx, before.EventID, string(before.UserID)); err != nil {
				l.Error().Err(err).Int64(pkglog.FieldEventID, before.EventID).Msg("failed to remove fallback follower (update)")
				return err
			}
		}
		if after != nil {
			if err := local.AddFollower(ctx, after.EventID, string(after.UserID)); err != nil {
				l.Error().Err(err).Int64(pkglog.FieldEventID, after.EventID).Msg("failed to add fallback follower (update)")
				return err
			}
		}

	case "d":
		// Carries the full before-row because REPLICA IDENTITY FULL is set on the table.
		before := event.Payload.Before
		if before == nil {
			l.Warn().Msg("CDC delete event missing 'before' field")
			return nil
		}
		if err := local.RemoveFollower(ctx, before.EventID, string(before.UserID)); err != nil {
			l.Error().Err(err).Int64(pkglog.FieldEventID, before.EventID).Msg("failed to remove fallback follower")
			return err
		}

	default:
		l.Warn().Str("op", op).Msg("unknown CDC operation, skipping")
	}

	return nil
}

// Ensure interface is satisfied at compile time.
var _ FollowService = (*followService)(nil)
