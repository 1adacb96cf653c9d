package service

import (
	"context"
	"errors"

	"github.com/Foresight-builder/Foresight-backend/internal/consumer"
	"github.com/Foresight-builder/Foresight-backend/internal/domain"
)

var (
	ErrFollowsUnavailable = errors.New("failed to fetch followed events")
	ErrEventsUnavailable  = errors.New("failed to fetch event details")
)

// CountResult is the merged outcome of a batch follow count.
type CountResult struct {
	Counts map[int64]int64
	// FallbackUsed is set when at least one count came from the fallback store.
	FallbackUsed bool
}

// WriteResult is the outcome of a follow or unfollow.
type WriteResult struct {
	// Changed reports whether the relationship was created or removed.
	Changed      bool
	FallbackUsed bool
}

// FollowCountService aggregates follower counts for a batch of events.
// Failures are returned as *drift.Error.
type FollowCountService interface {
	CountFollowers(ctx context.Context, eventIDs []int64) (*CountResult, error)
}

// FollowDetailService lists the events a follower follows.
type FollowDetailService interface {
	ListFollows(ctx context.Context, followerKey string) ([]domain.FollowDetailEntry, error)
}

// FollowService writes follow relationships and keeps the fallback store in
// sync with change events. Failures are returned as *drift.Error.
type FollowService interface {
	Follow(ctx context.Context, eventID int64, followerKey string) (*WriteResult, error)
	Unfollow(ctx context.Context, eventID int64, followerKey string) (*WriteResult, error)
	IsFollowing(ctx context.Context, eventID int64, followerKey string) (bool, bool, error)
	HandleCDCEvent(ctx context.Context, event *consumer.DebeziumMessage) error
}

// CatalogService serves listing data.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}
