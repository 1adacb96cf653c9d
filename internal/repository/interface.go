package repository

import (
	"context"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
)

// FollowRepository is the authoritative source for follow relationships.
// Every method maps to exactly one query; errors are returned untouched so
// callers can classify them.
type FollowRepository interface {
	CountFollowers(ctx context.Context, eventID int64) (int64, error)
	CountFollowersBy(ctx context.Context, eventID int64, followerKey string) (int64, error)
	ListFollowedEventIDs(ctx context.Context, followerKey string) ([]int64, error)
	ListFollowerKeys(ctx context.Context, eventID int64) ([]string, error)
	Follow(ctx context.Context, eventID int64, followerKey string) (bool, error)
	Unfollow(ctx context.Context, eventID int64, followerKey string) (bool, error)
}

// EventRepository reads campaign metadata.
type EventRepository interface {
	ListEvents(ctx context.Context, ids []int64) ([]domain.Event, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}
