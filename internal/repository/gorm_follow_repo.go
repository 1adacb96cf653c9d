package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// CountFollowers returns the number of follow rows for eventID.
func (r *GormFollowRepository) CountFollowers(ctx context.Context, eventID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountFollowersBy returns 1 if followerKey follows eventID, 0 otherwise.
func (r *GormFollowRepository) CountFollowersBy(ctx context.Context, eventID int64, followerKey string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("event_id = ? AND user_id = ?", eventID, followerKey).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListFollowedEventIDs returns the ids of every event followerKey follows.
func (r *GormFollowRepository) ListFollowedEventIDs(ctx context.Context, followerKey string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("user_id = ?", followerKey).
		Order("event_id").
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListFollowerKeys returns every follower key of eventID.
func (r *GormFollowRepository) ListFollowerKeys(ctx context.Context, eventID int64) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("event_id = ?", eventID).
		Pluck("user_id", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Follow inserts the (followerKey, eventID) pair. An existing pair is left
// untouched; the returned bool reports whether a row was created.
func (r *GormFollowRepository) Follow(ctx context.Context, eventID int64, followerKey string) (bool, error) {
	model := domain.FollowModel{
		UserID:  followerKey,
		EventID: eventID,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Unfollow deletes the (followerKey, eventID) pair. The returned bool
// reports whether a row existed.
func (r *GormFollowRepository) Unfollow(ctx context.Context, eventID int64, followerKey string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, followerKey).
		Delete(&domain.FollowModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Ensure interface is satisfied at compile time.
var _ FollowRepository = (*GormFollowRepository)(nil)
