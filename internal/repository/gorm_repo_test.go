package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
	"github.com/Foresight-builder/Foresight-backend/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     ":memory:",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(db,
		&domain.FollowModel{},
		&domain.PredictionModel{},
		&domain.CategoryModel{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGormFollowRepository_FollowAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFollowRepository(newTestDB(t))

	created, err := repo.Follow(ctx, 1, "0xaaa")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Follow(ctx, 1, "0xaaa")
	require.NoError(t, err)
	assert.False(t, created, "duplicate follow must be ignored")

	_, err = repo.Follow(ctx, 1, "0xbbb")
	require.NoError(t, err)
	_, err = repo.Follow(ctx, 2, "0xaaa")
	require.NoError(t, err)

	count, err := repo.CountFollowers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountFollowers(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.CountFollowersBy(ctx, 2, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountFollowersBy(ctx, 2, "0xbbb")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGormFollowRepository_Lists(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFollowRepository(newTestDB(t))

	for _, f := range []struct {
		event int64
		key   string
	}{{3, "0xaaa"}, {1, "0xaaa"}, {1, "0xbbb"}} {
		_, err := repo.Follow(ctx, f.event, f.key)
		require.NoError(t, err)
	}

	ids, err := repo.ListFollowedEventIDs(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	ids, err = repo.ListFollowedEventIDs(ctx, "0xnobody")
	require.NoError(t, err)
	assert.Empty(t, ids)

	keys, err := repo.ListFollowerKeys(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0xaaa", "0xbbb"}, keys)
}

func TestGormFollowRepository_Unfollow(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFollowRepository(newTestDB(t))

	_, err := repo.Follow(ctx, 1, "0xaaa")
	require.NoError(t, err)

	existed, err := repo.Unfollow(ctx, 1, "0xaaa")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Unfollow(ctx, 1, "0xaaa")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestGormEventRepository_ListEvents(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormEventRepository(db)

	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]domain.PredictionModel{
		{ID: 1, Title: "old", CreatedAt: base},
		{ID: 2, Title: "new", CreatedAt: base.Add(48 * time.Hour)},
		{ID: 3, Title: "mid", CreatedAt: base.Add(24 * time.Hour)},
	}).Error)

	events, err := repo.ListEvents(ctx, []int64{1, 2, 3, 99})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{events[0].ID, events[1].ID, events[2].ID})

	events, err = repo.ListEvents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGormEventRepository_ListCategories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormEventRepository(db)

	require.NoError(t, db.Create(&[]domain.CategoryModel{
		{ID: 1, Name: "sports"},
		{ID: 2, Name: "charity"},
	}).Error)

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "charity", categories[0].Name)
	assert.Equal(t, "sports", categories[1].Name)
}
