package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
	"github.com/Foresight-builder/Foresight-backend/internal/input"
	"github.com/Foresight-builder/Foresight-backend/internal/repository"
)

type fakeFollowRepo struct {
	repository.FollowRepository
	followed  []int64
	listErr   error
	counts    map[int64]int64
	countErrs map[int64]error
}

func (f *fakeFollowRepo) ListFollowedEventIDs(_ context.Context, _ string) ([]int64, error) {
	return f.followed, f.listErr
}

func (f *fakeFollowRepo) CountFollowers(_ context.Context, eventID int64) (int64, error) {
	if err, ok := f.countErrs[eventID]; ok {
		return 0, err
	}
	return f.counts[eventID], nil
}

type fakeEventRepo struct {
	events []domain.Event
	err    error
	calls  int
}

func (f *fakeEventRepo) ListEvents(_ context.Context, _ []int64) ([]domain.Event, error) {
	f.calls++
	return f.events, f.err
}

func (f *fakeEventRepo) ListCategories(_ context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "crypto"}}, f.err
}

func TestListFollows_NoFollowsSkipsMetadata(t *testing.T) {
	events := &fakeEventRepo{}
	svc := NewFollowDetailService(&fakeFollowRepo{}, events)

	entries, err := svc.ListFollows(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Zero(t, events.calls)
}

func TestListFollows_AnnotatesCounts(t *testing.T) {
	follows := &fakeFollowRepo{
		followed:  []int64{1, 2, 3},
		counts:    map[int64]int64{1: 4, 3: 1},
		countErrs: map[int64]error{2: errors.New("statement timeout")},
	}
	events := &fakeEventRepo{events: []domain.Event{
		{ID: 3, Title: "newest"},
		{ID: 2, Title: "middle"},
		{ID: 1, Title: "oldest"},
	}}
	svc := NewFollowDetailService(follows, events)

	entries, err := svc.ListFollows(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "newest", entries[0].Title)
	assert.Equal(t, int64(1), entries[0].FollowersCount)
	assert.Equal(t, int64(0), entries[1].FollowersCount, "failed count reported as zero")
	assert.Equal(t, int64(4), entries[2].FollowersCount)
}

func TestListFollows_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := NewFollowDetailService(&fakeFollowRepo{}, &fakeEventRepo{}).ListFollows(ctx, "")
	assert.ErrorIs(t, err, input.ErrMissingFollowKey)

	follows := &fakeFollowRepo{listErr: errors.New(`relation "event_follows" does not exist`)}
	_, err = NewFollowDetailService(follows, &fakeEventRepo{}).ListFollows(ctx, "0xabc")
	assert.ErrorIs(t, err, ErrFollowsUnavailable)

	follows = &fakeFollowRepo{followed: []int64{1}}
	events := &fakeEventRepo{err: errors.New("permission denied for table predictions")}
	_, err = NewFollowDetailService(follows, events).ListFollows(ctx, "0xabc")
	assert.ErrorIs(t, err, ErrEventsUnavailable)
}

func TestCatalogService_ListCategories(t *testing.T) {
	categories, err := NewCatalogService(&fakeEventRepo{}).ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "crypto", categories[0].Name)
}
