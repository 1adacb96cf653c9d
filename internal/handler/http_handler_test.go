package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Foresight-builder/Foresight-backend/internal/consumer"
	"github.com/Foresight-builder/Foresight-backend/internal/domain"
	"github.com/Foresight-builder/Foresight-backend/internal/drift"
	"github.com/Foresight-builder/Foresight-backend/internal/service"
)

type fakeCounts struct {
	result *service.CountResult
	err    error
	calls  int
	ids    []int64
}

func (f *fakeCounts) CountFollowers(_ context.Context, ids []int64) (*service.CountResult, error) {
	f.calls++
	f.ids = ids
	return f.result, f.err
}

type fakeDetails struct {
	entries []domain.FollowDetailEntry
	err     error
}

func (f *fakeDetails) ListFollows(_ context.Context, _ string) ([]domain.FollowDetailEntry, error) {
	return f.entries, f.err
}

type fakeFollows struct {
	result    *service.WriteResult
	following bool
	fallback  bool
	err       error
}

func (f *fakeFollows) Follow(_ context.Context, _ int64, _ string) (*service.WriteResult, error) {
	return f.result, f.err
}

func (f *fakeFollows) Unfollow(_ context.Context, _ int64, _ string) (*service.WriteResult, error) {
	return f.result, f.err
}

func (f *fakeFollows) IsFollowing(_ context.Context, _ int64, _ string) (bool, bool, error) {
	return f.following, f.fallback, f.err
}

func (f *fakeFollows) HandleCDCEvent(_ context.Context, _ *consumer.DebeziumMessage) error {
	return nil
}

type fakeCatalog struct {
	categories []domain.Category
	err        error
}

func (f *fakeCatalog) ListCategories(_ context.Context) ([]domain.Category, error) {
	return f.categories, f.err
}

type fixture struct {
	counts  *fakeCounts
	details *fakeDetails
	follows *fakeFollows
	catalog *fakeCatalog
}

func (fx *fixture) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(fx.counts, fx.details, fx.follows, fx.catalog).RegisterRoutes(r)
	return r
}

func newFixture() *fixture {
	return &fixture{
		counts:  &fakeCounts{result: &service.CountResult{Counts: map[int64]int64{}}},
		details: &fakeDetails{},
		follows: &fakeFollows{result: &service.WriteResult{Changed: true}},
		catalog: &fakeCatalog{},
	}
}

func serve(t *testing.T, r *gin.Engine, method, target, contentType, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w.Code, decoded
}

func TestFollowCounts_RejectsInvalidIDs(t *testing.T) {
	for _, body := range []string{`{"eventIds":[]}`, `{"eventIds":["abc"]}`, `{}`, `not json`, `{"eventIds":"1"}`, `{"eventIds":"7,8"}`} {
		fx := newFixture()
		code, resp := serve(t, fx.router(), http.MethodPost, "/follow-counts", "application/json", body)

		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "eventIds must be a positive-integer array.", resp["message"], body)
		assert.Zero(t, fx.counts.calls, body)
	}
}

func TestFollowCounts_Success(t *testing.T) {
	fx := newFixture()
	fx.counts.result = &service.CountResult{Counts: map[int64]int64{1: 3, 2: 0}}

	code, resp := serve(t, fx.router(), http.MethodPost, "/follow-counts", "application/json", `{"eventIds":[1,"2",1,-4]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int64{1, 2}, fx.counts.ids)
	assert.Equal(t, map[string]any{"1": float64(3), "2": float64(0)}, resp["counts"])
	assert.NotContains(t, resp, "fallbackUsed")
	assert.NotContains(t, resp, "sql")
}

func TestFollowCounts_FormBody(t *testing.T) {
	fx := newFixture()
	form := url.Values{"eventIds[]": {"4", "5"}}

	code, _ := serve(t, fx.router(), http.MethodPost, "/api/follows/counts", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []int64{4, 5}, fx.counts.ids)
}

func TestFollowCounts_FallbackUsed(t *testing.T) {
	fx := newFixture()
	fx.counts.result = &service.CountResult{Counts: map[int64]int64{1: 2}, FallbackUsed: true}

	code, resp := serve(t, fx.router(), http.MethodPost, "/follow-counts", "application/json", `{"eventIds":[1]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["fallbackUsed"])
	assert.Equal(t, true, resp["setupRequired"])
	assert.Equal(t, drift.SetupSQL, resp["sql"])
}

func TestFollowCounts_SetupRequired(t *testing.T) {
	fx := newFixture()
	fx.counts.err = drift.Wrap(errors.New(`relation "event_follows" does not exist`))

	code, resp := serve(t, fx.router(), http.MethodPost, "/follow-counts", "application/json", `{"eventIds":[1]}`)
	require.Equal(t, http.StatusNotImplemented, code)
	assert.Equal(t, true, resp["setupRequired"])
	assert.Equal(t, drift.SetupSQL, resp["sql"])
	assert.Equal(t, `relation "event_follows" does not exist`, resp["detail"])
	assert.NotEmpty(t, resp["message"])
}

func TestFollowCounts_QueryFailure(t *testing.T) {
	fx := newFixture()
	fx.counts.err = drift.Wrap(errors.New("connection refused"))

	code, resp := serve(t, fx.router(), http.MethodPost, "/follow-counts", "application/json", `{"eventIds":[1]}`)
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "connection refused", resp["detail"])
	assert.NotContains(t, resp, "setupRequired")
	assert.NotContains(t, resp, "sql")
}

func TestUserFollows(t *testing.T) {
	t.Run("missing address", func(t *testing.T) {
		fx := newFixture()
		code, resp := serve(t, fx.router(), http.MethodGet, "/user-follows?address=%20", "", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "missing follower address", resp["error"])
	})

	t.Run("no follows", func(t *testing.T) {
		fx := newFixture()
		fx.details.entries = []domain.FollowDetailEntry{}
		code, resp := serve(t, fx.router(), http.MethodGet, "/user-follows?address=0xabc", "", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, []any{}, resp["follows"])
		assert.Equal(t, float64(0), resp["total"])
	})

	t.Run("entries", func(t *testing.T) {
		fx := newFixture()
		fx.details.entries = []domain.FollowDetailEntry{
			{Event: domain.Event{ID: 2, Title: "b"}, FollowersCount: 5},
			{Event: domain.Event{ID: 1, Title: "a"}},
		}
		code, resp := serve(t, fx.router(), http.MethodGet, "/api/user-follows?address=0xabc", "", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(2), resp["total"])

		follows := resp["follows"].([]any)
		first := follows[0].(map[string]any)
		assert.Equal(t, float64(2), first["id"])
		assert.Equal(t, float64(5), first["followers_count"])
	})

	for _, err := range []error{service.ErrFollowsUnavailable, service.ErrEventsUnavailable} {
		t.Run(err.Error(), func(t *testing.T) {
			fx := newFixture()
			fx.details.err = fmt.Errorf("%w: boom", err)
			code, resp := serve(t, fx.router(), http.MethodGet, "/user-follows?address=0xabc", "", "")
			assert.Equal(t, http.StatusInternalServerError, code)
			assert.Equal(t, err.Error(), resp["error"])
		})
	}
}

func TestFollowWrites(t *testing.T) {
	fx := newFixture()
	r := fx.router()

	code, resp := serve(t, r, http.MethodPost, "/api/follows", "application/json", `{"eventId":3,"address":"0xabc"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["changed"])

	code, _ = serve(t, r, http.MethodDelete, "/api/follows", "application/json", `{"eventId":3,"address":"0xabc"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = serve(t, r, http.MethodPost, "/api/follows", "application/json", `{"eventId":0,"address":"0xabc"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = serve(t, r, http.MethodPost, "/api/follows", "application/json", `{"eventId":3}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "missing follower address", resp["message"])

	fx.follows.err = drift.Wrap(errLegacyFK)
	code, resp = serve(t, r, http.MethodPost, "/api/follows", "application/json", `{"eventId":3,"address":"0xabc"}`)
	assert.Equal(t, http.StatusNotImplemented, code)
	assert.Equal(t, true, resp["setupRequired"])
}

var errLegacyFK = errors.New(`violates foreign key constraint "event_follows_user_id_fkey"`)

func TestFollowStatus(t *testing.T) {
	fx := newFixture()
	fx.follows.following = true
	fx.follows.fallback = true

	code, resp := serve(t, fx.router(), http.MethodGet, "/api/follows/status?eventId=3&address=0xabc", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["following"])
	assert.Equal(t, true, resp["fallbackUsed"])

	code, _ = serve(t, fx.router(), http.MethodGet, "/api/follows/status?eventId=x&address=0xabc", "", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListCategories(t *testing.T) {
	fx := newFixture()
	fx.catalog.categories = []domain.Category{{ID: 1, Name: "crypto"}}

	code, resp := serve(t, fx.router(), http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	assert.Len(t, resp["data"], 1)

	fx.catalog.err = errors.New("boom")
	code, resp = serve(t, fx.router(), http.MethodGet, "/api/categories", "", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, resp["success"])
}
