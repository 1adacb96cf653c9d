package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Foresight-builder/Foresight-backend/internal/drift"
	"github.com/Foresight-builder/Foresight-backend/internal/input"
	"github.com/Foresight-builder/Foresight-backend/internal/service"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
	"github.com/Foresight-builder/Foresight-backend/pkg/response"
)

// Handler handles HTTP requests for the follow service.
type Handler struct {
	counts     service.FollowCountService
	details    service.FollowDetailService
	follows    service.FollowService
	categories service.CatalogService
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	counts service.FollowCountService,
	details service.FollowDetailService,
	follows service.FollowService,
	categories service.CatalogService,
) *Handler {
	return &Handler{
		counts:     counts,
		details:    details,
		follows:    follows,
		categories: categories,
	}
}

// RegisterRoutes registers all routes onto the Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/follow-counts", h.FollowCounts)
	r.GET("/user-follows", h.UserFollows)

	api := r.Group("/api")
	{
		follows := api.Group("/follows")
		{
			// POST /api/follows/counts: batch follower counts
			follows.POST("/counts", h.FollowCounts)
			// POST /api/follows: follow an event
			follows.POST("", h.Follow)
			// DELETE /api/follows: unfollow an event
			follows.DELETE("", h.Unfollow)
			// GET /api/follows/status?eventId=&address=
			follows.GET("/status", h.FollowStatus)
		}
		// GET /api/user-follows?address=
		api.GET("/user-follows", h.UserFollows)
		// GET /api/categories
		api.GET("/categories", h.ListCategories)
	}
}

// followCountsResponse is the 200 body of the batch count endpoint.
type followCountsResponse struct {
	Counts        map[int64]int64 `json:"counts"`
	FallbackUsed  bool            `json:"fallbackUsed,omitempty"`
	SetupRequired bool            `json:"setupRequired,omitempty"`
	SQL           string          `json:"sql,omitempty"`
}

// FollowCounts handles POST /follow-counts.
func (h *Handler) FollowCounts(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	body := readBody(c)
	ids, err := input.EventIDs(body)
	if err != nil {
		response.Message(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.counts.CountFollowers(ctx, ids)
	if err != nil {
		var de *drift.Error
		if errors.As(err, &de) && de.SetupRequired() {
			l.Warn().Err(err).Str(pkglog.FieldClass, de.Class.String()).Msg("batch follow count needs schema fix")
			response.Message(c, http.StatusNotImplemented, "batch follow count failed, the follows table needs a schema fix", gin.H{
				"setupRequired": true,
				"detail":        de.Detail(),
				"sql":           drift.SetupSQL,
			})
			return
		}
		l.Error().Err(err).Int(pkglog.FieldEventIDs, len(ids)).Msg("batch follow count failed")
		response.Message(c, http.StatusInternalServerError, "batch follow count failed", gin.H{
			"detail": detail(err),
		})
		return
	}

	resp := followCountsResponse{Counts: result.Counts}
	if result.FallbackUsed {
		resp.FallbackUsed = true
		resp.SetupRequired = true
		resp.SQL = drift.SetupSQL
	}
	c.JSON(http.StatusOK, resp)
}

// UserFollows handles GET /user-follows?address=.
func (h *Handler) UserFollows(c *gin.Context) {
	ctx := c.Request.Context()

	address := strings.TrimSpace(c.Query(input.FieldFollowerKey))
	if address == "" {
		response.BadRequest(c, input.ErrMissingFollowKey.Error())
		return
	}
	c.Set(pkglog.FieldFollower, address)

	entries, err := h.details.ListFollows(ctx, address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventsUnavailable):
			response.InternalError(c, service.ErrEventsUnavailable.Error())
		case errors.Is(err, service.ErrFollowsUnavailable):
			response.InternalError(c, service.ErrFollowsUnavailable.Error())
		default:
			response.InternalError(c, "internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"follows": entries,
		"total":   len(entries),
	})
}

// Follow handles POST /api/follows with body {eventId, address}.
func (h *Handler) Follow(c *gin.Context) {
	h.write(c, h.follows.Follow, "follow failed")
}

// Unfollow handles DELETE /api/follows with body {eventId, address}.
func (h *Handler) Unfollow(c *gin.Context) {
	h.write(c, h.follows.Unfollow, "unfollow failed")
}

type writeOp func(ctx context.Context, eventID int64, followerKey string) (*service.WriteResult, error)

func (h *Handler) write(c *gin.Context, op writeOp, failMsg string) {
	ctx := c.Request.Context()

	body := readBody(c)
	eventID, err := input.EventID(body)
	if err != nil {
		response.Message(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	address, err := input.FollowerKey(body)
	if err != nil {
		response.Message(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	c.Set(pkglog.FieldFollower, address)

	result, err := op(ctx, eventID, address)
	if err != nil {
		h.writeDriftError(c, err, failMsg)
		return
	}

	resp := gin.H{"success": true, "changed": result.Changed}
	if result.FallbackUsed {
		resp["fallbackUsed"] = true
		resp["setupRequired"] = true
		resp["sql"] = drift.SetupSQL
	}
	c.JSON(http.StatusOK, resp)
}

// FollowStatus handles GET /api/follows/status?eventId=&address=.
func (h *Handler) FollowStatus(c *gin.Context) {
	ctx := c.Request.Context()

	eventID, ok := input.PositiveInt(c.Query(input.FieldEventID))
	if !ok {
		response.Message(c, http.StatusBadRequest, input.ErrInvalidEventID.Error(), nil)
		return
	}
	address := strings.TrimSpace(c.Query(input.FieldFollowerKey))
	if address == "" {
		response.Message(c, http.StatusBadRequest, input.ErrMissingFollowKey.Error(), nil)
		return
	}
	c.Set(pkglog.FieldFollower, address)

	following, fallbackUsed, err := h.follows.IsFollowing(ctx, eventID, address)
	if err != nil {
		h.writeDriftError(c, err, "follow status query failed")
		return
	}

	resp := gin.H{"following": following}
	if fallbackUsed {
		resp["fallbackUsed"] = true
		resp["setupRequired"] = true
		resp["sql"] = drift.SetupSQL
	}
	c.JSON(http.StatusOK, resp)
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	categories, err := h.categories.ListCategories(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list categories failed")
		response.Fail(c, http.StatusInternalServerError, "failed to list categories")
		return
	}

	response.Success(c, categories, "categories listed")
}

func (h *Handler) writeDriftError(c *gin.Context, err error, failMsg string) {
	var de *drift.Error
	if errors.As(err, &de) && de.SetupRequired() {
		response.Message(c, http.StatusNotImplemented, failMsg+", the follows table needs a schema fix", gin.H{
			"setupRequired": true,
			"detail":        de.Detail(),
			"sql":           drift.SetupSQL,
		})
		return
	}
	response.Message(c, http.StatusInternalServerError, failMsg, gin.H{
		"detail": detail(err),
	})
}

// readBody decodes the request body; unreadable bodies decode as empty.
func readBody(c *gin.Context) map[string]any {
	raw, err := c.GetRawData()
	if err != nil {
		return map[string]any{}
	}
	return input.ParseBody(c.GetHeader("Content-Type"), raw)
}

func detail(err error) string {
	var de *drift.Error
	if errors.As(err, &de) {
		return de.Detail()
	}
	return err.Error()
}
