// Package api exposes the intervention service over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/war-games/go-engine/internal/service"
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/store"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region requests
// InterveneRequest is the body of POST /api/intervene.
type InterveneRequest struct {
	ID     string `json:"id" binding:"required"`
	Edited string `json:"edited"`
}

// PropagateRequest is the body of POST /api/propagate.
type PropagateRequest struct {
	ID    string      `json:"id" binding:"required"`
	Delta state.Delta `json:"delta"`
}

// #endregion requests

// #region handlers
// Handlers binds HTTP requests to a service.
type Handlers struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewHandlers creates handlers for svc.
func NewHandlers(svc *service.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{svc: svc, logger: logger}
}

// Intervene applies an edited headline. The response body is the updated
// world; ?verbose=true returns the full result instead.
func (h *Handlers) Intervene(c *gin.Context) {
	var req InterveneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	res, err := h.svc.Intervene(c.Request.Context(), req.ID, req.Edited)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-World-Version", res.VersionID)
	c.Header("X-Gate-Decision", res.Decision.Action)
	c.Header("X-Intervention-Tag", string(res.Tag))
	if verbose(c) {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusOK, res.World)
}

// Propagate pushes an explicit delta.
func (h *Handlers) Propagate(c *gin.Context) {
	var req PropagateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	res, err := h.svc.Propagate(c.Request.Context(), req.ID, req.Delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-World-Version", res.VersionID)
	c.Header("X-Gate-Decision", res.Decision.Action)
	if verbose(c) {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusOK, res.World)
}

// World returns the active world.
func (h *Handlers) World(c *gin.Context) {
	w, err := h.svc.World(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Versions lists recent snapshots.
func (h *Handlers) Versions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	versions, err := h.svc.Versions(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if versions == nil {
		versions = []store.Version{}
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// Rollback makes a previous snapshot active.
func (h *Handlers) Rollback(c *gin.Context) {
	id := c.Param("id")
	w, err := h.svc.Rollback(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-World-Version", id)
	c.JSON(http.StatusOK, w)
}

// Scores evaluates the goals of the active world.
func (h *Handlers) Scores(c *gin.Context) {
	scores, err := h.svc.Scores(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": scores})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// #endregion handlers

// #region errors
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownEvent), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, world.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func verbose(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("verbose"))
	return v
}

// #endregion errors
