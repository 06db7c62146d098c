package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ui-agent-backend/internal/shared/server/middleware"
	"ui-agent-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/jobs")
	authed := middleware.RequireAuth()

	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", authed, h.create)
	g.PUT("/:id", authed, h.update)
	g.DELETE("/:id", authed, h.delete)
}

func (h *Handler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid query parameters", gin.H{"error": err.Error()})
		return
	}
	list, err := h.Svc.List(c.Request.Context(), q.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]JobResponse, 0, len(list))
	for _, j := range list {
		out = append(out, ToResponse(j))
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	job, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(job))
}

func (h *Handler) create(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid job payload", gin.H{"error": err.Error()})
		return
	}
	job, err := h.Svc.Create(c.Request.Context(), CreateInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, ToResponse(job))
}

func (h *Handler) update(c *gin.Context) {
	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid job payload", gin.H{"error": err.Error()})
		return
	}
	job, err := h.Svc.Update(c.Request.Context(), c.Param("id"), UpdateInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(job))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "job operation failed", nil)
	}
}
