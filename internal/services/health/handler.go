package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ui-agent-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.status)
	rg.GET("/health/db", h.database)
}

func (h *Handler) status(c *gin.Context) {
	respond.OK(c, h.Svc.Status(c.Request.Context()))
}

func (h *Handler) database(c *gin.Context) {
	if err := h.Svc.CheckDB(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "database_unavailable", "database check failed", gin.H{"error": err.Error()})
		return
	}
	respond.OK(c, gin.H{"status": "success", "message": "database connection successful"})
}
