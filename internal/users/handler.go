package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ui-agent-backend/internal/shared/server/middleware"
	"ui-agent-backend/internal/shared/server/respond"
)

// AdminRole guards administrative user writes.
const AdminRole = "admin"

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/users")
	admin := middleware.RequireRole(AdminRole)

	g.GET("", h.list)
	g.GET("/all", h.listAll)
	g.GET("/smart/:identifier", h.getSmart)
	g.GET("/me", middleware.RequireAuth(), h.me)
	g.GET("/by-auth0/:externalId", h.getByExternalID)
	g.GET("/email/:email", h.getByEmail)
	g.GET("/:id", h.get)
	g.POST("/auth0", admin, h.upsertFromProvider)
	g.POST("", admin, h.create)
	g.PUT("/:id", admin, h.update)
	g.DELETE("/:id", admin, h.deactivate)
}

func (h *Handler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid pagination parameters", gin.H{"error": err.Error()})
		return
	}
	limit := DefaultPageSize
	if q.Limit != nil {
		limit = *q.Limit
	}
	page, err := h.Svc.List(c.Request.Context(), q.Skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, listResponse{Users: toResponses(page.Users), Total: page.Total})
}

func (h *Handler) listAll(c *gin.Context) {
	list, err := h.Svc.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponses(list))
}

func (h *Handler) getSmart(c *gin.Context) {
	user, err := h.Svc.GetByIdentifier(c.Request.Context(), c.Param("identifier"))
	h.writeUser(c, user, err)
}

func (h *Handler) get(c *gin.Context) {
	user, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	h.writeUser(c, user, err)
}

func (h *Handler) getByExternalID(c *gin.Context) {
	user, err := h.Svc.GetByExternalID(c.Request.Context(), c.Param("externalId"))
	h.writeUser(c, user, err)
}

func (h *Handler) getByEmail(c *gin.Context) {
	user, err := h.Svc.GetByEmail(c.Request.Context(), c.Param("email"))
	h.writeUser(c, user, err)
}

// me reconciles the caller's verified claims and returns the local profile.
func (h *Handler) me(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	claims := ClaimsFromMap(principal.Claims)
	claims.Subject = principal.Subject
	h.reconcile(c, claims)
}

func (h *Handler) upsertFromProvider(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	h.reconcile(c, ClaimsFromMap(payload))
}

func (h *Handler) reconcile(c *gin.Context, claims IdentityClaims) {
	res, err := ReconcileWithRetry(c.Request.Context(), h.Svc, claims)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("reconcileOutcome", res.Outcome)
	respond.OK(c, ToResponse(res.User))
}

func (h *Handler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid user payload", gin.H{"error": err.Error()})
		return
	}
	user, err := h.Svc.Create(c.Request.Context(), CreateInput{
		Email:      req.Email,
		ExternalID: req.ExternalID,
		GivenName:  req.FirstName,
		FamilyName: req.LastName,
		Nickname:   req.Nickname,
		Picture:    req.Picture,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, ToResponse(user))
}

func (h *Handler) update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid user payload", gin.H{"error": err.Error()})
		return
	}
	user, err := h.Svc.Update(c.Request.Context(), c.Param("id"), UpdateInput{
		Email:      req.Email,
		GivenName:  req.FirstName,
		FamilyName: req.LastName,
		Nickname:   req.Nickname,
		Picture:    req.Picture,
		Active:     req.IsActive,
	})
	h.writeUser(c, user, err)
}

func (h *Handler) deactivate(c *gin.Context) {
	user, err := h.Svc.Deactivate(c.Request.Context(), c.Param("id"))
	h.writeUser(c, user, err)
}

func (h *Handler) writeUser(c *gin.Context, user User, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(user))
}

func writeError(c *gin.Context, err error) {
	var invalid *InvalidClaimsError
	var conflict *ConflictError
	switch {
	case errors.As(err, &invalid):
		respond.Error(c, http.StatusBadRequest, "validation_error", invalid.Error(), gin.H{"field": invalid.Field})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.As(err, &conflict):
		respond.Error(c, http.StatusConflict, "conflict", conflict.Error(), gin.H{"field": conflict.Field, "retryable": conflict.Retryable})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "user operation failed", nil)
	}
}
