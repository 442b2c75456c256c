package scope

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"authservice/internal/middleware"
	"authservice/internal/pkg/response"
	"authservice/internal/repository"

	"github.com/gin-gonic/gin"
)

// Handler exposes the scope registry to administrators.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, guard *middleware.Guard) {
	scopes := r.Group("/scopes", guard.RequireScopes("admin"))
	{
		scopes.GET("", h.List)
		scopes.PUT("", h.Create)
		scopes.GET("/:id", h.Get)
		scopes.PATCH("/:id", h.Update)
		scopes.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	scopes, err := h.service.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, scopes)
}

func (h *Handler) Create(c *gin.Context) {
	var req ScopeCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request",
			"The request body is not a valid scope description")
		return
	}

	scope, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scope)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := scopeID(c)
	if !ok {
		return
	}
	scope, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, scope)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := scopeID(c)
	if !ok {
		return
	}
	var req ScopeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request",
			"The request body is not a valid scope update")
		return
	}

	scope, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, scope)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := scopeID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func scopeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "The scope id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "No scope exists under this id")
	case errors.Is(err, repository.ErrDuplicate):
		response.Error(c, http.StatusConflict, "duplicate_entry", "A scope with this value already exists")
	default:
		log.Printf("scope: %v", err)
		response.Error(c, http.StatusInternalServerError, "server_error", "")
	}
}
