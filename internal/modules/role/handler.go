package role

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

// Handler exposes the role registry to administrators.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, guard *middleware.Guard) {
	roles := r.Group("/roles", guard.RequireScopes("admin"))
	{
		roles.GET("", h.List)
		roles.PUT("", h.Create)
		roles.GET("/:id", h.Get)
		roles.PATCH("/:id", h.Update)
		roles.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	roles, err := h.service.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func (h *Handler) Create(c *gin.Context) {
	var req RoleCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request",
			"The request body is not a valid role description")
		return
	}

	role, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	role, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	var req RoleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request",
			"The request body is not a valid role update")
		return
	}

	role, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func roleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "The role id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "No role exists under this id")
	case errors.Is(err, repository.ErrDuplicate):
		response.Error(c, http.StatusConflict, "duplicate_entry", "A role with this name already exists")
	case errors.Is(err, repository.ErrUnknownScope):
		response.Error(c, http.StatusBadRequest, "invalid_scope", "The request references a scope value that is not registered")
	default:
		log.Printf("role: %v", err)
		response.Error(c, http.StatusInternalServerError, "server_error", "")
	}
}
