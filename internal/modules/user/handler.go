package user

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

// Handler exposes account management. Everything except the /users/me
// pair is reserved for administrators.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, guard *middleware.Guard) {
	users := r.Group("/users")
	{
		users.GET("", guard.RequireScopes("admin"), h.List)
		users.PUT("", guard.RequireScopes("admin"), h.Create)
		users.GET("/me", guard.RequireScopes("me"), h.Me)
		users.PATCH("/me", guard.RequireScopes("me"), h.ChangePassword)
		users.GET("/:id", guard.RequireScopes("admin"), h.Get)
		users.PATCH("/:id", guard.RequireScopes("admin"), h.Update)
		users.DELETE("/:id", guard.RequireScopes("admin"), h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	accounts, err := h.service.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) Create(c *gin.Context) {
	var req NewUserAccount
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request",
			"The request body is not a valid account description")
		return
	}

	account, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *Handler) Me(c *gin.Context) {
	account, err := h.service.Get(c.Request.Context(), middleware.CurrentAccount(c).ID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ChangePassword rotates the caller's own password. The mismatch case is
// the one place invalid_grant is served with a 403: the caller is
// authenticated, the proof of the old password failed.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request",
			"The oldPassword and newPassword fields are required")
		return
	}

	account, err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentAccount(c), req)
	if err != nil {
		if errors.Is(err, ErrWrongPassword) {
			response.Error(c, http.StatusForbidden, "invalid_grant",
				"The supplied oldPassword does not match the current password")
			return
		}
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	account, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	var req UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request",
			"The request body is not a valid account update")
		return
	}

	account, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func accountID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "The account id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "No account exists under this id")
	case errors.Is(err, repository.ErrDuplicate):
		response.Error(c, http.StatusConflict, "duplicate_entry", "An account with this username already exists")
	case errors.Is(err, repository.ErrUnknownScope):
		response.Error(c, http.StatusBadRequest, "invalid_scope", "The request references a scope value that is not registered")
	case errors.Is(err, repository.ErrUnknownRole):
		response.Error(c, http.StatusBadRequest, "invalid_request", "The request references a role that is not registered")
	default:
		log.Printf("user: %v", err)
		response.Error(c, http.StatusInternalServerError, "server_error", "")
	}
}
