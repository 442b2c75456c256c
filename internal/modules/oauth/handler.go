package oauth

import (
	"errors"
	"log"
	"net/http"

	"authservice/internal/middleware"
	"authservice/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes the oauth endpoints and the liveness probe.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the token endpoint publicly and the inspection
// endpoints behind the guard. Introspection accepts any valid token,
// revocation needs the "me" scope.
func (h *Handler) RegisterRoutes(r *gin.Engine, guard *middleware.Guard) {
	r.GET("/", h.Alive)

	group := r.Group("/oauth")
	{
		group.POST("/token", h.Token)
		group.POST("/check_token", guard.RequireScopes(), h.CheckToken)
		group.POST("/revoke", guard.RequireScopes("me"), h.Revoke)
	}
}

// Alive answers health probes with no body.
func (h *Handler) Alive(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *Handler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		response.OAuthError(c, http.StatusBadRequest, "invalid_request",
			"The request body could not be parsed as a form")
		return
	}

	set, err := h.service.Token(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *Handler) CheckToken(c *gin.Context) {
	value := c.PostForm("token")
	if value == "" {
		response.OAuthError(c, http.StatusBadRequest, "invalid_request", "The token field is required")
		return
	}

	info, err := h.service.Introspect(c.Request.Context(), value, c.PostForm("scope"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) Revoke(c *gin.Context) {
	value := c.PostForm("token")
	if value == "" {
		response.OAuthError(c, http.StatusBadRequest, "invalid_request", "The token field is required")
		return
	}

	if err := h.service.Revoke(c.Request.Context(), middleware.CurrentAccount(c), value); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// renderError maps grant errors onto 400 with the code in the body; any
// other failure is a plain 500.
func (h *Handler) renderError(c *gin.Context, err error) {
	var grantErr *GrantError
	if errors.As(err, &grantErr) {
		response.OAuthError(c, http.StatusBadRequest, grantErr.Code, grantErr.Description)
		return
	}
	log.Printf("oauth: %v", err)
	response.Error(c, http.StatusInternalServerError, "server_error", "")
}
