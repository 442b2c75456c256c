package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"authservice/internal/domain"
	"authservice/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys populated by the guard for downstream handlers.
const (
	accountKey     = "account"
	tokenScopesKey = "token_scopes"
)

// TokenSource resolves a presented bearer value to its ledger row. The
// returned token must carry the owning account and the scope snapshot.
type TokenSource interface {
	FindAccessByValue(ctx context.Context, value string) (*domain.AccessToken, error)
}

// Guard authenticates requests by the opaque bearer token they present and
// authorizes them against the scopes snapshotted on that token.
type Guard struct {
	tokens TokenSource
}

func NewGuard(tokens TokenSource) *Guard {
	return &Guard{tokens: tokens}
}

// RequireScopes rejects requests without a usable bearer token (401) or
// whose token lacks any of the given scopes (403). On success the account
// and the token scope snapshot are stored on the context.
func (g *Guard) RequireScopes(scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := bearerToken(c)
		if !ok {
			unauthenticated(c, "The request does not carry a bearer token")
			return
		}

		token, err := g.tokens.FindAccessByValue(c.Request.Context(), value)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "server_error", "")
			c.Abort()
			return
		}
		if token == nil || !token.IsUsable(time.Now()) || !token.Account.Active {
			unauthenticated(c, "The supplied token is invalid, expired or revoked")
			return
		}

		granted := token.ScopeValues()
		for _, required := range scopes {
			if !containsScope(granted, required) {
				c.Header("WWW-Authenticate", `Bearer scope="`+strings.Join(scopes, " ")+`"`)
				response.Error(c, http.StatusForbidden, "no_privileges",
					"The token does not confer the privileges this operation requires")
				c.Abort()
				return
			}
		}

		c.Set(accountKey, &token.Account)
		c.Set(tokenScopesKey, granted)
		c.Next()
	}
}

// CurrentAccount returns the account the guard authenticated, or nil on
// routes that never passed through it.
func CurrentAccount(c *gin.Context) *domain.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	account, ok := v.(*domain.Account)
	if !ok {
		return nil
	}
	return account
}

// TokenScopes returns the scope snapshot of the presenting token.
func TokenScopes(c *gin.Context) []string {
	v, ok := c.Get(tokenScopesKey)
	if !ok {
		return nil
	}
	scopes, ok := v.([]string)
	if !ok {
		return nil
	}
	return scopes
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	value := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if value == "" {
		return "", false
	}
	return value, true
}

func unauthenticated(c *gin.Context, description string) {
	response.OAuthError(c, http.StatusUnauthorized, "unauthenticated", description)
	c.Abort()
}

func containsScope(granted []string, value string) bool {
	for _, s := range granted {
		if s == value {
			return true
		}
	}
	return false
}
