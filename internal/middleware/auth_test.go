package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"authservice/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubTokenSource struct {
	tokens map[string]*domain.AccessToken
	err    error
}

func (s *stubTokenSource) FindAccessByValue(_ context.Context, value string) (*domain.AccessToken, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tokens[value], nil
}

func usableToken(value string, scopes ...string) *domain.AccessToken {
	token := &domain.AccessToken{
		Value:   value,
		Active:  true,
		Created: time.Now().Unix(),
		Expires: time.Now().Add(time.Hour).Unix(),
		Account: domain.Account{ID: 7, Username: "u1", Active: true},
	}
	for i, s := range scopes {
		token.Scopes = append(token.Scopes, domain.Scope{ID: int64(i + 1), Value: s})
	}
	return token
}

func guardRouter(source TokenSource, required ...string) *gin.Engine {
	router := gin.New()
	guard := NewGuard(source)
	router.GET("/protected", guard.RequireScopes(required...), func(c *gin.Context) {
		account := CurrentAccount(c)
		c.JSON(http.StatusOK, gin.H{
			"username": account.Username,
			"scopes":   TokenScopes(c),
		})
	})
	return router
}

func TestGuardValidToken(t *testing.T) {
	source := &stubTokenSource{tokens: map[string]*domain.AccessToken{
		"tok-1": usableToken("tok-1", "me", "admin"),
	}}
	router := guardRouter(source, "me")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
	assert.Contains(t, w.Body.String(), "admin")
}

func TestGuardNoHeader(t *testing.T) {
	router := guardRouter(&stubTokenSource{}, "me")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthenticated")
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestGuardMalformedHeader(t *testing.T) {
	router := guardRouter(&stubTokenSource{}, "me")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthenticated")
}

func TestGuardUnknownToken(t *testing.T) {
	router := guardRouter(&stubTokenSource{tokens: map[string]*domain.AccessToken{}}, "me")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer nope")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardRevokedToken(t *testing.T) {
	token := usableToken("tok-1", "me")
	token.Active = false
	router := guardRouter(&stubTokenSource{tokens: map[string]*domain.AccessToken{"tok-1": token}}, "me")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardExpiredToken(t *testing.T) {
	token := usableToken("tok-1", "me")
	token.Expires = time.Now().Add(-time.Second).Unix()
	router := guardRouter(&stubTokenSource{tokens: map[string]*domain.AccessToken{"tok-1": token}}, "me")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardDeactivatedAccount(t *testing.T) {
	token := usableToken("tok-1", "me")
	token.Account.Active = false
	router := guardRouter(&stubTokenSource{tokens: map[string]*domain.AccessToken{"tok-1": token}}, "me")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardMissingScope(t *testing.T) {
	source := &stubTokenSource{tokens: map[string]*domain.AccessToken{
		"tok-1": usableToken("tok-1", "me"),
	}}
	router := guardRouter(source, "admin")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "no_privileges")
	assert.Equal(t, `Bearer scope="admin"`, w.Header().Get("WWW-Authenticate"))
}

func TestGuardNoScopesRequired(t *testing.T) {
	source := &stubTokenSource{tokens: map[string]*domain.AccessToken{
		"tok-1": usableToken("tok-1"),
	}}
	router := guardRouter(source)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentAccountOutsideGuard(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentAccount(c))
	assert.Nil(t, TokenScopes(c))
}
