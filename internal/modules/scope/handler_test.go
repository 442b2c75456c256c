package scope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"authservice/internal/database"
	"authservice/internal/domain"
	"authservice/internal/middleware"
	"authservice/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

var testDBCounter atomic.Int64

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:scopetest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	scopeRepo := repository.NewScopeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	tokenRepo := repository.NewTokenRepository(db, time.Hour, 168*time.Hour)

	admin := domain.Scope{Name: "admin", Description: "administration", Value: "admin"}
	require.NoError(t, scopeRepo.Create(context.Background(), &admin))

	account := &domain.Account{FirstName: "Admin", LastName: "User", Username: "admin", Password: "hash", Active: true}
	require.NoError(t, accountRepo.Create(context.Background(), account, []string{"admin"}, nil))
	access, _, err := tokenRepo.Issue(context.Background(), account.ID, []domain.Scope{admin}, time.Now())
	require.NoError(t, err)

	router := gin.New()
	handler := NewHandler(NewService(scopeRepo))
	handler.RegisterRoutes(router, middleware.NewGuard(tokenRepo))

	return router, db, access.Value
}

func performRequest(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestScopeCreateAndGet(t *testing.T) {
	router, _, token := setupRouter(t)

	resp := performRequest(router, http.MethodPut, "/scopes",
		ScopeCreate{Name: "User", Description: "personal data", Value: "user"}, token)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created domain.Scope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "user", created.Value)

	resp = performRequest(router, http.MethodGet, fmt.Sprintf("/scopes/%d", created.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched domain.Scope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "User", fetched.Name)
	assert.Equal(t, "personal data", fetched.Description)
}

func TestScopeCreateDuplicateValue(t *testing.T) {
	router, _, token := setupRouter(t)

	resp := performRequest(router, http.MethodPut, "/scopes",
		ScopeCreate{Name: "Administration", Value: "admin"}, token)
	require.Equal(t, http.StatusConflict, resp.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "duplicate_entry", body.Error)
	assert.Equal(t, "A scope with this value already exists", body.Description)
}

func TestScopeCreateInvalidBody(t *testing.T) {
	router, _, token := setupRouter(t)

	resp := performRequest(router, http.MethodPut, "/scopes", ScopeCreate{Name: "no value"}, token)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body.Error)
}

func TestScopeList(t *testing.T) {
	router, _, token := setupRouter(t)

	resp := performRequest(router, http.MethodPut, "/scopes", ScopeCreate{Name: "Me", Value: "me"}, token)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = performRequest(router, http.MethodGet, "/scopes", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)

	var scopes []domain.Scope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &scopes))
	require.Len(t, scopes, 2)
	assert.Equal(t, "admin", scopes[0].Value)
	assert.Equal(t, "me", scopes[1].Value)
}

func TestScopeUpdate(t *testing.T) {
	router, _, token := setupRouter(t)

	name := "Administrator"
	resp := performRequest(router, http.MethodPatch, "/scopes/1", ScopeUpdate{Name: &name}, token)
	require.Equal(t, http.StatusOK, resp.Code)

	var updated domain.Scope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "Administrator", updated.Name)
	assert.Equal(t, "admin", updated.Value)
}

func TestScopeUpdateUnknownID(t *testing.T) {
	router, _, token := setupRouter(t)

	name := "Ghost"
	resp := performRequest(router, http.MethodPatch, "/scopes/999", ScopeUpdate{Name: &name}, token)
	require.Equal(t, http.StatusNotFound, resp.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error)
}

func TestScopeDelete(t *testing.T) {
	router, db, token := setupRouter(t)

	resp := performRequest(router, http.MethodPut, "/scopes", ScopeCreate{Name: "Me", Value: "me"}, token)
	require.Equal(t, http.StatusCreated, resp.Code)
	var created domain.Scope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = performRequest(router, http.MethodDelete, fmt.Sprintf("/scopes/%d", created.ID), nil, token)
	require.Equal(t, http.StatusNoContent, resp.Code)

	var count int64
	require.NoError(t, db.Model(&domain.Scope{}).Where("value = ?", "me").Count(&count).Error)
	assert.Zero(t, count)

	resp = performRequest(router, http.MethodDelete, fmt.Sprintf("/scopes/%d", created.ID), nil, token)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestScopeInvalidID(t *testing.T) {
	router, _, token := setupRouter(t)

	resp := performRequest(router, http.MethodGet, "/scopes/abc", nil, token)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "invalid_request", body.Error)
	assert.Equal(t, "The scope id must be an integer", body.Description)
}

func TestScopeRequiresAdminScope(t *testing.T) {
	router, db, _ := setupRouter(t)

	resp := performRequest(router, http.MethodGet, "/scopes", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))

	// A token holding only "me" lacks the admin scope.
	scopeRepo := repository.NewScopeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	tokenRepo := repository.NewTokenRepository(db, time.Hour, 168*time.Hour)

	me := domain.Scope{Name: "Me", Value: "me"}
	require.NoError(t, scopeRepo.Create(context.Background(), &me))
	account := &domain.Account{FirstName: "Plain", LastName: "User", Username: "u1", Password: "hash", Active: true}
	require.NoError(t, accountRepo.Create(context.Background(), account, []string{"me"}, nil))
	access, _, err := tokenRepo.Issue(context.Background(), account.ID, []domain.Scope{me}, time.Now())
	require.NoError(t, err)

	resp = performRequest(router, http.MethodGet, "/scopes", nil, access.Value)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, `Bearer scope="admin"`, resp.Header().Get("WWW-Authenticate"))

	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "no_privileges", body.Error)
}
