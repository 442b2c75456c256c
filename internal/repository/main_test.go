package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"authservice/internal/database"
	"authservice/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDBCounter atomic.Int64

// newTestDB opens a fresh in-memory database. Every pooled connection
// shares the same database through the named shared cache, and the name is
// unique per test so state never leaks between them.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repotest%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedScopes(t *testing.T, db *gorm.DB, values ...string) []domain.Scope {
	t.Helper()
	repo := NewScopeRepository(db)
	scopes := make([]domain.Scope, 0, len(values))
	for _, v := range values {
		s := domain.Scope{Name: v, Description: v + " access", Value: v}
		require.NoError(t, repo.Create(context.Background(), &s))
		scopes = append(scopes, s)
	}
	return scopes
}

func seedAccount(t *testing.T, db *gorm.DB, username string, scopeValues ...string) *domain.Account {
	t.Helper()
	repo := NewAccountRepository(db)
	account := &domain.Account{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Password:  "hash-" + username,
		Active:    true,
	}
	require.NoError(t, repo.Create(context.Background(), account, scopeValues, nil))
	full, err := repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	require.NotNil(t, full)
	return full
}

func newTestTokenRepo(db *gorm.DB) *TokenRepository {
	return NewTokenRepository(db, time.Hour, 168*time.Hour)
}
