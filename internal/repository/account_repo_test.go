package repository

import (
	"context"
	"testing"
	"time"

	"authservice/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAccountCreateWithGrants(t *testing.T) {
	db := newTestDB(t)
	accountRepo := NewAccountRepository(db)
	roleRepo := NewRoleRepository(db)
	ctx := context.Background()

	seedScopes(t, db, "me", "admin", "audit")
	require.NoError(t, roleRepo.Create(ctx, &domain.Role{Name: "ops"}, []string{"admin", "audit"}))

	account := &domain.Account{FirstName: "Ada", LastName: "L", Username: "u1", Password: "h", Active: true}
	require.NoError(t, accountRepo.Create(ctx, account, []string{"me", "admin"}, []string{"ops"}))

	full, err := accountRepo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, full)
	assert.ElementsMatch(t, []string{"me", "admin"}, scopeValues(full.Scopes))
	require.Len(t, full.Roles, 1)

	// Effective scopes union direct grants with role scopes, without
	// duplicating "admin" which arrives over both paths.
	assert.ElementsMatch(t, []string{"me", "admin", "audit"}, full.EffectiveScopeValues())
}

func TestAccountCreateDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	a := &domain.Account{FirstName: "A", LastName: "B", Username: "u1", Password: "h", Active: true}
	require.NoError(t, repo.Create(ctx, a, nil, nil))

	b := &domain.Account{FirstName: "C", LastName: "D", Username: "u1", Password: "h", Active: true}
	assert.ErrorIs(t, repo.Create(ctx, b, nil, nil), ErrDuplicate)
}

func TestAccountCreateUnknownScopeRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := &domain.Account{FirstName: "A", LastName: "B", Username: "u1", Password: "h", Active: true}
	err := repo.Create(ctx, account, []string{"payments"}, nil)
	assert.ErrorIs(t, err, ErrUnknownScope)

	ghost, err := repo.FindByUsername(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestAccountFindByUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	seedScopes(t, db, "me")
	seedAccount(t, db, "u1", "me")

	found, err := repo.FindByUsername(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.Username)

	missing, err := repo.FindByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountUpdateReplacesGrantsAndLogsOut(t *testing.T) {
	db := newTestDB(t)
	accountRepo := NewAccountRepository(db)
	tokenRepo := newTestTokenRepo(db)
	ctx := context.Background()

	seedScopes(t, db, "me", "admin")
	account := seedAccount(t, db, "u1", "me")

	access, refresh, err := tokenRepo.Issue(ctx, account.ID, account.Scopes, time.Now())
	require.NoError(t, err)

	first := "Grace"
	updated, err := accountRepo.Update(ctx, account.ID, AccountUpdate{
		FirstName:   &first,
		ScopeValues: []string{"admin"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, []string{"admin"}, scopeValues(updated.Scopes))

	// Any admin update revokes every token the account held.
	goneAccess, err := tokenRepo.FindAccessByValue(ctx, access.Value)
	require.NoError(t, err)
	assert.Nil(t, goneAccess)
	goneRefresh, err := tokenRepo.FindRefreshByValue(ctx, refresh.Value)
	require.NoError(t, err)
	assert.Nil(t, goneRefresh)
}

func TestAccountUpdateMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)

	updated, err := repo.Update(context.Background(), 404, AccountUpdate{})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestAccountUpdateDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	seedScopes(t, db, "me")
	seedAccount(t, db, "u1", "me")
	other := seedAccount(t, db, "u2", "me")

	taken := "u1"
	_, err := repo.Update(ctx, other.ID, AccountUpdate{Username: &taken})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAccountUpdatePasswordLogsOut(t *testing.T) {
	db := newTestDB(t)
	accountRepo := NewAccountRepository(db)
	tokenRepo := newTestTokenRepo(db)
	ctx := context.Background()

	seedScopes(t, db, "me")
	account := seedAccount(t, db, "u1", "me")

	access, _, err := tokenRepo.Issue(ctx, account.ID, account.Scopes, time.Now())
	require.NoError(t, err)

	require.NoError(t, accountRepo.UpdatePassword(ctx, account.ID, "new-hash"))

	reloaded, err := accountRepo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.Password)

	gone, err := tokenRepo.FindAccessByValue(ctx, access.Value)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, accountRepo.UpdatePassword(ctx, 404, "x"), gorm.ErrRecordNotFound)
}

func TestAccountDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	accountRepo := NewAccountRepository(db)
	tokenRepo := newTestTokenRepo(db)
	ctx := context.Background()

	seedScopes(t, db, "me")
	account := seedAccount(t, db, "u1", "me")

	access, refresh, err := tokenRepo.Issue(ctx, account.ID, account.Scopes, time.Now())
	require.NoError(t, err)

	require.NoError(t, accountRepo.Delete(ctx, account.ID))

	gone, err := accountRepo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	goneAccess, err := tokenRepo.FindAccessByValue(ctx, access.Value)
	require.NoError(t, err)
	assert.Nil(t, goneAccess)
	goneRefresh, err := tokenRepo.FindRefreshByValue(ctx, refresh.Value)
	require.NoError(t, err)
	assert.Nil(t, goneRefresh)

	assert.ErrorIs(t, accountRepo.Delete(ctx, account.ID), gorm.ErrRecordNotFound)
}

func TestAccountList(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountRepository(db)

	seedScopes(t, db, "me")
	seedAccount(t, db, "u1", "me")
	seedAccount(t, db, "u2", "me")

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "u1", accounts[0].Username)
	assert.Equal(t, "u2", accounts[1].Username)
}

func scopeValues(scopes []domain.Scope) []string {
	values := make([]string, 0, len(scopes))
	for _, s := range scopes {
		values = append(values, s.Value)
	}
	return values
}
