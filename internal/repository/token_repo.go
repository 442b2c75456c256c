package repository

import (
	"context"
	"fmt"
	"time"

	"authservice/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository is the ledger of issued tokens. It owns token lifetimes:
// every pair minted through it gets the TTLs the repository was built with,
// and every mutation that touches a pair runs in a single transaction.
type TokenRepository struct {
	db         *gorm.DB
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenRepository(db *gorm.DB, accessTTL, refreshTTL time.Duration) *TokenRepository {
	return &TokenRepository{db: db, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (r *TokenRepository) DB() *gorm.DB {
	return r.db
}

// Issue mints an access/refresh pair for the account and snapshots the
// given scopes onto both tokens. The refresh token records which access
// token it was minted with.
func (r *TokenRepository) Issue(ctx context.Context, accountID int64, scopes []domain.Scope, now time.Time) (*domain.AccessToken, *domain.RefreshToken, error) {
	access := &domain.AccessToken{
		Value:     uuid.NewString(),
		AccountID: accountID,
		Active:    true,
		Created:   now.Unix(),
		Expires:   now.Add(r.accessTTL).Unix(),
	}
	refresh := &domain.RefreshToken{
		Value:     uuid.NewString(),
		AccountID: accountID,
		Expires:   now.Add(r.refreshTTL).Unix(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return issueTokenPair(tx, access, refresh, scopes)
	})
	if err != nil {
		return nil, nil, err
	}
	access.Scopes = scopes
	refresh.Scopes = scopes
	return access, refresh, nil
}

// FindAccessByValue returns the access token carrying the value, with its
// account and scope snapshot preloaded, or nil when the value is unknown.
// Revoked and expired rows are returned as-is; validity is the caller's
// decision.
func (r *TokenRepository) FindAccessByValue(ctx context.Context, value string) (*domain.AccessToken, error) {
	var token domain.AccessToken
	err := r.db.WithContext(ctx).
		Preload("Account").
		Preload("Scopes").
		Where("token = ?", value).
		First(&token).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find access token: %w", err)
	}
	return &token, nil
}

// FindRefreshByValue returns the refresh token carrying the value, with its
// account and scope snapshot preloaded, or nil when the value is unknown.
func (r *TokenRepository) FindRefreshByValue(ctx context.Context, value string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := r.db.WithContext(ctx).
		Preload("Account").
		Preload("Scopes").
		Where("token = ?", value).
		First(&token).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// Revoke withdraws whichever token carries the value. Access tokens are
// deactivated in place so the row keeps its history until cleanup; refresh
// tokens are deleted together with their scope snapshot. Unknown values are
// a no-op, which lets callers report success without revealing whether the
// token ever existed.
func (r *TokenRepository) Revoke(ctx context.Context, value string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.AccessToken{}).
			Where("token = ?", value).
			Update("active", false).Error
		if err != nil {
			return fmt.Errorf("deactivate access token: %w", err)
		}
		_, err = deleteRefreshTokens(tx, "token = ?", value)
		return err
	})
}

// ConsumeRefresh exchanges a refresh token for a fresh pair in one
// transaction: the old row is locked, validated and deleted, then a new
// pair carrying the old scope snapshot is minted. A value that is unknown,
// expired, already consumed or owned by a deactivated account fails with
// ErrRefreshTokenInvalid.
func (r *TokenRepository) ConsumeRefresh(ctx context.Context, value string, now time.Time) (*domain.AccessToken, *domain.RefreshToken, error) {
	var access *domain.AccessToken
	var refresh *domain.RefreshToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Preload("Account").Preload("Scopes")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var old domain.RefreshToken
		if err := q.Where("token = ?", value).First(&old).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrRefreshTokenInvalid
			}
			return fmt.Errorf("load refresh token: %w", err)
		}
		if old.IsExpired(now) || !old.Account.Active {
			return ErrRefreshTokenInvalid
		}
		res := tx.Where("id = ?", old.ID).Delete(&domain.RefreshToken{})
		if res.Error != nil {
			return fmt.Errorf("consume refresh token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// lost the race against a concurrent exchange of the same value
			return ErrRefreshTokenInvalid
		}
		if err := tx.Where("refresh_token_id = ?", old.ID).Delete(&domain.RefreshTokenScope{}).Error; err != nil {
			return fmt.Errorf("delete refresh scope snapshot: %w", err)
		}
		access = &domain.AccessToken{
			Value:     uuid.NewString(),
			AccountID: old.AccountID,
			Active:    true,
			Created:   now.Unix(),
			Expires:   now.Add(r.accessTTL).Unix(),
		}
		refresh = &domain.RefreshToken{
			Value:     uuid.NewString(),
			AccountID: old.AccountID,
			Expires:   now.Add(r.refreshTTL).Unix(),
		}
		if err := issueTokenPair(tx, access, refresh, old.Scopes); err != nil {
			return err
		}
		access.Scopes = old.Scopes
		access.Account = old.Account
		refresh.Scopes = old.Scopes
		refresh.Account = old.Account
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return access, refresh, nil
}

// RevokeAllForAccount removes every access and refresh token the account
// owns. Account updates and deletions use this to force a re-login.
func (r *TokenRepository) RevokeAllForAccount(ctx context.Context, accountID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteAccountTokens(tx, accountID)
	})
}

// DeleteExpired purges every token whose lifetime had passed at now, along
// with the scope snapshots. It returns how many token rows were removed.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ts := now.Unix()
		accessIDs := tx.Model(&domain.AccessToken{}).Select("id").Where("expires <= ?", ts)
		if err := tx.Where("access_token_id IN (?)", accessIDs).Delete(&domain.AccessTokenScope{}).Error; err != nil {
			return fmt.Errorf("delete access scope snapshots: %w", err)
		}
		n, err := deleteRefreshTokens(tx, "expires <= ?", ts)
		if err != nil {
			return err
		}
		removed += n
		res := tx.Where("expires <= ?", ts).Delete(&domain.AccessToken{})
		if res.Error != nil {
			return fmt.Errorf("delete expired access tokens: %w", res.Error)
		}
		removed += res.RowsAffected
		return nil
	})
	return removed, err
}

// issueTokenPair inserts both token rows and their scope snapshots. The
// caller supplies already-resolved scopes and runs this inside its own
// transaction.
func issueTokenPair(tx *gorm.DB, access *domain.AccessToken, refresh *domain.RefreshToken, scopes []domain.Scope) error {
	if err := tx.Omit("Scopes", "Account").Create(access).Error; err != nil {
		return fmt.Errorf("create access token: %w", err)
	}
	refresh.AccessTokenID = access.ID
	if err := tx.Omit("Scopes", "Account").Create(refresh).Error; err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	for _, s := range scopes {
		if err := tx.Create(&domain.AccessTokenScope{AccessTokenID: access.ID, ScopeID: s.ID}).Error; err != nil {
			return fmt.Errorf("snapshot access scope: %w", err)
		}
		if err := tx.Create(&domain.RefreshTokenScope{RefreshTokenID: refresh.ID, ScopeID: s.ID}).Error; err != nil {
			return fmt.Errorf("snapshot refresh scope: %w", err)
		}
	}
	return nil
}

// deleteRefreshTokens removes the refresh tokens matched by the condition
// together with their scope snapshots and reports how many were removed.
func deleteRefreshTokens(tx *gorm.DB, query string, args ...any) (int64, error) {
	ids := tx.Model(&domain.RefreshToken{}).Select("id").Where(query, args...)
	if err := tx.Where("refresh_token_id IN (?)", ids).Delete(&domain.RefreshTokenScope{}).Error; err != nil {
		return 0, fmt.Errorf("delete refresh scope snapshots: %w", err)
	}
	res := tx.Where(query, args...).Delete(&domain.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
