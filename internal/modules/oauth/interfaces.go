package oauth

import (
	"context"
	"time"

	"authservice/internal/domain"
)

// AccountSource is the account lookup the password grant needs. The
// returned account must carry its scopes and roles so the effective scope
// set can be computed.
type AccountSource interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// TokenLedger is the persistence surface behind the token endpoints.
type TokenLedger interface {
	Issue(ctx context.Context, accountID int64, scopes []domain.Scope, now time.Time) (*domain.AccessToken, *domain.RefreshToken, error)
	FindAccessByValue(ctx context.Context, value string) (*domain.AccessToken, error)
	FindRefreshByValue(ctx context.Context, value string) (*domain.RefreshToken, error)
	ConsumeRefresh(ctx context.Context, value string, now time.Time) (*domain.AccessToken, *domain.RefreshToken, error)
	Revoke(ctx context.Context, value string) error
}
