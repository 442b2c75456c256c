package user

import (
	"context"

	"authservice/internal/domain"
	"authservice/internal/repository"
)

// AccountStore is the persistence surface of account management. Update
// and the mutations derived from it are expected to revoke the account's
// tokens as part of the same transaction.
type AccountStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Create(ctx context.Context, account *domain.Account, scopeValues, roleNames []string) error
	Update(ctx context.Context, id int64, upd repository.AccountUpdate) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}
