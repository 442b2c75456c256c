package user

import (
	"context"
	"errors"
	"strings"

	"authservice/internal/domain"
	"authservice/internal/pkg/password"
	"authservice/internal/repository"

	"gorm.io/gorm"
)

// defaultScopes is granted to new accounts that do not name any.
const defaultScopes = "me"

// Service implements account management.
type Service struct {
	accounts AccountStore
}

func NewService(accounts AccountStore) *Service {
	return &Service{accounts: accounts}
}

func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	return s.accounts.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// Create registers a new active account with a hashed password and returns
// it with the granted scopes and roles loaded.
func (s *Service) Create(ctx context.Context, req NewUserAccount) (*domain.Account, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  hash,
		Active:    true,
	}

	scopes := defaultScopes
	if req.Scopes != nil {
		scopes = *req.Scopes
	}
	if err := s.accounts.Create(ctx, account, strings.Fields(scopes), req.Roles); err != nil {
		return nil, err
	}
	return s.Get(ctx, account.ID)
}

// Update applies a partial update. The store revokes every token the
// account owns, so any change here forces a fresh login.
func (s *Service) Update(ctx context.Context, id int64, req UserUpdate) (*domain.Account, error) {
	upd := repository.AccountUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Active:    req.Active,
	}
	if req.Password != nil {
		hash, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}
	if req.Scopes != nil {
		upd.ScopeValues = strings.Fields(*req.Scopes)
	}
	if req.Roles != nil {
		upd.RoleNames = *req.Roles
	}

	account, err := s.accounts.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// ChangePassword lets an account replace its own password after proving
// it knows the current one. Success logs the account out everywhere.
func (s *Service) ChangePassword(ctx context.Context, account *domain.Account, req PasswordChange) (*domain.Account, error) {
	if !password.Verify(account.Password, req.OldPassword) {
		return nil, ErrWrongPassword
	}
	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, account.ID)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
