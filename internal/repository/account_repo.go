package repository

import (
	"context"
	"fmt"

	"authservice/internal/domain"

	"gorm.io/gorm"
)

// AccountRepository manages user accounts, their grants and the token
// cleanup that account changes trigger.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) DB() *gorm.DB {
	return r.db
}

// AccountUpdate describes a partial account update. Nil fields are left
// untouched. ScopeValues and RoleNames replace the whole set when non-nil,
// a non-nil empty slice clears it.
type AccountUpdate struct {
	FirstName    *string
	LastName     *string
	Username     *string
	PasswordHash *string
	Active       *bool
	ScopeValues  []string
	RoleNames    []string
}

// FindByID returns the account with its scopes and roles (including the
// scopes behind each role) or nil when no account has the id.
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).
		Preload("Scopes").
		Preload("Roles.Scopes").
		First(&account, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// FindByUsername returns the account or nil when the username is unknown.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).
		Preload("Scopes").
		Preload("Roles.Scopes").
		Where("username = ?", username).
		First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find account by username: %w", err)
	}
	return &account, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.WithContext(ctx).
		Preload("Scopes").
		Preload("Roles.Scopes").
		Order("id").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Create inserts the account and grants it the given scopes and roles in
// one transaction. Unknown scope values or role names abort the insert.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account, scopeValues, roleNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Scopes", "Roles").Create(account).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create account: %w", err)
		}
		scopes, err := resolveScopeValues(tx, scopeValues)
		if err != nil {
			return err
		}
		for _, s := range scopes {
			if err := tx.Create(&domain.AccountScope{AccountID: account.ID, ScopeID: s.ID}).Error; err != nil {
				return fmt.Errorf("grant scope: %w", err)
			}
		}
		roles, err := resolveRoleNames(tx, roleNames)
		if err != nil {
			return err
		}
		for _, role := range roles {
			if err := tx.Create(&domain.AccountRole{AccountID: account.ID, RoleID: role.ID}).Error; err != nil {
				return fmt.Errorf("assign role: %w", err)
			}
		}
		return nil
	})
}

// Update applies a partial update and logs the account out by removing
// every access and refresh token it owns, even when no field changed.
// Returns nil when the account does not exist.
func (r *AccountRepository) Update(ctx context.Context, id int64, upd AccountUpdate) (*domain.Account, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.Account
		if err := tx.First(&account, id).Error; err != nil {
			return err
		}
		fields := map[string]any{}
		if upd.FirstName != nil {
			fields["first_name"] = *upd.FirstName
		}
		if upd.LastName != nil {
			fields["last_name"] = *upd.LastName
		}
		if upd.Username != nil {
			fields["username"] = *upd.Username
		}
		if upd.PasswordHash != nil {
			fields["password"] = *upd.PasswordHash
		}
		if upd.Active != nil {
			fields["active"] = *upd.Active
		}
		if len(fields) > 0 {
			err := tx.Model(&domain.Account{}).Where("id = ?", id).Updates(fields).Error
			if err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicate
				}
				return fmt.Errorf("update account: %w", err)
			}
		}
		if upd.ScopeValues != nil {
			scopes, err := resolveScopeValues(tx, upd.ScopeValues)
			if err != nil {
				return err
			}
			if err := tx.Where("account_id = ?", id).Delete(&domain.AccountScope{}).Error; err != nil {
				return fmt.Errorf("clear scope grants: %w", err)
			}
			for _, s := range scopes {
				if err := tx.Create(&domain.AccountScope{AccountID: id, ScopeID: s.ID}).Error; err != nil {
					return fmt.Errorf("grant scope: %w", err)
				}
			}
		}
		if upd.RoleNames != nil {
			roles, err := resolveRoleNames(tx, upd.RoleNames)
			if err != nil {
				return err
			}
			if err := tx.Where("account_id = ?", id).Delete(&domain.AccountRole{}).Error; err != nil {
				return fmt.Errorf("clear role assignments: %w", err)
			}
			for _, role := range roles {
				if err := tx.Create(&domain.AccountRole{AccountID: id, RoleID: role.ID}).Error; err != nil {
					return fmt.Errorf("assign role: %w", err)
				}
			}
		}
		return deleteAccountTokens(tx, id)
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// UpdatePassword sets a new password hash and logs the account out
// everywhere in the same transaction.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Account{}).Where("id = ?", id).Update("password", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("update password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteAccountTokens(tx, id)
	})
}

// Delete removes the account together with its grants, role assignments
// and every token it owns.
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Account{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete account: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("account_id = ?", id).Delete(&domain.AccountScope{}).Error; err != nil {
			return fmt.Errorf("delete scope grants: %w", err)
		}
		if err := tx.Where("account_id = ?", id).Delete(&domain.AccountRole{}).Error; err != nil {
			return fmt.Errorf("delete role assignments: %w", err)
		}
		return deleteAccountTokens(tx, id)
	})
}

// deleteAccountTokens removes every access and refresh token owned by the
// account, including the scope snapshots attached to them.
func deleteAccountTokens(tx *gorm.DB, accountID int64) error {
	accessIDs := tx.Model(&domain.AccessToken{}).Select("id").Where("account_id = ?", accountID)
	if err := tx.Where("access_token_id IN (?)", accessIDs).Delete(&domain.AccessTokenScope{}).Error; err != nil {
		return fmt.Errorf("delete access token snapshots: %w", err)
	}
	refreshIDs := tx.Model(&domain.RefreshToken{}).Select("id").Where("account_id = ?", accountID)
	if err := tx.Where("refresh_token_id IN (?)", refreshIDs).Delete(&domain.RefreshTokenScope{}).Error; err != nil {
		return fmt.Errorf("delete refresh token snapshots: %w", err)
	}
	if err := tx.Where("account_id = ?", accountID).Delete(&domain.AccessToken{}).Error; err != nil {
		return fmt.Errorf("delete access tokens: %w", err)
	}
	if err := tx.Where("account_id = ?", accountID).Delete(&domain.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	return nil
}
