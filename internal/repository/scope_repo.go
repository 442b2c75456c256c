package repository

import (
	"context"
	"fmt"
	"strings"

	"authservice/internal/domain"

	"gorm.io/gorm"
)

// ScopeRepository manages the registry of permission scopes.
type ScopeRepository struct {
	db *gorm.DB
}

func NewScopeRepository(db *gorm.DB) *ScopeRepository {
	return &ScopeRepository{db: db}
}

func (r *ScopeRepository) DB() *gorm.DB {
	return r.db
}

func (r *ScopeRepository) Create(ctx context.Context, scope *domain.Scope) error {
	if err := r.db.WithContext(ctx).Create(scope).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create scope: %w", err)
	}
	return nil
}

// GetByID returns the scope or nil when no scope has the given id.
func (r *ScopeRepository) GetByID(ctx context.Context, id int64) (*domain.Scope, error) {
	var scope domain.Scope
	err := r.db.WithContext(ctx).First(&scope, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get scope by id: %w", err)
	}
	return &scope, nil
}

// GetByValue returns the scope or nil when the value is not registered.
func (r *ScopeRepository) GetByValue(ctx context.Context, value string) (*domain.Scope, error) {
	var scope domain.Scope
	err := r.db.WithContext(ctx).Where("value = ?", value).First(&scope).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get scope by value: %w", err)
	}
	return &scope, nil
}

func (r *ScopeRepository) List(ctx context.Context) ([]domain.Scope, error) {
	var scopes []domain.Scope
	if err := r.db.WithContext(ctx).Order("id").Find(&scopes).Error; err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	return scopes, nil
}

func (r *ScopeRepository) Update(ctx context.Context, scope *domain.Scope) error {
	err := r.db.WithContext(ctx).Model(scope).Select("name", "description", "value").Updates(scope).Error
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update scope: %w", err)
	}
	return nil
}

// Delete removes the scope together with every reference to it: role
// mappings, direct account grants and the snapshots attached to issued
// tokens all lose the scope in the same transaction.
func (r *ScopeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Scope{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete scope: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("scope_id = ?", id).Delete(&domain.RoleScope{}).Error; err != nil {
			return fmt.Errorf("delete role mappings: %w", err)
		}
		if err := tx.Where("scope_id = ?", id).Delete(&domain.AccountScope{}).Error; err != nil {
			return fmt.Errorf("delete account grants: %w", err)
		}
		if err := tx.Where("scope_id = ?", id).Delete(&domain.AccessTokenScope{}).Error; err != nil {
			return fmt.Errorf("delete access token snapshots: %w", err)
		}
		if err := tx.Where("scope_id = ?", id).Delete(&domain.RefreshTokenScope{}).Error; err != nil {
			return fmt.Errorf("delete refresh token snapshots: %w", err)
		}
		return nil
	})
}

// ResolveValues maps a list of scope values onto registered scopes. Every
// value must be known, otherwise ErrUnknownScope is returned.
func (r *ScopeRepository) ResolveValues(ctx context.Context, values []string) ([]domain.Scope, error) {
	return resolveScopeValues(r.db.WithContext(ctx), values)
}

// ResolveScopeString resolves a space-delimited scope string the way it
// appears in requests and stored role definitions.
func (r *ScopeRepository) ResolveScopeString(ctx context.Context, scopeString string) ([]domain.Scope, error) {
	return r.ResolveValues(ctx, strings.Fields(scopeString))
}
