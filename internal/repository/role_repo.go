package repository

import (
	"context"
	"fmt"

	"authservice/internal/domain"

	"gorm.io/gorm"
)

// RoleRepository manages roles and their scope mappings.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) DB() *gorm.DB {
	return r.db
}

// Create inserts the role and maps it onto the given scope values in one
// transaction. Unknown values abort the whole insert.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role, scopeValues []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Scopes").Create(role).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create role: %w", err)
		}
		scopes, err := resolveScopeValues(tx, scopeValues)
		if err != nil {
			return err
		}
		if err := createRoleScopes(tx, role.ID, scopes); err != nil {
			return err
		}
		role.Scopes = scopes
		return nil
	})
}

// GetByID returns the role with its scopes or nil when no role has the id.
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).Preload("Scopes").First(&role, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get role by id: %w", err)
	}
	return &role, nil
}

// GetByName returns the role with its scopes or nil when the name is unknown.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).Preload("Scopes").Where("name = ?", name).First(&role).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	if err := r.db.WithContext(ctx).Preload("Scopes").Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Update saves name and description and, when scopeValues is non-nil,
// replaces the scope mapping with the given values. A non-nil empty slice
// clears the mapping.
func (r *RoleRepository) Update(ctx context.Context, role *domain.Role, scopeValues []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(role).Select("name", "description").Updates(role).Error
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("update role: %w", err)
		}
		if scopeValues == nil {
			return nil
		}
		scopes, err := resolveScopeValues(tx, scopeValues)
		if err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&domain.RoleScope{}).Error; err != nil {
			return fmt.Errorf("clear role scopes: %w", err)
		}
		if err := createRoleScopes(tx, role.ID, scopes); err != nil {
			return err
		}
		role.Scopes = scopes
		return nil
	})
}

// Delete removes the role, its scope mapping and its account assignments.
// Tokens are untouched: a role removal only narrows future issuance.
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Role{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete role: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("role_id = ?", id).Delete(&domain.RoleScope{}).Error; err != nil {
			return fmt.Errorf("delete role scopes: %w", err)
		}
		if err := tx.Where("role_id = ?", id).Delete(&domain.AccountRole{}).Error; err != nil {
			return fmt.Errorf("delete role assignments: %w", err)
		}
		return nil
	})
}

func createRoleScopes(tx *gorm.DB, roleID int64, scopes []domain.Scope) error {
	for _, s := range scopes {
		if err := tx.Create(&domain.RoleScope{RoleID: roleID, ScopeID: s.ID}).Error; err != nil {
			return fmt.Errorf("map role scope: %w", err)
		}
	}
	return nil
}

// resolveScopeValues loads the scopes for the given values inside the
// caller's transaction so cascading deletes cannot race the lookup.
func resolveScopeValues(tx *gorm.DB, values []string) ([]domain.Scope, error) {
	if len(values) == 0 {
		return nil, nil
	}
	var scopes []domain.Scope
	if err := tx.Where("value IN ?", values).Find(&scopes).Error; err != nil {
		return nil, fmt.Errorf("resolve scopes: %w", err)
	}
	known := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		known[s.Value] = true
	}
	for _, v := range values {
		if !known[v] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScope, v)
		}
	}
	return scopes, nil
}

func resolveRoleNames(tx *gorm.DB, names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var roles []domain.Role
	if err := tx.Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	known := make(map[string]bool, len(roles))
	for _, r := range roles {
		known[r.Name] = true
	}
	for _, n := range names {
		if !known[n] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRole, n)
		}
	}
	return roles, nil
}
