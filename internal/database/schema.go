package database

import (
	"authservice/internal/domain"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the full schema. PostgreSQL deployments
// use the SQL migrations instead; this path serves SQLite development
// databases and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Account{},
		&domain.Scope{},
		&domain.Role{},
		&domain.AccessToken{},
		&domain.RefreshToken{},
		&domain.AccountScope{},
		&domain.AccountRole{},
		&domain.RoleScope{},
		&domain.AccessTokenScope{},
		&domain.RefreshTokenScope{},
	)
}
