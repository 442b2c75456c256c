package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrUnknownScope is returned when a scope string references a value
	// that is not registered.
	ErrUnknownScope = errors.New("unknown scope value")

	// ErrUnknownRole is returned when a role name is not registered.
	ErrUnknownRole = errors.New("unknown role name")

	// ErrRefreshTokenInvalid is returned by ConsumeRefresh for tokens that
	// are unknown, expired, or whose owner may no longer authenticate.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
