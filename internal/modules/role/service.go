package role

import (
	"context"
	"errors"
	"strings"

	"authservice/internal/domain"

	"gorm.io/gorm"
)

// ErrNotFound means no role exists under the requested id.
var ErrNotFound = errors.New("role not found")

// RoleStore is the persistence surface of the role registry.
type RoleStore interface {
	Create(ctx context.Context, role *domain.Role, scopeValues []string) error
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, role *domain.Role, scopeValues []string) error
	Delete(ctx context.Context, id int64) error
}

// Service manages named scope bundles. Editing a role changes what its
// holders get on their next token, never the tokens already issued.
type Service struct {
	roles RoleStore
}

func NewService(roles RoleStore) *Service {
	return &Service{roles: roles}
}

func (s *Service) List(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrNotFound
	}
	return role, nil
}

func (s *Service) Create(ctx context.Context, req RoleCreate) (*domain.Role, error) {
	role := &domain.Role{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.roles.Create(ctx, role, strings.Fields(req.Scopes)); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Service) Update(ctx context.Context, id int64, req RoleUpdate) (*domain.Role, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	var scopeValues []string
	if req.Scopes != nil {
		// Fields returns an empty non-nil slice for a blank string, which
		// the store reads as "clear the mapping".
		scopeValues = strings.Fields(*req.Scopes)
	}
	if err := s.roles.Update(ctx, role, scopeValues); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
