package scope

import (
	"context"
	"errors"

	"authservice/internal/domain"

	"gorm.io/gorm"
)

// ErrNotFound means no scope exists under the requested id.
var ErrNotFound = errors.New("scope not found")

// ScopeStore is the persistence surface of the scope registry.
type ScopeStore interface {
	Create(ctx context.Context, scope *domain.Scope) error
	GetByID(ctx context.Context, id int64) (*domain.Scope, error)
	List(ctx context.Context) ([]domain.Scope, error)
	Update(ctx context.Context, scope *domain.Scope) error
	Delete(ctx context.Context, id int64) error
}

// Service manages the scope registry. Deleting a scope cascades through
// the store: accounts, roles and issued tokens all lose it at once.
type Service struct {
	scopes ScopeStore
}

func NewService(scopes ScopeStore) *Service {
	return &Service{scopes: scopes}
}

func (s *Service) List(ctx context.Context) ([]domain.Scope, error) {
	return s.scopes.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Scope, error) {
	scope, err := s.scopes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		return nil, ErrNotFound
	}
	return scope, nil
}

func (s *Service) Create(ctx context.Context, req ScopeCreate) (*domain.Scope, error) {
	scope := &domain.Scope{
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value,
	}
	if err := s.scopes.Create(ctx, scope); err != nil {
		return nil, err
	}
	return scope, nil
}

func (s *Service) Update(ctx context.Context, id int64, req ScopeUpdate) (*domain.Scope, error) {
	scope, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		scope.Name = *req.Name
	}
	if req.Description != nil {
		scope.Description = *req.Description
	}
	if req.Value != nil {
		scope.Value = *req.Value
	}
	if err := s.scopes.Update(ctx, scope); err != nil {
		return nil, err
	}
	return scope, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.scopes.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
