package requestmock

import (
	"context"

	domain "municipal-portal/internal/domain/request"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, r *domain.Request) error
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.Request, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*domain.Request, error)
	UpdateFn           func(ctx context.Context, id uint64, p domain.Patch) error
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, r *domain.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Request, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Request, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Update(ctx context.Context, id uint64, p domain.Patch) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, p)
	}
	return nil
}
