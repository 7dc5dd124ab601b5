package responsemock

import (
	"context"

	domain "municipal-portal/internal/domain/response"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn          func(ctx context.Context, r *domain.Response) error
	GetByIDFn         func(ctx context.Context, id uint64) (*domain.Response, error)
	ListByRequestIDFn func(ctx context.Context, requestID uint64) ([]domain.Response, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) Create(ctx context.Context, r *domain.Response) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Response, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByRequestID(ctx context.Context, requestID uint64) ([]domain.Response, error) {
	if m.ListByRequestIDFn != nil {
		return m.ListByRequestIDFn(ctx, requestID)
	}
	return nil, nil
}
