package directorymock

import (
	"context"

	domain "municipal-portal/internal/domain/directory"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	GetRequestTypeFn func(ctx context.Context, id uint64) (*domain.RequestType, error)
	GetUserFn        func(ctx context.Context, rut string) (*domain.User, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) GetRequestType(ctx context.Context, id uint64) (*domain.RequestType, error) {
	if m.GetRequestTypeFn != nil {
		return m.GetRequestTypeFn(ctx, id)
	}
	return nil, domain.ErrTypeNotFound
}

func (m *Repo) GetUser(ctx context.Context, rut string) (*domain.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, rut)
	}
	return nil, domain.ErrUserNotFound
}
