package request

import "context"

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uint64) (*Request, error)
	// Row lock, only meaningful inside a transaction
	GetByIDForUpdate(ctx context.Context, id uint64) (*Request, error)
	Update(ctx context.Context, id uint64, p Patch) error
}
