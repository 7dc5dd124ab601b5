package response

import "context"

type Repository interface {
	Create(ctx context.Context, r *Response) error
	GetByID(ctx context.Context, id uint64) (*Response, error)
	ListByRequestID(ctx context.Context, requestID uint64) ([]Response, error)
}
