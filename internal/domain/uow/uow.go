package uow

import (
	"context"

	"municipal-portal/internal/domain/directory"
	"municipal-portal/internal/domain/request"
	"municipal-portal/internal/domain/response"
)

// Repos are bound to the same transaction.
type Repos struct {
	Requests  request.Repository
	Responses response.Repository
	Directory directory.Repository
}

type UnitOfWork interface {
	// plain tx: commit when fn returns nil, roll back otherwise
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the request row first, then pass it in
	WithinRequestTx(ctx context.Context, requestID uint64, fn func(r Repos, req *request.Request) error) error
}
