package directory

import "context"

// Repository reads the reference data a submission depends on.
type Repository interface {
	GetRequestType(ctx context.Context, id uint64) (*RequestType, error)
	GetUser(ctx context.Context, rut string) (*User, error)
}
