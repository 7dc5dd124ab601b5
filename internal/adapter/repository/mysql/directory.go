package mysql

import (
	"context"
	"errors"

	directoryDomain "municipal-portal/internal/domain/directory"

	"gorm.io/gorm"
)

type DirectoryRepository struct{ db *gorm.DB }

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository { return &DirectoryRepository{db: db} }

// GetRequestType loads the type together with its owning area.
func (r *DirectoryRepository) GetRequestType(ctx context.Context, id uint64) (*directoryDomain.RequestType, error) {
	var out directoryDomain.RequestType
	res := r.db.WithContext(ctx).Preload("Area").Where("id = ?", id).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, directoryDomain.ErrTypeNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *DirectoryRepository) GetUser(ctx context.Context, rut string) (*directoryDomain.User, error) {
	var out directoryDomain.User
	res := r.db.WithContext(ctx).Where("rut = ?", rut).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, directoryDomain.ErrUserNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}
