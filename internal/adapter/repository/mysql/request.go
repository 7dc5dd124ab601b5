package mysql

import (
	"context"
	"errors"

	requestDomain "municipal-portal/internal/domain/request"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Create(ctx context.Context, req *requestDomain.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uint64) (*requestDomain.Request, error) {
	var out requestDomain.Request
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, requestDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*requestDomain.Request, error) {
	var out requestDomain.Request
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, requestDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

// Update writes only the columns set in p, as a parameterized statement.
func (r *RequestRepository) Update(ctx context.Context, id uint64, p requestDomain.Patch) error {
	if p.Empty() {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&requestDomain.Request{}).
		Where("id = ?", id).
		Updates(p.Columns())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return requestDomain.ErrNotFound
	}
	return nil
}
