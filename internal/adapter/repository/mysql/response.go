package mysql

import (
	"context"
	"errors"

	responseDomain "municipal-portal/internal/domain/response"

	"gorm.io/gorm"
)

type ResponseRepository struct{ db *gorm.DB }

func NewResponseRepository(db *gorm.DB) *ResponseRepository { return &ResponseRepository{db: db} }

func (r *ResponseRepository) Create(ctx context.Context, resp *responseDomain.Response) error {
	return r.db.WithContext(ctx).Create(resp).Error
}

func (r *ResponseRepository) GetByID(ctx context.Context, id uint64) (*responseDomain.Response, error) {
	var out responseDomain.Response
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, responseDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *ResponseRepository) ListByRequestID(ctx context.Context, requestID uint64) ([]responseDomain.Response, error) {
	var out []responseDomain.Response
	res := r.db.WithContext(ctx).
		Where("id_solicitud = ?", requestID).
		Order("fecha_respuesta ASC, id ASC").
		Find(&out)
	return out, res.Error
}
