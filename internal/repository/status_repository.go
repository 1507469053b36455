package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/model"
)

type StatusRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Status, error)
	// DefaultForTenant возвращает статус по умолчанию тенанта,
	// при его отсутствии — статус с кодом confirmed.
	DefaultForTenant(ctx context.Context, tenantID uuid.UUID) (*model.Status, error)
}

type GormStatusRepository struct {
	db *gorm.DB
}

func NewGormStatusRepository(db *gorm.DB) *GormStatusRepository {
	return &GormStatusRepository{db: db}
}

func (r *GormStatusRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Status, error) {
	var s model.Status
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormStatusRepository) DefaultForTenant(ctx context.Context, tenantID uuid.UUID) (*model.Status, error) {
	var s model.Status
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, model.StatusCodeConfirmed).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
