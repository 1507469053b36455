package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/model"
)

type WorkplaceRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Workplace, error)
}

type GormWorkplaceRepository struct {
	db *gorm.DB
}

func NewGormWorkplaceRepository(db *gorm.DB) *GormWorkplaceRepository {
	return &GormWorkplaceRepository{db: db}
}

func (r *GormWorkplaceRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Workplace, error) {
	var w model.Workplace
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&w, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}
