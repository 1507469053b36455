package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/model"
)

type ServiceRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Service, error)
	// ListByIDs возвращает услуги тенанта по списку идентификаторов.
	// Отсутствующие услуги просто не попадают в результат — полноту
	// набора проверяет вызывающий слой.
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Service, error)
}

type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormServiceRepository) ListByIDs(
	ctx context.Context,
	tenantID uuid.UUID,
	ids []uuid.UUID,
) ([]model.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var services []model.Service
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("id IN ?", ids).
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}
