package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.User, error)
	// UpdateSchedule сохраняет недельный график и особые графики сотрудника.
	UpdateSchedule(ctx context.Context, user *model.User) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) UpdateSchedule(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("tenant_id = ? AND id = ?", user.TenantID, user.ID).
		Updates(map[string]any{
			"working_hours":    user.WorkingHours,
			"custom_schedules": user.CustomSchedules,
		}).
		Error
}
