package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/model"
)

type VacationRepository interface {
	Create(ctx context.Context, vacation *model.EmployeeVacation) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListForEmployee(ctx context.Context, tenantID, employeeID uuid.UUID) ([]model.EmployeeVacation, error)
	// CoversDate проверяет, попадает ли дата в какой-либо период отсутствия
	// сотрудника. Обе границы периода включительно.
	CoversDate(ctx context.Context, tenantID, employeeID uuid.UUID, date time.Time) (bool, error)
}

type GormVacationRepository struct {
	db *gorm.DB
}

func NewGormVacationRepository(db *gorm.DB) *GormVacationRepository {
	return &GormVacationRepository{db: db}
}

func (r *GormVacationRepository) Create(ctx context.Context, vacation *model.EmployeeVacation) error {
	if vacation.ID == uuid.Nil {
		vacation.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(vacation).Error
}

func (r *GormVacationRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&model.EmployeeVacation{}, "id = ?", id).
		Error
}

func (r *GormVacationRepository) ListForEmployee(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
) ([]model.EmployeeVacation, error) {
	var vacations []model.EmployeeVacation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID).
		Order("start_date ASC").
		Find(&vacations).Error
	if err != nil {
		return nil, err
	}
	return vacations, nil
}

func (r *GormVacationRepository) CoversDate(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	date time.Time,
) (bool, error) {
	// Сравниваем по началу суток: колонки date хранят полночь.
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.EmployeeVacation{}).
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
