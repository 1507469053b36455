package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Тип отсутствия сотрудника.
type VacationType string

const (
	VacationTypeVacation VacationType = "vacation"
	VacationTypeSick     VacationType = "sick"
	VacationTypeDayOff   VacationType = "day_off"
)

// employee_vacations — отсутствия сотрудника: диапазон дат [start_date, end_date],
// обе границы включительно, без времени. Перекрывает любые графики.
type EmployeeVacation struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartDate datatypes.Date `gorm:"type:date;not null"`
	EndDate   datatypes.Date `gorm:"type:date;not null"`

	Type   VacationType `gorm:"type:varchar(32);not null;default:'vacation'"`
	Reason string       `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant   *Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Employee *User   `gorm:"foreignKey:EmployeeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
