package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SaintsFlow/booking-calendar/internal/schedule"
)

// workplaces — места работы (филиалы, кабинеты) тенанта.
type Workplace struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name    string `gorm:"type:varchar(255);not null"`
	Address string `gorm:"type:text"`

	IsActive  bool `gorm:"not null;default:true;index"`
	SortOrder int  `gorm:"not null;default:0"`

	// Недельный график места работы; используется как fallback,
	// когда у сотрудника нет персональной записи на день.
	WorkingHours datatypes.JSONType[schedule.Weekly] `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant *Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
