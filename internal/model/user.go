package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SaintsFlow/booking-calendar/internal/schedule"
)

// users — сотрудники тенанта (мастера, администраторы).
type User struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name  string `gorm:"type:varchar(255);not null"`
	Email string `gorm:"type:varchar(255);index"`
	Phone string `gorm:"type:varchar(32)"`

	IsActive bool `gorm:"not null;default:true;index"`

	// Персональный недельный график: день недели -> {start, end, is_working}.
	WorkingHours datatypes.JSONType[schedule.Weekly] `gorm:"type:jsonb"`

	// Особые графики на конкретные даты, перекрывают недельный.
	CustomSchedules datatypes.JSONType[[]schedule.DateOverride] `gorm:"type:jsonb"`

	// Идентификатор пользователя во внешней CRM, если замаплен.
	CRMUserID *string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant *Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
