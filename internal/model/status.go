package model

import (
	"time"

	"github.com/google/uuid"
)

// Коды статусов брони. Отмена — это переход статуса, а не отдельное
// состояние жизненного цикла: отменённая бронь остаётся в таблице.
const (
	StatusCodeNew               = "new"
	StatusCodeConfirmed         = "confirmed"
	StatusCodeCompleted         = "completed"
	StatusCodeCancelledByClient = "cancelled_by_client"
	StatusCodeCancelledByAdmin  = "cancelled_by_admin"
)

// IsCancelledCode сообщает, означает ли код статуса отмену брони.
func IsCancelledCode(code string) bool {
	return code == StatusCodeCancelledByClient || code == StatusCodeCancelledByAdmin
}

// statuses — справочник статусов брони, свой на каждый тенант.
type Status struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name  string `gorm:"type:varchar(255);not null"`
	Code  string `gorm:"type:varchar(64);not null;index"`
	Color string `gorm:"type:varchar(16)"`

	IsDefault bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant *Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
