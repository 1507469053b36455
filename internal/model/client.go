package model

import (
	"time"

	"github.com/google/uuid"
)

// clients — клиенты тенанта, на которых оформляются брони.
type Client struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`

	FirstName string `gorm:"type:varchar(255);not null"`
	LastName  string `gorm:"type:varchar(255)"`
	Phone     string `gorm:"type:varchar(32);index"`
	Email     string `gorm:"type:varchar(255)"`

	Comment string `gorm:"type:text"`

	// Идентификатор контакта во внешней CRM, если синхронизирован.
	CRMContactID *string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant *Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
