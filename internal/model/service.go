package model

import (
	"time"

	"github.com/google/uuid"
)

// services — услуги тенанта. Длительность и цена здесь — текущие значения;
// при оформлении брони они копируются в строку booking_services как снапшот.
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	WorkplaceID *uuid.UUID `gorm:"type:uuid;index"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	DurationMinutes int     `gorm:"not null;default:60"`
	Price           float64 `gorm:"type:decimal(10,2);not null;default:0"`

	IsActive bool `gorm:"not null;default:true;index"`

	// Идентификатор товара во внешней CRM, если синхронизирован.
	CRMProductID *string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Tenant    *Tenant    `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Workplace *Workplace `gorm:"foreignKey:WorkplaceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
