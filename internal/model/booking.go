package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// bookings — записи клиентов. Мягкое удаление через gorm.DeletedAt:
// ядро никогда не удаляет строку физически.
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	WorkplaceID *uuid.UUID `gorm:"type:uuid;index"`
	EmployeeID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	StatusID    uuid.UUID  `gorm:"type:uuid;not null;index"`

	CreatedBy uuid.UUID  `gorm:"type:uuid;not null"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`

	StartTime time.Time `gorm:"type:timestamp with time zone;not null;index"`
	EndTime   time.Time `gorm:"type:timestamp with time zone;not null"`

	// Инварианты: duration_minutes и total_price равны суммам по строкам услуг.
	DurationMinutes int     `gorm:"not null;default:0"`
	TotalPrice      float64 `gorm:"type:decimal(10,2);not null;default:0"`

	Comment string `gorm:"type:text"`

	// Отметка о посещении: факт, время и кто зафиксировал.
	ClientAttended bool       `gorm:"not null;default:false"`
	AttendedAt     *time.Time `gorm:"type:timestamp with time zone"`
	AttendedBy     *uuid.UUID `gorm:"type:uuid"`

	// Идентификатор сделки во внешней CRM, если создана.
	CRMDealID *string `gorm:"type:varchar(64)"`

	CreatedAt time.Time      `gorm:"not null;default:now()"`
	UpdatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Tenant    *Tenant    `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Workplace *Workplace `gorm:"foreignKey:WorkplaceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Employee  *User      `gorm:"foreignKey:EmployeeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Client    *Client    `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Status    *Status    `gorm:"foreignKey:StatusID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Services []BookingServiceLine `gorm:"foreignKey:BookingID"`
}

// IsCancelled — бронь в отменённом статусе (статус должен быть загружен).
func (b *Booking) IsCancelled() bool {
	return b.Status != nil && IsCancelledCode(b.Status.Code)
}

// CanBeRestored — восстановление возможно только пока начало в будущем.
func (b *Booking) CanBeRestored(now time.Time) bool {
	return b.IsCancelled() && b.StartTime.After(now)
}

// ServiceIDs возвращает идентификаторы услуг брони в порядке sort_order.
func (b *Booking) ServiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Services))
	for _, line := range b.Services {
		ids = append(ids, line.ServiceID)
	}
	return ids
}

// booking_services — строки услуг брони. Длительность и цена копируются
// из услуги в момент оформления: это исторический снапшот, не живая ссылка.
// Строки неизменяемы; смена набора услуг — полный detach + reattach.
type BookingServiceLine struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	BookingID uuid.UUID `gorm:"type:uuid;not null;index"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index"`

	DurationMinutes int     `gorm:"not null"`
	Price           float64 `gorm:"type:decimal(10,2);not null"`
	SortOrder       int     `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (BookingServiceLine) TableName() string { return "booking_services" }
