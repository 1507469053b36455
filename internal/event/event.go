// Package event описывает события жизненного цикла брони для внешних
// потребителей (CRM-пайплайн). Ядро создаёт значение события после успешного
// коммита и передаёт его диспетчеру; сама запись в БД от доставки не зависит.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/SaintsFlow/booking-calendar/internal/model"
)

// Тип события; используется и как routing key при публикации.
type Type string

const (
	TypeBookingCreated Type = "booking.created"
	TypeBookingUpdated Type = "booking.updated"
	TypeBookingDeleted Type = "booking.deleted"
)

// Event — одно событие жизненного цикла.
// Для created/updated заполняется Booking со всеми связями;
// для deleted — плоский снапшот Deleted, потому что строка уже мягко
// удалена и через обычные выборки не загружается.
type Event struct {
	Type       Type            `json:"event"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Booking    *model.Booking  `json:"booking,omitempty"`
	Deleted    *DeletedBooking `json:"deleted,omitempty"`
}

// DeletedBooking — снапшот удалённой брони для даунстрим-слушателей.
type DeletedBooking struct {
	BookingID   uuid.UUID  `json:"booking_id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	EmployeeID  uuid.UUID  `json:"employee_id"`
	WorkplaceID *uuid.UUID `json:"workplace_id,omitempty"`
	StartTime   time.Time  `json:"start_time"`
}

func BookingCreated(b *model.Booking) Event {
	return Event{
		Type:       TypeBookingCreated,
		TenantID:   b.TenantID,
		OccurredAt: time.Now().UTC(),
		Booking:    b,
	}
}

func BookingUpdated(b *model.Booking) Event {
	return Event{
		Type:       TypeBookingUpdated,
		TenantID:   b.TenantID,
		OccurredAt: time.Now().UTC(),
		Booking:    b,
	}
}

// BookingDeleted строит событие из состояния брони до удаления.
func BookingDeleted(b *model.Booking) Event {
	return Event{
		Type:       TypeBookingDeleted,
		TenantID:   b.TenantID,
		OccurredAt: time.Now().UTC(),
		Deleted: &DeletedBooking{
			BookingID:   b.ID,
			TenantID:    b.TenantID,
			ClientID:    b.ClientID,
			EmployeeID:  b.EmployeeID,
			WorkplaceID: b.WorkplaceID,
			StartTime:   b.StartTime,
		},
	}
}

// Sink принимает события от жизненного цикла. Реализация не имеет права
// блокировать вызывающего: доставка — забота фонового воркера.
type Sink interface {
	Dispatch(ev Event)
}
