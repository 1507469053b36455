package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SaintsFlow/booking-calendar/internal/model"
)

// BookingFilter — фильтры списка броней. Все поля опциональны,
// кроме тенанта, который передаётся отдельным аргументом.
type BookingFilter struct {
	EmployeeID  *uuid.UUID
	ClientID    *uuid.UUID
	WorkplaceID *uuid.UUID
	StatusID    *uuid.UUID
	From        *time.Time // по start_time
	To          *time.Time
	Limit       int
	Offset      int
}

type BookingRepository interface {
	// WithTx возвращает репозиторий, привязанный к открытой транзакции.
	WithTx(tx *gorm.DB) BookingRepository
	// Сериализовать мутации календаря сотрудника до конца транзакции.
	// Вызывается первым в каждой мутирующей транзакции.
	LockEmployeeCalendar(ctx context.Context, tenantID, employeeID uuid.UUID) error
	// Создать бронь вместе со строками услуг.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить бронь тенанта по ID со всеми связями.
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Booking, error)
	// Список броней тенанта с фильтрами и пагинацией.
	List(ctx context.Context, tenantID uuid.UUID, f BookingFilter) ([]model.Booking, int64, error)
	// Найти бронь сотрудника, пересекающуюся с [start, end).
	// forUpdate=true блокирует строки-кандидаты до конца транзакции.
	FindConflict(ctx context.Context, tenantID, employeeID uuid.UUID, start, end time.Time, excludeID *uuid.UUID, forUpdate bool) (*uuid.UUID, error)
	// Брони сотрудника, начинающиеся в окне [dayStart, dayEnd).
	ListForEmployeeWindow(ctx context.Context, tenantID, employeeID uuid.UUID, dayStart, dayEnd time.Time, excludeID *uuid.UUID) ([]model.Booking, error)
	// Брони клиента, пересекающиеся с [start, end), со строками услуг.
	ListOverlappingForClient(ctx context.Context, tenantID, clientID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Booking, error)
	// Все брони клиента в периоде (для отчёта по дубликатам).
	ListForClientRange(ctx context.Context, tenantID, clientID uuid.UUID, from, to *time.Time) ([]model.Booking, error)
	// Частичное обновление полей брони.
	Update(ctx context.Context, tenantID, id uuid.UUID, fields map[string]any) error
	// Полная замена строк услуг брони (detach + reattach).
	ReplaceServiceLines(ctx context.Context, bookingID uuid.UUID, lines []model.BookingServiceLine) error
	// Отвязать все строки услуг.
	DetachServiceLines(ctx context.Context, bookingID uuid.UUID) error
	// Мягко удалить бронь.
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
	// Количество строк услуг у брони (включая удалённые брони).
	CountServiceLines(ctx context.Context, bookingID uuid.UUID) (int64, error)
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	return &GormBookingRepository{db: tx}
}

// LockEmployeeCalendar берёт транзакционную advisory-блокировку пары
// (тенант, сотрудник). FOR UPDATE на строках-кандидатах фантомную вставку
// не закрывает: пока пересекающихся броней нет, блокировать нечего, и два
// конкурентных создания обе проходят проверку. Advisory-блокировка
// сериализует мутации календаря сотрудника целиком; снимается на коммите.
// Вне Postgres метод ничего не делает: в sqlite писателей сериализует
// блокировка самой базы.
func (r *GormBookingRepository) LockEmployeeCalendar(ctx context.Context, tenantID, employeeID uuid.UUID) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	key := fmt.Sprintf("bookings:%s:%s", tenantID, employeeID)
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).
		Error
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	// ID назначаем в коде: default gen_random_uuid() есть только на Postgres.
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	for i := range booking.Services {
		if booking.Services[i].ID == uuid.Nil {
			booking.Services[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Client").
		Preload("Workplace").
		Preload("Status").
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("booking_services.sort_order ASC")
		}).
		Preload("Services.Service").
		Where("tenant_id = ?", tenantID).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	f BookingFilter,
) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("tenant_id = ?", tenantID)

	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.WorkplaceID != nil {
		q = q.Where("workplace_id = ?", *f.WorkplaceID)
	}
	if f.StatusID != nil {
		q = q.Where("status_id = ?", *f.StatusID)
	}
	if f.From != nil {
		q = q.Where("start_time >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("start_time <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var bookings []model.Booking
	err := q.
		Preload("Client").
		Preload("Status").
		Preload("Services").
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// FindConflict использует правило пересечения полуоткрытых интервалов:
// start_time < end AND end_time > start. Касание концами конфликтом не считается.
func (r *GormBookingRepository) FindConflict(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	start, end time.Time,
	excludeID *uuid.UUID,
	forUpdate bool,
) (*uuid.UUID, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("tenant_id = ?", tenantID).
		Where("employee_id = ?", employeeID).
		Where("start_time < ? AND end_time > ?", end, start)

	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	// sqlite не поддерживает FOR UPDATE; там писатели и так сериализуются
	// блокировкой базы, поэтому кляуза нужна только на Postgres.
	if forUpdate && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var conflict model.Booking
	err := q.Select("id").Order("start_time ASC").Take(&conflict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := conflict.ID
	return &id, nil
}

func (r *GormBookingRepository) ListForEmployeeWindow(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	dayStart, dayEnd time.Time,
	excludeID *uuid.UUID,
) ([]model.Booking, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("tenant_id = ?", tenantID).
		Where("employee_id = ?", employeeID).
		Where("start_time >= ? AND start_time < ?", dayStart, dayEnd)

	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var bookings []model.Booking
	if err := q.Order("start_time ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) ListOverlappingForClient(
	ctx context.Context,
	tenantID, clientID uuid.UUID,
	start, end time.Time,
	excludeID *uuid.UUID,
) ([]model.Booking, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("tenant_id = ?", tenantID).
		Where("client_id = ?", clientID).
		Where("start_time < ? AND end_time > ?", end, start)

	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var bookings []model.Booking
	err := q.
		Preload("Services").
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) ListForClientRange(
	ctx context.Context,
	tenantID, clientID uuid.UUID,
	from, to *time.Time,
) ([]model.Booking, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("tenant_id = ?", tenantID).
		Where("client_id = ?", clientID)

	if from != nil {
		q = q.Where("start_time >= ?", *from)
	}
	if to != nil {
		q = q.Where("end_time <= ?", *to)
	}

	var bookings []model.Booking
	err := q.
		Preload("Services").
		Preload("Client").
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) Update(
	ctx context.Context,
	tenantID, id uuid.UUID,
	fields map[string]any,
) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(fields).
		Error
}

func (r *GormBookingRepository) ReplaceServiceLines(
	ctx context.Context,
	bookingID uuid.UUID,
	lines []model.BookingServiceLine,
) error {
	if err := r.DetachServiceLines(ctx, bookingID); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].BookingID = bookingID
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *GormBookingRepository) DetachServiceLines(ctx context.Context, bookingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&model.BookingServiceLine{}).
		Error
}

func (r *GormBookingRepository) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&model.Booking{}, "id = ?", id).
		Error
}

func (r *GormBookingRepository) CountServiceLines(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.BookingServiceLine{}).
		Where("booking_id = ?", bookingID).
		Count(&n).Error
	return n, err
}
