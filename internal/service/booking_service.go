package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/bookingerr"
	"github.com/SaintsFlow/booking-calendar/internal/cache"
	"github.com/SaintsFlow/booking-calendar/internal/event"
	"github.com/SaintsFlow/booking-calendar/internal/model"
	"github.com/SaintsFlow/booking-calendar/internal/repository"
)

// ServiceSelection — услуга в составе брони с желаемой позицией.
type ServiceSelection struct {
	ServiceID uuid.UUID
	SortOrder int
}

// CreateBookingInput — кандидат брони. Полевую валидацию (обязательность,
// форматы) выполняет вызывающий слой; ядро проверяет только график,
// порядок времени, конфликты и транзакционные инварианты.
type CreateBookingInput struct {
	TenantID    uuid.UUID
	WorkplaceID *uuid.UUID
	EmployeeID  uuid.UUID
	ClientID    uuid.UUID
	StatusID    *uuid.UUID // nil — статус тенанта по умолчанию
	CreatedBy   uuid.UUID
	StartTime   time.Time
	EndTime     time.Time
	Comment     string
	Services    []ServiceSelection
}

// UpdateBookingInput — частичное изменение брони: nil-поле не трогается.
// Services=nil — набор услуг не меняется; иначе полная замена набора.
type UpdateBookingInput struct {
	WorkplaceID *uuid.UUID
	EmployeeID  *uuid.UUID
	ClientID    *uuid.UUID
	StatusID    *uuid.UUID
	StartTime   *time.Time
	EndTime     *time.Time
	Comment     *string
	UpdatedBy   uuid.UUID
	Services    *[]ServiceSelection
}

// BookingService — транзакционное ядро жизненного цикла брони.
// Каждая мутация календаря сотрудника начинается с advisory-блокировки
// пары (тенант, сотрудник), так что проверка конфликтов и запись идут в
// одной сериализованной транзакции: два параллельных запроса не могут
// оба увидеть «нет конфликта» и вставить пересекающиеся брони.
type BookingService struct {
	db       *gorm.DB
	bookings repository.BookingRepository
	users    repository.UserRepository
	clients  repository.ClientRepository
	services repository.ServiceRepository
	statuses repository.StatusRepository
	schedule *ScheduleService
	sink     event.Sink
	slots    *cache.SlotCache
	log      *slog.Logger
}

func NewBookingService(
	db *gorm.DB,
	bookings repository.BookingRepository,
	users repository.UserRepository,
	clients repository.ClientRepository,
	services repository.ServiceRepository,
	statuses repository.StatusRepository,
	scheduleSvc *ScheduleService,
	sink event.Sink,
	slots *cache.SlotCache,
	log *slog.Logger,
) *BookingService {
	return &BookingService{
		db:       db,
		bookings: bookings,
		users:    users,
		clients:  clients,
		services: services,
		statuses: statuses,
		schedule: scheduleSvc,
		sink:     sink,
		slots:    slots,
		log:      log,
	}
}

// Create валидирует кандидата и атомарно записывает бронь со строками услуг.
// Событие BookingCreated публикуется только после коммита; сбой доставки
// уже закоммиченную бронь не откатывает.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	if _, err := s.users.GetByID(ctx, in.TenantID, in.EmployeeID); err != nil {
		return nil, notFoundOr(err, "employee")
	}
	if _, err := s.clients.GetByID(ctx, in.TenantID, in.ClientID); err != nil {
		return nil, notFoundOr(err, "client")
	}

	if err := s.validateBookingTime(ctx, in.TenantID, in.EmployeeID, in.WorkplaceID, in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	statusID, err := s.resolveStatusID(ctx, in.TenantID, in.StatusID)
	if err != nil {
		return nil, err
	}

	// Длительность и сумма всегда равны сумме по строкам услуг;
	// бронь без услуг остаётся с нулями.
	lines, duration, total, err := s.buildServiceLines(ctx, in.TenantID, in.Services)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		TenantID:        in.TenantID,
		WorkplaceID:     in.WorkplaceID,
		EmployeeID:      in.EmployeeID,
		ClientID:        in.ClientID,
		StatusID:        statusID,
		CreatedBy:       in.CreatedBy,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationMinutes: duration,
		TotalPrice:      total,
		Comment:         in.Comment,
		Services:        lines,
	}

	// Транзакция открывается до проверки конфликта и держится до вставки.
	// Календарь сотрудника блокируется первым делом: без этого две
	// конкурентные транзакции не видят вставок друг друга и обе проходят
	// проверку на пустом наборе пересечений.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bookings.WithTx(tx)
		if err := txRepo.LockEmployeeCalendar(ctx, in.TenantID, in.EmployeeID); err != nil {
			return err
		}

		conflictID, err := txRepo.FindConflict(ctx, in.TenantID, in.EmployeeID, in.StartTime, in.EndTime, nil, true)
		if err != nil {
			return err
		}
		if conflictID != nil {
			return &bookingerr.ConflictError{BookingID: *conflictID}
		}

		return txRepo.Create(ctx, booking)
	})
	if err != nil {
		return nil, wrapTxError(err)
	}

	hydrated, err := s.bookings.GetByID(ctx, in.TenantID, booking.ID)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}

	s.sink.Dispatch(event.BookingCreated(hydrated))
	s.slots.InvalidateDay(ctx, in.TenantID, in.EmployeeID, in.StartTime)

	s.log.Info("booking created",
		"tenant_id", in.TenantID,
		"booking_id", hydrated.ID,
		"employee_id", in.EmployeeID,
	)
	return hydrated, nil
}

// Update применяет частичное изменение. График и конфликты перепроверяются
// только если меняются время или сотрудник; своя бронь из проверки исключается.
func (s *BookingService) Update(
	ctx context.Context,
	tenantID, bookingID uuid.UUID,
	in UpdateBookingInput,
) (*model.Booking, error) {
	existing, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}

	employeeID := existing.EmployeeID
	if in.EmployeeID != nil {
		employeeID = *in.EmployeeID
		if _, err := s.users.GetByID(ctx, tenantID, employeeID); err != nil {
			return nil, notFoundOr(err, "employee")
		}
	}
	startTime := existing.StartTime
	if in.StartTime != nil {
		startTime = *in.StartTime
	}
	endTime := existing.EndTime
	if in.EndTime != nil {
		endTime = *in.EndTime
	}
	workplaceID := existing.WorkplaceID
	if in.WorkplaceID != nil {
		workplaceID = in.WorkplaceID
	}

	timeChanged := in.StartTime != nil || in.EndTime != nil || in.EmployeeID != nil
	if timeChanged {
		if err := s.validateBookingTime(ctx, tenantID, employeeID, workplaceID, startTime, endTime); err != nil {
			return nil, err
		}
	}

	if in.ClientID != nil {
		if _, err := s.clients.GetByID(ctx, tenantID, *in.ClientID); err != nil {
			return nil, notFoundOr(err, "client")
		}
	}

	if in.StatusID != nil {
		newStatus, err := s.statuses.GetByID(ctx, tenantID, *in.StatusID)
		if err != nil {
			return nil, notFoundOr(err, "status")
		}
		// Восстановление отменённой брони возможно только до её начала.
		if existing.IsCancelled() && !model.IsCancelledCode(newStatus.Code) &&
			!existing.StartTime.After(time.Now()) {
			return nil, bookingerr.ErrRestoreExpired
		}
	}

	fields := map[string]any{
		"updated_by": in.UpdatedBy,
	}
	if in.WorkplaceID != nil {
		fields["workplace_id"] = *in.WorkplaceID
	}
	if in.EmployeeID != nil {
		fields["employee_id"] = *in.EmployeeID
	}
	if in.ClientID != nil {
		fields["client_id"] = *in.ClientID
	}
	if in.StatusID != nil {
		fields["status_id"] = *in.StatusID
	}
	if in.StartTime != nil {
		fields["start_time"] = *in.StartTime
	}
	if in.EndTime != nil {
		fields["end_time"] = *in.EndTime
	}
	if in.Comment != nil {
		fields["comment"] = *in.Comment
	}

	var lines []model.BookingServiceLine
	if in.Services != nil {
		var duration int
		var total float64
		lines, duration, total, err = s.buildServiceLines(ctx, tenantID, *in.Services)
		if err != nil {
			return nil, err
		}
		fields["duration_minutes"] = duration
		fields["total_price"] = total
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bookings.WithTx(tx)

		if timeChanged {
			if err := txRepo.LockEmployeeCalendar(ctx, tenantID, employeeID); err != nil {
				return err
			}
			conflictID, err := txRepo.FindConflict(ctx, tenantID, employeeID, startTime, endTime, &bookingID, true)
			if err != nil {
				return err
			}
			if conflictID != nil {
				return &bookingerr.ConflictError{BookingID: *conflictID}
			}
		}

		if err := txRepo.Update(ctx, tenantID, bookingID, fields); err != nil {
			return err
		}
		if in.Services != nil {
			// Полная замена набора: detach + reattach в той же транзакции.
			return txRepo.ReplaceServiceLines(ctx, bookingID, lines)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err)
	}

	hydrated, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}

	s.sink.Dispatch(event.BookingUpdated(hydrated))
	s.slots.InvalidateDay(ctx, tenantID, existing.EmployeeID, existing.StartTime)
	s.slots.InvalidateDay(ctx, tenantID, hydrated.EmployeeID, hydrated.StartTime)

	return hydrated, nil
}

// Delete отвязывает строки услуг и мягко удаляет бронь в одной транзакции.
// Событие несёт плоский снапшот: строка после удаления через обычные
// выборки уже не загружается.
func (s *BookingService) Delete(ctx context.Context, tenantID, bookingID uuid.UUID) error {
	existing, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return notFoundOr(err, "booking")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bookings.WithTx(tx)
		if err := txRepo.DetachServiceLines(ctx, bookingID); err != nil {
			return err
		}
		return txRepo.SoftDelete(ctx, tenantID, bookingID)
	})
	if err != nil {
		return wrapTxError(err)
	}

	s.sink.Dispatch(event.BookingDeleted(existing))
	s.slots.InvalidateDay(ctx, tenantID, existing.EmployeeID, existing.StartTime)

	s.log.Info("booking deleted",
		"tenant_id", tenantID,
		"booking_id", bookingID,
	)
	return nil
}

// Restore возвращает отменённую бронь в активный статус.
// Отклоняется, если время начала уже прошло.
func (s *BookingService) Restore(
	ctx context.Context,
	tenantID, bookingID, statusID uuid.UUID,
	by uuid.UUID,
) (*model.Booking, error) {
	existing, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}
	if !existing.IsCancelled() {
		return nil, fmt.Errorf("booking is not cancelled: %w", bookingerr.ErrRestoreExpired)
	}
	if !existing.CanBeRestored(time.Now()) {
		return nil, bookingerr.ErrRestoreExpired
	}

	return s.Update(ctx, tenantID, bookingID, UpdateBookingInput{
		StatusID:  &statusID,
		UpdatedBy: by,
	})
}

// MarkAttendance фиксирует факт посещения: флаг, время отметки и кто отметил.
func (s *BookingService) MarkAttendance(
	ctx context.Context,
	tenantID, bookingID uuid.UUID,
	attended bool,
	by uuid.UUID,
) (*model.Booking, error) {
	if _, err := s.bookings.GetByID(ctx, tenantID, bookingID); err != nil {
		return nil, notFoundOr(err, "booking")
	}

	now := time.Now().UTC()
	err := s.bookings.Update(ctx, tenantID, bookingID, map[string]any{
		"client_attended": attended,
		"attended_at":     now,
		"attended_by":     by,
	})
	if err != nil {
		return nil, bookingerr.Transaction(err)
	}

	hydrated, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}
	s.sink.Dispatch(event.BookingUpdated(hydrated))
	return hydrated, nil
}

// Get возвращает бронь тенанта со всеми связями.
func (s *BookingService) Get(ctx context.Context, tenantID, bookingID uuid.UUID) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}
	return b, nil
}

// List возвращает брони тенанта по фильтрам.
func (s *BookingService) List(
	ctx context.Context,
	tenantID uuid.UUID,
	f repository.BookingFilter,
) ([]model.Booking, int64, error) {
	return s.bookings.List(ctx, tenantID, f)
}

// CalculateMetrics считает суммарную длительность и стоимость по текущим
// значениям услуг — для предварительного расчёта на стороне вызывающего.
func (s *BookingService) CalculateMetrics(
	ctx context.Context,
	tenantID uuid.UUID,
	serviceIDs []uuid.UUID,
) (durationMinutes int, totalPrice float64, err error) {
	records, err := s.services.ListByIDs(ctx, tenantID, serviceIDs)
	if err != nil {
		return 0, 0, err
	}
	for _, r := range records {
		durationMinutes += r.DurationMinutes
		totalPrice += r.Price
	}
	return durationMinutes, totalPrice, nil
}

// validateBookingTime — проверки кандидата против графика:
// сотрудник работает в этот день, конец позже начала, интервал в рабочем окне.
func (s *BookingService) validateBookingTime(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	workplaceID *uuid.UUID,
	start, end time.Time,
) error {
	wh, working, err := s.schedule.ResolveWorkingHours(ctx, tenantID, employeeID, start, workplaceID)
	if err != nil {
		return err
	}
	if !working {
		return fmt.Errorf("employee not working on %s: %w",
			start.Format("2006-01-02"), bookingerr.ErrSchedulingViolation)
	}

	if !end.After(start) {
		return bookingerr.ErrTimeOrdering
	}

	window := wh.Window(start)
	if start.Before(window.Start) || end.After(window.End) {
		return fmt.Errorf("booking must be within working hours %s-%s: %w",
			wh.Start, wh.End, bookingerr.ErrSchedulingViolation)
	}
	return nil
}

func (s *BookingService) resolveStatusID(
	ctx context.Context,
	tenantID uuid.UUID,
	statusID *uuid.UUID,
) (uuid.UUID, error) {
	if statusID != nil {
		status, err := s.statuses.GetByID(ctx, tenantID, *statusID)
		if err != nil {
			return uuid.Nil, notFoundOr(err, "status")
		}
		return status.ID, nil
	}
	status, err := s.statuses.DefaultForTenant(ctx, tenantID)
	if err != nil {
		return uuid.Nil, notFoundOr(err, "default status")
	}
	return status.ID, nil
}

// buildServiceLines строит строки-снапшоты по текущим значениям услуг.
func (s *BookingService) buildServiceLines(
	ctx context.Context,
	tenantID uuid.UUID,
	selections []ServiceSelection,
) (lines []model.BookingServiceLine, durationMinutes int, totalPrice float64, err error) {
	if len(selections) == 0 {
		return nil, 0, 0, nil
	}

	ids := make([]uuid.UUID, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.ServiceID)
	}

	records, err := s.services.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, 0, 0, err
	}
	byID := make(map[uuid.UUID]model.Service, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	lines = make([]model.BookingServiceLine, 0, len(selections))
	for i, sel := range selections {
		record, ok := byID[sel.ServiceID]
		if !ok {
			return nil, 0, 0, fmt.Errorf("service %s: %w", sel.ServiceID, bookingerr.ErrNotFound)
		}
		sortOrder := sel.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		lines = append(lines, model.BookingServiceLine{
			ServiceID:       record.ID,
			DurationMinutes: record.DurationMinutes,
			Price:           record.Price,
			SortOrder:       sortOrder,
		})
		durationMinutes += record.DurationMinutes
		totalPrice += record.Price
	}
	return lines, durationMinutes, totalPrice, nil
}

// wrapTxError: типизированные ошибки ядра проходят как есть,
// всё остальное — сбой хранилища с полным откатом.
func wrapTxError(err error) error {
	if err == nil {
		return nil
	}
	var conflict *bookingerr.ConflictError
	if errors.As(err, &conflict) {
		return err
	}
	if errors.Is(err, bookingerr.ErrNotFound) {
		return err
	}
	return bookingerr.Transaction(err)
}
