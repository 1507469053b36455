package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SaintsFlow/booking-calendar/internal/bookingerr"
	"github.com/SaintsFlow/booking-calendar/internal/cache"
	"github.com/SaintsFlow/booking-calendar/internal/model"
	"github.com/SaintsFlow/booking-calendar/internal/repository"
	"github.com/SaintsFlow/booking-calendar/internal/schedule"
)

// ScheduleService отвечает за рабочие часы, отсутствия и подбор свободных
// слотов. Выборки не меняют состояние: два вызова с одинаковыми аргументами
// без записей между ними дают одинаковый результат.
type ScheduleService struct {
	users      repository.UserRepository
	workplaces repository.WorkplaceRepository
	vacations  repository.VacationRepository
	bookings   repository.BookingRepository
	slots      *cache.SlotCache // опционален, nil отключает кеш
	log        *slog.Logger
}

func NewScheduleService(
	users repository.UserRepository,
	workplaces repository.WorkplaceRepository,
	vacations repository.VacationRepository,
	bookings repository.BookingRepository,
	slots *cache.SlotCache,
	log *slog.Logger,
) *ScheduleService {
	return &ScheduleService{
		users:      users,
		workplaces: workplaces,
		vacations:  vacations,
		bookings:   bookings,
		slots:      slots,
		log:        log,
	}
}

// ResolveWorkingHours вычисляет эффективное рабочее окно сотрудника на дату.
// ok=false — сотрудник в этот день не работает. Порядок источников —
// см. schedule.Resolve.
func (s *ScheduleService) ResolveWorkingHours(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	date time.Time,
	workplaceID *uuid.UUID,
) (schedule.WorkingHours, bool, error) {
	employee, err := s.users.GetByID(ctx, tenantID, employeeID)
	if err != nil {
		return schedule.WorkingHours{}, false, notFoundOr(err, "employee")
	}

	onVacation, err := s.vacations.CoversDate(ctx, tenantID, employeeID, date)
	if err != nil {
		return schedule.WorkingHours{}, false, err
	}

	var workplaceWeekly schedule.Weekly
	if workplaceID != nil {
		workplace, err := s.workplaces.GetByID(ctx, tenantID, *workplaceID)
		if err != nil {
			return schedule.WorkingHours{}, false, notFoundOr(err, "workplace")
		}
		workplaceWeekly = workplace.WorkingHours.Data()
	}

	wh, ok := schedule.Resolve(schedule.ResolveInput{
		Date:       date,
		OnVacation: onVacation,
		Overrides:  employee.CustomSchedules.Data(),
		Personal:   employee.WorkingHours.Data(),
		Workplace:  workplaceWeekly,
	})
	return wh, ok, nil
}

// GetAvailableHours — синоним ResolveWorkingHours для читающих клиентов.
func (s *ScheduleService) GetAvailableHours(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	date time.Time,
	workplaceID *uuid.UUID,
) (schedule.WorkingHours, bool, error) {
	return s.ResolveWorkingHours(ctx, tenantID, employeeID, date, workplaceID)
}

// GetAvailableTimeSlots возвращает начала свободных слотов сотрудника на дату
// по сетке 15 минут, по возрастанию. excludeBookingID исключает бронь из
// занятых интервалов (при редактировании).
func (s *ScheduleService) GetAvailableTimeSlots(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	date time.Time,
	durationMinutes int,
	excludeBookingID *uuid.UUID,
) ([]time.Time, error) {
	if durationMinutes <= 0 {
		durationMinutes = 60
	}

	// Кешируем только базовый запрос без исключений.
	cacheable := excludeBookingID == nil
	if cacheable {
		if slots, ok := s.slots.Get(ctx, tenantID, employeeID, date, durationMinutes); ok {
			return slots, nil
		}
	}

	wh, working, err := s.ResolveWorkingHours(ctx, tenantID, employeeID, date, nil)
	if err != nil {
		return nil, err
	}
	if !working {
		return []time.Time{}, nil
	}

	window := wh.Window(date)

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	existing, err := s.bookings.ListForEmployeeWindow(ctx, tenantID, employeeID, dayStart, dayEnd, excludeBookingID)
	if err != nil {
		return nil, err
	}

	busy := make([]schedule.TimeRange, 0, len(existing))
	for _, b := range existing {
		busy = append(busy, schedule.TimeRange{Start: b.StartTime, End: b.EndTime})
	}

	duration := time.Duration(durationMinutes) * time.Minute
	starts := schedule.GenerateSlots(window, schedule.SlotStepMinutes)
	available := schedule.FilterAvailable(starts, duration, window.End, busy)

	if cacheable {
		s.slots.Set(ctx, tenantID, employeeID, date, durationMinutes, available)
	}
	return available, nil
}

// FindFirstAvailableSlot ищет ближайшее свободное начало слота в окне.
// Чистая функция поверх schedule.FindFirstAvailableSlot.
func (s *ScheduleService) FindFirstAvailableSlot(
	workStart, workEnd time.Time,
	occupied []schedule.TimeRange,
	durationMinutes int,
) (time.Time, bool) {
	return schedule.FindFirstAvailableSlot(
		workStart,
		workEnd,
		occupied,
		time.Duration(durationMinutes)*time.Minute,
	)
}

// SetEmployeeSchedule сохраняет персональный недельный график сотрудника
// и особые графики по датам, затем сбрасывает кеш его слотов.
func (s *ScheduleService) SetEmployeeSchedule(
	ctx context.Context,
	tenantID, employeeID uuid.UUID,
	weekly schedule.Weekly,
	overrides []schedule.DateOverride,
) error {
	employee, err := s.users.GetByID(ctx, tenantID, employeeID)
	if err != nil {
		return notFoundOr(err, "employee")
	}

	for _, o := range overrides {
		if _, err := time.Parse("2006-01-02", o.Date); err != nil {
			return fmt.Errorf("custom schedule date %q: %w", o.Date, err)
		}
	}

	employee.WorkingHours = datatypes.NewJSONType(weekly)
	employee.CustomSchedules = datatypes.NewJSONType(overrides)
	if err := s.users.UpdateSchedule(ctx, employee); err != nil {
		return err
	}

	s.slots.InvalidateEmployee(ctx, tenantID, employeeID)
	s.log.Info("employee schedule updated",
		"tenant_id", tenantID,
		"employee_id", employeeID,
	)
	return nil
}

// AddVacation регистрирует отсутствие сотрудника. Обе границы включительно.
func (s *ScheduleService) AddVacation(ctx context.Context, v *model.EmployeeVacation) error {
	if _, err := s.users.GetByID(ctx, v.TenantID, v.EmployeeID); err != nil {
		return notFoundOr(err, "employee")
	}
	if time.Time(v.EndDate).Before(time.Time(v.StartDate)) {
		return bookingerr.ErrTimeOrdering
	}
	if v.Type == "" {
		v.Type = model.VacationTypeVacation
	}
	if err := s.vacations.Create(ctx, v); err != nil {
		return err
	}
	s.slots.InvalidateEmployee(ctx, v.TenantID, v.EmployeeID)
	return nil
}

// RemoveVacation удаляет отсутствие.
func (s *ScheduleService) RemoveVacation(ctx context.Context, tenantID, employeeID, id uuid.UUID) error {
	if err := s.vacations.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.slots.InvalidateEmployee(ctx, tenantID, employeeID)
	return nil
}

// ListVacations возвращает отсутствия сотрудника по возрастанию даты начала.
func (s *ScheduleService) ListVacations(ctx context.Context, tenantID, employeeID uuid.UUID) ([]model.EmployeeVacation, error) {
	return s.vacations.ListForEmployee(ctx, tenantID, employeeID)
}

// notFoundOr переводит gorm.ErrRecordNotFound в типизированную ошибку ядра.
func notFoundOr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, bookingerr.ErrNotFound)
	}
	return err
}
