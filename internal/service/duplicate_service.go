package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/SaintsFlow/booking-calendar/internal/bookingerr"
	"github.com/SaintsFlow/booking-calendar/internal/model"
	"github.com/SaintsFlow/booking-calendar/internal/pagination"
	"github.com/SaintsFlow/booking-calendar/internal/repository"
	"github.com/SaintsFlow/booking-calendar/internal/schedule"
)

// DuplicateService находит повторные брони клиента: тот же интервал времени
// и тот же набор услуг. Проверка совещательная и выполняется на уровне
// вызывающего слоя до жизненного цикла — гонка двух одинаковых запросов
// допустима и жёстким инвариантом не является.
type DuplicateService struct {
	bookings repository.BookingRepository
	log      *slog.Logger
}

func NewDuplicateService(bookings repository.BookingRepository, log *slog.Logger) *DuplicateService {
	return &DuplicateService{bookings: bookings, log: log}
}

// Detect возвращает первую бронь клиента, пересекающуюся с [start, end)
// и совпадающую по набору услуг (без учёта порядка). nil — дубликата нет.
// Сравнение наборов строгое: пустой набор совпадает только с пустым.
func (s *DuplicateService) Detect(
	ctx context.Context,
	tenantID, clientID uuid.UUID,
	start, end time.Time,
	serviceIDs []uuid.UUID,
	excludeBookingID *uuid.UUID,
) (*model.Booking, error) {
	candidates, err := s.bookings.ListOverlappingForClient(ctx, tenantID, clientID, start, end, excludeBookingID)
	if err != nil {
		return nil, err
	}

	want := sortedIDs(serviceIDs)
	for i := range candidates {
		if sameIDSet(want, sortedIDs(candidates[i].ServiceIDs())) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// Check — вариант Detect для вызывающего слоя, которому нужен отказ:
// при найденном дубликате возвращает *bookingerr.DuplicateError
// с идентификатором существующей брони.
func (s *DuplicateService) Check(
	ctx context.Context,
	tenantID, clientID uuid.UUID,
	start, end time.Time,
	serviceIDs []uuid.UUID,
	excludeBookingID *uuid.UUID,
) error {
	dup, err := s.Detect(ctx, tenantID, clientID, start, end, serviceIDs, excludeBookingID)
	if err != nil {
		return err
	}
	if dup != nil {
		return &bookingerr.DuplicateError{BookingID: dup.ID}
	}
	return nil
}

// DuplicatePair — пара пересекающихся броней с одинаковым набором услуг.
type DuplicatePair struct {
	First        model.Booking
	Second       model.Booking
	OverlapStart time.Time
	OverlapEnd   time.Time
}

// FindPotentialDuplicates строит отчёт по всем парам дубликатов клиента
// в периоде. Сравнение попарное, O(n²) — это отчётный путь, не горячий.
func (s *DuplicateService) FindPotentialDuplicates(
	ctx context.Context,
	tenantID, clientID uuid.UUID,
	from, to *time.Time,
	page, pageSize int,
) (pagination.Page[DuplicatePair], error) {
	bookings, err := s.bookings.ListForClientRange(ctx, tenantID, clientID, from, to)
	if err != nil {
		return pagination.Page[DuplicatePair]{}, err
	}

	var pairs []DuplicatePair
	for i := range bookings {
		a := schedule.TimeRange{Start: bookings[i].StartTime, End: bookings[i].EndTime}
		idsA := sortedIDs(bookings[i].ServiceIDs())

		for j := i + 1; j < len(bookings); j++ {
			b := schedule.TimeRange{Start: bookings[j].StartTime, End: bookings[j].EndTime}
			if !a.Overlaps(b) {
				continue
			}
			if !sameIDSet(idsA, sortedIDs(bookings[j].ServiceIDs())) {
				continue
			}
			pairs = append(pairs, DuplicatePair{
				First:        bookings[i],
				Second:       bookings[j],
				OverlapStart: laterOf(a.Start, b.Start),
				OverlapEnd:   earlierOf(a.End, b.End),
			})
		}
	}

	if len(pairs) > 0 {
		s.log.Info("potential duplicate bookings found",
			"tenant_id", tenantID,
			"client_id", clientID,
			"pairs", len(pairs),
		)
	}

	return pagination.Paginate(pairs, page, pageSize), nil
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

func sameIDSet(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
