// Package bookingerr содержит типизированные ошибки ядра бронирования.
// Каждая категория из договора ядра различима через errors.Is/errors.As,
// чтобы вызывающий слой мог показать конкретное сообщение и, для конфликтов
// и дубликатов, сослаться на мешающую бронь.
package bookingerr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — сотрудник/клиент/услуга/статус/бронь не найдены в тенанте.
	ErrNotFound = errors.New("booking: record not found")

	// ErrTimeOrdering — время окончания не позже времени начала.
	ErrTimeOrdering = errors.New("booking: end time must be after start time")

	// ErrSchedulingViolation — сотрудник не работает в этот день либо
	// интервал выходит за пределы рабочего окна.
	ErrSchedulingViolation = errors.New("booking: outside employee working hours")

	// ErrTimeConflict — интервал пересекается с существующей бронью сотрудника.
	ErrTimeConflict = errors.New("booking: time conflicts with existing booking")

	// ErrDuplicate — у клиента уже есть бронь на тот же интервал
	// с тем же набором услуг. Совещательная проверка, не жёсткий инвариант.
	ErrDuplicate = errors.New("booking: duplicate booking exists")

	// ErrRestoreExpired — отменённую бронь нельзя восстановить,
	// её время начала уже в прошлом.
	ErrRestoreExpired = errors.New("booking: cancelled booking can no longer be restored")

	// ErrTransaction — сбой хранилища; транзакция откатана целиком.
	ErrTransaction = errors.New("booking: storage transaction failed")
)

// ConflictError несёт идентификатор мешающей брони.
type ConflictError struct {
	BookingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking: time conflicts with existing booking %s", e.BookingID)
}

func (e *ConflictError) Unwrap() error { return ErrTimeConflict }

// DuplicateError несёт идентификатор найденного дубликата.
type DuplicateError struct {
	BookingID uuid.UUID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("booking: duplicate of existing booking %s", e.BookingID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// Transaction оборачивает ошибку хранилища, сохраняя исходную причину в цепочке.
func Transaction(err error) error {
	return fmt.Errorf("%w: %w", ErrTransaction, err)
}
