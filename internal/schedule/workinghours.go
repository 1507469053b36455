package schedule

import (
	"time"
)

// Ключи дней недели в JSON-графиках — строчные английские названия,
// как их хранит UI: "monday", "tuesday", ...
var weekdayKeys = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

// WeekdayKey возвращает JSON-ключ дня недели.
func WeekdayKey(d time.Weekday) string {
	return weekdayKeys[d]
}

// DayHours — настройка одного дня недели в недельном графике.
type DayHours struct {
	Start     TimeOfDay `json:"start"`
	End       TimeOfDay `json:"end"`
	IsWorking bool      `json:"is_working"`
}

// Weekly — недельный график: день недели -> часы работы.
// Принадлежит сотруднику или месту работы, хранится в JSON-колонке.
type Weekly map[string]DayHours

// DateOverride — особый график на конкретную дату,
// перекрывает недельный график сотрудника.
type DateOverride struct {
	Date      string    `json:"date"` // формат 2006-01-02
	Start     TimeOfDay `json:"start"`
	End       TimeOfDay `json:"end"`
	IsWorking bool      `json:"is_working"`
}

// WorkingHours — разрешённое рабочее окно сотрудника на одну дату.
// Вместо пары "is_working:false, но start/end заполнены" из исходной схемы
// используется явная пара (WorkingHours, ok): ok=false означает "не работает".
type WorkingHours struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Window привязывает рабочее окно к календарной дате.
func (w WorkingHours) Window(date time.Time) TimeRange {
	return TimeRange{Start: w.Start.On(date), End: w.End.On(date)}
}

// ResolveInput — всё, что нужно для чистого разрешения рабочих часов
// на одну пару (сотрудник, дата). Записи загружает вызывающий слой.
type ResolveInput struct {
	Date       time.Time
	OnVacation bool
	Overrides  []DateOverride // особые графики сотрудника по датам
	Personal   Weekly         // персональный недельный график сотрудника
	Workplace  Weekly         // график места работы (fallback)
}

const dateLayout = "2006-01-02"

// Resolve вычисляет эффективное рабочее окно. Порядок источников,
// первый совпавший выигрывает:
//  1. отпуск/больничный — не работает;
//  2. особый график на дату;
//  3. персональный недельный график;
//  4. недельный график места работы;
//  5. дефолт: будни 09:00–18:00, суббота и воскресенье — выходные.
func Resolve(in ResolveInput) (WorkingHours, bool) {
	if in.OnVacation {
		return WorkingHours{}, false
	}

	day := in.Date.Format(dateLayout)
	for _, o := range in.Overrides {
		if o.Date != day {
			continue
		}
		if !o.IsWorking {
			return WorkingHours{}, false
		}
		return WorkingHours{Start: o.Start, End: o.End}, true
	}

	key := WeekdayKey(in.Date.Weekday())

	if h, ok := in.Personal[key]; ok {
		if !h.IsWorking {
			return WorkingHours{}, false
		}
		return WorkingHours{Start: h.Start, End: h.End}, true
	}

	if h, ok := in.Workplace[key]; ok {
		if !h.IsWorking {
			return WorkingHours{}, false
		}
		return WorkingHours{Start: h.Start, End: h.End}, true
	}

	return DefaultHours(in.Date.Weekday())
}

// DefaultHours — график по умолчанию, если ничего не настроено.
func DefaultHours(d time.Weekday) (WorkingHours, bool) {
	if d == time.Saturday || d == time.Sunday {
		return WorkingHours{}, false
	}
	return WorkingHours{
		Start: TimeOfDay(9 * 60),
		End:   TimeOfDay(18 * 60),
	}, true
}
