package schedule

import (
	"sort"
	"time"
)

// SlotStepMinutes — фиксированный шаг сетки слотов для подбора времени записи.
const SlotStepMinutes = 15

// GenerateSlots возвращает кандидатов на начало слота с шагом stepMin минут:
// от window.Start включительно до window.End не включительно.
func GenerateSlots(window TimeRange, stepMin int) []time.Time {
	if stepMin <= 0 || !window.End.After(window.Start) {
		return nil
	}

	step := time.Duration(stepMin) * time.Minute
	var starts []time.Time
	for cur := window.Start; cur.Before(window.End); cur = cur.Add(step) {
		starts = append(starts, cur)
	}
	return starts
}

// FilterAvailable оставляет только те начала слотов, для которых интервал
// [start, start+duration) целиком помещается до windowEnd и не пересекается
// ни с одним занятым интервалом.
func FilterAvailable(
	starts []time.Time,
	duration time.Duration,
	windowEnd time.Time,
	busy []TimeRange,
) []time.Time {
	available := make([]time.Time, 0, len(starts))

	for _, s := range starts {
		end := s.Add(duration)
		if end.After(windowEnd) {
			continue
		}
		candidate := TimeRange{Start: s, End: end}
		if ok, _ := OverlapsAny(candidate, busy); ok {
			continue
		}
		available = append(available, s)
	}

	return available
}

// FindFirstAvailableSlot ищет первое начало слота длительности duration
// в окне [workStart, workEnd) с учётом занятых интервалов.
// При попадании на занятый интервал курсор перепрыгивает сразу на его конец,
// без поминутного перебора. ok=false — подходящего окна нет.
func FindFirstAvailableSlot(
	workStart, workEnd time.Time,
	occupied []TimeRange,
	duration time.Duration,
) (time.Time, bool) {
	if duration <= 0 || !workEnd.After(workStart) {
		return time.Time{}, false
	}

	busy := make([]TimeRange, len(occupied))
	copy(busy, occupied)
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	cur := workStart
	for _, b := range busy {
		if cur.Add(duration).After(workEnd) {
			return time.Time{}, false
		}
		if !b.End.After(cur) {
			// Интервал целиком позади курсора.
			continue
		}
		if !cur.Add(duration).After(b.Start) {
			// Слот помещается до начала занятого интервала.
			return cur, true
		}
		cur = b.End
	}

	if !cur.Add(duration).After(workEnd) {
		return cur, true
	}
	return time.Time{}, false
}
