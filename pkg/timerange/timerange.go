// Package timerange содержит чистые функции над полуоткрытыми интервалами времени [start, end).
package timerange

import "time"

// Range полуоткрытый интервал времени [Start, End)
type Range struct {
	Start time.Time
	End   time.Time
}

// New создает интервал длительностью durationMinutes, начиная со start
func New(start time.Time, durationMinutes int) Range {
	return Range{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Overlaps возвращает true, если интервалы [startA, endA) и [startB, endB) пересекаются.
// Граничащие интервалы (endA == startB) НЕ пересекаются.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

// Buffer расширяет интервал на bufferMinutes в обе стороны
func Buffer(start, end time.Time, bufferMinutes int) (time.Time, time.Time) {
	buf := time.Duration(bufferMinutes) * time.Minute
	return start.Add(-buf), end.Add(buf)
}

// Overlaps проверяет пересечение с другим интервалом
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

// Buffered возвращает интервал, расширенный на bufferMinutes в обе стороны
func (r Range) Buffered(bufferMinutes int) Range {
	start, end := Buffer(r.Start, r.End, bufferMinutes)
	return Range{Start: start, End: end}
}

// Duration длительность интервала
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// CalendarDayBounds возвращает границы календарного дня (UTC), к которому относится t:
// [00:00:00.000Z, 00:00:00.000Z следующего дня)
func CalendarDayBounds(t time.Time) (time.Time, time.Time) {
	utc := t.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// SameDay проверяет, что оба момента относятся к одному календарному дню UTC
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.UTC().Date()
	y2, m2, d2 := b.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
