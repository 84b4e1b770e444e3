package scheduling

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
)

// SlotCalculator вычисляет свободные времена начала записи на день
type SlotCalculator struct {
	appointments AppointmentRepository
	timeProvider TimeProvider
	config       Config
}

// NewSlotCalculator создает калькулятор слотов
func NewSlotCalculator(appointments AppointmentRepository, timeProvider TimeProvider, config Config) *SlotCalculator {
	return &SlotCalculator{
		appointments: appointments,
		timeProvider: timeProvider,
		config:       config,
	}
}

// Slots возвращает ленивую конечную последовательность свободных времен начала на день date.
// Записи дня читаются один раз при вызове; последовательность можно обходить повторно.
// serviceType == nil означает "любая услуга": часы работы по умолчанию, без буфера,
// все дни недели, отсекаются только времена в прошлом.
func (c *SlotCalculator) Slots(
	ctx context.Context,
	date time.Time,
	serviceType *domain.ServiceType,
	durationMinutes int,
	excludeID *int64,
) (iter.Seq[time.Time], error) {
	if serviceType != nil && !serviceType.IsAllowedOn(date.UTC().Weekday()) {
		return emptySeq, nil
	}

	hours, ok := c.operatingHours(date, serviceType)
	if !ok {
		return emptySeq, nil
	}

	duration := effectiveDuration(serviceType, durationMinutes)
	step := c.config.SlotStepMinutes
	if step <= 0 {
		step = duration
	}

	existing, err := c.dayAppointments(ctx, date, excludeID)
	if err != nil {
		return nil, err
	}

	now := c.timeProvider.Now()
	stepDuration := time.Duration(step) * time.Minute

	return func(yield func(time.Time) bool) {
		for start := hours.Start; ; start = start.Add(stepDuration) {
			candidate := timerange.New(start, duration)
			if candidate.End.After(hours.End) {
				return
			}
			if !withinAdvanceWindow(serviceType, start, now) {
				continue
			}
			if collidesWithAny(candidate, bufferOf(serviceType), existing) {
				continue
			}
			if !yield(start) {
				return
			}
		}
	}, nil
}

// IsSlotAvailable проверяет время без учета буферов: интервал внутри часов работы
// и не пересекается ни с одной активной записью
func (c *SlotCalculator) IsSlotAvailable(
	ctx context.Context,
	serviceType *domain.ServiceType,
	start time.Time,
	durationMinutes int,
	excludeID *int64,
) (bool, error) {
	candidate := timerange.New(start, effectiveDuration(serviceType, durationMinutes))

	hours, ok := c.operatingHours(start, serviceType)
	if !ok || !insideHours(candidate, hours) {
		return false, nil
	}

	overlapping, err := c.appointments.FindActiveInRange(ctx, candidate.Start, candidate.End, excludeID)
	if err != nil {
		return false, fmt.Errorf("%w: find overlapping appointments: %w", ErrCheckFailed, err)
	}

	return len(overlapping) == 0, nil
}

// IsBookable проверяет конкретное время начала по тем же правилам, что и Slots,
// без привязки к сетке шагов
func (c *SlotCalculator) IsBookable(
	ctx context.Context,
	serviceType *domain.ServiceType,
	start time.Time,
	durationMinutes int,
	excludeID *int64,
) (bool, error) {
	candidate, ok := c.eligible(serviceType, start, durationMinutes)
	if !ok {
		return false, nil
	}

	existing, err := c.dayAppointments(ctx, start, excludeID)
	if err != nil {
		return false, err
	}

	return !collidesWithAny(candidate, bufferOf(serviceType), existing), nil
}

// eligible проверяет день недели, окно предварительной записи и часы работы без обращения к хранилищу
func (c *SlotCalculator) eligible(serviceType *domain.ServiceType, start time.Time, durationMinutes int) (timerange.Range, bool) {
	if serviceType != nil && !serviceType.IsAllowedOn(start.UTC().Weekday()) {
		return timerange.Range{}, false
	}
	if !withinAdvanceWindow(serviceType, start, c.timeProvider.Now()) {
		return timerange.Range{}, false
	}

	candidate := timerange.New(start, effectiveDuration(serviceType, durationMinutes))
	hours, ok := c.operatingHours(start, serviceType)
	if !ok || !insideHours(candidate, hours) {
		return timerange.Range{}, false
	}
	return candidate, true
}

// OpeningTime возвращает время открытия в день date
func (c *SlotCalculator) OpeningTime(date time.Time, serviceType *domain.ServiceType) time.Time {
	hours, ok := c.operatingHours(date, serviceType)
	if !ok {
		dayStart, _ := timerange.CalendarDayBounds(date)
		return dayStart
	}
	return hours.Start
}

func (c *SlotCalculator) operatingHours(date time.Time, serviceType *domain.ServiceType) (timerange.Range, bool) {
	open, closeAt := c.config.BusinessOpen, c.config.BusinessClose
	if serviceType != nil {
		open, closeAt = serviceType.OperatingHours(open, closeAt)
	}
	if !open.IsBefore(closeAt) {
		return timerange.Range{}, false
	}
	return timerange.Range{Start: open.On(date), End: closeAt.On(date)}, true
}

func (c *SlotCalculator) dayAppointments(ctx context.Context, date time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	dayStart, dayEnd := timerange.CalendarDayBounds(date)
	existing, err := c.appointments.FindActiveInRange(ctx, dayStart, dayEnd, excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: find appointments for %s: %w", ErrCheckFailed, dayStart.Format(domain.DateFormat), err)
	}
	return existing, nil
}

// Collect возвращает первые limit элементов последовательности
func Collect(seq iter.Seq[time.Time], limit int) []time.Time {
	result := make([]time.Time, 0, limit)
	if limit <= 0 {
		return result
	}
	for t := range seq {
		result = append(result, t)
		if len(result) == limit {
			break
		}
	}
	return result
}

func emptySeq(func(time.Time) bool) {}

func insideHours(candidate, hours timerange.Range) bool {
	return !candidate.Start.Before(hours.Start) && !candidate.End.After(hours.End)
}

func withinAdvanceWindow(serviceType *domain.ServiceType, start, now time.Time) bool {
	if serviceType == nil {
		return !start.Before(now)
	}
	return serviceType.AdvanceWindowViolation(start, now) == ""
}

func collidesWithAny(candidate timerange.Range, buffer int, existing []*domain.Appointment) bool {
	for _, a := range existing {
		if a.CollidesWith(candidate, buffer) {
			return true
		}
	}
	return false
}

func bufferOf(serviceType *domain.ServiceType) int {
	if serviceType == nil {
		return 0
	}
	return serviceType.BufferMinutes
}

func effectiveDuration(serviceType *domain.ServiceType, durationMinutes int) int {
	if serviceType != nil {
		return serviceType.EffectiveDuration(durationMinutes)
	}
	if durationMinutes > 0 {
		return durationMinutes
	}
	return domain.DefaultDurationMinutes
}
