package domain

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a booked service appointment
type Appointment struct {
	ID              int64
	ServiceTypeID   int64
	CustomerID      int64
	ScheduledStart  time.Time
	DurationMinutes int
	Status          AppointmentStatus
	Notes           *string

	// Данные типа услуги, подтягиваемые JOIN-ом для проверок пересечений и эксклюзивности
	ServiceName          string
	ServiceBufferMinutes int
	ServiceExclusiveDays []time.Weekday

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the appointment participates in conflict and quota checks
func (a *Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// IsTerminal returns true if no further status transitions are possible
func (a *Appointment) IsTerminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled
}

// CanTransitionTo returns true if the lifecycle allows moving to the given status
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[a.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TimeRange returns the unbuffered [start, end) range of the appointment
func (a *Appointment) TimeRange() timerange.Range {
	return timerange.New(a.ScheduledStart, a.DurationMinutes)
}

// End returns the end instant of the appointment
func (a *Appointment) End() time.Time {
	return a.TimeRange().End
}

// IsExclusiveDay returns true if the appointment's service type is exclusive on the appointment's weekday
func (a *Appointment) IsExclusiveDay() bool {
	return containsWeekday(a.ServiceExclusiveDays, a.ScheduledStart.UTC().Weekday())
}

// CollidesWith проверяет, нарушает ли кандидат обязательный зазор вокруг записи.
// Каждая сторона расширяется собственным буфером: буферная зона одной записи
// не должна пересекаться с временем другой.
func (a *Appointment) CollidesWith(candidate timerange.Range, candidateBufferMinutes int) bool {
	return Collides(a.TimeRange(), a.ServiceBufferMinutes, candidate, candidateBufferMinutes)
}

// Collides проверяет пересечение двух интервалов с учетом буфера каждого из них
func Collides(a timerange.Range, bufferA int, b timerange.Range, bufferB int) bool {
	return a.Buffered(bufferA).Overlaps(b) || a.Overlaps(b.Buffered(bufferB))
}

var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ParseAppointmentStatus конвертирует строку в статус записи
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	status := AppointmentStatus(s)
	switch status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return status, true
	default:
		return "", false
	}
}
