package domain

import (
	"fmt"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/pkg/types"
)

// ServiceType represents a bookable service type and its scheduling rules
type ServiceType struct {
	ID                int64
	Name              string
	DurationMinutes   int // длительность по умолчанию, если в запросе не указана
	BufferMinutes     int // обязательный зазор до и после каждой записи этого типа
	AllowedDays       []time.Weekday
	ExclusiveDays     []time.Weekday // в эти дни запись этого типа должна быть единственной за день
	MaxBookingsPerDay int
	MinAdvanceHours   int
	MaxAdvanceDays    int // 0 = unlimited
	RequiresApproval  bool
	IsActive          bool

	// Часы работы для услуги (nil = часы работы по умолчанию из конфигурации)
	OpenTime  *types.TimeString
	CloseTime *types.TimeString

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAllowedOn returns true if booking is permitted on the given weekday
func (s *ServiceType) IsAllowedOn(day time.Weekday) bool {
	return containsWeekday(s.AllowedDays, day)
}

// IsExclusiveOn returns true if the service type must be the only appointment on the given weekday
func (s *ServiceType) IsExclusiveOn(day time.Weekday) bool {
	return containsWeekday(s.ExclusiveDays, day)
}

// EffectiveDuration returns the requested duration or the service default when none is given
func (s *ServiceType) EffectiveDuration(requestedMinutes int) int {
	if requestedMinutes > 0 {
		return requestedMinutes
	}
	if s.DurationMinutes > 0 {
		return s.DurationMinutes
	}
	return DefaultDurationMinutes
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (s *ServiceType) HasAdvanceBookingLimit() bool {
	return s.MaxAdvanceDays > 0
}

// AdvanceWindowViolation возвращает сообщение о нарушении окна предварительной записи
// или пустую строку, если start допустим относительно now
func (s *ServiceType) AdvanceWindowViolation(start, now time.Time) string {
	lead := start.Sub(now)

	if lead < time.Duration(s.MinAdvanceHours)*time.Hour {
		if s.MinAdvanceHours == 0 {
			return "Booking time cannot be in the past"
		}
		return fmt.Sprintf("Booking must be made at least %d hours in advance", s.MinAdvanceHours)
	}

	if s.HasAdvanceBookingLimit() && lead > time.Duration(s.MaxAdvanceDays)*24*time.Hour {
		return fmt.Sprintf("Booking cannot be more than %d days in advance", s.MaxAdvanceDays)
	}

	return ""
}

// OperatingHours возвращает часы работы услуги с учетом значений по умолчанию
func (s *ServiceType) OperatingHours(defaultOpen, defaultClose types.TimeString) (types.TimeString, types.TimeString) {
	open, closeAt := defaultOpen, defaultClose
	if s.OpenTime != nil && !s.OpenTime.IsZero() {
		open = *s.OpenTime
	}
	if s.CloseTime != nil && !s.CloseTime.IsZero() {
		closeAt = *s.CloseTime
	}
	return open, closeAt
}

func containsWeekday(days []time.Weekday, day time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
