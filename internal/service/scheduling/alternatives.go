package scheduling

import (
	"context"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/rules"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
)

const (
	alternativeDatesHorizonDays = 7
	exclusiveDatesHorizonDays   = 14

	maxAlternativeDates     = 3
	maxAlternativeTimeSlots = 5
	maxNonConflictingSlots  = 3
	maxExclusiveDates       = 3
)

// Suggester ищет альтернативы для отклоненной записи.
// Поиск всегда best-effort: при ошибке хранилища возвращается пустой список.
type Suggester struct {
	appointments AppointmentRepository
	slots        *SlotCalculator
	logger       Logger
}

// NewSuggester создает движок альтернатив
func NewSuggester(appointments AppointmentRepository, slots *SlotCalculator, logger Logger) *Suggester {
	return &Suggester{
		appointments: appointments,
		slots:        slots,
		logger:       logger,
	}
}

// FindAlternativeDates ищет ближайшие дни (+1..+7) с тем же временем начала:
// разрешенный день недели, окно предварительной записи, свободное время, эксклюзивность дня
// и квота не исчерпана
func (s *Suggester) FindAlternativeDates(
	ctx context.Context,
	serviceType *domain.ServiceType,
	date time.Time,
	durationMinutes int,
	excludeID *int64,
) []time.Time {
	result := make([]time.Time, 0, maxAlternativeDates)

	for offset := 1; offset <= alternativeDatesHorizonDays && len(result) < maxAlternativeDates; offset++ {
		candidate := date.AddDate(0, 0, offset)

		bookable, err := s.bookableDate(ctx, serviceType, candidate, durationMinutes, excludeID)
		if err != nil {
			s.logger.Warn("FindAlternativeDates: service_type=%d: %v", serviceType.ID, err)
			return []time.Time{}
		}
		if !bookable {
			continue
		}

		count, err := s.appointments.CountActive(ctx, serviceType.ID, candidate, excludeID)
		if err != nil {
			s.logger.Warn("FindAlternativeDates: count active for service_type=%d: %v", serviceType.ID, err)
			return []time.Time{}
		}
		if count >= serviceType.MaxBookingsPerDay {
			continue
		}

		result = append(result, candidate)
	}

	return result
}

// FindAlternativeTimeSlots возвращает первые свободные слоты того же дня
func (s *Suggester) FindAlternativeTimeSlots(
	ctx context.Context,
	serviceType *domain.ServiceType,
	date time.Time,
	durationMinutes int,
	excludeID *int64,
) []time.Time {
	seq, err := s.slots.Slots(ctx, date, serviceType, durationMinutes, excludeID)
	if err != nil {
		s.logger.Warn("FindAlternativeTimeSlots: service_type=%d: %v", serviceType.ID, err)
		return []time.Time{}
	}
	return Collect(seq, maxAlternativeTimeSlots)
}

// FindNonConflictingTimeSlots возвращает слоты дня, не пересекающиеся с colliding с учетом буферов
func (s *Suggester) FindNonConflictingTimeSlots(
	ctx context.Context,
	serviceType *domain.ServiceType,
	date time.Time,
	durationMinutes int,
	colliding []*domain.Appointment,
	excludeID *int64,
) []time.Time {
	seq, err := s.slots.Slots(ctx, date, serviceType, durationMinutes, excludeID)
	if err != nil {
		s.logger.Warn("FindNonConflictingTimeSlots: service_type=%d: %v", serviceType.ID, err)
		return []time.Time{}
	}

	duration := serviceType.EffectiveDuration(durationMinutes)
	result := make([]time.Time, 0, maxNonConflictingSlots)
	for start := range seq {
		if collidesWithAny(timerange.New(start, duration), serviceType.BufferMinutes, colliding) {
			continue
		}
		result = append(result, start)
		if len(result) == maxNonConflictingSlots {
			break
		}
	}
	return result
}

// FindExclusiveDates ищет ближайшие дни (+1..+14), эксклюзивные для типа услуги и без активных записей
func (s *Suggester) FindExclusiveDates(
	ctx context.Context,
	serviceType *domain.ServiceType,
	date time.Time,
	durationMinutes int,
	excludeID *int64,
) []time.Time {
	result := make([]time.Time, 0, maxExclusiveDates)

	for offset := 1; offset <= exclusiveDatesHorizonDays && len(result) < maxExclusiveDates; offset++ {
		candidate := date.AddDate(0, 0, offset)
		if !serviceType.IsExclusiveOn(candidate.UTC().Weekday()) {
			continue
		}

		// Тип услуги эксклюзивен в этот день, поэтому любая запись дня делает его непригодным
		bookable, err := s.bookableDate(ctx, serviceType, candidate, durationMinutes, excludeID)
		if err != nil {
			s.logger.Warn("FindExclusiveDates: service_type=%d: %v", serviceType.ID, err)
			return []time.Time{}
		}
		if !bookable {
			continue
		}

		result = append(result, candidate)
	}

	return result
}

// bookableDate проверяет дату по правилам IsBookable и по эксклюзивности дня в обе стороны.
// Записи дня читаются один раз.
func (s *Suggester) bookableDate(
	ctx context.Context,
	serviceType *domain.ServiceType,
	start time.Time,
	durationMinutes int,
	excludeID *int64,
) (bool, error) {
	candidate, ok := s.slots.eligible(serviceType, start, durationMinutes)
	if !ok {
		return false, nil
	}

	existing, err := s.slots.dayAppointments(ctx, start, excludeID)
	if err != nil {
		return false, err
	}
	if collidesWithAny(candidate, serviceType.BufferMinutes, existing) {
		return false, nil
	}

	sameDay := make([]*domain.Appointment, 0, len(existing))
	for _, a := range existing {
		if timerange.SameDay(a.ScheduledStart, start) {
			sameDay = append(sameDay, a)
		}
	}
	return len(rules.ExclusiveConflicts(serviceType, start, sameDay)) == 0, nil
}
