// Package rules правила типов услуг: допустимые дни, эксклюзивность, окно предварительной записи
package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	serviceTypeRepo "github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage/servicetype"
)

// AdvanceCheck результат проверки окна предварительной записи
type AdvanceCheck struct {
	IsValid bool
	Message string
}

// Service сервис правил типов услуг
type Service struct {
	serviceTypes ServiceTypeRepository
	appointments AppointmentRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса правил
func NewService(
	serviceTypes ServiceTypeRepository,
	appointments AppointmentRepository,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		serviceTypes: serviceTypes,
		appointments: appointments,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetServiceTypeByID возвращает тип услуги (в том числе неактивный)
func (s *Service) GetServiceTypeByID(ctx context.Context, id int64) (*domain.ServiceType, error) {
	st, err := s.serviceTypes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceTypeRepo.ErrServiceTypeNotFound) {
			return nil, ErrServiceTypeNotFound
		}
		s.logger.Error("GetServiceTypeByID: failed to get service type id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: get service type %d: %w", ErrInternal, id, err)
	}
	return st, nil
}

// IsBookingAllowedOnDay проверяет, разрешена ли запись на тип услуги в день недели
func (s *Service) IsBookingAllowedOnDay(ctx context.Context, id int64, day time.Weekday) (bool, error) {
	st, err := s.GetServiceTypeByID(ctx, id)
	if err != nil {
		return false, err
	}
	return st.IsAllowedOn(day), nil
}

// IsExclusiveOnDay проверяет, является ли тип услуги эксклюзивным в день недели
func (s *Service) IsExclusiveOnDay(ctx context.Context, id int64, day time.Weekday) (bool, error) {
	st, err := s.GetServiceTypeByID(ctx, id)
	if err != nil {
		return false, err
	}
	return st.IsExclusiveOn(day), nil
}

// ValidateAdvanceBookingTime проверяет окно предварительной записи относительно текущего времени
func (s *Service) ValidateAdvanceBookingTime(ctx context.Context, id int64, date time.Time) (*AdvanceCheck, error) {
	st, err := s.GetServiceTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	message := st.AdvanceWindowViolation(date, s.timeProvider.Now())
	return &AdvanceCheck{
		IsValid: message == "",
		Message: message,
	}, nil
}

// GetExclusiveServiceConflicts возвращает активные записи дня, нарушающие эксклюзивность.
// Если тип услуги эксклюзивен в этот день - конфликтуют все прочие записи дня.
// Иначе конфликтуют записи, чей собственный тип услуги эксклюзивен в этот день.
func (s *Service) GetExclusiveServiceConflicts(ctx context.Context, id int64, date time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	st, err := s.GetServiceTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dayAppointments, err := s.appointments.FindActiveOnDay(ctx, date, excludeID)
	if err != nil {
		s.logger.Error("GetExclusiveServiceConflicts: failed to get appointments for %s: %v",
			date.UTC().Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: find appointments on day: %w", ErrInternal, err)
	}

	return ExclusiveConflicts(st, date, dayAppointments), nil
}

// MaxBufferMinutes возвращает максимальный буфер среди активных типов услуг
func (s *Service) MaxBufferMinutes(ctx context.Context) (int, error) {
	maxBuffer, err := s.serviceTypes.MaxBufferMinutes(ctx)
	if err != nil {
		s.logger.Error("MaxBufferMinutes: %v", err)
		return 0, fmt.Errorf("%w: max buffer: %w", ErrInternal, err)
	}
	return maxBuffer, nil
}

// ExclusiveConflicts отбирает записи дня, конфликтующие с записью типа st на дату date
func ExclusiveConflicts(st *domain.ServiceType, date time.Time, dayAppointments []*domain.Appointment) []*domain.Appointment {
	if st.IsExclusiveOn(date.UTC().Weekday()) {
		return dayAppointments
	}

	conflicts := make([]*domain.Appointment, 0)
	for _, a := range dayAppointments {
		if a.IsExclusiveDay() {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts
}
