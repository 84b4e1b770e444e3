package scheduling

import (
	"context"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// RuleService интерфейс сервиса правил типов услуг
type RuleService interface {
	GetServiceTypeByID(ctx context.Context, id int64) (*domain.ServiceType, error)
	GetExclusiveServiceConflicts(ctx context.Context, id int64, date time.Time, excludeID *int64) ([]*domain.Appointment, error)
	MaxBufferMinutes(ctx context.Context) (int, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	CountActive(ctx context.Context, serviceTypeID int64, day time.Time, excludeID *int64) (int, error)
	FindActiveInRange(ctx context.Context, start, end time.Time, excludeID *int64) ([]*domain.Appointment, error)
	FindActiveForCustomerOnDay(ctx context.Context, customerID int64, day time.Time, excludeID *int64) ([]*domain.Appointment, error)
	CountActivePendingForCustomer(ctx context.Context, customerID int64, excludeID *int64) (int, error)
	CountRecentCancellations(ctx context.Context, customerID, serviceTypeID int64, since time.Time) (int, error)
}

// Metrics интерфейс метрик валидации
type Metrics interface {
	ObserveValidation(result string, conflictTypes []string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
