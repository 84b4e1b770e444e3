package rules

import (
	"context"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// ServiceTypeRepository интерфейс хранилища типов услуг (репозиторий или кэш поверх него)
type ServiceTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ServiceType, error)
	MaxBufferMinutes(ctx context.Context) (int, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	FindActiveOnDay(ctx context.Context, day time.Time, excludeID *int64) ([]*domain.Appointment, error)
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
