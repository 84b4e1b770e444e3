package get_available_slots

import (
	"context"
	"iter"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/scheduling"
)

// RuleService интерфейс правил типов услуг
type RuleService interface {
	GetServiceTypeByID(ctx context.Context, id int64) (*domain.ServiceType, error)
	IsBookingAllowedOnDay(ctx context.Context, id int64, day time.Weekday) (bool, error)
}

// SlotCalculator интерфейс калькулятора свободных слотов
type SlotCalculator interface {
	Slots(ctx context.Context, date time.Time, serviceType *domain.ServiceType, durationMinutes int, excludeID *int64) (iter.Seq[time.Time], error)
}

// DailyLimitChecker интерфейс проверки дневной квоты
type DailyLimitChecker interface {
	CheckDailyBookingLimits(ctx context.Context, serviceTypeID int64, date time.Time, excludeID *int64) (*scheduling.DailyLimitResult, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
