package create_appointment

import (
	"context"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/scheduling"
)

// Validator интерфейс движка проверки записей
type Validator interface {
	Validate(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResult, error)
}

// CommitChecker перепроверка записи внутри транзакции сохранения.
// Должен читать типы услуг из БД в транзакции, а не из кэша.
type CommitChecker interface {
	CheckServiceValidity(ctx context.Context, req domain.ValidationRequest) (*scheduling.Candidate, *domain.Conflict)
	Recheck(ctx context.Context, c *scheduling.Candidate) (*domain.ValidationResult, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	LockDay(ctx context.Context, day time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics интерфейс учета попыток сохранения
type Metrics interface {
	ObserveCommit(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
