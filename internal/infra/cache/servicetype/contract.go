package servicetype

import (
	"context"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// Source источник типов услуг (репозиторий PostgreSQL)
type Source interface {
	GetByID(ctx context.Context, id int64) (*domain.ServiceType, error)
	MaxBufferMinutes(ctx context.Context) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}
