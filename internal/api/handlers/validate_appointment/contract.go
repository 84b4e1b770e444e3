package validate_appointment

import (
	"context"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

type Validator interface {
	Validate(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
