package create_appointment

import (
	"errors"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_appointment: invalid input data")

	// ErrValidationFailed возвращается, когда запись нарушает правила расписания
	ErrValidationFailed = errors.New("create_appointment: validation failed")

	// ErrValidationUnavailable возвращается, когда проверка не выполнена из-за сбоев хранилища
	ErrValidationUnavailable = errors.New("create_appointment: validation temporarily unavailable")

	// ErrSlotTaken возвращается, когда слот заняли между проверкой и сохранением
	ErrSlotTaken = errors.New("create_appointment: slot was taken concurrently")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_appointment: internal error")
)

// ConflictError отказ в записи вместе с результатом проверки.
// Unwrap возвращает ErrValidationFailed, ErrValidationUnavailable или ErrSlotTaken.
type ConflictError struct {
	Result *domain.ValidationResult
	err    error
}

func (e *ConflictError) Error() string {
	return e.err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.err
}

// NewConflictError создает отказ с результатом проверки
func NewConflictError(err error, result *domain.ValidationResult) *ConflictError {
	return &ConflictError{Result: result, err: err}
}
