package get_available_slots

import "errors"

var (
	// ErrServiceTypeNotFound возвращается, когда тип услуги не найден или неактивен
	ErrServiceTypeNotFound = errors.New("service type not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
