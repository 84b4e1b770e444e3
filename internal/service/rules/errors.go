package rules

import "errors"

var (
	// ErrServiceTypeNotFound возвращается, когда тип услуги не найден
	ErrServiceTypeNotFound = errors.New("rules: service type not found")

	// ErrInternal возвращается при ошибках хранилища
	ErrInternal = errors.New("rules: internal error")
)
