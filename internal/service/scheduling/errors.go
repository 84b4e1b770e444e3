package scheduling

import "errors"

var (
	// ErrInvalidServiceType возвращается, когда тип услуги не найден или неактивен
	ErrInvalidServiceType = errors.New("scheduling: invalid service type")

	// ErrCheckFailed возвращается при ошибке хранилища во время проверки
	ErrCheckFailed = errors.New("scheduling: check failed")
)
