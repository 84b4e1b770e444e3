package create_appointment

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// Request модель запроса на создание записи
type Request struct {
	UserID          int64     // ID клиента (X-User-ID)
	ServiceTypeID   int64     // ID типа услуги
	ScheduledStart  time.Time // Начало записи (UTC)
	DurationMinutes int       // 0 = длительность услуги по умолчанию
	Notes           *string   // Заметки (опционально)
}

// Response модель ответа с созданной записью
type Response struct {
	Appointment *domain.Appointment
	Warnings    []domain.Warning // предупреждения проверки, не блокирующие запись
}
