package get_available_slots

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	UserID          int64     // ID пользователя (для логирования, не влияет на результат)
	ServiceTypeID   int64     // ID типа услуги
	Date            time.Time // Дата для получения слотов (без времени, UTC)
	DurationMinutes int       // 0 = длительность услуги по умолчанию
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            time.Time           // Дата, на которую запрашивались слоты
	ServiceTypeID   int64               // ID типа услуги
	ServiceName     string              // Название услуги
	DurationMinutes int                 // Длительность записи в минутах
	Slots           []Slot              // Список доступных слотов
	Unavailable     domain.ConflictType // Причина пустого списка (пусто, если слоты есть или день просто занят)
}

// Slot модель временного слота
type Slot struct {
	Start time.Time
	End   time.Time
}
