package scheduling

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/types"
)

// Config параметры движка расписания
type Config struct {
	BusinessOpen    types.TimeString // часы работы по умолчанию
	BusinessClose   types.TimeString
	SlotStepMinutes int           // 0 = шаг равен длительности записи
	Timeout         time.Duration // 0 = без ограничения
}

// Candidate проверяемая запись с загруженным типом услуги
type Candidate struct {
	ServiceType     *domain.ServiceType
	Start           time.Time
	DurationMinutes int
	CustomerID      int64
	ExcludeID       *int64
}

// Range возвращает интервал записи без буфера
func (c *Candidate) Range() timerange.Range {
	return timerange.New(c.Start, c.DurationMinutes)
}

// DailyLimitResult результат проверки дневной квоты типа услуги
type DailyLimitResult struct {
	IsValid      bool
	CurrentCount int
	MaxAllowed   int
	Conflict     *domain.Conflict
	Suggestions  []domain.Suggestion
}

func toSuggestions(kind domain.SuggestionKind, reason domain.ConflictType, starts []time.Time) []domain.Suggestion {
	result := make([]domain.Suggestion, len(starts))
	for i, start := range starts {
		result[i] = domain.Suggestion{Kind: kind, Start: start, Reason: reason}
	}
	return result
}
