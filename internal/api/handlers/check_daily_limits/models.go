package check_daily_limits

import (
	"github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers"
	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/scheduling"
)

// DailyLimitsResponse HTTP response model
type DailyLimitsResponse struct {
	Date         string                        `json:"date"`
	IsValid      bool                          `json:"isValid"`
	CurrentCount int                           `json:"currentCount"`
	MaxAllowed   int                           `json:"maxAllowed"`
	Conflict     *handlers.ConflictResponse    `json:"conflict,omitempty"`
	Suggestions  []handlers.SuggestionResponse `json:"suggestions"`
}

// FromDailyLimitResult конвертирует результат проверки квоты в HTTP response
func FromDailyLimitResult(date string, r *scheduling.DailyLimitResult) *DailyLimitsResponse {
	result := domain.NewValidationResult()
	if r.Conflict != nil {
		result.AddConflict(*r.Conflict)
	}
	result.AddSuggestions(r.Suggestions...)
	converted := handlers.FromValidationResult(result)

	resp := &DailyLimitsResponse{
		Date:         date,
		IsValid:      r.IsValid,
		CurrentCount: r.CurrentCount,
		MaxAllowed:   r.MaxAllowed,
		Suggestions:  converted.Suggestions,
	}
	if len(converted.Conflicts) > 0 {
		resp.Conflict = &converted.Conflicts[0]
	}
	return resp
}
