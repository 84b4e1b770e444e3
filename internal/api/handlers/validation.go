package handlers

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// ValidationResultResponse HTTP-представление результата проверки записи
type ValidationResultResponse struct {
	IsValid     bool                 `json:"isValid"`
	Conflicts   []ConflictResponse   `json:"conflicts"`
	Suggestions []SuggestionResponse `json:"suggestions"`
	Warnings    []WarningResponse    `json:"warnings"`
}

// ConflictResponse HTTP-представление конфликта
type ConflictResponse struct {
	Type         string                `json:"type"`
	Message      string                `json:"message"`
	Retryable    bool                  `json:"retryable,omitempty"`
	CurrentCount *int                  `json:"currentCount,omitempty"`
	MaxAllowed   *int                  `json:"maxAllowed,omitempty"`
	AllowedDays  []string              `json:"allowedDays,omitempty"`
	Appointments []ConflictAppointment `json:"conflictingAppointments,omitempty"`
}

// ConflictAppointment запись, с которой возник конфликт
type ConflictAppointment struct {
	ID             int64     `json:"id"`
	ServiceTypeID  int64     `json:"serviceTypeId"`
	ServiceName    string    `json:"serviceName,omitempty"`
	ScheduledStart time.Time `json:"scheduledStart"`
	ScheduledEnd   time.Time `json:"scheduledEnd"`
	Status         string    `json:"status"`
}

// SuggestionResponse HTTP-представление альтернативы
type SuggestionResponse struct {
	Type   string    `json:"type"`
	Start  time.Time `json:"start"`
	Reason string    `json:"reason"`
}

// WarningResponse HTTP-представление предупреждения
type WarningResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// FromValidationResult конвертирует domain.ValidationResult в HTTP-ответ
func FromValidationResult(r *domain.ValidationResult) *ValidationResultResponse {
	resp := &ValidationResultResponse{
		IsValid:     r.IsValid,
		Conflicts:   make([]ConflictResponse, len(r.Conflicts)),
		Suggestions: make([]SuggestionResponse, len(r.Suggestions)),
		Warnings:    FromWarnings(r.Warnings),
	}

	for i, c := range r.Conflicts {
		resp.Conflicts[i] = ConflictResponse{
			Type:         string(c.Type),
			Message:      c.Message,
			Retryable:    c.Retryable,
			CurrentCount: c.CurrentCount,
			MaxAllowed:   c.MaxAllowed,
			AllowedDays:  weekdayNames(c.AllowedDays),
			Appointments: conflictAppointments(c.Appointments),
		}
	}

	for i, s := range r.Suggestions {
		resp.Suggestions[i] = SuggestionResponse{
			Type:   string(s.Kind),
			Start:  s.Start.UTC(),
			Reason: string(s.Reason),
		}
	}

	return resp
}

// FromWarnings конвертирует предупреждения проверки
func FromWarnings(warnings []domain.Warning) []WarningResponse {
	result := make([]WarningResponse, len(warnings))
	for i, w := range warnings {
		result[i] = WarningResponse{Type: string(w.Type), Message: w.Message}
	}
	return result
}

func weekdayNames(days []time.Weekday) []string {
	if len(days) == 0 {
		return nil
	}
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return names
}

func conflictAppointments(list []*domain.Appointment) []ConflictAppointment {
	if len(list) == 0 {
		return nil
	}
	result := make([]ConflictAppointment, len(list))
	for i, a := range list {
		result[i] = ConflictAppointment{
			ID:             a.ID,
			ServiceTypeID:  a.ServiceTypeID,
			ServiceName:    a.ServiceName,
			ScheduledStart: a.ScheduledStart.UTC(),
			ScheduledEnd:   a.End().UTC(),
			Status:         string(a.Status),
		}
	}
	return result
}
