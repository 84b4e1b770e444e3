package models

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// UpdateStatusRequest запрос на смену статуса записи
type UpdateStatusRequest struct {
	UserID int64  `json:"-"`
	Status string `json:"status"`
}

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID              int64     `json:"id"`
	ServiceTypeID   int64     `json:"serviceTypeId"`
	ServiceName     string    `json:"serviceName,omitempty"`
	CustomerID      int64     `json:"customerId"`
	ScheduledStart  time.Time `json:"scheduledStart"`
	ScheduledEnd    time.Time `json:"scheduledEnd"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FromDomainAppointment конвертирует domain.Appointment в AppointmentResponse
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:              a.ID,
		ServiceTypeID:   a.ServiceTypeID,
		ServiceName:     a.ServiceName,
		CustomerID:      a.CustomerID,
		ScheduledStart:  a.ScheduledStart.UTC(),
		ScheduledEnd:    a.End().UTC(),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.UTC(),
		UpdatedAt:       a.UpdatedAt.UTC(),
	}
}
