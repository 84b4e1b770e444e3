package create_appointment

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/appointments/models"
	createAppointment "github.com/fixwellinc/household-services-platform-sub009/internal/usecase/create_appointment"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ServiceTypeID  int64     `json:"serviceTypeId"`
	ScheduledStart time.Time `json:"scheduledStart"` // RFC 3339
	Duration       int       `json:"duration,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
}

// CreateAppointmentResponse HTTP response model
type CreateAppointmentResponse struct {
	Appointment *models.AppointmentResponse `json:"appointment"`
	Warnings    []handlers.WarningResponse  `json:"warnings"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateAppointmentRequest) ToUseCaseRequest(userID int64) *createAppointment.Request {
	return &createAppointment.Request{
		UserID:          userID,
		ServiceTypeID:   r.ServiceTypeID,
		ScheduledStart:  r.ScheduledStart.UTC(),
		DurationMinutes: r.Duration,
		Notes:           r.Notes,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createAppointment.Response) *CreateAppointmentResponse {
	return &CreateAppointmentResponse{
		Appointment: models.FromDomainAppointment(resp.Appointment),
		Warnings:    handlers.FromWarnings(resp.Warnings),
	}
}
