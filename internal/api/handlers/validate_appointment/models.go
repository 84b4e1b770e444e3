package validate_appointment

import (
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// ValidateAppointmentRequest HTTP request model
type ValidateAppointmentRequest struct {
	ServiceTypeID        int64     `json:"serviceTypeId"`
	ScheduledDate        time.Time `json:"scheduledDate"` // RFC 3339
	Duration             int       `json:"duration,omitempty"`
	ExcludeAppointmentID *int64    `json:"excludeAppointmentId,omitempty"`
}

// ToValidationRequest конвертирует HTTP запрос в запрос валидатора
func (r *ValidateAppointmentRequest) ToValidationRequest(customerID int64) domain.ValidationRequest {
	return domain.ValidationRequest{
		ServiceTypeID:        r.ServiceTypeID,
		ScheduledDate:        r.ScheduledDate.UTC(),
		DurationMinutes:      r.Duration,
		CustomerID:           customerID,
		ExcludeAppointmentID: r.ExcludeAppointmentID,
	}
}
