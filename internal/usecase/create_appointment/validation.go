package create_appointment

import "fmt"

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.ServiceTypeID <= 0 {
		return fmt.Errorf("%w: serviceTypeID must be positive", ErrInvalidInput)
	}

	if req.ScheduledStart.IsZero() {
		return fmt.Errorf("%w: scheduledStart is required", ErrInvalidInput)
	}

	if req.DurationMinutes < 0 {
		return fmt.Errorf("%w: durationMinutes must not be negative", ErrInvalidInput)
	}

	return nil
}
