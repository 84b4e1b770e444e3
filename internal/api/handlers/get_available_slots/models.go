package get_available_slots

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	getAvailableSlots "github.com/fixwellinc/household-services-platform-sub009/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date            string          `json:"date"`
	ServiceTypeID   int64           `json:"serviceTypeId"`
	ServiceName     string          `json:"serviceName"`
	DurationMinutes int             `json:"durationMinutes"`
	Slots           []AvailableSlot `json:"slots"`
	Unavailable     string          `json:"unavailableReason,omitempty"`
}

// AvailableSlot модель временного слота
type AvailableSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ToUseCaseRequest формирует запрос use case из параметров запроса
func ToUseCaseRequest(serviceTypeID int64, dateStr, durationStr string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	var duration int
	if durationStr != "" {
		duration, err = strconv.Atoi(durationStr)
		if err != nil {
			return nil, err
		}
		if duration <= 0 {
			return nil, fmt.Errorf("duration must be positive, got %d", duration)
		}
	}

	return &getAvailableSlots.Request{
		ServiceTypeID:   serviceTypeID,
		Date:            date,
		DurationMinutes: duration,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, s := range resp.Slots {
		slots[i] = AvailableSlot{Start: s.Start.UTC(), End: s.End.UTC()}
	}

	return &AvailableSlotsResponse{
		Date:            resp.Date.Format(domain.DateFormat),
		ServiceTypeID:   resp.ServiceTypeID,
		ServiceName:     resp.ServiceName,
		DurationMinutes: resp.DurationMinutes,
		Slots:           slots,
		Unavailable:     string(resp.Unavailable),
	}
}
