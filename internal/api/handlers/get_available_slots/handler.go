package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers"
	"github.com/fixwellinc/household-services-platform-sub009/internal/api/middleware"
	getAvailableSlots "github.com/fixwellinc/household-services-platform-sub009/internal/usecase/get_available_slots"
)

const (
	msgInvalidServiceTypeID = "некорректный ID типа услуги"
	msgMissingDate          = "дата обязательна"
	msgInvalidQuery         = "некорректные параметры: date в формате YYYY-MM-DD, duration - положительное число минут"
	msgServiceTypeNotFound  = "тип услуги не найден"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/service-types/{serviceTypeId}/available-slots
// Query params: date (required, YYYY-MM-DD), duration (optional, minutes)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceTypeID, err := strconv.ParseInt(mux.Vars(r)["serviceTypeId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /service-types/{id}/available-slots - Invalid service type ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceTypeID)
		return
	}

	query := r.URL.Query()
	dateStr := query.Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /service-types/{id}/available-slots - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(serviceTypeID, dateStr, query.Get("duration"))
	if err != nil {
		h.logger.Warn("GET /service-types/{id}/available-slots - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	// Маршрут публичный, ID пользователя нужен только для логов
	useCaseReq.UserID, _ = middleware.GetUserID(r.Context())

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrServiceTypeNotFound):
			h.logger.Warn("GET /service-types/{id}/available-slots - Service type not found: service_type_id=%d", serviceTypeID)
			handlers.RespondNotFound(w, msgServiceTypeNotFound)

		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /service-types/{id}/available-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /service-types/{id}/available-slots - Failed to get slots: service_type_id=%d, error=%v",
				serviceTypeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /service-types/{id}/available-slots - Slots retrieved successfully: service_type_id=%d, slots_count=%d",
		serviceTypeID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
