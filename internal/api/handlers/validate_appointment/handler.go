package validate_appointment

import (
	"net/http"

	"github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers"
	"github.com/fixwellinc/household-services-platform-sub009/internal/api/middleware"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgCancelled          = "проверка прервана, повторите запрос"
)

type Handler struct {
	validator Validator
	logger    Logger
}

func NewHandler(validator Validator, logger Logger) *Handler {
	return &Handler{
		validator: validator,
		logger:    logger,
	}
}

// Handle POST /api/v1/appointments/validate
// Возвращает 200 и результат проверки, даже если запись недопустима
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /appointments/validate - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ValidateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments/validate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.validator.Validate(r.Context(), req.ToValidationRequest(userID))
	if err != nil {
		h.logger.Warn("POST /appointments/validate - Validation aborted: user_id=%d, error=%v", userID, err)
		handlers.RespondError(w, http.StatusServiceUnavailable, msgCancelled)
		return
	}

	h.logger.Info("POST /appointments/validate - user_id=%d, service_type_id=%d, valid=%t, conflicts=%v",
		userID, req.ServiceTypeID, result.IsValid, result.ConflictTypes())
	handlers.RespondJSON(w, http.StatusOK, handlers.FromValidationResult(result))
}
