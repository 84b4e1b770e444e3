package create_appointment

import (
	"errors"
	"net/http"

	"github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers"
	"github.com/fixwellinc/household-services-platform-sub009/internal/api/middleware"
	createAppointment "github.com/fixwellinc/household-services-platform-sub009/internal/usecase/create_appointment"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidInput       = "некорректные параметры записи"
	msgCancelled          = "запрос прерван, повторите попытку"
)

type Handler struct {
	useCase CreateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CreateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
// 201 - запись создана; 409 - конфликт правил или слот заняли; 503 - проверка недоступна
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /appointments - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		var conflictErr *createAppointment.ConflictError
		switch {
		case errors.Is(err, createAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: user_id=%d, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createAppointment.ErrValidationUnavailable) && errors.As(err, &conflictErr):
			h.logger.Warn("POST /appointments - Validation unavailable: user_id=%d", userID)
			handlers.RespondJSON(w, http.StatusServiceUnavailable, handlers.FromValidationResult(conflictErr.Result))

		case errors.As(err, &conflictErr):
			h.logger.Info("POST /appointments - Rejected: user_id=%d, reason=%v, conflicts=%v",
				userID, err, conflictErr.Result.ConflictTypes())
			handlers.RespondJSON(w, http.StatusConflict, handlers.FromValidationResult(conflictErr.Result))

		case r.Context().Err() != nil:
			h.logger.Warn("POST /appointments - Request cancelled: user_id=%d", userID)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgCancelled)

		default:
			h.logger.Error("POST /appointments - Failed to create appointment: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%d, user_id=%d",
		result.Appointment.ID, userID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
