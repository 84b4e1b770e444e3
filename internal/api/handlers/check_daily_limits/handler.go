package check_daily_limits

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers"
	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/scheduling"
)

const (
	msgInvalidServiceTypeID = "некорректный ID типа услуги"
	msgInvalidDate          = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidExcludeID     = "некорректный excludeId"
	msgServiceTypeNotFound  = "тип услуги не найден"
)

type Handler struct {
	checker DailyLimitChecker
	logger  Logger
}

func NewHandler(checker DailyLimitChecker, logger Logger) *Handler {
	return &Handler{
		checker: checker,
		logger:  logger,
	}
}

// Handle GET /api/v1/service-types/{serviceTypeId}/daily-limits
// Query params: date (required, YYYY-MM-DD), excludeId (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceTypeID, err := strconv.ParseInt(mux.Vars(r)["serviceTypeId"], 10, 64)
	if err != nil || serviceTypeID <= 0 {
		h.logger.Warn("GET /service-types/{id}/daily-limits - Invalid service type ID: %q", mux.Vars(r)["serviceTypeId"])
		handlers.RespondBadRequest(w, msgInvalidServiceTypeID)
		return
	}

	query := r.URL.Query()
	date, err := time.Parse(domain.DateFormat, query.Get("date"))
	if err != nil {
		h.logger.Warn("GET /service-types/{id}/daily-limits - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	var excludeID *int64
	if raw := query.Get("excludeId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /service-types/{id}/daily-limits - Invalid excludeId: %v", err)
			handlers.RespondBadRequest(w, msgInvalidExcludeID)
			return
		}
		excludeID = &id
	}

	result, err := h.checker.CheckDailyBookingLimits(r.Context(), serviceTypeID, date, excludeID)
	if err != nil {
		switch {
		case errors.Is(err, scheduling.ErrInvalidServiceType):
			h.logger.Warn("GET /service-types/{id}/daily-limits - Service type not found: service_type_id=%d", serviceTypeID)
			handlers.RespondNotFound(w, msgServiceTypeNotFound)

		default:
			h.logger.Error("GET /service-types/{id}/daily-limits - Failed to check limits: service_type_id=%d, error=%v",
				serviceTypeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /service-types/{id}/daily-limits - service_type_id=%d, date=%s, count=%d/%d",
		serviceTypeID, date.Format(domain.DateFormat), result.CurrentCount, result.MaxAllowed)
	handlers.RespondJSON(w, http.StatusOK, FromDailyLimitResult(date.Format(domain.DateFormat), result))
}
