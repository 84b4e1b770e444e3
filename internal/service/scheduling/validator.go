// Package scheduling движок проверки записей: калькулятор слотов, валидатор конфликтов
// и поиск альтернатив
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/rules"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/ptr"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
)

const tracerName = "github.com/fixwellinc/household-services-platform-sub009/internal/service/scheduling"

// Результаты валидации для метрик
const (
	resultValid          = "valid"
	resultInvalid        = "invalid"
	resultInfrastructure = "infrastructure_error"
	resultCancelled      = "cancelled"
)

// Validator проверяет запись по фиксированной последовательности правил
type Validator struct {
	rules        RuleService
	appointments AppointmentRepository
	slots        *SlotCalculator
	suggester    *Suggester
	timeProvider TimeProvider
	metrics      Metrics
	tracer       trace.Tracer
	timeout      time.Duration
	logger       Logger
}

// NewValidator создает валидатор записей
func NewValidator(
	ruleService RuleService,
	appointments AppointmentRepository,
	timeProvider TimeProvider,
	metrics Metrics,
	config Config,
	logger Logger,
) *Validator {
	slots := NewSlotCalculator(appointments, timeProvider, config)
	return &Validator{
		rules:        ruleService,
		appointments: appointments,
		slots:        slots,
		suggester:    NewSuggester(appointments, slots, logger),
		timeProvider: timeProvider,
		metrics:      metrics,
		tracer:       otel.Tracer(tracerName),
		timeout:      config.Timeout,
		logger:       logger,
	}
}

// Slots калькулятор слотов валидатора
func (v *Validator) Slots() *SlotCalculator {
	return v.slots
}

// Suggester движок альтернатив валидатора
func (v *Validator) Suggester() *Suggester {
	return v.suggester
}

// Validate проверяет запись и накапливает все конфликты, предложения и предупреждения.
// Ошибка возвращается только при отмене ctx; инфраструктурные сбои отражаются в результате.
func (v *Validator) Validate(ctx context.Context, req domain.ValidationRequest) (*domain.ValidationResult, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	ctx, span := v.tracer.Start(ctx, "scheduling.Validate", trace.WithAttributes(
		attribute.Int64("service_type.id", req.ServiceTypeID),
		attribute.Int64("customer.id", req.CustomerID),
		attribute.String("appointment.start", req.ScheduledDate.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	result := domain.NewValidationResult()

	// 0-1. Проверяем входные данные и тип услуги (фатально)
	candidate, conflict := v.CheckServiceValidity(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, v.abort(span, req, err)
	}
	if conflict != nil {
		result.AddConflict(*conflict)
		return v.finish(span, req, result), nil
	}

	// 2. Дневная квота типа услуги
	v.CheckDailyQuota(ctx, candidate, result)
	if err := ctx.Err(); err != nil {
		return nil, v.abort(span, req, err)
	}

	// 3. День недели, окно предварительной записи, доступность слота
	v.CheckDayEligibility(ctx, candidate, result)
	if err := ctx.Err(); err != nil {
		return nil, v.abort(span, req, err)
	}

	// 4. Пересечения с учетом буферов
	v.CheckBufferedOverlap(ctx, candidate, result)
	if err := ctx.Err(); err != nil {
		return nil, v.abort(span, req, err)
	}

	// 5. Эксклюзивность дня
	v.CheckExclusivity(ctx, candidate, result)
	if err := ctx.Err(); err != nil {
		return nil, v.abort(span, req, err)
	}

	// 6. Ограничения клиента
	v.CheckCustomerRestrictions(ctx, candidate, result)
	if err := ctx.Err(); err != nil {
		return nil, v.abort(span, req, err)
	}

	// 7. Предупреждения
	v.CollectWarnings(candidate, result)

	return v.finish(span, req, result), nil
}

// CheckServiceValidity проверяет входные данные и загружает тип услуги.
// Возвращает конфликт, если дальнейшие проверки невозможны.
func (v *Validator) CheckServiceValidity(ctx context.Context, req domain.ValidationRequest) (*Candidate, *domain.Conflict) {
	if msg := validateRequest(req); msg != "" {
		return nil, &domain.Conflict{
			Type:    domain.ConflictValidationError,
			Message: "Invalid validation request: " + msg,
		}
	}

	serviceType, err := v.rules.GetServiceTypeByID(ctx, req.ServiceTypeID)
	switch {
	case errors.Is(err, rules.ErrServiceTypeNotFound):
		return nil, &domain.Conflict{
			Type:    domain.ConflictInvalidServiceType,
			Message: fmt.Sprintf("Service type %d not found", req.ServiceTypeID),
		}
	case err != nil:
		v.logger.Error("Validate: failed to load service type id=%d: %v", req.ServiceTypeID, err)
		return nil, &domain.Conflict{
			Type:    domain.ConflictValidationError,
			Message: "Failed to load service type, please retry",
		}
	case !serviceType.IsActive:
		return nil, &domain.Conflict{
			Type:    domain.ConflictInvalidServiceType,
			Message: fmt.Sprintf("Service type %q is not active", serviceType.Name),
		}
	}

	return &Candidate{
		ServiceType:     serviceType,
		Start:           req.ScheduledDate.UTC(),
		DurationMinutes: serviceType.EffectiveDuration(req.DurationMinutes),
		CustomerID:      req.CustomerID,
		ExcludeID:       req.ExcludeAppointmentID,
	}, nil
}

// Recheck повторяет проверки, зависящие от состояния календаря (квота, буферные
// пересечения, эксклюзивность), без поиска альтернатив. Вызывается внутри транзакции
// сохранения, поэтому ошибка хранилища возвращается как есть: транзакцию можно повторить.
// Пересечения ищутся по всему календарному дню кандидата, даже если максимум буфера устарел.
func (v *Validator) Recheck(ctx context.Context, c *Candidate) (*domain.ValidationResult, error) {
	result := domain.NewValidationResult()
	st := c.ServiceType

	count, err := v.appointments.CountActive(ctx, st.ID, c.Start, c.ExcludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: count active: %w", ErrCheckFailed, err)
	}
	if count >= st.MaxBookingsPerDay {
		result.AddConflict(dailyLimitConflict(st, c.Start, count))
	}

	window, err := v.collisionWindow(ctx, c)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := timerange.CalendarDayBounds(c.Start)
	if dayStart.Before(window.Start) {
		window.Start = dayStart
	}
	if dayEnd.After(window.End) {
		window.End = dayEnd
	}

	colliding, err := v.collisionsIn(ctx, c, window)
	if err != nil {
		return nil, err
	}
	for _, a := range colliding {
		result.AddConflict(overlapConflict(a))
	}

	conflicting, err := v.rules.GetExclusiveServiceConflicts(ctx, st.ID, c.Start, c.ExcludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: exclusive conflicts: %w", ErrCheckFailed, err)
	}
	if len(conflicting) > 0 {
		result.AddConflict(exclusiveConflict(st, c.Start, conflicting))
	}

	return result, nil
}

// CheckDailyBookingLimits проверяет дневную квоту типа услуги на день date.
// Для даты без времени альтернативы ищутся на время открытия.
func (v *Validator) CheckDailyBookingLimits(ctx context.Context, serviceTypeID int64, date time.Time, excludeID *int64) (*DailyLimitResult, error) {
	serviceType, err := v.rules.GetServiceTypeByID(ctx, serviceTypeID)
	if err != nil {
		if errors.Is(err, rules.ErrServiceTypeNotFound) {
			return nil, ErrInvalidServiceType
		}
		return nil, fmt.Errorf("%w: get service type: %w", ErrCheckFailed, err)
	}
	if !serviceType.IsActive {
		return nil, ErrInvalidServiceType
	}

	date = date.UTC()
	if dayStart, _ := timerange.CalendarDayBounds(date); date.Equal(dayStart) {
		date = v.slots.OpeningTime(date, serviceType)
	}

	return v.dailyLimits(ctx, serviceType, date, serviceType.EffectiveDuration(0), excludeID)
}

// CheckDailyQuota шаг 2: DAILY_LIMIT_EXCEEDED с альтернативными датами
func (v *Validator) CheckDailyQuota(ctx context.Context, c *Candidate, result *domain.ValidationResult) {
	limits, err := v.dailyLimits(ctx, c.ServiceType, c.Start, c.DurationMinutes, c.ExcludeID)
	if err != nil {
		v.logger.Error("Validate: daily limit check failed for service_type=%d: %v", c.ServiceType.ID, err)
		result.AddConflict(domain.Conflict{
			Type:    domain.ConflictDailyLimitCheckError,
			Message: "Failed to check daily booking limits, please retry",
		})
		return
	}

	if limits.IsValid {
		return
	}
	result.AddConflict(*limits.Conflict)
	result.AddSuggestions(limits.Suggestions...)
}

// CheckDayEligibility шаг 3: день недели, окно предварительной записи, доступность слота
func (v *Validator) CheckDayEligibility(ctx context.Context, c *Candidate, result *domain.ValidationResult) {
	st := c.ServiceType
	weekday := c.Start.Weekday()

	if !st.IsAllowedOn(weekday) {
		result.AddConflict(domain.Conflict{
			Type:        domain.ConflictDayNotAllowed,
			Message:     fmt.Sprintf("%s cannot be booked on %s", st.Name, weekday),
			AllowedDays: st.AllowedDays,
		})
		dates := v.suggester.FindAlternativeDates(ctx, st, c.Start, c.DurationMinutes, c.ExcludeID)
		result.AddSuggestions(toSuggestions(domain.SuggestionDate, domain.ConflictDayNotAllowed, dates)...)
		return
	}

	if msg := st.AdvanceWindowViolation(c.Start, v.timeProvider.Now()); msg != "" {
		result.AddConflict(domain.Conflict{
			Type:    domain.ConflictAdvanceTimeViolation,
			Message: msg,
		})
		return
	}

	available, err := v.slots.IsSlotAvailable(ctx, st, c.Start, c.DurationMinutes, c.ExcludeID)
	if err != nil {
		v.logger.Error("Validate: availability check failed for service_type=%d: %v", st.ID, err)
		result.AddConflict(domain.Conflict{
			Type:    domain.ConflictAvailabilityCheckErr,
			Message: "Failed to check slot availability, please retry",
		})
		return
	}
	if available {
		return
	}

	result.AddConflict(domain.Conflict{
		Type:    domain.ConflictSlotNotAvailable,
		Message: fmt.Sprintf("Time slot %s is not available", c.Start.Format(time.RFC3339)),
	})
	slots := v.suggester.FindAlternativeTimeSlots(ctx, st, c.Start, c.DurationMinutes, c.ExcludeID)
	result.AddSuggestions(toSuggestions(domain.SuggestionTimeSlot, domain.ConflictSlotNotAvailable, slots)...)
}

// CheckBufferedOverlap шаг 4: одна запись OVERLAPPING_APPOINTMENT на каждое пересечение
func (v *Validator) CheckBufferedOverlap(ctx context.Context, c *Candidate, result *domain.ValidationResult) {
	colliding, err := v.FindCollisions(ctx, c)
	if err != nil {
		v.logger.Error("Validate: overlap check failed for service_type=%d: %v", c.ServiceType.ID, err)
		result.AddConflict(domain.Conflict{
			Type:    domain.ConflictOverlapCheckError,
			Message: "Failed to check overlapping appointments, please retry",
		})
		return
	}
	if len(colliding) == 0 {
		return
	}

	for _, a := range colliding {
		result.AddConflict(overlapConflict(a))
	}

	slots := v.suggester.FindNonConflictingTimeSlots(ctx, c.ServiceType, c.Start, c.DurationMinutes, colliding, c.ExcludeID)
	result.AddSuggestions(toSuggestions(domain.SuggestionTimeSlot, domain.ConflictOverlappingAppointment, slots)...)
}

// FindCollisions возвращает активные записи, нарушающие буфер кандидата.
// Фаза 1: запрос к хранилищу с консервативным окном [start - maxBuffer, end + maxBuffer).
// Фаза 2: точная проверка в памяти с собственным буфером каждой стороны.
func (v *Validator) FindCollisions(ctx context.Context, c *Candidate) ([]*domain.Appointment, error) {
	window, err := v.collisionWindow(ctx, c)
	if err != nil {
		return nil, err
	}
	return v.collisionsIn(ctx, c, window)
}

// collisionWindow консервативное окно поиска: интервал кандидата, расширенный на максимальный буфер
func (v *Validator) collisionWindow(ctx context.Context, c *Candidate) (timerange.Range, error) {
	maxBuffer, err := v.rules.MaxBufferMinutes(ctx)
	if err != nil {
		return timerange.Range{}, fmt.Errorf("%w: max buffer: %w", ErrCheckFailed, err)
	}
	return c.Range().Buffered(max(maxBuffer, c.ServiceType.BufferMinutes)), nil
}

func (v *Validator) collisionsIn(ctx context.Context, c *Candidate, window timerange.Range) ([]*domain.Appointment, error) {
	nearby, err := v.appointments.FindActiveInRange(ctx, window.Start, window.End, c.ExcludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: find appointments in range: %w", ErrCheckFailed, err)
	}

	candidate := c.Range()
	colliding := make([]*domain.Appointment, 0)
	for _, a := range nearby {
		if a.CollidesWith(candidate, c.ServiceType.BufferMinutes) {
			colliding = append(colliding, a)
		}
	}
	return colliding, nil
}

// CheckExclusivity шаг 5: эксклюзивность дня в обе стороны
func (v *Validator) CheckExclusivity(ctx context.Context, c *Candidate, result *domain.ValidationResult) {
	st := c.ServiceType

	conflicting, err := v.rules.GetExclusiveServiceConflicts(ctx, st.ID, c.Start, c.ExcludeID)
	if err != nil {
		v.logger.Error("Validate: exclusivity check failed for service_type=%d: %v", st.ID, err)
		result.AddConflict(domain.Conflict{
			Type:    domain.ConflictExclusivityCheckError,
			Message: "Failed to check exclusive bookings, please retry",
		})
		return
	}
	if len(conflicting) == 0 {
		return
	}

	result.AddConflict(exclusiveConflict(st, c.Start, conflicting))
	if !st.IsExclusiveOn(c.Start.Weekday()) {
		return
	}

	dates := v.suggester.FindExclusiveDates(ctx, st, c.Start, c.DurationMinutes, c.ExcludeID)
	result.AddSuggestions(toSuggestions(domain.SuggestionDate, domain.ConflictExclusiveService, dates)...)
}

// CheckCustomerRestrictions шаг 6: каждое правило проверяется независимо
func (v *Validator) CheckCustomerRestrictions(ctx context.Context, c *Candidate, result *domain.ValidationResult) {
	pending, err := v.appointments.CountActivePendingForCustomer(ctx, c.CustomerID, c.ExcludeID)
	switch {
	case err != nil:
		v.customerCheckFailed(result, c, "pending appointments", err)
	case pending >= domain.MaxPendingPerCustomer:
		result.AddConflict(domain.Conflict{
			Type:         domain.ConflictTooManyPending,
			Message:      fmt.Sprintf("Customer already has %d pending appointments", pending),
			CurrentCount: ptr.Ptr(pending),
			MaxAllowed:   ptr.Ptr(domain.MaxPendingPerCustomer),
		})
	}

	sameDay, err := v.appointments.FindActiveForCustomerOnDay(ctx, c.CustomerID, c.Start, c.ExcludeID)
	switch {
	case err != nil:
		v.customerCheckFailed(result, c, "same day appointments", err)
	case len(sameDay) > 0:
		result.AddConflict(domain.Conflict{
			Type: domain.ConflictCustomerSameDay,
			Message: fmt.Sprintf("Customer already has %d appointment(s) on %s",
				len(sameDay), c.Start.Format(domain.DateFormat)),
			Appointments: sameDay,
		})
	}

	since := v.timeProvider.Now().Add(-domain.RecentCancellationWindow)
	cancelled, err := v.appointments.CountRecentCancellations(ctx, c.CustomerID, c.ServiceType.ID, since)
	switch {
	case err != nil:
		v.customerCheckFailed(result, c, "recent cancellations", err)
	case cancelled >= domain.MaxRecentCancellations:
		result.AddConflict(domain.Conflict{
			Type: domain.ConflictTooManyRecentCancellations,
			Message: fmt.Sprintf("Customer cancelled %d %s appointments in the last 7 days",
				cancelled, c.ServiceType.Name),
			CurrentCount: ptr.Ptr(cancelled),
		})
	}
}

// CollectWarnings шаг 7: предупреждения не влияют на IsValid
func (v *Validator) CollectWarnings(c *Candidate, result *domain.ValidationResult) {
	for _, w := range Warnings(c.ServiceType, c.Start, v.timeProvider.Now()) {
		result.AddWarning(w)
	}
}

// Warnings вычисляет предупреждения для записи типа st на время start
func Warnings(st *domain.ServiceType, start, now time.Time) []domain.Warning {
	warnings := make([]domain.Warning, 0)

	threshold := time.Duration(float64(st.MinAdvanceHours) * domain.ShortNoticeFactor * float64(time.Hour))
	if start.Sub(now) < threshold {
		warnings = append(warnings, domain.Warning{
			Type:    domain.WarningShortNotice,
			Message: fmt.Sprintf("Short notice booking: less than %.1f hours before the appointment", threshold.Hours()),
		})
	}

	if domain.IsBusyWeekday(start.UTC().Weekday()) {
		warnings = append(warnings, domain.Warning{
			Type:    domain.WarningBusyDay,
			Message: fmt.Sprintf("%s is a high-demand day, confirmation may take longer", start.UTC().Weekday()),
		})
	}

	if st.RequiresApproval {
		warnings = append(warnings, domain.Warning{
			Type:    domain.WarningRequiresApproval,
			Message: fmt.Sprintf("%s bookings require approval before confirmation", st.Name),
		})
	}

	return warnings
}

func (v *Validator) dailyLimits(
	ctx context.Context,
	st *domain.ServiceType,
	date time.Time,
	durationMinutes int,
	excludeID *int64,
) (*DailyLimitResult, error) {
	count, err := v.appointments.CountActive(ctx, st.ID, date, excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: count active: %w", ErrCheckFailed, err)
	}

	limits := &DailyLimitResult{
		IsValid:      count < st.MaxBookingsPerDay,
		CurrentCount: count,
		MaxAllowed:   st.MaxBookingsPerDay,
		Suggestions:  make([]domain.Suggestion, 0),
	}
	if limits.IsValid {
		return limits, nil
	}

	limits.Conflict = ptr.Ptr(dailyLimitConflict(st, date, count))
	dates := v.suggester.FindAlternativeDates(ctx, st, date, durationMinutes, excludeID)
	limits.Suggestions = toSuggestions(domain.SuggestionDate, domain.ConflictDailyLimitExceeded, dates)

	return limits, nil
}

func dailyLimitConflict(st *domain.ServiceType, date time.Time, count int) domain.Conflict {
	return domain.Conflict{
		Type: domain.ConflictDailyLimitExceeded,
		Message: fmt.Sprintf("Daily booking limit reached for %s on %s",
			st.Name, date.UTC().Format(domain.DateFormat)),
		CurrentCount: ptr.Ptr(count),
		MaxAllowed:   ptr.Ptr(st.MaxBookingsPerDay),
	}
}

func overlapConflict(a *domain.Appointment) domain.Conflict {
	return domain.Conflict{
		Type: domain.ConflictOverlappingAppointment,
		Message: fmt.Sprintf("Overlaps with appointment #%d (%s) at %s including buffer time",
			a.ID, a.ServiceName, a.ScheduledStart.Format(time.RFC3339)),
		Appointments: []*domain.Appointment{a},
	}
}

func exclusiveConflict(st *domain.ServiceType, start time.Time, conflicting []*domain.Appointment) domain.Conflict {
	if !st.IsExclusiveOn(start.Weekday()) {
		return domain.Conflict{
			Type:         domain.ConflictExclusiveService,
			Message:      "The day is reserved by an exclusive appointment",
			Appointments: conflicting,
		}
	}
	return domain.Conflict{
		Type: domain.ConflictExclusiveService,
		Message: fmt.Sprintf("%s must be the only appointment on %s, %d other appointment(s) found",
			st.Name, start.Weekday(), len(conflicting)),
		Appointments: conflicting,
	}
}

func (v *Validator) customerCheckFailed(result *domain.ValidationResult, c *Candidate, check string, err error) {
	v.logger.Error("Validate: customer check (%s) failed for customer=%d: %v", check, c.CustomerID, err)
	result.AddConflict(domain.Conflict{
		Type:    domain.ConflictCustomerCheckError,
		Message: fmt.Sprintf("Failed to check customer %s, please retry", check),
	})
}

func (v *Validator) finish(span trace.Span, req domain.ValidationRequest, result *domain.ValidationResult) *domain.ValidationResult {
	outcome := resultValid
	switch {
	case result.OnlyInfrastructureFailures():
		outcome = resultInfrastructure
	case !result.IsValid:
		outcome = resultInvalid
	}

	conflictTypes := result.ConflictTypes()
	span.SetAttributes(
		attribute.Bool("validation.valid", result.IsValid),
		attribute.StringSlice("validation.conflicts", conflictTypes),
		attribute.Int("validation.suggestions", len(result.Suggestions)),
	)
	v.metrics.ObserveValidation(outcome, conflictTypes)

	v.logger.Info("Validate: service_type=%d customer=%d start=%s result=%s conflicts=%v",
		req.ServiceTypeID, req.CustomerID, req.ScheduledDate.UTC().Format(time.RFC3339), outcome, conflictTypes)

	return result
}

func (v *Validator) abort(span trace.Span, req domain.ValidationRequest, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	v.metrics.ObserveValidation(resultCancelled, nil)
	v.logger.Warn("Validate: service_type=%d customer=%d cancelled: %v", req.ServiceTypeID, req.CustomerID, err)
	return err
}

func validateRequest(req domain.ValidationRequest) string {
	switch {
	case req.ServiceTypeID <= 0:
		return "service type id must be positive"
	case req.CustomerID <= 0:
		return "customer id must be positive"
	case req.ScheduledDate.IsZero():
		return "scheduled date is required"
	case req.DurationMinutes < 0:
		return "duration must not be negative"
	case req.DurationMinutes > 24*60:
		return "duration must not exceed 24 hours"
	case req.ExcludeAppointmentID != nil && *req.ExcludeAppointmentID <= 0:
		return "exclude appointment id must be positive"
	}
	return ""
}
