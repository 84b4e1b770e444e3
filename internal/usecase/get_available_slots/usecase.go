package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/rules"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
)

// UseCase use case для получения доступных слотов для записи
type UseCase struct {
	rules  RuleService
	slots  SlotCalculator
	limits DailyLimitChecker
	logger Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(ruleService RuleService, slots SlotCalculator, limits DailyLimitChecker, logger Logger) *UseCase {
	return &UseCase{
		rules:  ruleService,
		slots:  slots,
		limits: limits,
		logger: logger,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: user=%d, service_type=%d, date=%s, duration=%d",
		req.UserID, req.ServiceTypeID, req.Date.Format(domain.DateFormat), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	date, _ := timerange.CalendarDayBounds(req.Date.UTC())

	// 2. Получаем тип услуги
	serviceType, err := uc.rules.GetServiceTypeByID(ctx, req.ServiceTypeID)
	if err != nil {
		if errors.Is(err, rules.ErrServiceTypeNotFound) {
			uc.logger.Warn("GetAvailableSlots: service type id=%d not found", req.ServiceTypeID)
			return nil, ErrServiceTypeNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service type id=%d: %v", req.ServiceTypeID, err)
		return nil, fmt.Errorf("%w: failed to get service type: %v", ErrInternal, err)
	}
	if !serviceType.IsActive {
		uc.logger.Warn("GetAvailableSlots: service type id=%d is inactive", req.ServiceTypeID)
		return nil, ErrServiceTypeNotFound
	}

	resp := &Response{
		Date:            date,
		ServiceTypeID:   serviceType.ID,
		ServiceName:     serviceType.Name,
		DurationMinutes: serviceType.EffectiveDuration(req.DurationMinutes),
		Slots:           []Slot{},
	}

	// 3. День недели
	allowed, err := uc.rules.IsBookingAllowedOnDay(ctx, serviceType.ID, date.Weekday())
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to check weekday: %v", err)
		return nil, fmt.Errorf("%w: failed to check weekday: %v", ErrInternal, err)
	}
	if !allowed {
		uc.logger.Info("GetAvailableSlots: service type id=%d is not bookable on %s", serviceType.ID, date.Weekday())
		resp.Unavailable = domain.ConflictDayNotAllowed
		return resp, nil
	}

	// 4. Дневная квота
	limits, err := uc.limits.CheckDailyBookingLimits(ctx, serviceType.ID, date, nil)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to check daily limits: %v", err)
		return nil, fmt.Errorf("%w: failed to check daily limits: %v", ErrInternal, err)
	}
	if !limits.IsValid {
		uc.logger.Info("GetAvailableSlots: daily limit reached %d/%d", limits.CurrentCount, limits.MaxAllowed)
		resp.Unavailable = domain.ConflictDailyLimitExceeded
		return resp, nil
	}

	// 5. Свободные слоты с учетом буферов и окна предварительной записи
	seq, err := uc.slots.Slots(ctx, date, serviceType, resp.DurationMinutes, nil)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to calculate slots: %v", err)
		return nil, fmt.Errorf("%w: failed to calculate slots: %v", ErrInternal, err)
	}

	duration := time.Duration(resp.DurationMinutes) * time.Minute
	for _, start := range slices.Collect(seq) {
		resp.Slots = append(resp.Slots, Slot{Start: start, End: start.Add(duration)})
	}

	uc.logger.Info("GetAvailableSlots: found %d slots", len(resp.Slots))
	return resp, nil
}
