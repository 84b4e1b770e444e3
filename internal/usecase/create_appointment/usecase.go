package create_appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
)

// Результаты сохранения для метрик
const (
	commitCreated     = "created"
	commitRejected    = "rejected"
	commitSlotTaken   = "slot_taken"
	commitUnavailable = "unavailable"
	commitError       = "error"
)

// UseCase use case для создания записи
type UseCase struct {
	validator       Validator
	commitChecker   CommitChecker
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	metrics         Metrics
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	validator Validator,
	commitChecker CommitChecker,
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		validator:       validator,
		commitChecker:   commitChecker,
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute проверяет запись и сохраняет её.
// Проверка носит рекомендательный характер: квота, буферные пересечения и эксклюзивность
// перепроверяются в сериализуемой транзакции под блокировкой календарного дня.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateAppointment: user=%d, service_type=%d, start=%s, duration=%d",
		req.UserID, req.ServiceTypeID, req.ScheduledStart.UTC().Format(time.RFC3339), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: invalid input: %v", err)
		return nil, err
	}

	validationReq := domain.ValidationRequest{
		ServiceTypeID:   req.ServiceTypeID,
		ScheduledDate:   req.ScheduledStart.UTC(),
		DurationMinutes: req.DurationMinutes,
		CustomerID:      req.UserID,
	}

	// 2. Полная проверка правил
	validation, err := uc.validator.Validate(ctx, validationReq)
	if err != nil {
		return nil, err
	}
	if !validation.IsValid {
		if validation.OnlyInfrastructureFailures() {
			uc.logger.Warn("CreateAppointment: validation unavailable for user=%d: %v", req.UserID, validation.ConflictTypes())
			uc.metrics.ObserveCommit(commitUnavailable)
			return nil, NewConflictError(ErrValidationUnavailable, validation)
		}
		uc.logger.Info("CreateAppointment: rejected for user=%d: %v", req.UserID, validation.ConflictTypes())
		uc.metrics.ObserveCommit(commitRejected)
		return nil, NewConflictError(ErrValidationFailed, validation)
	}

	// 3. Перепроверка и сохранение в сериализуемой транзакции
	var created *domain.Appointment
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 3.1. Сериализуем записи на один календарный день
		if err := uc.appointmentRepo.LockDay(txCtx, validationReq.ScheduledDate); err != nil {
			return fmt.Errorf("%w: failed to lock day: %w", ErrInternal, err)
		}

		// 3.2. Тип услуги мог стать неактивным после проверки
		candidate, conflict := uc.commitChecker.CheckServiceValidity(txCtx, validationReq)
		if conflict != nil {
			result := domain.NewValidationResult()
			result.AddConflict(*conflict)
			if result.OnlyInfrastructureFailures() {
				return NewConflictError(ErrValidationUnavailable, result)
			}
			return NewConflictError(ErrValidationFailed, result)
		}

		// 3.3. Состояние календаря под блокировкой; ошибка хранилища уходит в менеджер транзакций
		recheck, err := uc.commitChecker.Recheck(txCtx, candidate)
		if err != nil {
			return fmt.Errorf("%w: recheck: %w", ErrValidationUnavailable, err)
		}
		if !recheck.IsValid {
			return NewConflictError(ErrSlotTaken, recheck)
		}

		// 3.4. Сохраняем запись
		appointment, err := uc.appointmentRepo.Create(txCtx, &domain.Appointment{
			ServiceTypeID:        candidate.ServiceType.ID,
			CustomerID:           req.UserID,
			ScheduledStart:       candidate.Start,
			DurationMinutes:      candidate.DurationMinutes,
			Status:               domain.StatusPending,
			Notes:                req.Notes,
			ServiceName:          candidate.ServiceType.Name,
			ServiceBufferMinutes: candidate.ServiceType.BufferMinutes,
			ServiceExclusiveDays: candidate.ServiceType.ExclusiveDays,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to create appointment: %w", ErrInternal, err)
		}

		created = appointment
		return nil
	})
	if err != nil {
		return nil, uc.commitFailed(req, err)
	}

	uc.metrics.ObserveCommit(commitCreated)
	uc.logger.Info("CreateAppointment: created appointment id=%d for user=%d", created.ID, req.UserID)

	return &Response{
		Appointment: created,
		Warnings:    validation.Warnings,
	}, nil
}

func (uc *UseCase) commitFailed(req *Request, err error) error {
	var conflictErr *ConflictError
	switch {
	case errors.As(err, &conflictErr) && errors.Is(err, ErrSlotTaken):
		uc.logger.Warn("CreateAppointment: slot taken concurrently for user=%d: %v", req.UserID, conflictErr.Result.ConflictTypes())
		uc.metrics.ObserveCommit(commitSlotTaken)
	case errors.As(err, &conflictErr) && errors.Is(err, ErrValidationUnavailable):
		uc.logger.Warn("CreateAppointment: recheck unavailable for user=%d: %v", req.UserID, conflictErr.Result.ConflictTypes())
		uc.metrics.ObserveCommit(commitUnavailable)
	case errors.As(err, &conflictErr):
		uc.logger.Info("CreateAppointment: rejected on recheck for user=%d: %v", req.UserID, conflictErr.Result.ConflictTypes())
		uc.metrics.ObserveCommit(commitRejected)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		uc.metrics.ObserveCommit(commitError)
		return err
	case errors.Is(err, ErrValidationUnavailable):
		uc.logger.Warn("CreateAppointment: recheck failed for user=%d: %v", req.UserID, err)
		uc.metrics.ObserveCommit(commitUnavailable)
		result := domain.NewValidationResult()
		result.AddConflict(domain.Conflict{
			Type:    domain.ConflictValidationError,
			Message: "Failed to re-check the calendar, please retry",
		})
		return NewConflictError(err, result)
	default:
		uc.logger.Error("CreateAppointment: commit failed for user=%d: %v", req.UserID, err)
		uc.metrics.ObserveCommit(commitError)
		if !errors.Is(err, ErrInternal) {
			return fmt.Errorf("%w: %w", ErrInternal, err)
		}
	}
	return err
}
