package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	appointmentRepo "github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage/appointment"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/appointments/models"
)

// Service сервис жизненного цикла записей
type Service struct {
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(appointmentRepo AppointmentRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		logger:          logger,
	}
}

// GetByID получает запись по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%d", id)

	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("GetByID: appointment id=%d not found", id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetByID: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainAppointment(appointment), nil
}

// UpdateStatus переводит запись в новый статус по таблице переходов:
// pending -> confirmed/cancelled, confirmed -> completed/cancelled
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.AppointmentResponse, error) {
	s.logger.Info("UpdateStatus: updating appointment id=%d to status=%s by user=%d", id, req.Status, req.UserID)

	next, ok := domain.ParseAppointmentStatus(req.Status)
	if !ok {
		s.logger.Warn("UpdateStatus: invalid status=%q for appointment id=%d", req.Status, id)
		return nil, ErrInvalidStatus
	}

	var updated *domain.Appointment
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		// 1. Получаем текущее состояние записи
		appointment, err := s.appointmentRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("%w: UpdateStatus - get appointment: %v", ErrInternal, err)
		}

		// 2. Проверяем допустимость перехода
		if !appointment.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appointment.Status, next)
		}

		// 3. Сохраняем новый статус (updated_at обновляется в хранилище)
		if err := s.appointmentRepo.UpdateStatus(ctx, id, next); err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("%w: UpdateStatus - update status: %v", ErrInternal, err)
		}

		updated, err = s.appointmentRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: UpdateStatus - reload appointment: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, ErrInvalidTransition):
			s.logger.Warn("UpdateStatus: appointment id=%d: %v", id, err)
		default:
			s.logger.Error("UpdateStatus: appointment id=%d: %v", id, err)
		}
		return nil, err
	}

	s.logger.Info("UpdateStatus: appointment id=%d is now %s", id, next)
	return models.FromDomainAppointment(updated), nil
}
