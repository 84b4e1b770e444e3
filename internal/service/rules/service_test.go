package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	serviceTypeRepo "github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage/servicetype"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/logger"
)

type stubServiceTypes struct {
	items     map[int64]*domain.ServiceType
	maxBuffer int
	err       error
}

func (s *stubServiceTypes) GetByID(_ context.Context, id int64) (*domain.ServiceType, error) {
	if s.err != nil {
		return nil, s.err
	}
	st, ok := s.items[id]
	if !ok {
		return nil, serviceTypeRepo.ErrServiceTypeNotFound
	}
	return st, nil
}

func (s *stubServiceTypes) MaxBufferMinutes(_ context.Context) (int, error) {
	return s.maxBuffer, s.err
}

type stubAppointments struct {
	onDay []*domain.Appointment
	err   error
}

func (s *stubAppointments) FindActiveOnDay(_ context.Context, _ time.Time, _ *int64) ([]*domain.Appointment, error) {
	return s.onDay, s.err
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var (
	now     = time.Date(2025, 10, 13, 8, 0, 0, 0, time.UTC) // понедельник
	tuesday = time.Date(2025, 10, 14, 10, 0, 0, 0, time.UTC)
)

func newTestService(types *stubServiceTypes, appointments *stubAppointments) *Service {
	return NewService(types, appointments, fixedClock(now), logger.NewNop())
}

func TestService_GetServiceTypeByID(t *testing.T) {
	svc := newTestService(&stubServiceTypes{items: map[int64]*domain.ServiceType{1: {ID: 1}}}, &stubAppointments{})

	st, err := svc.GetServiceTypeByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.ID)

	_, err = svc.GetServiceTypeByID(context.Background(), 2)
	assert.ErrorIs(t, err, ErrServiceTypeNotFound)

	broken := newTestService(&stubServiceTypes{err: errors.New("connection refused")}, &stubAppointments{})
	_, err = broken.GetServiceTypeByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrServiceTypeNotFound)
}

func TestService_DayRules(t *testing.T) {
	svc := newTestService(&stubServiceTypes{items: map[int64]*domain.ServiceType{
		1: {ID: 1, AllowedDays: []time.Weekday{time.Monday, time.Tuesday}, ExclusiveDays: []time.Weekday{time.Tuesday}},
	}}, &stubAppointments{})

	allowed, err := svc.IsBookingAllowedOnDay(context.Background(), 1, time.Monday)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.IsBookingAllowedOnDay(context.Background(), 1, time.Sunday)
	require.NoError(t, err)
	assert.False(t, allowed)

	exclusive, err := svc.IsExclusiveOnDay(context.Background(), 1, time.Tuesday)
	require.NoError(t, err)
	assert.True(t, exclusive)

	_, err = svc.IsExclusiveOnDay(context.Background(), 9, time.Tuesday)
	assert.ErrorIs(t, err, ErrServiceTypeNotFound)
}

func TestService_ValidateAdvanceBookingTime(t *testing.T) {
	svc := newTestService(&stubServiceTypes{items: map[int64]*domain.ServiceType{
		1: {ID: 1, MinAdvanceHours: 48, MaxAdvanceDays: 14},
	}}, &stubAppointments{})

	check, err := svc.ValidateAdvanceBookingTime(context.Background(), 1, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, check.IsValid)
	assert.Equal(t, "Booking must be made at least 48 hours in advance", check.Message)

	check, err = svc.ValidateAdvanceBookingTime(context.Background(), 1, now.AddDate(0, 0, 15))
	require.NoError(t, err)
	assert.Equal(t, "Booking cannot be more than 14 days in advance", check.Message)

	check, err = svc.ValidateAdvanceBookingTime(context.Background(), 1, now.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.True(t, check.IsValid)
	assert.Empty(t, check.Message)
}

func TestService_GetExclusiveServiceConflicts(t *testing.T) {
	exclusiveOnTuesday := &domain.ServiceType{ID: 1, ExclusiveDays: []time.Weekday{time.Tuesday}}
	regular := &domain.ServiceType{ID: 2}

	plain := &domain.Appointment{ID: 10, ScheduledStart: tuesday.Add(2 * time.Hour)}
	exclusive := &domain.Appointment{ID: 11, ScheduledStart: tuesday, ServiceExclusiveDays: []time.Weekday{time.Tuesday}}

	tests := []struct {
		name      string
		serviceID int64
		onDay     []*domain.Appointment
		wantIDs   []int64
	}{
		{"exclusive service conflicts with any appointment", 1, []*domain.Appointment{plain}, []int64{10}},
		{"regular service conflicts with existing exclusive booking", 2, []*domain.Appointment{plain, exclusive}, []int64{11}},
		{"regular service on a day without exclusive bookings", 2, []*domain.Appointment{plain}, nil},
		{"empty day", 1, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(
				&stubServiceTypes{items: map[int64]*domain.ServiceType{1: exclusiveOnTuesday, 2: regular}},
				&stubAppointments{onDay: tt.onDay},
			)

			got, err := svc.GetExclusiveServiceConflicts(context.Background(), tt.serviceID, tuesday, nil)
			require.NoError(t, err)

			ids := make([]int64, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestService_GetExclusiveServiceConflicts_RepositoryError(t *testing.T) {
	svc := newTestService(
		&stubServiceTypes{items: map[int64]*domain.ServiceType{1: {ID: 1}}},
		&stubAppointments{err: errors.New("timeout")},
	)

	_, err := svc.GetExclusiveServiceConflicts(context.Background(), 1, tuesday, nil)
	assert.ErrorIs(t, err, ErrInternal)
}
