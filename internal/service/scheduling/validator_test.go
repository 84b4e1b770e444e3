package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/ptr"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/txmanager"
)

func request(serviceTypeID int64, start time.Time, customerID int64) domain.ValidationRequest {
	return domain.ValidationRequest{
		ServiceTypeID: serviceTypeID,
		ScheduledDate: start,
		CustomerID:    customerID,
	}
}

func conflictTypes(result *domain.ValidationResult) []domain.ConflictType {
	types := make([]domain.ConflictType, len(result.Conflicts))
	for i, c := range result.Conflicts {
		types[i] = c.Type
	}
	return types
}

func TestValidator_DailyLimitExceeded(t *testing.T) {
	env := newTestEnv(cleaningService())
	env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(monday, 9, 0), DurationMinutes: 60})
	env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 11, ScheduledStart: at(monday, 11, 0), DurationMinutes: 60})

	result, err := env.validator.Validate(context.Background(), request(1, at(monday, 13, 0), 50))
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, []domain.ConflictType{domain.ConflictDailyLimitExceeded}, conflictTypes(result))
	assert.Equal(t, 2, *result.Conflicts[0].CurrentCount)
	assert.Equal(t, 2, *result.Conflicts[0].MaxAllowed)
	assert.False(t, result.Conflicts[0].Retryable)

	require.NotEmpty(t, result.Suggestions)
	assert.LessOrEqual(t, len(result.Suggestions), 3)
	assert.Equal(t, at(tuesday, 13, 0), result.Suggestions[0].Start)
	for _, s := range result.Suggestions {
		assert.Equal(t, domain.SuggestionDate, s.Kind)
		assert.Equal(t, domain.ConflictDailyLimitExceeded, s.Reason)
	}
	assert.Equal(t, []string{resultInvalid}, env.metrics.results)
}

func TestValidator_BufferedOverlap(t *testing.T) {
	tests := []struct {
		name          string
		start         time.Time
		wantOverlap   bool
		wantSuggested []time.Time
	}{
		{
			name:          "inside trailing buffer",
			start:         at(tuesday, 10, 0),
			wantOverlap:   true,
			wantSuggested: []time.Time{at(tuesday, 11, 0), at(tuesday, 12, 0), at(tuesday, 13, 0)},
		},
		{
			name:        "after trailing buffer",
			start:       at(tuesday, 10, 31),
			wantOverlap: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(cleaningService())
			existing := env.store.add(&domain.Appointment{
				ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 60,
			})

			result, err := env.validator.Validate(context.Background(), request(1, tt.start, 50))
			require.NoError(t, err)

			if !tt.wantOverlap {
				assert.True(t, result.IsValid)
				assert.Empty(t, result.Conflicts)
				return
			}

			require.Equal(t, []domain.ConflictType{domain.ConflictOverlappingAppointment}, conflictTypes(result))
			require.Len(t, result.Conflicts[0].Appointments, 1)
			assert.Equal(t, existing.ID, result.Conflicts[0].Appointments[0].ID)

			starts := make([]time.Time, 0, len(result.Suggestions))
			for _, s := range result.Suggestions {
				assert.Equal(t, domain.SuggestionTimeSlot, s.Kind)
				starts = append(starts, s.Start)
			}
			assert.Equal(t, tt.wantSuggested, starts)
		})
	}
}

func TestValidator_OverlapUsesEachSideBuffer(t *testing.T) {
	noBuffer := cleaningService()
	noBuffer.ID = 3
	noBuffer.Name = "Window wash"
	noBuffer.BufferMinutes = 0

	env := newTestEnv(cleaningService(), noBuffer)
	env.store.add(&domain.Appointment{ServiceTypeID: 3, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 60})

	// Существующая запись без буфера, но буфер кандидата (30 минут) должен соблюдаться
	result, err := env.validator.Validate(context.Background(), request(1, at(tuesday, 10, 15), 50))
	require.NoError(t, err)
	assert.Equal(t, []domain.ConflictType{domain.ConflictOverlappingAppointment}, conflictTypes(result))

	result, err = env.validator.Validate(context.Background(), request(1, at(tuesday, 10, 30), 50))
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestValidator_ExclusiveService(t *testing.T) {
	t.Run("exclusive service on a busy day", func(t *testing.T) {
		env := newTestEnv(cleaningService(), deepCleanService())
		existing := env.store.add(&domain.Appointment{
			ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 60,
		})

		result, err := env.validator.Validate(context.Background(), request(2, at(tuesday, 14, 0), 50))
		require.NoError(t, err)

		require.Equal(t, []domain.ConflictType{domain.ConflictExclusiveService}, conflictTypes(result))
		require.Len(t, result.Conflicts[0].Appointments, 1)
		assert.Equal(t, existing.ID, result.Conflicts[0].Appointments[0].ID)

		require.Len(t, result.Suggestions, 2)
		assert.Equal(t, at(tuesday.AddDate(0, 0, 7), 14, 0), result.Suggestions[0].Start)
		assert.Equal(t, at(tuesday.AddDate(0, 0, 14), 14, 0), result.Suggestions[1].Start)
		assert.Equal(t, domain.ConflictExclusiveService, result.Suggestions[0].Reason)
	})

	t.Run("any service on a day reserved by an exclusive booking", func(t *testing.T) {
		env := newTestEnv(cleaningService(), deepCleanService())
		env.store.add(&domain.Appointment{ServiceTypeID: 2, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 120})

		result, err := env.validator.Validate(context.Background(), request(1, at(tuesday, 15, 0), 50))
		require.NoError(t, err)

		assert.Equal(t, []domain.ConflictType{domain.ConflictExclusiveService}, conflictTypes(result))
		assert.Empty(t, result.Suggestions)
	})

	t.Run("exclusive service on a non-exclusive weekday", func(t *testing.T) {
		env := newTestEnv(cleaningService(), deepCleanService())
		env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(monday, 9, 0), DurationMinutes: 60})

		result, err := env.validator.Validate(context.Background(), request(2, at(monday, 14, 0), 50))
		require.NoError(t, err)
		assert.True(t, result.IsValid)
	})
}

func TestValidator_TooManyPending(t *testing.T) {
	env := newTestEnv(cleaningService())
	for i := 0; i < 3; i++ {
		env.store.add(&domain.Appointment{
			ServiceTypeID: 1, CustomerID: 50, ScheduledStart: at(monday.AddDate(0, 0, 2+i), 9, 0), DurationMinutes: 60,
		})
	}

	result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 0), 50))
	require.NoError(t, err)

	require.Equal(t, []domain.ConflictType{domain.ConflictTooManyPending}, conflictTypes(result))
	assert.Equal(t, 3, *result.Conflicts[0].CurrentCount)
	assert.Equal(t, domain.MaxPendingPerCustomer, *result.Conflicts[0].MaxAllowed)
}

func TestValidator_CustomerRestrictions(t *testing.T) {
	window := cleaningService()
	window.ID = 3
	window.Name = "Window wash"

	env := newTestEnv(cleaningService(), window)
	sameDay := env.store.add(&domain.Appointment{
		ServiceTypeID: 3, CustomerID: 50, ScheduledStart: at(monday, 16, 0), DurationMinutes: 60,
	})
	env.store.add(&domain.Appointment{
		ServiceTypeID: 1, CustomerID: 50, Status: domain.StatusCancelled, UpdatedAt: now.AddDate(0, 0, -1),
	})
	env.store.add(&domain.Appointment{
		ServiceTypeID: 1, CustomerID: 50, Status: domain.StatusCancelled, UpdatedAt: now.AddDate(0, 0, -6),
	})
	// Отмена другой услуги и давняя отмена не учитываются
	env.store.add(&domain.Appointment{
		ServiceTypeID: 3, CustomerID: 50, Status: domain.StatusCancelled, UpdatedAt: now,
	})
	env.store.add(&domain.Appointment{
		ServiceTypeID: 1, CustomerID: 50, Status: domain.StatusCancelled, UpdatedAt: now.AddDate(0, 0, -8),
	})

	result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 0), 50))
	require.NoError(t, err)

	assert.Equal(t, []domain.ConflictType{
		domain.ConflictCustomerSameDay,
		domain.ConflictTooManyRecentCancellations,
	}, conflictTypes(result))
	assert.Equal(t, []*domain.Appointment{sameDay}, result.Conflicts[0].Appointments)
	assert.Equal(t, 2, *result.Conflicts[1].CurrentCount)
}

func TestValidator_ServiceValidity(t *testing.T) {
	inactive := cleaningService()
	inactive.IsActive = false
	inactive.RequiresApproval = true

	env := newTestEnv(inactive)

	result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 0), 50))
	require.NoError(t, err)
	assert.Equal(t, []domain.ConflictType{domain.ConflictInvalidServiceType}, conflictTypes(result))
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Suggestions)

	result, err = env.validator.Validate(context.Background(), request(99, at(monday, 10, 0), 50))
	require.NoError(t, err)
	assert.Equal(t, []domain.ConflictType{domain.ConflictInvalidServiceType}, conflictTypes(result))
	assert.False(t, result.Conflicts[0].Retryable)
}

func TestValidator_InvalidInput(t *testing.T) {
	env := newTestEnv(cleaningService())

	tests := []struct {
		name string
		req  domain.ValidationRequest
	}{
		{"zero service type", request(0, at(monday, 10, 0), 50)},
		{"zero customer", request(1, at(monday, 10, 0), 0)},
		{"zero date", request(1, time.Time{}, 50)},
		{"negative duration", domain.ValidationRequest{ServiceTypeID: 1, CustomerID: 50, ScheduledDate: at(monday, 10, 0), DurationMinutes: -5}},
		{"bad exclude id", domain.ValidationRequest{ServiceTypeID: 1, CustomerID: 50, ScheduledDate: at(monday, 10, 0), ExcludeAppointmentID: ptr.Ptr(int64(0))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.validator.Validate(context.Background(), tt.req)
			require.NoError(t, err)
			require.Equal(t, []domain.ConflictType{domain.ConflictValidationError}, conflictTypes(result))
			assert.True(t, result.Conflicts[0].Retryable)
		})
	}
}

func TestValidator_DayAndAdvanceRules(t *testing.T) {
	t.Run("day not allowed", func(t *testing.T) {
		env := newTestEnv(cleaningService())

		result, err := env.validator.Validate(context.Background(), request(1, at(saturday, 10, 0), 50))
		require.NoError(t, err)

		require.Equal(t, []domain.ConflictType{domain.ConflictDayNotAllowed}, conflictTypes(result))
		assert.Equal(t, weekdays, result.Conflicts[0].AllowedDays)
		require.Len(t, result.Suggestions, 3)
		assert.Equal(t, at(monday, 10, 0), result.Suggestions[0].Start)
		assert.Equal(t, at(tuesday, 10, 0), result.Suggestions[1].Start)
	})

	t.Run("too early", func(t *testing.T) {
		st := cleaningService()
		st.MinAdvanceHours = 48
		env := newTestEnv(st)

		result, err := env.validator.Validate(context.Background(), request(1, now.Add(26*time.Hour), 50))
		require.NoError(t, err)

		require.Equal(t, []domain.ConflictType{domain.ConflictAdvanceTimeViolation}, conflictTypes(result))
		assert.Equal(t, "Booking must be made at least 48 hours in advance", result.Conflicts[0].Message)
	})

	t.Run("too far", func(t *testing.T) {
		st := cleaningService()
		st.MaxAdvanceDays = 5
		env := newTestEnv(st)

		result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 0), 50))
		require.NoError(t, err)

		require.Equal(t, []domain.ConflictType{domain.ConflictAdvanceTimeViolation}, conflictTypes(result))
		assert.Equal(t, "Booking cannot be more than 5 days in advance", result.Conflicts[0].Message)
	})

	t.Run("outside operating hours", func(t *testing.T) {
		env := newTestEnv(cleaningService())

		result, err := env.validator.Validate(context.Background(), request(1, at(monday, 17, 30), 50))
		require.NoError(t, err)

		require.Equal(t, []domain.ConflictType{domain.ConflictSlotNotAvailable}, conflictTypes(result))
		require.Len(t, result.Suggestions, 5)
		assert.Equal(t, at(monday, 9, 0), result.Suggestions[0].Start)
		assert.Equal(t, domain.SuggestionTimeSlot, result.Suggestions[0].Kind)
	})

	t.Run("raw overlap reports both slot and buffer conflicts", func(t *testing.T) {
		env := newTestEnv(cleaningService())
		env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(monday, 10, 0), DurationMinutes: 60})

		result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 30), 50))
		require.NoError(t, err)

		assert.Equal(t, []domain.ConflictType{
			domain.ConflictSlotNotAvailable,
			domain.ConflictOverlappingAppointment,
		}, conflictTypes(result))
	})
}

func TestValidator_Warnings(t *testing.T) {
	st := cleaningService()
	st.MinAdvanceHours = 24
	st.RequiresApproval = true
	env := newTestEnv(st)

	// Вторник, через 30 часов: больше минимума, но меньше 1.5 * 24
	start := now.Add(30 * time.Hour)
	result, err := env.validator.Validate(context.Background(), request(1, start, 50))
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 3)
	assert.Equal(t, domain.WarningShortNotice, result.Warnings[0].Type)
	assert.Equal(t, domain.WarningBusyDay, result.Warnings[1].Type)
	assert.Equal(t, domain.WarningRequiresApproval, result.Warnings[2].Type)

	plain := cleaningService()
	plain.MinAdvanceHours = 24
	assert.Empty(t, Warnings(plain, at(monday.AddDate(0, 0, 3), 10, 0), now))
}

func TestValidator_InfrastructureFailuresAreIsolated(t *testing.T) {
	t.Run("quota check failure", func(t *testing.T) {
		env := newTestEnv(cleaningService())
		env.store.failing["CountActive"] = errors.New("connection reset")
		for i := 0; i < 3; i++ {
			env.store.add(&domain.Appointment{
				ServiceTypeID: 1, CustomerID: 50, ScheduledStart: at(monday.AddDate(0, 0, 2+i), 9, 0), DurationMinutes: 60,
			})
		}

		result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 0), 50))
		require.NoError(t, err)

		assert.Equal(t, []domain.ConflictType{
			domain.ConflictDailyLimitCheckError,
			domain.ConflictTooManyPending,
		}, conflictTypes(result))
		assert.True(t, result.Conflicts[0].Retryable)
		assert.False(t, result.OnlyInfrastructureFailures())
	})

	t.Run("exclusivity check failure keeps overlap result", func(t *testing.T) {
		env := newTestEnv(cleaningService())
		env.store.failing["FindActiveOnDay"] = errors.New("timeout")
		env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 60})

		result, err := env.validator.Validate(context.Background(), request(1, at(tuesday, 10, 0), 50))
		require.NoError(t, err)

		assert.Equal(t, []domain.ConflictType{
			domain.ConflictOverlappingAppointment,
			domain.ConflictExclusivityCheckError,
		}, conflictTypes(result))
	})

	t.Run("only infrastructure failures", func(t *testing.T) {
		env := newTestEnv(cleaningService())
		env.store.failing["MaxBufferMinutes"] = errors.New("timeout")
		env.store.failing["CountActivePendingForCustomer"] = errors.New("timeout")

		result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 0), 50))
		require.NoError(t, err)

		assert.Equal(t, []domain.ConflictType{
			domain.ConflictOverlapCheckError,
			domain.ConflictCustomerCheckError,
		}, conflictTypes(result))
		assert.True(t, result.OnlyInfrastructureFailures())
		assert.Equal(t, []string{resultInfrastructure}, env.metrics.results)
	})

	t.Run("service type lookup failure", func(t *testing.T) {
		env := newTestEnv(cleaningService())
		env.store.failing["GetByID"] = errors.New("timeout")

		result, err := env.validator.Validate(context.Background(), request(1, at(monday, 10, 0), 50))
		require.NoError(t, err)

		require.Equal(t, []domain.ConflictType{domain.ConflictValidationError}, conflictTypes(result))
		assert.True(t, result.Conflicts[0].Retryable)
	})
}

func TestValidator_ExcludeAppointment(t *testing.T) {
	env := newTestEnv(cleaningService())
	self := env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 50, ScheduledStart: at(monday, 10, 0), DurationMinutes: 60})

	req := request(1, at(monday, 10, 30), 50)
	result, err := env.validator.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsValid)

	req.ExcludeAppointmentID = ptr.Ptr(self.ID)
	result, err = env.validator.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsValid, "conflicts: %v", result.ConflictTypes())
}

func TestValidator_Idempotent(t *testing.T) {
	env := newTestEnv(cleaningService(), deepCleanService())
	env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 60})
	env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 11, ScheduledStart: at(tuesday, 14, 0), DurationMinutes: 60})

	req := request(1, at(tuesday, 10, 0), 50)
	first, err := env.validator.Validate(context.Background(), req)
	require.NoError(t, err)
	second, err := env.validator.Validate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestValidator_SuggestionsAreSound(t *testing.T) {
	cases := []struct {
		name  string
		setup func(store *memoryStore)
		req   domain.ValidationRequest
	}{
		{
			name: "daily limit",
			setup: func(store *memoryStore) {
				store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(monday, 9, 0), DurationMinutes: 60})
				store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 11, ScheduledStart: at(monday, 11, 0), DurationMinutes: 60})
				store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 12, ScheduledStart: at(tuesday, 13, 0), DurationMinutes: 60})
			},
			req: request(1, at(monday, 13, 0), 50),
		},
		{
			name: "overlap",
			setup: func(store *memoryStore) {
				store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 60})
			},
			req: request(1, at(tuesday, 10, 0), 50),
		},
		{
			name: "exclusive",
			setup: func(store *memoryStore) {
				store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(tuesday, 9, 0), DurationMinutes: 60})
			},
			req: request(2, at(tuesday, 14, 0), 50),
		},
		{
			name: "daily limit next to an exclusive day",
			setup: func(store *memoryStore) {
				store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(monday, 13, 0), DurationMinutes: 60})
				store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 11, ScheduledStart: at(monday, 15, 0), DurationMinutes: 60})
				store.add(&domain.Appointment{ServiceTypeID: 2, CustomerID: 12, ScheduledStart: at(tuesday, 14, 0), DurationMinutes: 120})
			},
			req: request(1, at(monday, 10, 0), 50),
		},
		{
			name:  "day not allowed",
			setup: func(store *memoryStore) {},
			req:   request(1, at(saturday, 10, 0), 50),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(cleaningService(), deepCleanService())
			tc.setup(env.store)

			result, err := env.validator.Validate(context.Background(), tc.req)
			require.NoError(t, err)
			require.False(t, result.IsValid)
			require.NotEmpty(t, result.Suggestions)

			for _, s := range result.Suggestions {
				retry := tc.req
				retry.ScheduledDate = s.Start
				got, err := env.validator.Validate(context.Background(), retry)
				require.NoError(t, err)
				assert.True(t, got.IsValid, "suggestion %s: %v", s.Start, got.ConflictTypes())
			}
		})
	}
}

func TestValidator_ContextCancelled(t *testing.T) {
	env := newTestEnv(cleaningService())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.validator.Validate(ctx, request(1, at(monday, 10, 0), 50))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, []string{resultCancelled}, env.metrics.results)
}

func TestValidator_CheckDailyBookingLimits(t *testing.T) {
	env := newTestEnv(cleaningService())
	env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(monday, 9, 0), DurationMinutes: 60})

	limits, err := env.validator.CheckDailyBookingLimits(context.Background(), 1, monday, nil)
	require.NoError(t, err)
	assert.True(t, limits.IsValid)
	assert.Equal(t, 1, limits.CurrentCount)
	assert.Equal(t, 2, limits.MaxAllowed)
	assert.Nil(t, limits.Conflict)

	env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 11, ScheduledStart: at(monday, 12, 0), DurationMinutes: 60})
	limits, err = env.validator.CheckDailyBookingLimits(context.Background(), 1, monday, nil)
	require.NoError(t, err)
	assert.False(t, limits.IsValid)
	require.NotNil(t, limits.Conflict)
	assert.Equal(t, domain.ConflictDailyLimitExceeded, limits.Conflict.Type)
	require.NotEmpty(t, limits.Suggestions)
	assert.Equal(t, at(tuesday, 9, 0), limits.Suggestions[0].Start)

	_, err = env.validator.CheckDailyBookingLimits(context.Background(), 42, monday, nil)
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	env.store.failing["CountActive"] = errors.New("timeout")
	_, err = env.validator.CheckDailyBookingLimits(context.Background(), 1, monday, nil)
	assert.ErrorIs(t, err, ErrCheckFailed)
}

func TestValidator_Recheck(t *testing.T) {
	env := newTestEnv(cleaningService())
	env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 10, ScheduledStart: at(monday, 9, 0), DurationMinutes: 60})
	for i := 0; i < 3; i++ {
		env.store.add(&domain.Appointment{ServiceTypeID: 1, CustomerID: 50, ScheduledStart: at(monday.AddDate(0, 0, 2+i), 9, 0), DurationMinutes: 60})
	}

	c, conflict := env.validator.CheckServiceValidity(context.Background(), request(1, at(monday, 10, 0), 50))
	require.Nil(t, conflict)

	result, err := env.validator.Recheck(context.Background(), c)
	require.NoError(t, err)
	// Ограничения клиента не перепроверяются, альтернативы не ищутся
	assert.Equal(t, []domain.ConflictType{domain.ConflictOverlappingAppointment}, conflictTypes(result))
	assert.Empty(t, result.Suggestions)
	assert.Empty(t, env.metrics.results)

	c.Start = at(monday, 14, 0)
	result, err = env.validator.Recheck(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestValidator_Recheck_StaleMaxBuffer(t *testing.T) {
	windows := cleaningService()
	windows.ID = 3
	windows.Name = "Window washing"
	windows.BufferMinutes = 90

	env := newTestEnv(cleaningService(), windows)
	env.store.staleMaxBuffer = ptr.Ptr(30)
	env.store.add(&domain.Appointment{ServiceTypeID: 3, CustomerID: 10, ScheduledStart: at(monday, 9, 0), DurationMinutes: 60})

	// Разрыв 60 минут меньше буфера 90, но окно [10:30, 12:30) эту запись не захватывает
	c, conflict := env.validator.CheckServiceValidity(context.Background(), request(1, at(monday, 11, 0), 50))
	require.Nil(t, conflict)

	colliding, err := env.validator.FindCollisions(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, colliding)

	result, err := env.validator.Recheck(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, []domain.ConflictType{domain.ConflictOverlappingAppointment}, conflictTypes(result))
	assert.Equal(t, int64(1), result.Conflicts[0].Appointments[0].ID)
}

func TestValidator_Recheck_ReturnsStorageErrors(t *testing.T) {
	for _, method := range []string{"CountActive", "MaxBufferMinutes", "FindActiveInRange", "FindActiveOnDay"} {
		t.Run(method, func(t *testing.T) {
			env := newTestEnv(cleaningService())
			c, conflict := env.validator.CheckServiceValidity(context.Background(), request(1, at(monday, 10, 0), 50))
			require.Nil(t, conflict)

			env.store.failing[method] = &pq.Error{Code: "40001", Message: "could not serialize access"}

			result, err := env.validator.Recheck(context.Background(), c)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrCheckFailed)
			assert.True(t, txmanager.IsRetryable(err))
		})
	}
}
