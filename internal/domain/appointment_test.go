package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/types"
)

func TestAppointment_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			a := &Appointment{Status: tt.from}
			assert.Equal(t, tt.want, a.CanTransitionTo(tt.to))
		})
	}
}

func TestAppointment_IsActive(t *testing.T) {
	assert.True(t, (&Appointment{Status: StatusPending}).IsActive())
	assert.True(t, (&Appointment{Status: StatusConfirmed}).IsActive())
	assert.False(t, (&Appointment{Status: StatusCompleted}).IsActive())
	assert.False(t, (&Appointment{Status: StatusCancelled}).IsActive())
	assert.True(t, (&Appointment{Status: StatusCancelled}).IsTerminal())
}

func TestAppointment_CollidesWith(t *testing.T) {
	day := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	existing := &Appointment{
		ScheduledStart:       day.Add(9 * time.Hour),
		DurationMinutes:      60,
		ServiceBufferMinutes: 30,
	}

	tests := []struct {
		name   string
		start  time.Time
		buffer int
		want   bool
	}{
		{"inside trailing buffer", day.Add(10 * time.Hour), 30, true},
		{"just after trailing buffer", day.Add(10*time.Hour + 31*time.Minute), 30, false},
		{"exactly at buffer end", day.Add(10*time.Hour + 30*time.Minute), 30, false},
		{"inside leading buffer", day.Add(7*time.Hour + 45*time.Minute), 0, true},
		{"candidate buffer reaches existing", day.Add(10*time.Hour + 40*time.Minute), 45, true},
		{"far away", day.Add(14 * time.Hour), 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := timerange.New(tt.start, 60)
			assert.Equal(t, tt.want, existing.CollidesWith(candidate, tt.buffer))
		})
	}
}

func TestAppointment_IsExclusiveDay(t *testing.T) {
	tuesday := time.Date(2025, 10, 14, 10, 0, 0, 0, time.UTC)
	a := &Appointment{ScheduledStart: tuesday, ServiceExclusiveDays: []time.Weekday{time.Tuesday}}
	assert.True(t, a.IsExclusiveDay())

	a.ScheduledStart = tuesday.AddDate(0, 0, 1)
	assert.False(t, a.IsExclusiveDay())
}

func TestServiceType_Rules(t *testing.T) {
	open := types.MustTimeString("10:00")
	st := &ServiceType{
		DurationMinutes: 90,
		AllowedDays:     []time.Weekday{time.Monday, time.Tuesday},
		ExclusiveDays:   []time.Weekday{time.Tuesday},
		OpenTime:        &open,
	}

	assert.True(t, st.IsAllowedOn(time.Monday))
	assert.False(t, st.IsAllowedOn(time.Sunday))
	assert.True(t, st.IsExclusiveOn(time.Tuesday))
	assert.False(t, st.IsExclusiveOn(time.Monday))
	assert.Equal(t, 90, st.EffectiveDuration(0))
	assert.Equal(t, 45, st.EffectiveDuration(45))
	assert.False(t, st.HasAdvanceBookingLimit())

	gotOpen, gotClose := st.OperatingHours(types.MustTimeString("09:00"), types.MustTimeString("18:00"))
	assert.Equal(t, open, gotOpen)
	assert.Equal(t, types.TimeString("18:00"), gotClose)
}

func TestValidationResult(t *testing.T) {
	r := NewValidationResult()
	assert.True(t, r.IsValid)
	assert.False(t, r.OnlyInfrastructureFailures())

	r.AddConflict(Conflict{Type: ConflictOverlapCheckError, Message: "db down"})
	assert.False(t, r.IsValid)
	assert.True(t, r.Conflicts[0].Retryable)
	assert.True(t, r.OnlyInfrastructureFailures())

	r.AddConflict(Conflict{Type: ConflictTooManyPending})
	assert.False(t, r.OnlyInfrastructureFailures())
	assert.True(t, r.HasConflict(ConflictTooManyPending))
	assert.Equal(t, []string{"OVERLAP_CHECK_ERROR", "TOO_MANY_PENDING"}, r.ConflictTypes())
}

func TestParseAppointmentStatus(t *testing.T) {
	status, ok := ParseAppointmentStatus("confirmed")
	assert.True(t, ok)
	assert.Equal(t, StatusConfirmed, status)

	_, ok = ParseAppointmentStatus("no_show")
	assert.False(t, ok)
}

func TestServiceType_AdvanceWindowViolation(t *testing.T) {
	now := time.Date(2025, 10, 13, 12, 0, 0, 0, time.UTC)
	st := &ServiceType{MinAdvanceHours: 24, MaxAdvanceDays: 30}

	assert.Equal(t, "Booking must be made at least 24 hours in advance", st.AdvanceWindowViolation(now.Add(23*time.Hour), now))
	assert.Empty(t, st.AdvanceWindowViolation(now.Add(24*time.Hour), now))
	assert.Empty(t, st.AdvanceWindowViolation(now.AddDate(0, 0, 30), now))
	assert.Equal(t, "Booking cannot be more than 30 days in advance", st.AdvanceWindowViolation(now.AddDate(0, 0, 31), now))

	unlimited := &ServiceType{}
	assert.Empty(t, unlimited.AdvanceWindowViolation(now.AddDate(2, 0, 0), now))
	assert.Equal(t, "Booking time cannot be in the past", unlimited.AdvanceWindowViolation(now.Add(-time.Minute), now))
}
