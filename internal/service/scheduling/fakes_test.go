package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	serviceTypeRepo "github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage/servicetype"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/rules"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/logger"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/types"
)

// memoryStore хранилище типов услуг и записей в памяти
type memoryStore struct {
	serviceTypes map[int64]*domain.ServiceType
	appointments []*domain.Appointment
	failing      map[string]error
	// staleMaxBuffer отставший от типов услуг максимум буфера, как из кэша с TTL
	staleMaxBuffer *int
}

func newMemoryStore(serviceTypes ...*domain.ServiceType) *memoryStore {
	store := &memoryStore{
		serviceTypes: make(map[int64]*domain.ServiceType),
		failing:      make(map[string]error),
	}
	for _, st := range serviceTypes {
		store.serviceTypes[st.ID] = st
	}
	return store
}

func (m *memoryStore) add(a *domain.Appointment) *domain.Appointment {
	if a.ID == 0 {
		a.ID = int64(len(m.appointments) + 1)
	}
	if a.Status == "" {
		a.Status = domain.StatusPending
	}
	m.appointments = append(m.appointments, a)
	return a
}

func (m *memoryStore) GetByID(_ context.Context, id int64) (*domain.ServiceType, error) {
	if err := m.failing["GetByID"]; err != nil {
		return nil, err
	}
	st, ok := m.serviceTypes[id]
	if !ok {
		return nil, serviceTypeRepo.ErrServiceTypeNotFound
	}
	return st, nil
}

func (m *memoryStore) MaxBufferMinutes(_ context.Context) (int, error) {
	if err := m.failing["MaxBufferMinutes"]; err != nil {
		return 0, err
	}
	if m.staleMaxBuffer != nil {
		return *m.staleMaxBuffer, nil
	}
	maxBuffer := 0
	for _, st := range m.serviceTypes {
		if st.IsActive {
			maxBuffer = max(maxBuffer, st.BufferMinutes)
		}
	}
	return maxBuffer, nil
}

func (m *memoryStore) CountActive(_ context.Context, serviceTypeID int64, day time.Time, excludeID *int64) (int, error) {
	if err := m.failing["CountActive"]; err != nil {
		return 0, err
	}
	count := 0
	for _, a := range m.active(excludeID) {
		if a.ServiceTypeID == serviceTypeID && timerange.SameDay(a.ScheduledStart, day) {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) FindActiveInRange(_ context.Context, start, end time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	if err := m.failing["FindActiveInRange"]; err != nil {
		return nil, err
	}
	window := timerange.Range{Start: start, End: end}
	result := make([]*domain.Appointment, 0)
	for _, a := range m.active(excludeID) {
		if a.TimeRange().Overlaps(window) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memoryStore) FindActiveOnDay(_ context.Context, day time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	if err := m.failing["FindActiveOnDay"]; err != nil {
		return nil, err
	}
	result := make([]*domain.Appointment, 0)
	for _, a := range m.active(excludeID) {
		if timerange.SameDay(a.ScheduledStart, day) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memoryStore) FindActiveForCustomerOnDay(_ context.Context, customerID int64, day time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	if err := m.failing["FindActiveForCustomerOnDay"]; err != nil {
		return nil, err
	}
	result := make([]*domain.Appointment, 0)
	for _, a := range m.active(excludeID) {
		if a.CustomerID == customerID && timerange.SameDay(a.ScheduledStart, day) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memoryStore) CountActivePendingForCustomer(_ context.Context, customerID int64, excludeID *int64) (int, error) {
	if err := m.failing["CountActivePendingForCustomer"]; err != nil {
		return 0, err
	}
	count := 0
	for _, a := range m.active(excludeID) {
		if a.CustomerID == customerID && a.Status == domain.StatusPending {
			count++
		}
	}
	return count, nil
}

func (m *memoryStore) CountRecentCancellations(_ context.Context, customerID, serviceTypeID int64, since time.Time) (int, error) {
	if err := m.failing["CountRecentCancellations"]; err != nil {
		return 0, err
	}
	count := 0
	for _, a := range m.appointments {
		if a.CustomerID == customerID && a.ServiceTypeID == serviceTypeID &&
			a.Status == domain.StatusCancelled && !a.UpdatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// active возвращает активные записи с данными типа услуги, отсортированные по времени начала
func (m *memoryStore) active(excludeID *int64) []*domain.Appointment {
	result := make([]*domain.Appointment, 0)
	for _, a := range m.appointments {
		if !a.IsActive() || (excludeID != nil && a.ID == *excludeID) {
			continue
		}
		if st, ok := m.serviceTypes[a.ServiceTypeID]; ok {
			a.ServiceName = st.Name
			a.ServiceBufferMinutes = st.BufferMinutes
			a.ServiceExclusiveDays = st.ExclusiveDays
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledStart.Before(result[j].ScheduledStart)
	})
	return result
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

type recordingMetrics struct {
	results []string
}

func (r *recordingMetrics) ObserveValidation(result string, _ []string) {
	r.results = append(r.results, result)
}

var (
	// now понедельник 6 октября 2025, 08:00 UTC
	now = time.Date(2025, 10, 6, 8, 0, 0, 0, time.UTC)

	monday   = time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	tuesday  = monday.AddDate(0, 0, 1)
	saturday = monday.AddDate(0, 0, -2)

	weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

	testConfig = Config{
		BusinessOpen:  types.MustTimeString("09:00"),
		BusinessClose: types.MustTimeString("18:00"),
	}
)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func cleaningService() *domain.ServiceType {
	return &domain.ServiceType{
		ID:                1,
		Name:              "Home cleaning",
		DurationMinutes:   60,
		BufferMinutes:     30,
		AllowedDays:       weekdays,
		MaxBookingsPerDay: 2,
		IsActive:          true,
	}
}

func deepCleanService() *domain.ServiceType {
	return &domain.ServiceType{
		ID:                2,
		Name:              "Deep clean",
		DurationMinutes:   120,
		AllowedDays:       weekdays,
		ExclusiveDays:     []time.Weekday{time.Tuesday},
		MaxBookingsPerDay: 5,
		IsActive:          true,
	}
}

type testEnv struct {
	store     *memoryStore
	metrics   *recordingMetrics
	validator *Validator
}

func newTestEnv(serviceTypes ...*domain.ServiceType) *testEnv {
	store := newMemoryStore(serviceTypes...)
	metrics := &recordingMetrics{}
	log := logger.NewNop()
	clock := fixedClock(now)

	ruleService := rules.NewService(store, store, clock, log)
	return &testEnv{
		store:     store,
		metrics:   metrics,
		validator: NewValidator(ruleService, store, clock, metrics, testConfig, log),
	}
}
