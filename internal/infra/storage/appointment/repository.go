package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/psqlbuilder"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/timerange"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/txmanager"
)

// Колонки записи вместе с параметрами типа услуги (JOIN service_types)
var appointmentColumns = []string{
	"a.id",
	"a.service_type_id",
	"a.customer_id",
	"a.scheduled_start",
	"a.duration_minutes",
	"a.status",
	"a.notes",
	"st.name",
	"st.buffer_minutes",
	"st.exclusive_days",
	"a.created_at",
	"a.updated_at",
}

// Repository репозиторий для работы с записями на услуги
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую запись.
// Если в контексте передана активная транзакция, использует её.
func (r *Repository) Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"service_type_id",
			"customer_id",
			"scheduled_start",
			"duration_minutes",
			"status",
			"notes",
		).
		Values(
			appointment.ServiceTypeID,
			appointment.CustomerID,
			appointment.ScheduledStart.UTC(),
			appointment.DurationMinutes,
			appointment.Status,
			appointment.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&appointment.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	appointment.CreatedAt = createdAt.Time
	appointment.UpdatedAt = updatedAt.Time

	return appointment, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := selectAppointments().
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	appointment, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %w", ErrScanRow, err)
	}

	return appointment, nil
}

// UpdateStatus обновляет статус записи и отметку updated_at
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - rows affected: %w", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

// CountActive считает активные записи типа услуги за календарный день
func (r *Repository) CountActive(ctx context.Context, serviceTypeID int64, day time.Time, excludeID *int64) (int, error) {
	executor := txmanager.GetExecutor(ctx, r.db)
	dayStart, dayEnd := timerange.CalendarDayBounds(day)

	builder := psqlbuilder.Select("COUNT(*)").
		From("appointments a").
		Where(squirrel.Eq{"a.service_type_id": serviceTypeID}).
		Where(squirrel.Eq{"a.status": domain.ActiveStatusStrings()}).
		Where(squirrel.GtOrEq{"a.scheduled_start": dayStart}).
		Where(squirrel.Lt{"a.scheduled_start": dayEnd})
	builder = excludeAppointment(builder, excludeID)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActive - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActive - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// FindActiveInRange возвращает активные записи, время которых пересекается с [start, end)
func (r *Repository) FindActiveInRange(ctx context.Context, start, end time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	builder := selectAppointments().
		Where(squirrel.Eq{"a.status": domain.ActiveStatusStrings()}).
		Where(squirrel.Lt{"a.scheduled_start": end.UTC()}).
		Where(squirrel.Expr("a.scheduled_start + make_interval(mins => a.duration_minutes) > ?", start.UTC())).
		OrderBy("a.scheduled_start")
	builder = excludeAppointment(builder, excludeID)

	return r.queryAppointments(ctx, "FindActiveInRange", builder)
}

// FindActiveOnDay возвращает все активные записи (любых типов услуг), начинающиеся в календарный день
func (r *Repository) FindActiveOnDay(ctx context.Context, day time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	dayStart, dayEnd := timerange.CalendarDayBounds(day)

	builder := selectAppointments().
		Where(squirrel.Eq{"a.status": domain.ActiveStatusStrings()}).
		Where(squirrel.GtOrEq{"a.scheduled_start": dayStart}).
		Where(squirrel.Lt{"a.scheduled_start": dayEnd}).
		OrderBy("a.scheduled_start")
	builder = excludeAppointment(builder, excludeID)

	return r.queryAppointments(ctx, "FindActiveOnDay", builder)
}

// FindActiveForCustomerOnDay возвращает активные записи клиента в календарный день
func (r *Repository) FindActiveForCustomerOnDay(ctx context.Context, customerID int64, day time.Time, excludeID *int64) ([]*domain.Appointment, error) {
	dayStart, dayEnd := timerange.CalendarDayBounds(day)

	builder := selectAppointments().
		Where(squirrel.Eq{"a.customer_id": customerID}).
		Where(squirrel.Eq{"a.status": domain.ActiveStatusStrings()}).
		Where(squirrel.GtOrEq{"a.scheduled_start": dayStart}).
		Where(squirrel.Lt{"a.scheduled_start": dayEnd}).
		OrderBy("a.scheduled_start")
	builder = excludeAppointment(builder, excludeID)

	return r.queryAppointments(ctx, "FindActiveForCustomerOnDay", builder)
}

// CountActivePendingForCustomer считает записи клиента в статусе pending
func (r *Repository) CountActivePendingForCustomer(ctx context.Context, customerID int64, excludeID *int64) (int, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select("COUNT(*)").
		From("appointments a").
		Where(squirrel.Eq{"a.customer_id": customerID}).
		Where(squirrel.Eq{"a.status": domain.StatusPending})
	builder = excludeAppointment(builder, excludeID)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActivePendingForCustomer - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActivePendingForCustomer - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// CountRecentCancellations считает отмены клиента по типу услуги, обновленные не раньше since
func (r *Repository) CountRecentCancellations(ctx context.Context, customerID, serviceTypeID int64, since time.Time) (int, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("appointments a").
		Where(squirrel.Eq{"a.customer_id": customerID}).
		Where(squirrel.Eq{"a.service_type_id": serviceTypeID}).
		Where(squirrel.Eq{"a.status": domain.StatusCancelled}).
		Where(squirrel.GtOrEq{"a.updated_at": since.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountRecentCancellations - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountRecentCancellations - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// LockDay берет транзакционную advisory-блокировку на календарный день.
// Параллельные фиксации записей на один день выполняются последовательно.
func (r *Repository) LockDay(ctx context.Context, day time.Time) error {
	if !txmanager.IsInTransaction(ctx) {
		return ErrNotInTransaction
	}
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("pg_advisory_xact_lock(?)", dayLockKey(day))).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: LockDay - build lock query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: LockDay - execute lock: %w", ErrExecQuery, err)
	}

	return nil
}

// dayLockKey номер календарного дня (UTC) с начала эпохи
func dayLockKey(day time.Time) int64 {
	dayStart, _ := timerange.CalendarDayBounds(day)
	return dayStart.Unix() / int64((24 * time.Hour).Seconds())
}

func selectAppointments() squirrel.SelectBuilder {
	return psqlbuilder.Select(appointmentColumns...).
		From("appointments a").
		Join("service_types st ON st.id = a.service_type_id")
}

func excludeAppointment(builder squirrel.SelectBuilder, excludeID *int64) squirrel.SelectBuilder {
	if excludeID == nil {
		return builder
	}
	return builder.Where(squirrel.NotEq{"a.id": *excludeID})
}

func (r *Repository) queryAppointments(ctx context.Context, method string, builder squirrel.SelectBuilder) ([]*domain.Appointment, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, method, err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan appointment: %w", ErrScanRow, method, err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows iteration: %w", ErrScanRow, method, err)
	}

	return appointments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		appointment   domain.Appointment
		status        string
		notes         sql.NullString
		exclusiveDays storage.WeekdayArray
		createdAt     sql.NullTime
		updatedAt     sql.NullTime
	)

	err := row.Scan(
		&appointment.ID,
		&appointment.ServiceTypeID,
		&appointment.CustomerID,
		&appointment.ScheduledStart,
		&appointment.DurationMinutes,
		&status,
		&notes,
		&appointment.ServiceName,
		&appointment.ServiceBufferMinutes,
		&exclusiveDays,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	appointment.ScheduledStart = appointment.ScheduledStart.UTC()
	appointment.Status = domain.AppointmentStatus(status)
	if notes.Valid {
		appointment.Notes = &notes.String
	}
	appointment.ServiceExclusiveDays = exclusiveDays
	appointment.CreatedAt = createdAt.Time
	appointment.UpdatedAt = updatedAt.Time

	return &appointment, nil
}
