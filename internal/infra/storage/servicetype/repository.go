package servicetype

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/fixwellinc/household-services-platform-sub009/internal/domain"
	"github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/psqlbuilder"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/txmanager"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/types"
)

// Repository репозиторий типов услуг
type Repository struct {
	db txmanager.DBExecutor
}

// NewRepository создает новый экземпляр репозитория типов услуг
func NewRepository(db txmanager.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает тип услуги по ID (включая неактивные)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.ServiceType, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"duration_minutes",
		"buffer_minutes",
		"allowed_days",
		"exclusive_days",
		"max_bookings_per_day",
		"min_advance_hours",
		"max_advance_days",
		"requires_approval",
		"is_active",
		"open_time",
		"close_time",
		"created_at",
		"updated_at",
	).
		From("service_types").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var (
		st            domain.ServiceType
		allowedDays   storage.WeekdayArray
		exclusiveDays storage.WeekdayArray
		openTime      *types.TimeString
		closeTime     *types.TimeString
		createdAt     sql.NullTime
		updatedAt     sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&st.ID,
		&st.Name,
		&st.DurationMinutes,
		&st.BufferMinutes,
		&allowedDays,
		&exclusiveDays,
		&st.MaxBookingsPerDay,
		&st.MinAdvanceHours,
		&st.MaxAdvanceDays,
		&st.RequiresApproval,
		&st.IsActive,
		&openTime,
		&closeTime,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan service type: %w", ErrScanRow, err)
	}

	st.AllowedDays = allowedDays
	st.ExclusiveDays = exclusiveDays
	st.OpenTime = openTime
	st.CloseTime = closeTime
	st.CreatedAt = createdAt.Time
	st.UpdatedAt = updatedAt.Time

	return &st, nil
}

// MaxBufferMinutes возвращает максимальный буфер среди активных типов услуг
func (r *Repository) MaxBufferMinutes(ctx context.Context) (int, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(MAX(buffer_minutes), 0)").
		From("service_types").
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: MaxBufferMinutes - build select query: %v", ErrBuildQuery, err)
	}

	var maxBuffer int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&maxBuffer); err != nil {
		return 0, fmt.Errorf("%w: MaxBufferMinutes - scan: %w", ErrScanRow, err)
	}

	return maxBuffer, nil
}
