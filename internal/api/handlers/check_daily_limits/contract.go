package check_daily_limits

import (
	"context"
	"time"

	"github.com/fixwellinc/household-services-platform-sub009/internal/service/scheduling"
)

type DailyLimitChecker interface {
	CheckDailyBookingLimits(ctx context.Context, serviceTypeID int64, date time.Time, excludeID *int64) (*scheduling.DailyLimitResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
