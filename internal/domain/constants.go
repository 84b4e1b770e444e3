package domain

import "time"

// Default configuration values
const (
	DefaultDurationMinutes = 60
)

// Customer restriction limits
const (
	MaxPendingPerCustomer    = 3
	MaxRecentCancellations   = 2
	RecentCancellationWindow = 7 * 24 * time.Hour
)

// Warning thresholds
const (
	// ShortNoticeFactor предупреждение, если до записи меньше 1.5 * MinAdvanceHours
	ShortNoticeFactor = 1.5
)

// DateFormat формат даты в API (YYYY-MM-DD)
const DateFormat = "2006-01-02"

// ActiveStatuses статусы записей, участвующих в проверках конфликтов и квот
var ActiveStatuses = []AppointmentStatus{
	StatusPending,
	StatusConfirmed,
}

// BusyWeekdays дни недели с повышенной загрузкой
var BusyWeekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
}

// ActiveStatusStrings возвращает активные статусы в виде строк (для SQL-фильтров)
func ActiveStatusStrings() []string {
	result := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		result[i] = string(s)
	}
	return result
}

// IsBusyWeekday returns true for weekdays with elevated demand
func IsBusyWeekday(day time.Weekday) bool {
	return containsWeekday(BusyWeekdays, day)
}
