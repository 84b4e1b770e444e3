// Package storage общие типы хранилища PostgreSQL
package storage

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// WeekdayArray дни недели, хранимые в колонке SMALLINT[] (0 = воскресенье)
type WeekdayArray []time.Weekday

// Scan implements sql.Scanner
func (w *WeekdayArray) Scan(src interface{}) error {
	var raw pq.Int64Array
	if err := raw.Scan(src); err != nil {
		return fmt.Errorf("storage: scan weekday array: %w", err)
	}

	days := make([]time.Weekday, 0, len(raw))
	for _, v := range raw {
		if v < int64(time.Sunday) || v > int64(time.Saturday) {
			return fmt.Errorf("storage: weekday out of range: %d", v)
		}
		days = append(days, time.Weekday(v))
	}
	*w = days
	return nil
}

// Value implements driver.Valuer
func (w WeekdayArray) Value() (driver.Value, error) {
	raw := make(pq.Int64Array, len(w))
	for i, d := range w {
		raw[i] = int64(d)
	}
	return raw.Value()
}
