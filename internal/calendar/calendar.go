// Package calendar builds the 42-cell month grid and owns date-key
// formatting. Keys always come from local calendar fields; formatting a
// local time through UTC shifts the day near midnight and corrupts every
// lookup keyed on it.
package calendar

import (
	"fmt"
	"time"
)

// Day is one grid cell.
type Day struct {
	Date         time.Time `json:"-"`
	Key          string    `json:"date"`
	DayOfMonth   int       `json:"day_of_month"`
	CurrentMonth bool      `json:"current_month"`
	Today        bool      `json:"today"`
	Past         bool      `json:"past"`
}

// DateKey renders t as YYYY-MM-DD from its own calendar fields.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseDateKey parses a YYYY-MM-DD key into a local midnight time.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", key)
	}
	return t, nil
}

// MonthKey renders the YYYY-MM key for the month containing t.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ParseMonthKey parses a YYYY-MM key into the first day of that month.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", key)
	}
	return t, nil
}

// MonthGrid returns exactly 42 consecutive days covering the month of ref.
// The first cell is the Sunday on or before the first of the month, so the
// grid always spans six full weeks and includes leading and trailing days
// from the adjacent months.
func MonthGrid(ref, today time.Time) []Day {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))
	todayKey := DateKey(today)

	days := make([]Day, 0, 42)
	for i := 0; i < 42; i++ {
		d := start.AddDate(0, 0, i)
		key := DateKey(d)
		days = append(days, Day{
			Date:         d,
			Key:          key,
			DayOfMonth:   d.Day(),
			CurrentMonth: d.Month() == ref.Month() && d.Year() == ref.Year(),
			Today:        key == todayKey,
			Past:         key < todayKey,
		})
	}
	return days
}

// Navigate moves ref by delta months, relying on AddDate normalization for
// year boundaries and short months.
func Navigate(ref time.Time, delta int) time.Time {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return first.AddDate(0, delta, 0)
}
