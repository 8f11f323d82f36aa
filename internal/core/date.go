package core

import (
	"strconv"
	"strings"
	"time"
)

// Layouts accepted by ParseDateLenient after the epoch-milliseconds form.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDateLenient parses the date formats the backend emits: an integer
// timestamp string in milliseconds first, then common date layouts.
func ParseDateLenient(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	for _, layout := range dateLayouts {
		// Date-only forms mean the user's wall-clock day, not UTC.
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// DayKey returns the comparable calendar-day key (YYYY-MM-DD) in local time,
// ignoring time of day.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02")
}

// MonthKey returns the calendar-month key (YYYY-MM) in local time.
func MonthKey(t time.Time) string {
	return t.In(time.Local).Format("2006-01")
}

// FormatDateYYYYMMDDLocal renders a date for the card editor's date input.
// The zero time renders as the empty string.
func FormatDateYYYYMMDDLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format("2006-01-02")
}

// FormatDateIT renders a date the way the tables and dividers show it.
func FormatDateIT(t time.Time) string {
	return t.In(time.Local).Format("02/01/2006")
}
