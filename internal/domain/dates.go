package domain

import (
	"fmt"
	"time"
	_ "time/tzdata" // embedded zone database for hosts without one
)

// ─── Calendar Dates ─────────────────────────────────────────────────────────
// All dates are ISO calendar strings (YYYY-MM-DD). Arithmetic happens on UTC
// midnights so DST transitions never shift a day.

// DateLayout is the ISO calendar date layout.
const DateLayout = time.DateOnly

// MaxDueDay is the latest day of month a cycle may fall on.
const MaxDueDay = 28

// TodayISO returns the calendar date of now in the IANA timezone tz.
// Unknown or empty zones fall back to UTC.
func TodayISO(now time.Time, tz string) string {
	return now.In(LoadLocation(tz)).Format(DateLayout)
}

// LoadLocation resolves tz, falling back to UTC.
func LoadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate parses an ISO date into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, ErrInvalidInput)
	}
	return t, nil
}

// ValidDate reports whether s is a well-formed ISO date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// AddDays shifts an ISO date by n calendar days.
func AddDays(dateISO string, n int) (string, error) {
	t, err := ParseDate(dateISO)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// AddMonths moves to the first day of the month n months after the month
// of monthISO. Only the YYYY-MM prefix is read.
func AddMonths(monthISO string, n int) (string, error) {
	first, err := FirstOfMonth(monthISO)
	if err != nil {
		return "", err
	}
	t, _ := ParseDate(first)
	return t.AddDate(0, n, 0).Format(DateLayout), nil
}

// FirstOfMonth returns YYYY-MM-01 for the month of monthISO.
func FirstOfMonth(monthISO string) (string, error) {
	if len(monthISO) < 7 {
		return "", fmt.Errorf("month %q: %w", monthISO, ErrInvalidInput)
	}
	first := monthISO[:7] + "-01"
	if !ValidDate(first) {
		return "", fmt.Errorf("month %q: %w", monthISO, ErrInvalidInput)
	}
	return first, nil
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// ClampDueDay clamps d into [1, MaxDueDay].
func ClampDueDay(d int) int {
	return min(MaxDueDay, max(1, d))
}

// DateWithDay returns the date on day (clamped) of the month of monthISO.
func DateWithDay(monthISO string, day int) (string, error) {
	first, err := FirstOfMonth(monthISO)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%02d", first[:7], ClampDueDay(day)), nil
}

// MonthPrefix returns the YYYY-MM part of an ISO date.
func MonthPrefix(dateISO string) string {
	if len(dateISO) < 7 {
		return dateISO
	}
	return dateISO[:7]
}
