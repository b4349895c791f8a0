// Package scheduling holds the pure batch scheduling logic: clock arithmetic,
// per-day batch rules, interval conflict detection, and batch renumbering.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the stored date format (dd.mm.yyyy).
const DateLayout = "02.01.2006"

const minutesPerDay = 24 * 60

// ParseHHMM converts an "H:MM" or "HH:MM" string into minutes since midnight.
func ParseHHMM(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || parts[0] == "" || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", raw)
	}
	return hour*60 + minute, nil
}

// FormatHHMM renders minutes since midnight as zero-padded HH:MM.
func FormatHHMM(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeHHMM zero-pads a valid time, e.g. "9:00" becomes "09:00".
func NormalizeHHMM(raw string) (string, error) {
	m, err := ParseHHMM(raw)
	if err != nil {
		return "", err
	}
	return FormatHHMM(m), nil
}

// AddMinutes adds delta minutes to start. overflow reports that the result
// wrapped past midnight; a result of exactly 24:00 also counts as overflow.
func AddMinutes(start string, delta int) (end string, overflow bool, err error) {
	m, err := ParseHHMM(start)
	if err != nil {
		return "", false, err
	}
	total := m + delta
	return FormatHHMM(total), total >= minutesPerDay, nil
}

// ParseDate parses a dd.mm.yyyy date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected dd.mm.yyyy", raw)
	}
	return t, nil
}

// NormalizeDate returns the canonical dd.mm.yyyy form of raw.
func NormalizeDate(raw string) (string, error) {
	t, err := ParseDate(raw)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
