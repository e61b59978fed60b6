package domain

import (
	"fmt"
	"strings"
	"time"
)

// DueDateLayout is the calendar-date format accepted for due dates.
const DueDateLayout = "2006-01-02"

// ParseDueDate parses a YYYY-MM-DD date into midnight UTC.
// Blank input means no due date and returns nil without error.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(DueDateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q (use YYYY-MM-DD)", ErrInvalidDueDate, raw)
	}
	return &day, nil
}

// FormatDueDate renders a due date with layout, or fallback when absent.
func FormatDueDate(due *time.Time, layout, fallback string) string {
	if due == nil {
		return fallback
	}
	if strings.TrimSpace(layout) == "" {
		layout = DueDateLayout
	}
	return due.UTC().Format(layout)
}
