package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat is returned when an invoice date matches neither accepted shape.
var ErrInvalidDateFormat = errors.New("invalid date format")

// Layouts accepted for ISO-8601 invoice dates. The zoneless variants come from
// HTML datetime-local inputs.
var (
	zonedISOLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
	}
	zonelessISOLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
)

// ParseInvoiceDate parses an invoice date using the process-local time zone for
// inputs that carry no offset.
func ParseInvoiceDate(s string) (time.Time, error) {
	return ParseInvoiceDateIn(s, time.Local)
}

// ParseInvoiceDateIn parses either an ISO-8601 datetime (any string containing
// 'T') or a legacy d/M/yyyy date. Legacy dates resolve to midnight in loc;
// zoned ISO inputs keep their own offset.
func ParseInvoiceDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)

	if strings.Contains(s, "T") {
		return parseISODate(s, loc)
	}
	return parseLegacyDate(s, loc)
}

func parseISODate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range zonedISOLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range zonelessISOLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 datetime", ErrInvalidDateFormat, s)
}

func parseLegacyDate(s string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q, expected YYYY-MM-DDTHH:mm or d/M/yyyy", ErrInvalidDateFormat, s)
	}

	values := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q has non-numeric component %q", ErrInvalidDateFormat, s, part)
		}
		values[i] = v
	}
	day, month, year := values[0], values[1], values[2]

	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateFormat, s)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow (31/04 becomes 1/05); reject instead of rolling over.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateFormat, s)
	}
	return t, nil
}
