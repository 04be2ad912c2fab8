package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tesoretto/internal/core"
)

// parseOwner reads the required positive owner query parameter.
func parseOwner(q url.Values) (int64, error) {
	v := strings.TrimSpace(q.Get("owner"))
	if v == "" {
		return 0, fmt.Errorf("owner is required")
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid owner %q", v)
	}
	return id, nil
}

// parseYearMonth reads year and month, defaulting each to now's.
func parseYearMonth(q url.Values, now time.Time) (year, month int, err error) {
	year, month = now.Year(), int(now.Month())

	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
		month = m
	}
	return year, month, nil
}

// parseAsOf reads an optional YYYY-MM-DD as_of, defaulting to today.
func parseAsOf(q url.Values, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(q.Get("as_of"))
	if v == "" {
		return core.DateOf(now), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid as_of %q: want YYYY-MM-DD", v)
	}
	return d, nil
}
