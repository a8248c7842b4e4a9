package models

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateOnly = "2006-01-02"

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

// parseAmount reads a decimal string. Sign and scale rules belong to the
// ledger; only the syntax is checked here.
func parseAmount(field, raw string, required bool) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return decimal.Zero, field + " is required"
		}
		return decimal.Zero, ""
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, field + " must be numeric"
	}
	return amount, ""
}

// ParseTime accepts RFC 3339 or YYYY-MM-DD. A bare date used as the end of a
// range covers the whole day.
func ParseTime(field, raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC 3339 or YYYY-MM-DD", field)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

// ParseWindow reads limit and offset query parameters. Zero means the server default.
func ParseWindow(query url.Values) (int, int, error) {
	var errs []string
	limit, err := parseNonNegative(query.Get("limit"))
	if err != nil {
		errs = append(errs, "limit must be a non-negative integer")
	}
	offset, err := parseNonNegative(query.Get("offset"))
	if err != nil {
		errs = append(errs, "offset must be a non-negative integer")
	}
	return limit, offset, joinErrors(errs)
}

func parseNonNegative(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative")
	}
	return n, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return timestamp(*t)
}
