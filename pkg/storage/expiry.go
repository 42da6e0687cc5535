package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ErrInvalidExpiry is returned when a cache expression cannot be turned into
// an expiry time.
var ErrInvalidExpiry = errors.New("storage: invalid expiry")

var (
	relativeExpr = regexp.MustCompile(`^(?:[+-]?\d+\s*[a-zA-Z]+\s*)+$`)
	relativeTerm = regexp.MustCompile(`([+-]?\d+)\s*([a-zA-Z]+)`)
)

// ParseExpiry converts a cache expression into an absolute time relative to
// now. Accepted forms:
//
//	"+1 hour", "+2 days 30 minutes", "-1 week"   relative expressions
//	"90s", "1h30m"                               Go durations
//	"1700000000", 1700000000                     unix seconds
//	"2024-01-02T15:04:05Z", "2024-01-02"         absolute timestamps
//	time.Time, time.Duration
func ParseExpiry(value any, now time.Time) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidExpiry)
	case time.Time:
		if v.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero time", ErrInvalidExpiry)
		}
		return v, nil
	case time.Duration:
		return now.Add(v), nil
	case bool:
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidExpiry, v)
	case string:
		return parseExpiryString(v, now)
	}

	seconds, err := cast.ToInt64E(value)
	if err == nil {
		return time.Unix(seconds, 0), nil
	}
	ts, err := cast.ToTimeE(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidExpiry, err)
	}
	return ts, nil
}

func parseExpiryString(raw string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidExpiry)
	}

	if isDigits(trimmed) {
		seconds, err := cast.ToInt64E(trimmed)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidExpiry, err)
		}
		return time.Unix(seconds, 0), nil
	}

	if d, err := time.ParseDuration(trimmed); err == nil {
		return now.Add(d), nil
	}

	if relativeExpr.MatchString(trimmed) {
		return applyRelative(trimmed, now)
	}

	ts, err := cast.ToTimeE(trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidExpiry, raw)
	}
	return ts, nil
}

func applyRelative(expr string, now time.Time) (time.Time, error) {
	out := now
	for _, term := range relativeTerm.FindAllStringSubmatch(expr, -1) {
		n, err := strconv.Atoi(term[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidExpiry, expr)
		}
		switch unit := strings.TrimSuffix(strings.ToLower(term[2]), "s"); unit {
		case "sec", "second":
			out = out.Add(time.Duration(n) * time.Second)
		case "min", "minute":
			out = out.Add(time.Duration(n) * time.Minute)
		case "hour":
			out = out.Add(time.Duration(n) * time.Hour)
		case "day":
			out = out.AddDate(0, 0, n)
		case "week":
			out = out.AddDate(0, 0, 7*n)
		case "month":
			out = out.AddDate(0, n, 0)
		case "year":
			out = out.AddDate(n, 0, 0)
		default:
			return time.Time{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidExpiry, term[2])
		}
	}
	return out, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
