// Package timex provides duration parsing shared by the configuration layer:
// human-friendly strings such as "1d" or "15m" and a JSON wrapper that accepts
// either such strings or integer nanoseconds.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
	Year = 36525 * Day / 100
)

var unitPattern = regexp.MustCompile(`(?i)^(-?(?:\d+)?\.?\d+)\s*(milliseconds?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|years?|yrs?|y)$`)

// ErrInvalidDuration is returned for strings that are neither a single
// number-with-unit nor something time.ParseDuration understands.
var ErrInvalidDuration = errors.New("invalid duration")

// ParseDuration converts s into a time.Duration.
//
// Accepted forms:
//
//	"1d", "2 days", "12h", "90m", "30s", "1ms", "1.5h", "1w", "1y"
//	"60000"       plain digits are milliseconds
//	"1h30m"       anything time.ParseDuration accepts
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return scale(n, time.Millisecond)
	}

	if m := unitPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return scale(n, unitOf(strings.ToLower(m[2])))
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}

func unitOf(u string) time.Duration {
	switch {
	case strings.HasPrefix(u, "ms"), strings.HasPrefix(u, "milli"):
		return time.Millisecond
	case strings.HasPrefix(u, "s"):
		return time.Second
	case strings.HasPrefix(u, "m"):
		return time.Minute
	case strings.HasPrefix(u, "h"):
		return time.Hour
	case strings.HasPrefix(u, "d"):
		return Day
	case strings.HasPrefix(u, "w"):
		return Week
	default:
		return Year
	}
}

func scale(n float64, unit time.Duration) (time.Duration, error) {
	v := n * float64(unit)
	if math.IsNaN(v) || v > math.MaxInt64 || v < math.MinInt64 {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidDuration)
	}
	return time.Duration(v), nil
}

// Duration wraps time.Duration for JSON configuration files. It decodes from
// a string understood by ParseDuration or from a number of milliseconds, the
// same unit ParseDuration gives plain digits. It encodes back to
// time.Duration's string form.
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		parsed, err := scale(value, time.Millisecond)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("%w: unsupported JSON value %s", ErrInvalidDuration, string(b))
	}
}
