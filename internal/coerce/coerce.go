// Package coerce converts between the catalog's declared column types and
// native Go values.
//
// Native values are nil, string, float64 and time.Time. Wire values (what is
// bound to and scanned from SQL) are nil, string and float64: dates travel as
// fixed-layout text without fractional seconds or zone.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/errs"
)

// Wire layouts for DATE and DATETIME columns.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

func unknown(t catalog.Type) error {
	return &errs.ConfigError{Reason: fmt.Sprintf("unknown column type %q", t)}
}

func mismatch(t catalog.Type, v any) error {
	return &errs.ValidationError{Kind: strings.ToLower(string(t)), Value: v, Attribute: "value", Reason: fmt.Sprintf("cannot convert %T", v)}
}

// In converts a native value to its wire form. Empty strings and NaN become
// nil so that "no value" is always stored as NULL.
func In(t catalog.Type, v any) (any, error) {
	if !t.Known() {
		return nil, unknown(t)
	}
	if v == nil {
		return nil, nil
	}

	switch t {
	case catalog.Text:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(t, v)
		}
		if s == "" {
			return nil, nil
		}
		return s, nil

	case catalog.Float:
		f, ok := toFloat(v)
		if !ok {
			return nil, mismatch(t, v)
		}
		if math.IsNaN(f) {
			return nil, nil
		}
		return f, nil

	case catalog.Date, catalog.DateTime:
		layout := layoutFor(t)
		switch x := v.(type) {
		case time.Time:
			if x.IsZero() {
				return nil, nil
			}
			return x.Format(layout), nil
		case string:
			if x == "" {
				return nil, nil
			}
			parsed, err := time.Parse(layout, x)
			if err != nil {
				return nil, mismatch(t, v)
			}
			return parsed.Format(layout), nil
		}
		return nil, mismatch(t, v)
	}

	return nil, unknown(t)
}

// Out converts a scanned wire value to its native form. Empty text reads back
// as nil, never as "".
func Out(t catalog.Type, raw any) (any, error) {
	if !t.Known() {
		return nil, unknown(t)
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	if raw == nil {
		return nil, nil
	}

	switch t {
	case catalog.Text:
		switch x := raw.(type) {
		case string:
			if x == "" {
				return nil, nil
			}
			return x, nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		}

	case catalog.Float:
		if s, ok := raw.(string); ok {
			if s == "" {
				return nil, nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to read float %q: %w", s, err)
			}
			return f, nil
		}
		if f, ok := toFloat(raw); ok {
			if math.IsNaN(f) {
				return nil, nil
			}
			return f, nil
		}

	case catalog.Date, catalog.DateTime:
		switch x := raw.(type) {
		case string:
			if x == "" {
				return nil, nil
			}
			parsed, err := time.Parse(layoutFor(t), x)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s %q: %w", t, x, err)
			}
			return parsed, nil
		case time.Time:
			return x.UTC().Truncate(precisionFor(t)), nil
		}
	}

	return nil, fmt.Errorf("failed to read %s from %T", t, raw)
}

// Parse reads user-entered text (CLI flags, TSV cells) into a native value.
// "", "n/a" and "NaN" are treated as no value.
func Parse(t catalog.Type, s string) (any, error) {
	if !t.Known() {
		return nil, unknown(t)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "n/a" || strings.EqualFold(s, "nan") {
		return nil, nil
	}

	switch t {
	case catalog.Text:
		return s, nil
	case catalog.Float:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, mismatch(t, s)
		}
		return f, nil
	default:
		parsed, err := time.Parse(layoutFor(t), s)
		if err != nil {
			return nil, mismatch(t, s)
		}
		return parsed, nil
	}
}

// Format renders a native value for display. Missing values render as "".
func Format(t catalog.Type, v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		if t == catalog.Date || t == catalog.DateTime {
			return x.Format(layoutFor(t))
		}
		return x.Format(DateTimeLayout)
	}
	return fmt.Sprint(v)
}

// Missing returns the in-memory "no value" for a column in bulk data:
// NaN for floats, "" for everything else.
func Missing(t catalog.Type) any {
	if t == catalog.Float {
		return math.NaN()
	}
	return ""
}

// IsMissing reports whether v is a "no value" marker.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case float64:
		return math.IsNaN(x)
	case time.Time:
		return x.IsZero()
	}
	return false
}

func layoutFor(t catalog.Type) string {
	if t == catalog.Date {
		return DateLayout
	}
	return DateTimeLayout
}

func precisionFor(t catalog.Type) time.Duration {
	if t == catalog.Date {
		return 24 * time.Hour
	}
	return time.Second
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}
