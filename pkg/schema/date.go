package schema

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// NormalizeDate reduces a date-like value to midnight UTC of its calendar
// day. Accepted inputs are time.Time, "YYYY-MM-DD" or RFC3339 strings, and
// integer unix timestamps.
func NormalizeDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, fmt.Errorf("zero time is not a date")
		}
		return truncateDay(t), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil time is not a date")
		}
		return NormalizeDate(*t)
	case string:
		s := strings.TrimSpace(t)
		if d, err := time.Parse(dateLayout, s); err == nil {
			return d, nil
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return truncateDay(ts), nil
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as a date", t)
	case int:
		return truncateDay(time.Unix(int64(t), 0).UTC()), nil
	case int64:
		return truncateDay(time.Unix(t, 0).UTC()), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date value of type %T", v)
	}
}

// truncateDay keeps the calendar day as written in the value's own zone.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
