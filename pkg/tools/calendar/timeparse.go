package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// DateTimeLayout is the absolute form accepted by add_event (dd/mm/yyyy hh:mm).
	DateTimeLayout = "02/01/2006 15:04"
	// DateLayout is used by the get_events date filters.
	DateLayout = "2006-01-02"
)

// ParseEventTime accepts either an absolute "dd/mm/yyyy hh:mm" time in the
// location of now, or a "HH:MM:SS" duration counted from now.
func ParseEventTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateTimeLayout, s, now.Location()); err == nil {
		return t, nil
	}
	if d, err := parseDuration(s); err == nil {
		return now.Add(d), nil
	}
	return time.Time{}, errors.Errorf("invalid time %q: use 'dd/mm/yyyy hh:mm' or a duration like 'HH:MM:SS'", s)
}

func parseDuration(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, errors.New("duration needs three fields")
	}
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, errors.Errorf("invalid duration field %q", p)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

func parseDate(field, s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return nil, errors.Errorf("invalid %s %q: use YYYY-MM-DD", field, s)
	}
	return &t, nil
}
