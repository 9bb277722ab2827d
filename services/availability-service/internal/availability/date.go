package availability

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day held at UTC midnight, so values are comparable with ==
// and usable as map keys. The zero value is not a valid date.
type Date struct {
	t time.Time
}

// NewDate builds a date from its components; out-of-range values normalize like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day t falls on in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts "YYYY-MM-DD" and any string starting with it (RFC3339 timestamps,
// "2025-03-10T00:00:00.000Z" and similar).
func ParseDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return Date{}, false
	}
	if len(s) > len(dateLayout) {
		switch s[len(dateLayout)] {
		case 'T', 't', ' ':
		default:
			return Date{}, false
		}
	}
	t, err := time.ParseInLocation(dateLayout, s[:len(dateLayout)], time.UTC)
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Time() time.Time { return d.t }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// DaysUntil returns the signed number of days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseDate(string(b))
	if !ok {
		return &time.ParseError{Layout: dateLayout, Value: string(b), Message: ": invalid calendar date"}
	}
	*d = parsed
	return nil
}

func isWeekend(d Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
