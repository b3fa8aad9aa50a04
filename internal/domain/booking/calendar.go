package booking

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// TimeOfDay is a wall-clock time with second precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Second: second}
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.seconds() < o.seconds() }
func (t TimeOfDay) After(o TimeOfDay) bool  { return t.seconds() > o.seconds() }

// String renders the ISO form accepted back by ParseTime.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Label renders the 12-hour form shown to customers, e.g. "4:30 PM".
func (t TimeOfDay) Label() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format("3:04 PM")
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTime(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDate accepts a time.Time or a YYYY-MM-DD string and returns the
// calendar day at midnight UTC.
func ParseDate(input any) (time.Time, error) {
	switch v := input.(type) {
	case time.Time:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, ErrInvalidDateFormat
		}
		return ParseDate(*v)
	case string:
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, v)
		}
		return d, nil
	default:
		return time.Time{}, ErrInvalidDateFormat
	}
}

// ParseTime accepts a TimeOfDay, a time.Time or an ISO HH:MM:SS (or HH:MM)
// string.
func ParseTime(input any) (TimeOfDay, error) {
	switch v := input.(type) {
	case TimeOfDay:
		if v.Hour < 0 || v.Hour > 23 || v.Minute < 0 || v.Minute > 59 || v.Second < 0 || v.Second > 59 {
			return TimeOfDay{}, ErrInvalidTimeFormat
		}
		return v, nil
	case time.Time:
		return TimeOfDay{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}, nil
	case string:
		for _, layout := range []string{TimeLayout, "15:04"} {
			if t, err := time.Parse(layout, v); err == nil {
				return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
			}
		}
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, v)
	default:
		return TimeOfDay{}, ErrInvalidTimeFormat
	}
}

// FormatDate is the storage form of a calendar day.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// Weekday maps a date to 0 = Monday .. 6 = Sunday.
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// At places a calendar day and a time of day in loc.
func At(d time.Time, t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}
