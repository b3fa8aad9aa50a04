package timezone

import "time"

const DefaultTimezone = "UTC"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Location falls back to DefaultTimezone for empty or unknown names.
func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Clock reads the wall clock in the business timezone. Tests replace Now.
type Clock struct {
	Loc *time.Location
	Now func() time.Time
}

func NewClock(tz string) Clock {
	return Clock{Loc: Location(tz), Now: time.Now}
}

func (c Clock) Location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

func (c Clock) Current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(c.Location())
}

// Today is the calendar date of Current as midnight UTC, the form civil
// dates are compared in.
func (c Clock) Today() time.Time {
	n := c.Current()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
