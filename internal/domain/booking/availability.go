package booking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

// WeekdaySet is a bitmask of weekdays, bit 0 = Monday.
type WeekdaySet uint8

// ParseWeekdays reads the stored "0,1,2" form. Blank entries are skipped.
func ParseWeekdays(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 || d > 6 {
			return 0, fmt.Errorf("invalid weekday %q", part)
		}
		set |= 1 << d
	}
	return set, nil
}

func WeekdaysOf(days ...int) WeekdaySet {
	var set WeekdaySet
	for _, d := range days {
		if d >= 0 && d <= 6 {
			set |= 1 << d
		}
	}
	return set
}

func (s WeekdaySet) Has(day int) bool {
	return day >= 0 && day <= 6 && s&(1<<day) != 0
}

func (s WeekdaySet) String() string {
	parts := make([]string, 0, 7)
	for d := 0; d < 7; d++ {
		if s.Has(d) {
			parts = append(parts, strconv.Itoa(d))
		}
	}
	return strings.Join(parts, ",")
}

// Schedule is the parsed weekly working pattern of an instructor.
type Schedule struct {
	Start TimeOfDay
	End   TimeOfDay
	Days  WeekdaySet
}

func NewSchedule(start, end TimeOfDay, days WeekdaySet) (Schedule, error) {
	if !start.Before(end) {
		return Schedule{}, fmt.Errorf("%w: start time %s must be before end time %s", ErrValidation, start, end)
	}
	return Schedule{Start: start, End: end, Days: days}, nil
}

// ScheduleOf parses the stored working hours of an instructor.
func ScheduleOf(ins *models.Instructor) (Schedule, error) {
	start, err := ParseTime(ins.StartTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("instructor %d start time: %w", ins.ID, err)
	}
	end, err := ParseTime(ins.EndTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("instructor %d end time: %w", ins.ID, err)
	}
	days, err := ParseWeekdays(ins.AvailableDays)
	if err != nil {
		return Schedule{}, fmt.Errorf("instructor %d available days: %w", ins.ID, err)
	}
	return NewSchedule(start, end, days)
}

// WorksOn applies the weekday rule unless an override exists for the date,
// in which case the override decides in both directions.
func (s Schedule) WorksOn(date time.Time, override *models.AvailabilityOverride) bool {
	if override != nil {
		return override.IsAvailable
	}
	return s.Days.Has(Weekday(date))
}

// Covers reports whether t lies within the working hours, bounds included.
func (s Schedule) Covers(t TimeOfDay) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// OpenSlots returns the catalog slots inside the working hours on a worked
// date, minus the taken ones, in catalog order.
func (s Schedule) OpenSlots(date time.Time, override *models.AvailabilityOverride, taken map[TimeOfDay]bool) []Slot {
	if !s.WorksOn(date, override) {
		return []Slot{}
	}

	out := make([]Slot, 0, len(catalog))
	for _, slot := range catalog {
		if !s.Covers(slot.Time) || taken[slot.Time] {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// NormalizeWeekdays validates admin input and returns the storage form.
func NormalizeWeekdays(days []int) (string, error) {
	seen := map[int]bool{}
	for _, d := range days {
		if d < 0 || d > 6 {
			return "", fmt.Errorf("%w: weekday %d out of range 0..6", ErrValidation, d)
		}
		seen[d] = true
	}
	out := make([]int, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Ints(out)

	parts := make([]string, len(out))
	for i, d := range out {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ","), nil
}
