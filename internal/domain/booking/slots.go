package booking

// Slot is one bookable start time of the global catalog.
type Slot struct {
	Time  TimeOfDay `json:"value"`
	Label string    `json:"display"`
}

// catalog is shared by every instructor; working hours only narrow it.
var catalog = []Slot{
	{Time: NewTimeOfDay(9, 0, 0), Label: "9:00 AM"},
	{Time: NewTimeOfDay(10, 30, 0), Label: "10:30 AM"},
	{Time: NewTimeOfDay(12, 0, 0), Label: "12:00 PM"},
	{Time: NewTimeOfDay(13, 30, 0), Label: "1:30 PM"},
	{Time: NewTimeOfDay(15, 0, 0), Label: "3:00 PM"},
	{Time: NewTimeOfDay(16, 30, 0), Label: "4:30 PM"},
	{Time: NewTimeOfDay(18, 0, 0), Label: "6:00 PM"},
}

// Catalog returns the slot catalog in order.
func Catalog() []Slot {
	out := make([]Slot, len(catalog))
	copy(out, catalog)
	return out
}

func LookupSlot(t TimeOfDay) (Slot, bool) {
	for _, s := range catalog {
		if s.Time == t {
			return s, true
		}
	}
	return Slot{}, false
}
