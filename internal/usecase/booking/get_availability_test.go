package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

func slotValues(slots []domain.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time.String()
	}
	return out
}


func TestGetAvailability_WorkingDay(t *testing.T) {
	h := newHarness(fixedNow)
	d, _ := domain.ParseDate(monday)

	slots, err := h.availability.Execute(context.Background(), instructorID, d)

	require.NoError(t, err)
	assert.Equal(t,
		[]string{"09:00:00", "10:30:00", "12:00:00", "13:30:00", "15:00:00", "16:30:00"},
		slotValues(slots),
	)
}

func TestGetAvailability_DropsTakenSlots(t *testing.T) {
	h := newHarness(fixedNow)
	addBooking(h.repo, otherUserID, monday, "10:30:00", domain.StatusConfirmed)
	addBooking(h.repo, otherUserID, monday, "12:00:00", domain.StatusPending)
	addBooking(h.repo, otherUserID, monday, "13:30:00", domain.StatusCancelled)
	d, _ := domain.ParseDate(monday)

	slots, err := h.availability.Execute(context.Background(), instructorID, d)

	require.NoError(t, err)
	assert.Equal(t,
		[]string{"09:00:00", "13:30:00", "15:00:00", "16:30:00"},
		slotValues(slots),
	)
}

func TestGetAvailability_OffDayIsEmpty(t *testing.T) {
	h := newHarness(fixedNow)
	d, _ := domain.ParseDate(saturday)

	slots, err := h.availability.Execute(context.Background(), instructorID, d)

	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailability_OverrideOpensOffDay(t *testing.T) {
	h := newHarness(fixedNow)
	require.NoError(t, h.repo.UpsertOverride(context.Background(), &models.AvailabilityOverride{
		InstructorID: instructorID, Date: saturday, IsAvailable: true,
	}))
	d, _ := domain.ParseDate(saturday)

	slots, err := h.availability.Execute(context.Background(), instructorID, d)

	require.NoError(t, err)
	assert.Len(t, slots, 6)
}

func TestGetAvailability_OverrideClosesWorkingDay(t *testing.T) {
	h := newHarness(fixedNow)
	require.NoError(t, h.repo.UpsertOverride(context.Background(), &models.AvailabilityOverride{
		InstructorID: instructorID, Date: monday, IsAvailable: false, Reason: "range maintenance",
	}))
	d, _ := domain.ParseDate(monday)

	slots, err := h.availability.Execute(context.Background(), instructorID, d)

	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailability_UnknownOrInactiveInstructor(t *testing.T) {
	h := newHarness(fixedNow)
	h.repo.Instructors[8] = &models.Instructor{ID: 8, StartTime: "09:00:00", EndTime: "17:00:00", AvailableDays: "0", Active: false}
	d, _ := domain.ParseDate(monday)

	_, err := h.availability.Execute(context.Background(), 99, d)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.availability.Execute(context.Background(), 8, d)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetAvailability_MalformedDataYieldsEmpty(t *testing.T) {
	d, _ := domain.ParseDate(monday)

	cases := map[string]func(h *harness){
		"bad working hours": func(h *harness) { h.repo.Instructors[instructorID].StartTime = "nine" },
		"inverted hours":    func(h *harness) { h.repo.Instructors[instructorID].StartTime = "18:00:00" },
		"bad weekday":       func(h *harness) { h.repo.Instructors[instructorID].AvailableDays = "0,9" },
		"bad booked time": func(h *harness) {
			h.repo.Bookings = append(h.repo.Bookings, &models.Booking{
				InstructorID: instructorID, Date: monday, Time: "half past", Status: string(domain.StatusConfirmed),
			})
		},
		"storage failure": func(h *harness) { h.repo.Fail["ListTakenTimes"] = errors.New("connection reset") },
	}

	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(fixedNow)
			corrupt(h)

			slots, err := h.availability.Execute(context.Background(), instructorID, d)

			require.NoError(t, err)
			assert.NotNil(t, slots)
			assert.Empty(t, slots)
		})
	}
}
