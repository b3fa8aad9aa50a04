package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
)

// Wednesday lesson; its cancellation deadline is Tue 2025-06-03 00:00 UTC.
const wednesday = "2025-06-04"

var wednesdayDeadline = time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

func TestCancelBooking_TwentyFiveHoursAhead(t *testing.T) {
	h := newHarness(wednesdayDeadline.Add(-time.Hour))
	b := addBooking(h.repo, customerID, wednesday, "09:00:00", domain.StatusConfirmed)

	got, err := h.cancel.Execute(context.Background(), customerID, b.ID)

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), got.Status)
	require.NotNil(t, got.CancelledAt)
	assert.Zero(t, h.repo.ActiveBookings())
	require.Len(t, h.notifier.cancelled, 1)
	assert.Equal(t, b.ID, h.notifier.cancelled[0].ID)
}

func TestCancelBooking_DeadlineIsInclusive(t *testing.T) {
	h := newHarness(wednesdayDeadline)
	b := addBooking(h.repo, customerID, wednesday, "09:00:00", domain.StatusPending)

	_, err := h.cancel.Execute(context.Background(), customerID, b.ID)

	assert.NoError(t, err)
}

func TestCancelBooking_WindowExpired(t *testing.T) {
	for name, now := range map[string]time.Time{
		"one second late": wednesdayDeadline.Add(time.Second),
		"day before":      wednesdayDeadline.Add(10 * time.Hour),
		"same day":        wednesdayDeadline.Add(30 * time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(now)
			b := addBooking(h.repo, customerID, wednesday, "18:00:00", domain.StatusConfirmed)

			_, err := h.cancel.Execute(context.Background(), customerID, b.ID)

			assert.ErrorIs(t, err, domain.ErrCancellationWindowExpired)
			assert.Equal(t, 1, h.repo.ActiveBookings())
			assert.Empty(t, h.notifier.cancelled)
		})
	}
}

func TestCancelBooking_UsesBusinessTimezone(t *testing.T) {
	ny := timezone.Location("America/New_York")
	// Deadline is Tue 00:00 in New York = Tue 04:00 UTC.
	now := time.Date(2025, 6, 3, 3, 0, 0, 0, time.UTC)

	h := newHarness(now)
	h.cancel.clock = timezone.Clock{Loc: ny, Now: func() time.Time { return now }}
	b := addBooking(h.repo, customerID, wednesday, "09:00:00", domain.StatusConfirmed)

	_, err := h.cancel.Execute(context.Background(), customerID, b.ID)

	assert.NoError(t, err)
}

func TestCancelBooking_OnlyOwner(t *testing.T) {
	h := newHarness(fixedNow)
	b := addBooking(h.repo, otherUserID, wednesday, "09:00:00", domain.StatusConfirmed)

	_, err := h.cancel.Execute(context.Background(), customerID, b.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, h.repo.ActiveBookings())
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	h := newHarness(fixedNow)
	b := addBooking(h.repo, customerID, wednesday, "09:00:00", domain.StatusCancelled)

	_, err := h.cancel.Execute(context.Background(), customerID, b.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelBooking_PersistenceFailure(t *testing.T) {
	h := newHarness(fixedNow)
	b := addBooking(h.repo, customerID, wednesday, "09:00:00", domain.StatusConfirmed)
	h.repo.Fail["UpdateBooking"] = errors.New("timeout")

	_, err := h.cancel.Execute(context.Background(), customerID, b.ID)

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, h.notifier.cancelled)
}

func TestCancelBooking_FreesSlotForOthers(t *testing.T) {
	h := newHarness(fixedNow)
	b := addBooking(h.repo, customerID, wednesday, "09:00:00", domain.StatusConfirmed)
	c := candidate(wednesday, 9, 0)
	require.False(t, h.guard.IsBookable(context.Background(), c))

	_, err := h.cancel.Execute(context.Background(), customerID, b.ID)
	require.NoError(t, err)

	assert.True(t, h.guard.IsBookable(context.Background(), c))
}
