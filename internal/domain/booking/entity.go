package booking

import (
	"time"

	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

// CancellationNotice is how long before the scheduled day a booking may still
// be cancelled by its owner.
const CancellationNotice = 24 * time.Hour

// ===============================
// Domain Actions
// ===============================

func Confirm(b *models.Booking) error {
	if err := CanConfirm(Status(b.Status)); err != nil {
		return err
	}
	b.Status = string(StatusConfirmed)
	return nil
}

// ConfirmPaid confirms a booking whose online payment has settled.
func ConfirmPaid(b *models.Booking, paymentReference string) error {
	if err := Confirm(b); err != nil {
		return err
	}
	b.PaymentStatus = string(PaymentCompleted)
	b.PaymentReference = paymentReference
	return nil
}

func Cancel(b *models.Booking, now time.Time) error {
	if err := CanCancel(Status(b.Status)); err != nil {
		return err
	}
	b.Status = string(StatusCancelled)
	b.CancelledAt = &now
	return nil
}

// CancellationDeadline is midnight of the scheduled day in loc, minus the
// notice period.
func CancellationDeadline(b *models.Booking, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(b.Date)
	if err != nil {
		return time.Time{}, err
	}
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(-CancellationNotice), nil
}

// CanCancelAt reports whether now is still inside the cancellation window.
// The deadline itself is allowed.
func CanCancelAt(b *models.Booking, now time.Time, loc *time.Location) bool {
	deadline, err := CancellationDeadline(b, loc)
	if err != nil {
		return false
	}
	return !now.After(deadline)
}
