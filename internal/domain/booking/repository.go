package booking

import (
	"context"

	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type Repository interface {
	// -------- Catalog entities --------
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetInstructor(ctx context.Context, id uint) (*models.Instructor, error)
	GetPackage(ctx context.Context, id uint) (*models.TrainingPackage, error)
	GetWeapon(ctx context.Context, id uint) (*models.Weapon, error)
	GetLocation(ctx context.Context, id uint) (*models.RangeLocation, error)

	// -------- Availability --------
	// GetOverride returns nil, nil when no override exists for the date.
	GetOverride(ctx context.Context, instructorID uint, date string) (*models.AvailabilityOverride, error)
	UpsertOverride(ctx context.Context, o *models.AvailabilityOverride) error
	DeleteOverride(ctx context.Context, instructorID uint, date string) error
	UpdateInstructorSchedule(ctx context.Context, ins *models.Instructor) error

	// ListTakenTimes returns the times of pending/confirmed bookings.
	ListTakenTimes(ctx context.Context, instructorID uint, date string) ([]string, error)
	HasActiveBooking(ctx context.Context, instructorID uint, date, time string) (bool, error)

	// -------- Booking (create / conflict) --------
	// InsertIfSlotFree re-checks the slot and inserts b inside one
	// transaction, then applies finalize (when not nil) before commit.
	// A taken slot yields ErrSlotUnavailable.
	InsertIfSlotFree(ctx context.Context, b *models.Booking, finalize func(*models.Booking) error) error

	// -------- Booking (owner) --------
	GetBookingForUser(ctx context.Context, bookingID, userID uint) (*models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error
	ListBookingsForUser(ctx context.Context, userID uint) ([]models.Booking, error)
}

type PaymentRepository interface {
	// SaveNotification is idempotent on the provider payment id.
	SaveNotification(ctx context.Context, n *models.PaymentNotification) error
	// LatestCompletedNotification returns nil, nil when none is pending use.
	LatestCompletedNotification(ctx context.Context, correlationToken string) (*models.PaymentNotification, error)
	MarkNotificationConsumed(ctx context.Context, notificationID uint, bookingID *uint) error

	CreateIssue(ctx context.Context, issue *models.PaymentIssue) error
	ListOpenIssues(ctx context.Context) ([]models.PaymentIssue, error)
}

// Stash keeps one Intent per session while its payment is in flight.
type Stash interface {
	Put(ctx context.Context, sessionID string, intent Intent) error
	// Take returns and removes the intent; nil, nil when absent or expired.
	Take(ctx context.Context, sessionID string) (*Intent, error)
	// Peek returns the intent without removing it.
	Peek(ctx context.Context, sessionID string) (*Intent, error)
	// SessionForUser returns the session that staged the user's latest
	// intent, or "".
	SessionForUser(ctx context.Context, userID uint) (string, error)
	Discard(ctx context.Context, sessionID string) error
}
