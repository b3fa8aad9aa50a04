package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/lesson-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/metrics"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
)

type CancelBooking struct {
	repo     domain.Repository
	notifier domain.Notifier
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	clock    timezone.Clock
	log      *zap.Logger
}

func NewCancelBooking(
	repo domain.Repository,
	notifier domain.Notifier,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	clock timezone.Clock,
	log *zap.Logger,
) *CancelBooking {
	return &CancelBooking{
		repo:     repo,
		notifier: notifier,
		audit:    audit,
		metrics:  metrics,
		clock:    clock,
		log:      log,
	}
}

func (uc *CancelBooking) Execute(
	ctx context.Context,
	userID uint,
	bookingID uint,
) (*models.Booking, error) {

	b, err := uc.repo.GetBookingForUser(ctx, bookingID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		uc.log.Error("cancel booking: load", zap.Uint("booking_id", bookingID), zap.Error(err))
		return nil, fmt.Errorf("%w: load booking", domain.ErrPersistence)
	}

	if err := domain.CanCancel(domain.Status(b.Status)); err != nil {
		return nil, err
	}

	now := uc.clock.Current()
	if !domain.CanCancelAt(b, now, uc.clock.Location()) {
		return nil, domain.ErrCancellationWindowExpired
	}

	if err := domain.Cancel(b, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		uc.log.Error("cancel booking: update", zap.Uint("booking_id", bookingID), zap.Error(err))
		return nil, fmt.Errorf("%w: cancel booking", domain.ErrPersistence)
	}

	uc.metrics.BookingCancelled()
	uc.audit.Dispatch(audit.Event{
		UserID:   &userID,
		Action:   audit.ActionBookingCancelled,
		Entity:   audit.EntityBooking,
		EntityID: &b.ID,
	})

	user, err := uc.repo.GetUser(ctx, userID)
	if err != nil {
		uc.log.Warn("cancel booking: no recipient for notice", zap.Uint("user_id", userID), zap.Error(err))
		return b, nil
	}
	uc.notifier.BookingCancelled(b, user)

	return b, nil
}
