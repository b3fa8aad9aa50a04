package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
)

// BookingView is a booking as shown to its owner.
type BookingView struct {
	models.Booking
	CanCancel      bool       `json:"can_cancel"`
	CancelDeadline *time.Time `json:"cancel_deadline,omitempty"`
}

// Dashboard splits a user's bookings around today. Upcoming runs soonest
// first, past most recent first.
type Dashboard struct {
	Upcoming []BookingView `json:"upcoming"`
	Past     []BookingView `json:"past"`
}

type ListBookings struct {
	repo  domain.Repository
	clock timezone.Clock
	log   *zap.Logger
}

func NewListBookings(repo domain.Repository, clock timezone.Clock, log *zap.Logger) *ListBookings {
	return &ListBookings{repo: repo, clock: clock, log: log}
}

func (uc *ListBookings) Execute(ctx context.Context, userID uint) (*Dashboard, error) {
	bookings, err := uc.repo.ListBookingsForUser(ctx, userID)
	if err != nil {
		uc.log.Error("list bookings", zap.Uint("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: list bookings", domain.ErrPersistence)
	}

	now := uc.clock.Current()
	today := domain.FormatDate(uc.clock.Today())

	out := &Dashboard{Upcoming: []BookingView{}, Past: []BookingView{}}
	for _, b := range bookings {
		v := viewOf(b, now, uc.clock)
		if b.Date >= today {
			out.Upcoming = append(out.Upcoming, v)
		} else {
			out.Past = append([]BookingView{v}, out.Past...)
		}
	}
	return out, nil
}

type GetBooking struct {
	repo  domain.Repository
	clock timezone.Clock
	log   *zap.Logger
}

func NewGetBooking(repo domain.Repository, clock timezone.Clock, log *zap.Logger) *GetBooking {
	return &GetBooking{repo: repo, clock: clock, log: log}
}

func (uc *GetBooking) Execute(ctx context.Context, userID, bookingID uint) (*BookingView, error) {
	b, err := uc.repo.GetBookingForUser(ctx, bookingID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		uc.log.Error("get booking", zap.Uint("booking_id", bookingID), zap.Error(err))
		return nil, fmt.Errorf("%w: load booking", domain.ErrPersistence)
	}

	v := viewOf(*b, uc.clock.Current(), uc.clock)
	return &v, nil
}

func viewOf(b models.Booking, now time.Time, clock timezone.Clock) BookingView {
	v := BookingView{Booking: b}
	if !domain.IsActive(domain.Status(b.Status)) {
		return v
	}
	if deadline, err := domain.CancellationDeadline(&b, clock.Location()); err == nil {
		v.CancelDeadline = &deadline
		v.CanCancel = !now.After(deadline)
	}
	return v
}
