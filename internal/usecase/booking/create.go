package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/lesson-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/metrics"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
	"github.com/BruksfildServices01/lesson-scheduler/internal/timezone"
)

const maxNotesLength = 500

// ======================================================
// INPUT / OUTPUT
// ======================================================

type CreateBookingInput struct {
	UserID    uint
	SessionID string

	PackageID    uint
	WeaponID     *uint
	InstructorID uint
	LocationID   *uint

	Date        string
	Time        string
	DurationMin int

	PaymentMethod string
	Notes         string
}

// CreateBookingResult holds the confirmed booking (cash) or the checkout URL
// the payer must visit (online).
type CreateBookingResult struct {
	Booking     *models.Booking
	CheckoutURL string
}

// CheckoutConfig is the fixed part of every hosted checkout.
type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	NotifyURL  string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo     domain.Repository
	guard    *ConflictGuard
	stash    domain.Stash
	gateway  domain.PaymentGateway
	checkout CheckoutConfig
	notifier domain.Notifier
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	clock    timezone.Clock
	log      *zap.Logger
}

// NewCreateBooking wires the create flow. gateway may be nil, in which case
// only cash bookings are accepted.
func NewCreateBooking(
	repo domain.Repository,
	guard *ConflictGuard,
	stash domain.Stash,
	gateway domain.PaymentGateway,
	checkout CheckoutConfig,
	notifier domain.Notifier,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	clock timezone.Clock,
	log *zap.Logger,
) *CreateBooking {
	return &CreateBooking{
		repo:     repo,
		guard:    guard,
		stash:    stash,
		gateway:  gateway,
		checkout: checkout,
		notifier: notifier,
		audit:    audit,
		metrics:  metrics,
		clock:    clock,
		log:      log,
	}
}

// resolvedRequest is a validated request with its referenced entities.
type resolvedRequest struct {
	intent   domain.Intent
	method   domain.PaymentMethod
	user     *models.User
	pkg      *models.TrainingPackage
	ins      *models.Instructor
	weapon   *models.Weapon
	location *models.RangeLocation
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (*CreateBookingResult, error) {

	req, candidate, err := uc.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	if !uc.guard.IsBookable(ctx, candidate) {
		uc.metrics.SlotConflict("guard")
		uc.audit.Dispatch(audit.Event{
			UserID: &in.UserID,
			Action: audit.ActionBookingConflict,
			Entity: audit.EntityBooking,
			Metadata: map[string]any{
				"instructor_id": in.InstructorID,
				"date":          req.intent.Date,
				"time":          req.intent.Time,
			},
		})
		return nil, domain.ErrSlotUnavailable
	}

	switch req.method {
	case domain.PaymentCash:
		return uc.finalizeCash(ctx, req)
	default:
		return uc.deferOnline(ctx, in.SessionID, req)
	}
}

// --------------------------------------------------
// Validation
// --------------------------------------------------

func (uc *CreateBooking) validate(
	ctx context.Context,
	in CreateBookingInput,
) (*resolvedRequest, Candidate, error) {

	method := domain.PaymentMethod(in.PaymentMethod)
	if !method.Valid() {
		return nil, Candidate{}, fmt.Errorf("%w: payment method %q", domain.ErrValidation, in.PaymentMethod)
	}
	if method == domain.PaymentOnline {
		if uc.gateway == nil {
			return nil, Candidate{}, fmt.Errorf("%w: online payment is not available", domain.ErrValidation)
		}
		if in.SessionID == "" {
			return nil, Candidate{}, fmt.Errorf("%w: online payment needs a session", domain.ErrValidation)
		}
	}

	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return nil, Candidate{}, err
	}
	slotTime, err := domain.ParseTime(in.Time)
	if err != nil {
		return nil, Candidate{}, err
	}

	if earliest := uc.clock.Today().AddDate(0, 0, 1); date.Before(earliest) {
		return nil, Candidate{}, fmt.Errorf("%w: date must be %s or later", domain.ErrValidation, domain.FormatDate(earliest))
	}

	if utf8.RuneCountInString(in.Notes) > maxNotesLength {
		return nil, Candidate{}, fmt.Errorf("%w: notes longer than %d characters", domain.ErrValidation, maxNotesLength)
	}

	req := &resolvedRequest{method: method}

	if req.user, err = uc.repo.GetUser(ctx, in.UserID); err != nil {
		return nil, Candidate{}, lookupError("user", in.UserID, err)
	}

	if req.pkg, err = uc.repo.GetPackage(ctx, in.PackageID); err != nil {
		return nil, Candidate{}, lookupError("package", in.PackageID, err)
	}
	if !req.pkg.Active {
		return nil, Candidate{}, fmt.Errorf("%w: package %d is not active", domain.ErrValidation, in.PackageID)
	}

	if req.ins, err = uc.repo.GetInstructor(ctx, in.InstructorID); err != nil {
		return nil, Candidate{}, lookupError("instructor", in.InstructorID, err)
	}
	if !req.ins.Active {
		return nil, Candidate{}, fmt.Errorf("%w: instructor %d is not active", domain.ErrValidation, in.InstructorID)
	}

	if in.WeaponID != nil {
		if req.weapon, err = uc.repo.GetWeapon(ctx, *in.WeaponID); err != nil {
			return nil, Candidate{}, lookupError("weapon", *in.WeaponID, err)
		}
		if !req.weapon.Active {
			return nil, Candidate{}, fmt.Errorf("%w: weapon %d is not active", domain.ErrValidation, *in.WeaponID)
		}
	}

	if in.LocationID != nil {
		if req.location, err = uc.repo.GetLocation(ctx, *in.LocationID); err != nil {
			return nil, Candidate{}, lookupError("location", *in.LocationID, err)
		}
		if !req.location.Active {
			return nil, Candidate{}, fmt.Errorf("%w: location %d is not active", domain.ErrValidation, *in.LocationID)
		}
	}

	duration := in.DurationMin
	if duration == 0 {
		duration = req.pkg.DurationMin
	}
	if duration <= 0 {
		return nil, Candidate{}, fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	}

	req.intent = domain.Intent{
		UserID:       in.UserID,
		PackageID:    in.PackageID,
		WeaponID:     in.WeaponID,
		InstructorID: in.InstructorID,
		LocationID:   in.LocationID,
		Date:         domain.FormatDate(date),
		Time:         slotTime.String(),
		DurationMin:  duration,
		Notes:        in.Notes,
		Amount:       req.pkg.Price,
		StagedAt:     uc.clock.Current(),
	}

	return req, Candidate{InstructorID: in.InstructorID, Date: date, Time: slotTime}, nil
}

// lookupError turns a missing referenced entity into a validation error and
// anything else into a persistence failure.
func lookupError(entity string, id uint, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: unknown %s %d", domain.ErrValidation, entity, id)
	}
	return fmt.Errorf("%w: load %s %d: %v", domain.ErrPersistence, entity, id, err)
}

// --------------------------------------------------
// Cash: persist now
// --------------------------------------------------

func (uc *CreateBooking) finalizeCash(ctx context.Context, req *resolvedRequest) (*CreateBookingResult, error) {
	b := bookingFromIntent(req.intent, domain.PaymentCash)

	if err := uc.repo.InsertIfSlotFree(ctx, b, domain.Confirm); err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			uc.metrics.SlotConflict("insert")
			return nil, domain.ErrSlotUnavailable
		}
		uc.log.Error("create booking: insert",
			zap.Uint("user_id", req.intent.UserID),
			zap.Uint("instructor_id", req.intent.InstructorID),
			zap.String("date", req.intent.Date),
			zap.String("time", req.intent.Time),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: create booking", domain.ErrPersistence)
	}

	b.Package = *req.pkg
	b.Instructor = *req.ins
	b.Weapon = req.weapon
	b.Location = req.location

	uc.metrics.BookingCreated(string(domain.PaymentCash))
	uc.audit.Dispatch(audit.Event{
		UserID:   &b.UserID,
		Action:   audit.ActionBookingCreated,
		Entity:   audit.EntityBooking,
		EntityID: &b.ID,
		Metadata: map[string]any{"payment_method": b.PaymentMethod},
	})
	uc.notifier.BookingConfirmed(b, req.user)

	return &CreateBookingResult{Booking: b}, nil
}

// --------------------------------------------------
// Online: stage and redirect
// --------------------------------------------------

// deferOnline stages the intent for the session and opens a checkout. No row
// is written, so the slot stays bookable by others until payment settles.
func (uc *CreateBooking) deferOnline(
	ctx context.Context,
	sessionID string,
	req *resolvedRequest,
) (*CreateBookingResult, error) {

	if err := uc.stash.Put(ctx, sessionID, req.intent); err != nil {
		uc.log.Error("create booking: stage intent", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: stage payment", domain.ErrPersistence)
	}

	url, err := uc.gateway.CreateCheckout(ctx, domain.CheckoutRequest{
		Amount:           req.intent.Amount,
		Currency:         uc.checkout.Currency,
		Description:      checkoutDescription(req),
		SuccessURL:       uc.checkout.SuccessURL,
		CancelURL:        uc.checkout.CancelURL,
		NotifyURL:        uc.checkout.NotifyURL,
		CorrelationToken: correlationToken(req.intent.UserID),
		InvoiceID:        uuid.NewString(),
	})
	if err != nil {
		uc.log.Error("create booking: checkout", zap.Uint("user_id", req.intent.UserID), zap.Error(err))
		if derr := uc.stash.Discard(ctx, sessionID); derr != nil {
			uc.log.Warn("create booking: discard staged intent", zap.String("session_id", sessionID), zap.Error(derr))
		}
		return nil, fmt.Errorf("%w: checkout unavailable", domain.ErrPaymentGateway)
	}

	return &CreateBookingResult{CheckoutURL: url}, nil
}

func checkoutDescription(req *resolvedRequest) string {
	return fmt.Sprintf("%s with %s on %s at %s", req.pkg.Name, req.ins.Name, req.intent.Date, req.intent.Time[:5])
}

// correlationToken identifies the paying user on provider payments.
func correlationToken(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

func bookingFromIntent(in domain.Intent, method domain.PaymentMethod) *models.Booking {
	return &models.Booking{
		UserID:        in.UserID,
		PackageID:     in.PackageID,
		WeaponID:      in.WeaponID,
		InstructorID:  in.InstructorID,
		LocationID:    in.LocationID,
		Date:          in.Date,
		Time:          in.Time,
		DurationMin:   in.DurationMin,
		PaymentMethod: string(method),
		PaymentStatus: string(domain.PaymentUnpaid),
		Status:        string(domain.InitialStatus()),
		Notes:         in.Notes,
	}
}
