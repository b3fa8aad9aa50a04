package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/lesson-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/metrics"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type ReconcileStatus string

const (
	// ReconcileConfirmed: the paid intent is now a confirmed booking.
	ReconcileConfirmed ReconcileStatus = "confirmed"
	// ReconcileProcessing: no completed payment (or no staged intent) yet.
	ReconcileProcessing ReconcileStatus = "processing"
)

// Issue reasons.
const (
	IssueSlotTaken     = "slot_taken"
	IssueIntentInvalid = "intent_invalid"
)

type ReconcileResult struct {
	Status  ReconcileStatus `json:"status"`
	Booking *models.Booking `json:"booking,omitempty"`
}

// ReconcilePayment matches completed provider payments to staged intents.
type ReconcilePayment struct {
	repo     domain.Repository
	payments domain.PaymentRepository
	stash    domain.Stash
	guard    *ConflictGuard
	gateway  domain.PaymentGateway
	notifier domain.Notifier
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewReconcilePayment(
	repo domain.Repository,
	payments domain.PaymentRepository,
	stash domain.Stash,
	guard *ConflictGuard,
	gateway domain.PaymentGateway,
	notifier domain.Notifier,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	log *zap.Logger,
) *ReconcilePayment {
	return &ReconcilePayment{
		repo:     repo,
		payments: payments,
		stash:    stash,
		guard:    guard,
		gateway:  gateway,
		notifier: notifier,
		audit:    audit,
		metrics:  metrics,
		log:      log,
	}
}

func processing() *ReconcileResult {
	return &ReconcileResult{Status: ReconcileProcessing}
}

// Execute runs when the payer returns from checkout. A slot taken while the
// payment was in flight yields ErrPaymentReconciliationConflict and an open
// payment issue.
func (uc *ReconcilePayment) Execute(
	ctx context.Context,
	userID uint,
	sessionID string,
) (*ReconcileResult, error) {

	n, err := uc.payments.LatestCompletedNotification(ctx, correlationToken(userID))
	if err != nil {
		uc.log.Error("reconcile: load notification", zap.Uint("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: load payment", domain.ErrPersistence)
	}
	if n == nil {
		uc.metrics.Reconciled(string(ReconcileProcessing))
		return processing(), nil
	}

	return uc.materializeSession(ctx, n, userID, sessionID)
}

// HandleNotification processes the provider's server-to-server message for
// one payment. It is safe to receive the same payment more than once.
func (uc *ReconcilePayment) HandleNotification(
	ctx context.Context,
	providerPaymentID string,
) (*ReconcileResult, error) {

	if uc.gateway == nil {
		return nil, fmt.Errorf("%w: online payment is not available", domain.ErrValidation)
	}

	info, err := uc.gateway.GetPayment(ctx, providerPaymentID)
	if err != nil {
		return nil, err
	}

	n := &models.PaymentNotification{
		ProviderPaymentID: info.ProviderID,
		Status:            info.Status,
		CorrelationToken:  info.CorrelationToken,
		Amount:            info.Amount,
		Currency:          info.Currency,
	}
	if err := uc.payments.SaveNotification(ctx, n); err != nil {
		uc.log.Error("reconcile: save notification",
			zap.String("provider_payment_id", info.ProviderID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: save payment", domain.ErrPersistence)
	}

	if info.Status != string(domain.PaymentCompleted) {
		return processing(), nil
	}

	userID, err := strconv.ParseUint(info.CorrelationToken, 10, 64)
	if err != nil {
		uc.log.Warn("reconcile: payment without a user reference",
			zap.String("provider_payment_id", info.ProviderID),
			zap.String("external_reference", info.CorrelationToken),
		)
		return processing(), nil
	}

	// The upsert may have hit a row that was already consumed, so work from
	// the user's latest unconsumed completed payment instead.
	latest, err := uc.payments.LatestCompletedNotification(ctx, info.CorrelationToken)
	if err != nil {
		return nil, fmt.Errorf("%w: load payment", domain.ErrPersistence)
	}
	if latest == nil {
		return processing(), nil
	}

	sessionID, err := uc.stash.SessionForUser(ctx, uint(userID))
	if err != nil {
		uc.log.Error("reconcile: resolve session", zap.Uint64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: resolve session", domain.ErrPersistence)
	}
	if sessionID == "" {
		return processing(), nil
	}

	return uc.materializeSession(ctx, latest, uint(userID), sessionID)
}

func (uc *ReconcilePayment) materializeSession(
	ctx context.Context,
	n *models.PaymentNotification,
	userID uint,
	sessionID string,
) (*ReconcileResult, error) {

	staged, err := uc.stash.Peek(ctx, sessionID)
	if err != nil {
		uc.log.Error("reconcile: read staged intent", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: load staged payment", domain.ErrPersistence)
	}
	if staged == nil {
		uc.metrics.Reconciled(string(ReconcileProcessing))
		return processing(), nil
	}
	if staged.UserID != userID {
		uc.log.Warn("reconcile: staged intent belongs to another user",
			zap.String("session_id", sessionID),
			zap.Uint("user_id", userID),
			zap.Uint("intent_user_id", staged.UserID),
		)
		return nil, fmt.Errorf("%w: session does not belong to user", domain.ErrValidation)
	}
	if !paysFor(n, staged) {
		uc.log.Warn("reconcile: completed payment does not match staged intent",
			zap.String("provider_payment_id", n.ProviderPaymentID),
			zap.Float64("paid", n.Amount),
			zap.Float64("expected", staged.Amount),
			zap.Time("received_at", n.ReceivedAt),
			zap.Time("staged_at", staged.StagedAt),
		)
		uc.metrics.Reconciled(string(ReconcileProcessing))
		return processing(), nil
	}

	intent, err := uc.stash.Take(ctx, sessionID)
	if err != nil {
		uc.log.Error("reconcile: take staged intent", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: load staged payment", domain.ErrPersistence)
	}
	if intent == nil {
		// Another callback consumed it between peek and take.
		uc.metrics.Reconciled(string(ReconcileProcessing))
		return processing(), nil
	}
	if intent.UserID != userID || !paysFor(n, intent) {
		// Re-staged in between; leave the new intent for its own payment.
		if perr := uc.stash.Put(ctx, sessionID, *intent); perr != nil {
			uc.log.Error("reconcile: restore staged intent", zap.String("session_id", sessionID), zap.Error(perr))
		}
		uc.metrics.Reconciled(string(ReconcileProcessing))
		return processing(), nil
	}

	return uc.materialize(ctx, n, sessionID, intent)
}

// paysFor reports whether a completed payment settles the intent: same
// amount, received no earlier than the intent was staged.
func paysFor(n *models.PaymentNotification, intent *domain.Intent) bool {
	if math.Abs(n.Amount-intent.Amount) >= 0.005 {
		return false
	}
	return !n.ReceivedAt.Before(intent.StagedAt)
}

func (uc *ReconcilePayment) materialize(
	ctx context.Context,
	n *models.PaymentNotification,
	sessionID string,
	intent *domain.Intent,
) (*ReconcileResult, error) {

	date, derr := domain.ParseDate(intent.Date)
	slotTime, terr := domain.ParseTime(intent.Time)
	if derr != nil || terr != nil {
		return nil, uc.raiseIssue(ctx, n, intent, IssueIntentInvalid)
	}

	if !uc.guard.IsBookable(ctx, Candidate{InstructorID: intent.InstructorID, Date: date, Time: slotTime}) {
		uc.metrics.SlotConflict("reconcile")
		return nil, uc.raiseIssue(ctx, n, intent, IssueSlotTaken)
	}

	b := bookingFromIntent(*intent, domain.PaymentOnline)
	err := uc.repo.InsertIfSlotFree(ctx, b, func(b *models.Booking) error {
		return domain.ConfirmPaid(b, n.ProviderPaymentID)
	})
	if errors.Is(err, domain.ErrSlotUnavailable) {
		uc.metrics.SlotConflict("reconcile")
		return nil, uc.raiseIssue(ctx, n, intent, IssueSlotTaken)
	}
	if err != nil {
		uc.log.Error("reconcile: insert booking",
			zap.String("provider_payment_id", n.ProviderPaymentID),
			zap.Error(err),
		)
		// Put the intent back so the next callback can retry.
		if perr := uc.stash.Put(ctx, sessionID, *intent); perr != nil {
			uc.log.Error("reconcile: restore staged intent", zap.String("session_id", sessionID), zap.Error(perr))
		}
		return nil, fmt.Errorf("%w: create booking", domain.ErrPersistence)
	}

	if err := uc.payments.MarkNotificationConsumed(ctx, n.ID, &b.ID); err != nil {
		uc.log.Error("reconcile: mark payment consumed",
			zap.Uint("notification_id", n.ID),
			zap.Uint("booking_id", b.ID),
			zap.Error(err),
		)
	}

	uc.metrics.Reconciled(string(ReconcileConfirmed))
	uc.metrics.BookingCreated(string(domain.PaymentOnline))
	uc.audit.Dispatch(audit.Event{
		UserID:   &b.UserID,
		Action:   audit.ActionPaymentReconciled,
		Entity:   audit.EntityBooking,
		EntityID: &b.ID,
		Metadata: map[string]any{"provider_payment_id": n.ProviderPaymentID},
	})

	if full, err := uc.repo.GetBookingForUser(ctx, b.ID, b.UserID); err == nil {
		b = full
	}
	if user, err := uc.repo.GetUser(ctx, b.UserID); err == nil {
		uc.notifier.BookingConfirmed(b, user)
	} else {
		uc.log.Warn("reconcile: no recipient for confirmation", zap.Uint("user_id", b.UserID), zap.Error(err))
	}

	return &ReconcileResult{Status: ReconcileConfirmed, Booking: b}, nil
}

// raiseIssue records money collected without a booking and always returns
// ErrPaymentReconciliationConflict.
func (uc *ReconcilePayment) raiseIssue(
	ctx context.Context,
	n *models.PaymentNotification,
	intent *domain.Intent,
	reason string,
) error {

	uc.metrics.Reconciled("conflict")

	payload, _ := json.Marshal(intent)
	issue := &models.PaymentIssue{
		UserID:            intent.UserID,
		ProviderPaymentID: n.ProviderPaymentID,
		Intent:            string(payload),
		Reason:            reason,
	}

	if err := uc.payments.CreateIssue(ctx, issue); err != nil {
		uc.log.Error("reconcile: record payment issue",
			zap.String("provider_payment_id", n.ProviderPaymentID),
			zap.String("intent", issue.Intent),
			zap.Error(err),
		)
	} else if err := uc.payments.MarkNotificationConsumed(ctx, n.ID, nil); err != nil {
		uc.log.Error("reconcile: mark payment consumed", zap.Uint("notification_id", n.ID), zap.Error(err))
	}

	uc.log.Error("reconcile: paid intent could not be booked",
		zap.Uint("user_id", intent.UserID),
		zap.String("provider_payment_id", n.ProviderPaymentID),
		zap.String("reason", reason),
		zap.Uint("instructor_id", intent.InstructorID),
		zap.String("date", intent.Date),
		zap.String("time", intent.Time),
	)

	uc.audit.Dispatch(audit.Event{
		UserID:   &issue.UserID,
		Action:   audit.ActionPaymentIssue,
		Entity:   audit.EntityPaymentIssue,
		EntityID: &issue.ID,
		Metadata: map[string]any{"reason": reason, "provider_payment_id": n.ProviderPaymentID},
	})

	user, err := uc.repo.GetUser(ctx, intent.UserID)
	if err != nil {
		user = nil
	}
	uc.notifier.PaymentIssueRaised(issue, user)

	return domain.ErrPaymentReconciliationConflict
}
