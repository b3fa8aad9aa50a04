package booking

import "errors"

var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrValidation wraps missing or unresolvable booking fields.
	ErrValidation = errors.New("invalid booking request")

	ErrSlotUnavailable           = errors.New("slot unavailable")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrInvalidTransition         = errors.New("invalid booking state transition")
	ErrNotFound                  = errors.New("booking not found")

	// ErrPaymentReconciliationConflict means a completed payment could not be
	// turned into a booking because its slot was taken in the meantime.
	ErrPaymentReconciliationConflict = errors.New("payment reconciliation conflict")

	ErrPaymentGateway = errors.New("payment gateway failure")
	ErrPersistence    = errors.New("persistence failure")
)
