package booking

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses occupy a slot.
var ActiveStatuses = []string{string(StatusPending), string(StatusConfirmed)}

func IsActive(s Status) bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentCompleted PaymentStatus = "completed"
)

// ===============================
// Transitions
// ===============================

// CanConfirm: pending -> confirmed only.
func CanConfirm(current Status) error {
	if current != StatusPending {
		return ErrInvalidTransition
	}
	return nil
}

// CanCancel: pending|confirmed -> cancelled.
func CanCancel(current Status) error {
	if !IsActive(current) {
		return ErrInvalidTransition
	}
	return nil
}

func InitialStatus() Status {
	return StatusPending
}
