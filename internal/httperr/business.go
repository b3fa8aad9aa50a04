package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
)

type mapping struct {
	err     error
	status  int
	code    string
	message string
}

// Order matters: the first sentinel err matches wins.
var businessErrors = []mapping{
	{domain.ErrInvalidDateFormat, http.StatusBadRequest, "invalid_date", "Date must be YYYY-MM-DD."},
	{domain.ErrInvalidTimeFormat, http.StatusBadRequest, "invalid_time", "Time must be HH:MM or HH:MM:SS."},
	{domain.ErrValidation, http.StatusBadRequest, "invalid_request", "The booking request is not valid."},
	{domain.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable", "That time slot is no longer available."},
	{domain.ErrCancellationWindowExpired, http.StatusUnprocessableEntity, "cancellation_window_expired",
		"Bookings can only be cancelled until 24 hours before the lesson day."},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_status", "The booking can no longer be changed."},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", "Not found."},
	{domain.ErrPaymentReconciliationConflict, http.StatusConflict, "payment_reconciliation_conflict",
		"Your payment was received but the slot was taken meanwhile. Our staff will contact you."},
	{domain.ErrPaymentGateway, http.StatusBadGateway, "payment_unavailable", "Online payment is unavailable right now."},
	{domain.ErrPersistence, http.StatusInternalServerError, "internal_error", "Something went wrong. Please try again."},
}

// FromError writes the response for an error returned by a usecase. Unknown
// errors become a generic 500; their text never reaches the client.
func FromError(c *gin.Context, err error) {
	for _, m := range businessErrors {
		if errors.Is(err, m.err) {
			message := m.message
			if m.err == domain.ErrValidation {
				message = err.Error()
			}
			Write(c, m.status, m.code, message)
			return
		}
	}
	_ = c.Error(err)
	Internal(c, "internal_error", "Something went wrong. Please try again.")
}
