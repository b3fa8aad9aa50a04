package booking

import (
	"context"

	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

// CheckoutRequest describes one hosted checkout for a staged intent.
type CheckoutRequest struct {
	Amount      float64
	Currency    string
	Description string

	SuccessURL string
	CancelURL  string
	NotifyURL  string

	// CorrelationToken comes back on the provider payment and identifies the
	// paying user.
	CorrelationToken string
	InvoiceID        string
}

// PaymentInfo is a provider payment normalized to our statuses.
type PaymentInfo struct {
	ProviderID       string
	Status           string
	CorrelationToken string
	Amount           float64
	Currency         string
}

type PaymentGateway interface {
	// CreateCheckout returns the URL the payer is redirected to.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	GetPayment(ctx context.Context, providerPaymentID string) (*PaymentInfo, error)
}

// Notifier delivers booking notices. Implementations must not block the
// caller and must not report delivery failures back.
type Notifier interface {
	BookingConfirmed(b *models.Booking, user *models.User)
	BookingCancelled(b *models.Booking, user *models.User)
	PaymentIssueRaised(issue *models.PaymentIssue, user *models.User)
}
