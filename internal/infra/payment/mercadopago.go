package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/infra/repository"
)

type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPagoGateway creates hosted checkouts (preferences) and looks up
// payments reported on the notification webhook.
type MercadoPagoGateway struct {
	preferences preferenceCreator
	payments    paymentGetter
}

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &MercadoPagoGateway{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
	}, nil
}

func (g *MercadoPagoGateway) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	pref, err := g.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:         req.InvoiceID,
				Title:      req.Description,
				Quantity:   1,
				UnitPrice:  req.Amount,
				CurrencyID: req.Currency,
			},
		},
		BackURLs: &preference.BackURLsRequest{
			Success: req.SuccessURL,
			Failure: req.CancelURL,
			Pending: req.SuccessURL,
		},
		AutoReturn:        "approved",
		NotificationURL:   req.NotifyURL,
		ExternalReference: req.CorrelationToken,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create preference: %v", domain.ErrPaymentGateway, err)
	}
	if pref.InitPoint == "" {
		return "", fmt.Errorf("%w: preference %s has no checkout url", domain.ErrPaymentGateway, pref.ID)
	}
	return pref.InitPoint, nil
}

func (g *MercadoPagoGateway) GetPayment(ctx context.Context, providerPaymentID string) (*domain.PaymentInfo, error) {
	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment id %q", domain.ErrValidation, providerPaymentID)
	}

	p, err := g.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get payment %d: %v", domain.ErrPaymentGateway, id, err)
	}

	return &domain.PaymentInfo{
		ProviderID:       strconv.Itoa(p.ID),
		Status:           normalizeStatus(p.Status),
		CorrelationToken: p.ExternalReference,
		Amount:           p.TransactionAmount,
		Currency:         p.CurrencyID,
	}, nil
}

// normalizeStatus maps provider statuses onto the stored notification status.
// Only "approved" means the money is ours.
func normalizeStatus(status string) string {
	if status == "approved" {
		return repository.NotificationCompleted
	}
	return status
}

var _ domain.PaymentGateway = (*MercadoPagoGateway)(nil)
