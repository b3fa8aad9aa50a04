package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

type Payments struct {
	mu            sync.Mutex
	Notifications []*models.PaymentNotification
	Issues        []*models.PaymentIssue
	nextID        uint
}

func NewPayments() *Payments {
	return &Payments{}
}

func (p *Payments) SaveNotification(_ context.Context, n *models.PaymentNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = time.Now()
	}
	for _, stored := range p.Notifications {
		if stored.ProviderPaymentID == n.ProviderPaymentID {
			stored.Status = n.Status
			stored.Amount = n.Amount
			stored.Currency = n.Currency
			*n = *stored
			return nil
		}
	}
	p.nextID++
	n.ID = p.nextID
	cp := *n
	p.Notifications = append(p.Notifications, &cp)
	return nil
}

func (p *Payments) LatestCompletedNotification(_ context.Context, token string) (*models.PaymentNotification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var latest *models.PaymentNotification
	for _, n := range p.Notifications {
		if n.CorrelationToken != token || n.Status != string(domain.PaymentCompleted) || n.ConsumedAt != nil {
			continue
		}
		if latest == nil || !n.ReceivedAt.Before(latest.ReceivedAt) {
			latest = n
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (p *Payments) MarkNotificationConsumed(_ context.Context, notificationID uint, bookingID *uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.Notifications {
		if n.ID == notificationID {
			now := time.Now()
			n.ConsumedAt = &now
			n.BookingID = bookingID
			return nil
		}
	}
	return domain.ErrNotFound
}

func (p *Payments) CreateIssue(_ context.Context, issue *models.PaymentIssue) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	issue.ID = p.nextID
	if issue.Status == "" {
		issue.Status = "open"
	}
	issue.CreatedAt = time.Now()
	cp := *issue
	p.Issues = append(p.Issues, &cp)
	return nil
}

func (p *Payments) ListOpenIssues(_ context.Context) ([]models.PaymentIssue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []models.PaymentIssue{}
	for _, i := range p.Issues {
		if i.Status == "open" {
			out = append(out, *i)
		}
	}
	return out, nil
}

var _ domain.PaymentRepository = (*Payments)(nil)
