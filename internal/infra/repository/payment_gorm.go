package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/lesson-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/lesson-scheduler/internal/models"
)

// Notification statuses as stored.
const (
	NotificationCompleted = "completed"
	IssueOpen             = "open"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) SaveNotification(ctx context.Context, n *models.PaymentNotification) error {
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = time.Now()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_payment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "amount", "currency", "updated_at"}),
		}).
		Create(n).Error
}

func (r *PaymentGormRepository) LatestCompletedNotification(
	ctx context.Context,
	correlationToken string,
) (*models.PaymentNotification, error) {

	var n models.PaymentNotification
	err := r.db.WithContext(ctx).
		Where("correlation_token = ? AND status = ? AND consumed_at IS NULL", correlationToken, NotificationCompleted).
		Order("received_at DESC").
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkNotificationConsumed stamps the notification as used. bookingID is nil
// when the payment ended up as a payment issue instead of a booking.
func (r *PaymentGormRepository) MarkNotificationConsumed(ctx context.Context, notificationID uint, bookingID *uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.PaymentNotification{}).
		Where("id = ?", notificationID).
		Updates(map[string]any{"booking_id": bookingID, "consumed_at": now}).Error
}

func (r *PaymentGormRepository) CreateIssue(ctx context.Context, issue *models.PaymentIssue) error {
	if issue.Status == "" {
		issue.Status = IssueOpen
	}
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *PaymentGormRepository) ListOpenIssues(ctx context.Context) ([]models.PaymentIssue, error) {
	var out []models.PaymentIssue
	if err := r.db.WithContext(ctx).
		Where("status = ?", IssueOpen).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Compile-time check
var _ domain.PaymentRepository = (*PaymentGormRepository)(nil)
