package models

import "time"

// PaymentNotification is a provider payment as received through the
// server-to-server channel. CorrelationToken carries the paying user's id.
type PaymentNotification struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	ProviderPaymentID string  `gorm:"size:64;not null;uniqueIndex" json:"provider_payment_id"`
	Status            string  `gorm:"size:20;not null;index:ix_payment_token_status" json:"status"`
	CorrelationToken  string  `gorm:"size:64;not null;index:ix_payment_token_status" json:"correlation_token"`
	Amount            float64 `json:"amount"`
	Currency          string  `gorm:"size:3" json:"currency"`

	BookingID  *uint      `json:"booking_id"`
	ConsumedAt *time.Time `json:"consumed_at"`

	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PaymentIssue records money collected for a slot that was gone by the time
// the payment was reconciled. Open issues need a refund or a manual rebooking.
type PaymentIssue struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	UserID            uint   `gorm:"not null;index" json:"user_id"`
	ProviderPaymentID string `gorm:"size:64" json:"provider_payment_id"`
	Intent            string `gorm:"type:text;not null" json:"intent"`
	Reason            string `gorm:"size:100;not null" json:"reason"`
	Status            string `gorm:"size:20;not null;default:'open';index" json:"status"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}
