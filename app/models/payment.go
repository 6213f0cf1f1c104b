package models

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// MetadataMap is a free-form string map stored as a JSON column.
type MetadataMap map[string]string

// Payment mirrors one remote payment intent lifecycle. Rows are keyed by the
// Stripe payment intent id and are never hard-deleted.
type Payment struct {
	ID                    uint        `gorm:"primaryKey" json:"id"`
	UserID                uint        `gorm:"not null;index" json:"user_id"`
	StripePaymentIntentID string      `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_payment_intent_id"`
	Status                string      `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	Amount                float64     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency              string      `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentMethodType     string      `gorm:"type:varchar(50)" json:"payment_method_type"`
	Metadata              MetadataMap `gorm:"type:json;serializer:json" json:"metadata,omitempty"`
	CreatedAt             time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// MergeMetadata merges the given entries into the existing metadata map
// without discarding keys that are already present.
func (p *Payment) MergeMetadata(entries MetadataMap) {
	if p.Metadata == nil {
		p.Metadata = make(MetadataMap, len(entries))
	}
	for k, v := range entries {
		p.Metadata[k] = v
	}
}

// IsRefundable reports whether a full refund may still be issued locally.
func (p *Payment) IsRefundable() bool {
	return p.Status == PaymentStatusSucceeded
}
