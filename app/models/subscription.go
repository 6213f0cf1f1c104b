package models

import "time"

const (
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusPaused            = "paused"
)

// Subscription mirrors one remote subscription lifecycle. Cancellation is a
// status transition, never a row removal.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index" json:"user_id"`
	StripeSubscriptionID  string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_subscription_id"`
	StripePriceID         string     `gorm:"type:varchar(191)" json:"stripe_price_id"`
	StripePaymentMethodID string     `gorm:"type:varchar(191)" json:"stripe_payment_method_id,omitempty"`
	Status                string     `gorm:"type:varchar(32);not null;default:'incomplete';index" json:"status"`
	CurrentPeriodStart    *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd      *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAt              *time.Time `gorm:"type:timestamp;default:null" json:"cancel_at,omitempty"`
	LatestInvoiceID       string     `gorm:"type:varchar(191)" json:"latest_invoice_id,omitempty"`
	LatestPaymentIntentID string     `gorm:"type:varchar(191)" json:"latest_payment_intent_id,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the subscription can no longer become active
// without creating a new one.
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusCanceled || s.Status == SubscriptionStatusIncompleteExpired
}
