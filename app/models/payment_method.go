package models

import "time"

// PaymentMethod mirrors one remote payment method attached to a customer.
// At most one row per user carries IsDefault = true; the billing service
// clears all defaults before setting a new one.
type PaymentMethod struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;index" json:"user_id"`
	StripePaymentMethodID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_payment_method_id"`
	Type                  string    `gorm:"type:varchar(50);not null" json:"type"`
	Last4                 string    `gorm:"type:varchar(4)" json:"last4"`
	Brand                 string    `gorm:"type:varchar(32)" json:"brand"`
	IsDefault             bool      `gorm:"default:false;index" json:"is_default"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
