package billing

import (
	"errors"

	"github.com/FelixBrandt/PayFox/app/models"
)

// Service-level error taxonomy. Controllers map these to HTTP statuses.
var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("resource belongs to a different customer")
)

// ValidationError signals a rejected input before any remote call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidationError reports whether err is an input validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CreateIntentInput describes a payment intent creation request.
type CreateIntentInput struct {
	Amount             float64
	Currency           string
	PaymentMethodTypes []string
	Description        string
	Metadata           map[string]string
}

// ConfirmIntentInput describes a payment intent confirmation request.
// PaymentMethodID is optional; the user's default method is used when empty.
type ConfirmIntentInput struct {
	PaymentIntentID string
	PaymentMethodID string
}

// IntentResult is the client-facing view of a payment intent after a
// synchronous create or confirm call.
type IntentResult struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	ClientSecret    string  `json:"client_secret,omitempty"`
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

// SetupResult is the client-facing view of a setup intent.
type SetupResult struct {
	SetupIntentID   string `json:"setup_intent_id"`
	ClientSecret    string `json:"client_secret,omitempty"`
	Status          string `json:"status"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

// PaymentMethodInfo is the listing view of an attached payment method.
// IsDefault always comes from the local mirror, never from remote
// billing details.
type PaymentMethodInfo struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Last4     string `json:"last4"`
	Brand     string `json:"brand"`
	IsDefault bool   `json:"is_default"`
}

// CreateSubscriptionInput describes a subscription creation request.
// PaymentMethodID is optional; the user's default method is used when empty.
type CreateSubscriptionInput struct {
	PriceID         string
	PaymentMethodID string
}

// SubscriptionResult pairs the local mirror row with the optional client
// secret of the confirmation payment intent. ClientSecret may be empty when
// the best-effort invoice expansion was unavailable; the subscription itself
// is still valid in that case.
type SubscriptionResult struct {
	Subscription *models.Subscription `json:"subscription"`
	ClientSecret string               `json:"client_secret,omitempty"`
}

// PriceInfo is one entry of the cached price catalog.
type PriceInfo struct {
	ID          string  `json:"id"`
	Currency    string  `json:"currency"`
	UnitAmount  float64 `json:"unit_amount"`
	Interval    string  `json:"interval,omitempty"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
}

// WebhookEventInput carries a received provider event into persistence.
type WebhookEventInput struct {
	StripeEventID  string
	EventType      string
	PayloadJSON    string
	SignatureValid bool
}
