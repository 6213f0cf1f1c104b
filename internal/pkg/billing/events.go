package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"

	"github.com/FelixBrandt/PayFox/app/models"
)

// EventKind is the closed set of provider events this system reconciles.
// Everything else maps to EventKindIgnored and is acknowledged without a
// state change, so the provider does not retry events we choose to skip.
type EventKind int

const (
	EventKindIgnored EventKind = iota
	EventKindPaymentIntentSucceeded
	EventKindPaymentIntentFailed
	EventKindInvoicePaid
	EventKindInvoicePaymentFailed
	EventKindSubscriptionCreated
	EventKindSubscriptionUpdated
	EventKindSubscriptionDeleted
	EventKindPaymentMethodAttached
	EventKindPaymentMethodDetached
)

// ClassifyEvent maps a provider event type tag to its reconciler kind.
func ClassifyEvent(t stripe.EventType) EventKind {
	switch t {
	case stripe.EventTypePaymentIntentSucceeded:
		return EventKindPaymentIntentSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		return EventKindPaymentIntentFailed
	case stripe.EventTypeInvoicePaid:
		return EventKindInvoicePaid
	case stripe.EventTypeInvoicePaymentFailed:
		return EventKindInvoicePaymentFailed
	case stripe.EventTypeCustomerSubscriptionCreated:
		return EventKindSubscriptionCreated
	case stripe.EventTypeCustomerSubscriptionUpdated:
		return EventKindSubscriptionUpdated
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return EventKindSubscriptionDeleted
	case stripe.EventTypePaymentMethodAttached:
		return EventKindPaymentMethodAttached
	case stripe.EventTypePaymentMethodDetached:
		return EventKindPaymentMethodDetached
	default:
		return EventKindIgnored
	}
}

// ProcessEvent applies the state transition for one verified provider event.
// Handlers are idempotent upserts keyed on the remote identifier; a handler
// that finds no matching local row logs and exits without side effects.
func (s *Service) ProcessEvent(ctx context.Context, event stripe.Event) error {
	_ = ctx
	switch ClassifyEvent(event.Type) {
	case EventKindPaymentIntentSucceeded:
		return s.handlePaymentIntentOutcome(event, models.PaymentStatusSucceeded)
	case EventKindPaymentIntentFailed:
		return s.handlePaymentIntentOutcome(event, models.PaymentStatusFailed)
	case EventKindInvoicePaid:
		return s.handleInvoicePaid(event)
	case EventKindInvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(event)
	case EventKindSubscriptionCreated:
		return s.handleSubscriptionCreated(event)
	case EventKindSubscriptionUpdated, EventKindSubscriptionDeleted:
		return s.handleSubscriptionSync(event)
	case EventKindPaymentMethodAttached:
		return s.handlePaymentMethodAttached(event)
	case EventKindPaymentMethodDetached:
		return s.handlePaymentMethodDetached(event)
	default:
		log.Printf("[Billing] ignoring event type %s (%s)", event.Type, event.ID)
		return nil
	}
}

func (s *Service) handlePaymentIntentOutcome(event stripe.Event, status string) error {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return fmt.Errorf("parse payment intent: %w", err)
	}

	payment, err := s.store.GetPaymentByIntentID(pi.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] event %s: no local payment for intent %s", event.ID, pi.ID)
			return nil
		}
		return err
	}

	payment.Status = status
	if mt := intentMethodType(&pi); mt != "" {
		payment.PaymentMethodType = mt
	}
	return s.store.SavePayment(payment)
}

func (s *Service) handleInvoicePaid(event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		log.Printf("[Billing] event %s: invoice %s has no subscription", event.ID, inv.ID)
		return nil
	}

	sub, err := s.store.GetSubscriptionByRemoteID(inv.Subscription.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] event %s: no local subscription %s", event.ID, inv.Subscription.ID)
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusActive
	sub.LatestInvoiceID = inv.ID
	if end := invoicePeriodEnd(&inv); end != nil {
		sub.CurrentPeriodEnd = end
	}
	if inv.PaymentIntent != nil {
		sub.LatestPaymentIntentID = inv.PaymentIntent.ID
	}
	if err := s.store.UpsertSubscription(sub); err != nil {
		return err
	}

	if inv.PaymentIntent != nil {
		payment := &models.Payment{
			UserID:                sub.UserID,
			StripePaymentIntentID: inv.PaymentIntent.ID,
			Status:                models.PaymentStatusSucceeded,
			Amount:                ToMajorUnits(inv.AmountPaid),
			Currency:              string(inv.Currency),
			Metadata: models.MetadataMap{
				"invoice_id":      inv.ID,
				"subscription_id": inv.Subscription.ID,
			},
		}
		if err := s.store.UpsertPayment(payment); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) handleInvoicePaymentFailed(event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		log.Printf("[Billing] event %s: invoice %s has no subscription", event.ID, inv.ID)
		return nil
	}

	sub, err := s.store.GetSubscriptionByRemoteID(inv.Subscription.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] event %s: no local subscription %s", event.ID, inv.Subscription.ID)
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusPastDue
	return s.store.UpsertSubscription(sub)
}

func (s *Service) handleSubscriptionCreated(event stripe.Event) error {
	var remote stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &remote); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	if _, err := s.store.GetSubscriptionByRemoteID(remote.ID); err == nil {
		// The synchronous handler already created the row; the update
		// event stream keeps it in sync from here.
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if remote.Customer == nil || remote.Customer.ID == "" {
		log.Printf("[Billing] event %s: subscription %s has no customer", event.ID, remote.ID)
		return nil
	}
	user, err := s.store.GetUserByStripeCustomerID(remote.Customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] event %s: no user for customer %s", event.ID, remote.Customer.ID)
			return nil
		}
		return err
	}

	return s.store.UpsertSubscription(mirrorSubscription(user.ID, &remote))
}

func (s *Service) handleSubscriptionSync(event stripe.Event) error {
	var remote stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &remote); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	sub, err := s.store.GetSubscriptionByRemoteID(remote.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] event %s: no local subscription %s", event.ID, remote.ID)
			return nil
		}
		return err
	}

	sub.Status = string(remote.Status)
	if remote.CurrentPeriodEnd > 0 {
		t := time.Unix(remote.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &t
	}
	if remote.CancelAt > 0 {
		t := time.Unix(remote.CancelAt, 0)
		sub.CancelAt = &t
	} else {
		sub.CancelAt = nil
	}
	return s.store.UpsertSubscription(sub)
}

func (s *Service) handlePaymentMethodAttached(event stripe.Event) error {
	var pm stripe.PaymentMethod
	if err := json.Unmarshal(event.Data.Raw, &pm); err != nil {
		return fmt.Errorf("parse payment method: %w", err)
	}

	if _, err := s.store.GetPaymentMethodByRemoteID(pm.ID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if pm.Customer == nil || pm.Customer.ID == "" {
		log.Printf("[Billing] event %s: payment method %s has no customer", event.ID, pm.ID)
		return nil
	}
	user, err := s.store.GetUserByStripeCustomerID(pm.Customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] event %s: no user for customer %s", event.ID, pm.Customer.ID)
			return nil
		}
		return err
	}

	return s.store.UpsertPaymentMethod(mirrorMethod(user.ID, &pm))
}

func (s *Service) handlePaymentMethodDetached(event stripe.Event) error {
	var pm stripe.PaymentMethod
	if err := json.Unmarshal(event.Data.Raw, &pm); err != nil {
		return fmt.Errorf("parse payment method: %w", err)
	}

	if _, err := s.store.GetPaymentMethodByRemoteID(pm.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.store.DeletePaymentMethodByRemoteID(pm.ID)
}

func invoicePeriodEnd(inv *stripe.Invoice) *time.Time {
	if inv.Lines == nil || len(inv.Lines.Data) == 0 {
		return nil
	}
	line := inv.Lines.Data[0]
	if line.Period == nil || line.Period.End <= 0 {
		return nil
	}
	t := time.Unix(line.Period.End, 0)
	return &t
}
