package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"

	"github.com/FelixBrandt/PayFox/app/models"
)

// Service translates user billing intents into remote calls and keeps the
// local mirror rows synchronized with the remote responses.
type Service struct {
	store Store
	api   API
}

// NewService creates a billing service from an injected store and remote client.
func NewService(store Store, api API) *Service {
	return &Service{store: store, api: api}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, api API) *Service {
	return NewService(NewStore(db), api)
}

// EnsureCustomer returns the user's remote customer reference, creating the
// remote customer first if none exists yet. Idempotent.
func (s *Service) EnsureCustomer(ctx context.Context, userID uint) (string, error) {
	_ = ctx
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return "", s.wrapStoreErr(err)
	}
	if user.HasCustomer() {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Name:  stripe.String(user.Name),
		Email: stripe.String(user.Email),
	}
	params.AddMetadata("user_id", strconv.FormatUint(uint64(user.ID), 10))
	params.AddMetadata("account_ref", uuid.NewString())

	cust, err := s.api.CreateCustomer(params)
	if err != nil {
		return "", err
	}

	user.StripeCustomerID = cust.ID
	if err := s.store.SaveUser(user); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CreatePaymentIntent creates a remote payment intent and records the local
// Payment mirror row before returning the client secret.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID uint, in CreateIntentInput) (*IntentResult, error) {
	if in.Amount < MinChargeAmount {
		return nil, invalid(fmt.Sprintf("amount must be at least %.2f", MinChargeAmount))
	}
	if !ValidCurrency(in.Currency) {
		return nil, invalid("currency must be a 3-letter code")
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(in.Amount)),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		Customer: stripe.String(customerID),
	}
	if len(in.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(in.PaymentMethodTypes)
	} else {
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		}
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.CreatePaymentIntent(params)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:                userID,
		StripePaymentIntentID: pi.ID,
		Status:                statusFromIntent(pi.Status),
		Amount:                in.Amount,
		Currency:              strings.ToLower(in.Currency),
		PaymentMethodType:     intentMethodType(pi),
		Metadata:              models.MetadataMap(in.Metadata),
	}
	if err := s.store.UpsertPayment(payment); err != nil {
		return nil, err
	}

	return intentResult(pi), nil
}

// ConfirmPaymentIntent resolves a payment method, attaches it where needed
// and confirms the intent if it is still in a pre-confirmation state.
func (s *Service) ConfirmPaymentIntent(ctx context.Context, userID uint, in ConfirmIntentInput) (*IntentResult, error) {
	if in.PaymentIntentID == "" {
		return nil, invalid("payment_intent_id is required")
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	pi, err := s.api.GetPaymentIntent(in.PaymentIntentID, nil)
	if err != nil {
		return nil, err
	}
	if pi.Customer != nil && pi.Customer.ID != "" && pi.Customer.ID != customerID {
		return nil, ErrForbidden
	}

	methodID := in.PaymentMethodID
	if methodID == "" {
		def, err := s.store.GetDefaultPaymentMethod(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, invalid("no payment method provided and no default set")
			}
			return nil, err
		}
		methodID = def.StripePaymentMethodID
	}

	pm, err := s.api.GetPaymentMethod(methodID)
	if err != nil {
		return nil, err
	}
	if pm.Customer == nil || pm.Customer.ID == "" {
		if _, err := s.api.AttachPaymentMethod(methodID, &stripe.PaymentMethodAttachParams{
			Customer: stripe.String(customerID),
		}); err != nil {
			return nil, err
		}
	} else if pm.Customer.ID != customerID {
		return nil, ErrForbidden
	}

	if pi.PaymentMethod == nil || pi.Customer == nil {
		updateParams := &stripe.PaymentIntentParams{}
		if pi.PaymentMethod == nil {
			updateParams.PaymentMethod = stripe.String(methodID)
		}
		if pi.Customer == nil {
			updateParams.Customer = stripe.String(customerID)
		}
		if pi, err = s.api.UpdatePaymentIntent(pi.ID, updateParams); err != nil {
			return nil, err
		}
	}

	if isPreConfirmation(pi.Status) {
		pi, err = s.api.ConfirmPaymentIntent(pi.ID, &stripe.PaymentIntentConfirmParams{
			PaymentMethod: stripe.String(methodID),
		})
		if err != nil {
			return nil, err
		}
	}

	payment := &models.Payment{
		UserID:                userID,
		StripePaymentIntentID: pi.ID,
		Status:                statusFromIntent(pi.Status),
		Amount:                ToMajorUnits(pi.Amount),
		Currency:              string(pi.Currency),
		PaymentMethodType:     intentMethodType(pi),
	}
	if err := s.store.UpsertPayment(payment); err != nil {
		return nil, err
	}

	return intentResult(pi), nil
}

// RefundPayment issues a full refund for a succeeded payment owned by the
// caller. All local checks run before any remote call is made.
func (s *Service) RefundPayment(ctx context.Context, userID uint, paymentIntentID, reason string) (*models.Payment, error) {
	_ = ctx
	payment, err := s.store.GetPaymentByIntentID(paymentIntentID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if payment.UserID != userID {
		return nil, ErrForbidden
	}
	if payment.Status == models.PaymentStatusRefunded {
		return nil, invalid("payment has already been refunded")
	}
	if !payment.IsRefundable() {
		return nil, invalid("only succeeded payments can be refunded")
	}

	params := &stripe.PaymentIntentParams{}
	params.AddExpand("latest_charge")
	pi, err := s.api.GetPaymentIntent(paymentIntentID, params)
	if err != nil {
		return nil, err
	}
	if pi.LatestCharge != nil && (pi.LatestCharge.Refunded || pi.LatestCharge.AmountRefunded >= pi.Amount) {
		return nil, invalid("payment has already been refunded")
	}

	refundParams := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if reason != "" {
		refundParams.Reason = stripe.String(reason)
	}
	refund, err := s.api.CreateRefund(refundParams)
	if err != nil {
		return nil, err
	}

	payment.Status = models.PaymentStatusRefunded
	payment.MergeMetadata(models.MetadataMap{
		"refund_id":     refund.ID,
		"refund_status": string(refund.Status),
		"refund_amount": strconv.FormatFloat(ToMajorUnits(refund.Amount), 'f', 2, 64),
		"refund_reason": string(refund.Reason),
		"refunded_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err := s.store.SavePayment(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// CreatePaymentMethod creates a remote payment method from a card token and
// attaches it to the caller's customer.
func (s *Service) CreatePaymentMethod(ctx context.Context, userID uint, cardToken string) (*models.PaymentMethod, error) {
	if cardToken == "" {
		return nil, invalid("card token is required")
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	pm, err := s.api.CreatePaymentMethod(&stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Token: stripe.String(cardToken),
		},
	})
	if err != nil {
		return nil, err
	}

	return s.attachAndMirror(userID, customerID, pm.ID)
}

// AttachPaymentMethod attaches an existing remote payment method to the
// caller's customer and mirrors it locally.
func (s *Service) AttachPaymentMethod(ctx context.Context, userID uint, paymentMethodID string) (*models.PaymentMethod, error) {
	if paymentMethodID == "" {
		return nil, invalid("payment_method_id is required")
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attachAndMirror(userID, customerID, paymentMethodID)
}

func (s *Service) attachAndMirror(userID uint, customerID, paymentMethodID string) (*models.PaymentMethod, error) {
	pm, err := s.api.AttachPaymentMethod(paymentMethodID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	})
	if err != nil {
		return nil, err
	}

	method := mirrorMethod(userID, pm)
	if err := s.store.UpsertPaymentMethod(method); err != nil {
		return nil, err
	}
	return method, nil
}

// ListPaymentMethods lists the caller's attached card methods. The
// is_default flag comes strictly from the local mirror.
func (s *Service) ListPaymentMethods(ctx context.Context, userID uint) ([]PaymentMethodInfo, error) {
	_ = ctx
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if !user.HasCustomer() {
		return []PaymentMethodInfo{}, nil
	}

	remote, err := s.api.ListPaymentMethods(&stripe.PaymentMethodListParams{
		Customer: stripe.String(user.StripeCustomerID),
		Type:     stripe.String("card"),
	})
	if err != nil {
		return nil, err
	}

	local, err := s.store.ListPaymentMethodsByUser(userID)
	if err != nil {
		return nil, err
	}
	defaults := make(map[string]bool, len(local))
	for _, m := range local {
		defaults[m.StripePaymentMethodID] = m.IsDefault
	}

	infos := make([]PaymentMethodInfo, 0, len(remote))
	for _, pm := range remote {
		info := PaymentMethodInfo{
			ID:        pm.ID,
			Type:      string(pm.Type),
			IsDefault: defaults[pm.ID],
		}
		if pm.Card != nil {
			info.Last4 = pm.Card.Last4
			info.Brand = string(pm.Card.Brand)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// DetachPaymentMethod removes a payment method both remotely and locally.
// Methods this system does not track are rejected.
func (s *Service) DetachPaymentMethod(ctx context.Context, userID uint, paymentMethodID string) error {
	_ = ctx
	method, err := s.store.GetPaymentMethodByRemoteID(paymentMethodID)
	if err != nil {
		return s.wrapStoreErr(err)
	}
	if method.UserID != userID {
		return ErrForbidden
	}

	if _, err := s.api.DetachPaymentMethod(paymentMethodID); err != nil {
		return err
	}
	return s.store.DeletePaymentMethodByRemoteID(paymentMethodID)
}

// SetDefaultPaymentMethod clears all local defaults, marks the target and
// mirrors the default onto the remote customer's invoice settings.
func (s *Service) SetDefaultPaymentMethod(ctx context.Context, userID uint, paymentMethodID string) error {
	_ = ctx
	method, err := s.store.GetPaymentMethodByRemoteID(paymentMethodID)
	if err != nil {
		return s.wrapStoreErr(err)
	}
	if method.UserID != userID {
		return ErrForbidden
	}

	if err := s.store.ClearDefaultPaymentMethods(userID); err != nil {
		return err
	}
	if err := s.store.MarkDefaultPaymentMethod(userID, paymentMethodID); err != nil {
		return err
	}

	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return s.wrapStoreErr(err)
	}
	if user.HasCustomer() {
		_, err = s.api.UpdateCustomer(user.StripeCustomerID, &stripe.CustomerParams{
			InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
				DefaultPaymentMethod: stripe.String(paymentMethodID),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateSetupIntent starts a card-saving flow without charging.
func (s *Service) CreateSetupIntent(ctx context.Context, userID uint) (*SetupResult, error) {
	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	params := &stripe.SetupIntentParams{
		Customer: stripe.String(customerID),
		Usage:    stripe.String("off_session"),
	}
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))

	si, err := s.api.CreateSetupIntent(params)
	if err != nil {
		return nil, err
	}
	return setupResult(si), nil
}

// ConfirmSetupIntent confirms a setup intent with the given method and
// mirrors the saved method locally.
func (s *Service) ConfirmSetupIntent(ctx context.Context, userID uint, setupIntentID, paymentMethodID string) (*SetupResult, error) {
	if setupIntentID == "" {
		return nil, invalid("setup_intent_id is required")
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	si, err := s.api.GetSetupIntent(setupIntentID)
	if err != nil {
		return nil, err
	}
	if si.Customer != nil && si.Customer.ID != "" && si.Customer.ID != customerID {
		return nil, ErrForbidden
	}

	if si.Status == stripe.SetupIntentStatusRequiresPaymentMethod ||
		si.Status == stripe.SetupIntentStatusRequiresConfirmation ||
		si.Status == stripe.SetupIntentStatusRequiresAction {
		confirmParams := &stripe.SetupIntentConfirmParams{}
		if paymentMethodID != "" {
			confirmParams.PaymentMethod = stripe.String(paymentMethodID)
		}
		if si, err = s.api.ConfirmSetupIntent(setupIntentID, confirmParams); err != nil {
			return nil, err
		}
	}

	if si.Status == stripe.SetupIntentStatusSucceeded && si.PaymentMethod != nil {
		pm, err := s.api.GetPaymentMethod(si.PaymentMethod.ID)
		if err != nil {
			// The setup succeeded; a missing mirror row is recovered by the
			// payment_method.attached event.
			log.Printf("[Billing] setup intent %s: mirror fetch failed: %v", si.ID, err)
		} else if err := s.store.UpsertPaymentMethod(mirrorMethod(userID, pm)); err != nil {
			return nil, err
		}
	}

	return setupResult(si), nil
}

// CreateSubscription creates a remote subscription with incomplete-allowed
// payment behavior and mirrors it locally. The confirmation client secret is
// resolved best-effort from the expanded latest invoice.
func (s *Service) CreateSubscription(ctx context.Context, userID uint, in CreateSubscriptionInput) (*SubscriptionResult, error) {
	if in.PriceID == "" {
		return nil, invalid("price_id is required")
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	methodID := in.PaymentMethodID
	if methodID == "" {
		if def, err := s.store.GetDefaultPaymentMethod(userID); err == nil {
			methodID = def.StripePaymentMethodID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if methodID != "" {
		pm, err := s.api.GetPaymentMethod(methodID)
		if err != nil {
			return nil, err
		}
		if pm.Customer == nil || pm.Customer.ID == "" {
			if _, err := s.api.AttachPaymentMethod(methodID, &stripe.PaymentMethodAttachParams{
				Customer: stripe.String(customerID),
			}); err != nil {
				return nil, err
			}
		} else if pm.Customer.ID != customerID {
			return nil, ErrForbidden
		}
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(in.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	if methodID != "" {
		params.DefaultPaymentMethod = stripe.String(methodID)
	}
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := s.api.CreateSubscription(params)
	if err != nil {
		return nil, err
	}

	row := mirrorSubscription(userID, sub)
	if row.StripePriceID == "" {
		row.StripePriceID = in.PriceID
	}
	row.StripePaymentMethodID = methodID

	clientSecret := s.resolveConfirmationSecret(sub, row)

	if err := s.store.UpsertSubscription(row); err != nil {
		return nil, err
	}

	return &SubscriptionResult{Subscription: row, ClientSecret: clientSecret}, nil
}

// resolveConfirmationSecret extracts the latest invoice's payment intent
// client secret. The secondary invoice fetch is best-effort: its failure is
// logged and the subscription is saved with whatever data is available.
func (s *Service) resolveConfirmationSecret(sub *stripe.Subscription, row *models.Subscription) string {
	if sub.LatestInvoice == nil {
		return ""
	}
	if sub.LatestInvoice.PaymentIntent != nil {
		row.LatestPaymentIntentID = sub.LatestInvoice.PaymentIntent.ID
		return sub.LatestInvoice.PaymentIntent.ClientSecret
	}

	params := &stripe.InvoiceParams{}
	params.AddExpand("payment_intent")
	inv, err := s.api.GetInvoice(sub.LatestInvoice.ID, params)
	if err != nil {
		log.Printf("[Billing] subscription %s: invoice expansion failed: %v", sub.ID, err)
		return ""
	}
	if inv.PaymentIntent == nil {
		return ""
	}
	row.LatestPaymentIntentID = inv.PaymentIntent.ID
	return inv.PaymentIntent.ClientSecret
}

// GetSubscription refreshes the caller's subscription from the remote state.
func (s *Service) GetSubscription(ctx context.Context, userID uint, subscriptionID string) (*models.Subscription, error) {
	_ = ctx
	row, err := s.ownedSubscription(userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub, err := s.api.GetSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.syncSubscriptionRow(row, sub)
}

// UpdateSubscriptionPrice moves the subscription to a new price with
// prorated billing.
func (s *Service) UpdateSubscriptionPrice(ctx context.Context, userID uint, subscriptionID, priceID string) (*models.Subscription, error) {
	_ = ctx
	if priceID == "" {
		return nil, invalid("price_id is required")
	}
	row, err := s.ownedSubscription(userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub, err := s.api.GetSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no items", subscriptionID)
	}

	sub, err = s.api.UpdateSubscription(subscriptionID, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	})
	if err != nil {
		return nil, err
	}
	return s.syncSubscriptionRow(row, sub)
}

// CancelSubscription disables auto-renewal at the period end, without
// proration. The row stays; cancellation is a status transition.
func (s *Service) CancelSubscription(ctx context.Context, userID uint, subscriptionID string) (*models.Subscription, error) {
	_ = ctx
	row, err := s.ownedSubscription(userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	sub, err := s.api.UpdateSubscription(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return s.syncSubscriptionRow(row, sub)
}

// ListPayments returns the user's payments, newest first.
func (s *Service) ListPayments(ctx context.Context, userID uint, page, perPage int) ([]models.Payment, int64, error) {
	_ = ctx
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.ListPaymentsByUser(userID, (page-1)*perPage, perPage)
}

// RecordWebhookEvent persists a received provider event idempotently.
// It returns false when the event id was already stored.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	if in.StripeEventID == "" {
		return false, nil, invalid("event id is required")
	}
	event := &models.WebhookEvent{
		StripeEventID:  in.StripeEventID,
		EventType:      in.EventType,
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: in.SignatureValid,
	}
	return s.store.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.store.MarkWebhookProcessed(webhookEventID, errMsg)
}

func (s *Service) ownedSubscription(userID uint, subscriptionID string) (*models.Subscription, error) {
	if subscriptionID == "" {
		return nil, invalid("subscription_id is required")
	}
	row, err := s.store.GetSubscriptionByRemoteID(subscriptionID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if row.UserID != userID {
		return nil, ErrForbidden
	}
	return row, nil
}

func (s *Service) syncSubscriptionRow(row *models.Subscription, sub *stripe.Subscription) (*models.Subscription, error) {
	updated := mirrorSubscription(row.UserID, sub)
	if updated.StripePriceID == "" {
		updated.StripePriceID = row.StripePriceID
	}
	if updated.StripePaymentMethodID == "" {
		updated.StripePaymentMethodID = row.StripePaymentMethodID
	}
	if updated.LatestInvoiceID == "" {
		updated.LatestInvoiceID = row.LatestInvoiceID
	}
	if updated.LatestPaymentIntentID == "" {
		updated.LatestPaymentIntentID = row.LatestPaymentIntentID
	}
	if err := s.store.UpsertSubscription(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) wrapStoreErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func intentResult(pi *stripe.PaymentIntent) *IntentResult {
	return &IntentResult{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		Status:          string(pi.Status),
		Amount:          ToMajorUnits(pi.Amount),
		Currency:        string(pi.Currency),
	}
}

func setupResult(si *stripe.SetupIntent) *SetupResult {
	result := &SetupResult{
		SetupIntentID: si.ID,
		ClientSecret:  si.ClientSecret,
		Status:        string(si.Status),
	}
	if si.PaymentMethod != nil {
		result.PaymentMethodID = si.PaymentMethod.ID
	}
	return result
}

func mirrorMethod(userID uint, pm *stripe.PaymentMethod) *models.PaymentMethod {
	method := &models.PaymentMethod{
		UserID:                userID,
		StripePaymentMethodID: pm.ID,
		Type:                  string(pm.Type),
	}
	if pm.Card != nil {
		method.Last4 = pm.Card.Last4
		method.Brand = string(pm.Card.Brand)
	}
	return method
}

func mirrorSubscription(userID uint, sub *stripe.Subscription) *models.Subscription {
	row := &models.Subscription{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0)
		row.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0)
		row.CurrentPeriodEnd = &t
	}
	if sub.CancelAt > 0 {
		t := time.Unix(sub.CancelAt, 0)
		row.CancelAt = &t
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		row.StripePriceID = sub.Items.Data[0].Price.ID
	}
	if sub.LatestInvoice != nil {
		row.LatestInvoiceID = sub.LatestInvoice.ID
		if sub.LatestInvoice.PaymentIntent != nil {
			row.LatestPaymentIntentID = sub.LatestInvoice.PaymentIntent.ID
		}
	}
	return row
}

func statusFromIntent(status stripe.PaymentIntentStatus) string {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

func isPreConfirmation(status stripe.PaymentIntentStatus) bool {
	switch status {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction:
		return true
	}
	return false
}

func intentMethodType(pi *stripe.PaymentIntent) string {
	if pi.PaymentMethod != nil && pi.PaymentMethod.Type != "" {
		return string(pi.PaymentMethod.Type)
	}
	if len(pi.PaymentMethodTypes) > 0 {
		return pi.PaymentMethodTypes[0]
	}
	return ""
}
