package billing

import (
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// API is the remote billing client surface used by the service. It wraps the
// subset of the Stripe API this system consumes so tests can substitute a
// fake without network access.
type API interface {
	CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	UpdateCustomer(id string, params *stripe.CustomerParams) (*stripe.Customer, error)

	CreatePaymentIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetPaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	UpdatePaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	ConfirmPaymentIntent(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)

	CreatePaymentMethod(params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error)
	GetPaymentMethod(id string) (*stripe.PaymentMethod, error)
	AttachPaymentMethod(id string, params *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error)
	DetachPaymentMethod(id string) (*stripe.PaymentMethod, error)
	ListPaymentMethods(params *stripe.PaymentMethodListParams) ([]*stripe.PaymentMethod, error)

	CreateSetupIntent(params *stripe.SetupIntentParams) (*stripe.SetupIntent, error)
	GetSetupIntent(id string) (*stripe.SetupIntent, error)
	ConfirmSetupIntent(id string, params *stripe.SetupIntentConfirmParams) (*stripe.SetupIntent, error)

	CreateSubscription(params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	GetSubscription(id string) (*stripe.Subscription, error)
	UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)

	GetInvoice(id string, params *stripe.InvoiceParams) (*stripe.Invoice, error)
	CreateRefund(params *stripe.RefundParams) (*stripe.Refund, error)

	ListActivePrices() ([]*stripe.Price, error)
}

// stripeAPI implements API over an explicitly constructed stripe client.
// The client is injected; no process-wide key mutation.
type stripeAPI struct {
	sc *client.API
}

// NewStripeAPI wraps a constructed stripe client.
func NewStripeAPI(sc *client.API) API {
	return &stripeAPI{sc: sc}
}

// NewStripeAPIFromKey builds a stripe client for the given secret key.
func NewStripeAPIFromKey(secretKey string) API {
	return NewStripeAPI(client.New(secretKey, nil))
}

func (a *stripeAPI) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return a.sc.Customers.New(params)
}

func (a *stripeAPI) UpdateCustomer(id string, params *stripe.CustomerParams) (*stripe.Customer, error) {
	return a.sc.Customers.Update(id, params)
}

func (a *stripeAPI) CreatePaymentIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return a.sc.PaymentIntents.New(params)
}

func (a *stripeAPI) GetPaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return a.sc.PaymentIntents.Get(id, params)
}

func (a *stripeAPI) UpdatePaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return a.sc.PaymentIntents.Update(id, params)
}

func (a *stripeAPI) ConfirmPaymentIntent(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	return a.sc.PaymentIntents.Confirm(id, params)
}

func (a *stripeAPI) CreatePaymentMethod(params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error) {
	return a.sc.PaymentMethods.New(params)
}

func (a *stripeAPI) GetPaymentMethod(id string) (*stripe.PaymentMethod, error) {
	return a.sc.PaymentMethods.Get(id, nil)
}

func (a *stripeAPI) AttachPaymentMethod(id string, params *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error) {
	return a.sc.PaymentMethods.Attach(id, params)
}

func (a *stripeAPI) DetachPaymentMethod(id string) (*stripe.PaymentMethod, error) {
	return a.sc.PaymentMethods.Detach(id, nil)
}

func (a *stripeAPI) ListPaymentMethods(params *stripe.PaymentMethodListParams) ([]*stripe.PaymentMethod, error) {
	var methods []*stripe.PaymentMethod
	iter := a.sc.PaymentMethods.List(params)
	for iter.Next() {
		methods = append(methods, iter.PaymentMethod())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return methods, nil
}

func (a *stripeAPI) CreateSetupIntent(params *stripe.SetupIntentParams) (*stripe.SetupIntent, error) {
	return a.sc.SetupIntents.New(params)
}

func (a *stripeAPI) GetSetupIntent(id string) (*stripe.SetupIntent, error) {
	return a.sc.SetupIntents.Get(id, nil)
}

func (a *stripeAPI) ConfirmSetupIntent(id string, params *stripe.SetupIntentConfirmParams) (*stripe.SetupIntent, error) {
	return a.sc.SetupIntents.Confirm(id, params)
}

func (a *stripeAPI) CreateSubscription(params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return a.sc.Subscriptions.New(params)
}

func (a *stripeAPI) GetSubscription(id string) (*stripe.Subscription, error) {
	return a.sc.Subscriptions.Get(id, nil)
}

func (a *stripeAPI) UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return a.sc.Subscriptions.Update(id, params)
}

func (a *stripeAPI) GetInvoice(id string, params *stripe.InvoiceParams) (*stripe.Invoice, error) {
	return a.sc.Invoices.Get(id, params)
}

func (a *stripeAPI) CreateRefund(params *stripe.RefundParams) (*stripe.Refund, error) {
	return a.sc.Refunds.New(params)
}

func (a *stripeAPI) ListActivePrices() ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{
		Active: stripe.Bool(true),
	}
	params.AddExpand("data.product")

	var prices []*stripe.Price
	iter := a.sc.Prices.List(params)
	for iter.Next() {
		prices = append(prices, iter.Price())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}
