package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"

	"github.com/FelixBrandt/PayFox/app/models"
)

// fakeStore is an in-memory Store used by the service and reconciler tests.
type fakeStore struct {
	users    map[uint]*models.User
	payments map[string]*models.Payment
	methods  map[string]*models.PaymentMethod
	subs     map[string]*models.Subscription
	events   map[string]*models.WebhookEvent
	nextID   uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uint]*models.User),
		payments: make(map[string]*models.Payment),
		methods:  make(map[string]*models.PaymentMethod),
		subs:     make(map[string]*models.Subscription),
		events:   make(map[string]*models.WebhookEvent),
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addUser(u *models.User) *models.User {
	if u.ID == 0 {
		u.ID = f.id()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) GetUserByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetUserByStripeCustomerID(customerID string) (*models.User, error) {
	for _, u := range f.users {
		if u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) SaveUser(user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) UpsertPayment(payment *models.Payment) error {
	if existing, ok := f.payments[payment.StripePaymentIntentID]; ok {
		payment.ID = existing.ID
		payment.UserID = existing.UserID
	} else if payment.ID == 0 {
		payment.ID = f.id()
	}
	f.payments[payment.StripePaymentIntentID] = payment
	return nil
}

func (f *fakeStore) GetPaymentByIntentID(intentID string) (*models.Payment, error) {
	if p, ok := f.payments[intentID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) SavePayment(payment *models.Payment) error {
	f.payments[payment.StripePaymentIntentID] = payment
	return nil
}

func (f *fakeStore) ListPaymentsByUser(userID uint, offset, limit int) ([]models.Payment, int64, error) {
	var out []models.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) UpsertPaymentMethod(method *models.PaymentMethod) error {
	if existing, ok := f.methods[method.StripePaymentMethodID]; ok {
		method.ID = existing.ID
		method.IsDefault = existing.IsDefault
	} else if method.ID == 0 {
		method.ID = f.id()
	}
	f.methods[method.StripePaymentMethodID] = method
	return nil
}

func (f *fakeStore) GetPaymentMethodByRemoteID(remoteID string) (*models.PaymentMethod, error) {
	if m, ok := f.methods[remoteID]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetDefaultPaymentMethod(userID uint) (*models.PaymentMethod, error) {
	for _, m := range f.methods {
		if m.UserID == userID && m.IsDefault {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) ListPaymentMethodsByUser(userID uint) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	for _, m := range f.methods {
		if m.UserID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) DeletePaymentMethodByRemoteID(remoteID string) error {
	delete(f.methods, remoteID)
	return nil
}

func (f *fakeStore) ClearDefaultPaymentMethods(userID uint) error {
	for _, m := range f.methods {
		if m.UserID == userID {
			m.IsDefault = false
		}
	}
	return nil
}

func (f *fakeStore) MarkDefaultPaymentMethod(userID uint, remoteID string) error {
	if m, ok := f.methods[remoteID]; ok && m.UserID == userID {
		m.IsDefault = true
	}
	return nil
}

func (f *fakeStore) UpsertSubscription(sub *models.Subscription) error {
	if existing, ok := f.subs[sub.StripeSubscriptionID]; ok {
		sub.ID = existing.ID
	} else if sub.ID == 0 {
		sub.ID = f.id()
	}
	f.subs[sub.StripeSubscriptionID] = sub
	return nil
}

func (f *fakeStore) GetSubscriptionByRemoteID(remoteID string) (*models.Subscription, error) {
	if s, ok := f.subs[remoteID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if existing, ok := f.events[event.StripeEventID]; ok {
		return false, existing, nil
	}
	event.ID = f.id()
	f.events[event.StripeEventID] = event
	return true, event, nil
}

func (f *fakeStore) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.ProcessingError = processingError
		}
	}
	return nil
}

func (f *fakeStore) defaultCount(userID uint) int {
	n := 0
	for _, m := range f.methods {
		if m.UserID == userID && m.IsDefault {
			n++
		}
	}
	return n
}

// fakeAPI is an in-memory remote billing client. It records every call so
// tests can assert which remote operations ran.
type fakeAPI struct {
	calls        []string
	intents      map[string]*stripe.PaymentIntent
	methods      map[string]*stripe.PaymentMethod
	setupIntents map[string]*stripe.SetupIntent
	subs         map[string]*stripe.Subscription
	invoices     map[string]*stripe.Invoice
	prices       []*stripe.Price
	seq          int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		intents:      make(map[string]*stripe.PaymentIntent),
		methods:      make(map[string]*stripe.PaymentMethod),
		setupIntents: make(map[string]*stripe.SetupIntent),
		subs:         make(map[string]*stripe.Subscription),
		invoices:     make(map[string]*stripe.Invoice),
	}
}

func (f *fakeAPI) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func (f *fakeAPI) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.record("CreateCustomer")
	return &stripe.Customer{ID: f.nextID("cus")}, nil
}

func (f *fakeAPI) UpdateCustomer(id string, params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.record("UpdateCustomer")
	return &stripe.Customer{ID: id}, nil
}

func (f *fakeAPI) CreatePaymentIntent(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.record("CreatePaymentIntent")
	pi := &stripe.PaymentIntent{
		ID:       f.nextID("pi"),
		Status:   stripe.PaymentIntentStatusRequiresPaymentMethod,
		Amount:   *params.Amount,
		Currency: stripe.Currency(*params.Currency),
		Customer: &stripe.Customer{ID: *params.Customer},
	}
	pi.ClientSecret = pi.ID + "_secret_test"
	if len(params.PaymentMethodTypes) > 0 {
		for _, t := range params.PaymentMethodTypes {
			pi.PaymentMethodTypes = append(pi.PaymentMethodTypes, *t)
		}
	}
	f.intents[pi.ID] = pi
	return pi, nil
}

func (f *fakeAPI) GetPaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.record("GetPaymentIntent")
	if pi, ok := f.intents[id]; ok {
		return pi, nil
	}
	return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such payment_intent: " + id}
}

func (f *fakeAPI) UpdatePaymentIntent(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.record("UpdatePaymentIntent")
	pi := f.intents[id]
	if params.PaymentMethod != nil {
		pi.PaymentMethod = &stripe.PaymentMethod{ID: *params.PaymentMethod}
	}
	if params.Customer != nil {
		pi.Customer = &stripe.Customer{ID: *params.Customer}
	}
	return pi, nil
}

func (f *fakeAPI) ConfirmPaymentIntent(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	f.record("ConfirmPaymentIntent")
	pi := f.intents[id]
	pi.Status = stripe.PaymentIntentStatusSucceeded
	if params.PaymentMethod != nil {
		pi.PaymentMethod = &stripe.PaymentMethod{ID: *params.PaymentMethod, Type: stripe.PaymentMethodTypeCard}
	}
	return pi, nil
}

func (f *fakeAPI) CreatePaymentMethod(params *stripe.PaymentMethodParams) (*stripe.PaymentMethod, error) {
	f.record("CreatePaymentMethod")
	pm := &stripe.PaymentMethod{
		ID:   f.nextID("pm"),
		Type: stripe.PaymentMethodTypeCard,
		Card: &stripe.PaymentMethodCard{
			Last4: "4242",
			Brand: stripe.PaymentMethodCardBrandVisa,
		},
	}
	f.methods[pm.ID] = pm
	return pm, nil
}

func (f *fakeAPI) GetPaymentMethod(id string) (*stripe.PaymentMethod, error) {
	f.record("GetPaymentMethod")
	if pm, ok := f.methods[id]; ok {
		return pm, nil
	}
	return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such payment_method: " + id}
}

func (f *fakeAPI) AttachPaymentMethod(id string, params *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error) {
	f.record("AttachPaymentMethod")
	pm, ok := f.methods[id]
	if !ok {
		pm = &stripe.PaymentMethod{
			ID:   id,
			Type: stripe.PaymentMethodTypeCard,
			Card: &stripe.PaymentMethodCard{Last4: "4242", Brand: stripe.PaymentMethodCardBrandVisa},
		}
		f.methods[id] = pm
	}
	pm.Customer = &stripe.Customer{ID: *params.Customer}
	return pm, nil
}

func (f *fakeAPI) DetachPaymentMethod(id string) (*stripe.PaymentMethod, error) {
	f.record("DetachPaymentMethod")
	pm, ok := f.methods[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such payment_method: " + id}
	}
	pm.Customer = nil
	return pm, nil
}

func (f *fakeAPI) ListPaymentMethods(params *stripe.PaymentMethodListParams) ([]*stripe.PaymentMethod, error) {
	f.record("ListPaymentMethods")
	var out []*stripe.PaymentMethod
	for _, pm := range f.methods {
		if pm.Customer != nil && pm.Customer.ID == *params.Customer {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateSetupIntent(params *stripe.SetupIntentParams) (*stripe.SetupIntent, error) {
	f.record("CreateSetupIntent")
	si := &stripe.SetupIntent{
		ID:       f.nextID("seti"),
		Status:   stripe.SetupIntentStatusRequiresPaymentMethod,
		Customer: &stripe.Customer{ID: *params.Customer},
	}
	si.ClientSecret = si.ID + "_secret_test"
	f.setupIntents[si.ID] = si
	return si, nil
}

func (f *fakeAPI) GetSetupIntent(id string) (*stripe.SetupIntent, error) {
	f.record("GetSetupIntent")
	if si, ok := f.setupIntents[id]; ok {
		return si, nil
	}
	return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such setup_intent: " + id}
}

func (f *fakeAPI) ConfirmSetupIntent(id string, params *stripe.SetupIntentConfirmParams) (*stripe.SetupIntent, error) {
	f.record("ConfirmSetupIntent")
	si := f.setupIntents[id]
	si.Status = stripe.SetupIntentStatusSucceeded
	if params.PaymentMethod != nil {
		si.PaymentMethod = &stripe.PaymentMethod{ID: *params.PaymentMethod}
	}
	return si, nil
}

func (f *fakeAPI) CreateSubscription(params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	f.record("CreateSubscription")
	sub := &stripe.Subscription{
		ID:                 f.nextID("sub"),
		Status:             stripe.SubscriptionStatusIncomplete,
		Customer:           &stripe.Customer{ID: *params.Customer},
		CurrentPeriodStart: 1700000000,
		CurrentPeriodEnd:   1702592000,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{
					ID:    f.nextID("si"),
					Price: &stripe.Price{ID: *params.Items[0].Price},
				},
			},
		},
		LatestInvoice: &stripe.Invoice{
			ID: f.nextID("in"),
			PaymentIntent: &stripe.PaymentIntent{
				ID:           f.nextID("pi"),
				ClientSecret: "pi_secret_sub_test",
			},
		},
	}
	f.subs[sub.ID] = sub
	return sub, nil
}

func (f *fakeAPI) GetSubscription(id string) (*stripe.Subscription, error) {
	f.record("GetSubscription")
	if sub, ok := f.subs[id]; ok {
		return sub, nil
	}
	return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such subscription: " + id}
}

func (f *fakeAPI) UpdateSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	f.record("UpdateSubscription")
	sub, ok := f.subs[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such subscription: " + id}
	}
	if params.CancelAtPeriodEnd != nil && *params.CancelAtPeriodEnd {
		sub.CancelAtPeriodEnd = true
		sub.CancelAt = sub.CurrentPeriodEnd
	}
	if len(params.Items) > 0 && params.Items[0].Price != nil {
		sub.Items.Data[0].Price = &stripe.Price{ID: *params.Items[0].Price}
	}
	return sub, nil
}

func (f *fakeAPI) GetInvoice(id string, params *stripe.InvoiceParams) (*stripe.Invoice, error) {
	f.record("GetInvoice")
	if inv, ok := f.invoices[id]; ok {
		return inv, nil
	}
	return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such invoice: " + id}
}

func (f *fakeAPI) CreateRefund(params *stripe.RefundParams) (*stripe.Refund, error) {
	f.record("CreateRefund")
	pi := f.intents[*params.PaymentIntent]
	return &stripe.Refund{
		ID:     f.nextID("re"),
		Status: stripe.RefundStatusSucceeded,
		Amount: pi.Amount,
		Reason: stripe.RefundReasonRequestedByCustomer,
	}, nil
}

func (f *fakeAPI) ListActivePrices() ([]*stripe.Price, error) {
	f.record("ListActivePrices")
	return f.prices, nil
}
