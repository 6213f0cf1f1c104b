package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/FelixBrandt/PayFox/app/models"
)

func newTestService() (*Service, *fakeStore, *fakeAPI) {
	store := newFakeStore()
	api := newFakeAPI()
	return NewService(store, api), store, api
}

func addTestUser(store *fakeStore, customerID string) *models.User {
	return store.addUser(&models.User{
		Name:             "Test User",
		Email:            "test@example.com",
		StripeCustomerID: customerID,
	})
}

func TestEnsureCustomerIsIdempotent(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "")

	first, err := svc.EnsureCustomer(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.EnsureCustomer(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	created := 0
	for _, call := range api.calls {
		if call == "CreateCustomer" {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestCreatePaymentIntentRecordsPendingPayment(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_test")

	result, err := svc.CreatePaymentIntent(context.Background(), user.ID, CreateIntentInput{
		Amount:   25.00,
		Currency: "usd",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ClientSecret)

	payment, err := store.GetPaymentByIntentID(result.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, 25.00, payment.Amount)
	assert.Equal(t, "usd", payment.Currency)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, user.ID, payment.UserID)
}

func TestCreatePaymentIntentRejectsInvalidInput(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_test")

	tests := []struct {
		name  string
		input CreateIntentInput
	}{
		{"below minimum", CreateIntentInput{Amount: 0.49, Currency: "usd"}},
		{"bad currency", CreateIntentInput{Amount: 10, Currency: "dollars"}},
		{"empty currency", CreateIntentInput{Amount: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePaymentIntent(context.Background(), user.ID, tt.input)
			assert.True(t, IsValidationError(err), "expected validation error, got %v", err)
		})
	}
	assert.Empty(t, api.calls, "validation failures must not reach the remote API")
}

func TestConfirmRejectsCustomerMismatch(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_mine")

	api.intents["pi_foreign"] = &stripe.PaymentIntent{
		ID:       "pi_foreign",
		Status:   stripe.PaymentIntentStatusRequiresConfirmation,
		Customer: &stripe.Customer{ID: "cus_other"},
	}

	_, err := svc.ConfirmPaymentIntent(context.Background(), user.ID, ConfirmIntentInput{
		PaymentIntentID: "pi_foreign",
		PaymentMethodID: "pm_x",
	})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = store.GetPaymentByIntentID("pi_foreign")
	assert.Error(t, err, "no local payment row may be created on a forbidden confirm")
}

func TestConfirmUsesDefaultMethodAndUpserts(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_mine")

	api.methods["pm_def"] = &stripe.PaymentMethod{
		ID:       "pm_def",
		Type:     stripe.PaymentMethodTypeCard,
		Customer: &stripe.Customer{ID: "cus_mine"},
		Card:     &stripe.PaymentMethodCard{Last4: "4242", Brand: stripe.PaymentMethodCardBrandVisa},
	}
	store.methods["pm_def"] = &models.PaymentMethod{
		ID: 1, UserID: user.ID, StripePaymentMethodID: "pm_def", Type: "card", IsDefault: true,
	}
	api.intents["pi_1"] = &stripe.PaymentIntent{
		ID:       "pi_1",
		Status:   stripe.PaymentIntentStatusRequiresConfirmation,
		Amount:   2500,
		Currency: stripe.CurrencyUSD,
		Customer: &stripe.Customer{ID: "cus_mine"},
	}

	result, err := svc.ConfirmPaymentIntent(context.Background(), user.ID, ConfirmIntentInput{
		PaymentIntentID: "pi_1",
	})
	require.NoError(t, err)
	assert.Equal(t, string(stripe.PaymentIntentStatusSucceeded), result.Status)

	payment, err := store.GetPaymentByIntentID("pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, payment.Status)
	assert.Equal(t, 25.00, payment.Amount)
}

func TestRefundRejectedBeforeRemoteCall(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_mine")

	tests := []struct {
		name   string
		status string
	}{
		{"already refunded", models.PaymentStatusRefunded},
		{"still pending", models.PaymentStatusPending},
		{"failed payment", models.PaymentStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.payments["pi_r"] = &models.Payment{
				ID: 99, UserID: user.ID, StripePaymentIntentID: "pi_r", Status: tt.status,
			}
			_, err := svc.RefundPayment(context.Background(), user.ID, "pi_r", "")
			assert.True(t, IsValidationError(err), "expected validation error, got %v", err)
			assert.Empty(t, api.calls, "rejected refunds must not reach the remote API")
		})
	}
}

func TestRefundRejectsForeignPayment(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_mine")

	store.payments["pi_x"] = &models.Payment{
		ID: 5, UserID: user.ID + 100, StripePaymentIntentID: "pi_x", Status: models.PaymentStatusSucceeded,
	}
	_, err := svc.RefundPayment(context.Background(), user.ID, "pi_x", "")
	require.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, api.calls)
}

func TestRefundMergesMetadata(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_mine")

	store.payments["pi_ok"] = &models.Payment{
		ID: 7, UserID: user.ID, StripePaymentIntentID: "pi_ok",
		Status:   models.PaymentStatusSucceeded,
		Amount:   25.00,
		Currency: "usd",
		Metadata: models.MetadataMap{"order_id": "order-1"},
	}
	svc.api.(*fakeAPI).intents["pi_ok"] = &stripe.PaymentIntent{
		ID: "pi_ok", Status: stripe.PaymentIntentStatusSucceeded, Amount: 2500,
	}

	payment, err := svc.RefundPayment(context.Background(), user.ID, "pi_ok", "requested_by_customer")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	assert.Equal(t, "order-1", payment.Metadata["order_id"], "existing metadata must survive the merge")
	assert.NotEmpty(t, payment.Metadata["refund_id"])
	assert.Equal(t, "25.00", payment.Metadata["refund_amount"])
	assert.NotEmpty(t, payment.Metadata["refunded_at"])
}

func TestRefundRejectsAlreadyRefundedRemotely(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_mine")

	store.payments["pi_rr"] = &models.Payment{
		ID: 8, UserID: user.ID, StripePaymentIntentID: "pi_rr", Status: models.PaymentStatusSucceeded,
	}
	api.intents["pi_rr"] = &stripe.PaymentIntent{
		ID: "pi_rr", Status: stripe.PaymentIntentStatusSucceeded, Amount: 2500,
		LatestCharge: &stripe.Charge{Refunded: true, AmountRefunded: 2500},
	}

	_, err := svc.RefundPayment(context.Background(), user.ID, "pi_rr", "")
	assert.True(t, IsValidationError(err))
	for _, call := range api.calls {
		assert.NotEqual(t, "CreateRefund", call)
	}
}

func TestSetDefaultKeepsSingleDefault(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_mine")

	store.methods["pm_a"] = &models.PaymentMethod{ID: 1, UserID: user.ID, StripePaymentMethodID: "pm_a", Type: "card"}
	store.methods["pm_b"] = &models.PaymentMethod{ID: 2, UserID: user.ID, StripePaymentMethodID: "pm_b", Type: "card"}

	require.NoError(t, svc.SetDefaultPaymentMethod(context.Background(), user.ID, "pm_a"))
	assert.Equal(t, 1, store.defaultCount(user.ID))

	require.NoError(t, svc.SetDefaultPaymentMethod(context.Background(), user.ID, "pm_b"))
	assert.Equal(t, 1, store.defaultCount(user.ID))
	assert.True(t, store.methods["pm_b"].IsDefault)
	assert.False(t, store.methods["pm_a"].IsDefault)
}

func TestSetDefaultRejectsUntrackedMethod(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_mine")

	err := svc.SetDefaultPaymentMethod(context.Background(), user.ID, "pm_ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachThenDetachLifecycle(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_mine")

	method, err := svc.AttachPaymentMethod(context.Background(), user.ID, "pm_new")
	require.NoError(t, err)
	assert.Equal(t, "4242", method.Last4)
	assert.False(t, method.IsDefault)

	require.NoError(t, svc.DetachPaymentMethod(context.Background(), user.ID, "pm_new"))
	_, err = store.GetPaymentMethodByRemoteID("pm_new")
	assert.Error(t, err, "local row must be gone after detach")

	err = svc.DetachPaymentMethod(context.Background(), user.ID, "pm_new")
	assert.ErrorIs(t, err, ErrNotFound, "second detach must report not found")
}

func TestDetachRejectsForeignMethod(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_mine")

	store.methods["pm_other"] = &models.PaymentMethod{
		ID: 3, UserID: user.ID + 1, StripePaymentMethodID: "pm_other", Type: "card",
	}
	err := svc.DetachPaymentMethod(context.Background(), user.ID, "pm_other")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListPaymentMethodsDefaultComesFromLocalMirror(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_mine")

	api.methods["pm_1"] = &stripe.PaymentMethod{
		ID: "pm_1", Type: stripe.PaymentMethodTypeCard,
		Customer: &stripe.Customer{ID: "cus_mine"},
		Card:     &stripe.PaymentMethodCard{Last4: "4242", Brand: stripe.PaymentMethodCardBrandVisa},
	}
	api.methods["pm_2"] = &stripe.PaymentMethod{
		ID: "pm_2", Type: stripe.PaymentMethodTypeCard,
		Customer: &stripe.Customer{ID: "cus_mine"},
		Card:     &stripe.PaymentMethodCard{Last4: "1111", Brand: stripe.PaymentMethodCardBrandMastercard},
	}
	store.methods["pm_2"] = &models.PaymentMethod{
		ID: 1, UserID: user.ID, StripePaymentMethodID: "pm_2", Type: "card", IsDefault: true,
	}

	infos, err := svc.ListPaymentMethods(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byID := map[string]PaymentMethodInfo{}
	for _, info := range infos {
		byID[info.ID] = info
	}
	assert.False(t, byID["pm_1"].IsDefault)
	assert.True(t, byID["pm_2"].IsDefault)
}

func TestCreateSubscriptionMirrorsRowWithClientSecret(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_mine")

	result, err := svc.CreateSubscription(context.Background(), user.ID, CreateSubscriptionInput{
		PriceID: "price_basic",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Subscription)
	assert.Equal(t, "pi_secret_sub_test", result.ClientSecret)
	assert.Equal(t, "price_basic", result.Subscription.StripePriceID)
	assert.Equal(t, models.SubscriptionStatusIncomplete, result.Subscription.Status)
	assert.NotNil(t, result.Subscription.CurrentPeriodEnd)

	stored, err := store.GetSubscriptionByRemoteID(result.Subscription.StripeSubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
}

func TestCancelSubscriptionIsSoftState(t *testing.T) {
	svc, store, api := newTestService()
	user := addTestUser(store, "cus_mine")

	result, err := svc.CreateSubscription(context.Background(), user.ID, CreateSubscriptionInput{PriceID: "price_basic"})
	require.NoError(t, err)
	subID := result.Subscription.StripeSubscriptionID

	canceled, err := svc.CancelSubscription(context.Background(), user.ID, subID)
	require.NoError(t, err)
	assert.NotNil(t, canceled.CancelAt, "cancel-at must be mirrored")

	stored, err := store.GetSubscriptionByRemoteID(subID)
	require.NoError(t, err, "cancel must not remove the row")
	assert.Equal(t, stored.StripeSubscriptionID, subID)
	assert.True(t, api.subs[subID].CancelAtPeriodEnd)
}

func TestSubscriptionOwnershipEnforced(t *testing.T) {
	svc, store, _ := newTestService()
	user := addTestUser(store, "cus_mine")

	store.subs["sub_other"] = &models.Subscription{
		ID: 1, UserID: user.ID + 1, StripeSubscriptionID: "sub_other",
	}
	_, err := svc.GetSubscription(context.Background(), user.ID, "sub_other")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CancelSubscription(context.Background(), user.ID, "sub_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	svc, _, _ := newTestService()

	created, stored, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		StripeEventID: "evt_1", EventType: "payment_intent.succeeded", PayloadJSON: "{}", SignatureValid: true,
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, stored)

	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		StripeEventID: "evt_1", EventType: "payment_intent.succeeded", PayloadJSON: "{}", SignatureValid: true,
	})
	require.NoError(t, err)
	assert.False(t, created, "duplicate delivery must not create a second row")
}

func TestWrapStoreErrPassesThroughOtherErrors(t *testing.T) {
	svc, _, _ := newTestService()
	sentinel := errors.New("boom")
	assert.ErrorIs(t, svc.wrapStoreErr(sentinel), sentinel)
}
