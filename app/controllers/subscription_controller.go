package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
	"github.com/FelixBrandt/PayFox/internal/pkg/usercontext"
)

// SubscriptionController serves the subscription lifecycle.
type SubscriptionController struct {
	svc *billing.Service
}

// NewSubscriptionController creates the subscription controller.
func NewSubscriptionController(svc *billing.Service) *SubscriptionController {
	return &SubscriptionController{svc: svc}
}

type createSubscriptionRequest struct {
	PriceID         string `json:"price_id" validate:"required"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

type updateSubscriptionRequest struct {
	PriceID string `json:"price_id" validate:"required"`
}

// HandleCreate creates a subscription. The response carries the local row
// plus the confirmation client secret when the latest invoice's payment
// intent could be resolved.
func (sc *SubscriptionController) HandleCreate(c *fiber.Ctx) error {
	var req createSubscriptionRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	result, err := sc.svc.CreateSubscription(c.Context(), usercontext.GetUserID(c), billing.CreateSubscriptionInput{
		PriceID:         req.PriceID,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleGet refreshes and returns one subscription.
func (sc *SubscriptionController) HandleGet(c *fiber.Ctx) error {
	sub, err := sc.svc.GetSubscription(c.Context(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleUpdate moves the subscription to a new price with proration.
func (sc *SubscriptionController) HandleUpdate(c *fiber.Ctx) error {
	var req updateSubscriptionRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	sub, err := sc.svc.UpdateSubscriptionPrice(c.Context(), usercontext.GetUserID(c), c.Params("id"), req.PriceID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleCancel disables auto-renewal at the period end.
func (sc *SubscriptionController) HandleCancel(c *fiber.Ctx) error {
	sub, err := sc.svc.CancelSubscription(c.Context(), usercontext.GetUserID(c), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}
