package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
	"github.com/FelixBrandt/PayFox/internal/pkg/usercontext"
)

// PaymentMethodController serves the payment method lifecycle and the
// setup intent flow for saving cards without charging.
type PaymentMethodController struct {
	svc *billing.Service
}

// NewPaymentMethodController creates the payment method controller.
func NewPaymentMethodController(svc *billing.Service) *PaymentMethodController {
	return &PaymentMethodController{svc: svc}
}

type createMethodRequest struct {
	CardToken string `json:"card_token" validate:"required"`
}

type attachMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
}

type confirmSetupRequest struct {
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

// HandleCreate creates a payment method from a card token and attaches it.
func (pmc *PaymentMethodController) HandleCreate(c *fiber.Ctx) error {
	var req createMethodRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	method, err := pmc.svc.CreatePaymentMethod(c.Context(), usercontext.GetUserID(c), req.CardToken)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment_method": method})
}

// HandleList lists the user's attached card methods.
func (pmc *PaymentMethodController) HandleList(c *fiber.Ctx) error {
	methods, err := pmc.svc.ListPaymentMethods(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"payment_methods": methods})
}

// HandleAttach attaches an existing remote payment method to the user.
func (pmc *PaymentMethodController) HandleAttach(c *fiber.Ctx) error {
	var req attachMethodRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	method, err := pmc.svc.AttachPaymentMethod(c.Context(), usercontext.GetUserID(c), req.PaymentMethodID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"payment_method": method})
}

// HandleDetach removes a payment method remotely and locally.
func (pmc *PaymentMethodController) HandleDetach(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := pmc.svc.DetachPaymentMethod(c.Context(), usercontext.GetUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Payment method removed"})
}

// HandleSetDefault marks a method as the user's default.
func (pmc *PaymentMethodController) HandleSetDefault(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := pmc.svc.SetDefaultPaymentMethod(c.Context(), usercontext.GetUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Default payment method updated"})
}

// HandleCreateSetupIntent starts a card-saving flow without charging.
func (pmc *PaymentMethodController) HandleCreateSetupIntent(c *fiber.Ctx) error {
	result, err := pmc.svc.CreateSetupIntent(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleConfirmSetupIntent confirms a setup intent and mirrors the method.
func (pmc *PaymentMethodController) HandleConfirmSetupIntent(c *fiber.Ctx) error {
	var req confirmSetupRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	result, err := pmc.svc.ConfirmSetupIntent(c.Context(), usercontext.GetUserID(c), c.Params("id"), req.PaymentMethodID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
