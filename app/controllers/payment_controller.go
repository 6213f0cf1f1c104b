package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
	"github.com/FelixBrandt/PayFox/internal/pkg/usercontext"
)

// PaymentController serves payment intent creation, confirmation, refunds
// and the payment history.
type PaymentController struct {
	svc *billing.Service
}

// NewPaymentController creates the payment controller.
func NewPaymentController(svc *billing.Service) *PaymentController {
	return &PaymentController{svc: svc}
}

type createIntentRequest struct {
	Amount             float64           `json:"amount" validate:"required,gt=0"`
	Currency           string            `json:"currency" validate:"required,len=3"`
	PaymentMethodTypes []string          `json:"payment_method_types,omitempty"`
	Description        string            `json:"description,omitempty" validate:"max=500"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

type confirmIntentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

type refundRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	Reason          string `json:"reason,omitempty" validate:"omitempty,oneof=duplicate fraudulent requested_by_customer"`
}

// HandleCreateIntent creates a payment intent and returns its client secret.
func (pc *PaymentController) HandleCreateIntent(c *fiber.Ctx) error {
	var req createIntentRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	result, err := pc.svc.CreatePaymentIntent(c.Context(), usercontext.GetUserID(c), billing.CreateIntentInput{
		Amount:             req.Amount,
		Currency:           req.Currency,
		PaymentMethodTypes: req.PaymentMethodTypes,
		Description:        req.Description,
		Metadata:           req.Metadata,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleConfirmIntent confirms a payment intent with an explicit or default method.
func (pc *PaymentController) HandleConfirmIntent(c *fiber.Ctx) error {
	var req confirmIntentRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	result, err := pc.svc.ConfirmPaymentIntent(c.Context(), usercontext.GetUserID(c), billing.ConfirmIntentInput{
		PaymentIntentID: req.PaymentIntentID,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// HandleRefund issues a full refund for a succeeded payment.
func (pc *PaymentController) HandleRefund(c *fiber.Ctx) error {
	var req refundRequest
	if !parseAndValidate(c, &req) {
		return nil
	}

	payment, err := pc.svc.RefundPayment(c.Context(), usercontext.GetUserID(c), req.PaymentIntentID, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"payment": payment})
}

// HandleHistory returns the user's payments, newest first, paginated.
func (pc *PaymentController) HandleHistory(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	payments, total, err := pc.svc.ListPayments(c.Context(), usercontext.GetUserID(c), page, perPage)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"payments": payments,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}
