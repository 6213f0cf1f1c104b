package controllers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
)

// WebhookController receives signed provider events and hands them to the
// reconciler. Signature verification is the sole authentication boundary
// for this endpoint; it accepts no session or bearer credential.
type WebhookController struct {
	svc           *billing.Service
	signingSecret string
}

// NewWebhookController creates the webhook controller.
func NewWebhookController(svc *billing.Service, signingSecret string) *WebhookController {
	return &WebhookController{svc: svc, signingSecret: signingSecret}
}

// HandleStripeWebhook verifies, records and dispatches one provider event.
// It answers 200 after dispatch even for unhandled event types, so the
// provider does not retry events this system chooses to ignore; only
// payload/signature failures produce a 400.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(payload, signature, wc.signingSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		log.Printf("[Webhook] signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_signature",
			"message": "Webhook signature verification failed",
		})
	}

	ctx := context.Background()
	created, stored, err := wc.svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		StripeEventID:  event.ID,
		EventType:      string(event.Type),
		PayloadJSON:    string(payload),
		SignatureValid: true,
	})
	if err != nil {
		log.Printf("[Webhook] event %s: persist failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "Failed to record event",
		})
	}
	if !created {
		// Duplicate delivery, already seen. Acknowledge without reprocessing.
		log.Printf("[Webhook] event %s: duplicate delivery acknowledged", event.ID)
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processErr := wc.svc.ProcessEvent(ctx, event)
	if err := wc.svc.MarkWebhookProcessed(ctx, stored.ID, processErr); err != nil {
		log.Printf("[Webhook] event %s: mark processed failed: %v", event.ID, err)
	}
	if processErr != nil {
		log.Printf("[Webhook] event %s: processing failed: %v", event.ID, processErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "Event processing failed",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
