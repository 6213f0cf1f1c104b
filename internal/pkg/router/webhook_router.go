package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FelixBrandt/PayFox/app/controllers"
	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
	"github.com/FelixBrandt/PayFox/internal/pkg/env"
)

// WebhookRouter registers the inbound event endpoint outside the rate-limited
// API group. The provider retries on 429, so throttling here only delays
// reconciliation.
type WebhookRouter struct {
	svc *billing.Service
}

func NewWebhookRouter(svc *billing.Service) *WebhookRouter {
	return &WebhookRouter{svc: svc}
}

func (r *WebhookRouter) InstallRouter(app *fiber.App) {
	wc := controllers.NewWebhookController(r.svc, env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
	app.Post("/api/v1/webhooks/stripe", wc.HandleStripeWebhook)
}
