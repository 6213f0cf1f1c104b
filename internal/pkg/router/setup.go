package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers all route groups on the app.
func InstallRouter(app *fiber.App, svc *billing.Service) {
	setup(app, NewApiRouter(svc), NewWebhookRouter(svc))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
