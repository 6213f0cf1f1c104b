package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/FelixBrandt/PayFox/app/controllers"
	"github.com/FelixBrandt/PayFox/app/repository"
	"github.com/FelixBrandt/PayFox/internal/pkg/billing"
	"github.com/FelixBrandt/PayFox/internal/pkg/middleware"
)

type ApiRouter struct {
	svc *billing.Service
}

func NewApiRouter(svc *billing.Service) *ApiRouter {
	return &ApiRouter{svc: svc}
}

func (r *ApiRouter) InstallRouter(app *fiber.App) {
	auth := controllers.NewAuthController(repository.GetGlobalFactory().GetUserRepository())
	payments := controllers.NewPaymentController(r.svc)
	methods := controllers.NewPaymentMethodController(r.svc)
	subscriptions := controllers.NewSubscriptionController(r.svc)
	prices := controllers.NewPriceController(r.svc)

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "PayFox API",
		})
	})

	v1 := api.Group("/v1")

	// Public routes
	v1.Post("/auth/register", auth.HandleRegister)
	v1.Post("/auth/login", auth.HandleLogin)
	v1.Get("/prices", prices.HandleList)

	// Authenticated routes
	secured := v1.Group("", middleware.RequireAuth())
	secured.Get("/me", auth.HandleProfile)

	secured.Post("/payments/intent", payments.HandleCreateIntent)
	secured.Post("/payments/confirm", payments.HandleConfirmIntent)
	secured.Post("/payments/refund", payments.HandleRefund)
	secured.Get("/payments", payments.HandleHistory)

	secured.Post("/payment-methods", methods.HandleCreate)
	secured.Get("/payment-methods", methods.HandleList)
	secured.Post("/payment-methods/attach", methods.HandleAttach)
	secured.Delete("/payment-methods/:id", methods.HandleDetach)
	secured.Post("/payment-methods/:id/default", methods.HandleSetDefault)

	secured.Post("/setup-intents", methods.HandleCreateSetupIntent)
	secured.Post("/setup-intents/:id/confirm", methods.HandleConfirmSetupIntent)

	secured.Post("/subscriptions", subscriptions.HandleCreate)
	secured.Get("/subscriptions/:id", subscriptions.HandleGet)
	secured.Put("/subscriptions/:id", subscriptions.HandleUpdate)
	secured.Delete("/subscriptions/:id", subscriptions.HandleCancel)
}
